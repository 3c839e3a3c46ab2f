package domain

// ChangeClass buckets a week-over-week percentage change for display.
type ChangeClass string

const (
	ChangeMuchMore ChangeClass = "more-2"
	ChangeMore     ChangeClass = "more-1"
	ChangeSame     ChangeClass = "same"
	ChangeLess     ChangeClass = "less-1"
	ChangeMuchLess ChangeClass = "less-2"
)

// ClassifyChange maps a percentage change to its bucket:
//
//	> 140       more-2
//	1..140      more-1
//	0           same
//	-60..-1     less-1
//	< -60       less-2
func ClassifyChange(pct int64) ChangeClass {
	switch {
	case pct > 140:
		return ChangeMuchMore
	case pct > 0:
		return ChangeMore
	case pct == 0:
		return ChangeSame
	case pct >= -60:
		return ChangeLess
	default:
		return ChangeMuchLess
	}
}

// ClassifyChanges classifies every entry of a percentage-change series.
func ClassifyChanges(pcts []int64) []ChangeClass {
	classes := make([]ChangeClass, len(pcts))
	for i, pct := range pcts {
		classes[i] = ClassifyChange(pct)
	}
	return classes
}
