package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// ErrInvalidThresholds is returned by Thresholds.Validate.
var ErrInvalidThresholds = errors.New("invalid severity thresholds")

// Level is a weekly severity level, 0 (no cases) through 4.
type Level int

const (
	LevelNone Level = iota
	Level1
	Level2
	Level3
	Level4
)

// Thresholds are the lower bounds (cases per 100 000 per week) of levels 2-4.
// They are expected to be non-negative and non-decreasing from level 2 to 4.
type Thresholds struct {
	Level2 float64 `json:"level_2"`
	Level3 float64 `json:"level_3"`
	Level4 float64 `json:"level_4"`
}

// DefaultThresholds are the production quartiles of non-zero weekly values.
func DefaultThresholds() Thresholds {
	return Thresholds{Level2: 76, Level3: 216, Level4: 474}
}

// Validate checks that the thresholds are finite, non-negative and ordered.
func (t Thresholds) Validate() error {
	for i, v := range []float64{t.Level2, t.Level3, t.Level4} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: level %d threshold %v", ErrInvalidThresholds, i+2, v)
		}
	}
	if t.Level2 > t.Level3 {
		return fmt.Errorf("%w: level 2 (%g) exceeds level 3 (%g)", ErrInvalidThresholds, t.Level2, t.Level3)
	}
	if t.Level3 > t.Level4 {
		return fmt.Errorf("%w: level 3 (%g) exceeds level 4 (%g)", ErrInvalidThresholds, t.Level3, t.Level4)
	}
	return nil
}

// Classify returns the level of a weekly per-capita value. Zero is always
// LevelNone and any positive value is at least Level1; otherwise the highest
// threshold met wins, tested from level 4 down.
func (t Thresholds) Classify(casesPer100000 int64) Level {
	if casesPer100000 == 0 {
		return LevelNone
	}

	v := float64(casesPer100000)
	switch {
	case v >= t.Level4:
		return Level4
	case v >= t.Level3:
		return Level3
	case v >= t.Level2:
		return Level2
	default:
		return Level1
	}
}

// Stats are the figures derived from one entity. Every per-week slice has the
// same length as the entity's CasesPerWeek.
type Stats struct {
	TotalCases              int64   `json:"total_cases"`
	TotalCasesPer100000     int64   `json:"total_cases_per_100000"`
	Last7DaysCasesPer100000 int64   `json:"last_7_days_cases_per_100000"`
	CasesPer100000PerWeek   []int64 `json:"cases_per_100000_per_week"`
	LevelsPerWeek           []Level `json:"levels_per_week"`
	PercentageChangePerWeek []int64 `json:"percentage_change_per_week"`
}

// ComputeStats derives the statistics of an entity. It is pure: the entity is
// not modified and the result shares no memory with it.
func ComputeStats(e Entity, t Thresholds) Stats {
	weeks := len(e.CasesPerWeek)
	s := Stats{
		CasesPer100000PerWeek:   make([]int64, weeks),
		LevelsPerWeek:           make([]Level, weeks),
		PercentageChangePerWeek: make([]int64, weeks),
	}

	for i, cases := range e.CasesPerWeek {
		s.TotalCases += cases
		s.CasesPer100000PerWeek[i] = Per100000(cases, e.Population)
		s.LevelsPerWeek[i] = t.Classify(s.CasesPer100000PerWeek[i])
		if i > 0 {
			s.PercentageChangePerWeek[i] = PercentageChange(s.CasesPer100000PerWeek[i-1], s.CasesPer100000PerWeek[i])
		}
	}

	s.TotalCasesPer100000 = Per100000(s.TotalCases, e.Population)
	s.Last7DaysCasesPer100000 = Per100000(e.Last7DaysCases, e.Population)
	return s
}

var (
	hundred         = decimal.NewFromInt(100)
	hundredThousand = decimal.NewFromInt(100000)
)

// Per100000 returns cases per 100 000 inhabitants rounded half away from
// zero, or 0 when the population is not positive.
func Per100000(cases, population int64) int64 {
	if population <= 0 {
		return 0
	}
	return decimal.NewFromInt(cases).
		Mul(hundredThousand).
		DivRound(decimal.NewFromInt(population), 0).
		IntPart()
}

// PercentageChange returns the signed change from prev to curr in whole
// percent. A rise from zero is reported as a flat 100.
func PercentageChange(prev, curr int64) int64 {
	if prev == 0 {
		if curr == 0 {
			return 0
		}
		return 100
	}
	return decimal.NewFromInt(curr).
		Mul(hundred).
		DivRound(decimal.NewFromInt(prev), 0).
		IntPart() - 100
}
