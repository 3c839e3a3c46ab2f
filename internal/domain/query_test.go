package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func municipality(district, name string, population, last7 int64, weeks ...int64) Municipality {
	return Municipality{
		Entity:     Entity{Name: name, Population: population, CasesPerWeek: weeks, Last7DaysCases: last7},
		UniqueName: fmt.Sprintf("%s (%s)", name, district),
		District:   district,
	}
}

func district(name string, ms ...Municipality) District {
	d := District{Entity: Entity{Name: name}, Municipalities: ms}
	for _, m := range ms {
		d.Population += m.Population
		d.Last7DaysCases += m.Last7DaysCases
		if d.CasesPerWeek == nil {
			d.CasesPerWeek = make([]int64, len(m.CasesPerWeek))
		}
		for w, c := range m.CasesPerWeek {
			d.CasesPerWeek[w] += c
		}
	}
	return d
}

func testDistricts() []EnrichedDistrict {
	return Enrich([]District{
		district("Brno-venkov",
			municipality("Brno-venkov", "Březina", 700, 7, 1, 1),
			municipality("Brno-venkov", "Tišnov", 9000, 90, 40, 50),
		),
		district("Praha",
			municipality("Praha", "Praha", 1300000, 2600, 1000, 1500),
		),
		district("Blansko",
			municipality("Blansko", "Blansko", 20000, 10, 5, 5),
			municipality("Blansko", "Březina", 300, 9, 0, 3),
		),
	}, DefaultThresholds())
}

func names[T interface{ displayName() string }](items []T) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.displayName()
	}
	return out
}

func (d EnrichedDistrict) displayName() string     { return d.Name }
func (m EnrichedMunicipality) displayName() string { return m.UniqueName }

func TestQueryDistricts_DefaultSort(t *testing.T) {
	page, err := QueryDistricts(testDistricts(), ListQuery{})
	require.NoError(t, err)

	// last 7 days per 100k: Brno-venkov 1000, Praha 200, Blansko 94
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"Brno-venkov", "Praha", "Blansko"}, names(page.Items))
	assert.Equal(t, []string{"Březina (Brno-venkov)", "Tišnov (Brno-venkov)"}, names(page.Items[0].Municipalities))
	assert.Equal(t, []string{"Březina (Blansko)", "Blansko (Blansko)"}, names(page.Items[2].Municipalities))
}

func TestQueryDistricts_SortKeys(t *testing.T) {
	tests := []struct {
		sort  SortKey
		order SortOrder
		want  []string
	}{
		{SortTotalCases, OrderDesc, []string{"Praha", "Brno-venkov", "Blansko"}},
		{SortTotalCases, OrderAsc, []string{"Blansko", "Brno-venkov", "Praha"}},
		{SortLast7DaysCases, OrderDesc, []string{"Praha", "Brno-venkov", "Blansko"}},
		{SortTotalCasesPer100000, OrderDesc, []string{"Brno-venkov", "Praha", "Blansko"}},
		{SortLast7DaysCasesPer100000, OrderAsc, []string{"Blansko", "Praha", "Brno-venkov"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.sort)+"/"+string(tt.order), func(t *testing.T) {
			page, err := QueryDistricts(testDistricts(), ListQuery{Sort: tt.sort, Order: tt.order})
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(page.Items))
		})
	}
}

func TestQueryDistricts_Search(t *testing.T) {
	page, err := QueryDistricts(testDistricts(), ListQuery{Search: "BREZ", Limit: 1})
	require.NoError(t, err)

	// Search disables paging.
	assert.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Brno-venkov", page.Items[0].Name)
	assert.Equal(t, []string{"Březina (Brno-venkov)"}, names(page.Items[0].Municipalities))
	assert.Equal(t, "Blansko", page.Items[1].Name)
	assert.Equal(t, []string{"Březina (Blansko)"}, names(page.Items[1].Municipalities))
}

func TestQueryDistricts_SearchMatchesDistrictName(t *testing.T) {
	page, err := QueryDistricts(testDistricts(), ListQuery{Search: "venkov"})
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "Brno-venkov", page.Items[0].Name)
	assert.Empty(t, page.Items[0].Municipalities)
}

func TestQueryDistricts_ShortSearchIgnored(t *testing.T) {
	page, err := QueryDistricts(testDistricts(), ListQuery{Search: "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Items[0].Municipalities, 2)
}

func TestQueryDistricts_Paging(t *testing.T) {
	page, err := QueryDistricts(testDistricts(), ListQuery{Offset: 1, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, []string{"Praha"}, names(page.Items))

	page, err = QueryDistricts(testDistricts(), ListQuery{Offset: 1, Limit: 1, All: true})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	page, err = QueryDistricts(testDistricts(), ListQuery{Offset: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, page.Total)
	assert.Empty(t, page.Items)
}

func TestQueryDistricts_DoesNotModifyInput(t *testing.T) {
	in := testDistricts()

	_, err := QueryDistricts(in, ListQuery{Search: "brez", Order: OrderAsc})
	require.NoError(t, err)

	assert.Equal(t, testDistricts(), in)
}

func TestQueryDistricts_InvalidQuery(t *testing.T) {
	_, err := QueryDistricts(testDistricts(), ListQuery{Sort: "population"})
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, err = QueryDistricts(testDistricts(), ListQuery{Order: "up"})
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestQueryMunicipalities(t *testing.T) {
	all := Flatten(testDistricts())
	require.Len(t, all, 5)

	tests := []struct {
		name      string
		q         ListQuery
		wantTotal int
		want      []string
	}{
		{
			name:      "default",
			q:         ListQuery{},
			wantTotal: 5,
			want:      []string{"Březina (Blansko)", "Březina (Brno-venkov)", "Tišnov (Brno-venkov)", "Praha (Praha)", "Blansko (Blansko)"},
		},
		{
			name:      "only larger",
			q:         ListQuery{OnlyLarger: true},
			wantTotal: 3,
			want:      []string{"Tišnov (Brno-venkov)", "Praha (Praha)", "Blansko (Blansko)"},
		},
		{
			name:      "search overrides only larger",
			q:         ListQuery{OnlyLarger: true, Search: "březina"},
			wantTotal: 2,
			want:      []string{"Březina (Blansko)", "Březina (Brno-venkov)"},
		},
		{
			name:      "search matches district in unique name",
			q:         ListQuery{Search: "blansko", Sort: SortTotalCases},
			wantTotal: 2,
			want:      []string{"Blansko (Blansko)", "Březina (Blansko)"},
		},
		{
			name:      "paged",
			q:         ListQuery{Sort: SortTotalCases, Order: OrderAsc, Offset: 2, Limit: 2},
			wantTotal: 5,
			want:      []string{"Blansko (Blansko)", "Tišnov (Brno-venkov)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := QueryMunicipalities(all, tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.want, names(page.Items))
		})
	}
}

func TestQueryMunicipalities_StableTies(t *testing.T) {
	ms := Flatten(Enrich([]District{
		district("D",
			municipality("D", "first", 100, 0, 0),
			municipality("D", "second", 100, 0, 0),
			municipality("D", "third", 100, 0, 0),
		),
	}, DefaultThresholds()))

	for _, order := range []SortOrder{OrderAsc, OrderDesc} {
		page, err := QueryMunicipalities(ms, ListQuery{Order: order})
		require.NoError(t, err)
		assert.Equal(t, []string{"first (D)", "second (D)", "third (D)"}, names(page.Items))
	}
}

func TestParseSortKeyAndOrder(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	assert.Equal(t, SortLast7DaysCasesPer100000, k)

	k, err = ParseSortKey("total_cases")
	require.NoError(t, err)
	assert.Equal(t, SortTotalCases, k)

	o, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, OrderDesc, o)

	_, err = ParseSortOrder("DESC")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
