package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDistrict     = "Brno-venkov"
	testRegion       = "Tišnov"
	testMunicipality = "Březina"
)

func mustLayout(t *testing.T, name string) Layout {
	t.Helper()
	l, err := LayoutByName(name)
	require.NoError(t, err)
	return l
}

func TestLayoutParse(t *testing.T) {
	tests := []struct {
		name      string
		layout    string
		row       RawRow
		wantWeeks []int64
		wantLast7 int64
	}{
		{
			name:      "current",
			layout:    LayoutCurrent,
			row:       RawRow{testDistrict, testRegion, testMunicipality, 1200.0, 7.0, 1.0, 2.0, 3.0},
			wantWeeks: []int64{1, 2, 3},
			wantLast7: 7,
		},
		{
			name:      "partial week drops trailing column",
			layout:    LayoutPartialWeek,
			row:       RawRow{testDistrict, testRegion, testMunicipality, 1200.0, 7.0, 1.0, 2.0, 3.0},
			wantWeeks: []int64{1, 2},
			wantLast7: 7,
		},
		{
			name:      "last 7 days trailing",
			layout:    LayoutLast7Trailing,
			row:       RawRow{testDistrict, testRegion, testMunicipality, 1200.0, 1.0, 2.0, 3.0, 9.0},
			wantWeeks: []int64{1, 2, 3},
			wantLast7: 9,
		},
		{
			name:      "no last 7 days column substitutes second-to-last week",
			layout:    LayoutNoLast7,
			row:       RawRow{testDistrict, testRegion, testMunicipality, 1200.0, 1.0, 2.0, 3.0, 4.0},
			wantWeeks: []int64{1, 2, 3, 4},
			wantLast7: 3,
		},
		{
			name:      "json numbers",
			layout:    LayoutCurrent,
			row:       RawRow{testDistrict, testRegion, testMunicipality, json.Number("1200"), json.Number("7"), json.Number("5")},
			wantWeeks: []int64{5},
			wantLast7: 7,
		},
		{
			name:      "no week columns",
			layout:    LayoutCurrent,
			row:       RawRow{testDistrict, testRegion, testMunicipality, 1200.0, 7.0},
			wantWeeks: []int64{},
			wantLast7: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := mustLayout(t, tt.layout).Parse(tt.row)
			require.NoError(t, err)

			assert.Equal(t, testDistrict, row.District)
			assert.Equal(t, testRegion, row.AuthorityRegion)
			assert.Equal(t, testMunicipality, row.Municipality)
			assert.Equal(t, int64(1200), row.Population)
			assert.Equal(t, tt.wantWeeks, row.CasesPerWeek)
			assert.Equal(t, tt.wantLast7, row.Last7DaysCases)
		})
	}
}

func TestLayoutParse_TrimsNames(t *testing.T) {
	row, err := mustLayout(t, LayoutCurrent).Parse(RawRow{" Praha ", nil, " Praha  ", 0.0, 0.0, 0.0})
	require.NoError(t, err)
	assert.Equal(t, "Praha", row.District)
	assert.Equal(t, "Praha", row.Municipality)
	assert.Empty(t, row.AuthorityRegion)
	assert.Equal(t, int64(0), row.Population)
}

func TestLayoutParse_Malformed(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		row    RawRow
		reason string
	}{
		{"too short", LayoutCurrent, RawRow{testDistrict, testRegion, testMunicipality}, "columns"},
		{"missing district", LayoutCurrent, RawRow{"", testRegion, testMunicipality, 10.0, 0.0, 1.0}, "district"},
		{"blank municipality", LayoutCurrent, RawRow{testDistrict, testRegion, "  ", 10.0, 0.0, 1.0}, "municipality"},
		{"district not a string", LayoutCurrent, RawRow{12.0, testRegion, testMunicipality, 10.0, 0.0, 1.0}, "district"},
		{"negative population", LayoutCurrent, RawRow{testDistrict, testRegion, testMunicipality, -1.0, 0.0, 1.0}, "population"},
		{"fractional population", LayoutCurrent, RawRow{testDistrict, testRegion, testMunicipality, 10.5, 0.0, 1.0}, "population"},
		{"population as string", LayoutCurrent, RawRow{testDistrict, testRegion, testMunicipality, "10", 0.0, 1.0}, "population"},
		{"null week", LayoutCurrent, RawRow{testDistrict, testRegion, testMunicipality, 10.0, 0.0, nil}, "week column 5"},
		{"negative week", LayoutCurrent, RawRow{testDistrict, testRegion, testMunicipality, 10.0, 0.0, -3.0}, "week column 5"},
		{"negative last 7 days", LayoutCurrent, RawRow{testDistrict, testRegion, testMunicipality, 10.0, -1.0, 1.0}, "last 7 days"},
		{"missing last 7 days column", LayoutCurrent, RawRow{testDistrict, testRegion, testMunicipality, 10.0}, "columns"},
		{"too few weeks to substitute", LayoutNoLast7, RawRow{testDistrict, testRegion, testMunicipality, 10.0, 1.0}, "weeks"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := mustLayout(t, tt.layout).Parse(tt.row)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedRow))
			assert.Contains(t, err.Error(), tt.reason)
		})
	}
}

func TestLayoutByName_Unknown(t *testing.T) {
	_, err := LayoutByName("v0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownLayout)
	assert.Contains(t, err.Error(), `"v0"`)
}

func TestLayoutValidate(t *testing.T) {
	for _, name := range LayoutNames() {
		t.Run(name, func(t *testing.T) {
			assert.NoError(t, mustLayout(t, name).Validate())
		})
	}

	tests := []struct {
		name   string
		layout Layout
	}{
		{"weeks overlap population", Layout{WeeksStart: 3}},
		{"no week columns", Layout{WeeksStart: 5, WeeksEnd: 5}},
		{"last 7 days on a name column", Layout{WeeksStart: 5, Last7DaysIndex: 2}},
		{"unknown source", Layout{WeeksStart: 5, Last7DaysSource: Last7DaysSource(7), Last7DaysIndex: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.layout.Validate(), ErrInvalidLayout)
		})
	}
}

func TestParseLast7DaysSource(t *testing.T) {
	src, err := ParseLast7DaysSource("Week")
	require.NoError(t, err)
	assert.Equal(t, Last7DaysFromWeek, src)

	src, err = ParseLast7DaysSource("column")
	require.NoError(t, err)
	assert.Equal(t, Last7DaysFromColumn, src)

	_, err = ParseLast7DaysSource("header")
	assert.ErrorIs(t, err, ErrInvalidLayout)
}

func TestLayoutNames(t *testing.T) {
	assert.Equal(t, []string{LayoutCurrent, LayoutLast7Trailing, LayoutNoLast7, LayoutPartialWeek}, LayoutNames())
}

func TestCellCount(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    int64
		wantErr bool
	}{
		{"float64", 42.0, 42, false},
		{"zero", 0.0, 0, false},
		{"int", 5, 5, false},
		{"int64", int64(6), 6, false},
		{"json number", json.Number("7"), 7, false},
		{"json fractional", json.Number("7.5"), 0, true},
		{"fraction", 1.25, 0, true},
		{"negative", -2.0, 0, true},
		{"bool", true, 0, true},
		{"nil", nil, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cellCount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
