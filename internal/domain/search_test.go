package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Březina", "brezina"},
		{"  BRNO-venkov ", "brno-venkov"},
		{"Ústí nad Labem", "usti nad labem"},
		{"Žďár nad Sázavou", "zdar nad sazavou"},
		{"Mezholezy (Horšovský Týn)", "mezholezy (horsovsky tyn)"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Fold(tt.in))
		})
	}
}

func TestSearchActive(t *testing.T) {
	assert.False(t, searchActive(""))
	assert.False(t, searchActive("b"))
	assert.True(t, searchActive("br"))
	assert.False(t, searchActive(Fold("  Ř ")), "one folded rune after trimming")
}

func TestMatches(t *testing.T) {
	assert.True(t, matches(Fold("Březina (Tišnov)"), Fold("TIŠ")))
	assert.True(t, matches(Fold("Praha"), Fold("ah")))
	assert.False(t, matches(Fold("Praha"), Fold("brno")))
}
