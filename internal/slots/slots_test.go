package slots

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractIndex(t *testing.T) {
	tests := []struct {
		name  string
		want  int
		found bool
	}{
		{"Check 1", 1, true},
		{"Box20", 20, true},
		{"item 15 of 30", 15, true},
		{"Box 21", 0, false},
		{"Box 21 then 4", 4, true},
		{"A05", 0, false},
		{"07 then 9", 9, true},
		{"Field 7b", 7, true},
		{"123", 0, false},
		{"no digits", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractIndex(tt.name)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeCheck(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"strict spaced", "Check 3", "Check 3", true},
		{"strict compact", "Check3", "Check 3", true},
		{"strict lower", "check 12", "Check 12", true},
		{"strict leading zero", "Check 07", "Check 7", true},
		{"strict out of range kept", "Check 25", "Check 25", true},
		{"checkbox keyword", "Checkbox 4", "Check 4", true},
		{"check box keyword", "Check Box 18", "Check 18", true},
		{"tick box keyword", "Tick box 9", "Check 9", true},
		{"polish keyword", "Pole wyboru 11", "Check 11", true},
		{"polish ascii keyword", "wybor 2", "Check 2", true},
		{"keyword without index", "Checkbox", "", false},
		{"keyword glued to digit", "Checkbox5", "", false},
		{"keyword index out of range", "Checkbox 21", "", false},
		{"unrelated", "Text1", "", false},
		{"strike is not check", "Strike 1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeName(Check, tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeStrike(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"strict", "Strike 5", "Strike 5", true},
		{"strict compact", "Strike20", "Strike 20", true},
		{"cross out", "Cross out 6", "Strike 6", true},
		{"crossout", "crossout 14", "Strike 14", true},
		{"line out", "Line out 2", "Strike 2", true},
		{"polish", "skreśl 8", "Strike 8", true},
		{"polish ascii", "skresl 8", "Strike 8", true},
		{"polish short", "skrel 8", "Strike 8", true},
		{"no index", "Strike", "", false},
		{"check is not strike", "Check 1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeName(Strike, tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsStrikeLike(t *testing.T) {
	assert.True(t, IsStrikeLike("Strike1"))
	assert.True(t, IsStrikeLike("cross-out_line_3"))
	assert.True(t, IsStrikeLike("LINEOUT"))
	assert.True(t, IsStrikeLike("skreślenie 4"))
	assert.False(t, IsStrikeLike("Check 1"))
	assert.False(t, IsStrikeLike("Text4"))
}

func TestFamilyString(t *testing.T) {
	assert.Equal(t, "Check", Check.String())
	assert.Equal(t, "Strike", Strike.String())
	assert.Equal(t, "Check 4", CanonicalName(Check, 4))
	assert.True(t, InRange(1))
	assert.True(t, InRange(20))
	assert.False(t, InRange(21))
}
