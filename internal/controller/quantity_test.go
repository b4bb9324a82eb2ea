package controller

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		input string
		want  *int
	}{
		{"5", intPtr(5)},
		{"  12", intPtr(12)},
		{"12 units", intPtr(12)},
		{"+3x", intPtr(3)},
		{"-4", intPtr(-4)},
		{"0", intPtr(0)},
		{"007", intPtr(7)},
		{"2.5", intPtr(2)},
		{"", nil},
		{"   ", nil},
		{"abc", nil},
		{"-", nil},
		{"+-1", nil},
		{"99999999999999999999999", nil},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseQuantity(tt.input))
		})
	}
}

func TestParseQuantity_RoundTripsIntegers(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(-1_000_000, 1_000_000).Draw(t, "n")
		suffix := rapid.StringMatching(`[ a-z.]{0,5}`).Draw(t, "suffix")

		got := ParseQuantity(strconv.Itoa(n) + suffix)
		if got == nil || *got != n {
			t.Fatalf("ParseQuantity(%q) = %v, want %d", strconv.Itoa(n)+suffix, got, n)
		}
	})
}

func intPtr(n int) *int {
	return &n
}
