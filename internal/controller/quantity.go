package controller

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseQuantity reads the leading base-10 integer of s, skipping leading
// whitespace and accepting one sign: "12", " 12 units" and "+3x" all parse.
// It returns nil when no digits lead the input or the value overflows int.
// Positivity is not checked.
func ParseQuantity(s string) *int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return nil
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}
