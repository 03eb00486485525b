package transform

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// Price and line values are clamped to what the numeric(6,2) storage
	// columns can hold.
	maxAbsValue = 9999.99

	// Fixed-width text columns
	maxTextLen = 50
)

// SanitizePrice parses a provider numeric field, clamps it to
// [-9999.99, 9999.99], and rounds to 2 decimal places. Absent or
// non-numeric values normalize to nil, never zero.
func SanitizePrice(v RawValue) *float64 {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if f > maxAbsValue {
		f = maxAbsValue
	} else if f < -maxAbsValue {
		f = -maxAbsValue
	}
	f = math.Round(f*100) / 100
	return &f
}

// Truncate bounds a text field to the varchar(50) column width. The limit
// counts runes, not bytes, so a multi-byte name is never cut mid-rune.
func Truncate(s string) string {
	if utf8.RuneCountInString(s) <= maxTextLen {
		return s
	}
	return string([]rune(s)[:maxTextLen])
}

// firstPrice returns the first of the given values that sanitizes to a number
func firstPrice(values ...RawValue) *float64 {
	for _, v := range values {
		if p := SanitizePrice(v); p != nil {
			return p
		}
	}
	return nil
}
