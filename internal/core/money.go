// Package core provides amount parsing and formatting utilities.
//
// Ledger amounts are whole currency units with no minor unit, so every
// amount is a positive int64.
package core

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.Korean)

// ParseAmount converts user input to a positive whole amount.
//
// Grouping separators (comma, underscore, space) and a leading "₩" or a
// trailing "원" are accepted. Fractions, signs and zero are rejected.
//
// Examples:
//
//	ParseAmount("12000")    -> 12000, nil
//	ParseAmount("12,000")   -> 12000, nil
//	ParseAmount("₩ 8,500")  -> 8500, nil
//	ParseAmount("12.5")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "₩")
	s = strings.TrimSuffix(s, "원")
	s = strings.Map(func(r rune) rune {
		if r == ',' || r == '_' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatAmount renders n with locale digit grouping (e.g. "1,250,000").
func FormatAmount(n int64) string {
	return amountPrinter.Sprintf("%d", n)
}
