// Package core provides weight parsing and money formatting utilities.
//
// Money is kept as float64 end to end: balances and prices are stored as
// REAL columns and only rounded to two decimals for display.
package core

import (
	"math"
	"strconv"
	"strings"
)

// ParseWeight converts user input to kilograms.
//
// It accepts both dot (1.5) and comma (1,5) decimal separators. NaN, infinities,
// negative values and anything strconv cannot parse return ErrInvalidWeight.
// Zero is a valid weight.
//
// Examples:
//
//	ParseWeight("2")    -> 2, nil
//	ParseWeight("0,25") -> 0.25, nil
//	ParseWeight("abc")  -> 0, ErrInvalidWeight
func ParseWeight(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidWeight
	}
	s = strings.ReplaceAll(s, ",", ".")
	w, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, ErrInvalidWeight
	}
	if isNaNOrInf(w) || w < 0 {
		return 0, ErrInvalidWeight
	}
	return w, nil
}

// FormatMoney renders an amount with exactly two decimals, e.g. 995.00.
func FormatMoney(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func isNaNOrInf(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}
