// Package utils provides small, generic helper functions used across
// different layers of the application. These utilities are independent
// of domain or business logic.
package utils

import (
	"strconv"
	"strings"
)

// ParseID parses a positive decimal record identifier as used in paths
// and query strings. Zero, negatives, signs, whitespace and values that
// overflow uint32 are rejected.
//
//	utils.ParseID("42")  // 42, true
//	utils.ParseID("0")   // 0, false
//	utils.ParseID("+4")  // 0, false
func ParseID(s string) (uint, bool) {
	if s == "" || strings.ContainsAny(s[:1], "+-") {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// FormatID is the inverse of ParseID.
func FormatID(id uint) string { return strconv.FormatUint(uint64(id), 10) }
