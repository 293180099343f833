package maven

import (
	"slices"
	"strings"
)

// CompareVersions orders two version strings. Build metadata after '+' is
// ignored. Dot-separated components compare by their leading integer, with
// missing components equal to 0; at equal integers a component without a
// suffix ranks above one with a suffix ("1" > "1-beta"), and suffixes compare
// lexicographically. The result is -1, 0 or 1.
func CompareVersions(a, b string) int {
	ac := strings.Split(stripBuild(a), ".")
	bc := strings.Split(stripBuild(b), ".")
	for i := 0; i < max(len(ac), len(bc)); i++ {
		var x, y string
		if i < len(ac) {
			x = ac[i]
		}
		if i < len(bc) {
			y = bc[i]
		}
		if c := compareComponent(x, y); c != 0 {
			return c
		}
	}
	return 0
}

// SortVersions sorts versions in place, newest first when descending is set.
// Versions that compare equal keep a deterministic lexical order.
func SortVersions(versions []string, descending bool) {
	slices.SortStableFunc(versions, func(a, b string) int {
		c := CompareVersions(a, b)
		if c == 0 {
			c = strings.Compare(a, b)
		}
		if descending {
			return -c
		}
		return c
	})
}

func stripBuild(v string) string {
	if i := strings.IndexByte(v, '+'); i >= 0 {
		return v[:i]
	}
	return v
}

func compareComponent(x, y string) int {
	xn, xs := splitNumeric(x)
	yn, ys := splitNumeric(y)
	if c := compareDigits(xn, yn); c != 0 {
		return c
	}
	switch {
	case xs == ys:
		return 0
	case xs == "":
		return 1
	case ys == "":
		return -1
	}
	return strings.Compare(xs, ys)
}

// splitNumeric splits a component into its leading digits, without leading
// zeros, and the remaining suffix.
func splitNumeric(s string) (string, string) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	return strings.TrimLeft(s[:i], "0"), s[i:]
}

// compareDigits compares unsigned decimal strings without leading zeros of
// any length.
func compareDigits(a, b string) int {
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
