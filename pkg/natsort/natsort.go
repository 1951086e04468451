// Package natsort compares strings the way warehouse operators read shelf
// labels: embedded digit runs compare numerically, so "A2" sorts before
// "A10".
package natsort

import "strings"

// Compare returns -1, 0, or 1 ordering a before b with digit runs compared
// by numeric value. Comparison is case-insensitive; equal numeric values
// with different digit counts ("A01" vs "A1") fall back to string order.
func Compare(a, b string) int {
	a = strings.ToLower(a)
	b = strings.ToLower(b)
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ca, cb := a[i], b[j]
		if isDigit(ca) && isDigit(cb) {
			ia, na := scanNumber(a, i)
			jb, nb := scanNumber(b, j)
			if na != nb {
				if na < nb {
					return -1
				}
				return 1
			}
			i, j = ia, jb
			continue
		}
		if ca != cb {
			if ca < cb {
				return -1
			}
			return 1
		}
		i++
		j++
	}
	switch {
	case len(a)-i < len(b)-j:
		return -1
	case len(a)-i > len(b)-j:
		return 1
	}
	return strings.Compare(a, b)
}

// Less is a convenience adapter for sort closures.
func Less(a, b string) bool { return Compare(a, b) < 0 }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// scanNumber consumes a digit run starting at i and returns the index after
// the run and its numeric value.
func scanNumber(s string, i int) (int, uint64) {
	var n uint64
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + uint64(s[i]-'0')
		i++
	}
	return i, n
}
