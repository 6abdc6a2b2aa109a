// Package report renders a statistics snapshot into the report artifacts:
// an HTML report, a PDF executive summary, a CSV of critical cases, and a
// persisted JSON snapshot that can be reloaded to re-render without
// re-querying the platform.
package report

import (
	"fmt"
	"strings"
)

var byteSuffixes = []string{"B", "KB", "MB", "GB", "TB", "PB"}

var countSuffixes = []string{"", "K", "M", "B", "T"}

// HumanBytes formats a byte count with decimal (SI) units, trimming
// trailing zeros: 1530000000 -> "1.53 GB".
func HumanBytes(n float64, decimals int) string {
	i := 0
	for n >= 1000 && i < len(byteSuffixes)-1 {
		n /= 1000
		i++
	}
	return trimZeros(n, decimals) + " " + byteSuffixes[i]
}

// HumanCount formats a count with K/M/B/T suffixes: 12400 -> "12.4K".
func HumanCount(n float64, decimals int) string {
	neg := ""
	if n < 0 {
		neg = "-"
		n = -n
	}
	i := 0
	for n >= 1000 && i < len(countSuffixes)-1 {
		n /= 1000
		i++
	}
	return neg + trimZeros(n, decimals) + countSuffixes[i]
}

func trimZeros(n float64, decimals int) string {
	s := fmt.Sprintf("%.*f", decimals, n)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}
