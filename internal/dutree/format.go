package dutree

import (
	"fmt"
	"math"
)

// sizePrefixes are the binary unit prefixes, each 1024 times the previous.
//
//nolint:gochecknoglobals // Lookup table
var sizePrefixes = []string{"", "K", "M", "G", "T", "P"}

// FormatSize renders a byte count with one decimal digit and a 1024-based unit,
// e.g. 0 -> "0.0 B", 1536 -> "1.5 KB". Magnitudes beyond the petabyte range
// are given the "Y" prefix.
func FormatSize(bytes int64) string {
	num := float64(bytes)

	for _, prefix := range sizePrefixes {
		if math.Abs(num) < 1024 {
			return fmt.Sprintf("%.1f %sB", num, prefix)
		}

		num /= 1024
	}

	return fmt.Sprintf("%.1f YB", num)
}
