package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatSize formats a byte count into a human-readable string
func FormatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.1f TB", float64(bytes)/TB)
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// ParseSize parses a human-readable size like "500M", "1.5GB" or
// "10GiB" into a byte count. Suffixes are case-insensitive; "B" and
// "iB" forms are accepted and all use 1024 multiples.
func ParseSize(s string) (int64, error) {
	in := strings.TrimSpace(s)
	if in == "" {
		return 0, fmt.Errorf("empty size")
	}

	upper := strings.ToUpper(in)
	upper = strings.TrimSuffix(upper, "IB")
	upper = strings.TrimSuffix(upper, "B")

	multiple := int64(1)
	if len(upper) > 0 {
		switch upper[len(upper)-1] {
		case 'K':
			multiple = 1 << 10
		case 'M':
			multiple = 1 << 20
		case 'G':
			multiple = 1 << 30
		case 'T':
			multiple = 1 << 40
		case 'P':
			multiple = 1 << 50
		}
		if multiple != 1 {
			upper = upper[:len(upper)-1]
		}
	}

	num, err := strconv.ParseFloat(strings.TrimSpace(upper), 64)
	if err != nil {
		return 0, fmt.Errorf("wrong size: %s", s)
	}
	if num < 0 {
		return 0, fmt.Errorf("negative size: %s", s)
	}

	return int64(num * float64(multiple)), nil
}
