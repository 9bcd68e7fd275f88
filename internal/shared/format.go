package shared

import (
	"fmt"
	"strings"
)

// FormatDuration renders seconds as "1h 5m", "3m 20s" or "45s".
//
// Seconds are dropped once the duration reaches an hour. Non-positive input yields "0s".
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0s"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	var parts []string
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	if secs > 0 && hours == 0 {
		parts = append(parts, fmt.Sprintf("%ds", secs))
	}

	if len(parts) == 0 {
		return "0s"
	}
	return strings.Join(parts, " ")
}

// FormatTrackDuration renders seconds as "M:SS".
func FormatTrackDuration(seconds int) string {
	if seconds <= 0 {
		return "0:00"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// FormatFileSize renders a byte count in megabytes with one decimal.
func FormatFileSize(bytes int64) string {
	if bytes <= 0 {
		return "0 MB"
	}
	return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
}

// Slugify lowercases title and replaces every character outside [a-z0-9] with a dash.
func Slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}
