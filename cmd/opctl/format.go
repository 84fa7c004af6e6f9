package main

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// numbers formats integers with thousands separators in human-readable output.
var numbers = message.NewPrinter(language.English)

// formatBytes renders a byte count with a binary unit.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return numbers.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return numbers.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
