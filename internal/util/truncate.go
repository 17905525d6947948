package util

import "fmt"

// DefaultLogMaxLen caps chat text quoted in log lines.
const DefaultLogMaxLen = 256

// TruncateLog shortens long strings for log output so chat messages and
// upstream bodies cannot balloon the log file.
func TruncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + fmt.Sprintf("... [truncated, %d bytes total]", len(s))
}
