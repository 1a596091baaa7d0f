package dataset

import "strings"

// Clean drops fully blank lines at both ends, then trims surrounding
// whitespace. Interior lines are left untouched. Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	lines := strings.Split(text, "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	end := len(lines)
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}

	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}
