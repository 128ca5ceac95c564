package util

import "strings"

// SplitList splits a comma separated list, trimming blanks and dropping
// empty entries. Order and duplicates are kept.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
