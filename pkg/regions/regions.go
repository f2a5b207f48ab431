// Package regions partitions broad queries across the fixed enumeration of
// Indian states and union territories. The API caps how many records a
// single query can ever return; binding each region as the state filter in
// turn keeps every per-region query under that cap.
package regions

import (
	_ "embed"
	"strings"
)

//go:embed states.txt
var statesData string

// names is the fixed partition key enumeration, in file order.
var names = parseStates(statesData)

// parseStates splits the embedded list into trimmed, non-empty names.
func parseStates(data string) []string {
	lines := strings.Split(data, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if name := strings.TrimSpace(line); name != "" {
			out = append(out, name)
		}
	}
	return out
}

// Names returns the region enumeration used for partitioning. The returned
// slice is a copy; callers may not rely on mutating it.
func Names() []string {
	out := make([]string, len(names))
	copy(out, names)
	return out
}
