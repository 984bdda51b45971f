// Package governance turns validation and dependency signals into a
// single policy verdict for a formula. It owns the schema-wide cycle
// detector and the verdict evaluator layered on formula validation.
package governance

import (
	"sort"
	"strings"
)

// CycleResult reports whether a caller-supplied dependency map contains
// a cycle, and if so which fields participate, in path order.
type CycleResult struct {
	HasCycle bool     `json:"hasCycle"`
	Members  []string `json:"members"`
}

// DetectCycle runs a depth-first search over the field -> dependencies
// map with current-path tracking; any back-edge to a field on the
// active path is a cycle. Roots are visited in sorted order so the same
// input always reports the same cycle. Search cost is bounded by the
// number of fields and edges in the map.
func DetectCycle(deps map[string][]string) CycleResult {
	visited := make(map[string]bool, len(deps))
	onPath := make(map[string]bool, len(deps))
	cameFrom := make(map[string]string, len(deps))

	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		visited[id] = true
		onPath[id] = true

		for _, dep := range deps[id] {
			if !visited[dep] {
				cameFrom[dep] = id
				if dfs(dep) {
					return true
				}
			} else if onPath[dep] {
				// Back-edge: walk the recorded path back to the start
				// of the cycle.
				cycle = nil
				for curr := id; curr != dep; curr = cameFrom[curr] {
					cycle = append([]string{curr}, cycle...)
				}
				cycle = append([]string{dep}, cycle...)
				return true
			}
		}

		onPath[id] = false
		return false
	}

	roots := make([]string, 0, len(deps))
	for id := range deps {
		roots = append(roots, id)
	}
	sort.Strings(roots)

	for _, id := range roots {
		if !visited[id] {
			if dfs(id) {
				return CycleResult{HasCycle: true, Members: cycle}
			}
		}
	}
	return CycleResult{HasCycle: false, Members: []string{}}
}

// cycleReason renders the cycle as a user-facing chain, closing the
// loop back on the first member.
func cycleReason(members []string) string {
	chain := strings.Join(append(append([]string{}, members...), members[0]), " -> ")
	return "Formula dependencies form a cycle: " + chain
}
