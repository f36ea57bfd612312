package graph

// DetectCycles finds circular imports between files.
//
// Each cycle is reported once as a path list that starts at its
// lexicographically smallest file and does not repeat the start at the end.
// A file importing itself is a cycle of length one. Cycles come back in
// file scan order of their first member.
func (g *ImportGraph) DetectCycles() [][]string {
	files := g.GetNodesByLabel(NodeFile)

	const (
		white = iota
		grey
		black
	)
	state := make(map[string]int, len(files))
	seen := make(map[string]bool)
	var cycles [][]string
	var stack []string

	var visit func(p string)
	visit = func(p string) {
		state[p] = grey
		stack = append(stack, p)

		for _, dep := range g.Imports(p) {
			switch state[dep] {
			case white:
				visit(dep)
			case grey:
				start := len(stack) - 1
				for start >= 0 && stack[start] != dep {
					start--
				}
				cycle := canonicalCycle(stack[start:])
				key := cycleKey(cycle)
				if !seen[key] {
					seen[key] = true
					cycles = append(cycles, cycle)
				}
			}
		}

		stack = stack[:len(stack)-1]
		state[p] = black
	}

	for _, file := range files {
		if state[file.Path] == white {
			visit(file.Path)
		}
	}
	return cycles
}

// canonicalCycle rotates a cycle so it starts at its smallest member.
func canonicalCycle(path []string) []string {
	minIdx := 0
	for i, p := range path {
		if p < path[minIdx] {
			minIdx = i
		}
	}
	out := make([]string, 0, len(path))
	out = append(out, path[minIdx:]...)
	out = append(out, path[:minIdx]...)
	return out
}

func cycleKey(cycle []string) string {
	key := ""
	for _, p := range cycle {
		key += p + "\x00"
	}
	return key
}
