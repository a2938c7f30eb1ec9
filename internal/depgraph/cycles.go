package depgraph

import "sort"

// simpleCycles enumerates every simple cycle in the directed graph using
// Johnson's algorithm. Each cycle is reported once, starting at its lexically
// smallest node, so rotations never appear twice. Acyclic graphs yield nil.
func simpleCycles(nodes []string, edges []Edge) [][]string {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n] = i
	}
	adj := make([][]int, len(nodes))
	for _, e := range edges {
		f, t := idx[e.From], idx[e.To]
		adj[f] = append(adj[f], t)
	}
	for _, ns := range adj {
		sort.Ints(ns)
	}

	var (
		cycles  [][]string
		blocked []bool
		blockOn [][]int
		stack   []int
	)

	var unblock func(v int)
	unblock = func(v int) {
		blocked[v] = false
		for _, w := range blockOn[v] {
			if blocked[w] {
				unblock(w)
			}
		}
		blockOn[v] = blockOn[v][:0]
	}

	// circuit explores the subgraph induced by vertices >= start.
	var circuit func(v, start int) bool
	circuit = func(v, start int) bool {
		found := false
		stack = append(stack, v)
		blocked[v] = true
		for _, w := range adj[v] {
			if w < start {
				continue
			}
			if w == start {
				cyc := make([]string, len(stack))
				for i, u := range stack {
					cyc[i] = nodes[u]
				}
				cycles = append(cycles, cyc)
				found = true
				continue
			}
			if !blocked[w] && circuit(w, start) {
				found = true
			}
		}
		if found {
			unblock(v)
		} else {
			for _, w := range adj[v] {
				if w < start {
					continue
				}
				blockOn[w] = append(blockOn[w], v)
			}
		}
		stack = stack[:len(stack)-1]
		return found
	}

	for s := range nodes {
		blocked = make([]bool, len(nodes))
		blockOn = make([][]int, len(nodes))
		stack = stack[:0]
		circuit(s, s)
	}

	sort.Slice(cycles, func(i, j int) bool {
		a, b := cycles[i], cycles[j]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		for k := range a {
			if a[k] != b[k] {
				return a[k] < b[k]
			}
		}
		return false
	})
	return cycles
}
