package layout

import (
	"math"
	"testing"
)

func TestSpring_Deterministic(t *testing.T) {
	nodes := []string{"a.py", "b.py", "c.py", "d.py"}
	edges := []Edge{{From: "a.py", To: "b.py"}, {From: "b.py", To: "c.py"}}

	p1 := Spring(nodes, edges, Options{Seed: 7})
	p2 := Spring(nodes, edges, Options{Seed: 7})
	for _, id := range nodes {
		if p1[id] != p2[id] {
			t.Fatalf("node %s moved between runs: %+v vs %+v", id, p1[id], p2[id])
		}
	}
}

func TestSpring_AllNodesPlacedInBounds(t *testing.T) {
	nodes := []string{"a", "b", "c", "d", "e"}
	pos := Spring(nodes, nil, Options{Seed: 1})
	if len(pos) != len(nodes) {
		t.Fatalf("placed %d of %d nodes", len(pos), len(nodes))
	}
	for id, p := range pos {
		if math.Abs(p.X) > 1 || math.Abs(p.Y) > 1 {
			t.Fatalf("node %s out of bounds: %+v", id, p)
		}
	}
}

func TestSpring_ConnectedNodesSitCloser(t *testing.T) {
	nodes := []string{"a", "b", "far1", "far2", "far3", "far4"}
	edges := []Edge{{From: "a", To: "b"}}
	pos := Spring(nodes, edges, Options{Seed: 3, Iterations: 200})

	dAB := dist(pos["a"], pos["b"])
	var sum float64
	var count int
	for _, other := range []string{"far1", "far2", "far3", "far4"} {
		sum += dist(pos["a"], pos[other])
		count++
	}
	if dAB >= sum/float64(count) {
		t.Fatalf("edge a-b (%.3f) not closer than average unlinked distance (%.3f)", dAB, sum/float64(count))
	}
}

func TestSpring_Empty(t *testing.T) {
	if pos := Spring(nil, nil, Options{}); len(pos) != 0 {
		t.Fatalf("pos=%v", pos)
	}
}

func TestCircular_UnitCircle(t *testing.T) {
	nodes := []string{"a", "b", "c", "d"}
	pos := Circular(nodes)
	for id, p := range pos {
		r := math.Hypot(p.X, p.Y)
		if math.Abs(r-1) > 1e-9 {
			t.Fatalf("node %s radius %.6f", id, r)
		}
	}
	// first node starts at angle 0
	if math.Abs(pos["a"].X-1) > 1e-9 || math.Abs(pos["a"].Y) > 1e-9 {
		t.Fatalf("first node at %+v", pos["a"])
	}
}

func dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
