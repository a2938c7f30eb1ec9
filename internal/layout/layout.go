// Package layout computes 2D node positions for dependency graphs. Layouts
// are deterministic: the same graph always produces the same coordinates.
package layout

import (
	"math"
	"math/rand"
)

// Point is one node position in the unit square around the origin.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Edge names a directed connection between two node ids.
type Edge struct {
	From string
	To   string
}

// Options tune the spring layout.
type Options struct {
	// K is the ideal spring length. Zero picks sqrt(1/n).
	K float64
	// Iterations of force simulation. Zero means 50.
	Iterations int
	// Seed for initial placement.
	Seed int64
}

// Spring runs a Fruchterman-Reingold style simulation. Nodes must be given
// in a stable order for reproducible output.
func Spring(nodes []string, edges []Edge, opts Options) map[string]Point {
	n := len(nodes)
	if n == 0 {
		return map[string]Point{}
	}
	if opts.Iterations <= 0 {
		opts.Iterations = 50
	}
	if opts.K <= 0 {
		opts.K = math.Sqrt(1.0 / float64(n))
	}

	idx := make(map[string]int, n)
	for i, id := range nodes {
		idx[id] = i
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	px := make([]float64, n)
	py := make([]float64, n)
	for i := range nodes {
		px[i] = rng.Float64()*2 - 1
		py[i] = rng.Float64()*2 - 1
	}

	type pair struct{ a, b int }
	links := make([]pair, 0, len(edges))
	for _, e := range edges {
		a, okA := idx[e.From]
		b, okB := idx[e.To]
		if okA && okB && a != b {
			links = append(links, pair{a, b})
		}
	}

	dx := make([]float64, n)
	dy := make([]float64, n)
	temp := 0.1
	cool := temp / float64(opts.Iterations)

	for it := 0; it < opts.Iterations; it++ {
		for i := range dx {
			dx[i], dy[i] = 0, 0
		}
		// repulsion between every pair
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				ddx := px[i] - px[j]
				ddy := py[i] - py[j]
				dist := math.Hypot(ddx, ddy)
				if dist < 1e-9 {
					dist = 1e-9
					ddx = 1e-9
				}
				f := opts.K * opts.K / dist
				dx[i] += ddx / dist * f
				dy[i] += ddy / dist * f
				dx[j] -= ddx / dist * f
				dy[j] -= ddy / dist * f
			}
		}
		// attraction along edges
		for _, l := range links {
			ddx := px[l.a] - px[l.b]
			ddy := py[l.a] - py[l.b]
			dist := math.Hypot(ddx, ddy)
			if dist < 1e-9 {
				continue
			}
			f := dist * dist / opts.K
			dx[l.a] -= ddx / dist * f
			dy[l.a] -= ddy / dist * f
			dx[l.b] += ddx / dist * f
			dy[l.b] += ddy / dist * f
		}
		// apply displacement, capped by temperature
		for i := 0; i < n; i++ {
			disp := math.Hypot(dx[i], dy[i])
			if disp < 1e-9 {
				continue
			}
			step := math.Min(disp, temp)
			px[i] += dx[i] / disp * step
			py[i] += dy[i] / disp * step
			px[i] = clamp(px[i], -1, 1)
			py[i] = clamp(py[i], -1, 1)
		}
		temp -= cool
	}

	out := make(map[string]Point, n)
	for i, id := range nodes {
		out[id] = Point{X: px[i], Y: py[i]}
	}
	return out
}

// Circular places nodes evenly on the unit circle in input order.
func Circular(nodes []string) map[string]Point {
	out := make(map[string]Point, len(nodes))
	n := len(nodes)
	for i, id := range nodes {
		theta := 2 * math.Pi * float64(i) / float64(n)
		out[id] = Point{X: math.Cos(theta), Y: math.Sin(theta)}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
