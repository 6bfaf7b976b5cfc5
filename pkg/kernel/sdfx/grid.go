package sdfx

import (
	"github.com/chazu/slabanim/pkg/kernel"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// grid is a uniform occupancy sampling of a solid's bounding box, n cells
// per axis, each cell marked by whether its centre is inside the solid.
type grid struct {
	n      int
	min    [3]float64
	max    [3]float64
	step   [3]float64
	inside []bool
}

// region is the inclusive cell index range covered by one component.
type region struct {
	min, max [3]int
}

func (k *SdfxKernel) sample(s *sdfxSolid) *grid {
	n := k.opts.SampleCells
	bb := s.box()
	g := &grid{n: n, inside: make([]bool, n*n*n)}
	for a := kernel.AxisX; a <= kernel.AxisZ; a++ {
		g.min[a] = component(bb.Min, a)
		g.max[a] = component(bb.Max, a)
		g.step[a] = (g.max[a] - g.min[a]) / float64(n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for l := 0; l < n; l++ {
				p := v3.Vec{
					X: g.min[0] + (float64(i)+0.5)*g.step[0],
					Y: g.min[1] + (float64(j)+0.5)*g.step[1],
					Z: g.min[2] + (float64(l)+0.5)*g.step[2],
				}
				g.inside[g.index(i, j, l)] = s.s.Evaluate(p) < 0
			}
		}
	}
	return g
}

func (g *grid) index(i, j, l int) int {
	return (i*g.n+j)*g.n + l
}

func (g *grid) each(fn func(i, j, l int, inside bool)) {
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.n; j++ {
			for l := 0; l < g.n; l++ {
				fn(i, j, l, g.inside[g.index(i, j, l)])
			}
		}
	}
}

// cellBounds returns the coordinate span of cells first..last along axis.
// The outermost cells map exactly onto the bounding box.
func (g *grid) cellBounds(a kernel.Axis, first, last int) (lo, hi float64) {
	lo = g.min[a] + float64(first)*g.step[a]
	hi = g.min[a] + float64(last+1)*g.step[a]
	if first == 0 {
		lo = g.min[a]
	}
	if last == g.n-1 {
		hi = g.max[a]
	}
	return lo, hi
}

// label groups occupied cells into 6-connected regions, in scan order.
func (g *grid) label() []region {
	seen := make([]bool, len(g.inside))
	var regions []region
	var queue [][3]int

	g.each(func(i, j, l int, inside bool) {
		start := g.index(i, j, l)
		if !inside || seen[start] {
			return
		}
		seen[start] = true
		r := region{min: [3]int{i, j, l}, max: [3]int{i, j, l}}
		queue = append(queue[:0], [3]int{i, j, l})

		for len(queue) > 0 {
			c := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			for a := 0; a < 3; a++ {
				r.min[a] = min(r.min[a], c[a])
				r.max[a] = max(r.max[a], c[a])
			}
			for _, d := range neighbours {
				nb := [3]int{c[0] + d[0], c[1] + d[1], c[2] + d[2]}
				if nb[0] < 0 || nb[1] < 0 || nb[2] < 0 || nb[0] >= g.n || nb[1] >= g.n || nb[2] >= g.n {
					continue
				}
				idx := g.index(nb[0], nb[1], nb[2])
				if g.inside[idx] && !seen[idx] {
					seen[idx] = true
					queue = append(queue, nb)
				}
			}
		}
		regions = append(regions, r)
	})
	return regions
}

var neighbours = [6][3]int{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}
