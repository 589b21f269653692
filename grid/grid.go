package grid

import "fmt"

// Grid is a fixed-size toroidal grid stored row-major.
// Neighbor lookups wrap at the edges, so every cell has exactly eight
// neighbors.
type Grid[T any] struct {
	width  int
	height int
	cells  []T
}

// New allocates a width x height grid of zero values.
func New[T any](width, height int) (*Grid[T], error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid grid dimensions: %dx%d", width, height)
	}
	return &Grid[T]{
		width:  width,
		height: height,
		cells:  make([]T, width*height),
	}, nil
}

func (g *Grid[T]) Width() int  { return g.width }
func (g *Grid[T]) Height() int { return g.height }
func (g *Grid[T]) Len() int    { return len(g.cells) }

// Index returns the flat index of (x, y), wrapping out-of-range coordinates.
func (g *Grid[T]) Index(x, y int) int {
	x = wrap(x, g.width)
	y = wrap(y, g.height)
	return y*g.width + x
}

// Coords is the inverse of Index.
func (g *Grid[T]) Coords(i int) (x, y int) {
	return i % g.width, i / g.width
}

// NeighborIndex returns the flat index of the cell one step from i in dir.
func (g *Grid[T]) NeighborIndex(i int, dir Direction) int {
	x, y := g.Coords(i)
	dx, dy := dir.Delta()
	return g.Index(x+dx, y+dy)
}

// NeighborIndices returns the flat indices of all eight neighbors of i.
func (g *Grid[T]) NeighborIndices(i int) Neighbors[int] {
	return NewNeighbors(func(d Direction) int { return g.NeighborIndex(i, d) })
}

func (g *Grid[T]) At(x, y int) T       { return g.cells[g.Index(x, y)] }
func (g *Grid[T]) Set(x, y int, v T)   { g.cells[g.Index(x, y)] = v }
func (g *Grid[T]) AtIndex(i int) T     { return g.cells[i] }
func (g *Grid[T]) Ptr(i int) *T        { return &g.cells[i] }
func (g *Grid[T]) SetIndex(i int, v T) { g.cells[i] = v }

// Neighbors returns pointers to the eight neighbors of i. Callers in the
// read-only phase must not write through them.
func (g *Grid[T]) Neighbors(i int) Neighbors[*T] {
	return NewNeighbors(func(d Direction) *T { return &g.cells[g.NeighborIndex(i, d)] })
}

// Each calls fn for every cell in index order.
func (g *Grid[T]) Each(fn func(i int, v *T)) {
	for i := range g.cells {
		fn(i, &g.cells[i])
	}
}

func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
