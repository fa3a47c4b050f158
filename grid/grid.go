/*
Package grid implements a fixed size two dimensional container.

A Grid stores its cells in a single row-major slice and is copied by value
with Clone; nothing returned by a Grid aliases the storage of another.
*/
package grid

import "fmt"

// Grid is a width by height array of T.
type Grid[T any] struct {
	width  int
	height int
	data   []T
}

// Image is an indexed color image where each pixel is a color index.
type Image = Grid[uint8]

// New returns a zeroed grid of the given dimensions.
func New[T any](width, height int) *Grid[T] {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("grid: invalid dimensions %dx%d", width, height))
	}
	return &Grid[T]{
		width:  width,
		height: height,
		data:   make([]T, width*height),
	}
}

// NewImage returns an image of the given dimensions filled with c.
func NewImage(width, height int, c uint8) *Image {
	m := New[uint8](width, height)
	m.Fill(c)
	return m
}

// Width returns the number of columns.
func (g *Grid[T]) Width() int {
	return g.width
}

// Height returns the number of rows.
func (g *Grid[T]) Height() int {
	return g.height
}

// In reports whether (x, y) is inside the grid.
func (g *Grid[T]) In(x, y int) bool {
	return x >= 0 && x < g.width && y >= 0 && y < g.height
}

func (g *Grid[T]) offset(x, y int) int {
	if !g.In(x, y) {
		panic(fmt.Sprintf("grid: (%d, %d) out of range %dx%d", x, y, g.width, g.height))
	}
	return y*g.width + x
}

// At returns the value at (x, y).
func (g *Grid[T]) At(x, y int) T {
	return g.data[g.offset(x, y)]
}

// Ptr returns a pointer to the value at (x, y) for in-place updates.
func (g *Grid[T]) Ptr(x, y int) *T {
	return &g.data[g.offset(x, y)]
}

// Set stores v at (x, y).
func (g *Grid[T]) Set(x, y int, v T) {
	g.data[g.offset(x, y)] = v
}

// Fill sets every cell to v.
func (g *Grid[T]) Fill(v T) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Clone returns a copy of the grid that shares no storage with g.
func (g *Grid[T]) Clone() *Grid[T] {
	dup := New[T](g.width, g.height)
	copy(dup.data, g.data)
	return dup
}

// Rows returns a copy of the grid as a slice of rows.
func (g *Grid[T]) Rows() [][]T {
	rows := make([][]T, g.height)
	for y := range rows {
		rows[y] = append([]T(nil), g.data[y*g.width:(y+1)*g.width]...)
	}
	return rows
}

// Map returns a new grid of the same size with f applied to every cell.
func Map[T, U any](g *Grid[T], f func(T) U) *Grid[U] {
	out := New[U](g.width, g.height)
	for i, v := range g.data {
		out.data[i] = f(v)
	}
	return out
}

// Empty reports whether every pixel of m equals c.
func Empty(m *Image, c uint8) bool {
	for _, v := range m.data {
		if v != c {
			return false
		}
	}
	return true
}

// Equal reports whether a and b have the same size and contents.
func Equal[T comparable](a, b *Grid[T]) bool {
	if a.width != b.width || a.height != b.height {
		return false
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}
