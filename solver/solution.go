package solver

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/bodgit/overlaypal/grid"
	"github.com/bodgit/overlaypal/palette"
)

// Header is found in the first line of every solution file.
const Header = "CMPL csv export"

// maxPalettes bounds palette indices read from a solution.
const maxPalettes = 64

// Solution is the parsed result of one solver pass.
type Solution struct {
	// Palettes are the palette groups chosen by the solver, some of which
	// may be empty or missing entirely.
	Palettes []palette.Colors
	// Kept are the colors each cell keeps in its own layer.
	Kept *grid.Grid[palette.Colors]
	// Moved are the colors each cell moves to the next layer.
	Moved *grid.Grid[palette.Colors]
	// Indices are the palette groups chosen for each cell, relative to
	// the first group of the pass.
	Indices *grid.Grid[int]
	// Assigned records which cells the solver chose a group for.
	Assigned *grid.Grid[bool]
}

// NewSolution returns an empty solution for a width by height layer.
func NewSolution(width, height int) *Solution {
	return &Solution{
		Kept:     grid.New[palette.Colors](width, height),
		Moved:    grid.New[palette.Colors](width, height),
		Indices:  grid.New[int](width, height),
		Assigned: grid.New[bool](width, height),
	}
}

// parseValue splits a line of the form name[i,j,...];B;value;... into the
// indices and the activity value.
func parseValue(line string) ([]int, int, error) {
	start := strings.IndexByte(line, '[')
	end := strings.IndexByte(line, ']')
	activity := strings.Index(line, ";B;")
	if start < 0 || end < start || activity < end {
		return nil, 0, fmt.Errorf("%w: %q", ErrFormat, line)
	}

	fields := strings.Split(line[start+1:end], ",")
	indices := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %q", ErrFormat, line)
		}
		indices[i] = n
	}

	v := line[activity+3:]
	if i := strings.IndexByte(v, ';'); i >= 0 {
		v = v[:i]
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q", ErrFormat, line)
	}

	return indices, int(math.Round(f)), nil
}

func (s *Solution) cell(indices []int, n int, line string) (int, int, error) {
	if len(indices) != n || !s.Kept.In(indices[0], indices[1]) {
		return 0, 0, fmt.Errorf("%w: bad indices %q", ErrFormat, line)
	}
	return indices[0], indices[1], nil
}

func toColor(i int, line string) (uint8, error) {
	if i < 0 || i > math.MaxUint8 {
		return 0, fmt.Errorf("%w: bad color %q", ErrFormat, line)
	}
	return uint8(i), nil
}

// ParseSolution reads the solution of pass for a width by height layer from
// r. Lines for variables that are not known are ignored, as are variables
// that are not active.
func ParseSolution(r io.Reader, pass Pass, width, height int) (*Solution, error) {
	s := NewSolution(width, height)
	n := pass.names()

	scanner := bufio.NewScanner(r)
	header := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if !header {
			if line == "" {
				continue
			}
			if !strings.Contains(line, Header) {
				return nil, fmt.Errorf("%w: header %q", ErrFormat, line)
			}
			header = true
			continue
		}

		var prefix string
		switch {
		case strings.HasPrefix(line, n.kept+"["):
			prefix = n.kept
		case strings.HasPrefix(line, n.moved+"["):
			prefix = n.moved
		case strings.HasPrefix(line, n.palettes+"["):
			prefix = n.palettes
		case strings.HasPrefix(line, n.uses+"["):
			prefix = n.uses
		default:
			continue
		}

		indices, value, err := parseValue(line)
		if err != nil {
			return nil, err
		}
		if value != 1 {
			continue
		}

		switch prefix {
		case n.kept, n.moved:
			x, y, err := s.cell(indices, 3, line)
			if err != nil {
				return nil, err
			}
			c, err := toColor(indices[2], line)
			if err != nil {
				return nil, err
			}
			if prefix == n.kept {
				*s.Kept.Ptr(x, y) = s.Kept.At(x, y).Add(c)
			} else {
				*s.Moved.Ptr(x, y) = s.Moved.At(x, y).Add(c)
			}
		case n.palettes:
			if len(indices) != 2 || indices[0] < 0 || indices[0] >= maxPalettes {
				return nil, fmt.Errorf("%w: bad indices %q", ErrFormat, line)
			}
			c, err := toColor(indices[1], line)
			if err != nil {
				return nil, err
			}
			p := indices[0]
			s.Palettes = palette.Pad(s.Palettes, p+1)
			s.Palettes[p] = s.Palettes[p].Add(c)
		case n.uses:
			x, y, err := s.cell(indices, 3, line)
			if err != nil {
				return nil, err
			}
			if indices[2] < 0 || indices[2] >= maxPalettes {
				return nil, fmt.Errorf("%w: bad palette %q", ErrFormat, line)
			}
			s.Indices.Set(x, y, indices[2])
			s.Assigned.Set(x, y, true)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if !header {
		return nil, fmt.Errorf("%w: missing header", ErrFormat)
	}

	return s, nil
}

// ParseSolutionFile reads a solution from the named file.
func ParseSolutionFile(file string, pass Pass, width, height int) (*Solution, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, fmt.Errorf("solver: failed to open solution file: %w", err)
	}
	defer f.Close()

	return ParseSolution(f, pass, width, height)
}
