/*
Package solver formats palette assignment problems for, and reads the
results from, an external constraint solver.

The solver is run twice per conversion. The first pass decides which colors
of each background cell stay in the background and which are moved to the
overlay. The second pass does the same for the overlay, splitting it into
colors drawn with grid aligned sprites and colors left for freely placed
sprites. In both passes the solver also picks the palette groups and the
group used by each cell.
*/
package solver

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTimeout is returned when the solver runs longer than allowed.
	ErrTimeout = errors.New("solver: timeout")
	// ErrExit is returned when the solver exits with a non-zero status.
	ErrExit = errors.New("solver: non-zero exit status")
	// ErrFormat is returned when the solution file is not understood.
	ErrFormat = errors.New("solver: unrecognized solution format")
)

// Pass identifies one of the two solver passes.
type Pass int

const (
	// First splits the input image into background and overlay.
	First Pass = iota
	// Second splits the overlay into grid and free sprites.
	Second
)

func (p Pass) String() string {
	if p == Second {
		return "second"
	}
	return "first"
}

// ProblemFile is the name of the problem file written for the pass.
func (p Pass) ProblemFile() string {
	return p.String() + "pass_input.cdat"
}

// SolutionFile is the name of the solution file read back for the pass.
func (p Pass) SolutionFile() string {
	return p.String() + "pass_output.csv"
}

// Model is the name of the CMPL model solving the pass.
func (p Pass) Model() string {
	if p == Second {
		return "SecondPass.cmpl"
	}
	return "FirstPass.cmpl"
}

// ModelWithTimeout is the name of the copy of the model that has the
// time limit prepended.
func (p Pass) ModelWithTimeout() string {
	if p == Second {
		return "SecondPass_withTimeOut.cmpl"
	}
	return "FirstPass_withTimeOut.cmpl"
}

// Files returns every working file the pass may create.
func (p Pass) Files() []string {
	return []string{p.ProblemFile(), p.SolutionFile(), p.ModelWithTimeout()}
}

type names struct {
	kept, moved, palettes, uses string
}

func (p Pass) names() names {
	if p == Second {
		return names{"colorsOverlayGrid", "colorsOverlayFree", "palettesOverlay", "usesPaletteOverlay"}
	}
	return names{"colorsBG", "colorsOverlay", "palettesBG", "usesPaletteBG"}
}

// Solver solves the problem in the problem file and writes the result to
// the solution file. timeout is the time the solver may spend searching.
type Solver interface {
	Solve(ctx context.Context, pass Pass, problem, solution string, timeout time.Duration) error
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(ctx context.Context, pass Pass, problem, solution string, timeout time.Duration) error

// Solve calls f.
func (f SolverFunc) Solve(ctx context.Context, pass Pass, problem, solution string, timeout time.Duration) error {
	return f(ctx, pass, problem, solution, timeout)
}
