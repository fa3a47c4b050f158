package solver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/ioutil"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// defaultWaitFactor is how many times the solver time limit a
	// process is allowed to run before it is killed.
	defaultWaitFactor = 10

	waitDelay = time.Second
)

// Placeholders substituted in Command arguments.
const (
	ArgProblem  = "{problem}"
	ArgSolution = "{solution}"
	ArgTimeout  = "{timeout}"
	ArgPass     = "{pass}"
)

// Command runs an external solver executable.
type Command struct {
	// Path is the solver executable.
	Path string
	// Args are passed to the solver after placeholder substitution. If
	// empty the problem file, solution file and time limit in seconds
	// are passed in that order.
	Args []string
	// Dir is the working directory of the solver.
	Dir string
	// WaitFactor multiplies the time limit to give the wall clock time
	// the process may run for. Zero means ten.
	WaitFactor int
}

func seconds(timeout time.Duration) int {
	s := int(math.Ceil(timeout.Seconds()))
	if s < 1 {
		s = 1
	}
	return s
}

func waitFor(timeout time.Duration, factor int) time.Duration {
	if factor <= 0 {
		factor = defaultWaitFactor
	}
	return timeout * time.Duration(factor)
}

// Solve runs the solver on the problem file.
func (c *Command) Solve(ctx context.Context, pass Pass, problem, solution string, timeout time.Duration) error {
	args := c.Args
	if len(args) == 0 {
		args = []string{ArgProblem, ArgSolution, ArgTimeout}
	}

	r := strings.NewReplacer(
		ArgProblem, problem,
		ArgSolution, solution,
		ArgTimeout, strconv.Itoa(seconds(timeout)),
		ArgPass, pass.String(),
	)

	expanded := make([]string, len(args))
	for i, a := range args {
		expanded[i] = r.Replace(a)
	}

	return run(ctx, c.Path, expanded, c.Dir, waitFor(timeout, c.WaitFactor))
}

// CMPL runs the CMPL modelling language with the CBC solver, using the
// FirstPass.cmpl and SecondPass.cmpl models found in Dir.
type CMPL struct {
	// Dir contains the models and the Cmpl/bin/cmpl executable.
	Dir string
	// WaitFactor is as for Command.
	WaitFactor int
}

// Solve copies the model for the pass next to the problem file with the
// time limit prepended and runs it.
func (c *CMPL) Solve(ctx context.Context, pass Pass, problem, solution string, timeout time.Duration) error {
	b, err := ioutil.ReadFile(filepath.Join(c.Dir, pass.Model()))
	if err != nil {
		return fmt.Errorf("solver: failed to read model: %w", err)
	}

	// CBC has no other way of being given a time limit
	model := filepath.Join(filepath.Dir(problem), pass.ModelWithTimeout())
	header := fmt.Sprintf("%%opt cbc seconds %d\n", seconds(timeout))
	if err := ioutil.WriteFile(model, append([]byte(header), b...), 0644); err != nil {
		return fmt.Errorf("solver: failed to write model: %w", err)
	}

	exe := filepath.Join(c.Dir, "Cmpl", "bin", "cmpl")
	args := []string{"-i", model, "-solutionCsv", solution}

	return run(ctx, exe, args, filepath.Dir(problem), waitFor(timeout, c.WaitFactor))
}

func run(ctx context.Context, name string, args []string, dir string, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	switch {
	case err == nil:
		return nil
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %s still running after %v", ErrTimeout, filepath.Base(name), limit)
	case ctx.Err() != nil:
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w %d: %s", ErrExit, exitErr.ExitCode(), strings.TrimSpace(stderr.String()))
	}

	return fmt.Errorf("solver: failed to run %s: %w", name, err)
}

// RemoveFiles removes any working files left in dir by a previous run.
func RemoveFiles(dir string) error {
	for _, pass := range []Pass{First, Second} {
		for _, file := range pass.Files() {
			if err := os.Remove(filepath.Join(dir, file)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}
