/*
Package overlaypal is a library for converting images into NES background
and sprite data.

An image is split into a background layer, drawn with tiles where every
cell shares one palette group, and an overlay layer drawn with sprites
covering the colors the background cannot. The palette assignment is
solved by an external constraint solver in two passes, the result is
cleaned up and packed into sprites, and finally encoded into hardware
tile, attribute, sprite and palette data.
*/
package overlaypal

import (
	"errors"
	"log"
	"sync/atomic"

	"github.com/bodgit/overlaypal/solver"
)

var (
	// ErrBusy is returned when a conversion is requested while another is
	// still running.
	ErrBusy = errors.New("overlaypal: conversion in progress")
	// ErrInconsistent is returned when a cell uses a color missing from
	// its palette group, or a pixel uses a color missing from its cell.
	ErrInconsistent = errors.New("overlaypal: inconsistent layers")
)

// Converter runs conversions one at a time.
type Converter struct {
	solver solver.Solver
	dir    string
	logger *log.Logger

	busy atomic.Bool
	last atomic.Pointer[Result]
}

// New returns a Converter using s to solve palette assignments, with
// working files kept in dir.
func New(s solver.Solver, dir string, logger *log.Logger) *Converter {
	return &Converter{
		solver: s,
		dir:    dir,
		logger: logger,
	}
}

// Last returns the result of the most recent successful conversion, or
// nil if there has not been one.
func (c *Converter) Last() *Result {
	return c.last.Load()
}
