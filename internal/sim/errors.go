package sim

import (
	"errors"
	"fmt"
)

// ErrDiverged reports that the integration became numerically unstable.
var ErrDiverged = errors.New("simulation diverged")

// ErrInvalidTimeStep is returned by Step for a negative or non-finite dt.
var ErrInvalidTimeStep = errors.New("invalid time step")

// DivergenceError locates the first vehicle found with a non-finite or
// out-of-bound position.
type DivergenceError struct {
	Tick     uint64
	Lane     int
	Index    int
	Vehicle  VehicleID
	Position float64
}

func (e *DivergenceError) Error() string {
	return fmt.Sprintf("%v: tick %d lane %d index %d vehicle %d at x=%g",
		ErrDiverged, e.Tick, e.Lane, e.Index, e.Vehicle, e.Position)
}

func (e *DivergenceError) Unwrap() error { return ErrDiverged }
