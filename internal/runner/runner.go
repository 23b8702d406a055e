// Package runner drives a highway simulation headlessly, either for a fixed
// number of ticks or paced against a wall clock.
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/highway/internal/monitoring"
	"github.com/banshee-data/highway/internal/report"
	"github.com/banshee-data/highway/internal/sim"
	"github.com/banshee-data/highway/internal/timeutil"
	"github.com/banshee-data/highway/internal/units"
)

// Simulation is the part of *sim.Highway the runner needs.
type Simulation interface {
	Step(dt float64) error
	Stats() sim.Stats
	Preferred() *sim.Vehicle
	PreferredFrontGap() (float64, bool)
}

// Sink receives trace samples. *report.Recorder implements it.
type Sink interface {
	Record(report.Sample)
}

// Config controls stepping and sampling.
type Config struct {
	DT            float64       // fixed step used by RunFixed (s)
	SampleEvery   int           // ticks between samples; <= 0 samples every tick
	FrameInterval time.Duration // wall-clock period of RunRealtime
	MaxStep       float64       // cap on a real-time step (s)
	LogEvery      int           // ticks between progress lines; 0 disables
}

// DefaultConfig returns 30 Hz stepping with per-tick samples.
func DefaultConfig() Config {
	return Config{
		DT:            1.0 / 30,
		SampleEvery:   1,
		FrameInterval: time.Second / 30,
		MaxStep:       0.1,
		LogEvery:      300,
	}
}

// Result summarises a run. Ticks and SimTime accumulate over every run of
// the same Runner.
type Result struct {
	RunID    uuid.UUID
	Ticks    uint64
	SimTime  float64
	WallTime time.Duration
	Final    sim.Stats
}

// Runner steps one simulation. It is not safe for concurrent use.
type Runner struct {
	id    uuid.UUID
	sim   Simulation
	sink  Sink
	clock timeutil.Clock
	cfg   Config

	ticks   uint64
	simTime float64
}

// New returns a runner over s. sink may be nil; a nil clock means wall time.
func New(s Simulation, sink Sink, clock timeutil.Clock, cfg Config) (*Runner, error) {
	if s == nil {
		return nil, fmt.Errorf("runner: nil simulation")
	}
	if !(cfg.DT > 0) {
		return nil, fmt.Errorf("runner: dt must be positive, got %g", cfg.DT)
	}
	if cfg.FrameInterval <= 0 {
		return nil, fmt.Errorf("runner: frame interval must be positive, got %s", cfg.FrameInterval)
	}
	if !(cfg.MaxStep > 0) {
		return nil, fmt.Errorf("runner: max step must be positive, got %g", cfg.MaxStep)
	}
	if cfg.SampleEvery <= 0 {
		cfg.SampleEvery = 1
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Runner{
		id:    uuid.New(),
		sim:   s,
		sink:  sink,
		clock: clock,
		cfg:   cfg,
	}, nil
}

// ID returns the run identifier stamped into logs and reports.
func (r *Runner) ID() uuid.UUID { return r.id }

// RunFixed advances the simulation ticks times by cfg.DT. A cancelled
// context stops the run early; the partial result is returned with
// ctx.Err().
func (r *Runner) RunFixed(ctx context.Context, ticks int) (Result, error) {
	start := r.clock.Now()
	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return r.result(start), err
		}
		if err := r.step(r.cfg.DT); err != nil {
			return r.result(start), err
		}
	}
	return r.result(start), nil
}

// RunRealtime steps once per frame interval with dt equal to the wall time
// since the previous frame, capped at cfg.MaxStep. It returns once duration
// has elapsed (never, for duration <= 0) or the context is done.
func (r *Runner) RunRealtime(ctx context.Context, duration time.Duration) (Result, error) {
	start := r.clock.Now()
	last := start

	ticker := r.clock.NewTicker(r.cfg.FrameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return r.result(start), ctx.Err()

		case now := <-ticker.C():
			dt := min(now.Sub(last).Seconds(), r.cfg.MaxStep)
			last = now
			if dt <= 0 {
				continue
			}
			if err := r.step(dt); err != nil {
				return r.result(start), err
			}
			if duration > 0 && r.clock.Since(start) >= duration {
				return r.result(start), nil
			}
		}
	}
}

func (r *Runner) step(dt float64) error {
	if err := r.sim.Step(dt); err != nil {
		return fmt.Errorf("run %s: %w", r.id, err)
	}
	r.ticks++
	r.simTime += dt

	sample := r.sink != nil && r.ticks%uint64(r.cfg.SampleEvery) == 0
	progress := r.cfg.LogEvery > 0 && r.ticks%uint64(r.cfg.LogEvery) == 0
	if !sample && !progress {
		return nil
	}

	st := r.sim.Stats()
	if sample {
		gap, ok := r.sim.PreferredFrontGap()
		r.sink.Record(report.NewSample(r.sim.Preferred(), gap, ok, st))
	}
	if progress {
		monitoring.TickLogf(st.Tick, "[run %s] t=%.1fs vehicles=%d mean=%s lane_changes=%d collisions=%d",
			r.id, st.Time, st.Vehicles, units.FormatSpeed(st.MeanSpeed, units.KMPH), st.CompletedLaneChanges, st.Collisions)
	}
	return nil
}

func (r *Runner) result(start time.Time) Result {
	return Result{
		RunID:    r.id,
		Ticks:    r.ticks,
		SimTime:  r.simTime,
		WallTime: r.clock.Since(start),
		Final:    r.sim.Stats(),
	}
}
