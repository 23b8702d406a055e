package sim

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/banshee-data/highway/internal/monitoring"
)

// unknownGapThreshold is the front gap above which the preferred vehicle's
// lead is reported as unknown.
const unknownGapThreshold = 1e4

// Highway owns the lanes and drives the per-tick pipeline. It is not safe
// for concurrent use; callers serialise access between ticks.
type Highway struct {
	cfg   Config
	env   *environment
	lanes []*Lane

	preferred *Vehicle
	selected  *Vehicle

	laneChanges     map[VehicleID]*laneChange
	laneChangeOrder []VehicleID

	teleportTimer     float64
	preferredFrontGap float64
	cursors           []int

	tick uint64
	time float64

	lastCollisions       []Collision
	collisions           int
	completedLaneChanges int
	recycled             int

	// err is set once the simulation diverged; Step keeps returning it.
	err error
}

// NewHighway builds the initial population: VehiclesPerLane vehicles per
// lane at SpawnSpacing intervals from x = 0. The middle vehicle of the
// middle lane becomes the preferred, assisted vehicle. A nil src uses a
// PCG source with seed 1.
func NewHighway(cfg Config, src rand.Source) (*Highway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid highway config: %w", err)
	}
	h := newEmptyHighway(cfg, src)

	for _, l := range h.lanes {
		x := 0.0
		for range cfg.VehiclesPerLane {
			x += cfg.SpawnSpacing.Normal(h.env.sampler)
			v := h.env.newVehicle(x, float64(l.index))
			v.v = cfg.InitialSpeed.Normal(h.env.sampler)
			l.append(v)
		}
	}

	h.preferred = h.lanes[cfg.Lanes/2].vehicles[cfg.VehiclesPerLane/2]
	h.preferred.makeAssisted()
	return h, nil
}

// newEmptyHighway returns a highway with no vehicles and no preferred
// vehicle. cfg must already be valid.
func newEmptyHighway(cfg Config, src rand.Source) *Highway {
	var sampler *Sampler
	if src == nil {
		sampler = NewSeededSampler(1)
	} else {
		sampler = NewSampler(src)
	}

	h := &Highway{
		cfg:               cfg,
		lanes:             make([]*Lane, cfg.Lanes),
		laneChanges:       make(map[VehicleID]*laneChange),
		preferredFrontGap: cfg.SentinelDistance,
	}
	h.env = &environment{cfg: &h.cfg, sampler: sampler, observer: h}
	for i := range h.lanes {
		h.lanes[i] = newLane(i, cfg.VehiclesPerLane)
	}
	return h
}

// Step advances the simulation by dt seconds.
//
// A divergence is fatal: the returned error wraps ErrDiverged and every
// later call returns it again without touching the state.
func (h *Highway) Step(dt float64) error {
	if h.err != nil {
		return h.err
	}
	if dt < 0 || math.IsNaN(dt) || math.IsInf(dt, 0) {
		return fmt.Errorf("%w: %g", ErrInvalidTimeStep, dt)
	}
	h.tick++

	// Step 1: Recycle vehicles outside the window around the preferred vehicle
	h.teleportTimer += dt
	if h.teleportTimer > h.cfg.TeleportInterval {
		h.teleportTimer = 0
		h.recycle()
		for _, l := range h.lanes {
			l.markDirty()
		}
	}

	// Step 2: Restore position order
	for _, l := range h.lanes {
		if l.dirty {
			l.sort()
		}
	}

	// Step 3: Report overlapping neighbours
	h.checkCollisions()

	// Step 4: Sense every vehicle against the same snapshot
	if err := h.findNeighbours(); err != nil {
		monitoring.TickLogf(h.tick, "fatal: %v", err)
		h.err = err
		return err
	}

	// Step 5: Decide accelerations and lane-change requests
	h.forEachVehicle(func(v *Vehicle) { v.think() })

	// Step 6: Integrate kinematics. A lane whose order broke (only
	// possible through a collision) is flagged for the next sort.
	for _, l := range h.lanes {
		for _, v := range l.vehicles {
			v.step(dt)
		}
		if !l.dirty && !l.isSorted() {
			l.markDirty()
		}
	}

	// Step 7: Move, advance and settle lane changes
	h.advanceLaneChanges(dt)

	h.time += dt
	return nil
}

// Stabilise runs StabiliseSteps ticks of StabiliseDT with the preferred
// vehicle's target speed raised to StabiliseTargetSpeed, then restores it.
func (h *Highway) Stabilise() error {
	if h.preferred != nil {
		saved := h.preferred.targetSpeed
		h.preferred.targetSpeed = h.cfg.StabiliseTargetSpeed
		defer func() { h.preferred.targetSpeed = saved }()
	}
	for i := 0; i < h.cfg.StabiliseSteps; i++ {
		if err := h.Step(h.cfg.StabiliseDT); err != nil {
			return fmt.Errorf("stabilise step %d: %w", i, err)
		}
	}
	return nil
}

func (h *Highway) forEachVehicle(fn func(v *Vehicle)) {
	for _, l := range h.lanes {
		for _, v := range l.vehicles {
			fn(v)
		}
	}
}

// Config returns the configuration the highway was built with.
func (h *Highway) Config() Config { return h.cfg }

// Lanes returns the lane containers, rightmost first.
func (h *Highway) Lanes() []*Lane { return h.lanes }

// Preferred returns the assisted vehicle the view follows.
func (h *Highway) Preferred() *Vehicle { return h.preferred }

// Selected returns the vehicle picked for inspection, or nil.
func (h *Highway) Selected() *Vehicle { return h.selected }

// Tick returns the number of completed Step calls.
func (h *Highway) Tick() uint64 { return h.tick }

// Time returns the simulated time in seconds.
func (h *Highway) Time() float64 { return h.time }

// Err returns the divergence error that stopped the simulation, if any.
func (h *Highway) Err() error { return h.err }

// PreferredFrontGap returns the preferred vehicle's front gap as sensed on
// the last tick. ok is false when the gap is unknown or effectively
// infinite.
func (h *Highway) PreferredFrontGap() (gap float64, ok bool) {
	if h.preferredFrontGap > unknownGapThreshold {
		return 0, false
	}
	return h.preferredFrontGap, true
}

// VehicleCount returns the number of vehicles on all lanes.
func (h *Highway) VehicleCount() int {
	n := 0
	for _, l := range h.lanes {
		n += l.Len()
	}
	return n
}

// Vehicle looks a vehicle up by ID.
func (h *Highway) Vehicle(id VehicleID) (*Vehicle, bool) {
	for _, l := range h.lanes {
		for _, v := range l.vehicles {
			if v.id == id {
				return v, true
			}
		}
	}
	return nil, false
}
