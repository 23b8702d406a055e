package sim

import (
	"math"
	"slices"

	"github.com/banshee-data/highway/internal/monitoring"
)

// laneChangeEpsilon absorbs rounding in the per-tick progress sum so that
// N ticks of 1/N seconds settle a one-second change on the Nth tick.
const laneChangeEpsilon = 1e-9

// laneChange is a registered manoeuvre. Vehicles are referenced by ID in
// the coordinator so that recycling can drop entries by key.
type laneChange struct {
	vehicle  *Vehicle
	from, to int
	dir      int
	progress float64
	moved    bool
}

// NotifyLaneChange registers a lane change of v by direction (+1 left,
// -1 right). It returns false without mutating anything when the
// direction is invalid, the destination lane does not exist, or v is
// already changing lanes. Safety against neighbours is the caller's gate.
func (h *Highway) NotifyLaneChange(v *Vehicle, direction int) bool {
	if v == nil || (direction != 1 && direction != -1) {
		return false
	}
	if _, busy := h.laneChanges[v.id]; busy {
		return false
	}
	from := int(math.Round(v.lane))
	to := from + direction
	if to < 0 || to >= len(h.lanes) {
		return false
	}
	h.laneChanges[v.id] = &laneChange{vehicle: v, from: from, to: to, dir: direction}
	h.laneChangeOrder = append(h.laneChangeOrder, v.id)
	return true
}

// LaneChangeProgress returns the progress in [0, 1) of the lane change of
// the given vehicle, or false if it has none in progress.
func (h *Highway) LaneChangeProgress(id VehicleID) (float64, bool) {
	lc, ok := h.laneChanges[id]
	if !ok {
		return 0, false
	}
	return lc.progress, true
}

// ActiveLaneChanges returns the number of registered, unsettled changes.
func (h *Highway) ActiveLaneChanges() int { return len(h.laneChanges) }

// RequestRandomLaneChange sets a pending change to a random side for v.
// At a road edge the only existing side is chosen.
func (h *Highway) RequestRandomLaneChange(v *Vehicle) {
	if v == nil {
		return
	}
	lane := int(math.Round(v.lane))
	switch {
	case len(h.lanes) == 1:
		return
	case lane == 0:
		v.SetAction(ActionChangeLaneLeft)
	case lane == len(h.lanes)-1:
		v.SetAction(ActionChangeLaneRight)
	case h.env.sampler.Float64() < 0.5:
		v.SetAction(ActionChangeLaneLeft)
	default:
		v.SetAction(ActionChangeLaneRight)
	}
}

// advanceLaneChanges performs the one-time container move of new
// registrations, interpolates the lane value and settles finished changes.
func (h *Highway) advanceLaneChanges(dt float64) {
	if len(h.laneChangeOrder) == 0 {
		return
	}
	step := dt / h.cfg.LaneChangeDuration

	kept := h.laneChangeOrder[:0]
	for _, id := range h.laneChangeOrder {
		lc, ok := h.laneChanges[id]
		if !ok {
			continue
		}
		v := lc.vehicle

		if !lc.moved {
			src, dst := h.lanes[lc.from], h.lanes[lc.to]
			if !src.remove(v) {
				monitoring.TickLogf(h.tick, "lane change: vehicle %d not found in lane %d", v.id, lc.from)
			}
			dst.append(v)
			dst.markDirty()
			v.neighbours.clearSides()
			lc.moved = true
		}

		lc.progress += step
		if lc.progress >= 1-laneChangeEpsilon {
			v.lane = float64(lc.to)
			delete(h.laneChanges, id)
			h.completedLaneChanges++
			continue
		}
		v.lane = float64(lc.from) + lc.progress*float64(lc.dir)
		kept = append(kept, id)
	}
	h.laneChangeOrder = kept
}

// dropLaneChanges forgets the changes of vehicles that left the road.
func (h *Highway) dropLaneChanges(gone map[VehicleID]struct{}) {
	for id := range gone {
		delete(h.laneChanges, id)
	}
	h.laneChangeOrder = slices.DeleteFunc(h.laneChangeOrder, func(id VehicleID) bool {
		_, ok := gone[id]
		return ok
	})
}
