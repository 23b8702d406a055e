package sim

import "math"

// AddVehicleAt spawns a background vehicle at position x on the lane
// nearest to lane. It returns false and leaves the highway untouched when
// the lane does not exist, the arguments are not finite, or the bumper gap
// to either new neighbour would be below SpawnMinGap.
//
// The new vehicle targets speed, but starts at a blend of speed and its
// neighbours' speeds weighted by inverse gap, so it merges smoothly.
func (h *Highway) AddVehicleAt(x, lane, speed float64) bool {
	idx := int(math.Round(lane))
	if idx < 0 || idx >= len(h.lanes) {
		return false
	}
	if !isFinite(x) || !isFinite(speed) || speed < 0 {
		return false
	}

	l := h.lanes[idx]
	if l.dirty {
		l.sort()
	}

	// Gaps are checked against the longest possible vehicle so that the
	// attribute draws happen only for accepted spawns.
	half := h.cfg.Length.Max / 2
	sum := speed / h.cfg.SpawnBlendDistance
	weight := 1 / h.cfg.SpawnBlendDistance

	back, front := l.neighboursAt(x)
	if back != nil {
		gap := (x - half) - (back.x + back.length/2)
		if gap < h.cfg.SpawnMinGap {
			return false
		}
		sum += back.v / gap
		weight += 1 / gap
	}
	if front != nil {
		gap := (front.x - front.length/2) - (x + half)
		if gap < h.cfg.SpawnMinGap {
			return false
		}
		sum += front.v / gap
		weight += 1 / gap
	}

	v := h.env.newVehicle(x, float64(idx))
	v.targetSpeed = speed
	v.v = sum / weight
	l.insertSorted(v)
	return true
}

// AddVehicleInFrontOfPreferred spawns a vehicle one target distance ahead
// of the preferred vehicle, in its lane.
func (h *Highway) AddVehicleInFrontOfPreferred(speed float64) bool {
	p := h.preferred
	if p == nil {
		return false
	}
	return h.AddVehicleAt(p.x+p.targetDistance+p.length, p.lane, speed)
}

// SelectVehicleAt selects the vehicle whose body covers position x on the
// lane nearest to lane. Hitting the preferred vehicle or empty road clears
// the selection.
func (h *Highway) SelectVehicleAt(x, lane float64) {
	idx := math.Round(lane)
	var best *Vehicle
	bestDist := math.Inf(1)
	h.forEachVehicle(func(v *Vehicle) {
		if math.Round(v.lane) != idx {
			return
		}
		dist := math.Abs(v.x - x)
		if dist <= v.length/2 && dist < bestDist {
			best, bestDist = v, dist
		}
	})
	if best == h.preferred {
		best = nil
	}
	h.selected = best
}

// UnselectVehicle clears the selection.
func (h *Highway) UnselectVehicle() {
	h.selected = nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
