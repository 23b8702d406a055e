package sim

import "github.com/banshee-data/highway/internal/monitoring"

// recycle keeps the road bounded around the preferred vehicle. In every
// lane, vehicles further than TeleportDistance ahead of or behind the
// preferred vehicle are removed and the same number of fresh vehicles are
// respawned at the opposite end, each one spacing draw beyond the current
// extremal vehicle and at its speed. The preferred vehicle is never
// removed. Lanes are left unsorted only if they already were.
func (h *Highway) recycle() {
	if h.preferred == nil {
		return
	}
	px := h.preferred.x
	d := h.cfg.TeleportDistance
	gone := make(map[VehicleID]struct{})

	for _, l := range h.lanes {
		if l.dirty {
			l.sort()
		}

		// Step 1: Vehicles too far ahead reappear behind
		ahead := 0
		for l.Len() > 0 && l.leading() != h.preferred && l.leading().x-px > d {
			gone[l.removeLeading().id] = struct{}{}
			ahead++
		}
		// Step 2: Vehicles too far behind reappear ahead
		behind := 0
		for l.Len() > 0 && l.trailing() != h.preferred && px-l.trailing().x > d {
			gone[l.removeTrailing().id] = struct{}{}
			behind++
		}

		for range ahead {
			h.respawnBehind(l, px)
		}
		for range behind {
			h.respawnAhead(l, px)
		}

		if ahead+behind > 0 {
			monitoring.TickLogf(h.tick, "recycled lane %d: %d ahead, %d behind", l.index, ahead, behind)
		}
		h.recycled += ahead + behind
	}

	if len(gone) == 0 {
		return
	}
	h.dropLaneChanges(gone)
	if h.selected != nil {
		if _, ok := gone[h.selected.id]; ok {
			h.selected = nil
		}
	}
}

func (h *Highway) respawnAhead(l *Lane, anchor float64) {
	x, speed := anchor, -1.0
	if lead := l.leading(); lead != nil {
		x, speed = lead.x, lead.v
	}
	v := h.env.newVehicle(x+h.cfg.SpawnSpacing.Normal(h.env.sampler), float64(l.index))
	if speed >= 0 {
		v.v = speed
	}
	l.append(v)
}

func (h *Highway) respawnBehind(l *Lane, anchor float64) {
	x, speed := anchor, -1.0
	if tail := l.trailing(); tail != nil {
		x, speed = tail.x, tail.v
	}
	v := h.env.newVehicle(x-h.cfg.SpawnSpacing.Normal(h.env.sampler), float64(l.index))
	if speed >= 0 {
		v.v = speed
	}
	l.prepend(v)
}

// Recycled returns the number of vehicles removed by recycling so far.
func (h *Highway) Recycled() int { return h.recycled }
