package sim

import (
	"math"

	"github.com/banshee-data/highway/internal/monitoring"
)

// Collision is an adjacent same-lane pair whose bodies overlap.
type Collision struct {
	Tick    uint64
	Lane    int
	Index   int // index of the trailing vehicle
	Back    VehicleID
	Front   VehicleID
	Overlap float64 // metres by which the trailing front edge passes the leading rear edge
}

// checkCollisions scans sorted lanes for overlapping neighbours. Overlaps
// are logged and counted; the simulation carries on.
func (h *Highway) checkCollisions() {
	h.lastCollisions = h.lastCollisions[:0]
	for li, l := range h.lanes {
		vs := l.vehicles
		for i := 0; i+1 < len(vs); i++ {
			back, front := vs[i], vs[i+1]
			overlap := (back.x + back.length/2) - (front.x - front.length/2)
			if overlap <= 0 {
				continue
			}
			c := Collision{
				Tick:    h.tick,
				Lane:    li,
				Index:   i,
				Back:    back.id,
				Front:   front.id,
				Overlap: overlap,
			}
			h.lastCollisions = append(h.lastCollisions, c)
			monitoring.TickLogf(h.tick, "collision in lane %d at index %d: vehicle %d overlaps vehicle %d by %.2fm",
				li, i, back.id, front.id, overlap)
		}
	}
	h.collisions += len(h.lastCollisions)
}

// LastCollisions returns the overlaps found during the most recent Step.
func (h *Highway) LastCollisions() []Collision {
	return h.lastCollisions
}

// checkDivergence rejects a vehicle whose position is no longer usable.
func (h *Highway) checkDivergence(v *Vehicle, lane, index int) error {
	if !isFinite(v.x) || math.Abs(v.x) > h.cfg.DivergenceBound {
		return &DivergenceError{
			Tick:     h.tick,
			Lane:     lane,
			Index:    index,
			Vehicle:  v.id,
			Position: v.x,
		}
	}
	return nil
}
