package sim

import (
	"cmp"
	"slices"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats is a snapshot of traffic-level measurements.
type Stats struct {
	Tick     uint64
	Time     float64
	Vehicles int
	PerLane  []int

	MeanSpeed float64
	StdSpeed  float64
	MinSpeed  float64
	MaxSpeed  float64

	// MeanGap is the mean bumper gap between same-lane neighbours.
	MeanGap float64

	ActiveLaneChanges    int
	CompletedLaneChanges int
	Collisions           int
	Recycled             int
}

// Stats summarises the current state. Speed figures are zero on an empty
// road and MeanGap is zero when no lane holds two vehicles.
func (h *Highway) Stats() Stats {
	s := Stats{
		Tick:                 h.tick,
		Time:                 h.time,
		PerLane:              lo.Map(h.lanes, func(l *Lane, _ int) int { return l.Len() }),
		ActiveLaneChanges:    len(h.laneChanges),
		CompletedLaneChanges: h.completedLaneChanges,
		Collisions:           h.collisions,
		Recycled:             h.recycled,
	}
	s.Vehicles = lo.Sum(s.PerLane)

	speeds := make([]float64, 0, s.Vehicles)
	var gaps []float64
	for _, l := range h.lanes {
		vs := l.vehicles
		if l.dirty {
			vs = slices.Clone(vs)
			slices.SortStableFunc(vs, func(a, b *Vehicle) int { return cmp.Compare(a.x, b.x) })
		}
		for i, v := range vs {
			speeds = append(speeds, v.v)
			if i > 0 {
				back := vs[i-1]
				gaps = append(gaps, (v.x-v.length/2)-(back.x+back.length/2))
			}
		}
	}

	if len(speeds) > 0 {
		s.MeanSpeed, s.StdSpeed = stat.MeanStdDev(speeds, nil)
		if len(speeds) == 1 {
			s.StdSpeed = 0
		}
		s.MinSpeed = floats.Min(speeds)
		s.MaxSpeed = floats.Max(speeds)
	}
	if len(gaps) > 0 {
		s.MeanGap = stat.Mean(gaps, nil)
	}
	return s
}
