package sim

import "math"

// Target is what a vehicle senses about one neighbour.
//
// Dist is signed by direction: positive for a vehicle ahead, negative for
// one behind. Its magnitude is the bumper-to-bumper gap. VRel is the
// target's speed minus the ego speed, so -Dist/VRel is the time to
// contact and is positive exactly when the gap is closing.
type Target struct {
	Dist float64
	VRel float64
}

// TimeToContact returns -Dist/VRel, or +Inf when the speeds match.
func (t Target) TimeToContact() float64 {
	if t.VRel == 0 {
		return math.Inf(1)
	}
	return -t.Dist / t.VRel
}

// Closing reports whether the gap to the target is shrinking.
func (t Target) Closing() bool {
	ttc := t.TimeToContact()
	return ttc > 0 && !math.IsInf(ttc, 1)
}

// Gap returns the unsigned bumper-to-bumper gap.
func (t Target) Gap() float64 {
	return math.Abs(t.Dist)
}

// Neighbours holds the sensed targets around a vehicle. Same-lane entries
// are always present (a sentinel stands in for an empty road). Cross-lane
// entries are nil when no lane exists on that side, or before the vehicle
// has been reached by a cross-lane sweep.
type Neighbours struct {
	Front, Back           *Target
	FrontLeft, BackLeft   *Target
	FrontRight, BackRight *Target
}

// Side returns the front and back targets on the lane in direction dir
// (+1 left, -1 right).
func (n *Neighbours) Side(dir int) (front, back *Target) {
	switch dir {
	case +1:
		return n.FrontLeft, n.BackLeft
	case -1:
		return n.FrontRight, n.BackRight
	default:
		return nil, nil
	}
}

func (n *Neighbours) setSide(dir int, front, back *Target) {
	switch dir {
	case +1:
		n.FrontLeft, n.BackLeft = front, back
	case -1:
		n.FrontRight, n.BackRight = front, back
	}
}

// clearSides drops cross-lane data, e.g. after the vehicle moved container.
func (n *Neighbours) clearSides() {
	n.FrontLeft, n.BackLeft = nil, nil
	n.FrontRight, n.BackRight = nil, nil
}

// sensor builds targets with the configured view distance.
type sensor struct {
	maxView  float64
	sentinel float64
}

// farFront returns the sentinel for "nothing ahead".
func (s sensor) farFront() *Target {
	return &Target{Dist: s.sentinel}
}

// farBack returns the sentinel for "nothing behind".
func (s sensor) farBack() *Target {
	return &Target{Dist: -s.sentinel}
}

// target computes the Target of other as seen from ego. Targets beyond
// the view distance collapse to a sentinel with zero relative speed.
func (s sensor) target(ego, other *Vehicle) *Target {
	var dist float64
	if other.x >= ego.x {
		dist = (other.x - other.length/2) - (ego.x + ego.length/2)
	} else {
		dist = (other.x + other.length/2) - (ego.x - ego.length/2)
	}

	if math.Abs(dist) > s.maxView {
		if other.x >= ego.x {
			return s.farFront()
		}
		return s.farBack()
	}
	return &Target{Dist: dist, VRel: other.v - ego.v}
}
