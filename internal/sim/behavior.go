package sim

import "math"

// followResult is the outcome of the car-following law for one tick.
type followResult struct {
	accel     float64
	panicking bool
	closing   bool
	reachTime float64 // time until the gap shrinks to the target distance; +Inf when not closing
}

// follow evaluates the car-following law against the same-lane lead.
//
// Above the target distance the speed-matching term dominates far from the
// lead and hands over to relative-speed matching as the gap approaches the
// target distance. Below it, distance correction and relative-speed
// matching apply, plus emergency braking once the gap is more than
// PanicDistance short. Panic braking is never weaker than
// maxAcceleration. Both branches give 2·vRel/rt at zero drift.
func (v *Vehicle) follow(front *Target) followResult {
	rt := v.reactionTime
	speedDrift := v.v - v.targetSpeed
	r := followResult{reachTime: math.Inf(1)}

	if front == nil {
		r.accel = -speedDrift / rt
		return r
	}

	drift := front.Dist - v.targetDistance
	vRel := front.VRel

	if drift > 0 {
		var aRel float64
		if vRel < 0 {
			r.closing = true
			r.reachTime = -drift / vRel
			aRel = vRel / (r.reachTime + rt/2)
		}
		w := drift / (drift + v.targetDistance)
		r.accel = w*(-speedDrift/rt+aRel) + (1-w)*(2*vRel/rt)
		return r
	}

	var aPanic float64
	if -drift > v.panicDistance {
		r.panicking = true
		aPanic = -v.maxAcceleration
	}
	if vRel < 0 {
		// Already inside the target distance and still closing.
		r.closing = true
		r.reachTime = 0
	}
	r.accel = aPanic + 2*vRel/rt + drift/(rt*rt)
	if r.panicking {
		// Brake at least maxAcceleration; Vehicle.step applies the hard limit.
		r.accel = math.Min(r.accel, -v.maxAcceleration)
	}
	return r
}

// canChangeLane is the safety gate for moving next to front and back on
// the destination lane. Either target missing means there is no lane.
func (v *Vehicle) canChangeLane(front, back *Target) bool {
	if front == nil || back == nil {
		return false
	}
	half := v.reactionTime / 2
	for _, t := range [2]*Target{front, back} {
		if ttc := t.TimeToContact(); ttc > 0 && ttc < half {
			return false
		}
	}
	cfg := v.env.cfg
	return front.Gap() > cfg.FrontGapFactor*v.panicDistance &&
		back.Gap() > cfg.BackGapFactor*v.panicDistance
}

// shouldChangeLane is the assisted vehicle's tactical test on top of
// canChangeLane: the new lead must leave room and must not be closing
// faster than ClosingMargin.
func (v *Vehicle) shouldChangeLane(front, back *Target) bool {
	if !v.canChangeLane(front, back) {
		return false
	}
	if front.Gap() <= v.targetDistance/2+v.panicDistance {
		return false
	}
	return front.VRel > -v.env.cfg.ClosingMargin
}

// think is the decision phase of a tick. It reads only the neighbours
// sensed this tick and never another vehicle's state.
func (v *Vehicle) think() {
	switch v.model {
	case ModelAssisted:
		v.thinkAssisted()
	default:
		v.thinkBackground()
	}
	v.processAction()
}

func (v *Vehicle) thinkBackground() {
	v.a = v.follow(v.neighbours.Front).accel

	if v.background.timeUntilNextAction < 0 {
		s := v.env.sampler
		v.background.timeUntilNextAction = v.env.cfg.DecisionPeriod.Uniform(s)
		v.decideAction(s.Float64())
	}
}

// decideAction applies the background decision table to a uniform draw
// d in [0, 1). The remaining probability mass keeps the current action.
func (v *Vehicle) decideAction(d float64) {
	cfg := v.env.cfg
	switch {
	case d < cfg.DecisionRight:
		v.action = ActionChangeLaneRight
	case d < cfg.DecisionRight+cfg.DecisionEither:
		if v.targetSpeed > cfg.LeftLaneSpeed {
			v.action = ActionChangeLaneLeft
		} else {
			v.action = ActionChangeLaneRight
		}
	case d < cfg.DecisionRight+cfg.DecisionEither+cfg.DecisionRedrawSpeed:
		v.targetSpeed = cfg.RedrawSpeed.Uniform(v.env.sampler)
		v.action = ActionNone
	}
}

func (v *Vehicle) thinkAssisted() {
	f := v.follow(v.neighbours.Front)
	v.a = f.accel
	v.assisted.unsatisfied = f.panicking || (f.closing && f.reachTime < 2*v.reactionTime)

	if v.assisted.unsatisfiedTime <= v.reactionTime || v.env.observer == nil {
		return
	}
	for _, dir := range [2]int{+1, -1} {
		front, back := v.neighbours.Side(dir)
		if v.shouldChangeLane(front, back) && v.env.observer.NotifyLaneChange(v, dir) {
			v.assisted.unsatisfiedTime = 0
			return
		}
	}
}

// processAction turns a pending lane-change action into a registration
// when the destination side is safe. The action stays pending otherwise.
func (v *Vehicle) processAction() {
	dir := v.action.Direction()
	if dir == 0 || v.env.observer == nil {
		return
	}
	front, back := v.neighbours.Side(dir)
	if !v.canChangeLane(front, back) {
		return
	}
	if v.env.observer.NotifyLaneChange(v, dir) {
		v.action = ActionNone
	}
}
