package sim

import (
	"math"

	"github.com/samber/lo"
)

// VehicleID is a stable handle for a vehicle. IDs are never reused within
// a highway, so a handle held across recycling simply stops resolving.
type VehicleID uint64

// Action is a vehicle's pending request.
type Action uint8

const (
	ActionNone Action = iota
	ActionChangeLaneLeft
	ActionChangeLaneRight
)

// String returns the action name used in logs.
func (a Action) String() string {
	switch a {
	case ActionChangeLaneLeft:
		return "change_lane_left"
	case ActionChangeLaneRight:
		return "change_lane_right"
	default:
		return "none"
	}
}

// Direction returns the lane offset of the action: +1 left, -1 right.
// Lane 0 is the rightmost lane.
func (a Action) Direction() int {
	switch a {
	case ActionChangeLaneLeft:
		return +1
	case ActionChangeLaneRight:
		return -1
	default:
		return 0
	}
}

// Model selects a vehicle's behavior variant.
type Model uint8

const (
	// ModelBackground is randomised background traffic.
	ModelBackground Model = iota
	// ModelAssisted is the preferred vehicle under assisted cruise control.
	ModelAssisted
)

// String returns the model name used in logs.
func (m Model) String() string {
	if m == ModelAssisted {
		return "assisted"
	}
	return "background"
}

// Color is an RGB triple in [0, 1] read by renderers.
type Color struct {
	R, G, B float32
}

// AssistedColor marks the assisted-cruise-control vehicle.
var AssistedColor = Color{R: 0.1, G: 1.0, B: 0.1}

// LaneChangeObserver receives lane-change requests from vehicles.
type LaneChangeObserver interface {
	NotifyLaneChange(v *Vehicle, direction int) bool
}

// environment is shared by every vehicle of a highway.
type environment struct {
	cfg      *Config
	sampler  *Sampler
	observer LaneChangeObserver
	nextID   VehicleID
}

// backgroundState is the extra state of ModelBackground vehicles.
type backgroundState struct {
	timeUntilNextAction float64
}

// assistedState is the extra state of ModelAssisted vehicles.
type assistedState struct {
	unsatisfied     bool
	unsatisfiedTime float64
}

// Vehicle is one car on the highway. Exactly one Lane owns it at a time.
type Vehicle struct {
	id    VehicleID
	model Model
	env   *environment

	x float64 // position along the road (m)
	v float64 // speed (m/s)
	a float64 // acceleration (m/s²)

	width  float64
	length float64
	color  Color

	// lane is integral when settled and fractional while changing lanes.
	lane float64

	targetSpeed     float64
	targetDistance  float64
	reactionTime    float64
	panicDistance   float64
	terminalSpeed   float64
	maxAcceleration float64

	action Action

	// neighbours is refreshed by the finder. Cross-lane entries may be
	// one tick old for vehicles the sweep did not reach.
	neighbours Neighbours

	background backgroundState
	assisted   assistedState
}

// newVehicle draws a background vehicle's attributes from the configured intervals.
func (e *environment) newVehicle(x, lane float64) *Vehicle {
	cfg, s := e.cfg, e.sampler
	e.nextID++
	v := &Vehicle{
		id:              e.nextID,
		model:           ModelBackground,
		env:             e,
		x:               x,
		lane:            lane,
		targetSpeed:     cfg.TargetSpeed.Uniform(s),
		width:           cfg.Width.Normal(s),
		length:          cfg.Length.Normal(s),
		targetDistance:  cfg.TargetDistance.Uniform(s),
		reactionTime:    cfg.ReactionTime.Uniform(s),
		panicDistance:   cfg.PanicDistance,
		terminalSpeed:   cfg.TerminalSpeed.Normal(s),
		maxAcceleration: cfg.MaxAcceleration.Normal(s),
	}
	v.v = v.targetSpeed

	jitter := Interval{Min: 0, Max: 0.5}
	v.color = Color{
		R: float32(jitter.Normal(s) + 0.4),
		G: float32(jitter.Normal(s) + 0.4),
		B: float32(jitter.Normal(s) + 0.3),
	}

	v.background.timeUntilNextAction = cfg.DecisionPeriod.Uniform(s)
	return v
}

// makeAssisted converts v into the assisted-cruise-control variant.
func (v *Vehicle) makeAssisted() {
	v.model = ModelAssisted
	v.color = AssistedColor
	v.background = backgroundState{}
	v.assisted = assistedState{}
}

// ID returns the vehicle's stable handle.
func (v *Vehicle) ID() VehicleID { return v.id }

// Model returns the behavior variant.
func (v *Vehicle) Model() Model { return v.model }

// X returns the position of the vehicle centre along the road.
func (v *Vehicle) X() float64 { return v.x }

// V returns the speed in m/s.
func (v *Vehicle) V() float64 { return v.v }

// A returns the acceleration applied during the last integration.
func (v *Vehicle) A() float64 { return v.a }

// Lane returns the lane value; fractional while changing lanes.
func (v *Vehicle) Lane() float64 { return v.lane }

// Width returns the vehicle width in metres.
func (v *Vehicle) Width() float64 { return v.width }

// Length returns the vehicle length in metres.
func (v *Vehicle) Length() float64 { return v.length }

// Color returns the render color.
func (v *Vehicle) Color() Color { return v.color }

// TargetSpeed returns the speed the vehicle tries to keep.
func (v *Vehicle) TargetSpeed() float64 { return v.targetSpeed }

// TargetDistance returns the desired gap to the vehicle in front.
func (v *Vehicle) TargetDistance() float64 { return v.targetDistance }

// ReactionTime returns the time constant scaling corrective terms.
func (v *Vehicle) ReactionTime() float64 { return v.reactionTime }

// PanicDistance returns the gap below which emergency braking starts.
func (v *Vehicle) PanicDistance() float64 { return v.panicDistance }

// TerminalSpeed returns the asymptotic maximum speed.
func (v *Vehicle) TerminalSpeed() float64 { return v.terminalSpeed }

// MaxAcceleration returns the acceleration bound at standstill.
func (v *Vehicle) MaxAcceleration() float64 { return v.maxAcceleration }

// Action returns the pending action.
func (v *Vehicle) Action() Action { return v.action }

// Neighbours returns the most recently sensed neighbours.
func (v *Vehicle) Neighbours() Neighbours { return v.neighbours }

// Unsatisfied reports whether an assisted vehicle currently considers
// itself impeded, and for how long it has accumulated that state.
func (v *Vehicle) Unsatisfied() (bool, float64) {
	return v.assisted.unsatisfied, v.assisted.unsatisfiedTime
}

// ChangingLanes reports whether the lane value is fractional.
func (v *Vehicle) ChangingLanes() bool {
	return v.lane != math.Trunc(v.lane)
}

// SetTargetSpeed sets the target speed. Background vehicles hold it for
// a randomised hold period before deciding anything else.
func (v *Vehicle) SetTargetSpeed(speed float64) {
	v.targetSpeed = speed
	v.holdForcedBehavior()
}

// SetTargetDistance sets the desired following gap.
func (v *Vehicle) SetTargetDistance(distance float64) {
	v.targetDistance = distance
	v.holdForcedBehavior()
}

// SetAction sets the pending action.
func (v *Vehicle) SetAction(a Action) {
	v.action = a
	v.holdForcedBehavior()
}

func (v *Vehicle) holdForcedBehavior() {
	if v.model == ModelBackground {
		v.background.timeUntilNextAction = v.env.cfg.HoldPeriod.Normal(v.env.sampler)
	}
}

// accelerationBounds returns the clamp applied before integration.
// The upper bound shrinks linearly with speed and is scaled down while
// the vehicle is between lanes.
func (v *Vehicle) accelerationBounds() (lower, upper float64) {
	lower = v.env.cfg.HardMinDeceleration
	upper = v.maxAcceleration * (1.0 - v.v/v.terminalSpeed)
	if upper > 0 && v.ChangingLanes() {
		upper *= v.env.cfg.LaneChangeAccelFactor
	}
	return lower, upper
}

// step integrates the vehicle's state over dt using explicit Euler.
func (v *Vehicle) step(dt float64) {
	lower, upper := v.accelerationBounds()
	if upper < lower {
		// Above terminal speed the upper bound wins, as in the lower-then-upper clamp.
		v.a = upper
	} else {
		v.a = lo.Clamp(v.a, lower, upper)
	}

	v.v += dt * v.a
	if v.v < 0 {
		v.v = 0
	}
	v.x += dt * v.v

	switch v.model {
	case ModelAssisted:
		if v.assisted.unsatisfied {
			v.assisted.unsatisfiedTime += dt
		} else {
			v.assisted.unsatisfiedTime /= 2
		}
	default:
		v.background.timeUntilNextAction -= dt
	}
}
