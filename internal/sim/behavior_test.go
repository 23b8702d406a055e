package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowNoLead(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 1)
	v := place(h, 0, 0, 25)
	v.targetSpeed = 30

	r := v.follow(nil)
	assert.InDelta(t, 5.0/3, r.accel, 1e-12)
	assert.False(t, r.panicking)
	assert.True(t, math.IsInf(r.reachTime, 1))
}

func TestFollowContinuousAtTargetDistance(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 1)
	v := place(h, 0, 0, 30)
	v.targetSpeed = 35

	for _, vRel := range []float64{-8, -1, 0, 1, 8} {
		at := v.follow(&Target{Dist: v.targetDistance, VRel: vRel}).accel
		above := v.follow(&Target{Dist: v.targetDistance + 1e-7, VRel: vRel}).accel
		below := v.follow(&Target{Dist: v.targetDistance - 1e-7, VRel: vRel}).accel

		assert.InDelta(t, 2*vRel/v.reactionTime, at, 1e-9, "vRel=%g", vRel)
		assert.InDelta(t, at, above, 1e-6, "vRel=%g above", vRel)
		assert.InDelta(t, at, below, 1e-6, "vRel=%g below", vRel)
	}
}

func TestFollowPanicBrake(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 1)
	v := place(h, 0, 0, 30)

	t.Run("inside panic territory", func(t *testing.T) {
		r := v.follow(&Target{Dist: 5, VRel: -30})
		assert.True(t, r.panicking)
		assert.LessOrEqual(t, r.accel, -v.maxAcceleration)
		assert.InDelta(t, -v.maxAcceleration-20-35.0/9, r.accel, 1e-12)
	})

	t.Run("panicking while opening still brakes", func(t *testing.T) {
		r := v.follow(&Target{Dist: 5, VRel: 60})
		assert.True(t, r.panicking)
		assert.Equal(t, -v.maxAcceleration, r.accel)
	})

	t.Run("short of target but not panicking", func(t *testing.T) {
		r := v.follow(&Target{Dist: v.targetDistance - v.panicDistance + 1, VRel: 0})
		assert.False(t, r.panicking)
		assert.InDelta(t, -(v.panicDistance-1)/(v.reactionTime*v.reactionTime), r.accel, 1e-12)
	})
}

func TestFollowBrakingNeverWeakensIntoPanic(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 1)
	v := place(h, 0, 0, 30)
	edge := v.targetDistance - v.panicDistance

	for _, vRel := range []float64{-30, -20, -5, 0, 5, 20} {
		outside := v.follow(&Target{Dist: edge + 0.1, VRel: vRel})
		inside := v.follow(&Target{Dist: edge - 0.1, VRel: vRel})
		require.False(t, outside.panicking, "vRel=%g", vRel)
		require.True(t, inside.panicking, "vRel=%g", vRel)
		assert.LessOrEqual(t, inside.accel, outside.accel, "vRel=%g", vRel)
		assert.LessOrEqual(t, inside.accel, -v.maxAcceleration, "vRel=%g", vRel)
	}
}

func TestFollowClosingReachTime(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 1)
	v := place(h, 0, 0, 30)

	r := v.follow(&Target{Dist: v.targetDistance + 20, VRel: -5})
	assert.True(t, r.closing)
	assert.InDelta(t, 4.0, r.reachTime, 1e-12)

	r = v.follow(&Target{Dist: v.targetDistance + 20, VRel: 5})
	assert.False(t, r.closing)
	assert.True(t, math.IsInf(r.reachTime, 1))
}

func TestCanChangeLane(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 2)
	v := place(h, 0, 0, 30)
	p := v.panicDistance
	far := &Target{Dist: 1e6}
	farBack := &Target{Dist: -1e6}

	tests := []struct {
		name        string
		front, back *Target
		want        bool
	}{
		{name: "ample gaps", front: far, back: farBack, want: true},
		{name: "no lane", front: nil, back: nil, want: false},
		{name: "front at one panic distance", front: &Target{Dist: p}, back: farBack, want: false},
		{name: "front just over twice panic", front: &Target{Dist: 2*p + 0.1}, back: farBack, want: true},
		{name: "back at twice panic", front: far, back: &Target{Dist: -2 * p}, want: false},
		{name: "back just over 2.5 panic", front: far, back: &Target{Dist: -2.5*p - 0.1}, want: true},
		{name: "front closing fast", front: &Target{Dist: 40, VRel: -40}, back: farBack, want: false},
		{name: "back closing fast", front: far, back: &Target{Dist: -40, VRel: 40}, want: false},
		{name: "back falling away", front: far, back: &Target{Dist: -40, VRel: -40}, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.canChangeLane(tt.front, tt.back))
		})
	}
}

func TestShouldChangeLane(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 2)
	v := place(h, 0, 0, 30)
	farBack := &Target{Dist: -1e6}
	minGap := v.targetDistance/2 + v.panicDistance

	assert.True(t, v.shouldChangeLane(&Target{Dist: 1e6}, farBack))
	assert.False(t, v.shouldChangeLane(&Target{Dist: minGap}, farBack))
	assert.True(t, v.shouldChangeLane(&Target{Dist: minGap + 1}, farBack))
	assert.False(t, v.shouldChangeLane(&Target{Dist: 400, VRel: -h.cfg.ClosingMargin - 0.5}, farBack))
	assert.True(t, v.shouldChangeLane(&Target{Dist: 400, VRel: -h.cfg.ClosingMargin + 0.5}, farBack))
}

func TestDecideAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		d           float64
		targetSpeed float64
		pending     Action
		want        Action
		redraw      bool
	}{
		{name: "right", d: 0.1, targetSpeed: 30, want: ActionChangeLaneRight},
		{name: "left when fast", d: 0.3, targetSpeed: 40, want: ActionChangeLaneLeft},
		{name: "right when slow", d: 0.3, targetSpeed: 30, want: ActionChangeLaneRight},
		{name: "redraw speed", d: 0.6, targetSpeed: 30, pending: ActionChangeLaneLeft, want: ActionNone, redraw: true},
		{name: "keep", d: 0.9, targetSpeed: 30, pending: ActionChangeLaneLeft, want: ActionChangeLaneLeft},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := testHighway(t, 3)
			v := place(h, 0, 1, tt.targetSpeed)
			v.action = tt.pending

			v.decideAction(tt.d)

			assert.Equal(t, tt.want, v.Action())
			if tt.redraw {
				assert.True(t, h.cfg.RedrawSpeed.Contains(v.TargetSpeed()))
			} else {
				assert.Equal(t, tt.targetSpeed, v.TargetSpeed())
			}
		})
	}
}

func TestBackgroundDecisionTimer(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 3)
	v := place(h, 0, 1, 30)
	v.background.timeUntilNextAction = -0.01
	require.NoError(t, h.findNeighbours())

	v.think()

	assert.True(t, h.cfg.DecisionPeriod.Contains(v.background.timeUntilNextAction))
}

// Scenario: a lone vehicle settles on its target speed.
func TestScenarioConvergesToTargetSpeed(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 1)
	v := place(h, 0, 0, 25)
	v.targetSpeed = 30
	v.reactionTime = 1
	prefer(h, v)

	prev := v.V()
	for i := 0; i < 180; i++ {
		require.NoError(t, h.Step(1.0/60))
		require.GreaterOrEqual(t, v.V(), prev, "tick %d", i)
		require.LessOrEqual(t, v.V(), 30.0)
		prev = v.V()
	}
	assert.InDelta(t, 30, v.V(), 0.3)

	stepN(t, h, 420, 1.0/60)
	assert.InDelta(t, 30, v.V(), 0.01)
}

// Scenario: the lead stops dead inside panic distance.
func TestScenarioPanicBrake(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 1)
	ego := place(h, 0, 0, 30)
	place(h, 6+5, 0, 0)

	require.NoError(t, h.Step(1.0/60))

	// The law asks for more than the hard limit, which wins.
	assert.LessOrEqual(t, ego.A(), -ego.MaxAcceleration())
	assert.Equal(t, h.cfg.HardMinDeceleration, ego.A())
	front := ego.Neighbours().Front
	require.NotNil(t, front)
	assert.InDelta(t, 5.0, front.Dist, 1e-12)
}

// Scenario: cruising at the target gap behind a stopped car.
func TestStopsBehindStoppedLead(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 1)
	ego := place(h, 0, 0, 35)
	lead := place(h, 6+ego.TargetDistance(), 0, 0)

	stepN(t, h, 600, 1.0/60)

	assert.Zero(t, h.Stats().Collisions)
	assert.Zero(t, ego.V())
	gap := (lead.X() - lead.Length()/2) - (ego.X() + ego.Length()/2)
	assert.Greater(t, gap, ego.PanicDistance()/2)
}

// Scenario: the left lane's front gap is only one panic distance.
func TestScenarioLaneChangeRefused(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 2)
	ego := place(h, 0, 0, 30)
	place(h, 6+ego.PanicDistance(), 1, 30)
	ego.SetAction(ActionChangeLaneLeft)

	require.NoError(t, h.Step(1.0/60))

	_, changing := h.LaneChangeProgress(ego.ID())
	assert.False(t, changing)
	assert.Equal(t, 0.0, ego.Lane())
	assert.Equal(t, ActionChangeLaneLeft, ego.Action())
	assert.Contains(t, h.lanes[0].Vehicles(), ego)
	assert.Equal(t, 1, h.lanes[1].Len())
}

// Scenario: a lane change with ample gaps completes in one second.
func TestScenarioLaneChangeCompletes(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 2)
	ego := place(h, 0, 0, 30)
	ego.SetAction(ActionChangeLaneLeft)

	stepN(t, h, 30, 1.0/60)
	progress, changing := h.LaneChangeProgress(ego.ID())
	require.True(t, changing)
	assert.InDelta(t, 0.5, progress, 1e-9)
	assert.InDelta(t, 0.5, ego.Lane(), 1e-9)
	assert.True(t, ego.ChangingLanes())
	assert.Equal(t, ActionNone, ego.Action())

	stepN(t, h, 29, 1.0/60)
	_, changing = h.LaneChangeProgress(ego.ID())
	require.True(t, changing)

	stepN(t, h, 1, 1.0/60)
	_, changing = h.LaneChangeProgress(ego.ID())
	assert.False(t, changing)
	assert.Equal(t, 1.0, ego.Lane())
	assert.Empty(t, h.lanes[0].Vehicles())
	assert.Equal(t, []*Vehicle{ego}, h.lanes[1].Vehicles())
	assert.Equal(t, 1, h.Stats().CompletedLaneChanges)
}

func TestAssistedVehicleOvertakes(t *testing.T) {
	t.Parallel()

	h := testHighway(t, 2)
	ego := place(h, 0, 0, 20)
	ego.targetSpeed = 40
	ego.reactionTime = 1
	prefer(h, ego)
	place(h, 6+5, 0, 20)

	stepN(t, h, 90, 1.0/60)

	assert.Greater(t, ego.Lane(), 0.0)
	assert.Contains(t, h.lanes[1].Vehicles(), ego)
	_, accumulated := ego.Unsatisfied()
	assert.Less(t, accumulated, ego.ReactionTime())
}

func TestAssistedUnsatisfiedTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		unsatisfied bool
		start       float64
		dt          float64
		want        float64
	}{
		{name: "grows by dt while unsatisfied", unsatisfied: true, start: 0.5, dt: 0.1, want: 0.6},
		{name: "grows from zero", unsatisfied: true, start: 0, dt: 1.0 / 60, want: 1.0 / 60},
		{name: "halves when satisfied", unsatisfied: false, start: 0.8, dt: 0.1, want: 0.4},
		{name: "halving ignores dt", unsatisfied: false, start: 3, dt: 1, want: 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := testHighway(t, 1)
			ego := place(h, 0, 0, 30)
			prefer(h, ego)
			ego.assisted.unsatisfied = tt.unsatisfied
			ego.assisted.unsatisfiedTime = tt.start

			ego.step(tt.dt)

			_, got := ego.Unsatisfied()
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestAssistedUnsatisfiedTriggers(t *testing.T) {
	t.Parallel()

	// place gives targetDistance 40, reactionTime 3, panicDistance 12.
	tests := []struct {
		name  string
		front *Target
		want  bool
	}{
		{name: "no lead", front: nil, want: false},
		{name: "panicking", front: &Target{Dist: 5, VRel: 0}, want: true},
		{name: "closing, reach under two reaction times", front: &Target{Dist: 50, VRel: -5}, want: true},
		{name: "closing, reach of exactly two reaction times", front: &Target{Dist: 70, VRel: -5}, want: false},
		{name: "closing, reach beyond two reaction times", front: &Target{Dist: 80, VRel: -5}, want: false},
		{name: "opening above target distance", front: &Target{Dist: 50, VRel: 5}, want: false},
		{name: "closing inside target distance", front: &Target{Dist: 35, VRel: -1}, want: true},
		{name: "holding inside target distance", front: &Target{Dist: 35, VRel: 0}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := testHighway(t, 1)
			ego := place(h, 0, 0, 30)
			prefer(h, ego)
			ego.neighbours.Front = tt.front

			ego.thinkAssisted()

			got, accumulated := ego.Unsatisfied()
			assert.Equal(t, tt.want, got)
			assert.Zero(t, accumulated)
			assert.Zero(t, h.ActiveLaneChanges())
		})
	}
}

func TestAssistedLaneChangeNeedsAccumulatedTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start      float64
		wantChange bool
	}{
		{name: "below one reaction time", start: 1, wantChange: false},
		{name: "exactly one reaction time", start: 3, wantChange: false},
		{name: "above one reaction time", start: 3.01, wantChange: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := testHighway(t, 2)
			ego := place(h, 0, 0, 30)
			prefer(h, ego)
			place(h, 6+5, 0, 0)
			require.NoError(t, h.findNeighbours())
			ego.assisted.unsatisfiedTime = tt.start

			ego.thinkAssisted()

			unsatisfied, accumulated := ego.Unsatisfied()
			assert.True(t, unsatisfied)
			_, changing := h.LaneChangeProgress(ego.ID())
			assert.Equal(t, tt.wantChange, changing)
			if tt.wantChange {
				assert.Zero(t, accumulated, "counter resets after a registered change")
			} else {
				assert.Equal(t, tt.start, accumulated)
			}
		})
	}
}
