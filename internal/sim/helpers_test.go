package sim

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/banshee-data/highway/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

// testConfig returns production defaults with a full cross-lane sweep so
// small fixtures get fresh side targets for every vehicle.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SweepTail = 0
	return cfg
}

// testHighway returns an empty highway with the given number of lanes.
func testHighway(t *testing.T, lanes int) *Highway {
	t.Helper()
	cfg := testConfig()
	cfg.Lanes = lanes
	require.NoError(t, cfg.Validate())
	return newEmptyHighway(cfg, rand.NewPCG(1, 2))
}

// place adds a background vehicle with fixed attributes. The vehicle
// cruises at speed and never takes a random decision on its own.
func place(h *Highway, x float64, lane int, speed float64) *Vehicle {
	v := h.env.newVehicle(x, float64(lane))
	v.v = speed
	v.targetSpeed = speed
	v.width = 3.6
	v.length = 6
	v.targetDistance = 40
	v.reactionTime = 3
	v.terminalSpeed = 80
	v.maxAcceleration = 12
	v.color = Color{R: 0.5, G: 0.5, B: 0.5}
	v.background.timeUntilNextAction = 1e9
	h.lanes[lane].insertSorted(v)
	return v
}

// prefer turns v into the highway's preferred, assisted vehicle.
func prefer(h *Highway, v *Vehicle) {
	v.makeAssisted()
	h.preferred = v
}

func stepN(t *testing.T, h *Highway, n int, dt float64) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, h.Step(dt))
	}
}
