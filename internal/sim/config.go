package sim

import (
	"fmt"

	"github.com/banshee-data/highway/internal/config"
	"github.com/banshee-data/highway/internal/units"
)

// Config holds every tunable of a highway simulation. All speeds are m/s,
// distances metres, times seconds.
type Config struct {
	Lanes           int
	VehiclesPerLane int
	SpawnSpacing    Interval // centre-to-centre spacing of spawned vehicles
	InitialSpeed    Interval

	TargetSpeed         Interval
	Width               Interval
	Length              Interval
	TargetDistance      Interval
	ReactionTime        Interval
	TerminalSpeed       Interval
	MaxAcceleration     Interval
	PanicDistance       float64
	HardMinDeceleration float64 // lower acceleration bound, negative

	LaneChangeDuration    float64 // seconds for progress to go from 0 to 1
	LaneChangeAccelFactor float64 // scales the positive acceleration bound mid-change
	FrontGapFactor        float64 // front gap must exceed this many panic distances
	BackGapFactor         float64 // back gap must exceed this many panic distances
	ClosingMargin         float64 // assisted vehicle: max closing speed of the new lead

	MaxViewDistance  float64
	SentinelDistance float64
	SweepTail        int // trailing vehicles per lane that may keep last tick's cross-lane data

	TeleportInterval float64
	TeleportDistance float64
	DivergenceBound  float64

	DecisionPeriod      Interval
	HoldPeriod          Interval
	RedrawSpeed         Interval
	LeftLaneSpeed       float64
	DecisionRight       float64
	DecisionEither      float64
	DecisionRedrawSpeed float64

	SpawnMinGap        float64
	SpawnBlendDistance float64

	StabiliseSteps       int
	StabiliseDT          float64
	StabiliseTargetSpeed float64
}

// DefaultConfig returns production-default simulation parameters.
func DefaultConfig() Config {
	return ConfigFromSimConfig(config.EmptySimConfig())
}

func fromInterval(iv config.Interval) Interval {
	return Interval{Min: iv.Min, Max: iv.Max}
}

// ConfigFromSimConfig derives a Config from a SimConfig, applying defaults
// for every unset field.
func ConfigFromSimConfig(sc *config.SimConfig) Config {
	redraw := sc.GetRedrawSpeedKMH()
	return Config{
		Lanes:                 sc.GetLanes(),
		VehiclesPerLane:       sc.GetVehiclesPerLane(),
		SpawnSpacing:          fromInterval(sc.GetSpawnSpacing()),
		InitialSpeed:          fromInterval(sc.GetInitialSpeed()),
		TargetSpeed:           fromInterval(sc.GetTargetSpeed()),
		Width:                 fromInterval(sc.GetWidth()),
		Length:                fromInterval(sc.GetLength()),
		TargetDistance:        fromInterval(sc.GetTargetDistance()),
		ReactionTime:          fromInterval(sc.GetReactionTime()),
		TerminalSpeed:         fromInterval(sc.GetTerminalSpeed()),
		MaxAcceleration:       fromInterval(sc.GetMaxAcceleration()),
		PanicDistance:         sc.GetPanicDistance(),
		HardMinDeceleration:   sc.GetHardMinDeceleration(),
		LaneChangeDuration:    sc.GetLaneChangeDuration(),
		LaneChangeAccelFactor: sc.GetLaneChangeAccelFactor(),
		FrontGapFactor:        sc.GetFrontGapFactor(),
		BackGapFactor:         sc.GetBackGapFactor(),
		ClosingMargin:         sc.GetClosingMargin(),
		MaxViewDistance:       sc.GetMaxViewDistance(),
		SentinelDistance:      sc.GetSentinelDistance(),
		SweepTail:             sc.GetSweepTail(),
		TeleportInterval:      sc.GetTeleportInterval(),
		TeleportDistance:      sc.GetTeleportDistance(),
		DivergenceBound:       sc.GetDivergenceBound(),
		DecisionPeriod:        fromInterval(sc.GetDecisionPeriod()),
		HoldPeriod:            fromInterval(sc.GetHoldPeriod()),
		RedrawSpeed: Interval{
			Min: units.KMHToMPS(redraw.Min),
			Max: units.KMHToMPS(redraw.Max),
		},
		LeftLaneSpeed:        units.KMHToMPS(sc.GetLeftLaneSpeedKMH()),
		DecisionRight:        sc.GetDecisionRight(),
		DecisionEither:       sc.GetDecisionEither(),
		DecisionRedrawSpeed:  sc.GetDecisionRedraw(),
		SpawnMinGap:          sc.GetSpawnMinGap(),
		SpawnBlendDistance:   sc.GetSpawnBlendDistance(),
		StabiliseSteps:       sc.GetStabiliseSteps(),
		StabiliseDT:          sc.GetStabiliseDT(),
		StabiliseTargetSpeed: units.KMHToMPS(sc.GetStabiliseTargetSpeedKMH()),
	}
}

// Validate checks the invariants NewHighway relies on.
func (c Config) Validate() error {
	if c.Lanes < 1 {
		return fmt.Errorf("lanes must be at least 1, got %d", c.Lanes)
	}
	if c.VehiclesPerLane < 1 {
		return fmt.Errorf("vehicles per lane must be at least 1, got %d", c.VehiclesPerLane)
	}
	if c.SweepTail < 0 {
		return fmt.Errorf("sweep tail must be non-negative, got %d", c.SweepTail)
	}
	if c.HardMinDeceleration >= 0 {
		return fmt.Errorf("hard minimum deceleration must be negative, got %g", c.HardMinDeceleration)
	}
	for name, v := range map[string]float64{
		"panic distance":       c.PanicDistance,
		"lane change duration": c.LaneChangeDuration,
		"max view distance":    c.MaxViewDistance,
		"spawn min gap":        c.SpawnMinGap,
		"spawn blend distance": c.SpawnBlendDistance,
		"teleport interval":    c.TeleportInterval,
		"teleport distance":    c.TeleportDistance,
		"divergence bound":     c.DivergenceBound,
		"stabilise dt":         c.StabiliseDT,
	} {
		if !(v > 0) {
			return fmt.Errorf("%s must be positive, got %g", name, v)
		}
	}
	if c.SentinelDistance <= c.MaxViewDistance {
		return fmt.Errorf("sentinel distance (%g) must exceed max view distance (%g)", c.SentinelDistance, c.MaxViewDistance)
	}
	if c.ReactionTime.Min <= 0 {
		return fmt.Errorf("reaction time must be positive, got %g", c.ReactionTime.Min)
	}
	if c.TerminalSpeed.Min <= 0 {
		return fmt.Errorf("terminal speed must be positive, got %g", c.TerminalSpeed.Min)
	}
	if c.TargetDistance.Min <= 0 {
		return fmt.Errorf("target distance must be positive, got %g", c.TargetDistance.Min)
	}
	return nil
}
