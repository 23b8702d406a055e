package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
)

// DefaultConfigPath is the path to the canonical simulation defaults file.
const DefaultConfigPath = "config/sim.defaults.json"

// Interval is a closed [min, max] range used for randomised vehicle
// attributes and timers.
type Interval struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SimConfig represents the root configuration for a highway simulation.
// Every field is optional; the Get* accessors fall back to the defaults
// below, so partial files are safe. Speeds are m/s unless the field name
// says km/h.
type SimConfig struct {
	// Road and initial population
	Lanes           *int      `json:"lanes,omitempty"`
	VehiclesPerLane *int      `json:"vehicles_per_lane,omitempty"`
	SpawnSpacing    *Interval `json:"spawn_spacing,omitempty"`
	InitialSpeed    *Interval `json:"initial_speed,omitempty"`

	// Vehicle attributes
	TargetSpeed         *Interval `json:"target_speed,omitempty"`
	Width               *Interval `json:"width,omitempty"`
	Length              *Interval `json:"length,omitempty"`
	TargetDistance      *Interval `json:"target_distance,omitempty"`
	ReactionTime        *Interval `json:"reaction_time,omitempty"`
	TerminalSpeed       *Interval `json:"terminal_speed,omitempty"`
	MaxAcceleration     *Interval `json:"max_acceleration,omitempty"`
	PanicDistance       *float64  `json:"panic_distance,omitempty"`
	HardMinDeceleration *float64  `json:"hard_min_deceleration,omitempty"`

	// Lane changes
	LaneChangeDuration    *float64 `json:"lane_change_duration,omitempty"`
	LaneChangeAccelFactor *float64 `json:"lane_change_accel_factor,omitempty"`
	FrontGapFactor        *float64 `json:"front_gap_factor,omitempty"`
	BackGapFactor         *float64 `json:"back_gap_factor,omitempty"`
	ClosingMargin         *float64 `json:"closing_margin,omitempty"`

	// Sensing
	MaxViewDistance  *float64 `json:"max_view_distance,omitempty"`
	SentinelDistance *float64 `json:"sentinel_distance,omitempty"`
	SweepTail        *int     `json:"sweep_tail,omitempty"`

	// Recycling and divergence
	TeleportInterval *float64 `json:"teleport_interval,omitempty"`
	TeleportDistance *float64 `json:"teleport_distance,omitempty"`
	DivergenceBound  *float64 `json:"divergence_bound,omitempty"`

	// Background traffic decisions
	DecisionPeriod   *Interval `json:"decision_period,omitempty"`
	HoldPeriod       *Interval `json:"hold_period,omitempty"`
	RedrawSpeedKMH   *Interval `json:"redraw_speed_kmh,omitempty"`
	LeftLaneSpeedKMH *float64  `json:"left_lane_speed_kmh,omitempty"`
	DecisionRight    *float64  `json:"decision_right,omitempty"`
	DecisionEither   *float64  `json:"decision_either,omitempty"`
	DecisionRedraw   *float64  `json:"decision_redraw,omitempty"`

	// Spawning
	SpawnMinGap        *float64 `json:"spawn_min_gap,omitempty"`
	SpawnBlendDistance *float64 `json:"spawn_blend_distance,omitempty"`

	// Stabilisation
	StabiliseSteps          *int     `json:"stabilise_steps,omitempty"`
	StabiliseDT             *float64 `json:"stabilise_dt,omitempty"`
	StabiliseTargetSpeedKMH *float64 `json:"stabilise_target_speed_kmh,omitempty"`

	Seed *uint64 `json:"seed,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64      { return &v }
func ptrInt(v int) *int                  { return &v }
func ptrUint64(v uint64) *uint64         { return &v }
func ptrInterval(v Interval) *Interval   { return &v }
func interval(min, max float64) Interval { return Interval{Min: min, Max: max} }

// EmptySimConfig returns a SimConfig with all fields set to nil.
func EmptySimConfig() *SimConfig {
	return &SimConfig{}
}

// DefaultSimConfig returns a SimConfig with every field populated from
// the built-in defaults.
func DefaultSimConfig() *SimConfig {
	e := EmptySimConfig()
	return &SimConfig{
		Lanes:                   ptrInt(e.GetLanes()),
		VehiclesPerLane:         ptrInt(e.GetVehiclesPerLane()),
		SpawnSpacing:            ptrInterval(e.GetSpawnSpacing()),
		InitialSpeed:            ptrInterval(e.GetInitialSpeed()),
		TargetSpeed:             ptrInterval(e.GetTargetSpeed()),
		Width:                   ptrInterval(e.GetWidth()),
		Length:                  ptrInterval(e.GetLength()),
		TargetDistance:          ptrInterval(e.GetTargetDistance()),
		ReactionTime:            ptrInterval(e.GetReactionTime()),
		TerminalSpeed:           ptrInterval(e.GetTerminalSpeed()),
		MaxAcceleration:         ptrInterval(e.GetMaxAcceleration()),
		PanicDistance:           ptrFloat64(e.GetPanicDistance()),
		HardMinDeceleration:     ptrFloat64(e.GetHardMinDeceleration()),
		LaneChangeDuration:      ptrFloat64(e.GetLaneChangeDuration()),
		LaneChangeAccelFactor:   ptrFloat64(e.GetLaneChangeAccelFactor()),
		FrontGapFactor:          ptrFloat64(e.GetFrontGapFactor()),
		BackGapFactor:           ptrFloat64(e.GetBackGapFactor()),
		ClosingMargin:           ptrFloat64(e.GetClosingMargin()),
		MaxViewDistance:         ptrFloat64(e.GetMaxViewDistance()),
		SentinelDistance:        ptrFloat64(e.GetSentinelDistance()),
		SweepTail:               ptrInt(e.GetSweepTail()),
		TeleportInterval:        ptrFloat64(e.GetTeleportInterval()),
		TeleportDistance:        ptrFloat64(e.GetTeleportDistance()),
		DivergenceBound:         ptrFloat64(e.GetDivergenceBound()),
		DecisionPeriod:          ptrInterval(e.GetDecisionPeriod()),
		HoldPeriod:              ptrInterval(e.GetHoldPeriod()),
		RedrawSpeedKMH:          ptrInterval(e.GetRedrawSpeedKMH()),
		LeftLaneSpeedKMH:        ptrFloat64(e.GetLeftLaneSpeedKMH()),
		DecisionRight:           ptrFloat64(e.GetDecisionRight()),
		DecisionEither:          ptrFloat64(e.GetDecisionEither()),
		DecisionRedraw:          ptrFloat64(e.GetDecisionRedraw()),
		SpawnMinGap:             ptrFloat64(e.GetSpawnMinGap()),
		SpawnBlendDistance:      ptrFloat64(e.GetSpawnBlendDistance()),
		StabiliseSteps:          ptrInt(e.GetStabiliseSteps()),
		StabiliseDT:             ptrFloat64(e.GetStabiliseDT()),
		StabiliseTargetSpeedKMH: ptrFloat64(e.GetStabiliseTargetSpeedKMH()),
		Seed:                    ptrUint64(e.GetSeed()),
	}
}

// LoadSimConfig loads a SimConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
// Fields omitted from the JSON file fall back to their defaults.
func LoadSimConfig(path string) (*SimConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptySimConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath.
// It searches the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *SimConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/<pkg>/
		"../../../" + DefaultConfigPath, // from cmd/<tool>/ and deeper
	}
	for _, path := range candidates {
		if cfg, err := LoadSimConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *SimConfig) Validate() error {
	if c.Lanes != nil && *c.Lanes < 1 {
		return fmt.Errorf("lanes must be at least 1, got %d", *c.Lanes)
	}
	if c.VehiclesPerLane != nil && *c.VehiclesPerLane < 1 {
		return fmt.Errorf("vehicles_per_lane must be at least 1, got %d", *c.VehiclesPerLane)
	}
	if c.SweepTail != nil && *c.SweepTail < 0 {
		return fmt.Errorf("sweep_tail must be non-negative, got %d", *c.SweepTail)
	}
	if c.StabiliseSteps != nil && *c.StabiliseSteps < 0 {
		return fmt.Errorf("stabilise_steps must be non-negative, got %d", *c.StabiliseSteps)
	}

	intervals := map[string]*Interval{
		"spawn_spacing":    c.SpawnSpacing,
		"initial_speed":    c.InitialSpeed,
		"target_speed":     c.TargetSpeed,
		"width":            c.Width,
		"length":           c.Length,
		"target_distance":  c.TargetDistance,
		"reaction_time":    c.ReactionTime,
		"terminal_speed":   c.TerminalSpeed,
		"max_acceleration": c.MaxAcceleration,
		"decision_period":  c.DecisionPeriod,
		"hold_period":      c.HoldPeriod,
		"redraw_speed_kmh": c.RedrawSpeedKMH,
	}
	for name, iv := range intervals {
		if iv == nil {
			continue
		}
		if math.IsNaN(iv.Min) || math.IsNaN(iv.Max) || iv.Min > iv.Max {
			return fmt.Errorf("%s must satisfy min <= max, got [%g, %g]", name, iv.Min, iv.Max)
		}
	}

	positives := map[string]*float64{
		"panic_distance":       c.PanicDistance,
		"lane_change_duration": c.LaneChangeDuration,
		"max_view_distance":    c.MaxViewDistance,
		"sentinel_distance":    c.SentinelDistance,
		"teleport_interval":    c.TeleportInterval,
		"teleport_distance":    c.TeleportDistance,
		"divergence_bound":     c.DivergenceBound,
		"stabilise_dt":         c.StabiliseDT,
		"spawn_min_gap":        c.SpawnMinGap,
		"spawn_blend_distance": c.SpawnBlendDistance,
	}
	for name, v := range positives {
		if v != nil && !(*v > 0) {
			return fmt.Errorf("%s must be positive, got %g", name, *v)
		}
	}

	if c.HardMinDeceleration != nil && *c.HardMinDeceleration >= 0 {
		return fmt.Errorf("hard_min_deceleration must be negative, got %g", *c.HardMinDeceleration)
	}
	if c.LaneChangeAccelFactor != nil && (*c.LaneChangeAccelFactor < 0 || *c.LaneChangeAccelFactor > 1) {
		return fmt.Errorf("lane_change_accel_factor must be between 0 and 1, got %g", *c.LaneChangeAccelFactor)
	}
	if c.GetSentinelDistance() <= c.GetMaxViewDistance() {
		return fmt.Errorf("sentinel_distance (%g) must exceed max_view_distance (%g)",
			c.GetSentinelDistance(), c.GetMaxViewDistance())
	}

	sum := c.GetDecisionRight() + c.GetDecisionEither() + c.GetDecisionRedraw()
	for _, p := range []float64{c.GetDecisionRight(), c.GetDecisionEither(), c.GetDecisionRedraw()} {
		if p < 0 {
			return fmt.Errorf("decision probabilities must be non-negative, got %g", p)
		}
	}
	if sum > 1 {
		return fmt.Errorf("decision probabilities must sum to at most 1, got %g", sum)
	}

	return nil
}

func getInterval(v *Interval, def Interval) Interval {
	if v == nil {
		return def
	}
	return *v
}

// GetLanes returns the lanes value or the default.
func (c *SimConfig) GetLanes() int {
	if c.Lanes == nil {
		return 3
	}
	return *c.Lanes
}

// GetVehiclesPerLane returns the vehicles_per_lane value or the default.
func (c *SimConfig) GetVehiclesPerLane() int {
	if c.VehiclesPerLane == nil {
		return 100
	}
	return *c.VehiclesPerLane
}

// GetSpawnSpacing returns the centre-to-centre spacing between spawned vehicles (m).
func (c *SimConfig) GetSpawnSpacing() Interval {
	return getInterval(c.SpawnSpacing, interval(15, 40))
}

// GetInitialSpeed returns the initial population speed range (m/s).
func (c *SimConfig) GetInitialSpeed() Interval {
	return getInterval(c.InitialSpeed, interval(20, 60))
}

// GetTargetSpeed returns the target speed range for new vehicles (m/s).
func (c *SimConfig) GetTargetSpeed() Interval {
	return getInterval(c.TargetSpeed, interval(26, 48))
}

// GetWidth returns the vehicle width range (m).
func (c *SimConfig) GetWidth() Interval {
	return getInterval(c.Width, interval(3.3, 3.9))
}

// GetLength returns the vehicle length range (m).
func (c *SimConfig) GetLength() Interval {
	return getInterval(c.Length, interval(5.5, 6.6))
}

// GetTargetDistance returns the desired following gap range (m).
func (c *SimConfig) GetTargetDistance() Interval {
	return getInterval(c.TargetDistance, interval(35, 50))
}

// GetReactionTime returns the reaction time range (s).
func (c *SimConfig) GetReactionTime() Interval {
	return getInterval(c.ReactionTime, interval(2.5, 3.6))
}

// GetTerminalSpeed returns the terminal speed range (m/s), 180 to 350 km/h.
func (c *SimConfig) GetTerminalSpeed() Interval {
	return getInterval(c.TerminalSpeed, interval(180/3.6, 350/3.6))
}

// GetMaxAcceleration returns the maximum acceleration range (m/s²).
func (c *SimConfig) GetMaxAcceleration() Interval {
	return getInterval(c.MaxAcceleration, interval(8, 16))
}

// GetPanicDistance returns the panic_distance value or the default.
func (c *SimConfig) GetPanicDistance() float64 {
	if c.PanicDistance == nil {
		return 12.0
	}
	return *c.PanicDistance
}

// GetHardMinDeceleration returns the hard_min_deceleration value or the default.
func (c *SimConfig) GetHardMinDeceleration() float64 {
	if c.HardMinDeceleration == nil {
		return -19.0
	}
	return *c.HardMinDeceleration
}

// GetLaneChangeDuration returns the lane_change_duration value or the default.
func (c *SimConfig) GetLaneChangeDuration() float64 {
	if c.LaneChangeDuration == nil {
		return 1.0
	}
	return *c.LaneChangeDuration
}

// GetLaneChangeAccelFactor returns the lane_change_accel_factor value or the default.
func (c *SimConfig) GetLaneChangeAccelFactor() float64 {
	if c.LaneChangeAccelFactor == nil {
		return 0.5
	}
	return *c.LaneChangeAccelFactor
}

// GetFrontGapFactor returns the front_gap_factor value or the default.
func (c *SimConfig) GetFrontGapFactor() float64 {
	if c.FrontGapFactor == nil {
		return 2.0
	}
	return *c.FrontGapFactor
}

// GetBackGapFactor returns the back_gap_factor value or the default.
func (c *SimConfig) GetBackGapFactor() float64 {
	if c.BackGapFactor == nil {
		return 2.5
	}
	return *c.BackGapFactor
}

// GetClosingMargin returns the closing_margin value or the default.
func (c *SimConfig) GetClosingMargin() float64 {
	if c.ClosingMargin == nil {
		return 2.0
	}
	return *c.ClosingMargin
}

// GetMaxViewDistance returns the max_view_distance value or the default.
func (c *SimConfig) GetMaxViewDistance() float64 {
	if c.MaxViewDistance == nil {
		return 500.0
	}
	return *c.MaxViewDistance
}

// GetSentinelDistance returns the sentinel_distance value or the default.
func (c *SimConfig) GetSentinelDistance() float64 {
	if c.SentinelDistance == nil {
		return 1e6
	}
	return *c.SentinelDistance
}

// GetSweepTail returns the sweep_tail value or the default.
func (c *SimConfig) GetSweepTail() int {
	if c.SweepTail == nil {
		return 1
	}
	return *c.SweepTail
}

// GetTeleportInterval returns the teleport_interval value or the default.
func (c *SimConfig) GetTeleportInterval() float64 {
	if c.TeleportInterval == nil {
		return 2.0
	}
	return *c.TeleportInterval
}

// GetTeleportDistance returns the teleport_distance value or the default.
func (c *SimConfig) GetTeleportDistance() float64 {
	if c.TeleportDistance == nil {
		return 1500.0
	}
	return *c.TeleportDistance
}

// GetDivergenceBound returns the divergence_bound value or the default.
func (c *SimConfig) GetDivergenceBound() float64 {
	if c.DivergenceBound == nil {
		return 1e8
	}
	return *c.DivergenceBound
}

// GetDecisionPeriod returns the background decision period range (s).
func (c *SimConfig) GetDecisionPeriod() Interval {
	return getInterval(c.DecisionPeriod, interval(5.7, 13.6))
}

// GetHoldPeriod returns the hold period after a forced action (s).
func (c *SimConfig) GetHoldPeriod() Interval {
	return getInterval(c.HoldPeriod, interval(16, 24))
}

// GetRedrawSpeedKMH returns the range background vehicles redraw their target speed from (km/h).
func (c *SimConfig) GetRedrawSpeedKMH() Interval {
	return getInterval(c.RedrawSpeedKMH, interval(100, 250))
}

// GetLeftLaneSpeedKMH returns the left_lane_speed_kmh value or the default.
func (c *SimConfig) GetLeftLaneSpeedKMH() float64 {
	if c.LeftLaneSpeedKMH == nil {
		return 130.0
	}
	return *c.LeftLaneSpeedKMH
}

// GetDecisionRight returns the decision_right value or the default.
func (c *SimConfig) GetDecisionRight() float64 {
	if c.DecisionRight == nil {
		return 0.25
	}
	return *c.DecisionRight
}

// GetDecisionEither returns the decision_either value or the default.
func (c *SimConfig) GetDecisionEither() float64 {
	if c.DecisionEither == nil {
		return 0.25
	}
	return *c.DecisionEither
}

// GetDecisionRedraw returns the decision_redraw value or the default.
func (c *SimConfig) GetDecisionRedraw() float64 {
	if c.DecisionRedraw == nil {
		return 0.30
	}
	return *c.DecisionRedraw
}

// GetSpawnMinGap returns the spawn_min_gap value or the default.
func (c *SimConfig) GetSpawnMinGap() float64 {
	if c.SpawnMinGap == nil {
		return 2 * c.GetPanicDistance()
	}
	return *c.SpawnMinGap
}

// GetSpawnBlendDistance returns the spawn_blend_distance value or the default.
func (c *SimConfig) GetSpawnBlendDistance() float64 {
	if c.SpawnBlendDistance == nil {
		return 50.0
	}
	return *c.SpawnBlendDistance
}

// GetStabiliseSteps returns the stabilise_steps value or the default.
func (c *SimConfig) GetStabiliseSteps() int {
	if c.StabiliseSteps == nil {
		return 3000
	}
	return *c.StabiliseSteps
}

// GetStabiliseDT returns the stabilise_dt value or the default.
func (c *SimConfig) GetStabiliseDT() float64 {
	if c.StabiliseDT == nil {
		return 1.0 / 30.0
	}
	return *c.StabiliseDT
}

// GetStabiliseTargetSpeedKMH returns the stabilise_target_speed_kmh value or the default.
func (c *SimConfig) GetStabiliseTargetSpeedKMH() float64 {
	if c.StabiliseTargetSpeedKMH == nil {
		return 200.0
	}
	return *c.StabiliseTargetSpeedKMH
}

// GetSeed returns the seed value or the default.
func (c *SimConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}
