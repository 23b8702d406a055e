package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestDefaultSimConfig(t *testing.T) {
	cfg := DefaultSimConfig()

	// Test that defaults are set via pointers
	if cfg.Lanes == nil || *cfg.Lanes != 3 {
		t.Errorf("Expected Lanes 3, got %v", cfg.Lanes)
	}
	if cfg.PanicDistance == nil || *cfg.PanicDistance != 12 {
		t.Errorf("Expected PanicDistance 12, got %v", cfg.PanicDistance)
	}
	if cfg.SpawnSpacing == nil || *cfg.SpawnSpacing != interval(15, 40) {
		t.Errorf("Expected SpawnSpacing [15, 40], got %v", cfg.SpawnSpacing)
	}
	if cfg.Seed == nil || *cfg.Seed != 1 {
		t.Errorf("Expected Seed 1, got %v", cfg.Seed)
	}

	// Test getter methods
	if cfg.GetSpawnMinGap() != 24 {
		t.Errorf("GetSpawnMinGap() = %f, want 24", cfg.GetSpawnMinGap())
	}
	if cfg.GetSweepTail() != 1 {
		t.Errorf("GetSweepTail() = %d, want 1", cfg.GetSweepTail())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultSimConfig().Validate() = %v", err)
	}
}

func TestLoadSimConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test_config.json")

	testJSON := `{
  "lanes": 4,
  "vehicles_per_lane": 40,
  "spawn_spacing": { "min": 20, "max": 30 },
  "panic_distance": 10,
  "sweep_tail": 0,
  "seed": 42
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadSimConfig(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.GetLanes() != 4 {
		t.Errorf("Expected Lanes 4, got %d", cfg.GetLanes())
	}
	if cfg.GetVehiclesPerLane() != 40 {
		t.Errorf("Expected VehiclesPerLane 40, got %d", cfg.GetVehiclesPerLane())
	}
	if cfg.GetSpawnSpacing() != interval(20, 30) {
		t.Errorf("Expected SpawnSpacing [20, 30], got %v", cfg.GetSpawnSpacing())
	}
	if cfg.GetSweepTail() != 0 {
		t.Errorf("Expected SweepTail 0, got %d", cfg.GetSweepTail())
	}
	if cfg.GetSeed() != 42 {
		t.Errorf("Expected Seed 42, got %d", cfg.GetSeed())
	}
	// Derived default follows the overridden panic distance.
	if cfg.GetSpawnMinGap() != 20 {
		t.Errorf("Expected SpawnMinGap 20, got %f", cfg.GetSpawnMinGap())
	}
	// Untouched fields keep their defaults.
	if cfg.GetTeleportDistance() != 1500 {
		t.Errorf("Expected default TeleportDistance 1500, got %f", cfg.GetTeleportDistance())
	}
}

func TestLoadSimConfigMissing(t *testing.T) {
	_, err := LoadSimConfig("/nonexistent/path/to/config.json")
	if err == nil {
		t.Error("Expected error when loading missing file, got nil")
	}
}

func TestLoadSimConfigInvalid(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid_config.json")

	invalidJSON := `{
  "lanes": "three"
`
	if err := os.WriteFile(configPath, []byte(invalidJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadSimConfig(configPath)
	if err == nil {
		t.Error("Expected error when loading invalid JSON, got nil")
	}
}

func TestLoadSimConfigRejectsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad_values.json")

	if err := os.WriteFile(configPath, []byte(`{"lanes": 0}`), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err := LoadSimConfig(configPath)
	if err == nil {
		t.Error("Expected validation error for zero lanes, got nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *SimConfig
		wantErr bool
	}{
		{
			name:    "valid config",
			cfg:     DefaultSimConfig(),
			wantErr: false,
		},
		{
			name:    "empty config is valid",
			cfg:     &SimConfig{},
			wantErr: false,
		},
		{
			name:    "zero lanes",
			cfg:     &SimConfig{Lanes: ptrInt(0)},
			wantErr: true,
		},
		{
			name:    "negative sweep tail",
			cfg:     &SimConfig{SweepTail: ptrInt(-1)},
			wantErr: true,
		},
		{
			name:    "inverted interval",
			cfg:     &SimConfig{ReactionTime: ptrInterval(interval(3.6, 2.5))},
			wantErr: true,
		},
		{
			name:    "non-positive panic distance",
			cfg:     &SimConfig{PanicDistance: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "zero spawn min gap",
			cfg:     &SimConfig{SpawnMinGap: ptrFloat64(0)},
			wantErr: true,
		},
		{
			name:    "negative spawn min gap",
			cfg:     &SimConfig{SpawnMinGap: ptrFloat64(-5)},
			wantErr: true,
		},
		{
			name:    "positive hard minimum deceleration",
			cfg:     &SimConfig{HardMinDeceleration: ptrFloat64(1)},
			wantErr: true,
		},
		{
			name:    "lane change factor above one",
			cfg:     &SimConfig{LaneChangeAccelFactor: ptrFloat64(1.5)},
			wantErr: true,
		},
		{
			name:    "sentinel inside view distance",
			cfg:     &SimConfig{SentinelDistance: ptrFloat64(400)},
			wantErr: true,
		},
		{
			name:    "decision probabilities above one",
			cfg:     &SimConfig{DecisionRedraw: ptrFloat64(0.6)},
			wantErr: true,
		},
		{
			name:    "negative decision probability",
			cfg:     &SimConfig{DecisionRight: ptrFloat64(-0.1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadDefaultConfigFile(t *testing.T) {
	cfg, err := LoadSimConfig("../../" + DefaultConfigPath)
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	// The checked-in file must spell out exactly the built-in defaults.
	if diff := cmp.Diff(DefaultSimConfig(), cfg, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("defaults file differs from DefaultSimConfig (-want +got):\n%s", diff)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if cfg.GetVehiclesPerLane() != 100 {
		t.Errorf("Expected 100 vehicles per lane, got %d", cfg.GetVehiclesPerLane())
	}
}

func TestLoadSimConfigRejectsNonJSON(t *testing.T) {
	_, err := LoadSimConfig("/some/path/config.yaml")
	if err == nil {
		t.Error("Expected error for non-.json extension, got nil")
	}
}

func TestLoadSimConfigRejectsLargeFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "large.json")

	// Create a file larger than 1MB
	largeData := make([]byte, 2*1024*1024)
	if err := os.WriteFile(configPath, largeData, 0644); err != nil {
		t.Fatalf("Failed to write large file: %v", err)
	}

	_, err := LoadSimConfig(configPath)
	if err == nil {
		t.Error("Expected error for file size > 1MB, got nil")
	}
}

func TestGetterDefaults(t *testing.T) {
	cfg := EmptySimConfig()

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"panic_distance", cfg.GetPanicDistance(), 12},
		{"hard_min_deceleration", cfg.GetHardMinDeceleration(), -19},
		{"lane_change_duration", cfg.GetLaneChangeDuration(), 1},
		{"lane_change_accel_factor", cfg.GetLaneChangeAccelFactor(), 0.5},
		{"front_gap_factor", cfg.GetFrontGapFactor(), 2},
		{"back_gap_factor", cfg.GetBackGapFactor(), 2.5},
		{"closing_margin", cfg.GetClosingMargin(), 2},
		{"max_view_distance", cfg.GetMaxViewDistance(), 500},
		{"sentinel_distance", cfg.GetSentinelDistance(), 1e6},
		{"teleport_interval", cfg.GetTeleportInterval(), 2},
		{"teleport_distance", cfg.GetTeleportDistance(), 1500},
		{"divergence_bound", cfg.GetDivergenceBound(), 1e8},
		{"left_lane_speed_kmh", cfg.GetLeftLaneSpeedKMH(), 130},
		{"decision_right", cfg.GetDecisionRight(), 0.25},
		{"decision_either", cfg.GetDecisionEither(), 0.25},
		{"decision_redraw", cfg.GetDecisionRedraw(), 0.30},
		{"spawn_blend_distance", cfg.GetSpawnBlendDistance(), 50},
		{"stabilise_target_speed_kmh", cfg.GetStabiliseTargetSpeedKMH(), 200},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s default = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if got := cfg.GetStabiliseSteps(); got != 3000 {
		t.Errorf("stabilise_steps default = %d, want 3000", got)
	}
	if got := cfg.GetRedrawSpeedKMH(); got != interval(100, 250) {
		t.Errorf("redraw_speed_kmh default = %v, want [100, 250]", got)
	}
}
