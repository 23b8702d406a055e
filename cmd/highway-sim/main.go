// Command highway-sim runs the multi-lane highway simulation headlessly and
// optionally writes an HTML and a PNG report of the preferred vehicle's trace.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/highway/internal/config"
	"github.com/banshee-data/highway/internal/monitoring"
	"github.com/banshee-data/highway/internal/report"
	"github.com/banshee-data/highway/internal/runner"
	"github.com/banshee-data/highway/internal/sim"
	"github.com/banshee-data/highway/internal/units"
	"github.com/banshee-data/highway/internal/version"
)

var (
	configPath  = flag.String("config", "", "Path to a simulation config JSON file (defaults are used when empty)")
	seed        = flag.Uint64("seed", 0, "RNG seed; 0 uses the seed from the config")
	ticks       = flag.Int("ticks", 1800, "Number of fixed steps to run")
	dt          = flag.Float64("dt", 1.0/30, "Fixed step in seconds")
	realtime    = flag.Duration("realtime", 0, "Run paced against the wall clock for this long instead of fixed steps (e.g. 30s)")
	sampleEvery = flag.Int("sample-every", 1, "Ticks between recorded samples")
	htmlOut     = flag.String("html", "", "Write an HTML report to this path")
	pngOut      = flag.String("png", "", "Write a PNG speed plot to this path")
	speedUnits  = flag.String("units", units.KMPH, "Speed units for reports and logs (mps, mph, kmph, kph)")
	stabilise   = flag.Bool("stabilise", true, "Run the stabilisation pass before the measured run")
	spawnFront  = flag.Float64("spawn-front", 0, "Spawn a vehicle in front of the preferred vehicle at this speed (in -units); 0 disables")
	quiet       = flag.Bool("quiet", false, "Mute simulation diagnostics")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func validateFlags() error {
	if !units.IsValid(*speedUnits) {
		return fmt.Errorf("invalid -units %q, must be one of %v", *speedUnits, units.ValidUnits)
	}
	if *realtime == 0 && *ticks < 1 {
		return fmt.Errorf("-ticks must be at least 1, got %d", *ticks)
	}
	if *realtime < 0 {
		return fmt.Errorf("-realtime must not be negative, got %s", *realtime)
	}
	if !(*dt > 0) {
		return fmt.Errorf("-dt must be positive, got %g", *dt)
	}
	if *spawnFront < 0 {
		return fmt.Errorf("-spawn-front must not be negative, got %g", *spawnFront)
	}
	return nil
}

// loadConfig resolves the simulation config and seed from the flags.
func loadConfig() (sim.Config, uint64, error) {
	sc := config.DefaultSimConfig()
	if *configPath != "" {
		var err error
		sc, err = config.LoadSimConfig(*configPath)
		if err != nil {
			return sim.Config{}, 0, fmt.Errorf("failed to load config: %w", err)
		}
	}
	s := sc.GetSeed()
	if *seed != 0 {
		s = *seed
	}
	return sim.ConfigFromSimConfig(sc), s, nil
}

// toMPS converts a speed given in the -units flag to m/s.
func toMPS(v float64) float64 {
	return v / units.ConvertSpeed(1, *speedUnits)
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("highway-sim", version.String())
		return
	}
	if err := validateFlags(); err != nil {
		log.Fatal(err)
	}
	if *quiet {
		monitoring.SetLogger(nil)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("highway-sim: %v", err)
	}
}

func run(ctx context.Context) error {
	cfg, s, err := loadConfig()
	if err != nil {
		return err
	}

	h, err := sim.NewHighway(cfg, sim.NewSource(s))
	if err != nil {
		return err
	}
	log.Printf("highway: %d lanes, %d vehicles, seed %d", cfg.Lanes, h.VehicleCount(), s)

	if *stabilise {
		start := time.Now()
		if err := h.Stabilise(); err != nil {
			return fmt.Errorf("stabilise: %w", err)
		}
		log.Printf("stabilised %d steps in %s", cfg.StabiliseSteps, time.Since(start).Round(time.Millisecond))
	}

	if *spawnFront > 0 {
		if !h.AddVehicleInFrontOfPreferred(toMPS(*spawnFront)) {
			log.Printf("WARNING: no room to spawn a vehicle in front of the preferred vehicle")
		}
	}

	rec := report.NewRecorder(0)
	rcfg := runner.DefaultConfig()
	rcfg.DT = *dt
	rcfg.SampleEvery = *sampleEvery
	r, err := runner.New(h, rec, nil, rcfg)
	if err != nil {
		return err
	}
	log.Printf("run %s starting", r.ID())

	var res runner.Result
	if *realtime > 0 {
		res, err = r.RunRealtime(ctx, *realtime)
	} else {
		res, err = r.RunFixed(ctx, *ticks)
	}
	switch {
	case errors.Is(err, context.Canceled):
		log.Printf("run %s interrupted after %d ticks", r.ID(), res.Ticks)
	case err != nil:
		// Reports of a diverged run are still useful for diagnosis.
		log.Printf("WARNING: run %s stopped: %v", r.ID(), err)
	}

	st := res.Final
	log.Printf("run %s: %d ticks, %.1fs simulated in %s, mean speed %s (sd %.1f), %d lane changes, %d collisions, %d recycled",
		r.ID(), res.Ticks, res.SimTime, res.WallTime.Round(time.Millisecond),
		units.FormatSpeed(st.MeanSpeed, *speedUnits), units.ConvertSpeed(st.StdSpeed, *speedUnits),
		st.CompletedLaneChanges, st.Collisions, st.Recycled)

	if werr := writeReports(r.ID().String(), rec.Samples()); werr != nil {
		return werr
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func writeReports(runID string, samples []report.Sample) error {
	if len(samples) == 0 {
		return nil
	}
	if *htmlOut != "" {
		f, err := os.Create(*htmlOut)
		if err != nil {
			return fmt.Errorf("failed to create html report: %w", err)
		}
		if err := report.WriteHTML(f, "highway run "+runID, samples, *speedUnits); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to close html report: %w", err)
		}
		log.Printf("wrote %s", *htmlOut)
	}
	if *pngOut != "" {
		if err := report.WritePNG(*pngOut, samples, *speedUnits); err != nil {
			return err
		}
		log.Printf("wrote %s", *pngOut)
	}
	return nil
}
