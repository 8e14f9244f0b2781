package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sandbox-radar/radar-sim/sim"
	"github.com/sandbox-radar/radar-sim/sim/demo"
)

var (
	// CLI flags for the engine config; explicit flags override --config
	configPath string        // YAML engine config
	interval   time.Duration // Wall time between simulation steps
	frameRate  float64       // Render target in Hz
	nx         int           // Grid cells along x
	ny         int           // Grid cells along y
	nz         int           // Grid cells along z
	nvars      int           // Scalar fields per cell
	pairing    string        // Agent pairing across generations
	maxAgents  int           // Agents kept per snapshot

	// CLI flags for the bundled demo model
	agents        int           // Number of orbiting agents
	seed          int64         // Seed for the initial field and agent placement
	failEvery     int           // Make every nth step fail (0 = never)
	moistureEvery time.Duration // Period of random moisture injections (0 = off)

	// CLI flags for the run itself
	logLevel string        // Log verbosity level
	duration time.Duration // Run length (0 = until interrupted)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "radar-sim",
	Short: "Temporal decoupling engine: slow simulation, smooth interpolated rendering",
}

// runCmd runs the demo model through an Engine and logs what the render side sees
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the demo simulation with interpolated rendering",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg := sim.DefaultConfig()
		if configPath != "" {
			cfg, err = sim.LoadConfig(configPath)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		applyFlagOverrides(&cfg, cmd.Flags().Changed)
		if err := cfg.Validate(); err != nil {
			logrus.Fatalf("Invalid engine config: %v", err)
		}

		model := demo.NewModel(cfg.Shape, agents, seed)
		model.SetFailEvery(failEvery)

		engine, err := sim.NewEngine(model, newStatusSink(cfg.Shape, time.Second), cfg, nil)
		if err != nil {
			logrus.Fatalf("Failed to build engine: %v", err)
		}

		logrus.WithField("instance", engine.ID).Infof(
			"Starting engine: grid %v, interval %v, %.0f FPS, %d agents, pairing %s, seed %d",
			cfg.Shape, cfg.Interval, cfg.FrameRate, agents, cfg.Pairing, seed)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, duration)
			defer cancel()
		}

		startTime := time.Now()
		engine.Start()
		if moistureEvery > 0 {
			go injectMoisture(ctx, model, moistureEvery, seed)
		}
		<-ctx.Done()
		engine.Stop()

		d := engine.SimDriver()
		logrus.WithFields(logrus.Fields{
			"steps":    d.Steps(),
			"failures": d.Failures(),
			"sim_time": d.SimTime(),
			"frames":   engine.RenderDriver().Frames(),
			"wall":     time.Since(startTime).Round(time.Millisecond),
		}).Info("Run complete.")
	},
}

// applyFlagOverrides copies explicitly set flags onto cfg so that a value from
// --config is only replaced when the user asked for it.
func applyFlagOverrides(cfg *sim.Config, changed func(name string) bool) {
	if changed("interval") {
		cfg.Interval = interval
	}
	if changed("fps") {
		cfg.FrameRate = frameRate
	}
	if changed("nx") {
		cfg.Shape.NX = nx
	}
	if changed("ny") {
		cfg.Shape.NY = ny
	}
	if changed("nz") {
		cfg.Shape.NZ = nz
	}
	if changed("nvars") {
		cfg.Shape.NVars = nvars
	}
	if changed("pairing") {
		cfg.Pairing = pairing
	}
	if changed("max-agents") {
		cfg.MaxAgents = maxAgents
	}
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	defaults := sim.DefaultConfig()

	runCmd.Flags().StringVar(&configPath, "config", "", "YAML engine config (flags override its values)")
	runCmd.Flags().DurationVar(&interval, "interval", defaults.Interval, "Wall time between simulation steps")
	runCmd.Flags().Float64Var(&frameRate, "fps", defaults.FrameRate, "Render target frame rate in Hz")
	runCmd.Flags().IntVar(&nx, "nx", defaults.Shape.NX, "Grid cells along x")
	runCmd.Flags().IntVar(&ny, "ny", defaults.Shape.NY, "Grid cells along y")
	runCmd.Flags().IntVar(&nz, "nz", defaults.Shape.NZ, "Grid cells along z")
	runCmd.Flags().IntVar(&nvars, "nvars", defaults.Shape.NVars, "Scalar fields per cell")
	runCmd.Flags().StringVar(&pairing, "pairing", defaults.Pairing, "Agent pairing across generations (index, id)")
	runCmd.Flags().IntVar(&maxAgents, "max-agents", defaults.MaxAgents, "Agents kept per snapshot (0 = no cap)")

	// Demo model
	runCmd.Flags().IntVar(&agents, "agents", 16, "Number of orbiting agents in the demo model")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for the demo model's initial state")
	runCmd.Flags().IntVar(&failEvery, "fail-every", 0, "Make every nth demo step fail (0 = never)")
	runCmd.Flags().DurationVar(&moistureEvery, "moisture-every", 0, "Inject moisture at a random spot this often (0 = off)")

	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().DurationVar(&duration, "duration", 0, "Stop after this long (0 = run until interrupted)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(rampCmd)
}
