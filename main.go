package main

import (
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"vivarium/arena"
	"vivarium/config"
	"vivarium/neural"
	"vivarium/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	popPath := flag.String("population", "", "Load population from a previous run (empty = fresh spawn)")
	savePath := flag.String("save-population", "", "Write the final population to this path on exit")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(rngSeed))

	pop, err := buildPopulation(cfg, *popPath, rng)
	if err != nil {
		slog.Error("failed to build population", "error", err)
		os.Exit(1)
	}

	output, err := telemetry.NewOutputManager(*outputDir)
	if err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}
	defer output.Close()
	if err := output.WriteConfig(cfg); err != nil {
		slog.Warn("failed to write config snapshot", "error", err)
	}

	world := arena.NewWorld(cfg, pop, output, rng)

	slog.Info("starting simulation",
		"seed", rngSeed,
		"headless", *headless,
		"population", pop.Size(),
		"actors", world.ActorCount(),
		"max_ticks", *maxTicks,
	)

	if *headless {
		runHeadless(world, *maxTicks, *stepsPerUpdate)
	} else {
		runWindowed(cfg, world, *maxTicks)
	}

	if err := output.WriteChampions(world.Champions()); err != nil {
		slog.Warn("failed to write champions", "error", err)
	}
	if *savePath != "" {
		if err := world.Controller().SavePopulation(*savePath); err != nil {
			slog.Error("failed to save population", "error", err)
			os.Exit(1)
		}
		slog.Info("population saved", "path", *savePath)
	}
}

// buildPopulation loads a saved population or spawns a fresh one from a seed
// genome.
func buildPopulation(cfg *config.Config, path string, rng *rand.Rand) (*neural.Population, error) {
	opts := neural.DefaultOptions()

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return neural.LoadPopulation(f, opts, rng)
	}

	seed := neural.CreateSeedGenome(1, cfg.Population.Inputs, cfg.Population.Outputs, cfg.Population.ConnectionProb)
	return neural.SpawnFromSeed(seed, cfg.Population.Size, cfg.Population.WeightNoise, opts, rng)
}

func runHeadless(world *arena.World, maxTicks, stepsPerUpdate int) {
	if stepsPerUpdate < 1 {
		stepsPerUpdate = 1
	}
	for {
		for i := 0; i < stepsPerUpdate; i++ {
			world.Step()
		}
		if maxTicks > 0 && int(world.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", world.Tick())
			return
		}
	}
}

func runWindowed(cfg *config.Config, world *arena.World, maxTicks int) {
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Vivarium")
	defer rl.CloseWindow()
	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	viewer := arena.NewViewer(world)

	for !rl.WindowShouldClose() {
		viewer.Update()
		viewer.Draw()

		if maxTicks > 0 && int(world.Tick()) >= maxTicks {
			return
		}
	}
}
