package main

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	persistlog "antfarm.ai/internal/persistence/log"
	"antfarm.ai/internal/sim/tuning"
	"antfarm.ai/internal/sim/world"
)

func main() {
	var (
		configDir  = flag.String("configs", "./configs", "config directory")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		seed       = flag.Int64("seed", 0, "world seed (overrides tuning.yaml when non-zero)")
		dataDir    = flag.String("data", "", "write the tick event log under this directory (optional)")
		scale      = flag.Int("cell_size", 0, "pixels per cell (overrides tuning.yaml when non-zero)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[viewer] ", log.LstdFlags|log.Lmicroseconds)

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		tune = tuning.Defaults()
	}
	if *seed != 0 {
		tune.Seed = *seed
	}
	if tune.Seed == 0 {
		tune.Seed = time.Now().UnixNano()
	}
	if *scale > 0 {
		tune.CellSize = *scale
	}

	cfg, err := world.ConfigFromTuning(tune)
	if err != nil {
		logger.Fatalf("tuning: %v", err)
	}
	w, err := world.New(cfg)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}
	logger.Printf("world %dx%d colonies=%d seed=%d", cfg.Width, cfg.Height, len(w.Colonies()), tune.Seed)

	if *dataDir != "" {
		tl := persistlog.NewTickLogger(*dataDir)
		defer tl.Close()
		w.SetTickLogger(tl)
	}

	g := newGame(w, cfg.CellSize)
	ebiten.SetWindowSize(cfg.Width*cfg.CellSize, cfg.Height*cfg.CellSize)
	ebiten.SetWindowTitle("Ant Farm")
	ebiten.SetTPS(cfg.TickRateHz)

	if err := ebiten.RunGame(g); err != nil && err != ebiten.Termination {
		logger.Fatal(err)
	}
	logger.Printf("stopped at tick %d", w.CurrentTick())
}
