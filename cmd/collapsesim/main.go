// Command collapsesim runs the reference valley for a number of days with the
// collapse-and-rescue subsystem attached and a SQLite save file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/collapse-rescue/internal/agents"
	"github.com/talgya/collapse-rescue/internal/api"
	"github.com/talgya/collapse-rescue/internal/collapse"
	"github.com/talgya/collapse-rescue/internal/config"
	"github.com/talgya/collapse-rescue/internal/engine"
	"github.com/talgya/collapse-rescue/internal/entropy"
	"github.com/talgya/collapse-rescue/internal/i18n"
	"github.com/talgya/collapse-rescue/internal/persistence"
	"github.com/talgya/collapse-rescue/internal/rescue"
	"github.com/talgya/collapse-rescue/internal/world"
)

func main() {
	var (
		configPath  = flag.String("config", "collapse.yaml", "YAML config file (missing file uses defaults)")
		dbPath      = flag.String("db", "data/collapse.db", "SQLite save file")
		days        = flag.Int("days", 7, "days to simulate")
		agentCount  = flag.Int("agents", 8, "agents to spawn in a fresh world")
		seed        = flag.Int64("seed", 42, "world seed; 0 draws rescues from crypto/rand")
		profiles    = flag.String("profiles", "", "YAML rescue profile catalog (default: built-in)")
		locale      = flag.String("locale", "en", "message locale")
		catalogPath = flag.String("catalog", "", "YAML message catalog for -locale")
		quorum      = flag.Float64("quorum", 1.0, "fraction of agents in bed that ends the day early")
		step        = flag.Duration("step", 0, "real time per 10-minute clock step")
		port        = flag.Int("port", 0, "serve the HTTP API on this port (0 = off)")
		debug       = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	// ── Config ────────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("invalid configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}
	slog.Info("configuration loaded",
		"path", *configPath,
		"enabled", cfg.EnableMod,
		"intensity", cfg.Intensity,
		"max_gold_loss", cfg.MaxGoldLoss,
		"track_last_awake_zone", cfg.TrackLastAwakeZone,
	)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(*dbPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(*dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", *dbPath)

	// ── Messages and rescuers ─────────────────────────────────────────
	catalog, err := loadCatalog(*locale, *catalogPath)
	if err != nil {
		slog.Error("failed to load message catalog", "error", err)
		os.Exit(1)
	}
	registry, err := loadRegistry(*profiles)
	if err != nil {
		slog.Error("failed to load rescue profiles", "path", *profiles, "error", err)
		os.Exit(1)
	}
	slog.Info("rescue profiles ready", "count", registry.Len(), "fallback", registry.Fallback().ID)

	// ── Load or spawn agents ──────────────────────────────────────────
	worldMap := world.DefaultMap()
	slog.Info("world map ready", "locations", worldMap.LocationCount())
	var (
		allAgents []*agents.Agent
		startDay  int
	)
	if db.HasWorldState() {
		slog.Info("found saved world state, loading...")
		allAgents, err = db.LoadAgents(worldMap)
		if err != nil {
			slog.Error("failed to load agents", "error", err)
			os.Exit(1)
		}
		if startDay, err = db.LastDay(); err != nil {
			slog.Warn("saved day unreadable, starting at day 0", "error", err)
		}
		slog.Info("world state restored", "agents", len(allAgents), "day", startDay)
	} else {
		slog.Info("no saved state found, spawning agents...", "agents", *agentCount)
		allAgents = agents.NewSpawner(*seed).SpawnPopulation(*agentCount, world.FarmHouse)
	}

	// ── Simulation ────────────────────────────────────────────────────
	sim := engine.NewSimulation(worldMap, allAgents, engine.DefaultNPCs, *seed+int64(startDay))
	sim.BedQuorum = *quorum

	var rng entropy.Source = entropy.NewSeeded(*seed + int64(startDay))
	if *seed == 0 {
		rng = entropy.Crypto{}
	}

	logs := []collapse.IncidentLog{db}
	var hub *api.Hub
	if *port > 0 {
		hub = api.NewHub(4)
		logs = append(logs, hub)
	}

	sim.Collapse = collapse.New(collapse.Options{
		Config:     cfg,
		Blob:       db,
		Registry:   registry,
		Rand:       rng,
		Host:       sim,
		Translator: catalog,
		History:    collapse.Fanout(logs...),
	})
	if err := sim.Loaded(); err != nil {
		slog.Error("failed to load collapse data", "error", err)
		os.Exit(1)
	}

	eng := engine.NewEngine()
	eng.Day = startDay
	eng.Interval = *step
	sim.Attach(eng)

	// Auto-save every day.
	endDay := eng.OnDayEnding
	eng.OnDayEnding = func(day, timeOfDay int) {
		endDay(day, timeOfDay)
		var err error
		sim.View(func() { err = db.SaveWorldState(sim) })
		if err != nil {
			slog.Error("daily save failed", "error", err)
		}
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	if *port > 0 {
		adminKey := os.Getenv("COLLAPSE_ADMIN_KEY")
		if adminKey == "" {
			slog.Warn("COLLAPSE_ADMIN_KEY not set, admin POST endpoints will be disabled")
		}
		srv := &api.Server{
			Sim:      sim,
			Eng:      eng,
			DB:       db,
			Registry: registry,
			Hub:      hub,
			Port:     *port,
			AdminKey: adminKey,
			RelayKey: os.Getenv("COLLAPSE_RELAY_KEY"),
		}
		srv.Start()
	}

	// ── Start ─────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("received signal, shutting down", "signal", sig)
		eng.Stop()
	}()

	started := time.Now()
	eng.Run(*days)

	slog.Info("final save...")
	var saveErr error
	sim.View(func() { saveErr = db.SaveWorldState(sim) })
	if saveErr != nil {
		slog.Error("final save failed", "error", saveErr)
	}

	printSummary(sim, db, started)

	if *port > 0 && eng.Day-startDay >= *days {
		fmt.Printf("API: http://localhost:%d/api/v1/status (Ctrl+C to exit)\n", *port)
		signal.Stop(sigCh)
		wait := make(chan os.Signal, 1)
		signal.Notify(wait, syscall.SIGINT, syscall.SIGTERM)
		<-wait
	}
}

func loadCatalog(locale, path string) (*i18n.Catalog, error) {
	c, err := i18n.New(locale)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	if err := c.Load(f); err != nil {
		return nil, err
	}
	return c, nil
}

func loadRegistry(path string) (*rescue.Registry, error) {
	if path == "" {
		return rescue.DefaultRegistry(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	defer f.Close()
	return rescue.LoadRegistry(f)
}

func printSummary(sim *engine.Simulation, db *persistence.DB, started time.Time) {
	var money int64
	sim.View(func() {
		for _, a := range sim.Agents {
			money += int64(a.Money)
		}
	})

	fmt.Printf("\nSimulated through day %d in %s: %d agents, %s rescues, %sg held.\n",
		sim.Day(), time.Since(started).Round(time.Millisecond),
		len(sim.Agents), humanize.Comma(int64(sim.Stats.TotalRescues)), humanize.Comma(money))

	recent, err := db.RecentIncidents(5)
	if err != nil {
		slog.Error("incident query failed", "error", err)
		return
	}
	for _, in := range recent {
		fmt.Printf("  day %d  %-18s %-13s %-6s -%sg  %s\n",
			in.Day, in.ProfileID, in.Zone, in.Severity, humanize.Comma(int64(in.GoldLost)), in.Message)
	}
}
