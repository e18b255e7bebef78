// cmd/physsim/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/opd-ai/go-physics2d/pkg/config"
	"github.com/opd-ai/go-physics2d/pkg/event"
	"github.com/opd-ai/go-physics2d/pkg/health"
	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
	"github.com/opd-ai/go-physics2d/pkg/scene"
	"github.com/opd-ai/go-physics2d/pkg/trace"
)

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())

	configPath := flag.String("config", "scene.yaml", "Path to scene configuration file (.json, .yaml or .yml)")
	createDefault := flag.Bool("default", false, "Create default scene configuration file")
	ticks := flag.Int("ticks", 600, "Number of fixed ticks to run; 0 runs in real time until interrupted")
	tracePath := flag.String("trace", "", "Write body state as CSV to this file")
	traceEvery := flag.Int("trace-every", 1, "Record every Nth tick")
	watch := flag.Bool("watch", false, "Reload the scene when the configuration file changes")
	flag.Parse()

	// Create default configuration file if requested
	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	sceneConfig, err := loadSceneConfig(ctx, logger, *configPath)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}

	bus := event.NewEventBus()
	world, err := physics.NewWorld(sceneConfig.World.Settings(), bus, logger)
	if err != nil {
		logger.Error(ctx, "Failed to create world", err)
		os.Exit(1)
	}
	world.SetLogContext(ctx)
	current, err := scene.Load(world, sceneConfig)
	if err != nil {
		logger.Error(ctx, "Failed to load scene", err)
		os.Exit(1)
	}
	logger.Info(ctx, "Loaded scene",
		"scene", current.Name,
		"bodies", world.Len(),
		"pixels_per_meter", world.Settings().PixelsPerMeter,
	)

	logContacts(ctx, logger, bus, func() *scene.Scene { return current })

	// Setup health checks
	monitor := health.NewMonitor()
	monitor.Observe(bus)
	healthChecker := health.NewHealthChecker()
	healthChecker.AddCheck(health.NewTickHealthCheck(monitor, 5*time.Second))
	healthChecker.AddCheck(health.NewStabilityHealthCheck(monitor, 0))
	healthChecker.AddCheck(health.NewMemoryHealthCheck(500, func() int64 {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		return int64(m.Alloc / 1024 / 1024)
	}))

	healthPort := "8080"
	if envPort := os.Getenv("PHYS2D_HEALTH_PORT"); envPort != "" {
		if _, err := strconv.Atoi(envPort); err == nil {
			healthPort = envPort
		}
	}
	healthServer := &http.Server{
		Addr:         ":" + healthPort,
		Handler:      healthChecker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(ctx, "Starting health check server",
			"port", healthPort,
		)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()

	var recorder *trace.Recorder
	if *tracePath != "" {
		recorder, err = trace.NewFileRecorder(*tracePath, *traceEvery)
		if err != nil {
			logger.Error(ctx, "Failed to open trace", err, "trace_path", *tracePath)
			os.Exit(1)
		}
	}

	var reloads <-chan string
	if *watch {
		watcher, err := config.NewWatcher(*configPath)
		if err != nil {
			logger.Error(ctx, "Failed to watch configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		defer watcher.Close()
		reloads = watcher.Events
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	r := &runner{
		world:    world,
		recorder: recorder,
		monitor:  monitor,
		logger:   logger,
	}
	reload := func() {
		cfg, err := loadSceneConfig(ctx, logger, *configPath)
		if err != nil {
			logger.Error(ctx, "Keeping current scene after failed reload", err,
				"config_path", *configPath,
			)
			return
		}
		next, err := scene.Load(world, cfg)
		if err != nil {
			logger.Error(ctx, "Failed to reload scene", err)
			return
		}
		current = next
		logger.Info(ctx, "Reloaded scene",
			"scene", current.Name,
			"bodies", world.Len(),
		)
	}

	if *ticks > 0 {
		r.runFixed(ctx, *ticks, reloads, reload, sigChan)
	} else {
		r.runRealTime(ctx, reloads, reload, sigChan)
	}

	for _, name := range current.Names() {
		b, _ := current.Body(name)
		pos := b.Transform().Position
		logger.Info(ctx, "Final body state",
			"body", name,
			"x_px", pos.X,
			"y_px", pos.Y,
			"vx", b.Velocity().X,
			"vy", b.Velocity().Y,
		)
	}

	if err := recorder.Close(); err != nil {
		logger.Error(ctx, "Failed to close trace", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Health check server shutdown failed", err)
	}
}

// loadSceneConfig reads path, falling back to the default scene when the
// file does not exist, and applies environment overrides
func loadSceneConfig(ctx context.Context, logger *logging.Logger, path string) (*config.SceneConfig, error) {
	var sceneConfig *config.SceneConfig
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(ctx, "Configuration file not found, using default scene",
			"config_path", path,
		)
		sceneConfig = config.DefaultConfig()
	} else {
		sceneConfig, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyEnvironmentOverrides(sceneConfig); err != nil {
		return nil, logging.WrapError(err, "applying environment overrides")
	}
	return sceneConfig, nil
}

// logContacts logs contact transitions at debug level with body names
func logContacts(ctx context.Context, logger *logging.Logger, bus *event.Bus, current func() *scene.Scene) {
	handler := func(e event.Event) {
		c, ok := e.(*event.ContactEvent)
		if !ok {
			return
		}
		s := current()
		logger.Debug(ctx, "Contact",
			"event", string(c.GetType()),
			"tick", c.Tick,
			"body_a", s.NameOf(physics.EntityID(c.EntityA)),
			"body_b", s.NameOf(physics.EntityID(c.EntityB)),
			"penetration", c.Penetration,
		)
	}
	bus.Subscribe(event.ContactBegan, handler)
	bus.Subscribe(event.ContactEnded, handler)
}
