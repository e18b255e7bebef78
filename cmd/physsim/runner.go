package main

import (
	"context"
	"os"
	"time"

	"github.com/opd-ai/go-physics2d/pkg/health"
	"github.com/opd-ai/go-physics2d/pkg/logging"
	"github.com/opd-ai/go-physics2d/pkg/physics"
	"github.com/opd-ai/go-physics2d/pkg/trace"
)

// runner drives the world from the main goroutine. Scene reloads are only
// applied between ticks.
type runner struct {
	world    *physics.World
	recorder *trace.Recorder
	monitor  *health.Monitor
	logger   *logging.Logger
}

// afterTick records the completed tick
func (r *runner) afterTick(ctx context.Context) {
	r.monitor.RecordTick(r.world.Tick())
	if err := r.recorder.Capture(r.world); err != nil {
		r.logger.Error(ctx, "Failed to record trace", err, "tick", r.world.Tick())
	}
}

// runFixed runs n fixed ticks as fast as possible
func (r *runner) runFixed(ctx context.Context, n int, reloads <-chan string, reload func(), stop <-chan os.Signal) {
	dt := r.world.Settings().TimeStep
	for i := 0; i < n; i++ {
		select {
		case <-stop:
			r.logger.Info(ctx, "Interrupted", "tick", r.world.Tick())
			return
		case <-reloads:
			reload()
			dt = r.world.Settings().TimeStep
		default:
		}
		r.world.Step(dt)
		r.afterTick(ctx)
	}
	r.logger.Info(ctx, "Finished fixed run", "ticks", n)
}

// runRealTime advances the world by wall-clock time until stopped
func (r *runner) runRealTime(ctx context.Context, reloads <-chan string, reload func(), stop <-chan os.Signal) {
	ticker := time.NewTicker(time.Duration(r.world.Settings().TimeStep * float64(time.Second)))
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			r.logger.Info(ctx, "Shutting down simulation", "tick", r.world.Tick())
			return
		case <-reloads:
			reload()
			ticker.Reset(time.Duration(r.world.Settings().TimeStep * float64(time.Second)))
			last = time.Now()
		case now := <-ticker.C:
			before := r.world.Tick()
			r.world.Advance(now.Sub(last).Seconds())
			last = now
			if r.world.Tick() != before {
				r.afterTick(ctx)
			}
		}
	}
}
