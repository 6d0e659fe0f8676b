// pkg/engine/run.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/cavework/cavework/pkg/event"
	"github.com/cavework/cavework/pkg/hook"
	"github.com/cavework/cavework/pkg/level"
	"github.com/cavework/cavework/pkg/logging"
	"github.com/cavework/cavework/pkg/scenario"
	"github.com/cavework/cavework/pkg/sim"
)

// RunOptions override a scenario for one run. Zero values and nil pointers
// leave the scenario's value, or the configured default, in place.
type RunOptions struct {
	Ticks     int
	Miners    int
	TickDelay *time.Duration
	UntilIdle *bool
	Logger    *zerolog.Logger
}

// Run is a simulation prepared from a scenario with the effective settings
// resolved.
type Run struct {
	Scenario  *scenario.Scenario
	Sim       *sim.Simulation
	Bus       *event.Bus
	Ticks     int
	UntilIdle bool

	app *AppManager
}

// NewRun builds a simulation for sc. Precedence, lowest first: configuration,
// scenario file, opts.
func (a *AppManager) NewRun(ctx context.Context, sc *scenario.Scenario, opts RunOptions) (*Run, error) {
	cfg := a.ConfigManager.Get()

	names := cfg.Board.Priorities
	if len(sc.Priorities) > 0 {
		names = sc.Priorities
	}
	order, err := a.Registry.Resolve(names)
	if err != nil {
		return nil, WithErrorCode(fmt.Errorf("priorities: %w", err), errorCodePriorities)
	}

	run := &Run{
		Scenario:  sc,
		Bus:       event.New(),
		Ticks:     cfg.Sim.Ticks,
		UntilIdle: cfg.Sim.UntilIdle,
		app:       a,
	}
	tickDelay := cfg.Sim.TickDelay
	costWorkers := cfg.Board.CostWorkers
	miners := cfg.Sim.Miners

	if sc.Ticks > 0 {
		run.Ticks = sc.Ticks
	}
	if sc.HasSetting("tick_delay") {
		tickDelay = sc.Settings.TickDelay
	}
	if sc.HasSetting("cost_workers") {
		costWorkers = sc.Settings.CostWorkers
	}
	if sc.HasSetting("until_idle") {
		run.UntilIdle = sc.Settings.UntilIdle
	}

	if opts.Ticks > 0 {
		run.Ticks = opts.Ticks
	}
	if opts.Miners > 0 {
		miners = opts.Miners
	}
	if opts.TickDelay != nil {
		tickDelay = *opts.TickDelay
	}
	if opts.UntilIdle != nil {
		run.UntilIdle = *opts.UntilIdle
	}

	logger := logging.Component("sim")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	lvl, spawns, err := sc.Build(ctx, level.WithEventBus(run.Bus), level.WithLogger(logger))
	if err != nil {
		return nil, WithErrorCode(err, errorCodeScenarioInvalid)
	}
	if miners > 0 && miners < len(spawns) {
		spawns = spawns[:miners]
	}

	run.Bus.Subscribe(sim.EventStep, a.forward(sim.EventStep))
	run.Bus.Subscribe(sim.EventComplete, a.forward(sim.EventComplete))

	s, err := sim.New(lvl, run.Bus, a.Registry, spawns,
		sim.WithLogger(logger),
		sim.WithPriorities(order),
		sim.WithTickDelay(tickDelay),
		sim.WithCostWorkers(costWorkers),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	run.Sim = s
	return run, nil
}

func (a *AppManager) forward(name string) event.Handler {
	return func(ctx context.Context, data any) {
		a.EventBus.Publish(ctx, name, data)
	}
}

// Execute runs the simulation, triggering the run hooks around it.
func (r *Run) Execute(ctx context.Context) (sim.Report, error) {
	r.app.HookManager.TriggerWait(ctx, hook.OnRunStart)
	report, err := r.Sim.Run(ctx, r.Ticks, r.UntilIdle)
	r.app.HookManager.TriggerWait(ctx, hook.OnRunComplete)
	return report, WrapSimulation(err)
}
