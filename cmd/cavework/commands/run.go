package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/cavework/cavework/cmd/cavework/internal/format"
	"github.com/cavework/cavework/pkg/appctx"
	"github.com/cavework/cavework/pkg/engine"
	"github.com/cavework/cavework/pkg/logging"
	"github.com/cavework/cavework/pkg/scenario"
	"github.com/cavework/cavework/pkg/watch"
)

func newRunCommand() *cobra.Command {
	var (
		ticks     int
		miners    int
		tickDelay time.Duration
		untilIdle bool
		watchFile bool
	)

	cmd := &cobra.Command{
		Use:     "run <scenario.yaml>",
		Short:   "Simulate a scenario and print a summary",
		GroupID: "sim",
		Args:    cobra.ExactArgs(1),
		Example: `  cavework run caves/two_rooms.yaml
  cavework run caves/two_rooms.yaml --ticks 50 -o json
  cavework run caves/two_rooms.yaml --watch -v`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			path := args[0]
			ctx := appctx.WithScenarioPath(cmd.Context(), path)
			f := format.FromCommand(cmd)

			opts := engine.RunOptions{Ticks: ticks, Miners: miners}
			if cmd.Flags().Changed("tick-delay") {
				opts.TickDelay = &tickDelay
			}
			if cmd.Flags().Changed("until-idle") {
				opts.UntilIdle = &untilIdle
			}
			verbosity, _ := cmd.Flags().GetCount("verbosity")

			runOnce := func(ctx context.Context) error {
				sc, err := scenario.Load(appctx.ScenarioPath(ctx))
				if err != nil {
					return engine.WrapScenarioLoad(err)
				}
				run, err := app.NewRun(ctx, sc, opts)
				if err != nil {
					return err
				}
				if verbosity > 0 && !f.IsJSON() {
					format.NewDiagnostic(cmd.ErrOrStderr(), verbosity, colorEnabled(cmd)).Attach(run.Bus)
				}
				report, err := run.Execute(ctx)
				if err != nil {
					return err
				}
				return f.PrintReport(sc.Name, report)
			}

			if !watchFile {
				return runOnce(ctx)
			}
			return watchScenario(ctx, f, runOnce)
		},
	}

	cmd.Flags().IntVar(&ticks, "ticks", 0, "Maximum number of steps (overrides the scenario)")
	cmd.Flags().IntVar(&miners, "miners", 0, "Spawn at most this many miners")
	cmd.Flags().DurationVar(&tickDelay, "tick-delay", 0, "Pause between steps")
	cmd.Flags().BoolVar(&untilIdle, "until-idle", true, "Stop once no miner can do anything")
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "Re-run whenever the scenario file changes")

	return cmd
}

// watchScenario runs once, then again after every change to the scenario
// file until ctx is canceled. Failed runs are reported and watching goes on.
func watchScenario(ctx context.Context, f format.Formatter, runOnce func(context.Context) error) error {
	path := appctx.ScenarioPath(ctx)
	if err := runOnce(ctx); err != nil {
		_ = f.PrintError(err)
	}

	changes := make(chan struct{}, 1)
	w, err := watch.New(path, func(context.Context) {
		select {
		case changes <- struct{}{}:
		default:
		}
	}, watch.WithLogger(logging.Component("watch")))
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() { errc <- w.Start(ctx) }()
	_ = f.PrintSummary("Watching " + path + " for changes (Ctrl-C to stop)")

	for {
		select {
		case <-ctx.Done():
			<-errc
			return nil
		case err := <-errc:
			if ctx.Err() != nil {
				return nil
			}
			return err
		case <-changes:
			if err := runOnce(ctx); err != nil {
				_ = f.PrintError(err)
			}
		}
	}
}
