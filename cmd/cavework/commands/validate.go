package commands

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cavework/cavework/cmd/cavework/internal/format"
	"github.com/cavework/cavework/pkg/engine"
	"github.com/cavework/cavework/pkg/scenario"
)

// validation is the JSON shape of a successful validate.
type validation struct {
	Valid        bool     `json:"valid"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Miners       int      `json:"miners"`
	ExposedWalls int      `json:"exposed_walls"`
	Priorities   []string `json:"priorities"`
	Ticks        int      `json:"ticks"`
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "validate <scenario.yaml>",
		Short:   "Check a scenario file without running it",
		GroupID: "sim",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			f := format.FromCommand(cmd)

			sc, err := scenario.Load(args[0])
			if err != nil {
				return engine.WrapScenarioLoad(err)
			}

			// Building the run resolves priorities against the registry and
			// checks spawn points, which the file alone cannot.
			nop := zerolog.Nop()
			run, err := app.NewRun(cmd.Context(), sc, engine.RunOptions{Logger: &nop})
			if err != nil {
				return err
			}

			w, h := sc.Size()
			result := validation{
				Valid:        true,
				Name:         sc.Name,
				Version:      sc.Version,
				Width:        w,
				Height:       h,
				Miners:       len(run.Sim.Miners()),
				ExposedWalls: len(run.Sim.Level().ExposedMineable()),
				Ticks:        run.Ticks,
			}
			for _, c := range run.Sim.Board().Priorities() {
				result.Priorities = append(result.Priorities, c.String())
			}

			if f.IsJSON() {
				return f.PrintJSON(result)
			}
			return f.PrintSummary(fmt.Sprintf("✓ %s is valid: %dx%d, %d miner(s), %d exposed wall(s)",
				sc.Name, w, h, result.Miners, result.ExposedWalls))
		},
	}
}
