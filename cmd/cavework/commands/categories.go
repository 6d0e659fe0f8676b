package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cavework/cavework/cmd/cavework/internal/format"
)

func newCategoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "categories",
		Short:   "List job categories in configured priority order",
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := appFrom(cmd)
			if err != nil {
				return err
			}
			order, err := app.Priorities()
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(order))
			for i, c := range order {
				rows = append(rows, []string{strconv.Itoa(i + 1), c.String()})
			}
			return format.FromCommand(cmd).PrintTable([]string{"Priority", "Category"}, rows)
		},
	}
}
