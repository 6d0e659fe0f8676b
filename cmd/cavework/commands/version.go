package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cavework/cavework/cmd/cavework/internal/format"
	"github.com/cavework/cavework/pkg/version"
)

func newVersionCommand(executable string) *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:     "version",
		Short:   fmt.Sprintf("Print the %s version", executable),
		GroupID: "core",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)
			switch {
			case f.IsJSON():
				return f.PrintJSON(version.Get())
			case short:
				_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Version)
				return err
			default:
				v := version.Get()
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s %s\n", version.Info(), v.GoVersion, v.Platform)
				return err
			}
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "Print only the version number")
	return cmd
}
