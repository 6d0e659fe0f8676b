// Copyright 2025 Cavework Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cavework/cavework/cmd/cavework/internal/format"
	"github.com/cavework/cavework/pkg/appctx"
	"github.com/cavework/cavework/pkg/config"
	"github.com/cavework/cavework/pkg/engine"
	"github.com/cavework/cavework/pkg/paths"
)

const cliExecutable = "cavework"

var errNoAppManager = errors.New("AppManager not found in context; run via the cavework CLI")

// NewCommand constructs the top-level cavework CLI command, wiring global
// flags and the AppManager lifecycle.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		appManager     *engine.AppManager
		verbosityCount int
		output         string
		quiet          bool
		noColor        bool
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "cavework runs autonomous miners against a shared, prioritized job board",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := format.ValidateMode(output); err != nil {
				return err
			}
			if noColor {
				color.NoColor = true
			}

			if configFile == "" {
				configFile = paths.DefaultConfigFile()
			}
			factory := &engine.DefaultAppManagerFactory{}
			mgr, err := factory.Create(cmd.Flags(), configFile)
			if err != nil {
				return fmt.Errorf("initialize AppManager: %w", err)
			}
			appManager = mgr
			if mgr.Config().Get().Log.NoColor {
				color.NoColor = true
			}

			ctx := context.WithValue(cmd.Context(), engine.AppManagerKey, appManager)
			ctx = appctx.WithConfig(ctx, appManager.Config())

			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if appManager != nil {
				appManager.Shutdown()
			}
			return nil
		},
	}

	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path (default $XDG_CONFIG_HOME/cavework/config.yaml)")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase logging verbosity (repeatable)")
	cmd.PersistentFlags().StringVarP(&output, "output", "o", string(format.ModeTable), "Output format: table or json")
	cmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Print only essential output")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "sim", Title: "Simulation Commands"})
	cmd.AddGroup(&cobra.Group{ID: "core", Title: "Core Commands"})

	cmd.AddCommand(newRunCommand())
	cmd.AddCommand(newValidateCommand())
	cmd.AddCommand(newCategoriesCommand())
	cmd.AddCommand(newVersionCommand(cliExecutable))

	return cmd
}

// Execute runs the CLI with args and returns the process exit code. Errors
// are printed through the formatter of the command that failed.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	if cmd == nil {
		cmd = root
	}
	_ = format.FromCommand(cmd).PrintError(err)
	return engine.ExitCode(err)
}

// appFrom returns the AppManager set up by the root command.
func appFrom(cmd *cobra.Command) (*engine.AppManager, error) {
	app, ok := engine.FromContext(cmd.Context())
	if !ok {
		return nil, errNoAppManager
	}
	return app, nil
}

// colorEnabled reports whether diagnostics may use ANSI styling.
func colorEnabled(cmd *cobra.Command) bool {
	noColor, _ := cmd.Flags().GetBool("no-color")
	return !noColor && !color.NoColor
}
