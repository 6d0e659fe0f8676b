// pkg/engine/factory.go
package engine

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/cavework/cavework/pkg/config"
	"github.com/cavework/cavework/pkg/event"
	"github.com/cavework/cavework/pkg/hook"
	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/jobs"
	"github.com/cavework/cavework/pkg/logging"
	"github.com/cavework/cavework/pkg/version"
)

// AppManagerFactory is responsible for constructing an AppManager instance with all required components.
type AppManagerFactory interface {
	CreateWithConfig(flags *pflag.FlagSet, configFile string) (*AppManager, error)
}

// DefaultAppManagerFactory is a factory type responsible for creating instances of the default application manager.
type DefaultAppManagerFactory struct{}

// Create loads configuration from configFile, the environment and flags,
// configures global logging and registers the built-in job categories.
//
// The log level comes from -v when given, otherwise from log.level.
func (f *DefaultAppManagerFactory) Create(flags *pflag.FlagSet, configFile string) (*AppManager, error) {
	configManager := config.NewManager()
	if err := configManager.Load(flags, configFile); err != nil {
		return nil, WithErrorCode(err, errorCodeConfigInvalid)
	}
	cfg := configManager.Get()

	if err := logging.ConfigureGlobalLogging(cfg.Log.Level, cfg.Log.Format); err != nil {
		return nil, WithErrorCode(fmt.Errorf("%w: %w", config.ErrInvalidConfig, err), errorCodeConfigInvalid)
	}
	if flags != nil && flags.Changed("verbosity") {
		logging.ConfigureGlobal(f.GetRuntimeLogLevel(flags))
	}

	registry := job.NewRegistry()
	if err := jobs.RegisterDefaults(registry); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	log.Debug().
		Str("component", "engine").
		Str("config_file", configFile).
		Strs("priorities", cfg.Board.Priorities).
		Msg("AppManager created")

	return &AppManager{
		ctx:           ctx,
		cancel:        cancel,
		ConfigManager: configManager,
		EventBus:      event.New(),
		HookManager:   hook.NewManager(),
		Registry:      registry,
		Version:       version.Get(),
	}, nil
}

// CreateWithConfig creates a new AppManager instance using the provided pflag.FlagSet and configuration file.
func (f *DefaultAppManagerFactory) CreateWithConfig(flags *pflag.FlagSet, configFile string) (*AppManager, error) {
	return f.Create(flags, configFile)
}

// CreateWithNoConfig creates a new AppManager instance from defaults and the environment only.
func (f *DefaultAppManagerFactory) CreateWithNoConfig() (*AppManager, error) {
	return f.Create(nil, "")
}

// GetRuntimeLogLevel maps the -v count to a log level: warn by default,
// then info, debug and trace.
func (f *DefaultAppManagerFactory) GetRuntimeLogLevel(flags *pflag.FlagSet) zerolog.Level {
	logLevel := zerolog.DebugLevel
	if flags != nil {
		verbosityLevel, err := flags.GetCount("verbosity")
		if err == nil {
			switch verbosityLevel {
			case 1:
				logLevel = zerolog.InfoLevel
			case 2:
				logLevel = zerolog.DebugLevel
			case 3:
				logLevel = zerolog.TraceLevel
			default:
				logLevel = zerolog.WarnLevel
			}
		}
	}
	return logLevel
}
