package engine

import (
	"context"

	"github.com/cavework/cavework/pkg/config"
	"github.com/cavework/cavework/pkg/event"
	"github.com/cavework/cavework/pkg/hook"
	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/jobs"
	"github.com/cavework/cavework/pkg/version"
)

// NewTestAppManager creates a minimal AppManager for tests without loading
// config files, the environment or touching global logging.
func NewTestAppManager() *AppManager {
	ctx, cancel := context.WithCancel(context.Background())
	registry := job.NewRegistry()
	if err := jobs.RegisterDefaults(registry); err != nil {
		panic(err)
	}
	return &AppManager{
		ctx:           ctx,
		cancel:        cancel,
		ConfigManager: config.NewManager(),
		EventBus:      event.New(),
		HookManager:   hook.NewManager(),
		Registry:      registry,
		Version:       version.Get(),
	}
}
