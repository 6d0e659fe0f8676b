// Package appctx carries process-wide values on a context.Context.
package appctx

import (
	"context"

	"github.com/cavework/cavework/pkg/config"
)

type key int

const (
	configKey key = iota
	scenarioKey
)

// WithConfig stores the shared config manager on context.
func WithConfig(ctx context.Context, manager *config.Manager) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, configKey, manager)
}

// Config retrieves the shared config manager from context.
func Config(ctx context.Context) (*config.Manager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(configKey).(*config.Manager)
	return mgr, ok && mgr != nil
}

// WithScenarioPath records the scenario file a command is working on.
func WithScenarioPath(ctx context.Context, path string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scenarioKey, path)
}

// ScenarioPath returns the path stored by WithScenarioPath, or "".
func ScenarioPath(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	path, _ := ctx.Value(scenarioKey).(string)
	return path
}
