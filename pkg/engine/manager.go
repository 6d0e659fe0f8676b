// AppManager manages the application lifecycle, providing access to the application's context and shared services.
// It is constructed by the Factory and holds a cancellable context for controlling application execution.
// pkg/engine/manager.go
package engine

import (
	"context"
	"fmt"

	"github.com/cavework/cavework/pkg/config"
	"github.com/cavework/cavework/pkg/event"
	"github.com/cavework/cavework/pkg/hook"
	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/version"
)

type contextKey string

// AppManagerKey is the context key under which the CLI stores the AppManager.
const AppManagerKey contextKey = "cavework.app.manager"

// Manager is the subset of AppManager used by commands.
type Manager interface {
	Context() context.Context
	Config() *config.Manager
	Shutdown()
}

// AppManager represents the application manager constructed by Factory.
type AppManager struct {
	// ctx is the context for managing request-scoped values, cancellation signals, and deadlines across API boundaries.
	ctx context.Context
	// cancel is the function to cancel the associated context, used to signal termination or cleanup.
	cancel context.CancelFunc

	ConfigManager *config.Manager // Configuration manager for loading and managing application settings.

	EventBus *event.Bus // Application-wide bus; runs forward their step and completion events here.

	HookManager *hook.Manager // Hook manager for managing lifecycle hooks and custom event triggers.

	Registry *job.Registry // Job categories known to this process.

	// Version represents the version information of the binary.
	Version version.Struct
}

var _ Manager = (*AppManager)(nil)

// FromContext returns the AppManager stored under AppManagerKey.
func FromContext(ctx context.Context) (*AppManager, bool) {
	if ctx == nil {
		return nil, false
	}
	mgr, ok := ctx.Value(AppManagerKey).(*AppManager)
	return mgr, ok && mgr != nil
}

// Context returns the context associated with the AppManager instance.
func (a *AppManager) Context() context.Context {
	return a.ctx
}

// Config returns the configuration manager.
func (a *AppManager) Config() *config.Manager {
	return a.ConfigManager
}

// Priorities resolves the configured category order against the registry.
func (a *AppManager) Priorities() ([]*job.Category, error) {
	names := a.ConfigManager.Get().Board.Priorities
	order, err := a.Registry.Resolve(names)
	if err != nil {
		return nil, WithErrorCode(fmt.Errorf("board.priorities: %w", err), errorCodePriorities)
	}
	return order, nil
}

// Shutdown runs the shutdown hooks and then cancels the context.
func (a *AppManager) Shutdown() {
	a.HookManager.TriggerWait(a.ctx, hook.OnShutdown)
	a.cancel()
}
