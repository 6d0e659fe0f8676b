package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cavework/cavework/pkg/config"
)

func TestWithConfig(t *testing.T) {
	manager := config.NewManager()

	t.Run("stores config manager in context", func(t *testing.T) {
		retrieved, ok := Config(WithConfig(context.Background(), manager))
		require.True(t, ok)
		assert.Same(t, manager, retrieved)
	})

	t.Run("handles nil context", func(t *testing.T) {
		//nolint:staticcheck
		retrieved, ok := Config(WithConfig(nil, manager))
		require.True(t, ok)
		assert.Same(t, manager, retrieved)
	})
}

func TestConfig_Missing(t *testing.T) {
	tests := []struct {
		name string
		ctx  context.Context
	}{
		{"nil context", nil},
		{"not in context", context.Background()},
		{"nil manager", context.WithValue(context.Background(), configKey, (*config.Manager)(nil))},
		{"wrong type", context.WithValue(context.Background(), configKey, "not a manager")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Config(tt.ctx)
			assert.False(t, ok)
		})
	}
}

func TestScenarioPath(t *testing.T) {
	assert.Empty(t, ScenarioPath(context.Background()))
	//nolint:staticcheck
	assert.Empty(t, ScenarioPath(nil))

	ctx := WithScenarioPath(context.Background(), "caves/two_rooms.yaml")
	assert.Equal(t, "caves/two_rooms.yaml", ScenarioPath(ctx))

	// Keys do not collide.
	ctx = WithConfig(ctx, config.NewManager())
	assert.Equal(t, "caves/two_rooms.yaml", ScenarioPath(ctx))
}
