package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cavework/cavework/pkg/board"
	"github.com/cavework/cavework/pkg/config"
	"github.com/cavework/cavework/pkg/scenario"
)

func TestWithErrorCode(t *testing.T) {
	assert.Nil(t, WithErrorCode(nil, "X"))

	base := errors.New("base")
	wrapped := WithErrorCode(base, "CODE123")
	assert.Equal(t, "CODE123", ErrorCode(wrapped))
	assert.ErrorIs(t, wrapped, base)
	assert.Equal(t, "base", wrapped.Error())
}

func TestWrapScenarioLoad(t *testing.T) {
	assert.Nil(t, WrapScenarioLoad(nil))

	missing := WrapScenarioLoad(fmt.Errorf("read scenario: %w", fs.ErrNotExist))
	require.ErrorIs(t, missing, ErrScenarioLoad)
	assert.Equal(t, errorCodeScenarioNotFound, ErrorCode(missing))
	assert.Equal(t, 4, ExitCode(missing))

	invalid := WrapScenarioLoad(&scenario.ValidationError{Field: "map", Reason: "empty"})
	require.ErrorIs(t, invalid, scenario.ErrInvalidScenario)
	assert.NotErrorIs(t, invalid, ErrScenarioLoad)
	assert.Equal(t, errorCodeScenarioInvalid, ErrorCode(invalid))
	assert.Equal(t, 2, ExitCode(invalid))
}

func TestWrapSimulation(t *testing.T) {
	assert.Nil(t, WrapSimulation(nil))

	failed := WrapSimulation(fmt.Errorf("%w: boom", board.ErrCostEstimation))
	require.ErrorIs(t, failed, ErrSimulationFailed)
	require.ErrorIs(t, failed, board.ErrCostEstimation)
	assert.Equal(t, errorCodeSimulationFailed, ErrorCode(failed))
	assert.Equal(t, 1, ExitCode(failed))

	canceled := WrapSimulation(context.Canceled)
	assert.Equal(t, errorCodeCanceled, ErrorCode(canceled))
	assert.Equal(t, 130, ExitCode(canceled))
}

func TestErrorCode_FromSentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		exit int
	}{
		{"nil", nil, "", 0},
		{"config", fmt.Errorf("%w: log.level", config.ErrInvalidConfig), errorCodeConfigInvalid, 2},
		{"priorities", fmt.Errorf("%w: x", board.ErrInvalidPriorities), errorCodePriorities, 2},
		{"scenario", fmt.Errorf("%w: x", scenario.ErrInvalidScenario), errorCodeScenarioInvalid, 2},
		{"cost", fmt.Errorf("%w: x", board.ErrCostEstimation), errorCodeSimulationFailed, 1},
		{"unknown", errors.New("mystery"), errorCodeInternal, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, ErrorCode(tt.err))
			assert.Equal(t, tt.exit, ExitCode(tt.err))
		})
	}
}

func TestSuggestions(t *testing.T) {
	assert.Nil(t, Suggestions(nil))
	assert.Nil(t, Suggestions(errors.New("mystery")))
	assert.NotEmpty(t, Suggestions(WrapScenarioLoad(fs.ErrNotExist)))
	assert.NotEmpty(t, Suggestions(fmt.Errorf("%w: x", board.ErrInvalidPriorities)))
	assert.Contains(t, Suggestions(fmt.Errorf("%w: x", scenario.ErrInvalidScenario))[0], "cavework validate")
}
