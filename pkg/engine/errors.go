package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/cavework/cavework/pkg/board"
	"github.com/cavework/cavework/pkg/config"
	"github.com/cavework/cavework/pkg/ident"
	"github.com/cavework/cavework/pkg/job"
	"github.com/cavework/cavework/pkg/scenario"
)

const (
	errorCodeScenarioNotFound = "SCENARIO_NOT_FOUND"
	errorCodeScenarioInvalid  = "SCENARIO_INVALID"
	errorCodeConfigInvalid    = "CONFIG_INVALID"
	errorCodePriorities       = "PRIORITIES_INVALID"
	errorCodeSimulationFailed = "SIMULATION_FAILED"
	errorCodeCanceled         = "CANCELED"
	errorCodeInternal         = "INTERNAL"
)

var (
	// ErrScenarioLoad indicates the scenario file could not be read.
	ErrScenarioLoad = errors.New("scenario load failed")

	// ErrSimulationFailed indicates a run stopped on an error.
	ErrSimulationFailed = errors.New("simulation failed")
)

type errorCoder interface {
	error
	Code() string
}

type withCodeError struct {
	error
	code string
}

func (e *withCodeError) Code() string {
	return e.code
}

func (e *withCodeError) Unwrap() error {
	return e.error
}

// WithErrorCode annotates err with an error code.
func WithErrorCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &withCodeError{error: err, code: code}
}

// WrapScenarioLoad annotates a failure to load a scenario file.
func WrapScenarioLoad(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, scenario.ErrInvalidScenario) {
		return WithErrorCode(err, errorCodeScenarioInvalid)
	}
	code := errorCodeInternal
	if errors.Is(err, fs.ErrNotExist) {
		code = errorCodeScenarioNotFound
	}
	return WithErrorCode(fmt.Errorf("%w: %w", ErrScenarioLoad, err), code)
}

// WrapSimulation annotates an error returned by a simulation run.
func WrapSimulation(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return WithErrorCode(err, errorCodeCanceled)
	}
	return WithErrorCode(fmt.Errorf("%w: %w", ErrSimulationFailed, err), errorCodeSimulationFailed)
}

// ErrorCode resolves an error to its code.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var coded errorCoder
	if errors.As(err, &coded) {
		if code := coded.Code(); code != "" {
			return code
		}
	}

	switch {
	case errors.Is(err, fs.ErrNotExist):
		return errorCodeScenarioNotFound
	case errors.Is(err, scenario.ErrInvalidScenario):
		return errorCodeScenarioInvalid
	case errors.Is(err, config.ErrInvalidConfig):
		return errorCodeConfigInvalid
	case errors.Is(err, board.ErrInvalidPriorities),
		errors.Is(err, job.ErrUnknownCategory),
		errors.Is(err, ident.ErrInvalidIdentifier):
		return errorCodePriorities
	case errors.Is(err, context.Canceled):
		return errorCodeCanceled
	case errors.Is(err, ErrSimulationFailed),
		errors.Is(err, board.ErrCostEstimation):
		return errorCodeSimulationFailed
	default:
		return errorCodeInternal
	}
}

// ExitCode maps errors to CLI exit codes.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	switch ErrorCode(err) {
	case errorCodeScenarioInvalid, errorCodeConfigInvalid, errorCodePriorities:
		return 2
	case errorCodeScenarioNotFound:
		return 4
	case errorCodeCanceled:
		return 130
	default:
		return 1
	}
}

// Suggestions provides human readable guidance for CLI usage.
func Suggestions(err error) []string {
	if err == nil {
		return nil
	}

	switch ErrorCode(err) {
	case errorCodeScenarioNotFound:
		return []string{
			"Verify the scenario file path exists",
		}
	case errorCodeScenarioInvalid:
		return []string{
			"Run cavework validate on the scenario file",
			"Map rows must have equal width and hold at least one 'M' and one 'S'",
		}
	case errorCodeConfigInvalid:
		return []string{
			"Check the config file and CAVEWORK_* environment variables",
		}
	case errorCodePriorities:
		return []string{
			"Run cavework categories to list the registered categories",
			"Priorities must name every category exactly once",
		}
	case errorCodeSimulationFailed:
		return []string{
			"Re-run with -vv to see per-tick debug logs",
		}
	default:
		return nil
	}
}
