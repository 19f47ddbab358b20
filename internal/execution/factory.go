package execution

import (
	"fmt"
	"log/slog"

	"github.com/kvistrand/microsim/internal/engine"
)

// Mode selects which Execution backend a run wires up.
type Mode string

const (
	// ModeSim submits directly into an in-process engine.Simulator.
	ModeSim Mode = "SIM"
	// ModeDryRun only logs order intents; nothing is ever matched.
	ModeDryRun Mode = "DRY_RUN"
)

// ExecutionFactory builds the Execution backend for a run.
type ExecutionFactory struct {
	mode Mode
	sim  *engine.Simulator
}

// NewExecutionFactory creates a new factory. sim may be nil when mode
// is ModeDryRun.
func NewExecutionFactory(mode Mode, sim *engine.Simulator) *ExecutionFactory {
	return &ExecutionFactory{mode: mode, sim: sim}
}

// CreateExecution returns the Execution implementation for the configured mode.
func (f *ExecutionFactory) CreateExecution() (Execution, error) {
	slog.Info("initializing execution backend", "mode", f.mode)

	switch f.mode {
	case ModeSim:
		if f.sim == nil {
			return nil, fmt.Errorf("execution: ModeSim requires a non-nil simulator")
		}
		return NewSimExecution(f.sim), nil
	case ModeDryRun:
		return NewMockExecution(), nil
	default:
		return nil, fmt.Errorf("unknown execution mode: %s", f.mode)
	}
}
