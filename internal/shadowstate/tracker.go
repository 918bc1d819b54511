package shadowstate

import (
	"sync"

	"atxcontrol/internal/clock"
	"atxcontrol/pkg/atx"
)

// Tracker manages the ATX shadow state
type Tracker struct {
	clock clock.Clock

	mu    sync.RWMutex
	state ATXShadowState
}

// NewTracker creates an empty tracker
func NewTracker(clk clock.Clock) *Tracker {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	return &Tracker{
		clock: clk,
		state: ATXShadowState{
			Outputs:  Outputs{RecentActions: []ActionRecord{}},
			Metadata: StateMetadata{LastUpdated: clk.Now()},
		},
	}
}

// UpdateCurrentInputs stores the latest observed snapshot
func (t *Tracker) UpdateCurrentInputs(state atx.State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state.Inputs.Current = state
	t.state.Metadata.LastUpdated = t.clock.Now()
}

// RecordAction records an action's outcome and snapshots the current inputs
// as the inputs seen when it ran.
func (t *Tracker) RecordAction(action atx.Action, source string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	record := ActionRecord{
		Timestamp: now,
		Action:    action,
		Success:   err == nil,
		Source:    source,
	}
	if err != nil {
		record.Error = err.Error()
	}

	t.state.Inputs.AtLastAction = t.state.Inputs.Current
	t.state.Outputs.LastAction = &record

	recent := append(t.state.Outputs.RecentActions, record)
	if len(recent) > MaxRecentActions {
		recent = recent[len(recent)-MaxRecentActions:]
	}
	t.state.Outputs.RecentActions = recent
	t.state.Metadata.LastUpdated = now
}

// GetState returns the current shadow state (thread-safe copy)
func (t *Tracker) GetState() ATXShadowState {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stateCopy := t.state
	stateCopy.Outputs.RecentActions = append([]ActionRecord{}, t.state.Outputs.RecentActions...)
	if t.state.Outputs.LastAction != nil {
		last := *t.state.Outputs.LastAction
		stateCopy.Outputs.LastAction = &last
	}
	return stateCopy
}
