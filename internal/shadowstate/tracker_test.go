package shadowstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"atxcontrol/internal/clock"
	"atxcontrol/pkg/atx"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker(clock.NewMockClock(start))

	state := tracker.GetState()
	assert.Nil(t, state.Outputs.LastAction)
	assert.Empty(t, state.Outputs.RecentActions)
	assert.Equal(t, start, state.Metadata.LastUpdated)

	data, err := json.Marshal(state)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"recentActions":[]`)
}

func TestTracker_UpdateCurrentInputs(t *testing.T) {
	clk := clock.NewMockClock(start)
	tracker := NewTracker(clk)

	clk.Advance(time.Minute)
	tracker.UpdateCurrentInputs(atx.State{Available: true, PowerStatus: atx.PowerOn})

	state := tracker.GetState()
	assert.Equal(t, atx.PowerOn, state.Inputs.Current.PowerStatus)
	assert.Equal(t, start.Add(time.Minute), state.Metadata.LastUpdated)
}

func TestTracker_RecordAction(t *testing.T) {
	clk := clock.NewMockClock(start)
	tracker := NewTracker(clk)
	before := atx.State{Available: true, PowerConfigured: true, PowerStatus: atx.PowerOff}
	tracker.UpdateCurrentInputs(before)

	clk.Advance(time.Second)
	tracker.RecordAction(atx.ActionShort, "api", nil)
	tracker.UpdateCurrentInputs(atx.State{Available: true, PowerStatus: atx.PowerOn})
	clk.Advance(time.Second)
	tracker.RecordAction(atx.ActionReset, "api", errors.New("reset button: not configured"))

	state := tracker.GetState()
	require.NotNil(t, state.Outputs.LastAction)
	assert.Equal(t, atx.ActionReset, state.Outputs.LastAction.Action)
	assert.False(t, state.Outputs.LastAction.Success)
	assert.Equal(t, "reset button: not configured", state.Outputs.LastAction.Error)
	assert.Equal(t, atx.PowerOn, state.Inputs.AtLastAction.PowerStatus, "snapshot taken at the second action")

	require.Len(t, state.Outputs.RecentActions, 2)
	assert.True(t, state.Outputs.RecentActions[0].Success)
	assert.Equal(t, start.Add(time.Second), state.Outputs.RecentActions[0].Timestamp)
}

func TestTracker_RecentActionsBounded(t *testing.T) {
	tracker := NewTracker(clock.NewMockClock(start))

	for i := 0; i < MaxRecentActions+5; i++ {
		tracker.RecordAction(atx.ActionLong, fmt.Sprintf("caller-%d", i), nil)
	}

	recent := tracker.GetState().Outputs.RecentActions
	require.Len(t, recent, MaxRecentActions)
	assert.Equal(t, "caller-5", recent[0].Source)
	assert.Equal(t, fmt.Sprintf("caller-%d", MaxRecentActions+4), recent[len(recent)-1].Source)
}

func TestTracker_GetStateReturnsCopy(t *testing.T) {
	tracker := NewTracker(clock.NewMockClock(start))
	tracker.RecordAction(atx.ActionShort, "api", nil)

	state := tracker.GetState()
	state.Outputs.RecentActions[0].Source = "mutated"
	state.Outputs.LastAction.Success = false

	fresh := tracker.GetState()
	assert.Equal(t, "api", fresh.Outputs.RecentActions[0].Source)
	assert.True(t, fresh.Outputs.LastAction.Success)
}

func TestTracker_Concurrent(t *testing.T) {
	tracker := NewTracker(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			tracker.RecordAction(atx.ActionShort, "api", nil)
		}()
		go func() {
			defer wg.Done()
			tracker.UpdateCurrentInputs(atx.State{Available: true})
			tracker.GetState()
		}()
	}
	wg.Wait()

	assert.Len(t, tracker.GetState().Outputs.RecentActions, 10)
}
