// Package shadowstate records what the ATX controller was asked to do and
// what it observed at the time, so operators can see why the host is in its
// current state.
package shadowstate

import (
	"time"

	"atxcontrol/pkg/atx"
)

// MaxRecentActions bounds the action history kept in memory
const MaxRecentActions = 20

// StateMetadata contains metadata about the shadow state
type StateMetadata struct {
	LastUpdated time.Time `json:"lastUpdated"`
}

// ActionRecord represents a single button action
type ActionRecord struct {
	Timestamp time.Time  `json:"timestamp"`
	Action    atx.Action `json:"action"`
	Success   bool       `json:"success"`
	Error     string     `json:"error,omitempty"`
	Source    string     `json:"source"`
}

// Inputs tracks the current snapshot and the one taken before the last action
type Inputs struct {
	Current      atx.State `json:"current"`
	AtLastAction atx.State `json:"atLastAction"`
}

// Outputs tracks the actions sent to the buttons
type Outputs struct {
	LastAction    *ActionRecord  `json:"lastAction,omitempty"`
	RecentActions []ActionRecord `json:"recentActions"`
}

// ATXShadowState is the serialized view returned by Tracker.GetState
type ATXShadowState struct {
	Inputs   Inputs        `json:"inputs"`
	Outputs  Outputs       `json:"outputs"`
	Metadata StateMetadata `json:"metadata"`
}
