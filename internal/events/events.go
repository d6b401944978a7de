// Package events carries progress notifications from a pipeline run to
// any number of listeners (CLI progress output, tests).
package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is one progress notification.
type Event struct {
	RunID   string    `json:"run_id,omitempty"`
	Stage   string    `json:"stage"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

func New(runID, stage, message string) Event {
	return Event{
		RunID:   runID,
		Stage:   stage,
		Message: message,
		At:      time.Now().UTC(),
	}
}

// String renders the event for plain progress output.
func (e Event) String() string {
	if e.Message == "" {
		return e.Stage
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// JSON renders the event as one line for machine consumers.
func (e Event) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}
