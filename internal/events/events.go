// Package events carries run progress to live subscribers (the SSE stream).
package events

import (
	"encoding/json"
	"time"
)

const (
	TypeHello    = "hello"
	TypeRunState = "run_state"
	TypeRunDone  = "run_done"
)

// Event is one run notification. Data is encoded as-is.
type Event struct {
	Type  string    `json:"type"`
	At    time.Time `json:"at"`
	RunID string    `json:"run_id,omitempty"`
	Data  any       `json:"data,omitempty"`
}

func New(runID, typ string, data any) Event {
	return Event{Type: typ, At: time.Now().UTC(), RunID: runID, Data: data}
}

func RunState(runID, state string) Event {
	return New(runID, TypeRunState, map[string]string{"state": state})
}

func (e Event) JSON() ([]byte, error) {
	return json.Marshal(e)
}
