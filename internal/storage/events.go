package storage

import "time"

const (
	ActionWorkOrderCreate = "workorder.create"
	ActionWorkOrderMove   = "workorder.move"
	ActionWorkOrderDone   = "workorder.done"
	ActionWorkOrderUpdate = "workorder.update"
	ActionChecklistToggle = "checklist.toggle"
	ActionSkipFlagsSet    = "skipflags.set"
	ActionTimerStart      = "timer.start"
	ActionTimerStop       = "timer.stop"
)

type Event struct {
	Timestamp time.Time      `json:"ts"`
	Actor     string         `json:"user,omitempty"`
	Action    string         `json:"action"`
	Meta      map[string]any `json:"meta,omitempty"`
}
