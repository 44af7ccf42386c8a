package types

import "strings"

// Status is an instance lifecycle state as reported by the daemon,
// normalized to lowercase.
type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusUnknown Status = "unknown"

	// StatusPending marks an instance with an operation in flight. It is a
	// presentation-side overlay; the daemon never reports it.
	StatusPending Status = "pending"
)

// ParseStatus normalizes a raw daemon status value. Unrecognized or empty
// input maps to StatusUnknown rather than failing.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "running":
		return StatusRunning
	case "stopped":
		return StatusStopped
	default:
		return StatusUnknown
	}
}

// Running reports whether the instance is observed as running.
func (s Status) Running() bool {
	return s == StatusRunning
}

// Known reports whether the daemon gave a recognized answer.
func (s Status) Known() bool {
	return s == StatusRunning || s == StatusStopped
}

// Action is a state-write verb accepted by the daemon.
type Action string

const (
	ActionStart Action = "start"
	ActionStop  Action = "stop"
)

// Instance is one row of an inventory snapshot.
type Instance struct {
	Name   string `json:"name"`
	Status Status `json:"status"`
}
