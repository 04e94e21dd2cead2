package domain

import "strings"

// VertexStatus represents the lifecycle state of one target resolution in a progress report.
type VertexStatus string

const (
	// VertexStatusRunning indicates the target body is executing.
	VertexStatusRunning VertexStatus = "running"
	// VertexStatusCompleted indicates the target body returned successfully.
	VertexStatusCompleted VertexStatus = "completed"
	// VertexStatusFailed indicates the target body returned an error.
	VertexStatusFailed VertexStatus = "failed"
	// VertexStatusCached indicates the target found its outputs up to date and did no work.
	VertexStatusCached VertexStatus = "cached"
)

// IsTerminal checks if a status is a terminal state.
func (s VertexStatus) IsTerminal() bool {
	switch s {
	case VertexStatusCompleted, VertexStatusFailed, VertexStatusCached:
		return true
	default:
		return false
	}
}

// Symbol returns the glyph used for the status in summaries.
func (s VertexStatus) Symbol() string {
	switch s {
	case VertexStatusCompleted:
		return "✓"
	case VertexStatusFailed:
		return "✗"
	case VertexStatusCached:
		return "•"
	default:
		return "…"
	}
}

// NormalizeVertexStatus converts a string to a VertexStatus, defaulting to running if unknown.
func NormalizeVertexStatus(s string) VertexStatus {
	switch strings.ToLower(s) {
	case string(VertexStatusCompleted):
		return VertexStatusCompleted
	case string(VertexStatusFailed):
		return VertexStatusFailed
	case string(VertexStatusCached):
		return VertexStatusCached
	default:
		return VertexStatusRunning
	}
}
