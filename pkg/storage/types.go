package storage

import "time"

// Removal is one row of the removal history.
type Removal struct {
	ID         int64
	Identifier string
	RemovedAt  time.Time
	Type       string // Appx | Package | Driver | Feature
	SessionID  string
}

// TypeStats summarizes the removal history for one component type.
type TypeStats struct {
	Type     string
	Removals int
	Sessions int
}
