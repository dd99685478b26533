package core

import (
	"fmt"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// RunID identifies one quantum volume run
type RunID ID

// String returns the string representation
func (id RunID) String() string { return ID(id).String() }

// TrialKey identifies one model-circuit instance: the trial_index-th random
// circuit generated at the width_index-th configured width.
type TrialKey struct {
	Width int `json:"width_index"`
	Trial int `json:"trial_index"`
}

// NewTrialKey creates a trial key
func NewTrialKey(widthIndex, trialIndex int) TrialKey {
	return TrialKey{Width: widthIndex, Trial: trialIndex}
}

// String returns a stable human-readable form, e.g. "w2/t17"
func (k TrialKey) String() string {
	return fmt.Sprintf("w%d/t%d", k.Width, k.Trial)
}

// Valid checks both indices are non-negative
func (k TrialKey) Valid() bool {
	return k.Width >= 0 && k.Trial >= 0
}
