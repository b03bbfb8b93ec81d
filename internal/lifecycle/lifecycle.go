// Package lifecycle is the state machine for folder and file lifecycles.
//
// State is derived from the stored fields rather than kept in an enum column:
//
//	Active  IsDeleted=false, DeletedAt=nil, DeleteAfter=nil
//	Binned  IsDeleted=true,  DeletedAt set, DeleteAfter set
//	Purged  the row no longer exists
//
// Legal transitions are Active -> Binned, Binned -> Active and Binned -> Purged.
// Every change to the lifecycle columns is computed here and nowhere else.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"docbin/internal/model"
)

// DefaultRetention is how long a binned entity is kept before it becomes eligible for purge.
const DefaultRetention = 30 * 24 * time.Hour

var (
	// ErrInvalidState is returned when a transition is not legal from the entity's current state.
	ErrInvalidState = errors.New("invalid lifecycle state")
	// ErrInvalidRetention is returned when a retention period would not put deleteAfter in the future.
	ErrInvalidRetention = errors.New("retention period must be positive")
)

// State is the lifecycle state derived from an entity's fields.
type State int

const (
	Active State = iota
	Binned
)

func (s State) String() string {
	switch s {
	case Active:
		return "active"
	case Binned:
		return "binned"
	default:
		return "unknown"
	}
}

// StateOf derives the state of a stored entity.
func StateOf(l model.Lifecycle) State {
	if l.IsDeleted {
		return Binned
	}
	return Active
}

// Bin moves an active entity to the bin and stamps its retention deadline.
func Bin(l model.Lifecycle, now time.Time, retention time.Duration) (model.Lifecycle, error) {
	if retention <= 0 {
		return l, ErrInvalidRetention
	}
	if StateOf(l) != Active {
		return l, fmt.Errorf("bin: entity is %s: %w", StateOf(l), ErrInvalidState)
	}
	deletedAt := now.UTC()
	deleteAfter := deletedAt.Add(retention)
	return model.Lifecycle{
		IsDeleted:   true,
		DeletedAt:   &deletedAt,
		DeleteAfter: &deleteAfter,
	}, nil
}

// Restore brings a binned entity back. Restoring an active entity is a no-op and reports changed=false.
func Restore(l model.Lifecycle) (restored model.Lifecycle, changed bool) {
	if StateOf(l) == Active {
		return l, false
	}
	return model.Lifecycle{}, true
}

// CanPurge reports whether the entity may be permanently deleted. Entities must pass through the bin first.
func CanPurge(l model.Lifecycle) error {
	if StateOf(l) != Binned {
		return fmt.Errorf("purge: entity is %s: %w", StateOf(l), ErrInvalidState)
	}
	return nil
}

// Expired reports whether a binned entity's retention deadline has passed.
func Expired(l model.Lifecycle, now time.Time) bool {
	return l.IsDeleted && l.DeleteAfter != nil && !l.DeleteAfter.After(now)
}

// Valid checks the storage invariant that the three lifecycle fields move together.
func Valid(l model.Lifecycle) bool {
	if l.IsDeleted {
		return l.DeletedAt != nil && l.DeleteAfter != nil
	}
	return l.DeletedAt == nil && l.DeleteAfter == nil
}
