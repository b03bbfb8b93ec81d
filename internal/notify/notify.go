// Package notify delivers lifecycle events to the notification collaborator.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// Action names understood by the notification collaborator.
const (
	ActionUploaded = "uploaded"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionRestored = "restored"
)

// Event describes one change to a folder or file.
type Event struct {
	ActorID    string    `json:"actor_id"`
	EntityName string    `json:"entity_name"`
	EntityKind string    `json:"entity_kind"`
	EntityID   string    `json:"entity_id"`
	Action     string    `json:"action"`
	At         time.Time `json:"at"`
}

// Notifier receives lifecycle events. Callers treat failures as best-effort.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Notify(context.Context, Event) error { return nil }

// LogNotifier writes events to the structured log.
type LogNotifier struct {
	Log zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, e Event) error {
	n.Log.Info().
		Str("actor_id", e.ActorID).
		Str("entity_kind", e.EntityKind).
		Str("entity_id", e.EntityID).
		Str("entity_name", e.EntityName).
		Str("action", e.Action).
		Time("at", e.At).
		Msg("lifecycle event")
	return nil
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, e Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
