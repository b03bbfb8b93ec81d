package service

import (
	"errors"
	"fmt"
	"strings"

	"docbin/internal/model"
)

var (
	ErrIDRequired = errors.New("id is required")
	ErrNotFound   = errors.New("entity not found")
)

// PathSecurityError reports a stored path that resolves outside the storage root.
// The operation is aborted before any row or disk object is touched.
type PathSecurityError struct {
	Ref  model.EntityRef
	Path string
	Err  error
}

func (e *PathSecurityError) Error() string {
	return fmt.Sprintf("%s %s: path %q rejected: %v", e.Ref.Kind, e.Ref.ID, e.Path, e.Err)
}

func (e *PathSecurityError) Unwrap() error {
	return e.Err
}

// PartialCascadeFailure is returned by CascadeResult.Err when some entities in a cascade failed
// while the rest of the cascade completed.
type PartialCascadeFailure struct {
	Action string
	Target model.EntityRef
	Failed []EntityFailure
}

func (e *PartialCascadeFailure) Error() string {
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, string(f.Kind)+":"+f.ID)
	}
	return fmt.Sprintf("%s %s %s: %d entities failed [%s]",
		e.Action, e.Target.Kind, e.Target.ID, len(e.Failed), strings.Join(ids, ", "))
}

// FailedIDs lists the ids of the entities that failed.
func (e *PartialCascadeFailure) FailedIDs() []string {
	ids := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}
