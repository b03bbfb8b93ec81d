package service

import "docbin/internal/model"

// Actor is the user (or system process) on whose behalf an operation runs.
// Authorization has already been decided by the caller.
type Actor struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// SystemActor performs retention sweeps.
var SystemActor = Actor{ID: "system", Role: "system"}

// EntityFailure is one entity a cascade could not transition. Subtree is set when the entity
// itself may have transitioned but the entities below it could not be listed.
type EntityFailure struct {
	model.EntityRef
	Reason  string `json:"reason"`
	Subtree bool   `json:"subtree,omitempty"`
}

// CascadeResult lists every entity a cascade touched.
type CascadeResult struct {
	Action    string            `json:"action"`
	Target    model.EntityRef   `json:"target"`
	Succeeded []model.EntityRef `json:"succeeded"`
	Unchanged []model.EntityRef `json:"unchanged"`
	Failed    []EntityFailure   `json:"failed"`
}

func newResult(action string, target model.EntityRef) *CascadeResult {
	return &CascadeResult{
		Action:    action,
		Target:    target,
		Succeeded: []model.EntityRef{},
		Unchanged: []model.EntityRef{},
		Failed:    []EntityFailure{},
	}
}

func (r *CascadeResult) succeed(ref model.EntityRef) {
	r.Succeeded = append(r.Succeeded, ref)
}

func (r *CascadeResult) unchanged(ref model.EntityRef) {
	r.Unchanged = append(r.Unchanged, ref)
}

func (r *CascadeResult) fail(ref model.EntityRef, err error) {
	r.Failed = append(r.Failed, EntityFailure{EntityRef: ref, Reason: err.Error()})
}

func (r *CascadeResult) failSubtree(ref model.EntityRef, err error) {
	r.Failed = append(r.Failed, EntityFailure{EntityRef: ref, Reason: err.Error(), Subtree: true})
}

// Err returns a *PartialCascadeFailure when any entity failed, nil otherwise.
func (r *CascadeResult) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	return &PartialCascadeFailure{Action: r.Action, Target: r.Target, Failed: r.Failed}
}
