package handler

import (
	"context"
	"strings"

	"docbin/internal/model"
	"docbin/internal/service"
)

// Actions checked by the Authorizer besides the lifecycle actions.
const (
	actionList  = "list"
	actionSweep = "sweep"
)

// Authorizer decides whether an actor may perform an action. The decision belongs to the
// auth collaborator; the handlers only consume the boolean.
type Authorizer interface {
	Allow(ctx context.Context, actor service.Actor, action string, target model.EntityRef) bool
}

// RoleAuthorizer allows every action to a fixed set of roles.
type RoleAuthorizer struct {
	roles map[string]bool
}

// NewRoleAuthorizer returns an authorizer for the given roles (case-insensitive).
func NewRoleAuthorizer(roles []string) *RoleAuthorizer {
	a := &RoleAuthorizer{roles: make(map[string]bool, len(roles))}
	for _, r := range roles {
		a.roles[strings.ToLower(strings.TrimSpace(r))] = true
	}
	return a
}

func (a *RoleAuthorizer) Allow(_ context.Context, actor service.Actor, _ string, _ model.EntityRef) bool {
	return a.roles[strings.ToLower(actor.Role)]
}
