// Package authz holds the static role-to-permission table and the
// route-level authorization guard. The table is built once at process
// start and never mutated; lookups are pure and unknown roles simply
// resolve to an empty permission set.
package authz

import (
	"github.com/taskhive/taskhive-api/internal/domain"
)

// Action names a permission checked at the route boundary.
type Action string

// Actions granted through the role table.
const (
	ActionCreateTask Action = "createTask"
	ActionGetMyTasks Action = "getMyTasks"
	// ActionUpdateMyTask carries the historical misspelling. The PATCH
	// route checks this exact string, so correcting it here without
	// updating every check would lock owners out of their own tasks.
	ActionUpdateMyTask Action = "upateMyTask"
	ActionChangeTasks  Action = "changeTasks"
	ActionDeleteMyTask Action = "deleteMyTask"
	ActionGetUsers     Action = "getUsers"
	ActionManageUsers  Action = "manageUsers"
	ActionGetTasks     Action = "getTasks"
)

// rolePermissions is the process-lifetime role table. It is never
// written to after init, so concurrent reads need no locking.
var rolePermissions = map[domain.Role][]Action{
	domain.RoleUser: {
		ActionCreateTask,
		ActionGetMyTasks,
		ActionUpdateMyTask,
		ActionChangeTasks,
		ActionDeleteMyTask,
	},
	domain.RoleAdmin: {
		ActionGetUsers,
		ActionManageUsers,
		ActionGetTasks,
	},
}

// knownRoles preserves a stable ordering for KnownRoles.
var knownRoles = []domain.Role{domain.RoleUser, domain.RoleAdmin}

// PermittedActions returns the actions granted to the given role.
// Unknown roles get an empty set rather than an error. The returned
// slice is a copy; callers may not mutate the table through it.
func PermittedActions(role domain.Role) []Action {
	actions, ok := rolePermissions[role]
	if !ok {
		return nil
	}
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// KnownRoles returns the roles present in the table, in declaration order.
func KnownRoles() []domain.Role {
	out := make([]domain.Role, len(knownRoles))
	copy(out, knownRoles)
	return out
}

// Authorize decides whether the caller's role grants the required action.
// Deny is the default: unknown roles and unknown actions both fail.
// This guard is purely role-based; resource ownership is enforced by the
// task service, not here.
func Authorize(role domain.Role, required Action) bool {
	for _, a := range rolePermissions[role] {
		if a == required {
			return true
		}
	}
	return false
}
