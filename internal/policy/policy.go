// Package policy centralizes role based authorization. Routing, middleware
// and every mutating service call consult Can instead of inlining role checks.
package policy

import (
	"errors"

	"physio-backend/internal/models"
)

var ErrForbidden = errors.New("forbidden")

var rolePermissions = map[models.Role][]Permission{
	models.RoleAdmin: {
		PermissionAll,
	},
	models.RoleSecretary: {
		NewPermission(ResourceAppointment, wildcard),
		NewPermission(ResourcePatient, wildcard),
		NewPermission(ResourceTransaction, ActionList),
		NewPermission(ResourceTransaction, ActionView),
		NewPermission(ResourceTransaction, ActionCreate),
	},
	// Therapists only read the planning; they may still open patient files.
	models.RoleTherapist: {
		NewPermission(ResourceAppointment, ActionList),
		NewPermission(ResourceAppointment, ActionView),
		NewPermission(ResourcePatient, ActionList),
		NewPermission(ResourcePatient, ActionView),
		NewPermission(ResourcePatient, ActionCreate),
	},
}

// Can reports whether role may perform action on resource.
func Can(role models.Role, action Action, resource Resource) bool {
	requested := NewPermission(resource, action)
	for _, perm := range rolePermissions[role] {
		if perm.Matches(requested) {
			return true
		}
	}
	return false
}

// Authorize is Can returning ErrForbidden on denial.
func Authorize(role models.Role, action Action, resource Resource) error {
	if !Can(role, action, resource) {
		return ErrForbidden
	}
	return nil
}

// Permissions lists the grants of role, for clients that hide controls.
func Permissions(role models.Role) []Permission {
	perms := rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
