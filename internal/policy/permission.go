package policy

import "strings"

// Action describes the kind of operation a user wants to perform.
type Action string

const (
	ActionView   Action = "view"
	ActionList   Action = "list"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionSettle Action = "settle"
	ActionCancel Action = "cancel"
)

// Resource is the kind of record an action targets.
type Resource string

const (
	ResourceDashboard   Resource = "dashboard"
	ResourceAppointment Resource = "appointment"
	ResourcePatient     Resource = "patient"
	ResourceTransaction Resource = "transaction"
	ResourceRevenue     Resource = "revenue"
	ResourceUser        Resource = "user"
)

// Permission is an allowed action on a resource, formatted "resource:action".
type Permission string

const wildcard = "*"

// PermissionAll grants every action on every resource.
const PermissionAll Permission = "*:*"

func NewPermission(resource Resource, action Action) Permission {
	return Permission(string(resource) + ":" + string(action))
}

func (p Permission) Parse() (Resource, Action) {
	parts := strings.SplitN(string(p), ":", 2)
	if len(parts) != 2 {
		return "", ""
	}
	return Resource(parts[0]), Action(parts[1])
}

// Matches checks if p grants requested. "*:*" grants everything and
// "appointment:*" grants every appointment action.
func (p Permission) Matches(requested Permission) bool {
	if p == PermissionAll || p == requested {
		return true
	}
	res, act := p.Parse()
	reqRes, _ := requested.Parse()
	return res != "" && res == reqRes && string(act) == wildcard
}
