package policy

import (
	"strings"

	"physio-backend/internal/models"
)

const (
	PathLogin     = "/login"
	PathDashboard = "/"
	PathCalendar  = "/calendar"
	PathPatients  = "/patients"
	PathFinance   = "/finance"
	PathUsers     = "/admin/users"
)

// Route is one screen of the client shell and the grant needed to open it.
type Route struct {
	Path     string   `json:"path"`
	Label    string   `json:"label"`
	Action   Action   `json:"-"`
	Resource Resource `json:"-"`
}

var routes = []Route{
	{Path: PathDashboard, Label: "Tableau de bord", Action: ActionView, Resource: ResourceDashboard},
	{Path: PathCalendar, Label: "Calendrier", Action: ActionList, Resource: ResourceAppointment},
	{Path: PathPatients, Label: "Patients", Action: ActionList, Resource: ResourcePatient},
	{Path: PathFinance, Label: "Finance", Action: ActionList, Resource: ResourceTransaction},
	{Path: PathUsers, Label: "Utilisateurs", Action: ActionList, Resource: ResourceUser},
}

// DefaultRoute is where a role lands after login or after a refused route.
func DefaultRoute(role models.Role) string {
	if role == models.RoleSecretary || role == models.RoleTherapist {
		return PathCalendar
	}
	return PathDashboard
}

// Menu returns the routes visible to role, in navigation order.
func Menu(role models.Role) []Route {
	menu := make([]Route, 0, len(routes))
	for _, r := range routes {
		if Can(role, r.Action, r.Resource) {
			menu = append(menu, r)
		}
	}
	return menu
}

// Decision is the outcome of resolving a client path for a session.
type Decision struct {
	Path     string `json:"path"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

// Resolve applies the shell guard: anonymous users go to the login page,
// authenticated users are kept off the login page and redirected to their
// default route when their role does not grant the requested screen.
// A nil profile means anonymous.
func Resolve(profile *models.Profile, path string) Decision {
	path = normalizePath(path)

	if path == PathLogin {
		if profile == nil {
			return Decision{Path: path, Allowed: true}
		}
		return Decision{Path: path, Redirect: DefaultRoute(profile.Role)}
	}
	if profile == nil {
		return Decision{Path: path, Redirect: PathLogin}
	}

	for _, r := range routes {
		if r.Path != path {
			continue
		}
		if Can(profile.Role, r.Action, r.Resource) {
			return Decision{Path: path, Allowed: true}
		}
		return Decision{Path: path, Redirect: DefaultRoute(profile.Role)}
	}
	return Decision{Path: path, Redirect: DefaultRoute(profile.Role)}
}

func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	path = strings.TrimPrefix(path, "#")
	if path == "" {
		return PathDashboard
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}
