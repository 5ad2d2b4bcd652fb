package access

import (
	"strings"

	"github.com/nerrad567/psico-client/internal/session"
)

// Route is a protected subtree of the application.
type Route struct {
	// Prefix is the subtree root, e.g. "/admin". It also covers "/admin/...".
	Prefix string
	Title  string
	Roles  Requirement

	// Children are the pages under Prefix, as path segments.
	Children []string
}

// RegisterPath is the public registration area.
const RegisterPath = "/register"

// Routes is the application's protected route table.
var Routes = []Route{
	{
		Prefix:   "/admin",
		Title:    "Administración",
		Roles:    Roles(session.RoleAdmin),
		Children: []string{"buildings", "facilities", "therapists", "users", "reservations"},
	},
	{
		Prefix: "/therapist",
		Title:  "Panel del terapeuta",
		Roles:  Roles(session.RoleTherapist),
	},
	{
		Prefix: "/patient",
		Title:  "Panel del paciente",
		Roles:  Roles(session.RolePatient),
	},
	{
		Prefix: "/user",
		Title:  "Panel del gestor",
		Roles:  Roles(session.RoleUser, session.RoleAdmin),
	},
}

// PublicPaths are reachable without a session. "/register" covers "/register/{role}".
var PublicPaths = []string{LoginPath, RegisterPath, ForbiddenPath}

// IsPublic reports whether path lies under one of PublicPaths.
func IsPublic(path string) bool {
	for _, p := range PublicPaths {
		if underPrefix(path, p) {
			return true
		}
	}
	return false
}

// Lookup returns the protected route whose prefix is the longest match for path.
func Lookup(path string) (Route, bool) {
	var (
		best  Route
		found bool
	)
	for _, r := range Routes {
		if underPrefix(path, r.Prefix) && len(r.Prefix) > len(best.Prefix) {
			best, found = r, true
		}
	}
	return best, found
}

// HomePath is where a session with the given role lands after login.
// An unknown or missing role lands on the login page.
func HomePath(role session.Role, ok bool) string {
	if !ok {
		return LoginPath
	}
	switch role {
	case session.RoleAdmin:
		return "/admin"
	case session.RoleTherapist:
		return "/therapist"
	case session.RolePatient:
		return "/patient"
	case session.RoleUser:
		return "/user"
	default:
		return LoginPath
	}
}

// underPrefix matches prefix itself and anything below it, but "/users"
// is not under "/user".
func underPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
