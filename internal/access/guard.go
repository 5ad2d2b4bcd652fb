package access

import (
	"slices"

	"github.com/nerrad567/psico-client/internal/infrastructure/logging"
	"github.com/nerrad567/psico-client/internal/session"
)

// Requirement is the set of roles allowed into a route.
// An empty Requirement admits any logged-in session.
type Requirement []session.Role

// Roles builds a Requirement.
func Roles(roles ...session.Role) Requirement {
	return Requirement(roles)
}

// SessionState is what the guard needs to know about the current session.
// *session.Session implements it.
type SessionState interface {
	IsLoggedIn() bool
	Role() (session.Role, bool)
}

// Guard decides whether the current session may enter a protected route.
//
// State is read fresh on every call. Evaluate never blocks on the
// network and never panics on a malformed token.
type Guard struct {
	state  SessionState
	logger *logging.Logger
}

// NewGuard creates a Guard over state.
func NewGuard(state SessionState, logger *logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Guard{
		state:  state,
		logger: logger.With("component", "access_guard"),
	}
}

// Evaluate applies req to the current session:
//  1. no session: redirect to login
//  2. empty requirement: allow
//  3. known role listed in req: allow
//  4. otherwise: redirect to forbidden
//
// A role-less or undecodable token is therefore allowed only into
// routes with an empty requirement.
func (g *Guard) Evaluate(req Requirement) Decision {
	if !g.state.IsLoggedIn() {
		return RedirectTo(TargetLogin)
	}

	if len(req) == 0 {
		return Allow()
	}

	role, ok := g.state.Role()
	if ok && slices.Contains(req, role) {
		return Allow()
	}

	g.logger.Debug("access denied", "role", string(role), "required", req)
	return RedirectTo(TargetForbidden)
}
