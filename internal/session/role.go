package session

// Role is the authorisation tier claimed by a session token.
// Values match the backend's role names exactly.
type Role string

const (
	// RoleAdmin manages buildings, facilities, therapists, users and reservations.
	RoleAdmin Role = "ADMIN"

	// RoleTherapist is a clinician with a professional card.
	RoleTherapist Role = "TERAPEUTA"

	// RolePatient is a person receiving therapy.
	RolePatient Role = "PACIENTE"

	// RoleUser is a general account that can book facilities.
	RoleUser Role = "USUARIO"
)

// ValidRoles is the closed set of roles the client understands.
var ValidRoles = []Role{RoleAdmin, RoleTherapist, RolePatient, RoleUser}

// ParseRole returns the Role named by s. Matching is exact and case-sensitive;
// anything outside ValidRoles reports false.
func ParseRole(s string) (Role, bool) {
	for _, r := range ValidRoles {
		if string(r) == s {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string {
	return string(r)
}
