package access

import "fmt"

// Kind distinguishes the two outcomes of a guard evaluation.
type Kind int

const (
	// KindAllow lets the navigation proceed.
	KindAllow Kind = iota + 1

	// KindRedirect sends the caller to Decision.Target instead.
	KindRedirect
)

// Target is where a denied navigation is sent.
type Target int

const (
	// TargetLogin is used when there is no session.
	TargetLogin Target = iota + 1

	// TargetForbidden is used when the session's role is not allowed.
	TargetForbidden
)

// Paths for each redirect target.
const (
	LoginPath     = "/login"
	ForbiddenPath = "/forbidden"
)

// Path returns the route a Target redirects to.
func (t Target) Path() string {
	switch t {
	case TargetLogin:
		return LoginPath
	case TargetForbidden:
		return ForbiddenPath
	default:
		return LoginPath
	}
}

func (t Target) String() string {
	switch t {
	case TargetLogin:
		return "login"
	case TargetForbidden:
		return "forbidden"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// Decision is the result of Guard.Evaluate. Target is only meaningful
// when Kind is KindRedirect. The zero Decision is invalid.
type Decision struct {
	Kind   Kind
	Target Target
}

// Allow returns an allowing Decision.
func Allow() Decision {
	return Decision{Kind: KindAllow}
}

// RedirectTo returns a Decision redirecting to t.
func RedirectTo(t Target) Decision {
	return Decision{Kind: KindRedirect, Target: t}
}

// Allowed reports whether d lets the navigation proceed.
func (d Decision) Allowed() bool {
	return d.Kind == KindAllow
}

func (d Decision) String() string {
	if d.Kind == KindAllow {
		return "Allow"
	}
	return "Redirect(" + d.Target.String() + ")"
}
