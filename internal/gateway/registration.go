package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/psico-client/internal/audit"
	"github.com/nerrad567/psico-client/internal/session"
)

// RegistrationKind selects the public registration endpoint.
type RegistrationKind string

const (
	KindTherapist RegistrationKind = "therapist"
	KindUser      RegistrationKind = "user"
	KindPatient   RegistrationKind = "patient"
)

// RegistrationKinds lists every kind in display order.
var RegistrationKinds = []RegistrationKind{KindTherapist, KindUser, KindPatient}

// ParseRegistrationKind accepts the URL form of a kind.
func ParseRegistrationKind(s string) (RegistrationKind, bool) {
	for _, k := range RegistrationKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Role is the backend role an account of this kind is created with.
func (k RegistrationKind) Role() session.Role {
	switch k {
	case KindTherapist:
		return session.RoleTherapist
	case KindUser:
		return session.RoleUser
	default:
		return session.RolePatient
	}
}

// DocTypes are the accepted identity document types.
var DocTypes = []string{"CC", "CE", "TI", "PAS"}

// RegistrationPayload is the body sent to the registration endpoints.
// FullName, PhoneNumber and Role are filled in by Register.
type RegistrationPayload struct {
	Username        string       `json:"username" validate:"required"`
	FirstName       string       `json:"firstName" validate:"required"`
	LastName        string       `json:"lastName" validate:"required"`
	FullName        string       `json:"fullName,omitempty"`
	DocType         string       `json:"docType" validate:"required,oneof=CC CE TI PAS"`
	Document        string       `json:"document" validate:"required"`
	Email           string       `json:"email" validate:"required,email"`
	Telephone       string       `json:"telephone" validate:"required"`
	PhoneNumber     string       `json:"phoneNumber,omitempty"`
	Password        string       `json:"password" validate:"required,min=6"`
	ConfirmPassword string       `json:"-" validate:"required,eqfield=Password"`
	Role            session.Role `json:"role,omitempty"`

	// Therapist only
	ProfessionalCard *bool  `json:"professionalCard,omitempty"`
	Specialty        string `json:"specialty,omitempty"`
}

// normalise trims text fields and derives the fields the backend expects
// alongside the form values.
func (p RegistrationPayload) normalise(kind RegistrationKind) RegistrationPayload {
	p.Username = strings.TrimSpace(p.Username)
	p.FirstName = strings.TrimSpace(p.FirstName)
	p.LastName = strings.TrimSpace(p.LastName)
	p.Document = strings.TrimSpace(p.Document)
	p.Email = strings.TrimSpace(p.Email)
	p.Telephone = strings.TrimSpace(p.Telephone)
	p.Specialty = strings.TrimSpace(p.Specialty)

	p.FullName = strings.TrimSpace(p.FirstName + " " + p.LastName)
	p.PhoneNumber = p.Telephone
	p.Role = kind.Role()

	if kind == KindTherapist {
		if p.ProfessionalCard == nil {
			card := false
			p.ProfessionalCard = &card
		}
	} else {
		p.ProfessionalCard = nil
		p.Specialty = ""
	}
	return p
}

// Register creates an account of the given kind. It never touches the
// TokenStore: a new account still has to log in.
func (c *Client) Register(ctx context.Context, kind RegistrationKind, payload RegistrationPayload) error {
	if _, ok := ParseRegistrationKind(string(kind)); !ok {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRegistration, kind)
	}

	payload = payload.normalise(kind)
	if err := c.validate.Struct(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegistration, err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: encoding request: %v", ErrRegistrationFailed, err)
	}

	requestID := uuid.NewString()
	log := c.logger.With("request_id", requestID, "kind", string(kind), "username", payload.Username)

	url := strings.TrimRight(c.cfg.AppURL, "/") + "/" + string(kind)
	if _, err := c.post(ctx, url, requestID, body); err != nil {
		log.Warn("registration failed", "error", err)
		return fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
	}

	log.Info("registered")
	c.record(ctx, audit.Event{
		Action:    audit.ActionRegister,
		Username:  payload.Username,
		Role:      string(payload.Role),
		RequestID: requestID,
		Details:   map[string]any{"kind": string(kind)},
	})
	return nil
}
