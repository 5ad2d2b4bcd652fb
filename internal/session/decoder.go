package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nerrad567/psico-client/internal/infrastructure/logging"
)

// Claims is the decoded payload of a session token. Every key is kept as
// sent; only "role" drives access decisions.
type Claims = jwt.MapClaims

// RoleClaim is the payload key holding the session role.
const RoleClaim = "role"

var (
	errNoPayload      = errors.New("token has no payload segment")
	errPayloadBase64  = errors.New("payload is not valid base64")
	errPayloadJSON    = errors.New("payload is not valid JSON")
	errPayloadNotJSON = errors.New("payload is not a JSON object")
)

// Decode extracts the claims from a compact token without verifying it.
//
// Only the second dot-separated segment is read. The signature is never
// examined; the backend re-validates the token on every privileged call.
// Malformed input reports false and never panics.
func Decode(token string) (Claims, bool) {
	claims, err := decodePayload(token)
	if err != nil {
		return nil, false
	}
	return claims, true
}

// RoleOf returns the role claim when it is a string naming a known role.
func RoleOf(claims Claims) (Role, bool) {
	raw, ok := claims[RoleClaim].(string)
	if !ok {
		return "", false
	}
	return ParseRole(raw)
}

// Subject returns the "sub" claim, if present. Display only.
func Subject(claims Claims) (string, bool) {
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

// ExpiresAt returns the "exp" claim, if present. Display only: expiry is
// not enforced client-side.
func ExpiresAt(claims Claims) (time.Time, bool) {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Decoder is Decode with a logger for malformed tokens.
type Decoder struct {
	logger *logging.Logger
}

// NewDecoder creates a Decoder. A nil logger discards warnings.
func NewDecoder(logger *logging.Logger) *Decoder {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Decoder{logger: logger.With("component", "session_decoder")}
}

// Decode behaves like the package-level Decode and logs why a token with
// a payload segment could not be read. Token content is never logged.
func (d *Decoder) Decode(token string) (Claims, bool) {
	claims, err := decodePayload(token)
	if err == nil {
		return claims, true
	}
	if !errors.Is(err, errNoPayload) {
		d.logger.Warn("session token payload could not be decoded", "reason", err.Error())
	}
	return nil, false
}

// Role decodes token and returns its role claim.
func (d *Decoder) Role(token string) (Role, bool) {
	claims, ok := d.Decode(token)
	if !ok {
		return "", false
	}
	return RoleOf(claims)
}

func decodePayload(token string) (Claims, error) {
	segments := strings.Split(token, ".")
	if len(segments) < 2 {
		return nil, errNoPayload
	}

	raw, err := base64.StdEncoding.DecodeString(normalisePayload(segments[1]))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errPayloadBase64, err)
	}

	var claims Claims
	if err := json.Unmarshal(raw, &claims); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, errPayloadNotJSON
		}
		return nil, fmt.Errorf("%w: %v", errPayloadJSON, err)
	}
	// "null" unmarshals cleanly into a nil map
	if claims == nil {
		return nil, errPayloadNotJSON
	}

	return claims, nil
}

// normalisePayload maps base64url to the standard alphabet and restores
// padding. A length with remainder 1 is left as is and fails to decode.
func normalisePayload(segment string) string {
	s := strings.NewReplacer("-", "+", "_", "/").Replace(segment)
	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}
	return s
}
