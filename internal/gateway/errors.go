package gateway

import "errors"

// Sentinel errors returned by the gateway. Check with errors.Is; the
// concrete error wraps the underlying cause.
var (
	// ErrInvalidCredentials means the login form was incomplete and nothing was sent.
	ErrInvalidCredentials = errors.New("username and password are required")

	// ErrTransport covers network failures, non-2xx responses and bodies
	// that are not a JSON object.
	ErrTransport = errors.New("authentication request failed")

	// ErrTokenMissing means the backend answered successfully without a
	// usable "token" or "jwt" field.
	ErrTokenMissing = errors.New("token missing in response")

	// ErrInvalidRegistration means the registration payload failed validation.
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrRegistrationFailed covers transport and backend failures during registration.
	ErrRegistrationFailed = errors.New("registration request failed")
)

// User-facing messages shown by the UI.
const (
	LoginFailedMessage         = "No se pudo iniciar sesión. Revisa tus credenciales o intenta más tarde."
	MissingCredentialsMessage  = "Ingresa tu usuario y contraseña."
	RegistrationOKMessage      = "¡Registro completado! Ya puedes iniciar sesión con tus credenciales."
	RegistrationFailedMessage  = "No fue posible completar el registro. Intenta de nuevo más tarde."
	InvalidRegistrationMessage = "Revisa los datos del formulario."
)

// UserMessage maps a gateway error onto the message shown to the user.
// Transport and missing-token failures share one generic message.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return MissingCredentialsMessage
	case errors.Is(err, ErrInvalidRegistration):
		return InvalidRegistrationMessage
	case errors.Is(err, ErrRegistrationFailed):
		return RegistrationFailedMessage
	default:
		return LoginFailedMessage
	}
}
