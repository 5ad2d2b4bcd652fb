package navigation

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/psico-client/internal/access"
	"github.com/nerrad567/psico-client/internal/gateway"
)

// registrationTitles are the headings of each registration form.
var registrationTitles = map[gateway.RegistrationKind]string{
	gateway.KindTherapist: "Registra tu cuenta de terapeuta",
	gateway.KindUser:      "Crea tu cuenta de gestor de edificios",
	gateway.KindPatient:   "Únete como paciente",
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"logged_in": s.session.IsLoggedIn(),
	})
}

// handleLoginPage sends a logged-in session with a known role to its home.
// A logged-in session without a usable role sees the form again.
func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if s.session.IsLoggedIn() {
		if home := access.HomePath(s.session.Role()); home != access.LoginPath {
			http.Redirect(w, r, home, http.StatusSeeOther)
			return
		}
	}
	s.render(w, r, http.StatusOK, "login", pageData{Title: "Iniciar sesión"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.render(w, r, http.StatusBadRequest, "login", pageData{
			Title: "Iniciar sesión",
			Error: gateway.LoginFailedMessage,
		})
		return
	}

	creds := gateway.Credentials{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}

	if _, err := s.gateway.Authenticate(r.Context(), creds); err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, gateway.ErrInvalidCredentials) {
			status = http.StatusBadRequest
		}
		s.render(w, r, status, "login", pageData{
			Title:    "Iniciar sesión",
			Error:    gateway.UserMessage(err),
			Username: creds.Username,
		})
		return
	}

	http.Redirect(w, r, access.HomePath(s.session.Role()), http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.gateway.Logout()
	http.Redirect(w, r, access.LoginPath, http.StatusSeeOther)
}

func (s *Server) handleForbidden(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusForbidden, "forbidden", pageData{Title: "Acceso denegado"})
}

// areaHandler renders a protected page. The guard has already run.
func (s *Server) areaHandler(route access.Route, section string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, http.StatusOK, "area", pageData{
			Title:   route.Title,
			Route:   route,
			Section: section,
		})
	}
}

func (s *Server) handleRegisterSelect(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "register_select", pageData{
		Title: "Crear una cuenta",
		Kinds: gateway.RegistrationKinds,
	})
}

// registrationKind resolves {role}; unknown kinds go back to the selector.
func (s *Server) registrationKind(w http.ResponseWriter, r *http.Request) (gateway.RegistrationKind, bool) {
	kind, ok := gateway.ParseRegistrationKind(chi.URLParam(r, "role"))
	if !ok {
		http.Redirect(w, r, access.RegisterPath, http.StatusSeeOther)
	}
	return kind, ok
}

func (s *Server) handleRegisterPage(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.registrationKind(w, r)
	if !ok {
		return
	}
	s.render(w, r, http.StatusOK, "register", registerPage(kind, gateway.RegistrationPayload{}))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	kind, ok := s.registrationKind(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		data := registerPage(kind, gateway.RegistrationPayload{})
		data.Error = gateway.InvalidRegistrationMessage
		s.render(w, r, http.StatusBadRequest, "register", data)
		return
	}

	form := r.PostForm
	payload := gateway.RegistrationPayload{
		Username:        form.Get("username"),
		FirstName:       form.Get("firstName"),
		LastName:        form.Get("lastName"),
		DocType:         form.Get("docType"),
		Document:        form.Get("document"),
		Email:           form.Get("email"),
		Telephone:       form.Get("telephone"),
		Password:        form.Get("password"),
		ConfirmPassword: form.Get("confirmPassword"),
		Specialty:       form.Get("specialty"),
	}
	if kind == gateway.KindTherapist {
		card := form.Get("professionalCard") == "true"
		payload.ProfessionalCard = &card
	}

	if err := s.gateway.Register(r.Context(), kind, payload); err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, gateway.ErrInvalidRegistration) {
			status = http.StatusBadRequest
		}
		data := registerPage(kind, payload)
		data.Error = gateway.UserMessage(err)
		s.render(w, r, status, "register", data)
		return
	}

	data := registerPage(kind, gateway.RegistrationPayload{})
	data.Message = gateway.RegistrationOKMessage
	s.render(w, r, http.StatusOK, "register", data)
}

// registerPage builds the form view, never echoing passwords back.
func registerPage(kind gateway.RegistrationKind, form gateway.RegistrationPayload) pageData {
	form.Password = ""
	form.ConfirmPassword = ""
	if form.DocType == "" {
		form.DocType = gateway.DocTypes[0]
	}
	return pageData{
		Title:    registrationTitles[kind],
		Kind:     kind,
		DocTypes: gateway.DocTypes,
		Form:     form,
	}
}
