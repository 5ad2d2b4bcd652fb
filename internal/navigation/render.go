package navigation

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/nerrad567/psico-client/internal/access"
	"github.com/nerrad567/psico-client/internal/gateway"
	"github.com/nerrad567/psico-client/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

// pageNames are the content templates; each is parsed together with layout.html.
var pageNames = []string{"login", "forbidden", "area", "register_select", "register"}

// pageData is the single view model shared by every page.
type pageData struct {
	Title    string
	Message  string
	Error    string
	LoggedIn bool
	Role     string
	Subject  string
	Home     string

	// login
	Username string

	// area pages
	Route   access.Route
	Section string

	// registration
	Kinds    []gateway.RegistrationKind
	Kind     gateway.RegistrationKind
	DocTypes []string
	Form     gateway.RegistrationPayload
}

func parseTemplates() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// render executes a page into a buffer first so a template error never
// produces a half-written response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, data pageData) {
	s.fillSession(&data)

	tmpl, ok := s.pages[page]
	if !ok {
		s.logger.Error("unknown page", "page", page)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		s.logger.Error("rendering page failed",
			"page", page,
			"error", err,
			"request_id", requestIDFrom(r.Context()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w) //nolint:errcheck // Connection may be closed
}

// fillSession copies the current session onto the page header fields.
func (s *Server) fillSession(data *pageData) {
	data.LoggedIn = s.session.IsLoggedIn()
	role, ok := s.session.Role()
	if ok {
		data.Role = string(role)
	}
	if data.Home == "" {
		data.Home = access.HomePath(role, ok)
	}
	if claims, ok := s.session.Claims(); ok {
		if sub, ok := session.Subject(claims); ok {
			data.Subject = sub
		}
	}
}

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}
