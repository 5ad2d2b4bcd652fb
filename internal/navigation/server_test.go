package navigation

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/psico-client/internal/access"
	"github.com/nerrad567/psico-client/internal/gateway"
	"github.com/nerrad567/psico-client/internal/infrastructure/config"
	"github.com/nerrad567/psico-client/internal/infrastructure/logging"
	"github.com/nerrad567/psico-client/internal/session"
)

// mintToken signs a token the way the backend would. The client never checks the key.
func mintToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-only-secret"))
	require.NoError(t, err)
	return token
}

type testEnv struct {
	server  *Server
	handler http.Handler
	session *session.Session
	mu sync.Mutex
	// backendToken is what the fake backend issues on login
	backendToken string
	registered   []string
}

func (e *testEnv) issue(token string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.backendToken = token
}

func (e *testEnv) registeredKinds() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.registered...)
}

// newTestEnv wires a Server to a fake backend.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{}

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/auth/authenticate":
			var creds gateway.Credentials
			_ = json.NewDecoder(r.Body).Decode(&creds)
			env.mu.Lock()
			token := env.backendToken
			env.mu.Unlock()
			if creds.Password != "correct" || token == "" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]string{"jwt": token})
		case strings.HasPrefix(r.URL.Path, "/api/app/v1/"):
			env.mu.Lock()
			env.registered = append(env.registered, strings.TrimPrefix(r.URL.Path, "/api/app/v1/"))
			env.mu.Unlock()
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(backend.Close)

	logger := logging.Discard()
	store := session.NewTokenStore(context.Background(), session.NewMemoryStorage(), logger)
	env.session = session.New(store, logger)

	gw := gateway.New(config.APIConfig{
		BaseURL: backend.URL + "/api",
		AppURL:  backend.URL + "/api/app/v1",
		Timeout: 5,
	}, store, logger)

	srv, err := New(Deps{
		Config: config.UIConfig{
			Host:     "127.0.0.1",
			Port:     0,
			Timeouts: config.UITimeoutConfig{Read: 5, Write: 5, Idle: 5},
		},
		Session: env.session,
		Guard:   access.NewGuard(env.session, logger),
		Gateway: gw,
		Logger:  logger,
	})
	require.NoError(t, err)

	env.server = srv
	env.handler = srv.Handler()
	return env
}

func (e *testEnv) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// loginAs stores a token directly, skipping the backend. An empty role
// yields a session without a role claim.
func (e *testEnv) loginAs(t *testing.T, role string) {
	t.Helper()
	claims := jwt.MapClaims{"sub": "tester"}
	if role != "" {
		claims["role"] = role
	}
	e.session.Store().Set(mintToken(t, claims))
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, want string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, want, rec.Header().Get("Location"))
}

func TestNew_RequiresDeps(t *testing.T) {
	_, err := New(Deps{})
	assert.Error(t, err)

	_, err = New(Deps{Logger: logging.Discard()})
	assert.Error(t, err)
}

func TestProtectedRoutes_NoSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/admin", "/admin/buildings", "/therapist", "/patient", "/user"} {
		assertRedirect(t, env.do(t, http.MethodGet, path, nil), "/login")
	}
}

func TestProtectedRoutes_ByRole(t *testing.T) {
	tests := []struct {
		role    string
		allowed []string
		denied  []string
	}{
		{"ADMIN", []string{"/admin", "/admin/reservations", "/user"}, []string{"/therapist", "/patient"}},
		{"TERAPEUTA", []string{"/therapist"}, []string{"/admin", "/patient", "/user"}},
		{"PACIENTE", []string{"/patient"}, []string{"/admin", "/therapist", "/user"}},
		{"USUARIO", []string{"/user"}, []string{"/admin", "/admin/users", "/therapist", "/patient"}},
		{"", nil, []string{"/admin", "/therapist", "/patient", "/user"}},
	}

	for _, tt := range tests {
		t.Run("role "+tt.role, func(t *testing.T) {
			env := newTestEnv(t)
			env.loginAs(t, tt.role)

			for _, path := range tt.allowed {
				rec := env.do(t, http.MethodGet, path, nil)
				assert.Equal(t, http.StatusOK, rec.Code, "GET %s", path)
			}
			for _, path := range tt.denied {
				assertRedirect(t, env.do(t, http.MethodGet, path, nil), "/forbidden")
			}
		})
	}
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)
	env.issue(mintToken(t, jwt.MapClaims{"sub": "ana", "role": "TERAPEUTA"}))

	rec := env.do(t, http.MethodPost, "/login", url.Values{"username": {"ana"}, "password": {"correct"}})
	assertRedirect(t, rec, "/therapist")
	assert.True(t, env.session.IsLoggedIn())

	page := env.do(t, http.MethodGet, "/therapist", nil)
	require.Equal(t, http.StatusOK, page.Code)
	assert.Contains(t, page.Body.String(), "Panel del terapeuta")
	assert.Contains(t, page.Body.String(), "ana")

	// Already logged in: the login page forwards home
	assertRedirect(t, env.do(t, http.MethodGet, "/login", nil), "/therapist")

	assertRedirect(t, env.do(t, http.MethodPost, "/logout", nil), "/login")
	assert.False(t, env.session.IsLoggedIn())
	assertRedirect(t, env.do(t, http.MethodGet, "/therapist", nil), "/login")
}

func TestLogin_Failure(t *testing.T) {
	env := newTestEnv(t)
	env.issue(mintToken(t, jwt.MapClaims{"role": "ADMIN"}))

	rec := env.do(t, http.MethodPost, "/login", url.Values{"username": {"ana"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), gateway.LoginFailedMessage)
	assert.Contains(t, rec.Body.String(), `value="ana"`)
	assert.False(t, env.session.IsLoggedIn())
}

func TestLogin_EmptyForm(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/login", url.Values{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), gateway.MissingCredentialsMessage)
}

func TestLoginPage_RolelessSessionSeesForm(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "")

	rec := env.do(t, http.MethodGet, "/login", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}

func TestForbiddenPage(t *testing.T) {
	env := newTestEnv(t)
	env.loginAs(t, "PACIENTE")

	rec := env.do(t, http.MethodGet, "/forbidden", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/patient"`)
}

func TestFallbackRedirects(t *testing.T) {
	env := newTestEnv(t)

	assertRedirect(t, env.do(t, http.MethodGet, "/", nil), "/login")
	assertRedirect(t, env.do(t, http.MethodGet, "/no/such/page", nil), "/login")
}

func TestRegistration(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/register", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, kind := range gateway.RegistrationKinds {
		assert.Contains(t, rec.Body.String(), "/register/"+string(kind))
	}

	assertRedirect(t, env.do(t, http.MethodGet, "/register/admin", nil), "/register")

	rec = env.do(t, http.MethodGet, "/register/therapist", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "professionalCard")

	form := url.Values{
		"username":        {"luis"},
		"firstName":       {"Luis"},
		"lastName":        {"Rojas"},
		"docType":         {"CE"},
		"document":        {"998877"},
		"email":           {"luis@example.com"},
		"telephone":       {"3100000000"},
		"password":        {"secreto1"},
		"confirmPassword": {"secreto1"},
	}
	rec = env.do(t, http.MethodPost, "/register/patient", form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Registro completado")
	assert.Equal(t, []string{"patient"}, env.registeredKinds())
	assert.False(t, env.session.IsLoggedIn())

	form.Set("confirmPassword", "otra")
	rec = env.do(t, http.MethodPost, "/register/patient", form)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secreto1")
}

func TestHealthAndRequestID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, false, body["logged_in"])

	// Generated when absent
	rec = env.do(t, http.MethodGet, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_StartClose(t *testing.T) {
	env := newTestEnv(t)

	assert.Empty(t, env.server.Addr())
	require.NoError(t, env.server.Start(context.Background()))

	resp, err := http.Get("http://" + env.server.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, env.server.Close())
}
