package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"propertyhub/internal/identity"
	"propertyhub/internal/models"
	"propertyhub/internal/policy"
	"propertyhub/internal/repository"
)

type stubProvider struct {
	identity.Provider
	tokens map[string]identity.Identity
}

func (p stubProvider) GetUser(_ context.Context, token string) (identity.Identity, error) {
	ident, ok := p.tokens[token]
	if !ok {
		return identity.Identity{}, identity.ErrUnauthenticated
	}
	return ident, nil
}

type stubUsers map[string]models.User

func (s stubUsers) FindByEmail(_ context.Context, email string) (models.User, error) {
	if email == "broken@example.com" {
		return models.User{}, errors.New("db down")
	}
	user, ok := s[email]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return user, nil
}

func newRouter(op policy.Operation) *gin.Engine {
	gin.SetMode(gin.TestMode)
	provider := stubProvider{tokens: map[string]identity.Identity{
		"admin-token":  {ID: "i1", Email: "admin@example.com"},
		"tenant-token": {ID: "i2", Email: "tenant@example.com"},
		"ghost-token":  {ID: "i3", Email: "ghost@example.com"},
		"broken-token": {ID: "i4", Email: "broken@example.com"},
	}}
	users := stubUsers{
		"admin@example.com":  {ID: "u1", Email: "admin@example.com", Role: models.UserRoleAdmin},
		"tenant@example.com": {ID: "u2", Email: "tenant@example.com", Role: models.UserRoleTenant},
	}

	r := gin.New()
	r.Use(RequestID(zerolog.Nop()))
	r.GET("/thing", Authenticate(provider, users, "ph_session"), Authorize(op), func(c *gin.Context) {
		user, _ := CurrentUser(c)
		c.String(http.StatusOK, user.ID)
	})
	return r
}

func call(r *gin.Engine, setup func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/thing", nil)
	if setup != nil {
		setup(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func TestAuthenticateAndAuthorize(t *testing.T) {
	r := newRouter(policy.EventsUpdate)

	assert.Equal(t, http.StatusUnauthorized, call(r, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(r, bearer("bogus")).Code)
	assert.Equal(t, http.StatusForbidden, call(r, bearer("ghost-token")).Code)
	assert.Equal(t, http.StatusInternalServerError, call(r, bearer("broken-token")).Code)
	assert.Equal(t, http.StatusForbidden, call(r, bearer("tenant-token")).Code)

	w := call(r, bearer("admin-token"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())
}

func TestSessionCookie(t *testing.T) {
	r := newRouter(policy.MeRead)
	w := call(r, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: "ph_session", Value: "tenant-token", Expires: time.Now().Add(time.Hour)})
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u2", w.Body.String())
}

func TestRequestIDEcho(t *testing.T) {
	r := newRouter(policy.MeRead)

	w := call(r, func(req *http.Request) { req.Header.Set("X-Request-Id", "abc") })
	assert.Equal(t, "abc", w.Header().Get("X-Request-Id"))

	w = call(r, nil)
	assert.Len(t, w.Header().Get("X-Request-Id"), 36)
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS([]string{"https://app.example.com"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "PUT")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery(zerolog.Nop()))
	r.GET("/panic", func(*gin.Context) { panic("kaboom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"error":"kaboom"}`, w.Body.String())
}

func TestLoggerUsesRequestScopedLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	r := gin.New()
	r.Use(RequestID(zerolog.New(&buf)), Logger())
	r.GET("/api/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-Id", "req-42")
	r.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	assert.Contains(t, line, `"request_id":"req-42"`)
	assert.Contains(t, line, `"level":"error"`)
	assert.Contains(t, line, `"route":"/boom"`)
}
