package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"propertyhub/internal/config"
	"propertyhub/internal/handlers"
	"propertyhub/internal/identity"
	"propertyhub/internal/models"
	"propertyhub/internal/queue"
	"propertyhub/internal/testutil"
)

type nopStore struct{}

func (nopStore) Bucket() string { return "documents" }

func (nopStore) Put(_ context.Context, _ string, body io.Reader, _ int64, _ string) (int64, error) {
	return io.Copy(io.Discard, body)
}

func (nopStore) PresignGet(_ context.Context, key, _ string) (*url.URL, error) {
	return &url.URL{Scheme: "https", Host: "files.test", Path: "/" + key}, nil
}

func (nopStore) Remove(context.Context, string) error { return nil }

type jobRecorder struct {
	mu   sync.Mutex
	jobs []queue.Job
}

func (r *jobRecorder) Publish(_ context.Context, job queue.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, job)
	return nil
}

type testApp struct {
	engine   *gin.Engine
	db       *gorm.DB
	provider *identity.LocalProvider
	jobs     *jobRecorder
	cfg      *config.AppConfig
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.AppConfig{
		Environment: "test",
		Security: config.SecurityConfig{
			SessionSecret:   "session-secret",
			SessionTTL:      time.Hour,
			CookieName:      "ph_session",
			SignatureSecret: "signature-secret",
		},
		Storage: config.StorageConfig{MaxUploadBytes: 1 << 20},
	}
	db := testutil.NewDB(t)
	provider := identity.NewLocalProvider(db, cfg.Security.SessionSecret, cfg.Security.SessionTTL)
	jobs := &jobRecorder{}
	log := zerolog.Nop()

	handlerSet := handlers.NewHandlerSet(log, db, nil, nopStore{}, provider, jobs, cfg)
	return &testApp{
		engine:   NewEngine(cfg, log, handlerSet),
		db:       db,
		provider: provider,
		jobs:     jobs,
		cfg:      cfg,
	}
}

// login creates a user row plus identity for role and returns a bearer token.
func (a *testApp) login(t *testing.T, email string, role models.UserRole) (models.User, string) {
	t.Helper()
	user := models.User{Email: email, Name: email, Role: role}
	require.NoError(t, a.db.Create(&user).Error)
	_, err := a.provider.SignUp(context.Background(), email, "password123")
	require.NoError(t, err)
	session, err := a.provider.IssueSession(context.Background(), email)
	require.NoError(t, err)
	return user, session.Token
}

func (a *testApp) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (a *testApp) seedEvent(t *testing.T) (models.Resource, models.Event) {
	t.Helper()
	resource := models.Resource{Label: "Building A", Type: models.ResourceTypeBuilding}
	require.NoError(t, a.db.Create(&resource).Error)
	event := models.Event{
		Label:      "Move in",
		Type:       models.EventTypeMoveIn,
		Status:     models.EventStatusPending,
		ResourceID: resource.ID,
		StartDate:  time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, a.db.Create(&event).Error)
	return resource, event
}

func eventPayload(resourceID string) map[string]any {
	return map[string]any{
		"label":      "Lease",
		"type":       "LEASE_AGREEMENT",
		"status":     "PENDING",
		"resourceId": resourceID,
		"startDate":  "2024-01-01T00:00:00.000Z",
	}
}

func TestUpdateEventAsAdmin(t *testing.T) {
	app := newTestApp(t)
	_, token := app.login(t, "admin@example.com", models.UserRoleAdmin)
	resource, event := app.seedEvent(t)

	w, body := app.do(t, http.MethodPut, "/api/events/"+event.ID, token, eventPayload(resource.ID))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, true, body["success"])
	got := body["event"].(map[string]any)
	assert.Equal(t, "Lease", got["label"])
	assert.Equal(t, "LEASE_AGREEMENT", got["type"])
	assert.Equal(t, "2024-01-01T00:00:00.000Z", got["startDate"])
}

func TestUpdateEventAsTenantIsForbidden(t *testing.T) {
	app := newTestApp(t)
	_, token := app.login(t, "tenant@example.com", models.UserRoleTenant)
	resource, event := app.seedEvent(t)

	w, body := app.do(t, http.MethodPut, "/api/events/"+event.ID, token, eventPayload(resource.ID))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Forbidden", body["error"])

	var stored models.Event
	require.NoError(t, app.db.First(&stored, "id = ?", event.ID).Error)
	assert.Equal(t, "Move in", stored.Label)
}

func TestUpdateEventValidationAndNotFound(t *testing.T) {
	app := newTestApp(t)
	_, token := app.login(t, "admin@example.com", models.UserRoleAdmin)
	resource, event := app.seedEvent(t)

	invalid := eventPayload(resource.ID)
	invalid["type"] = "PARTY"
	delete(invalid, "label")
	w, body := app.do(t, http.MethodPut, "/api/events/"+event.ID, token, invalid)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", body["error"])
	details, ok := body["details"].([]any)
	require.True(t, ok, "details should list the failing fields")
	assert.Len(t, details, 2)

	w, body = app.do(t, http.MethodPut, "/api/events/missing", token, eventPayload(resource.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Event not found", body["error"])

	w, body = app.do(t, http.MethodPut, "/api/events/"+event.ID, token, eventPayload("missing"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Property not found.", body["error"])
}

func TestDeletePropertyWithChild(t *testing.T) {
	app := newTestApp(t)
	_, token := app.login(t, "pm@example.com", models.UserRolePropertyManager)

	w, body := app.do(t, http.MethodPost, "/api/properties", token, map[string]any{"label": "Tower", "type": "BUILDING"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	parentID := body["property"].(map[string]any)["id"].(string)

	w, _ = app.do(t, http.MethodPost, "/api/properties", token, map[string]any{"label": "Flat 1", "type": "UNIT", "parentId": parentID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body = app.do(t, http.MethodDelete, "/api/properties/"+parentID, token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Cannot delete property with child properties. Please delete or reassign child properties first.", body["error"])
}

func TestAuthenticationAndRouting(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(t, http.MethodGet, "/api/events", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Unauthorized", body["error"])

	w, _ = app.do(t, http.MethodGet, "/api/events", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A valid identity without a user row is not let in.
	_, err := app.provider.SignUp(context.Background(), "ghost@example.com", "password123")
	require.NoError(t, err)
	session, err := app.provider.IssueSession(context.Background(), "ghost@example.com")
	require.NoError(t, err)
	w, _ = app.do(t, http.MethodGet, "/api/me", session.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body = app.do(t, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", body["error"])

	w, body = app.do(t, http.MethodPost, "/api/healthz", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestLoginSetsCookie(t *testing.T) {
	app := newTestApp(t)
	user, _ := app.login(t, "pm@example.com", models.UserRolePropertyManager)

	w, body := app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "pm@example.com", "password": "password123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, user.ID, body["user"].(map[string]any)["id"])

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "ph_session", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	app.engine.ServeHTTP(me, req)
	assert.Equal(t, http.StatusOK, me.Code)

	w, body = app.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{"email": "pm@example.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", body["error"])
}

func TestJoinRequestFlow(t *testing.T) {
	app := newTestApp(t)
	_, token := app.login(t, "admin@example.com", models.UserRoleAdmin)

	w, body := app.do(t, http.MethodPost, "/api/join-requests", "", map[string]any{
		"email":         "new@example.com",
		"name":          "New Tenant",
		"requestedRole": "TENANT",
		"password":      "long-enough",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	request := body["joinRequest"].(map[string]any)
	assert.NotContains(t, request, "passwordHash")

	w, _ = app.do(t, http.MethodPost, "/api/join-requests/"+request["id"].(string)+"/approve", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, app.jobs.jobs, 1)
	assert.Equal(t, queue.JobJoinRequestApproved, app.jobs.jobs[0].Type)

	w, body = app.do(t, http.MethodPost, "/api/join-requests/"+request["id"].(string)+"/reject", token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Join request has already been reviewed.", body["error"])
}

func TestHealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	w, body := app.do(t, http.MethodGet, "/api/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, "disabled", body["cache"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	m := httptest.NewRecorder()
	app.engine.ServeHTTP(m, req)
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `propertyhub_http_requests_total{method="GET",route="/api/healthz",status="200"} 1`)
}
