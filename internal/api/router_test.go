package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/leadflow/role-service/internal/api/handler"
	"github.com/leadflow/role-service/internal/core/access"
	"github.com/leadflow/role-service/internal/core/domain"
	"github.com/leadflow/role-service/internal/core/ports"
	"github.com/leadflow/role-service/internal/infrastructure/auth"
)

type memProfiles struct {
	byUID map[string]*domain.Profile
}

func (m *memProfiles) Create(context.Context, *domain.Profile) error { return nil }

func (m *memProfiles) FindByUID(_ context.Context, uid string) (*domain.Profile, error) {
	p, ok := m.byUID[uid]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	c := *p
	return &c, nil
}

func (m *memProfiles) List(context.Context) ([]*domain.Profile, error) {
	out := make([]*domain.Profile, 0, len(m.byUID))
	for _, p := range m.byUID {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProfiles) MergeRole(context.Context, string, domain.Role, time.Time) error { return nil }

func (m *memProfiles) SetActive(context.Context, string, bool, time.Time) error { return nil }

type memRevocations struct{ revoked map[string]bool }

func (m *memRevocations) Revoke(_ context.Context, id string, _ time.Duration) error {
	m.revoked[id] = true
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	return m.revoked[id], nil
}

type fakeRoleService struct{ fail error }

func (f *fakeRoleService) AssignRole(_ context.Context, in ports.AssignRoleInput) (*ports.AssignRoleResult, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	role, _ := in.Role.(string)
	uid, _ := in.TargetUID.(string)
	return &ports.AssignRoleResult{TargetUID: uid, Role: domain.Role(role)}, nil
}

type fakeUserService struct{ profiles *memProfiles }

func (f *fakeUserService) List(ctx context.Context) ([]*domain.Profile, error) {
	return f.profiles.List(ctx)
}

func (f *fakeUserService) SetActive(context.Context, *domain.TokenClaims, string, bool) (*domain.Profile, error) {
	return nil, domain.ErrProfileNotFound
}

type routerFixture struct {
	e      *echo.Echo
	issuer *auth.JWTIssuer
	roles  *fakeRoleService
}

const testOrigin = "http://localhost:3000"

func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	profiles := &memProfiles{byUID: map[string]*domain.Profile{
		"admin-1": {UID: "admin-1", Role: "Admin", IsActive: true},
		"exec-1":  {UID: "exec-1", Role: "Executive", IsActive: true},
		"gone-1":  {UID: "gone-1", Role: "Master", IsActive: false},
	}}
	revs := &memRevocations{revoked: map[string]bool{}}
	issuer := auth.NewJWTIssuer("secret", "leadflow", time.Hour)
	roles := &fakeRoleService{}

	e := NewRouter(Dependencies{
		Log:         zerolog.Nop(),
		CORSOrigin:  testOrigin,
		Verifier:    issuer,
		Revocations: revs,
		Resolver:    access.NewResolver(profiles, revs, zerolog.Nop()),
		RoleService: roles,
		UserService: &fakeUserService{profiles: profiles},
		ReadinessChecks: map[string]handler.PingFunc{
			"mongodb": func(context.Context) error { return nil },
		},
		Metrics: prometheus.NewRegistry(),
	})
	return &routerFixture{e: e, issuer: issuer, roles: roles}
}

func (f *routerFixture) token(t *testing.T, uid, role string) string {
	t.Helper()
	claims := map[string]any{}
	if role != "" {
		claims[domain.ClaimRole] = role
	}
	raw, _, err := f.issuer.Issue(&domain.Account{UID: uid, CustomClaims: claims})
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return raw
}

func (f *routerFixture) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestRouter_AssignRole_Success(t *testing.T) {
	f := newRouterFixture(t)

	for _, path := range []string{assignRolePath, legacyAssignRolePath} {
		rec := f.do(http.MethodPost, path, f.token(t, "admin-1", "Admin"), `{"uid":"U1","role":"Master"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, rec.Code, rec.Body.String())
		}
		body := decodeEnvelope(t, rec)
		if body["success"] != true || body["message"] != "Role updated to Master" {
			t.Fatalf("%s: unexpected body %v", path, body)
		}
	}
}

func TestRouter_AssignRole_MethodNotAllowed(t *testing.T) {
	f := newRouterFixture(t)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		rec := f.do(method, assignRolePath, "", "")
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s: expected 405, got %d", method, rec.Code)
		}
		body := decodeEnvelope(t, rec)
		if body["success"] != false || body["error"] != "Method not allowed" {
			t.Fatalf("%s: unexpected body %v", method, body)
		}
	}
}

func TestRouter_AssignRole_Preflight(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodOptions, assignRolePath, nil)
	req.Header.Set(echo.HeaderOrigin, testOrigin)
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPost)
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowOrigin); got != testOrigin {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if got := rec.Header().Get(echo.HeaderAccessControlAllowMethods); got != "POST,OPTIONS" {
		t.Fatalf("unexpected allow-methods %q", got)
	}
}

func TestRouter_AssignRole_Unauthenticated(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodPost, assignRolePath, "", `{"uid":"U1","role":"Master"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := decodeEnvelope(t, rec); body["success"] != false {
		t.Fatalf("unexpected body %v", body)
	}

	rec = f.do(http.MethodPost, assignRolePath, "garbage", `{"uid":"U1","role":"Master"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for invalid token, got %d", rec.Code)
	}
}

func TestRouter_AssignRole_ErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
		msg  string
	}{
		{domain.NewValidationError("Missing parameters. Expected { uid, role }"), http.StatusBadRequest, "Missing parameters. Expected { uid, role }"},
		{domain.ErrInvalidRole, http.StatusBadRequest, "Invalid role. Allowed: Admin, TeamAdmin, Master, Executive"},
		{domain.ErrForbidden, http.StatusForbidden, "Only Admins can assign roles."},
		{domain.ErrRateLimited, http.StatusTooManyRequests, "Too many role changes. Try again later."},
		{domain.ErrTargetNotFound, http.StatusBadRequest, "Target user not found"},
		{domain.ErrTargetDisabled, http.StatusBadRequest, "Target user is disabled"},
		{context.DeadlineExceeded, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		f := newRouterFixture(t)
		f.roles.fail = tt.err

		rec := f.do(http.MethodPost, assignRolePath, f.token(t, "exec-1", "Executive"), `{"uid":"U1","role":"Master"}`)
		if rec.Code != tt.code {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.code, rec.Code)
		}
		body := decodeEnvelope(t, rec)
		if body["success"] != false || body["error"] != tt.msg {
			t.Fatalf("%v: unexpected body %v", tt.err, body)
		}
	}
}

func TestRouter_PageGuard(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(http.MethodGet, "/v1/pages/dashboard", f.token(t, "admin-1", ""), "")
	if rec.Code != http.StatusOK {
		t.Fatalf("admin on dashboard: expected 200, got %d", rec.Code)
	}

	rec = f.do(http.MethodGet, "/v1/pages/dashboard", f.token(t, "exec-1", ""), "")
	if rec.Code != http.StatusForbidden || decodeEnvelope(t, rec)["redirect"] != "/tasks" {
		t.Fatalf("executive on dashboard: expected 403 to /tasks, got %d %s", rec.Code, rec.Body.String())
	}

	rec = f.do(http.MethodGet, "/v1/pages/tasks", f.token(t, "gone-1", "Master"), "")
	if rec.Code != http.StatusUnauthorized || decodeEnvelope(t, rec)["redirect"] != "/login" {
		t.Fatalf("inactive user: expected 401 to /login, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestRouter_UsersRequireAdmin(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(http.MethodGet, "/v1/users", f.token(t, "admin-1", "Admin"), ""); rec.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/v1/users", f.token(t, "exec-1", "Executive"), ""); rec.Code != http.StatusForbidden {
		t.Fatalf("executive: expected 403, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/v1/users", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", rec.Code)
	}
}

func TestRouter_Health(t *testing.T) {
	f := newRouterFixture(t)

	if rec := f.do(http.MethodGet, "/health", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("liveness: expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/health/ready", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("readiness: expected 200, got %d", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", rec.Code)
	}
}
