package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/payment-portal/internal/domain"
	"github.com/spec-kit/payment-portal/internal/session"
	apperrors "github.com/spec-kit/payment-portal/pkg/util"
)

type stubStore struct {
	records map[string]*session.Record
	getErr  error
	lastCtx context.Context
}

func newStubStore() *stubStore {
	return &stubStore{records: make(map[string]*session.Record)}
}

func (s *stubStore) Get(ctx context.Context, id string) (*session.Record, error) {
	s.lastCtx = ctx
	if s.getErr != nil {
		return nil, s.getErr
	}
	rec, ok := s.records[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	clone := *rec
	return &clone, nil
}

func (s *stubStore) Save(_ context.Context, rec *session.Record, _ time.Duration) error {
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func (s *stubStore) Touch(_ context.Context, rec *session.Record, _ time.Duration) error {
	clone := *rec
	s.records[rec.ID] = &clone
	return nil
}

func (s *stubStore) Destroy(_ context.Context, id string) error {
	delete(s.records, id)
	return nil
}

func newTestApp(t *testing.T, store *stubStore) *fiber.App {
	t.Helper()

	manager := session.NewManager(store, 15*time.Minute, 30*time.Minute, zap.NewNop())
	middleware := NewSessionMiddleware(manager, "sessionId", false)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{
				"error": fiber.Map{"code": domainErr.Code, "message": domainErr.Message},
			})
		},
	})

	protected := app.Group("", middleware.Handle)
	protected.Get("/me", func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		require.True(t, ok)
		return c.JSON(fiber.Map{"id": principal.ID, "role": principal.Role})
	})
	protected.Get("/admin-only", RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	protected.Get("/staff", RequireRole(domain.RoleEmployee, domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func seedSession(store *stubStore, id string, role domain.Role, age time.Duration) {
	created := time.Now().Add(-age)
	store.records[id] = &session.Record{
		ID: id,
		User: &session.Snapshot{
			PrincipalID: "principal-1",
			Kind:        domain.PrincipalKindEmployee,
			Role:        role,
			FullName:    "Test Principal",
		},
		CreatedAt:    created,
		LastActivity: created,
	}
}

func doRequest(t *testing.T, app *fiber.App, path, cookie string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "sessionId", Value: cookie})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Error.Code
}

func TestHandleRejectsMissingCookie(t *testing.T) {
	app := newTestApp(t, newStubStore())

	resp := doRequest(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "NOT_AUTHENTICATED", errorCode(t, resp))
}

func TestHandleRejectsUnknownSession(t *testing.T) {
	app := newTestApp(t, newStubStore())

	resp := doRequest(t, app, "/me", "deadbeef")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "NOT_AUTHENTICATED", errorCode(t, resp))
}

func TestHandleExpiredSessionDestroysAndReportsTimeout(t *testing.T) {
	store := newStubStore()
	app := newTestApp(t, store)
	seedSession(store, "stale", domain.RoleEmployee, time.Hour)

	resp := doRequest(t, app, "/me", "stale")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "SESSION_TIMEOUT", errorCode(t, resp))

	// the record is gone, so a retry downgrades to not-authenticated
	resp = doRequest(t, app, "/me", "stale")
	assert.Equal(t, "NOT_AUTHENTICATED", errorCode(t, resp))
}

func TestHandleAttachesPrincipal(t *testing.T) {
	store := newStubStore()
	app := newTestApp(t, store)
	seedSession(store, "live", domain.RoleEmployee, time.Minute)

	resp := doRequest(t, app, "/me", "live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "principal-1", body.ID)
	assert.Equal(t, string(domain.RoleEmployee), body.Role)
}

func TestRequireRoleIsNotHierarchical(t *testing.T) {
	store := newStubStore()
	app := newTestApp(t, store)
	seedSession(store, "emp", domain.RoleEmployee, time.Minute)

	// an employee reaches the shared staff route
	resp := doRequest(t, app, "/staff", "emp")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// but never the admin-only route
	resp = doRequest(t, app, "/admin-only", "emp")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(t, resp))
}

func TestHandleValidatesWithRequestScopedContext(t *testing.T) {
	store := newStubStore()
	seedSession(store, "live", domain.RoleEmployee, time.Minute)

	manager := session.NewManager(store, 15*time.Minute, 30*time.Minute, zap.NewNop())
	middleware := NewSessionMiddleware(manager, "sessionId", false)

	type ctxKey struct{}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.SetUserContext(context.WithValue(c.UserContext(), ctxKey{}, "request-scoped"))
		return c.Next()
	})
	app.Get("/me", middleware.Handle, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	resp := doRequest(t, app, "/me", "live")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// the store must see the request-scoped context, not a detached one
	require.NotNil(t, store.lastCtx)
	assert.Equal(t, "request-scoped", store.lastCtx.Value(ctxKey{}))
}

func TestHandleKeepsCookieOnStoreFailure(t *testing.T) {
	store := newStubStore()
	app := newTestApp(t, store)
	seedSession(store, "live", domain.RoleEmployee, time.Minute)
	store.getErr = errors.New("connection refused")

	resp := doRequest(t, app, "/me", "live")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, resp))

	// a transient store failure must not log the client out
	assert.Empty(t, resp.Header.Get("Set-Cookie"))

	store.getErr = nil
	resp = doRequest(t, app, "/me", "live")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHandleClearsCookieOnExpiry(t *testing.T) {
	store := newStubStore()
	app := newTestApp(t, store)
	seedSession(store, "stale", domain.RoleEmployee, time.Hour)

	resp := doRequest(t, app, "/me", "stale")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "sessionId=")
}

func TestRequireRoleAdmitsAdmin(t *testing.T) {
	store := newStubStore()
	app := newTestApp(t, store)
	seedSession(store, "adm", domain.RoleAdmin, time.Minute)

	resp := doRequest(t, app, "/admin-only", "adm")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doRequest(t, app, "/staff", "adm")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}
