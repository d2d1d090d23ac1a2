package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holden/retroboard/internal/api/middleware"
	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/session"
	"github.com/holden/retroboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupResolver(t *testing.T) (func(http.Handler) http.Handler, *session.Service, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	svc := session.NewService(db, session.RawTokenCodec{}, nil, nil)
	return middleware.SessionResolver(svc), svc, db
}

// capture returns a handler that records the session it saw.
func capture(got **models.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*got = middleware.GetSession(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionResolver(t *testing.T) {
	resolver, svc, _ := setupResolver(t)
	ctx := testutil.TestContext(t)

	created, err := svc.Initialize(ctx, "", "Resolver Test")
	require.NoError(t, err)

	t.Run("bearer header", func(t *testing.T) {
		var got *models.Session
		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, created.Token)
		rr := httptest.NewRecorder()

		resolver(capture(&got)).ServeHTTP(rr, req)

		require.NotNil(t, got)
		assert.Equal(t, created.Session.ID, got.ID)
	})

	t.Run("cookie", func(t *testing.T) {
		var got *models.Session
		req := testutil.UnauthenticatedRequest(t, "GET", "/", nil)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: created.Token})
		rr := httptest.NewRecorder()

		resolver(capture(&got)).ServeHTTP(rr, req)

		require.NotNil(t, got)
		assert.Equal(t, created.Session.ID, got.ID)
	})

	t.Run("query parameter", func(t *testing.T) {
		var got *models.Session
		req := testutil.UnauthenticatedRequest(t, "GET", "/?token="+created.Token, nil)
		rr := httptest.NewRecorder()

		resolver(capture(&got)).ServeHTTP(rr, req)

		require.NotNil(t, got)
		assert.Equal(t, created.Session.ID, got.ID)
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		other, err := svc.Initialize(ctx, "", "Other")
		require.NoError(t, err)

		var got *models.Session
		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, created.Token)
		req.AddCookie(&http.Cookie{Name: "session_token", Value: other.Token})
		rr := httptest.NewRecorder()

		resolver(capture(&got)).ServeHTTP(rr, req)

		require.NotNil(t, got)
		assert.Equal(t, created.Session.ID, got.ID)
	})

	t.Run("no token passes through anonymous", func(t *testing.T) {
		var got *models.Session
		req := testutil.UnauthenticatedRequest(t, "GET", "/", nil)
		rr := httptest.NewRecorder()

		resolver(capture(&got)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, got)
	})

	t.Run("bad token passes through anonymous", func(t *testing.T) {
		var got *models.Session
		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, "garbage")
		rr := httptest.NewRecorder()

		resolver(capture(&got)).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Nil(t, got)
	})
}

func TestRequireSession(t *testing.T) {
	resolver, svc, _ := setupResolver(t)
	ctx := testutil.TestContext(t)

	created, err := svc.Initialize(ctx, "", "Guarded")
	require.NoError(t, err)

	handler := resolver(middleware.RequireSession(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("allows resolved sessions", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, created.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects anonymous requests", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireAccount(t *testing.T) {
	resolver, svc, _ := setupResolver(t)
	ctx := testutil.TestContext(t)

	handler := resolver(middleware.RequireAccount(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	t.Run("allows linked sessions", func(t *testing.T) {
		created, err := svc.Initialize(ctx, "", "Linked")
		require.NoError(t, err)
		_, err = svc.UpgradeToAccount(ctx, created.Session.ID, "linked@example.com", "", "")
		require.NoError(t, err)

		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, created.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects unlinked sessions", func(t *testing.T) {
		created, err := svc.Initialize(ctx, "", "Unlinked")
		require.NoError(t, err)

		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, created.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rejects anonymous requests", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

func TestRequireRole(t *testing.T) {
	resolver, svc, _ := setupResolver(t)
	ctx := testutil.TestContext(t)

	handler := resolver(middleware.RequireRole(models.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	linkAs := func(t *testing.T, role, email string) string {
		created, err := svc.Initialize(ctx, "", "Role Test")
		require.NoError(t, err)
		_, err = svc.UpgradeToAccount(ctx, created.Session.ID, email, "", role)
		require.NoError(t, err)
		return created.Token
	}

	t.Run("allows admin accounts", func(t *testing.T) {
		token := linkAs(t, models.RoleAdmin, "admin@example.com")

		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("rejects member accounts", func(t *testing.T) {
		token := linkAs(t, models.RoleMember, "plain@example.com")

		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rejects unlinked sessions", func(t *testing.T) {
		created, err := svc.Initialize(ctx, "", "No Account")
		require.NoError(t, err)

		req := testutil.AuthenticatedRequest(t, "GET", "/", nil, created.Token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("rejects anonymous requests", func(t *testing.T) {
		req := testutil.UnauthenticatedRequest(t, "GET", "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
