package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/holden/retroboard/internal/database/models"
	"github.com/holden/retroboard/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teamPayload struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	InviteCode string `json:"invite_code"`
}

type memberPayload struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
}

type detailsPayload struct {
	Team    teamPayload     `json:"team"`
	Members []memberPayload `json:"members"`
}

// registerAccount initializes a session and upgrades it, returning the
// bearer token.
func registerAccount(t *testing.T, env *testEnv, email, name, role string) string {
	t.Helper()

	created := initSession(t, env, name)

	body := map[string]string{"email": email, "display_name": name, "role": role}
	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/account/upgrade", body, created.Token)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	return created.Token
}

func createTeamVia(t *testing.T, env *testEnv, token, name string) teamPayload {
	t.Helper()

	body := map[string]string{"name": name}
	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/", body, token)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)
	testutil.AssertStatus(t, rr, http.StatusCreated)

	var resp struct {
		Team teamPayload `json:"team"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)
	return resp.Team
}

func TestTeamHandler_Create(t *testing.T) {
	env := setupTestRouter(t)

	adminToken := registerAccount(t, env, "owner@example.com", "Owner", models.RoleAdmin)
	memberToken := registerAccount(t, env, "pleb@example.com", "Pleb", models.RoleMember)

	t.Run("admin creates a team", func(t *testing.T) {
		created := createTeamVia(t, env, adminToken, "Retro Crew")

		assert.Equal(t, "Retro Crew", created.Name)
		assert.Len(t, created.InviteCode, 8)
	})

	t.Run("member accounts are forbidden", func(t *testing.T) {
		body := map[string]string{"name": "Nope"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/", body, memberToken)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("anonymous sessions are forbidden", func(t *testing.T) {
		anon := initSession(t, env, "Anon")

		body := map[string]string{"name": "Nope"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/", body, anon.Token)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("blank name is rejected", func(t *testing.T) {
		body := map[string]string{"name": "  "}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/", body, adminToken)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}

func TestTeamHandler_Join(t *testing.T) {
	env := setupTestRouter(t)

	adminToken := registerAccount(t, env, "founder@example.com", "Founder", models.RoleAdmin)
	created := createTeamVia(t, env, adminToken, "Joinable")

	t.Run("joins by invite code and sees the roster", func(t *testing.T) {
		joinerToken := registerAccount(t, env, "joiner@example.com", "Joiner", models.RoleMember)

		body := map[string]string{"invite_code": created.InviteCode}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/join", body, joinerToken)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp detailsPayload
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, created.ID, resp.Team.ID)
		require.Len(t, resp.Members, 2)

		// Oldest members first: the founder leads the roster
		assert.Equal(t, "Founder", resp.Members[0].DisplayName)
		assert.Equal(t, models.MembershipRoleFacilitator, resp.Members[0].Role)
		assert.Equal(t, "Joiner", resp.Members[1].DisplayName)
		assert.Equal(t, models.MembershipRoleMember, resp.Members[1].Role)
	})

	t.Run("joining twice conflicts", func(t *testing.T) {
		token := registerAccount(t, env, "twice@example.com", "Twice", models.RoleMember)

		body := map[string]string{"invite_code": created.InviteCode}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/join", body, token)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusOK)

		req = testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/join", body, token)
		rr = httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)
		testutil.AssertStatus(t, rr, http.StatusConflict)
	})

	t.Run("malformed code is a bad request", func(t *testing.T) {
		token := registerAccount(t, env, "badcode@example.com", "Bad Code", models.RoleMember)

		body := map[string]string{"invite_code": "short"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/join", body, token)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})

	t.Run("unknown code is not found", func(t *testing.T) {
		token := registerAccount(t, env, "unknown@example.com", "Unknown", models.RoleMember)

		body := map[string]string{"invite_code": "NOSUCH99"}
		req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/teams/join", body, token)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusNotFound)
	})
}

func TestTeamHandler_List(t *testing.T) {
	env := setupTestRouter(t)

	adminToken := registerAccount(t, env, "lister@example.com", "Lister", models.RoleAdmin)

	first := createTeamVia(t, env, adminToken, "First Team")
	second := createTeamVia(t, env, adminToken, "Second Team")

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/teams/", nil, adminToken)
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	testutil.AssertStatus(t, rr, http.StatusOK)

	var resp struct {
		Teams []struct {
			Team teamPayload `json:"team"`
			Role string      `json:"role"`
		} `json:"teams"`
	}
	testutil.ParseJSONResponse(t, rr, &resp)

	require.Len(t, resp.Teams, 2)
	ids := []string{resp.Teams[0].Team.ID, resp.Teams[1].Team.ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
	assert.Equal(t, models.MembershipRoleFacilitator, resp.Teams[0].Role)
}

func TestTeamHandler_Details(t *testing.T) {
	env := setupTestRouter(t)

	adminToken := registerAccount(t, env, "detail@example.com", "Detail Admin", models.RoleAdmin)
	created := createTeamVia(t, env, adminToken, "Detailed")

	t.Run("member sees the roster", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/teams/"+created.ID, nil, adminToken)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusOK)

		var resp detailsPayload
		testutil.ParseJSONResponse(t, rr, &resp)
		assert.Equal(t, "Detailed", resp.Team.Name)
		require.Len(t, resp.Members, 1)
		assert.Equal(t, "detail@example.com", resp.Members[0].Email)
	})

	t.Run("non-members are forbidden", func(t *testing.T) {
		outsiderToken := registerAccount(t, env, "outsider@example.com", "Outsider", models.RoleMember)

		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/teams/"+created.ID, nil, outsiderToken)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusForbidden)
	})

	t.Run("garbage id is a bad request", func(t *testing.T) {
		req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/teams/not-a-uuid", nil, adminToken)
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		testutil.AssertStatus(t, rr, http.StatusBadRequest)
	})
}
