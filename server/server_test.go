package server_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robodex/robodex-backend/auth"
	"github.com/robodex/robodex-backend/auth/cache"
	"github.com/robodex/robodex-backend/codehost"
	"github.com/robodex/robodex-backend/gateway/gatewayfake"
	"github.com/robodex/robodex-backend/internal/config"
	"github.com/robodex/robodex-backend/internal/upstream"
	"github.com/robodex/robodex-backend/internal/utils"
	"github.com/robodex/robodex-backend/members"
	"github.com/robodex/robodex-backend/members/repofake"
	"github.com/robodex/robodex-backend/server"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type fixture struct {
	srv        *server.Server
	gw         *gatewayfake.Gateway
	repo       *repofake.FakeMemberRepo
	authorizer *auth.Authorizer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := config.Defaults()
	cfg.Env.Env = config.EnvProd
	cfg.Security.JWTSecret = testSecret

	repo := repofake.NewFakeMemberRepo(
		members.Member{MemberID: "m-admin", Name: "ada", Password: "lovelace", Clearance: utils.Ptr(5)},
		members.Member{MemberID: "m-four", Name: "bo", Password: "builder", Clearance: utils.Ptr(4)},
		members.Member{MemberID: "m-zero", Name: "cy", Password: "cypher", Clearance: utils.Ptr(0)},
		members.Member{MemberID: "m-none", Name: "ed", Password: "edison"},
	)
	svc, err := members.NewService(repo, members.WithHashedPasswords(true))
	require.NoError(t, err)
	authorizer, err := auth.NewAuthorizer(cfg.Security.Secret(), repo,
		auth.WithClearanceCache(cache.NewMemory(time.Minute)))
	require.NoError(t, err)

	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/rover/issues":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"number":7,"title":"Motor stalls"}]`)
		case "/repos/acme/huge/issues":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `["`+strings.Repeat("x", 9<<20)+`"]`)
		case "/repos/acme/rover/contributors":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `[{"login":"ada"}]`)
		default:
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"message":"Not Found"}`)
		}
	}))
	t.Cleanup(gh.Close)
	ch, err := codehost.New(gh.URL)
	require.NoError(t, err)

	gw := gatewayfake.New()
	srv, err := server.New(cfg, server.Backends{
		Gateway:    gw,
		Members:    svc,
		Authorizer: authorizer,
		CodeHost:   ch,
	}, server.WithRegistry(prometheus.NewRegistry()))
	require.NoError(t, err)

	return &fixture{srv: srv, gw: gw, repo: repo, authorizer: authorizer}
}

func (f *fixture) do(t *testing.T, method, target, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

func (f *fixture) tokenFor(t *testing.T, memberID, name string) string {
	t.Helper()
	raw, err := f.authorizer.Issue(memberID, name)
	require.NoError(t, err)
	return raw
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func paramsJSON(t *testing.T, params any) string {
	t.Helper()
	data, err := json.Marshal(params)
	require.NoError(t, err)
	return string(data)
}

func TestNew(t *testing.T) {
	_, err := server.New(nil, server.Backends{})
	require.Error(t, err)
	_, err = server.New(config.Defaults(), server.Backends{})
	require.Error(t, err)
}

func TestLoginAndMe(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/login", "", `{"name":"ada","password":"lovelace"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode[map[string]string](t, rec)
	require.NotEmpty(t, login["token"])
	require.Len(t, strings.Split(login["token"], "."), 3)

	rec = f.do(t, http.MethodGet, "/me", login["token"], "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"member_id":"m-admin","name":"ada"}`, rec.Body.String())

	t.Run("without header", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/me", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized", rec.Body.String())
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "bearer "+login["token"])
		rec := httptest.NewRecorder()
		f.srv.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("tampered token", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/me", login["token"]+"x", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized", rec.Body.String())
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login", "", `{"name":"ada","password":"babbage"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Unauthorized", rec.Body.String())
	})

	t.Run("unknown member", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login", "", `{"name":"zed","password":"lovelace"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/login", "", `{"name":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid request body", rec.Body.String())
	})
}

func TestProjectNotFound(t *testing.T) {
	f := newFixture(t)
	f.gw.Seed("projects", gatewayfake.Row{"project_id": 7, "project_name": "Rover"})
	tok := f.tokenFor(t, "m-zero", "cy")

	rec := f.do(t, http.MethodGet, "/projects/42", tok, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "Project not found", rec.Body.String())

	rec = f.do(t, http.MethodGet, "/projects/7", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"project_id":7,"project_name":"Rover"}`, rec.Body.String())

	call, ok := f.gw.LastCall("projects")
	require.True(t, ok)
	require.Equal(t, "project_id=eq.7&select=%2A", call.Query)
}

func TestProjectAnalyticsIsDistinctFromProject(t *testing.T) {
	f := newFixture(t)
	f.gw.SetResult("project_analytics", map[string]any{"issued": 3})
	tok := f.tokenFor(t, "m-zero", "cy")

	rec := f.do(t, http.MethodGet, "/projects/42/analytics", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"issued":3}`, rec.Body.String())

	call, ok := f.gw.LastCall("project_analytics")
	require.True(t, ok)
	require.JSONEq(t, `{"p_project_id":"42"}`, paramsJSON(t, call.Params))
}

func TestCors(t *testing.T) {
	f := newFixture(t)

	t.Run("preflight", func(t *testing.T) {
		rec := f.do(t, http.MethodOptions, "/anything/at/all", "", "")
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.Empty(t, rec.Body.String())
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		require.Equal(t, "GET, POST, PATCH, DELETE, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
		require.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("error responses carry headers", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/projects", "", "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestNotFound(t *testing.T) {
	f := newFixture(t)

	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/nope?x=1"},
		{http.MethodPost, "/me"},
		{http.MethodGet, "/github/acme/rover/commits"},
	} {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.target, "", "")
			require.Equal(t, http.StatusNotFound, rec.Code)
			body := decode[map[string]string](t, rec)
			require.Equal(t, "Not Found", body["error"])
			require.Equal(t, tc.method, body["method"])
			require.Equal(t, strings.SplitN(tc.target, "?", 2)[0], body["path"])
			require.Equal(t, "http://example.com"+tc.target, body["url"])
			require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestClearanceGating(t *testing.T) {
	f := newFixture(t)
	event := `{"event_name":"Demo day","event_description":"Show and tell","event_datetime":"2026-11-01T18:00:00Z"}`

	t.Run("below admin threshold", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/events", f.tokenFor(t, "m-four", "bo"), event)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Insufficient clearance", rec.Body.String())
		_, called := f.gw.LastCall("create_event")
		require.False(t, called)
	})

	t.Run("at admin threshold", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/events", f.tokenFor(t, "m-admin", "ada"), event)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.JSONEq(t, `{"success":true}`, rec.Body.String())

		call, ok := f.gw.LastCall("create_event")
		require.True(t, ok)
		require.JSONEq(t, `{
			"p_event_name":"Demo day",
			"p_event_description":"Show and tell",
			"p_event_datetime":"2026-11-01T18:00:00Z",
			"p_created_by":"m-admin"
		}`, paramsJSON(t, call.Params))
	})

	t.Run("zero clearance reads", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/events", f.tokenFor(t, "m-zero", "cy"), "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("absent clearance is denied", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/events", f.tokenFor(t, "m-none", "ed"), "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Insufficient clearance", rec.Body.String())
	})

	t.Run("unknown member is denied", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/events", f.tokenFor(t, "m-ghost", "gh"), "")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, "Insufficient clearance", rec.Body.String())
	})

	t.Run("identity routes skip the lookup", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/me", f.tokenFor(t, "m-ghost", "gh"), "")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member store failure is a 500", func(t *testing.T) {
		f.repo.FailWith(&upstream.Error{Upstream: "gateway", Status: 503, Body: "down"})
		defer f.repo.FailWith(nil)
		rec := f.do(t, http.MethodGet, "/kanban", f.tokenFor(t, "m-none", "ed"), "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode[map[string]string](t, rec)
		require.Equal(t, "upstream", body["kind"])
		require.Contains(t, body["error"], "503 - down")
	})
}

func TestAdminRoutes(t *testing.T) {
	f := newFixture(t)
	admin := f.tokenFor(t, "m-admin", "ada")
	member := f.tokenFor(t, "m-zero", "cy")

	cases := []struct {
		method, target, body, fn string
	}{
		{http.MethodPost, "/projects", `{"project_name":"Rover","pool":1}`, "create_project"},
		{http.MethodPost, "/pools", `{"name":"Robotics","managers":["m-admin"]}`, "create_pool"},
		{http.MethodDelete, "/events/9", "", "delete_event"},
		{http.MethodPost, "/kanban", `{"title":"Doing","position":2}`, "upsert_kanban_column"},
		{http.MethodDelete, "/kanban/3", "", "delete_kanban_column"},
	}
	for _, tc := range cases {
		t.Run(tc.method+" "+tc.target, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.target, member, tc.body)
			require.Equal(t, http.StatusUnauthorized, rec.Code)

			rec = f.do(t, tc.method, tc.target, admin, tc.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			_, ok := f.gw.LastCall(tc.fn)
			require.True(t, ok)
		})
	}

	t.Run("create project forwards the rpc result", func(t *testing.T) {
		f.gw.SetResult("create_project", map[string]any{"project_id": 12})
		rec := f.do(t, http.MethodPost, "/projects", admin, `{"project_name":"Arm","github_repo":"acme/arm"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"project_id":12}`, rec.Body.String())
		call, _ := f.gw.LastCall("create_project")
		require.JSONEq(t, `{
			"p_project_name":"Arm",
			"p_description":null,
			"p_pool":null,
			"p_github_repo":"acme/arm",
			"p_notion_page_id":null
		}`, paramsJSON(t, call.Params))
	})

	t.Run("delete event by path id", func(t *testing.T) {
		call, _ := f.gw.LastCall("delete_event")
		require.JSONEq(t, `{"p_event_id":"9"}`, paramsJSON(t, call.Params))
	})

	t.Run("patch event", func(t *testing.T) {
		f.gw.Seed("events", gatewayfake.Row{"event_id": 9, "event_name": "Old", "event_datetime": "2026-01-01"})
		rec := f.do(t, http.MethodPatch, "/events/9", admin, `{"event_name":"New","created_by":"someone"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		call, ok := f.gw.LastCall("events")
		require.True(t, ok)
		require.Equal(t, "PATCH", call.Method)
		require.Equal(t, "event_id=eq.9", call.Query)
		require.JSONEq(t, `"New"`, paramsJSON(t, f.gw.Rows("events")[0]["event_name"]))
		require.NotContains(t, call.Fields, "created_by")

		rec = f.do(t, http.MethodPatch, "/events/9", admin, `{"created_by":"someone"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = f.do(t, http.MethodPatch, "/events/does-not-exist", admin, `{"event_name":"New"}`)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Event not found", rec.Body.String())
	})

	t.Run("missing required field", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/projects", admin, `{"description":"no name"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Invalid request body", rec.Body.String())
	})
}

func TestBorrowing(t *testing.T) {
	f := newFixture(t)
	tok := f.tokenFor(t, "m-zero", "cy")
	f.gw.Seed("issues",
		gatewayfake.Row{"issue_id": 1, "member_id": "m-zero", "issued_date": "2026-01-02", "item_no": "A1", "returned": false},
		gatewayfake.Row{"issue_id": 2, "member_id": "m-admin", "issued_date": "2026-01-03", "item_no": "A1", "returned": true},
		gatewayfake.Row{"issue_id": 3, "member_id": "m-zero", "issued_date": "2026-01-05", "item_no": "B2", "returned": false},
	)

	t.Run("my issues newest first", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/my-issues", tok, "")
		require.Equal(t, http.StatusOK, rec.Code)
		rows := decode[[]map[string]any](t, rec)
		require.Len(t, rows, 2)
		require.EqualValues(t, 3, rows[0]["issue_id"])
		require.EqualValues(t, 1, rows[1]["issue_id"])

		call, _ := f.gw.LastCall("issues")
		require.Equal(t, "member_id=eq.m-zero&order=issued_date.desc&select=%2A", call.Query)
	})

	t.Run("open issues for an item", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/issues?item_no=eq.A1&returned=eq.false&order=issue_id.desc", tok, "")
		require.Equal(t, http.StatusOK, rec.Code)
		rows := decode[[]map[string]any](t, rec)
		require.Len(t, rows, 1)
		require.EqualValues(t, 1, rows[0]["issue_id"])
	})

	t.Run("issue items on behalf of the caller", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/issue", tok, `{"project_id":7,"items":[{"item_no":"A1","quantity":2}],"member_id":"m-admin"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		require.JSONEq(t, `{"success":true}`, rec.Body.String())
		call, _ := f.gw.LastCall("issue_items")
		require.JSONEq(t, `{
			"p_member_id":"m-zero",
			"p_project_id":7,
			"p_items":[{"item_no":"A1","quantity":2}],
			"p_return_date":null
		}`, paramsJSON(t, call.Params))
	})

	t.Run("full and partial return", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/full", tok, `{"issue_id":"i-1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		call, _ := f.gw.LastCall("return_issue")
		require.JSONEq(t, `{"p_issue_id":"i-1"}`, paramsJSON(t, call.Params))

		rec = f.do(t, http.MethodPost, "/partial", tok, `{"issue_id":"i-1","items":[{"item_no":"A1","quantity":1}]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		call, _ = f.gw.LastCall("return_items")
		require.JSONEq(t, `{"p_issue_id":"i-1","p_items":[{"item_no":"A1","quantity":1}]}`, paramsJSON(t, call.Params))

		rec = f.do(t, http.MethodPost, "/partial", tok, `{"issue_id":"i-1"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rpc failure is a 500", func(t *testing.T) {
		f.gw.FailWith("return_issue", &upstream.Error{Upstream: "gateway", Status: 400, Body: "issue already returned"})
		rec := f.do(t, http.MethodPost, "/full", tok, `{"issue_id":"i-1"}`)
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decode[map[string]string](t, rec)
		require.Equal(t, "upstream", body["kind"])
		require.Contains(t, body["error"], "issue already returned")
	})

	t.Run("transport failure", func(t *testing.T) {
		f.gw.FailWith("pools", &upstream.TransportError{Upstream: "gateway", Op: "send", Err: errors.New("connection refused")})
		rec := f.do(t, http.MethodGet, "/pools", tok, "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "transport", decode[map[string]string](t, rec)["kind"])
	})
}

func TestRegistry(t *testing.T) {
	f := newFixture(t)
	tok := f.tokenFor(t, "m-zero", "cy")
	f.gw.Seed("inventory",
		gatewayfake.Row{"item_no": "A1", "name": "Servo", "quantity": 10},
		gatewayfake.Row{"item_no": "B2", "name": "Battery", "quantity": 3},
	)

	t.Run("filters are sanitized", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/registry?item_no=eq.A1&select=secret&limit=1&owner=eq.x&quantity=drop", tok, "")
		require.Equal(t, http.StatusOK, rec.Code)
		rows := decode[[]map[string]any](t, rec)
		require.Len(t, rows, 1)
		call, _ := f.gw.LastCall("inventory")
		require.Equal(t, "item_no=eq.A1&select=%2A", call.Query)
	})

	t.Run("item detail", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/registry/B2", tok, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `{"item_no":"B2","name":"Battery","quantity":3}`, rec.Body.String())

		rec = f.do(t, http.MethodGet, "/registry/Z9", tok, "")
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, "Item not found", rec.Body.String())
	})

	t.Run("empty table is an empty list", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/kanban", tok, "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `[]`, rec.Body.String())
	})
}

func TestMembers(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/members", f.tokenFor(t, "m-zero", "cy"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "password")
	require.NotContains(t, rec.Body.String(), "lovelace")
	list := decode[[]map[string]any](t, rec)
	require.Len(t, list, 4)
	require.Equal(t, "m-admin", list[0]["member_id"])
	require.EqualValues(t, 5, list[0]["clearance"])
}

func TestUpdatePassword(t *testing.T) {
	f := newFixture(t)
	tok := f.tokenFor(t, "m-admin", "ada")

	// Warm the clearance cache.
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/projects", tok, "").Code)
	lookups := f.repo.Lookups()

	rec := f.do(t, http.MethodPost, "/update-password", tok, `{"current_password":"lovelace","new_password":"analytical"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	require.Equal(t, true, body["success"])
	fresh, _ := body["token"].(string)
	require.NotEmpty(t, fresh)

	stored, _ := f.repo.Stored("m-admin")
	require.True(t, members.IsHashed(stored.Password))

	rec = f.do(t, http.MethodGet, "/projects", fresh, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, lookups+1, f.repo.Lookups(), "cached clearance is dropped on password change")

	require.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodPost, "/login", "", `{"name":"ada","password":"lovelace"}`).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/login", "", `{"name":"ada","password":"analytical"}`).Code)

	t.Run("rules", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/update-password", fresh, `{"current_password":"wrong","new_password":"whatever"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "Current password is incorrect", rec.Body.String())

		rec = f.do(t, http.MethodPost, "/update-password", fresh, `{"current_password":"analytical","new_password":"abc"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		rec = f.do(t, http.MethodPost, "/update-password", fresh, `{"current_password":"analytical","new_password":"analytical"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires a credential", func(t *testing.T) {
		rec := f.do(t, http.MethodPost, "/update-password", "", `{"current_password":"a","new_password":"bbbbbbbb"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCodeHostProxy(t *testing.T) {
	f := newFixture(t)
	tok := f.tokenFor(t, "m-zero", "cy")

	rec := f.do(t, http.MethodGet, "/github/acme/rover", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"number":7,"title":"Motor stalls"}]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/github/acme/rover/contributors", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[{"login":"ada"}]`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/github/acme/rover/pulls", tok, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"message":"Not Found"}`, rec.Body.String())

	rec = f.do(t, http.MethodGet, "/github/acme/rover", "", "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	t.Run("oversized body is not forwarded", func(t *testing.T) {
		rec := f.do(t, http.MethodGet, "/github/acme/huge", tok, "")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "transport", decode[map[string]string](t, rec)["kind"])
	})
}

func TestDebug(t *testing.T) {
	f := newFixture(t)
	req := httptest.NewRequest(http.MethodGet, "/debug?probe=1", nil)
	req.Header.Set("Authorization", "Bearer "+f.tokenFor(t, "m-ghost", "gh"))
	req.Header.Set("X-Probe", "yes")
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotContains(t, rec.Body.String(), "Bearer")
	body := decode[map[string]any](t, rec)
	require.Equal(t, "/debug", body["path"])
	require.Equal(t, "http://example.com/debug?probe=1", body["url"])
	headers, _ := body["headers"].(map[string]any)
	require.Equal(t, "yes", headers["X-Probe"])
	claims, _ := body["claims"].(map[string]any)
	require.Equal(t, "m-ghost", claims["member_id"])
}

func TestRecoverMiddleware(t *testing.T) {
	f := newFixture(t)
	f.srv.RegisterRoute(server.Route{
		Method: http.MethodGet,
		Path:   "/boom",
		Access: server.AccessPublic,
		Handler: func(w http.ResponseWriter, r *http.Request) {
			panic("kaboom")
		},
	})

	rec := f.do(t, http.MethodGet, "/boom", "", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"kaboom","kind":"string"}`, rec.Body.String())
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	t.Run("after the response started", func(t *testing.T) {
		f.srv.RegisterRoute(server.Route{
			Method: http.MethodGet,
			Path:   "/late-boom",
			Access: server.AccessPublic,
			Handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				_, _ = io.WriteString(w, "partial")
				panic("kaboom")
			},
		})

		rec := f.do(t, http.MethodGet, "/late-boom", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "partial", rec.Body.String())
	})
}

func TestOperationalRoutes(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/healthz", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec = httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	require.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))

	rec = f.do(t, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `robodex_http_requests_total{code="200",method="get",route="GET /healthz"} 2`)
}

func TestRouteTable(t *testing.T) {
	f := newFixture(t)
	access := map[string]server.Access{}
	for _, r := range f.srv.Routes() {
		access[r.Pattern()] = r.Access
	}

	require.Equal(t, server.AccessPublic, access["POST /login"])
	require.Equal(t, server.AccessIdentity, access["GET /me"])
	require.Equal(t, server.AccessIdentity, access["POST /update-password"])
	require.Equal(t, server.AccessIdentity, access["GET /debug"])
	for _, pattern := range []string{"POST /projects", "POST /pools", "POST /events", "PATCH /events/{id}", "DELETE /events/{id}", "POST /kanban", "DELETE /kanban/{id}"} {
		require.Equal(t, server.AccessAdmin, access[pattern], pattern)
	}
	for _, pattern := range []string{"GET /registry", "GET /issues", "GET /my-issues", "POST /issue", "POST /full", "POST /partial", "GET /projects/{id}/analytics"} {
		require.Equal(t, server.AccessMember, access[pattern], pattern)
	}
}
