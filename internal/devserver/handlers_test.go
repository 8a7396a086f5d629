package devserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sansoyunu/sansoyunu/pkg/types"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv := New(ctx, zap.NewNop())
	return srv, srv.Handler()
}

func doJSON(t *testing.T, handler http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func signupToken(t *testing.T, srv *Server, name string) string {
	t.Helper()
	resp, err := srv.Store.Signup(types.SignupRequest{Username: name, Password: "pw", Age: 25})
	require.NoError(t, err)
	return resp.Token
}

func TestHandleLogin_BadCredentialsShape(t *testing.T) {
	srv, handler := newTestServer(t)
	signupToken(t, srv, "mel")

	rec := doJSON(t, handler, http.MethodPost, "/api/auth/login/", "", `{"username":"mel","password":"wrong"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// failed logins use the non_field_errors list shape, not detail
	var body map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []string{"Unable to log in with provided credentials."}, body["non_field_errors"])
}

func TestAuthMiddleware(t *testing.T) {
	srv, handler := newTestServer(t)
	token := signupToken(t, srv, "mel")

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Bearer " + token, want: http.StatusUnauthorized},
		{name: "bogus token", header: "Token nope", want: http.StatusUnauthorized},
		{name: "valid token", header: "Token " + token, want: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			require.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestHandleRoomCreate_BetAmountValidation(t *testing.T) {
	srv, handler := newTestServer(t)
	token := signupToken(t, srv, "mel")

	cases := []struct {
		name       string
		body       string
		wantStatus int
		wantDetail string
	}{
		{name: "missing field", body: `{}`, wantStatus: 400, wantDetail: "bet_amount is required"},
		{name: "non numeric", body: `{"bet_amount":"fifty"}`, wantStatus: 400, wantDetail: "bet_amount must be an integer"},
		{name: "fractional", body: `{"bet_amount":50.5}`, wantStatus: 400, wantDetail: "bet_amount must be an integer"},
		{name: "out of range", body: `{"bet_amount":5000}`, wantStatus: 400, wantDetail: "bet_amount out of allowed range"},
		{name: "valid", body: `{"bet_amount":50}`, wantStatus: 201},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, handler, http.MethodPost, "/api/rooms/", token, tc.body)
			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantDetail != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				require.Equal(t, tc.wantDetail, body["detail"])
			}
		})
	}
}

func TestHandleRoomJoin_DetailMessages(t *testing.T) {
	srv, handler := newTestServer(t)
	melToken := signupToken(t, srv, "mel")
	ayseToken := signupToken(t, srv, "ayse")
	cemToken := signupToken(t, srv, "cem")

	rec := doJSON(t, handler, http.MethodPost, "/api/rooms/", melToken, `{"bet_amount":50}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var room types.RoomListItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &room))

	rec = doJSON(t, handler, http.MethodPost, "/api/rooms/999/join/", ayseToken, "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, handler, http.MethodPost, "/api/rooms/1/join/", melToken, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Cannot join your own room")

	rec = doJSON(t, handler, http.MethodPost, "/api/rooms/1/join/", ayseToken, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Joined room successfully")

	rec = doJSON(t, handler, http.MethodPost, "/api/rooms/1/join/", cemToken, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Room is full")
}

func TestHandleBetSettings(t *testing.T) {
	srv, handler := newTestServer(t)
	token := signupToken(t, srv, "mel")

	rec := doJSON(t, handler, http.MethodGet, "/api/admin/bet-settings/", token, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var settings types.BetSettings
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &settings))
	require.Equal(t, types.BetSettings{MinBet: 10, MaxBet: 500, Step: 10}, settings)
}
