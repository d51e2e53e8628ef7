package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/emclab/station-booking/internal/config"
	"github.com/emclab/station-booking/internal/database"
	"github.com/emclab/station-booking/internal/model"
	"github.com/emclab/station-booking/internal/repository"
	"github.com/emclab/station-booking/internal/utils"
)

func newAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.InitUserSchema(context.Background(), db))
	t.Cleanup(func() { _ = db.Close() })

	logger := zerolog.Nop()
	cfg := config.Config{
		JWTSecret:      "handler-test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
	return NewAuthHandler(cfg, repository.NewUserRepo(db, &logger), &logger)
}

func seedAccount(t *testing.T, h *AuthHandler, username, password string) {
	t.Helper()
	hash, err := utils.HashPassword(password, h.Cfg.BcryptCost)
	require.NoError(t, err)
	_, err = h.Users.Create(context.Background(), model.UserInput{
		UserName:    username,
		FullName:    "Zhang Wei",
		MachineName: "emc-ws-01",
		Team:        "EMC",
		Role:        model.RoleEngineer,
	}, hash)
	require.NoError(t, err)
}

func postJSON(t *testing.T, handlerFn echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, handlerFn(e.NewContext(req, rec)))
	return rec
}

func decodeTokens(t *testing.T, rec *httptest.ResponseRecorder) tokenResp {
	t.Helper()
	var resp tokenResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestLogin(t *testing.T) {
	h := newAuthHandler(t)
	seedAccount(t, h, "zhangwei", "secret-pass")

	rec := postJSON(t, h.Login, `{"username":"zhangwei","password":"secret-pass"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeTokens(t, rec)
	assert.NotEmpty(t, resp.Token)
	assert.Len(t, resp.RefreshToken, 88)
	assert.Positive(t, resp.ExpiresIn)
	assert.Equal(t, "zhangwei", resp.User.UserName)

	claims, err := utils.ParseToken(h.Cfg.JWTSecret, resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "Engineer", claims.Role)
}

func TestLoginUniformFailures(t *testing.T) {
	h := newAuthHandler(t)
	seedAccount(t, h, "zhangwei", "secret-pass")

	wrongPass := postJSON(t, h.Login, `{"username":"zhangwei","password":"nope"}`)
	unknownUser := postJSON(t, h.Login, `{"username":"ghost","password":"nope"}`)

	assert.Equal(t, http.StatusUnauthorized, wrongPass.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownUser.Code)
	// Same body either way so callers cannot probe for usernames.
	assert.JSONEq(t, wrongPass.Body.String(), unknownUser.Body.String())
}

func TestLoginDisabledAccount(t *testing.T) {
	h := newAuthHandler(t)
	seedAccount(t, h, "zhangwei", "secret-pass")
	u, err := h.Users.ByUsername(context.Background(), "zhangwei")
	require.NoError(t, err)
	require.NoError(t, h.Users.SetActive(context.Background(), u.ID, false))

	rec := postJSON(t, h.Login, `{"username":"zhangwei","password":"secret-pass"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRefreshRotation(t *testing.T) {
	h := newAuthHandler(t)
	seedAccount(t, h, "zhangwei", "secret-pass")

	login := decodeTokens(t, postJSON(t, h.Login, `{"username":"zhangwei","password":"secret-pass"}`))

	body, err := json.Marshal(refreshReq{Token: login.Token, RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	rec := postJSON(t, h.RefreshToken, string(body))
	require.Equal(t, http.StatusOK, rec.Code)
	rotated := decodeTokens(t, rec)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	// The first refresh token was consumed by the rotation.
	rec = postJSON(t, h.RefreshToken, string(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The rotated pair still works.
	body, err = json.Marshal(refreshReq{Token: rotated.Token, RefreshToken: rotated.RefreshToken})
	require.NoError(t, err)
	rec = postJSON(t, h.RefreshToken, string(body))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	h := newAuthHandler(t)
	seedAccount(t, h, "zhangwei", "secret-pass")
	login := decodeTokens(t, postJSON(t, h.Login, `{"username":"zhangwei","password":"secret-pass"}`))

	forged, err := utils.NewAccessToken("wrong-secret", 1, "zhangwei", "Engineer", "", "", 15)
	require.NoError(t, err)
	body, _ := json.Marshal(refreshReq{Token: forged.Token, RefreshToken: login.RefreshToken})
	rec := postJSON(t, h.RefreshToken, string(body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// A refresh presented after its access token expired must still succeed:
// only the signature is checked on that path.
func TestRefreshAcceptsExpiredAccessToken(t *testing.T) {
	h := newAuthHandler(t)
	seedAccount(t, h, "zhangwei", "secret-pass")
	login := decodeTokens(t, postJSON(t, h.Login, `{"username":"zhangwei","password":"secret-pass"}`))

	u, err := h.Users.ByUsername(context.Background(), "zhangwei")
	require.NoError(t, err)
	expired, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.UserName, u.Role, u.FullName, u.Team, -5)
	require.NoError(t, err)

	body, _ := json.Marshal(refreshReq{Token: expired.Token, RefreshToken: login.RefreshToken})
	rec := postJSON(t, h.RefreshToken, string(body))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	h := newAuthHandler(t)
	seedAccount(t, h, "zhangwei", "secret-pass")
	login := decodeTokens(t, postJSON(t, h.Login, `{"username":"zhangwei","password":"secret-pass"}`))

	body, _ := json.Marshal(refreshReq{RefreshToken: login.RefreshToken})
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(body)))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Logout(e.NewContext(req, rec)))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	body, _ = json.Marshal(refreshReq{Token: login.Token, RefreshToken: login.RefreshToken})
	refresh := postJSON(t, h.RefreshToken, string(body))
	assert.Equal(t, http.StatusBadRequest, refresh.Code)
}

// An access token alone must not be enough to revoke a session: logout has
// to present the live refresh token, exactly like the refresh flow.
func TestLogoutRejectsMismatchedRefreshToken(t *testing.T) {
	h := newAuthHandler(t)
	seedAccount(t, h, "zhangwei", "secret-pass")
	login := decodeTokens(t, postJSON(t, h.Login, `{"username":"zhangwei","password":"secret-pass"}`))

	logout := func(refreshToken string) *httptest.ResponseRecorder {
		body, err := json.Marshal(refreshReq{RefreshToken: refreshToken})
		require.NoError(t, err)
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(string(body)))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		req.Header.Set("Authorization", "Bearer "+login.Token)
		rec := httptest.NewRecorder()
		require.NoError(t, h.Logout(e.NewContext(req, rec)))
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, logout("not-the-stored-token").Code)
	assert.Equal(t, http.StatusBadRequest, logout("").Code)

	// The stored token must survive the failed attempts.
	u, err := h.Users.ByUsername(context.Background(), "zhangwei")
	require.NoError(t, err)
	assert.Equal(t, login.RefreshToken, u.RefreshToken)

	body, _ := json.Marshal(refreshReq{Token: login.Token, RefreshToken: login.RefreshToken})
	refresh := postJSON(t, h.RefreshToken, string(body))
	assert.Equal(t, http.StatusOK, refresh.Code)
}
