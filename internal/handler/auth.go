package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/emclab/station-booking/internal/config"
	"github.com/emclab/station-booking/internal/middleware"
	"github.com/emclab/station-booking/internal/model"
	"github.com/emclab/station-booking/internal/repository"
	"github.com/emclab/station-booking/internal/utils"
)

// AuthHandler bundles the dependencies of the auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Logger *zerolog.Logger
}

func NewAuthHandler(cfg config.Config, users *repository.UserRepo, logger *zerolog.Logger) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Logger: logger}
}

// ----- DTOs -----

type loginReq struct {
	UserName string `json:"username"`
	Password string `json:"password"`
}

type refreshReq struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type changePasswordReq struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type resetPasswordReq struct {
	UserID int64 `json:"user_id"`
}

type setActiveReq struct {
	UserID   int64 `json:"user_id"`
	IsActive bool  `json:"is_active"`
}

// tokenResp is the login/refresh response.  ExpiresIn is the access token
// expiry as epoch milliseconds, which is what the calendar front end stores.
type tokenResp struct {
	Token        string     `json:"token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	User         model.User `json:"user"`
}

// issuePair signs a fresh access token and rotates the stored refresh token
// for the user.  The previous refresh token, if any, stops matching the
// moment the new one is written.
func (h *AuthHandler) issuePair(ctx context.Context, u model.User) (tokenResp, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.UserName, u.Role, u.FullName, u.Team, h.Cfg.AccessTTLMin)
	if err != nil {
		return tokenResp{}, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return tokenResp{}, err
	}
	if err := h.Users.UpdateRefreshToken(ctx, u.ID, refresh.Raw, refresh.Exp.UnixMilli()); err != nil {
		return tokenResp{}, err
	}
	return tokenResp{
		Token:        access.Token,
		RefreshToken: refresh.Raw,
		ExpiresIn:    access.Exp.UnixMilli(),
		User:         u,
	}, nil
}

// Login verifies credentials and returns a fresh token pair.  Every failure
// mode answers the same 401 body so callers cannot probe which usernames
// exist or which accounts are disabled.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.UserName = strings.TrimSpace(req.UserName)
	if req.UserName == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByUsername(ctx, req.UserName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !u.IsActive || !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		h.Logger.Error().Err(err).Str("username", u.UserName).Msg("issue token pair")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	_ = h.Users.TouchLastLogin(ctx, u.ID)

	return c.JSON(http.StatusOK, resp)
}

// RefreshToken exchanges an expired access token plus the matching refresh
// token for a new pair.  The access token's signature must verify even though
// its expiry is ignored, and the presented refresh token must equal the
// stored one byte for byte and still be inside its own lifetime.  Rotation
// means a refresh token works exactly once.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || req.Token == "" || req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
	}

	claims, err := utils.ParseExpiredToken(h.Cfg.JWTSecret, req.Token)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
	}
	if !u.IsActive || u.RefreshToken == "" || u.RefreshToken != req.RefreshToken ||
		u.RefreshTokenExpiry <= time.Now().UnixMilli() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
	}

	resp, err := h.issuePair(ctx, u)
	if err != nil {
		h.Logger.Error().Err(err).Int64("user", u.ID).Msg("rotate token pair")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the caller's refresh token.  The access token is parsed
// signature-only so a session whose access token already expired can still
// log out cleanly, but the caller must prove possession of the live refresh
// token: the same equality and expiry check as RefreshToken applies, so a
// leaked access token alone cannot revoke someone else's session.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimPrefix(c.Request().Header.Get("Authorization"), "Bearer ")
	if raw == "" {
		raw = req.Token
	}
	if req.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
	}
	claims, err := utils.ParseExpiredToken(h.Cfg.JWTSecret, raw)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByID(ctx, claims.UserID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
	}
	if u.RefreshToken == "" || u.RefreshToken != req.RefreshToken ||
		u.RefreshTokenExpiry <= time.Now().UnixMilli() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid token"})
	}

	if err := h.Users.UpdateRefreshToken(ctx, u.ID, "", 0); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's current record.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := c.Get(middleware.CtxUserID).(int64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, u)
}

// ChangePassword verifies the old password before rehashing.  The stored
// refresh token is left alone: other sessions stay valid until they expire.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	uid, ok := c.Get(middleware.CtxUserID).(int64)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req changePasswordReq
	if err := c.Bind(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "old/new password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByID(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	if !utils.VerifyPassword(u.PasswordHash, req.OldPassword) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	hash, err := utils.HashPassword(req.NewPassword, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.UpdatePassword(ctx, uid, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "change password failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Create provisions a user account.  The initial password is the machine
// name; new users are expected to change it on first login.
func (h *AuthHandler) Create(c echo.Context) error {
	var in model.UserInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	in.UserName = strings.TrimSpace(in.UserName)
	if in.UserName == "" || in.MachineName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/machinename required"})
	}
	if in.Role == "" {
		in.Role = model.RoleUser
	}

	hash, err := utils.HashPassword(in.MachineName, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Users.Create(ctx, in, hash)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create user failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": id})
}

// List returns every user account.
func (h *AuthHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.All(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list users failed"})
	}
	return c.JSON(http.StatusOK, users)
}

// Remove hard-deletes a user account.
func (h *AuthHandler) Remove(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Remove(ctx, id); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "remove user failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ResetPassword sets a user's password back to their machine name.
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	u, err := h.Users.ByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	hash, err := utils.HashPassword(u.MachineName, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash password failed"})
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "reset password failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// SetActive enables or disables an account.  Disabling blocks both login and
// token refresh on the next attempt.
func (h *AuthHandler) SetActive(c echo.Context) error {
	var req setActiveReq
	if err := c.Bind(&req); err != nil || req.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetActive(ctx, req.UserID, req.IsActive); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update user failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
