package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/credentio/credential-system/internal/api/metrics"
	"github.com/credentio/credential-system/internal/core/domain"
	"github.com/credentio/credential-system/internal/core/ports"
)

const defaultPageSize = 50

type UserHandler struct {
	service  ports.CredentialService
	sessions ports.SessionStore
}

func NewUserHandler(service ports.CredentialService, sessions ports.SessionStore) *UserHandler {
	return &UserHandler{service: service, sessions: sessions}
}

type changePasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required"`
}

type updateAccountRequest struct {
	Email    *string `json:"email,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type listUsersResponse struct {
	Users  []*domain.Profile `json:"users"`
	Total  int64             `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
}

// Me returns the profile of the authenticated account.
func (h *UserHandler) Me(c echo.Context) error {
	username, _ := c.Get("username").(string)

	profile, err := h.service.GetProfile(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// ChangePassword replaces the authenticated account's password. The new
// password goes through the same strength rules as registration.
func (h *UserHandler) ChangePassword(c echo.Context) error {
	username, _ := c.Get("username").(string)

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.ChangePassword(c.Request().Context(), username, req.NewPassword); err != nil {
		return err
	}

	metrics.PasswordChangesTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// Update applies a partial update to the authenticated account. Absent
// fields are left untouched; an empty patch is a successful no-op.
func (h *UserHandler) Update(c echo.Context) error {
	username, _ := c.Get("username").(string)

	var req updateAccountRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.service.UpdateAccount(c.Request().Context(), username, req.Email, req.IsActive); err != nil {
		return err
	}

	profile, err := h.service.GetProfile(c.Request().Context(), username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Delete removes the authenticated account and revokes the current session.
func (h *UserHandler) Delete(c echo.Context) error {
	username, _ := c.Get("username").(string)

	if err := h.service.DeleteAccount(c.Request().Context(), username); err != nil {
		return err
	}

	if h.sessions != nil {
		if sessionID, _ := c.Get("session_id").(string); sessionID != "" {
			// Best effort. If this fails the token still dies at its expiry.
			_ = h.sessions.Delete(c.Request().Context(), sessionID)
		}
	}

	metrics.AccountsDeletedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// List returns a page of account profiles, newest first.
func (h *UserHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", defaultPageSize)
	offset := queryInt(c, "offset", 0)
	if limit < 0 || offset < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "limit and offset must not be negative")
	}

	ctx := c.Request().Context()
	users, err := h.service.ListAccounts(ctx, limit, offset)
	if err != nil {
		return err
	}
	total, err := h.service.CountAccounts(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, listUsersResponse{
		Users:  users,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func queryInt(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
