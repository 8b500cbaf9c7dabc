package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/credentio/credential-system/internal/api/metrics"
	"github.com/credentio/credential-system/internal/api/token"
	"github.com/credentio/credential-system/internal/core/domain"
	"github.com/credentio/credential-system/internal/core/ports"
)

type AuthHandler struct {
	service  ports.CredentialService
	issuer   *token.Issuer
	sessions ports.SessionStore
}

// NewAuthHandler builds the handler. sessions may be nil, in which case
// issued tokens live until their natural expiry and logout is a no-op.
func NewAuthHandler(service ports.CredentialService, issuer *token.Issuer, sessions ports.SessionStore) *AuthHandler {
	return &AuthHandler{service: service, issuer: issuer, sessions: sessions}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email,omitempty"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token string          `json:"token,omitempty"`
	User  *domain.Account `json:"user,omitempty"`
}

// Register creates a new account. The response never carries the hash or
// salt; the Account JSON tags exclude them as a second line of defence.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.Register(c.Request().Context(), req.Username, req.Password, req.Email)
	if err != nil {
		metrics.RegistrationsTotal.WithLabelValues(registerLabel(err)).Inc()
		return err
	}

	metrics.RegistrationsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusCreated, authResponse{User: account})
}

// Login authenticates the account and issues a bearer token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.service.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginLabel(err)).Inc()
		return err
	}

	tok, sessionID, err := h.issuer.Issue(account.Username)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return err
	}
	if h.sessions != nil {
		if err := h.sessions.Save(c.Request().Context(), sessionID, account.Username, h.issuer.TTL()); err != nil {
			metrics.LoginAttemptsTotal.WithLabelValues("error").Inc()
			return err
		}
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	return c.JSON(http.StatusOK, authResponse{Token: tok, User: account})
}

// Logout revokes the current bearer session.
func (h *AuthHandler) Logout(c echo.Context) error {
	if h.sessions != nil {
		sessionID, _ := c.Get("session_id").(string)
		if sessionID != "" {
			if err := h.sessions.Delete(c.Request().Context(), sessionID); err != nil {
				return err
			}
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func registerLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrUserExists):
		return "user_exists"
	case errors.Is(err, domain.ErrInvalidUsername):
		return "invalid_username"
	case errors.Is(err, domain.ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, domain.ErrInvalidEmail):
		return "invalid_email"
	default:
		return "error"
	}
}

func loginLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	default:
		return "error"
	}
}
