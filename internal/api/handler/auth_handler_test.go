package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/credentio/credential-system/internal/api/token"
	"github.com/credentio/credential-system/internal/core/domain"
)

func newTestContext(method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func testIssuer(t *testing.T) *token.Issuer {
	t.Helper()
	return token.NewIssuer("handler-test-secret", time.Hour)
}

func TestRegister_Created(t *testing.T) {
	svc := &stubService{account: testAccount()}
	h := NewAuthHandler(svc, testIssuer(t), nil)

	c, rec := newTestContext(http.MethodPost, "/auth/register",
		`{"username":"alice","password":"Str0ngPass","email":"alice@example.com"}`)
	if err := h.Register(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if _, ok := resp["user"]; !ok {
		t.Fatal("expected user in response")
	}
	if strings.Contains(rec.Body.String(), "password") || strings.Contains(rec.Body.String(), "salt") {
		t.Fatalf("credential material leaked in response: %s", rec.Body.String())
	}
}

func TestRegister_MissingFields(t *testing.T) {
	h := NewAuthHandler(&stubService{}, testIssuer(t), nil)

	c, _ := newTestContext(http.MethodPost, "/auth/register", `{"username":"alice"}`)
	err := h.Register(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestRegister_DomainErrorPropagates(t *testing.T) {
	svc := &stubService{err: domain.ErrUserExists}
	h := NewAuthHandler(svc, testIssuer(t), nil)

	c, _ := newTestContext(http.MethodPost, "/auth/register",
		`{"username":"alice","password":"Str0ngPass"}`)
	if err := h.Register(c); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists to propagate, got %v", err)
	}
}

func TestLogin_ReturnsTokenAndSavesSession(t *testing.T) {
	svc := &stubService{account: testAccount()}
	sessions := newStubSessions()
	h := NewAuthHandler(svc, testIssuer(t), sessions)

	c, rec := newTestContext(http.MethodPost, "/auth/login",
		`{"username":"alice","password":"Str0ngPass"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Token string          `json:"token"`
		User  *domain.Account `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a token")
	}
	if resp.User == nil || resp.User.Username != "alice" {
		t.Fatalf("unexpected user in response: %+v", resp.User)
	}
	if len(sessions.saved) != 1 {
		t.Fatalf("expected one saved session, got %d", len(sessions.saved))
	}
}

func TestLogin_InvalidCredentialsPropagates(t *testing.T) {
	svc := &stubService{err: domain.ErrInvalidCredentials}
	h := NewAuthHandler(svc, testIssuer(t), nil)

	c, _ := newTestContext(http.MethodPost, "/auth/login",
		`{"username":"alice","password":"wrong"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_LockedPropagates(t *testing.T) {
	svc := &stubService{err: domain.ErrAccountLocked}
	h := NewAuthHandler(svc, testIssuer(t), nil)

	c, _ := newTestContext(http.MethodPost, "/auth/login",
		`{"username":"alice","password":"Str0ngPass"}`)
	if err := h.Login(c); !errors.Is(err, domain.ErrAccountLocked) {
		t.Fatalf("expected ErrAccountLocked, got %v", err)
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	sessions := newStubSessions()
	sessions.saved["session-1"] = "alice"
	h := NewAuthHandler(&stubService{}, testIssuer(t), sessions)

	c, rec := newTestContext(http.MethodPost, "/auth/logout", "")
	c.Set("username", "alice")
	c.Set("session_id", "session-1")

	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if len(sessions.saved) != 0 {
		t.Fatal("expected session to be revoked")
	}
}

func TestLogout_NoSessionStore(t *testing.T) {
	h := NewAuthHandler(&stubService{}, testIssuer(t), nil)

	c, rec := newTestContext(http.MethodPost, "/auth/logout", "")
	if err := h.Logout(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}
