package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/credentio/credential-system/internal/core/domain"
)

func TestMe_ReturnsProfile(t *testing.T) {
	svc := &stubService{profile: domain.ProfileOf(testAccount())}
	h := NewUserHandler(svc, nil)

	c, rec := newTestContext(http.MethodGet, "/users/me", "")
	c.Set("username", "alice")

	if err := h.Me(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var profile domain.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if profile.Username != "alice" {
		t.Fatalf("expected alice, got %q", profile.Username)
	}
	body := rec.Body.String()
	if strings.Contains(body, "hash") || strings.Contains(body, "salt") {
		t.Fatalf("credential material leaked: %s", body)
	}
}

func TestMe_NotFoundPropagates(t *testing.T) {
	svc := &stubService{err: domain.ErrUserNotFound}
	h := NewUserHandler(svc, nil)

	c, _ := newTestContext(http.MethodGet, "/users/me", "")
	c.Set("username", "ghost")

	if err := h.Me(c); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestChangePassword_NoContent(t *testing.T) {
	svc := &stubService{}
	h := NewUserHandler(svc, nil)

	c, rec := newTestContext(http.MethodPut, "/users/me/password",
		`{"new_password":"N3wStrongPass"}`)
	c.Set("username", "alice")

	if err := h.ChangePassword(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if svc.passwordChanged != "alice" {
		t.Fatalf("expected password change for alice, got %q", svc.passwordChanged)
	}
}

func TestChangePassword_MissingBody(t *testing.T) {
	h := NewUserHandler(&stubService{}, nil)

	c, _ := newTestContext(http.MethodPut, "/users/me/password", `{}`)
	c.Set("username", "alice")

	err := h.ChangePassword(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestChangePassword_WeakPasswordPropagates(t *testing.T) {
	svc := &stubService{err: domain.ErrWeakPassword}
	h := NewUserHandler(svc, nil)

	c, _ := newTestContext(http.MethodPut, "/users/me/password",
		`{"new_password":"weak"}`)
	c.Set("username", "alice")

	if err := h.ChangePassword(c); !errors.Is(err, domain.ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
}

func TestUpdate_PatchesEmail(t *testing.T) {
	svc := &stubService{profile: domain.ProfileOf(testAccount())}
	h := NewUserHandler(svc, nil)

	c, rec := newTestContext(http.MethodPatch, "/users/me",
		`{"email":"new@example.com"}`)
	c.Set("username", "alice")

	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.updatedEmail == nil || *svc.updatedEmail != "new@example.com" {
		t.Fatalf("expected email patch to reach service, got %v", svc.updatedEmail)
	}
}

func TestDelete_RemovesAccountAndSession(t *testing.T) {
	svc := &stubService{}
	sessions := newStubSessions()
	sessions.saved["session-1"] = "alice"
	h := NewUserHandler(svc, sessions)

	c, rec := newTestContext(http.MethodDelete, "/users/me", "")
	c.Set("username", "alice")
	c.Set("session_id", "session-1")

	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if svc.deleted != "alice" {
		t.Fatalf("expected alice deleted, got %q", svc.deleted)
	}
	if len(sessions.saved) != 0 {
		t.Fatal("expected session revoked alongside account deletion")
	}
}

func TestList_ReturnsPage(t *testing.T) {
	profiles := []*domain.Profile{
		domain.ProfileOf(testAccount()),
	}
	svc := &stubService{profiles: profiles, total: 7}
	h := NewUserHandler(svc, nil)

	c, rec := newTestContext(http.MethodGet, "/users?limit=5&offset=2", "")
	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp listUsersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Total != 7 {
		t.Fatalf("expected total 7, got %d", resp.Total)
	}
	if resp.Limit != 5 || resp.Offset != 2 {
		t.Fatalf("expected limit=5 offset=2, got %d/%d", resp.Limit, resp.Offset)
	}
	if len(resp.Users) != 1 {
		t.Fatalf("expected one user, got %d", len(resp.Users))
	}
}

func TestList_RejectsBadPagination(t *testing.T) {
	h := NewUserHandler(&stubService{}, nil)

	for _, target := range []string{"/users?limit=-1", "/users?offset=nope"} {
		c, _ := newTestContext(http.MethodGet, target, "")
		err := h.List(c)
		he, ok := err.(*echo.HTTPError)
		if !ok || he.Code != http.StatusBadRequest {
			t.Fatalf("target %q: expected 400, got %v", target, err)
		}
	}
}
