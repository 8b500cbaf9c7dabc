package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/credentio/credential-system/internal/core/domain"
)

func testAccount(username, email string) *domain.Account {
	now := time.Now().UTC()
	return &domain.Account{
		Username:     username,
		Email:        email,
		PasswordHash: "deadbeef",
		Salt:         "cafebabe",
		CreatedAt:    now,
		UpdatedAt:    now,
		IsActive:     true,
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	created, err := store.Create(ctx, testAccount("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == 0 {
		t.Fatalf("expected an assigned id")
	}

	got, err := store.GetByUsername(ctx, "alice")
	if err != nil {
		t.Fatalf("GetByUsername returned error: %v", err)
	}
	if got.Email != "alice@example.com" || got.PasswordHash != "deadbeef" {
		t.Fatalf("unexpected record: %+v", got)
	}

	byID, err := store.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID returned error: %v", err)
	}
	if byID.Username != "alice" {
		t.Fatalf("unexpected record by id: %+v", byID)
	}

	if _, err := store.GetByUsername(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStore_UniqueUsernameAndEmail(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	if _, err := store.Create(ctx, testAccount("alice", "alice@example.com")); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if _, err := store.Create(ctx, testAccount("alice", "other@example.com")); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate username, got %v", err)
	}
	if _, err := store.Create(ctx, testAccount("bob", "alice@example.com")); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists for duplicate email, got %v", err)
	}
	// Missing email is not subject to uniqueness.
	if _, err := store.Create(ctx, testAccount("carol", "")); err != nil {
		t.Fatalf("Create without email failed: %v", err)
	}
	if _, err := store.Create(ctx, testAccount("dave", "")); err != nil {
		t.Fatalf("second Create without email failed: %v", err)
	}
}

func TestStore_Update(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	created, _ := store.Create(ctx, testAccount("alice", "alice@example.com"))
	before := created.UpdatedAt

	email := "new@example.com"
	inactive := false
	if err := store.Update(ctx, "alice", domain.AccountUpdate{Email: &email, IsActive: &inactive}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	got, _ := store.GetByUsername(ctx, "alice")
	if got.Email != "new@example.com" || got.IsActive {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.UpdatedAt.After(before) && !got.UpdatedAt.Equal(before) {
		t.Fatalf("expected updated_at bumped")
	}
	// Hash untouched by a non-password update.
	if got.PasswordHash != "deadbeef" || got.Salt != "cafebabe" {
		t.Fatalf("unrelated fields changed: %+v", got)
	}

	// Empty patch on a known user is a successful no-op.
	if err := store.Update(ctx, "alice", domain.AccountUpdate{}); err != nil {
		t.Fatalf("empty update should be a no-op, got %v", err)
	}

	if err := store.Update(ctx, "ghost", domain.AccountUpdate{Email: &email}); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	// Releasing an email frees it for another account.
	empty := ""
	if err := store.Update(ctx, "alice", domain.AccountUpdate{Email: &empty}); err != nil {
		t.Fatalf("clearing email failed: %v", err)
	}
	if _, err := store.Create(ctx, testAccount("bob", "new@example.com")); err != nil {
		t.Fatalf("released email should be reusable: %v", err)
	}
}

func TestStore_DeleteTwice(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, _ = store.Create(ctx, testAccount("alice", ""))

	if err := store.Delete(ctx, "alice"); err != nil {
		t.Fatalf("first delete failed: %v", err)
	}
	if err := store.Delete(ctx, "alice"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound on second delete, got %v", err)
	}
}

func TestStore_ListExcludesSecretsAndPaginates(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"alice", "bob", "carol"} {
		a := testAccount(name, "")
		a.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		if _, err := store.Create(ctx, a); err != nil {
			t.Fatalf("Create %s failed: %v", name, err)
		}
	}

	all, err := store.List(ctx, 0, 0)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(all))
	}
	if all[0].Username != "carol" || all[2].Username != "alice" {
		t.Fatalf("expected newest-first ordering, got %s..%s", all[0].Username, all[2].Username)
	}

	page, err := store.List(ctx, 1, 1)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(page) != 1 || page[0].Username != "bob" {
		t.Fatalf("unexpected page: %+v", page)
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("Count = %d, %v; want 3, nil", n, err)
	}
}

func TestStore_FailedLoginCounter(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, _ = store.Create(ctx, testAccount("alice", ""))

	for want := 1; want <= 3; want++ {
		got, err := store.IncrementFailedLogins(ctx, "alice")
		if err != nil {
			t.Fatalf("IncrementFailedLogins returned error: %v", err)
		}
		if got != want {
			t.Fatalf("expected count %d, got %d", want, got)
		}
	}

	loginAt := time.Now().UTC()
	if err := store.ResetFailedLogins(ctx, "alice", loginAt); err != nil {
		t.Fatalf("ResetFailedLogins returned error: %v", err)
	}
	got, _ := store.GetByUsername(ctx, "alice")
	if got.FailedLoginAttempts != 0 || got.LockedUntil != nil {
		t.Fatalf("expected counter and lock cleared: %+v", got)
	}
	if got.LastLogin == nil || !got.LastLogin.Equal(loginAt) {
		t.Fatalf("expected last_login recorded")
	}

	if _, err := store.IncrementFailedLogins(ctx, "ghost"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStore_ConcurrentIncrements(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	_, _ = store.Create(ctx, testAccount("alice", ""))

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = store.IncrementFailedLogins(ctx, "alice")
		}()
	}
	wg.Wait()

	got, _ := store.GetByUsername(ctx, "alice")
	if got.FailedLoginAttempts != n {
		t.Fatalf("lost updates: expected %d, got %d", n, got.FailedLoginAttempts)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	created, _ := store.Create(ctx, testAccount("alice", ""))
	created.PasswordHash = "mutated"

	got, _ := store.GetByUsername(ctx, "alice")
	if got.PasswordHash != "deadbeef" {
		t.Fatalf("store must hand out copies, not shared pointers")
	}
	got.Email = "mutated@example.com"

	again, _ := store.GetByUsername(ctx, "alice")
	if again.Email != "" {
		t.Fatalf("mutating a returned record must not affect the store")
	}
}
