// Command demo walks through the credential core against the in-memory
// store: registration, validation failures, authentication, and the
// failed-login lockout behaviour.
package main

import (
	"context"
	"fmt"
	"time"

	"github.com/credentio/credential-system/internal/core/hasher"
	"github.com/credentio/credential-system/internal/core/service"
	"github.com/credentio/credential-system/internal/infrastructure/db/memory"
	"github.com/credentio/credential-system/pkg/logger"
)

const lockoutThreshold = 3

func main() {
	log := logger.Init(logger.Options{Level: "warn", Pretty: true})
	svc := service.NewCredentialService(memory.NewStore(), hasher.NewSHA256(), log,
		lockoutThreshold, time.Minute)
	ctx := context.Background()

	fmt.Println("== Registration ==")
	account, err := svc.Register(ctx, "alice", "Str0ngPass", "alice@example.com")
	if err != nil {
		fmt.Println("register alice:", err)
		return
	}
	fmt.Printf("registered %s (id=%d)\n", account.Username, account.ID)

	for _, attempt := range []struct {
		username, password, email string
	}{
		{"al", "Str0ngPass", ""},          // username too short
		{"bob", "short", ""},              // password too short
		{"bob", "alllowercase1", ""},      // no uppercase
		{"alice", "An0therPass", ""},      // duplicate username
		{"carol", "Str0ngPass", "broken"}, // invalid email
	} {
		if _, err := svc.Register(ctx, attempt.username, attempt.password, attempt.email); err != nil {
			fmt.Printf("register %s rejected: %v\n", attempt.username, err)
		}
	}

	fmt.Println()
	fmt.Println("== Authentication ==")
	if _, err := svc.Authenticate(ctx, "alice", "Str0ngPass"); err == nil {
		fmt.Println("alice authenticated with the correct password")
	}
	if _, err := svc.Authenticate(ctx, "alice", "WrongPass1"); err != nil {
		fmt.Println("wrong password rejected:", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody", "Str0ngPass"); err != nil {
		fmt.Println("unknown user rejected:", err)
	}

	fmt.Println()
	fmt.Printf("== Lockout after %d failures ==\n", lockoutThreshold)
	for i := 1; i <= lockoutThreshold; i++ {
		_, err := svc.Authenticate(ctx, "alice", "WrongPass1")
		fmt.Printf("attempt %d: %v\n", i, err)
	}
	if _, err := svc.Authenticate(ctx, "alice", "Str0ngPass"); err != nil {
		fmt.Println("correct password while locked:", err)
	}

	fmt.Println()
	fmt.Println("== Password change ==")
	// A fresh account so the walkthrough does not wait out the lock.
	if _, err := svc.Register(ctx, "dave", "Init1alPass", ""); err != nil {
		fmt.Println("register dave:", err)
		return
	}
	if err := svc.ChangePassword(ctx, "dave", "Rotat3dPass"); err != nil {
		fmt.Println("change password:", err)
		return
	}
	if _, err := svc.Authenticate(ctx, "dave", "Init1alPass"); err != nil {
		fmt.Println("old password rejected:", err)
	}
	if _, err := svc.Authenticate(ctx, "dave", "Rotat3dPass"); err == nil {
		fmt.Println("new password accepted")
	}

	fmt.Println()
	fmt.Println("== Directory ==")
	profiles, err := svc.ListAccounts(ctx, 10, 0)
	if err != nil {
		fmt.Println("list accounts:", err)
		return
	}
	total, _ := svc.CountAccounts(ctx)
	fmt.Printf("%d account(s):\n", total)
	for _, p := range profiles {
		fmt.Printf("  - %s active=%v\n", p.Username, p.IsActive)
	}
}
