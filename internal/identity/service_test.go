package identity

import (
	"context"
	"errors"
	"testing"
)

func TestRegisterAndFind(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	user, err := svc.Register(ctx, Registration{Email: "Ana@Example.com", FirstName: "Ana", Phone: "900 001 1234"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Plan != planFree || user.PhoneCode != "52" || user.Phone != "9000011234" {
		t.Fatalf("unexpected user %+v", user)
	}

	found, err := svc.FindByEmail(ctx, "ana@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if found.ID != user.ID {
		t.Fatalf("expected %s, got %s", user.ID, found.ID)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, Registration{Email: "ana@example.com", Phone: "9000011234", PhoneCode: "52"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, Registration{Email: "bea@example.com", Phone: "9000011234", PhoneCode: "52"}); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
	if _, err := svc.Register(ctx, Registration{Email: "ANA@example.com"}); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if _, err := svc.Register(ctx, Registration{Email: "not-an-email"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestUpdatePhoneEnforcesUniquenessAndResetsVerification(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	ana, err := svc.Register(ctx, Registration{Email: "ana@example.com", Phone: "9000011234", PhoneCode: "52"})
	if err != nil {
		t.Fatalf("register ana: %v", err)
	}
	bea, err := svc.Register(ctx, Registration{Email: "bea@example.com", Phone: "9000021234", PhoneCode: "52"})
	if err != nil {
		t.Fatalf("register bea: %v", err)
	}

	if _, err := svc.Update(ctx, bea.ID, func(u *User) { u.Phone = ana.Phone }); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}

	if _, err := svc.Update(ctx, ana.ID, func(u *User) { u.PhoneVerified = true }); err != nil {
		t.Fatalf("verify: %v", err)
	}
	updated, err := svc.Update(ctx, ana.ID, func(u *User) { u.Phone = "5512345678" })
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PhoneVerified {
		t.Fatalf("phone change must clear verification")
	}

	// The old number is free again.
	if _, err := svc.Update(ctx, bea.ID, func(u *User) { u.Phone = "9000011234" }); err != nil {
		t.Fatalf("reuse released phone: %v", err)
	}
}

func TestRevokeTokensBumpsVersion(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()
	user, err := svc.Register(ctx, Registration{Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	revoked, err := svc.RevokeTokens(ctx, user.ID)
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked.TokenVersion != user.TokenVersion+1 {
		t.Fatalf("expected version bump, got %d", revoked.TokenVersion)
	}
}
