package tenant_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/payroll-engine/tenant"
)

func TestNewInviteCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := tenant.NewInviteCode()
		if len(code) != 6 {
			t.Fatalf("expected 6-char code, got %q", code)
		}
		seen[code] = true
	}
	// Not a uniqueness guarantee (the store enforces that), just a sanity
	// check the generator isn't constant.
	if len(seen) < 2 {
		t.Error("invite codes should vary")
	}
}

func TestNewInvitation_RoleRestriction(t *testing.T) {
	now := time.Now()

	if _, err := tenant.NewInvitation("org-1", "a@b.c", tenant.RolePending, "u1", now); !errors.Is(err, tenant.ErrInvalidInviteRole) {
		t.Errorf("pending role must be rejected, got %v", err)
	}

	inv, err := tenant.NewInvitation("org-1", "  Ada@Example.COM ", tenant.RoleManager, "u1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inv.Email != "ada@example.com" {
		t.Errorf("email should be normalized, got %q", inv.Email)
	}
	if inv.Status != tenant.InvitationPending || inv.Token == "" {
		t.Error("new invitation must be pending with a token")
	}
	if !inv.ExpiresAt.After(now) {
		t.Error("expiry must be in the future")
	}
}

func TestInvitationAccept(t *testing.T) {
	now := time.Now()
	inv, err := tenant.NewInvitation("org-1", "a@b.c", tenant.RoleAdmin, "u1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := inv.Accept(now.Add(time.Hour)); err != nil {
		t.Fatalf("accepting a fresh invitation: %v", err)
	}
	if inv.Status != tenant.InvitationAccepted {
		t.Errorf("status = %s", inv.Status)
	}

	if err := inv.Accept(now.Add(2 * time.Hour)); !errors.Is(err, tenant.ErrInvitationConsumed) {
		t.Errorf("double accept must fail, got %v", err)
	}
}

func TestInvitationAccept_Expired(t *testing.T) {
	now := time.Now()
	inv, err := tenant.NewInvitation("org-1", "a@b.c", tenant.RoleAdmin, "u1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	late := now.Add(tenant.DefaultInvitationTTL + time.Minute)
	if err := inv.Accept(late); !errors.Is(err, tenant.ErrInvitationExpired) {
		t.Errorf("expected ErrInvitationExpired, got %v", err)
	}
	if inv.Status != tenant.InvitationExpired {
		t.Errorf("lazy expiry should mark status, got %s", inv.Status)
	}
}
