package auth

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRegistryLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	expires := time.Now().Add(time.Hour)
	if err := reg.Register(ctx, "user-1", "tok-1", expires); err != nil {
		t.Fatalf("Register: %v", err)
	}

	active, err := reg.IsActive(ctx, "tok-1")
	if err != nil || !active {
		t.Fatalf("IsActive = %v, %v; want true", active, err)
	}

	if err := reg.Revoke(ctx, "tok-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	active, err = reg.IsActive(ctx, "tok-1")
	if err != nil || active {
		t.Fatalf("IsActive after revoke = %v, %v; want false", active, err)
	}

	// Idempotent: revoking again or revoking unknown tokens succeeds.
	if err := reg.Revoke(ctx, "tok-1"); err != nil {
		t.Fatalf("double Revoke: %v", err)
	}
	if err := reg.Revoke(ctx, "missing"); err != nil {
		t.Fatalf("Revoke unknown: %v", err)
	}
}

func TestMemoryRegistryUnknownTokenInactive(t *testing.T) {
	reg := NewMemoryRegistry()
	active, err := reg.IsActive(context.Background(), "never-issued")
	if err != nil {
		t.Fatalf("IsActive: %v", err)
	}
	if active {
		t.Fatal("unknown token must be inactive")
	}
}

func TestMemoryRegistryRevokeAll(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()
	expires := time.Now().Add(time.Hour)

	_ = reg.Register(ctx, "user-1", "tok-1", expires)
	_ = reg.Register(ctx, "user-1", "tok-2", expires)
	_ = reg.Register(ctx, "user-2", "tok-3", expires)

	if err := reg.RevokeAll(ctx, "user-1"); err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}

	for _, tok := range []string{"tok-1", "tok-2"} {
		if active, _ := reg.IsActive(ctx, tok); active {
			t.Fatalf("%s should be revoked", tok)
		}
	}
	if active, _ := reg.IsActive(ctx, "tok-3"); !active {
		t.Fatal("other subject's token should stay active")
	}
}

func TestMemoryRegistryPurgeExpired(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	reg := NewMemoryRegistry(WithRegistryClock(func() time.Time { return now }))

	_ = reg.Register(ctx, "user-1", "old", now.Add(time.Minute))
	_ = reg.Register(ctx, "user-1", "fresh", now.Add(time.Hour))

	purged := reg.PurgeExpired(ctx, now.Add(30*time.Minute))
	if purged != 1 {
		t.Fatalf("purged = %d, want 1", purged)
	}
	if active, _ := reg.IsActive(ctx, "fresh"); !active {
		t.Fatal("fresh token should survive purge")
	}
	if active, _ := reg.IsActive(ctx, "old"); active {
		t.Fatal("purged token must be inactive")
	}
}
