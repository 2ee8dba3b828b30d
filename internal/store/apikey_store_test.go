package store

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
)

func TestAPIKeyStoreCreate(t *testing.T) {
	ctx := context.Background()
	expires := time.Now().Add(time.Hour)
	store := NewAPIKeyStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "INSERT INTO api_keys") {
				t.Fatalf("unexpected query: %s", query)
			}
			if len(args) != 7 {
				t.Fatalf("expected 7 args, got %d", len(args))
			}
			perms, ok := args[4].(pq.StringArray)
			if !ok || len(perms) != 2 || perms[0] != "read" || perms[1] != "deposit" {
				t.Fatalf("unexpected permissions arg: %#v", args[4])
			}
			return stubResult{rows: 1}, nil
		},
	})
	err := store.Create(ctx, APIKeyInput{
		ID:          "key-1",
		KeyHash:     "$2a$10$hash",
		Prefix:      "sk_live_abcdefg",
		Name:        "ci",
		Permissions: []string{"read", "deposit"},
		ExpiresAt:   expires,
		UserID:      "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAPIKeyStoreRevoke(t *testing.T) {
	ctx := context.Background()
	store := NewAPIKeyStore(stubDB{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			if !strings.Contains(query, "is_revoked = false") {
				t.Fatalf("revoke must guard against re-revoking: %s", query)
			}
			if args[0] != "key-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			return stubResult{rows: 1}, nil
		},
	})
	revoked, err := store.Revoke(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !revoked {
		t.Fatal("expected revoke to report success")
	}
}

func TestAPIKeyStoreRevokeAlreadyRevoked(t *testing.T) {
	ctx := context.Background()
	store := NewAPIKeyStore(stubDB{
		execFn: func(_ context.Context, _ string, _ ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	})
	revoked, err := store.Revoke(ctx, "key-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if revoked {
		t.Fatal("expected revoke of revoked key to report no rows")
	}
}

func TestAPIKeyStoreCountActive(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewAPIKeyStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "is_revoked = false") || !strings.Contains(query, "expires_at > $2") {
				t.Fatalf("unexpected query: %s", query)
			}
			if args[0] != "user-1" {
				t.Fatalf("unexpected args: %#v", args)
			}
			*dest.(*int) = 5
			return nil
		},
	})
	count, err := store.CountActive(ctx, "user-1", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 5 {
		t.Fatalf("expected 5, got %d", count)
	}
}

func TestAPIKeyStoreListActive(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewAPIKeyStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "JOIN users") {
				t.Fatalf("expected owner join: %s", query)
			}
			*dest.(*[]APIKeyWithOwner) = []APIKeyWithOwner{{
				APIKey:     APIKey{ID: "key-1", UserID: "user-1"},
				OwnerEmail: "a@b.com",
			}}
			return nil
		},
	})
	rows, err := store.ListActive(ctx, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].OwnerEmail != "a@b.com" {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
