package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"walletapi/internal/services"
)

func TestCreateAPIKeyReturnsPlaintextOnce(t *testing.T) {
	keyService := stubAPIKeyService{
		createFn: func(_ context.Context, userID, name string, permissions []string, expiry string) (services.CreatedAPIKey, error) {
			if userID != "user-1" || name != "ci key" || expiry != "1M" {
				t.Fatalf("unexpected create call: %s %s %s", userID, name, expiry)
			}
			return services.CreatedAPIKey{
				PlainKey:    "sk_live_plaintext",
				Prefix:      "sk_live_plaint",
				Name:        name,
				Permissions: permissions,
				ExpiresAt:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
			}, nil
		},
	}
	handler := newTestHandler(stubAuthService{}, stubWalletService{}, stubDepositService{}, keyService)

	body := []byte(`{"name":"ci key","permissions":["read","deposit"],"expiry":"1M"}`)
	req := httptest.NewRequest(http.MethodPost, "/api-keys/", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+sessionToken(t))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if payload["key"] != "sk_live_plaintext" {
		t.Fatalf("create must return the plaintext key: %#v", payload)
	}
}

func TestListAPIKeysNeverExposesSecrets(t *testing.T) {
	keyService := stubAPIKeyService{
		listFn: func(context.Context, string) ([]services.APIKeySummary, error) {
			return []services.APIKeySummary{
				{ID: "k1", Name: "ci key", Prefix: "sk_live_abcdefg", Permissions: []string{"read"}, Status: "active"},
			}, nil
		},
	}
	handler := newTestHandler(stubAuthService{}, stubWalletService{}, stubDepositService{}, keyService)

	req := httptest.NewRequest(http.MethodGet, "/api-keys/", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var payload struct {
		Keys []map[string]any `json:"keys"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("bad response body: %v", err)
	}
	if len(payload.Keys) != 1 {
		t.Fatalf("expected one key, got %d", len(payload.Keys))
	}
	if _, exposed := payload.Keys[0]["key"]; exposed {
		t.Fatalf("list must never include the secret: %#v", payload.Keys[0])
	}
	if payload.Keys[0]["prefix"] != "sk_live_abcdefg" || payload.Keys[0]["status"] != "active" {
		t.Fatalf("unexpected summary: %#v", payload.Keys[0])
	}
}

func TestRevokeAPIKeyConflictMapping(t *testing.T) {
	keyService := stubAPIKeyService{
		revokeFn: func(context.Context, string, string) error {
			return services.ErrKeyAlreadyRevoked
		},
	}
	handler := newTestHandler(stubAuthService{}, stubWalletService{}, stubDepositService{}, keyService)

	req := httptest.NewRequest(http.MethodDelete, "/api-keys/k1", nil)
	req.Header.Set("Authorization", "Bearer "+sessionToken(t))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestQuotaExceededMapsTo409(t *testing.T) {
	keyService := stubAPIKeyService{
		createFn: func(context.Context, string, string, []string, string) (services.CreatedAPIKey, error) {
			return services.CreatedAPIKey{}, services.ErrKeyQuotaExceeded
		},
	}
	handler := newTestHandler(stubAuthService{}, stubWalletService{}, stubDepositService{}, keyService)

	body := []byte(`{"name":"sixth","permissions":["read"],"expiry":"1D"}`)
	req := httptest.NewRequest(http.MethodPost, "/api-keys/", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+sessionToken(t))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}

func TestRolloverNotExpiredMapsTo409(t *testing.T) {
	keyService := stubAPIKeyService{
		rolloverFn: func(_ context.Context, _, keyID, expiry string) (services.CreatedAPIKey, error) {
			if keyID != "k1" || expiry != "1Y" {
				t.Fatalf("unexpected rollover call: %s %s", keyID, expiry)
			}
			return services.CreatedAPIKey{}, services.ErrKeyNotExpired
		},
	}
	handler := newTestHandler(stubAuthService{}, stubWalletService{}, stubDepositService{}, keyService)

	body := []byte(`{"keyId":"k1","expiry":"1Y"}`)
	req := httptest.NewRequest(http.MethodPost, "/api-keys/rollover", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+sessionToken(t))
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
}
