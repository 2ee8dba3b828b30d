package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInitializeTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/initialize" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test_secret" {
			t.Fatalf("unexpected authorization header: %s", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("unexpected body: %v", err)
		}
		if payload["email"] != "a@b.com" || payload["amount"] != float64(500000) || payload["reference"] != "dep_abc" {
			t.Fatalf("unexpected payload: %#v", payload)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc",
				"access_code":       "code-123",
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_secret")
	result, err := client.InitializeTransaction(context.Background(), "a@b.com", 500000, "dep_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.AuthorizationURL != "https://checkout.paystack.com/abc" || result.AccessCode != "code-123" {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestVerifyTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/dep_abc" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Verification successful",
			"data": map[string]any{
				"status": "success",
				"amount": 500000,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_secret")
	result, err := client.VerifyTransaction(context.Background(), "dep_abc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Status != "success" || result.AmountMinor != 500000 {
		t.Fatalf("unexpected result: %#v", result)
	}
}

func TestVerifyTransactionUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  false,
			"message": "Transaction reference not found",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "sk_test_secret")
	_, err := client.VerifyTransaction(context.Background(), "dep_missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d", apiErr.StatusCode)
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"dep_abc"}}`)
	mac := hmac.New(sha512.New, []byte("secret"))
	mac.Write(body)
	signature := hex.EncodeToString(mac.Sum(nil))

	if !VerifySignature("secret", body, signature) {
		t.Fatal("expected valid signature to verify")
	}
	if VerifySignature("secret", body, "deadbeef") {
		t.Fatal("expected wrong signature to fail")
	}
	if VerifySignature("other", body, signature) {
		t.Fatal("expected wrong secret to fail")
	}
	if VerifySignature("secret", []byte(`{"tampered":true}`), signature) {
		t.Fatal("expected tampered body to fail")
	}
}
