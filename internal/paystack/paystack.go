// Package paystack is a thin client for the Paystack transaction API. Amounts
// cross this boundary in minor units (kobo), matching the ledger's internal
// representation.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type Client struct {
	baseURL    string
	secretKey  string
	httpClient *http.Client
}

func NewClient(baseURL, secretKey string) *Client {
	return &Client{
		baseURL:   baseURL,
		secretKey: secretKey,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// APIError carries the gateway's HTTP status so callers can report upstream
// failures distinctly from local ones.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("paystack: %s (status %d)", e.Message, e.StatusCode)
}

type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
}

type VerifyResult struct {
	Status      string
	AmountMinor int64
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) InitializeTransaction(ctx context.Context, email string, amountMinor int64, reference string) (InitializeResult, error) {
	payload, err := json.Marshal(map[string]any{
		"email":     email,
		"amount":    amountMinor,
		"reference": reference,
	})
	if err != nil {
		return InitializeResult{}, err
	}
	data, err := c.post(ctx, "/transaction/initialize", payload)
	if err != nil {
		return InitializeResult{}, err
	}
	var body struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return InitializeResult{}, err
	}
	return InitializeResult{
		AuthorizationURL: body.AuthorizationURL,
		AccessCode:       body.AccessCode,
	}, nil
}

func (c *Client) VerifyTransaction(ctx context.Context, reference string) (VerifyResult, error) {
	data, err := c.get(ctx, "/transaction/verify/"+reference)
	if err != nil {
		return VerifyResult{}, err
	}
	var body struct {
		Status string `json:"status"`
		Amount int64  `json:"amount"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return VerifyResult{}, err
	}
	return VerifyResult{
		Status:      body.Status,
		AmountMinor: body.Amount,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var envelope apiEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: "malformed gateway response"}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Status {
		message := envelope.Message
		if message == "" {
			message = "gateway request failed"
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	return envelope.Data, nil
}

// VerifySignature checks the HMAC-SHA512 hex signature Paystack sends with
// webhook events against the raw request body.
func VerifySignature(secret string, body []byte, signature string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
