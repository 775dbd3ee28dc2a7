// Package gateway regroupe les helpers HTTP partagés par les clients des
// fournisseurs d'IA (Gemini, ElevenLabs, HeyGen).
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"admix-studio/internal/apperrors"
)

const (
	DefaultTimeout = 60 * time.Second
	maxErrorBody   = 4 << 10
)

// NewHTTPClient renvoie client s'il est fourni, sinon un client avec timeout
func NewHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Do exécute la requête et convertit toute réponse non 2xx en ProviderError.
// L'appelant ferme le body en cas de succès.
func Do(client *http.Client, provider string, req *http.Request) (*http.Response, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, &apperrors.ProviderError{Provider: provider, Message: err.Error(), Err: err}
	}
	if resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, ErrorFromResponse(provider, resp)
	}
	return resp, nil
}

// ErrorFromResponse extrait un message lisible d'une réponse en erreur
func ErrorFromResponse(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &apperrors.ProviderError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body, resp.Status),
	}
}

// errorMessage reconnaît les formes {"message"}, {"error": {"message"}},
// {"error": "..."} et {"detail": {"message"}}
func errorMessage(body []byte, fallback string) string {
	var payload struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		for _, raw := range []json.RawMessage{payload.Error, payload.Detail} {
			if len(raw) == 0 {
				continue
			}
			var nested struct {
				Message string `json:"message"`
			}
			if json.Unmarshal(raw, &nested) == nil && nested.Message != "" {
				return nested.Message
			}
			var text string
			if json.Unmarshal(raw, &text) == nil && text != "" {
				return text
			}
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return fallback
}

// PostJSON encode payload et prépare une requête POST
func PostJSON(ctx context.Context, endpoint string, payload interface{}) (*http.Request, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// DecodeJSON décode le body et le ferme
func DecodeJSON(provider string, resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperrors.ProviderError{
			Provider:   provider,
			StatusCode: resp.StatusCode,
			Message:    "invalid response body: " + err.Error(),
		}
	}
	return nil
}
