package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/gateway"

	"google.golang.org/genai"
)

const (
	providerName = "gemini"
	defaultModel = "gemini-2.0-flash-exp"
)

// Options BaseURL vide : endpoint public de l'API Gemini
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

// Client génère du texte via le SDK genai (backend Gemini API)
type Client struct {
	models *genai.Models
	model  string
}

func NewClient(ctx context.Context, opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: gateway.NewHTTPClient(opts.HTTPClient, 0),
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: strings.TrimRight(baseURL, "/") + "/"}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{models: client.Models, model: model}, nil
}

func (c *Client) Model() string {
	return c.model
}

// Generate envoie le prompt et renvoie le texte du premier candidat
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", providerError(err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", &apperrors.ProviderError{Provider: providerName, StatusCode: http.StatusOK, Message: "empty response"}
	}
	return text, nil
}

// providerError traduit les erreurs du SDK : APIError porte le statut HTTP,
// le reste est une erreur de transport.
func providerError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &apperrors.ProviderError{Provider: providerName, StatusCode: apiErr.Code, Message: apiErr.Message, Err: err}
	}
	return &apperrors.ProviderError{Provider: providerName, Message: err.Error(), Err: err}
}
