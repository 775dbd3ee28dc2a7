package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/gateway"
	"admix-studio/pkg/models"
)

const (
	providerName   = "elevenlabs"
	defaultBaseURL = "https://api.elevenlabs.io"
	defaultModelID = "eleven_multilingual_v2"
)

type Options struct {
	APIKey     string
	BaseURL    string
	ModelID    string
	HTTPClient *http.Client
	// RequestInterval espace les appels sortants, 0 désactive la limitation
	RequestInterval time.Duration
}

type Client struct {
	apiKey  string
	baseURL string
	modelID string
	client  *http.Client
	limiter *rate.Limiter
}

// SampleFile échantillon audio envoyé au clonage
type SampleFile struct {
	FileName string
	Data     []byte
}

type VoiceMetadata struct {
	Name        string
	Description string
	Labels      map[string]string
}

type synthesizeRequest struct {
	Text          string               `json:"text"`
	ModelID       string               `json:"model_id"`
	VoiceSettings models.VoiceSettings `json:"voice_settings"`
}

type addVoiceResponse struct {
	VoiceID string `json:"voice_id"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("elevenlabs api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	modelID := opts.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestInterval > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.RequestInterval), 2)
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		modelID: modelID,
		client:  gateway.NewHTTPClient(opts.HTTPClient, 2*time.Minute),
		limiter: limiter,
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &apperrors.ProviderError{Provider: providerName, Message: "rate limiter: " + err.Error(), Err: err}
	}
	return nil
}

// Synthesize renvoie l'audio MP3 du texte lu par voiceID
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, settings models.VoiceSettings) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("%s/v1/text-to-speech/%s", c.baseURL, url.PathEscape(voiceID))
	req, err := gateway.PostJSON(ctx, endpoint, synthesizeRequest{
		Text:          text,
		ModelID:       c.modelID,
		VoiceSettings: settings,
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Accept", "audio/mpeg")

	resp, err := gateway.Do(c.client, providerName, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.ProviderError{Provider: providerName, Message: "read audio: " + err.Error(), Err: err}
	}
	if len(audio) == 0 {
		return nil, &apperrors.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: "empty audio response"}
	}
	return audio, nil
}

// CloneVoice crée une voix instantanée à partir des échantillons et renvoie son identifiant
func (c *Client) CloneVoice(ctx context.Context, samples []SampleFile, meta VoiceMetadata) (string, error) {
	if len(samples) == 0 {
		return "", apperrors.Validation("at least one audio sample is required")
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	body, contentType, err := buildCloneForm(samples, meta)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/voices/add", body)
	if err != nil {
		return "", err
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := gateway.Do(c.client, providerName, req)
	if err != nil {
		return "", err
	}

	var out addVoiceResponse
	if err := gateway.DecodeJSON(providerName, resp, &out); err != nil {
		return "", err
	}
	if out.VoiceID == "" {
		return "", &apperrors.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: "missing voice_id in response"}
	}
	return out.VoiceID, nil
}

func buildCloneForm(samples []SampleFile, meta VoiceMetadata) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"name", meta.Name},
		{"remove_background_noise", "true"},
	}
	if meta.Description != "" {
		fields = append(fields, [2]string{"description", meta.Description})
	}
	if len(meta.Labels) > 0 {
		labels, err := json.Marshal(meta.Labels)
		if err != nil {
			return nil, "", fmt.Errorf("encode labels: %w", err)
		}
		fields = append(fields, [2]string{"labels", string(labels)})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}

	for _, sample := range samples {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="files"; filename="%s"`, sample.FileName))
		h.Set("Content-Type", "audio/mpeg")
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(sample.Data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
