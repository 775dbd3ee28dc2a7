package heygen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/gateway"
)

const (
	providerName   = "heygen"
	defaultBaseURL = "https://api.heygen.com"
)

// Statuts renvoyés par video_status.get
const (
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
	StatusProcessing = "processing"
	StatusPending    = "pending"
)

type Options struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// VideoRequest avatar animé sur une narration déjà hébergée
type VideoRequest struct {
	AvatarID string
	AudioURL string
}

type VideoStatus struct {
	Status       string  `json:"status"`
	VideoURL     string  `json:"video_url"`
	ThumbnailURL string  `json:"thumbnail_url"`
	Duration     float64 `json:"duration"`
	Error        string  `json:"-"`
}

type generateRequest struct {
	VideoInputs []videoInput `json:"video_inputs"`
	Dimension   dimension    `json:"dimension"`
	AspectRatio string       `json:"aspect_ratio"`
	Test        bool         `json:"test"`
	Caption     bool         `json:"caption"`
}

type videoInput struct {
	Character  character  `json:"character"`
	Voice      voice      `json:"voice"`
	Background background `json:"background"`
}

type character struct {
	Type        string `json:"type"`
	AvatarID    string `json:"avatar_id"`
	AvatarStyle string `json:"avatar_style"`
}

type voice struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type background struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type dimension struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type statusData struct {
	VideoStatus
	RawError json.RawMessage `json:"error"`
}

func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("heygen api key is required")
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  strings.TrimSpace(opts.APIKey),
		baseURL: baseURL,
		client:  gateway.NewHTTPClient(opts.HTTPClient, 0),
	}, nil
}

// Submit lance la génération et renvoie l'identifiant vidéo du fournisseur
func (c *Client) Submit(ctx context.Context, in VideoRequest) (string, error) {
	payload := generateRequest{
		VideoInputs: []videoInput{{
			Character:  character{Type: "avatar", AvatarID: in.AvatarID, AvatarStyle: "normal"},
			Voice:      voice{Type: "audio", AudioURL: in.AudioURL},
			Background: background{Type: "color", Value: "#FFFFFF"},
		}},
		Dimension:   dimension{Width: 1280, Height: 720},
		AspectRatio: "16:9",
		Test:        false,
		Caption:     false,
	}

	req, err := gateway.PostJSON(ctx, c.baseURL+"/v2/video/generate", payload)
	if err != nil {
		return "", err
	}
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := gateway.Do(c.client, providerName, req)
	if err != nil {
		return "", err
	}

	var env envelope
	if err := gateway.DecodeJSON(providerName, resp, &env); err != nil {
		return "", err
	}
	var data struct {
		VideoID string `json:"video_id"`
	}
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &data)
	}
	if data.VideoID == "" {
		msg := env.Message
		if msg == "" {
			msg = "missing video_id in response"
		}
		return "", &apperrors.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: msg}
	}
	return data.VideoID, nil
}

// PollStatus lit l'état courant d'une vidéo
func (c *Client) PollStatus(ctx context.Context, videoID string) (*VideoStatus, error) {
	endpoint := fmt.Sprintf("%s/v1/video_status.get?video_id=%s", c.baseURL, url.QueryEscape(videoID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := gateway.Do(c.client, providerName, req)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := gateway.DecodeJSON(providerName, resp, &env); err != nil {
		return nil, err
	}
	var data statusData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return nil, &apperrors.ProviderError{Provider: providerName, StatusCode: resp.StatusCode, Message: "invalid status payload"}
	}

	status := data.VideoStatus
	status.Error = errorText(data.RawError)
	return &status, nil
}

// errorText accepte une chaîne ou un objet {code, message, detail}
func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	var obj struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &obj) == nil {
		if obj.Message != "" {
			return obj.Message
		}
		return obj.Detail
	}
	return string(raw)
}
