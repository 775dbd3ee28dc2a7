package heygen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"admix-studio/internal/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/video/generate", r.URL.Path)
		assert.Equal(t, "hg-key", r.Header.Get("X-Api-Key"))

		var body generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.VideoInputs, 1)
		in := body.VideoInputs[0]
		assert.Equal(t, "avatar-7", in.Character.AvatarID)
		assert.Equal(t, "normal", in.Character.AvatarStyle)
		assert.Equal(t, "audio", in.Voice.Type)
		assert.Equal(t, "https://media/narration/audio_v1.mp3", in.Voice.AudioURL)
		assert.Equal(t, "#FFFFFF", in.Background.Value)
		assert.Equal(t, dimension{Width: 1280, Height: 720}, body.Dimension)
		assert.Equal(t, "16:9", body.AspectRatio)
		assert.False(t, body.Test)
		assert.False(t, body.Caption)

		w.Write([]byte(`{"error":null,"data":{"video_id":"hg-123"}}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "hg-key", BaseURL: srv.URL})
	require.NoError(t, err)

	id, err := client.Submit(context.Background(), VideoRequest{AvatarID: "avatar-7", AudioURL: "https://media/narration/audio_v1.mp3"})
	require.NoError(t, err)
	assert.Equal(t, "hg-123", id)
}

func TestSubmitRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"avatar not found"}`))
	}))
	defer srv.Close()

	client, err := NewClient(Options{APIKey: "hg-key", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Submit(context.Background(), VideoRequest{AvatarID: "missing"})
	var providerErr *apperrors.ProviderError
	require.True(t, errors.As(err, &providerErr))
	assert.Equal(t, "avatar not found", providerErr.Message)
	assert.False(t, apperrors.Retryable(err))
}

func TestPollStatus(t *testing.T) {
	tests := []struct {
		name string
		body string
		want VideoStatus
	}{
		{
			name: "completed",
			body: `{"data":{"status":"completed","video_url":"https://v/1.mp4","thumbnail_url":"https://v/1.jpg","duration":12.5}}`,
			want: VideoStatus{Status: StatusCompleted, VideoURL: "https://v/1.mp4", ThumbnailURL: "https://v/1.jpg", Duration: 12.5},
		},
		{
			name: "failed with object error",
			body: `{"data":{"status":"failed","error":{"code":"40001","message":"bad audio"}}}`,
			want: VideoStatus{Status: StatusFailed, Error: "bad audio"},
		},
		{
			name: "failed with string error",
			body: `{"data":{"status":"failed","error":"render crashed"}}`,
			want: VideoStatus{Status: StatusFailed, Error: "render crashed"},
		},
		{
			name: "processing",
			body: `{"data":{"status":"processing"}}`,
			want: VideoStatus{Status: StatusProcessing},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/video_status.get", r.URL.Path)
				assert.Equal(t, "hg-123", r.URL.Query().Get("video_id"))
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client, err := NewClient(Options{APIKey: "k", BaseURL: srv.URL})
			require.NoError(t, err)

			status, err := client.PollStatus(context.Background(), "hg-123")
			require.NoError(t, err)
			assert.Equal(t, tt.want, *status)
		})
	}
}
