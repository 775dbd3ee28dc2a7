package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/gateway/elevenlabs"
	"admix-studio/internal/gateway/heygen"
	"admix-studio/internal/storage"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
)

// records regroupe les lignes écrites par les workflows
type records struct {
	mu       sync.Mutex
	contents map[string]*models.ContentJob
	speeches map[uuid.UUID]*models.SpeechJob
	videos   map[uuid.UUID]*models.VideoJob
	voices   []*models.VoiceProfile
	scripts  map[uuid.UUID]*models.Script

	failScriptDelete error
	failSpeechList   error
}

func newRecords() *records {
	return &records{
		contents: map[string]*models.ContentJob{},
		speeches: map[uuid.UUID]*models.SpeechJob{},
		videos:   map[uuid.UUID]*models.VideoJob{},
		scripts:  map[uuid.UUID]*models.Script{},
	}
}

func (r *records) CreateContent(ctx context.Context, job *models.ContentJob) (*models.ContentJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.contents[job.RunID]; ok {
		return existing, nil
	}
	job.ID = uuid.New()
	r.contents[job.RunID] = job
	return job, nil
}

func (r *records) CompleteContent(ctx context.Context, runID, text, language string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.contents[runID]
	job.GeneratedText, job.Language, job.Status = text, language, models.StatusCompleted
	return nil
}

func (r *records) FailContent(ctx context.Context, runID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.contents[runID]
	job.Status, job.ErrorMessage = models.StatusFailed, message
	return nil
}

func (r *records) CreateSpeech(ctx context.Context, job *models.SpeechJob) (*models.SpeechJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.speeches[job.ID]; ok {
		return existing, nil
	}
	r.speeches[job.ID] = job
	return job, nil
}

func (r *records) CompleteSpeech(ctx context.Context, id uuid.UUID, location, key string, size int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.speeches[id]
	job.Status, job.AudioLocation, job.AudioKey, job.FileSize = models.StatusCompleted, location, key, size
	return nil
}

func (r *records) FailSpeech(ctx context.Context, id uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.speeches[id]
	job.Status, job.ErrorMessage = models.StatusFailed, message
	return nil
}

func (r *records) ListExpiredSpeeches(ctx context.Context, now time.Time) ([]models.SpeechJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSpeechList != nil {
		return nil, r.failSpeechList
	}
	var out []models.SpeechJob
	for _, s := range r.speeches {
		if s.ExpiresAt.Before(now) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *records) DeleteSpeeches(ctx context.Context, ids []uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		delete(r.speeches, id)
	}
	return int64(len(ids)), nil
}

func (r *records) MarkVoiceGenerated(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	script, ok := r.scripts[id]
	if !ok {
		return apperrors.NotFound("script", id.String())
	}
	script.IsVoiceGenerated = true
	return nil
}

func (r *records) DeleteVoicedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failScriptDelete != nil {
		return 0, r.failScriptDelete
	}
	var n int64
	for id, s := range r.scripts {
		if s.IsVoiceGenerated && s.UpdatedAt.Before(cutoff) {
			delete(r.scripts, id)
			n++
		}
	}
	return n, nil
}

func (r *records) CreateVoiceWithSamples(ctx context.Context, profile *models.VoiceProfile) (*models.VoiceProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	profile.ID = uuid.New()
	r.voices = append(r.voices, profile)
	return profile, nil
}

func (r *records) CreateVideo(ctx context.Context, job *models.VideoJob) (*models.VideoJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.videos[job.ID]; ok {
		return existing, nil
	}
	r.videos[job.ID] = job
	return job, nil
}

func (r *records) MarkVideoSubmitted(ctx context.Context, id uuid.UUID, externalID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.videos[id]
	job.ExternalVideoID, job.Status = externalID, models.StatusProcessing
	return nil
}

func (r *records) CompleteVideo(ctx context.Context, id uuid.UUID, videoURL, thumbnailURL string, duration float64, deleteAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.videos[id]
	job.Status, job.VideoLocation, job.ThumbnailLocation, job.VideoDuration = models.StatusCompleted, videoURL, thumbnailURL, duration
	job.DeleteAt = &deleteAt
	return nil
}

func (r *records) FailVideo(ctx context.Context, id uuid.UUID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.videos[id]
	job.Status, job.ErrorMessage = models.StatusFailed, message
	return nil
}

func (r *records) content(runID string) models.ContentJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.contents[runID]
}

func (r *records) speech(id uuid.UUID) (models.SpeechJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.speeches[id]
	if !ok {
		return models.SpeechJob{}, false
	}
	return *s, true
}

func (r *records) video(id uuid.UUID) models.VideoJob {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.videos[id]
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.reply, g.err
}

type fakeSynth struct {
	mu       sync.Mutex
	calls    int
	settings []models.VoiceSettings
	err      error
}

func (s *fakeSynth) Synthesize(ctx context.Context, text, voiceID string, settings models.VoiceSettings) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.settings = append(s.settings, settings)
	if s.err != nil {
		return nil, s.err
	}
	return []byte("audio:" + text), nil
}

type fakeMedia struct {
	mu          sync.Mutex
	objects     map[string][]byte
	deleted     []string
	failUpload  map[int]error
	failDelete  map[string]error
	uploadCalls int
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{objects: map[string][]byte{}, failUpload: map[int]error{}, failDelete: map[string]error{}}
}

func (m *fakeMedia) put(key string, data []byte) *storage.UploadResult {
	m.objects[key] = data
	return &storage.UploadResult{URL: "https://cdn.test/" + key, Key: key, Size: int64(len(data))}
}

func (m *fakeMedia) UploadSpeech(ctx context.Context, userID, speechID string, audio []byte) (*storage.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadCalls++
	return m.put(fmt.Sprintf("speeches/%s/speech-%s.mp3", userID, speechID), audio), nil
}

func (m *fakeMedia) UploadVoiceSample(ctx context.Context, userID string, index int, audio []byte) (*storage.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadCalls++
	if err := m.failUpload[index]; err != nil {
		return nil, err
	}
	return m.put(fmt.Sprintf("voice-samples/%s/1_%d.mp3", userID, index), audio), nil
}

func (m *fakeMedia) UploadNarration(ctx context.Context, videoID string, audio []byte) (*storage.UploadResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadCalls++
	return m.put(storage.NarrationKey(videoID), audio), nil
}

func (m *fakeMedia) DeleteNarration(ctx context.Context, videoID string) error {
	return m.DeleteDurable(ctx, storage.NarrationKey(videoID))
}

func (m *fakeMedia) DeleteDurable(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failDelete[key]; err != nil {
		return err
	}
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *fakeMedia) Download(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, errors.New("missing object")
	}
	return data, nil
}

type fakeCloner struct {
	samples []elevenlabs.SampleFile
	meta    elevenlabs.VoiceMetadata
	err     error
}

func (c *fakeCloner) CloneVoice(ctx context.Context, samples []elevenlabs.SampleFile, meta elevenlabs.VoiceMetadata) (string, error) {
	c.samples, c.meta = samples, meta
	if c.err != nil {
		return "", c.err
	}
	return "ext-voice-1", nil
}

// fakeVideoProvider renvoie les statuts dans l'ordre, puis le dernier indéfiniment
type fakeVideoProvider struct {
	mu        sync.Mutex
	submitted []heygen.VideoRequest
	statuses  []heygen.VideoStatus
	errs      map[int]error
	polls     int
}

func (p *fakeVideoProvider) Submit(ctx context.Context, req heygen.VideoRequest) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitted = append(p.submitted, req)
	return "hg-1", nil
}

func (p *fakeVideoProvider) PollStatus(ctx context.Context, videoID string) (*heygen.VideoStatus, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polls++
	if err := p.errs[p.polls]; err != nil {
		return nil, err
	}
	idx := p.polls - 1
	if idx >= len(p.statuses) {
		idx = len(p.statuses) - 1
	}
	status := p.statuses[idx]
	return &status, nil
}

func (p *fakeVideoProvider) pollCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.polls
}
