package jobs

import (
	"context"
	"encoding/json"
	"errors"

	"admix-studio/internal/apperrors"
	"admix-studio/pkg/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

type ContentReader interface {
	GetContentByRunID(ctx context.Context, runID string) (*models.ContentJob, error)
}

type SpeechReader interface {
	GetSpeech(ctx context.Context, id uuid.UUID) (*models.SpeechJob, error)
}

type VideoReader interface {
	GetVideo(ctx context.Context, id uuid.UUID) (*models.VideoJob, error)
}

type RunReader interface {
	GetRun(ctx context.Context, id string) (*models.WorkflowRun, error)
}

// StatusService répond aux requêtes de statut des clients. Un identifiant
// inconnu donne "not_found", jamais une erreur.
type StatusService struct {
	contents ContentReader
	speeches SpeechReader
	videos   VideoReader
	runs     RunReader
	tracer   trace.Tracer
}

func NewStatusService(contents ContentReader, speeches SpeechReader, videos VideoReader, runs RunReader) *StatusService {
	return &StatusService{
		contents: contents,
		speeches: speeches,
		videos:   videos,
		runs:     runs,
		tracer:   otel.Tracer("admix-studio/jobs"),
	}
}

func notFoundStatus() *models.StatusResponse {
	return &models.StatusResponse{Status: models.StatusNotFound}
}

func jobStatus(status models.JobStatus, result interface{}, message string) *models.StatusResponse {
	resp := &models.StatusResponse{Status: status.Public()}
	switch status {
	case models.StatusCompleted:
		resp.Result = result
	case models.StatusFailed:
		resp.Error = message
	}
	return resp
}

// pendingStatus statut d'un run dont la ligne métier n'existe pas encore
func (s *StatusService) pendingStatus(ctx context.Context, runID string) (*models.StatusResponse, error) {
	run, err := s.runs.GetRun(ctx, runID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return notFoundStatus(), nil
	}
	if err != nil {
		return nil, err
	}
	if run.Status == models.RunFailed {
		return &models.StatusResponse{Status: "failed", Error: run.Error}, nil
	}
	return &models.StatusResponse{Status: "processing"}, nil
}

func (s *StatusService) ContentStatus(ctx context.Context, runID string) (*models.StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StatusService.ContentStatus")
	defer span.End()

	job, err := s.contents.GetContentByRunID(ctx, runID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.pendingStatus(ctx, runID)
	}
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("run_id", runID).Msg("StatusService.ContentStatus: lookup failed")
		return nil, err
	}

	return jobStatus(job.Status, &models.ContentResult{
		Text:        job.GeneratedText,
		RecordID:    job.ID,
		Language:    job.Language,
		ContentType: job.ContentType,
	}, job.ErrorMessage), nil
}

func (s *StatusService) SpeechStatus(ctx context.Context, id string) (*models.StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StatusService.SpeechStatus")
	defer span.End()

	speechID, err := uuid.Parse(id)
	if err != nil {
		return notFoundStatus(), nil
	}
	job, err := s.speeches.GetSpeech(ctx, speechID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.pendingStatus(ctx, id)
	}
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("speech_id", id).Msg("StatusService.SpeechStatus: lookup failed")
		return nil, err
	}

	return jobStatus(job.Status, &models.SpeechResult{
		ID:       job.ID,
		AudioURL: job.AudioLocation,
		FileSize: job.FileSize,
		Duration: job.Duration,
		Language: job.Language,
	}, job.ErrorMessage), nil
}

func (s *StatusService) VideoStatus(ctx context.Context, id string) (*models.StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StatusService.VideoStatus")
	defer span.End()

	videoID, err := uuid.Parse(id)
	if err != nil {
		return notFoundStatus(), nil
	}
	job, err := s.videos.GetVideo(ctx, videoID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return s.pendingStatus(ctx, id)
	}
	if err != nil {
		span.RecordError(err)
		zerolog.Ctx(ctx).Error().Err(err).Str("video_id", id).Msg("StatusService.VideoStatus: lookup failed")
		return nil, err
	}

	return jobStatus(job.Status, &models.VideoResult{
		ID:           job.ID,
		VideoURL:     job.VideoLocation,
		ThumbnailURL: job.ThumbnailLocation,
		Duration:     job.VideoDuration,
	}, job.ErrorMessage), nil
}

// RunStatus statut générique d'un run, utilisé pour le clonage de voix
func (s *StatusService) RunStatus(ctx context.Context, runID string) (*models.StatusResponse, error) {
	ctx, span := s.tracer.Start(ctx, "StatusService.RunStatus")
	defer span.End()

	run, err := s.runs.GetRun(ctx, runID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return notFoundStatus(), nil
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	switch run.Status {
	case models.RunCompleted:
		resp := &models.StatusResponse{Status: "completed"}
		if len(run.Output) > 0 {
			resp.Result = json.RawMessage(run.Output)
		}
		return resp, nil
	case models.RunFailed:
		return &models.StatusResponse{Status: "failed", Error: run.Error}, nil
	default:
		return &models.StatusResponse{Status: "processing"}, nil
	}
}
