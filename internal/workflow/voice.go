package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path"

	"admix-studio/internal/apperrors"
	"admix-studio/internal/gateway/elevenlabs"
	"admix-studio/internal/queue"
	"admix-studio/pkg/models"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
)

const WorkflowVoiceClone = "voice-clone"

type VoiceWorkflow struct {
	store  VoiceStore
	cloner VoiceCloner
	media  Media
}

func NewVoiceWorkflow(store VoiceStore, cloner VoiceCloner, media Media) *VoiceWorkflow {
	return &VoiceWorkflow{store: store, cloner: cloner, media: media}
}

func (w *VoiceWorkflow) Definition() Definition {
	return Definition{Name: WorkflowVoiceClone, Event: queue.EventVoiceClone, Handler: w.Run}
}

// uploadedSample échantillon déposé dans le storage durable
type uploadedSample struct {
	FileName  string `json:"fileName"`
	Location  string `json:"location"`
	Key       string `json:"key"`
	Size      int64  `json:"size"`
	LocalPath string `json:"localPath"`
}

func (w *VoiceWorkflow) Run(ctx context.Context, run *Run, event queue.Event) (interface{}, error) {
	var req VoiceCloneRequest
	if err := event.Decode(&req); err != nil {
		return nil, apperrors.Validation("%v", err)
	}
	if req.Name == "" {
		return nil, apperrors.Validation("voice name is required")
	}
	if n := len(req.AudioFilePaths); n == 0 || n > models.MaxVoiceSamples {
		return nil, apperrors.Validation("between 1 and %d audio samples are required, got %d", models.MaxVoiceSamples, n)
	}

	result, err := w.clone(ctx, run, req)
	if err != nil {
		if !interrupted(ctx) && (!apperrors.Retryable(err) || run.FinalAttempt()) {
			removeLocalFiles(ctx, req.AudioFilePaths)
		}
		return nil, err
	}
	return result, nil
}

func (w *VoiceWorkflow) clone(ctx context.Context, run *Run, req VoiceCloneRequest) (*models.VoiceCloneResult, error) {
	samples, err := Step(ctx, run, "upload-audio-samples", func(ctx context.Context) ([]uploadedSample, error) {
		return w.uploadSamples(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	voiceID, err := Step(ctx, run, "clone-voice", func(ctx context.Context) (string, error) {
		files, err := w.loadSamples(ctx, samples)
		if err != nil {
			return "", err
		}
		defer removeLocalFiles(ctx, req.AudioFilePaths)

		return w.cloner.CloneVoice(ctx, files, elevenlabs.VoiceMetadata{
			Name:        req.Name,
			Description: req.Description,
			Labels:      req.Labels,
		})
	})
	if err != nil {
		return nil, err
	}

	profile, err := Step(ctx, run, "save-voice-to-db", func(ctx context.Context) (*models.VoiceProfile, error) {
		return w.store.CreateVoiceWithSamples(ctx, buildProfile(run.ID, voiceID, req, samples))
	})
	if err != nil {
		return nil, err
	}

	return &models.VoiceCloneResult{
		ProfileID:    profile.ID,
		VoiceID:      profile.ExternalVoiceID,
		VoiceName:    profile.Name,
		SamplesCount: len(profile.Samples),
	}, nil
}

// uploadSamples envoie les échantillons en parallèle. Un seul échec annule
// l'ensemble et les objets déjà écrits sont retirés.
func (w *VoiceWorkflow) uploadSamples(ctx context.Context, req VoiceCloneRequest) ([]uploadedSample, error) {
	uploads := make([]uploadedSample, len(req.AudioFilePaths))

	g, gctx := errgroup.WithContext(ctx)
	for i, localPath := range req.AudioFilePaths {
		g.Go(func() error {
			data, err := os.ReadFile(localPath)
			if err != nil {
				return apperrors.Storage("read", localPath, err)
			}
			res, err := w.media.UploadVoiceSample(gctx, req.UserID, i, data)
			if err != nil {
				return err
			}
			uploads[i] = uploadedSample{
				FileName:  path.Base(res.Key),
				Location:  res.URL,
				Key:       res.Key,
				Size:      res.Size,
				LocalPath: localPath,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, u := range uploads {
			if u.Key == "" {
				continue
			}
			if delErr := w.media.DeleteDurable(context.WithoutCancel(ctx), u.Key); delErr != nil {
				zerolog.Ctx(ctx).Warn().Err(delErr).Str("key", u.Key).Msg("VoiceWorkflow: failed to remove partial upload")
			}
		}
		return nil, err
	}
	return uploads, nil
}

// loadSamples relit les fichiers locaux, ou le storage si ils ont déjà été supprimés
func (w *VoiceWorkflow) loadSamples(ctx context.Context, samples []uploadedSample) ([]elevenlabs.SampleFile, error) {
	files := make([]elevenlabs.SampleFile, 0, len(samples))
	for _, s := range samples {
		data, err := os.ReadFile(s.LocalPath)
		if errors.Is(err, os.ErrNotExist) {
			data, err = w.media.Download(ctx, s.Key)
		}
		if err != nil {
			return nil, apperrors.Storage("read", s.Key, err)
		}
		files = append(files, elevenlabs.SampleFile{FileName: s.FileName, Data: data})
	}
	return files, nil
}

func buildProfile(runID, voiceID string, req VoiceCloneRequest, samples []uploadedSample) *models.VoiceProfile {
	language := req.Language
	if language == "" {
		language = "multilingual"
	}
	labels := datatypes.JSON([]byte("{}"))
	if len(req.Labels) > 0 {
		if raw, err := json.Marshal(req.Labels); err == nil {
			labels = raw
		}
	}

	profile := &models.VoiceProfile{
		ExternalVoiceID: voiceID,
		RunID:           &runID,
		UserID:          req.UserID,
		Name:            req.Name,
		Description:     req.Description,
		Language:        language,
		Accent:          req.Accent,
		Labels:          labels,
		IsCustom:        true,
	}
	for _, s := range samples {
		profile.Samples = append(profile.Samples, models.AudioSample{
			FileName:      s.FileName,
			AudioLocation: s.Location,
			AudioKey:      s.Key,
			FileSize:      s.Size,
			MimeType:      "audio/mpeg",
		})
	}
	return profile
}

// removeLocalFiles nettoyage au mieux des fichiers temporaires
func removeLocalFiles(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", p).Msg("VoiceWorkflow: could not delete local file")
		}
	}
}
