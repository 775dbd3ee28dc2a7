package main

import (
	"context"
	"fmt"

	"admix-studio/internal/api"
	"admix-studio/internal/auth"
	"admix-studio/internal/config"
	"admix-studio/internal/database"
	"admix-studio/internal/gateway/elevenlabs"
	"admix-studio/internal/gateway/gemini"
	"admix-studio/internal/gateway/heygen"
	"admix-studio/internal/jobs"
	"admix-studio/internal/queue"
	"admix-studio/internal/storage"
	"admix-studio/internal/validation"
	"admix-studio/internal/worker"
	"admix-studio/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// app regroupe les composants câblés d'un processus
type app struct {
	db        *database.DB
	queue     queue.Queue
	executor  *workflow.Executor
	pool      *worker.WorkerPool
	scheduler *jobs.CleanupScheduler
	router    *gin.Engine
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{}
	ready := false
	defer func() {
		if !ready {
			a.close(ctx)
		}
	}()

	var err error
	a.db, err = database.Connect(ctx, cfg.DatabaseURL, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if err = a.db.Migrate(ctx); err != nil {
		return nil, err
	}

	durable, err := storage.NewDurableStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	transient, err := storage.NewStorage(ctx, cfg.MediaStorage)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}
	media := storage.NewMediaService(durable, transient)

	textGen, err := gemini.NewClient(ctx, gemini.Options{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Model:   cfg.Gemini.Model,
	})
	if err != nil {
		return nil, err
	}
	voices, err := elevenlabs.NewClient(elevenlabs.Options{
		APIKey:          cfg.ElevenLabs.APIKey,
		BaseURL:         cfg.ElevenLabs.BaseURL,
		ModelID:         cfg.ElevenLabs.ModelID,
		RequestInterval: cfg.ElevenLabs.RequestInterval,
	})
	if err != nil {
		return nil, err
	}
	avatars, err := heygen.NewClient(heygen.Options{
		APIKey:  cfg.HeyGen.APIKey,
		BaseURL: cfg.HeyGen.BaseURL,
	})
	if err != nil {
		return nil, err
	}

	a.queue, err = queue.New(ctx, cfg.Queue)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize queue: %w", err)
	}

	contents := jobs.NewContentRepository(a.db.DB)
	speeches := jobs.NewSpeechRepository(a.db.DB)
	scripts := jobs.NewScriptRepository(a.db.DB)
	voiceProfiles := jobs.NewVoiceRepository(a.db.DB)
	videos := jobs.NewVideoRepository(a.db.DB)
	runs := jobs.NewRunRepository(a.db.DB)

	a.executor = workflow.NewExecutor(runs, cfg.Worker.MaxAttempts)
	a.executor.Register(
		workflow.NewContentWorkflow(contents, textGen).Definition(),
		workflow.NewSpeechWorkflow(speeches, scripts, voices, media).Definition(),
		workflow.NewVoiceWorkflow(voiceProfiles, voices, media).Definition(),
		workflow.NewVideoWorkflow(videos, voices, media, avatars, workflow.VideoOptions{
			PollInterval: cfg.Worker.VideoPollEvery,
			MaxPolls:     cfg.Worker.VideoMaxAttempts,
		}).Definition(),
		workflow.NewCleanupWorkflow(scripts, speeches, media).Definition(),
	)

	poolConfig := worker.DefaultPoolConfig()
	poolConfig.WorkerCount = cfg.Worker.WorkerCount
	poolConfig.LongWorkerCount = cfg.Worker.LongWorkerCount
	poolConfig.MaxAttempts = a.executor.MaxAttempts()
	poolConfig.RetryDelay = cfg.Worker.RetryDelay
	poolConfig.RunTimeout = cfg.Worker.RunTimeout
	a.pool = worker.NewWorkerPool(a.queue, a.executor, a.executor, poolConfig)

	a.scheduler = jobs.NewCleanupScheduler(a.queue, cfg.CleanupHour)

	validator := validation.NewAPIValidator(nil)
	handlers := api.NewHandlers(
		jobs.NewSubmissionService(a.queue, voiceProfiles),
		jobs.NewStatusService(contents, speeches, videos, runs),
		jobs.NewLibraryService(speeches, voiceProfiles, videos, media),
		a.pool,
		validator,
		cfg.UploadDir,
	)
	authenticator := auth.NewAuthenticator(cfg.Auth.RefreshTokenSecret, auth.NewUserRepository(a.db.DB), cfg.Auth.CacheTTL)

	routerCfg := api.RouterConfig{
		CookieName:      cfg.Auth.CookieName,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}
	if cfg.Storage.Type == "filesystem" {
		routerCfg.StaticDir = cfg.Storage.BasePath
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		routerCfg.AllowOrigin = cfg.PublicBaseURL
	}
	a.router = api.SetupRouter(handlers, authenticator, validator, logger, routerCfg)

	ready = true
	return a, nil
}

func (a *app) close(ctx context.Context) {
	log := zerolog.Ctx(ctx)
	if a.queue != nil {
		if err := a.queue.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close queue")
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close database")
		}
	}
}
