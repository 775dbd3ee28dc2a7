package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"admix-studio/internal/config"
	"admix-studio/internal/database"
	"admix-studio/internal/jobs"
	"admix-studio/internal/logging"
	"admix-studio/internal/queue"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func rootCommand(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	root := &cobra.Command{
		Use:           "admix-studio",
		Short:         "AI media generation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCommand(cfg, logger), migrateCommand(cfg, logger), cleanupCommand(cfg, logger))
	return root
}

func serveCommand(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	var skipWorkers bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "start the HTTP API, the worker pool and the cleanup scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(logging.Context(cmd.Context(), logger), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, !skipWorkers)
		},
	}
	cmd.Flags().BoolVar(&skipWorkers, "api-only", false, "do not consume the workflow queue in this process (UPLOAD_DIR must then be shared with the workers)")
	return cmd
}

func migrateCommand(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.Context(cmd.Context(), logger)
			db, err := database.Connect(ctx, cfg.DatabaseURL, cfg.LogLevel)
			if err != nil {
				return err
			}
			defer db.Close()
			return db.Migrate(ctx)
		},
	}
}

// cleanupCommand exécute le balayage du jour directement, sans passer par la queue
func cleanupCommand(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "run today's retention sweep once",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := logging.Context(cmd.Context(), logger)
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.close(ctx)

			event, err := queue.NewEvent(jobs.CleanupRunID(time.Now()), queue.EventCleanup, struct{}{})
			if err != nil {
				return err
			}
			output, err := a.executor.Execute(ctx, event)
			if err != nil {
				return err
			}
			zerolog.Ctx(ctx).Info().Str("run_id", event.ID).Interface("output", output).Msg("cleanup completed")
			return nil
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, withWorkers bool) error {
	log := zerolog.Ctx(ctx)

	a, err := newApp(ctx, cfg, *log)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if withWorkers {
		if err := a.pool.Start(ctx); err != nil {
			return err
		}
		go a.scheduler.Start(ctx)
	} else {
		// les échantillons de clonage sont relus par les workers depuis ce répertoire
		log.Warn().Str("upload_dir", cfg.UploadDir).Msg("API-only mode: upload dir must be mounted on every worker host")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("storage", cfg.Storage.Type).
			Str("media_storage", cfg.MediaStorage.Type).
			Str("queue", cfg.Queue.Type).
			Bool("workers", withWorkers).
			Msg("Starting admix-studio")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if withWorkers {
		if err := a.pool.Stop(); err != nil {
			log.Error().Err(err).Msg("Worker pool shutdown failed")
		}
	}
	log.Info().Msg("Server shutdown complete")
	return nil
}
