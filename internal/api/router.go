package api

import (
	"admix-studio/internal/auth"
	"admix-studio/internal/validation"
	"admix-studio/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

type RouterConfig struct {
	CookieName      string
	RateLimitPerMin int
	AllowOrigin     string
	// StaticDir sert /static quand le stockage est local
	StaticDir string
}

func SetupRouter(handlers *Handlers, authenticator *auth.Authenticator, validator *validation.APIValidator, logger zerolog.Logger, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(logger))
	r.Use(SecurityHeadersMiddleware(cfg.AllowOrigin))
	r.Use(validation.Middleware(validator))

	if cfg.StaticDir != "" {
		r.Static("/static", cfg.StaticDir)
	}

	r.GET("/health", handlers.Health)

	requireAuth := authenticator.RequireAuth(cfg.CookieName)
	identify := authenticator.Identify(cfg.CookieName)
	byID := func(param string) gin.HandlerFunc {
		return validation.ValidateRequest(validation.ValidateIDParam(param))
	}

	api := r.Group("/api/v1")
	api.Use(RateLimitMiddleware(cfg.RateLimitPerMin))
	{
		api.GET("/runs/:id", byID("id"), handlers.RunStatus)
		api.GET("/worker/stats", requireAuth, auth.RequireRoles(models.RoleAdmin), handlers.WorkerStats)

		agent := api.Group("/agent", identify)
		{
			agent.POST("/generated-content", handlers.GenerateContent)
			agent.GET("/generated-result/:runId", byID("runId"), handlers.GeneratedResult)
		}

		speech := api.Group("/speech")
		{
			speech.POST("/generate", requireAuth, handlers.GenerateSpeech)
			speech.POST("/status", requireAuth, handlers.SpeechStatusByBody)
			speech.GET("/:id/status", requireAuth, byID("id"), handlers.SpeechStatus)
			speech.GET("/history", requireAuth,
				validation.ValidateRequest(validation.ValidatePaginationParams), handlers.SpeechHistory)
			speech.GET("/voices", identify, handlers.ListVoices)
			speech.POST("/voices/create", identify,
				validation.ValidateRequest(validation.ValidateAudioUpload("audioFiles")), handlers.CreateVoice)
			speech.POST("/voices/add", identify, handlers.AddVoice)
			speech.POST("/voices/delete", identify, handlers.DeleteVoice)
			speech.POST("/delete", requireAuth, handlers.DeleteSpeech)
		}

		video := api.Group("/video", requireAuth, auth.RequireRoles(models.RoleAdmin, models.RoleVideoGenerator))
		{
			video.POST("/create", handlers.CreateVideo)
			video.POST("/status", handlers.VideoStatusByBody)
			video.GET("/:id/status", byID("id"), handlers.VideoStatus)
			video.GET("/history",
				validation.ValidateRequest(validation.ValidatePaginationParams), handlers.VideoHistory)
		}
	}

	return r
}
