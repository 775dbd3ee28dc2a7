package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// RequestLogger attache le logger au contexte de la requête et trace sa fin
func RequestLogger(logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLogger := logger.With().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Logger()
		c.Request = c.Request.WithContext(reqLogger.WithContext(c.Request.Context()))

		c.Next()

		status := c.Writer.Status()
		event := reqLogger.Info()
		switch {
		case status >= 500:
			event = reqLogger.Error()
		case status == http.StatusBadRequest:
			event = reqLogger.Warn()
		}
		event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("request completed")
	}
}

// RateLimitMiddleware limite chaque IP à requestsPerMinute, avec une rafale du même ordre.
// Les limiteurs inactifs expirent du cache après dix minutes.
func RateLimitMiddleware(requestsPerMinute int) gin.HandlerFunc {
	if requestsPerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiters := cache.New(10*time.Minute, 20*time.Minute)
	every := rate.Every(time.Minute / time.Duration(requestsPerMinute))

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		var limiter *rate.Limiter
		if cached, found := limiters.Get(clientIP); found {
			limiter = cached.(*rate.Limiter)
		} else {
			limiter = rate.NewLimiter(every, requestsPerMinute)
			if err := limiters.Add(clientIP, limiter, cache.DefaultExpiration); err != nil {
				// ajouté en parallèle par une autre requête
				if cached, found := limiters.Get(clientIP); found {
					limiter = cached.(*rate.Limiter)
				}
			}
		}
		limiters.SetDefault(clientIP, limiter)

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": "60 seconds",
			})
			return
		}
		c.Next()
	}
}

// SecurityHeadersMiddleware ajoute des headers de sécurité et le CORS.
// allowOrigin vide accepte toute origine (développement).
func SecurityHeadersMiddleware(allowOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if allowOrigin != "" {
			c.Header("Access-Control-Allow-Origin", allowOrigin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Vary", "Origin")
		} else {
			c.Header("Access-Control-Allow-Origin", "*")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
