package http

import (
	"log/slog"
	"net/url"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// orderCORSConfig exposes the headers a browser client needs to follow a created order and
// to replay a POST with the same idempotency key.
var orderCORSConfig = cors.Config{
	AllowMethods:  []string{"GET", "POST"},
	AllowHeaders:  []string{"Content-Type", "Idempotency-Key"},
	ExposeHeaders: []string{"X-Request-Id", "Location", "Idempotency-Key", "Retry-After"},
	MaxAge:        12 * time.Hour,
}

// newCORSMiddleware returns nil when no usable origin remains after validation.
func newCORSMiddleware(origins []string, logger *slog.Logger) gin.HandlerFunc {
	allowed := validOrigins(origins, logger)
	if len(allowed) == 0 {
		logger.Warn("CORS enabled but no valid origins configured, CORS will not be applied")
		return nil
	}

	logger.Info("CORS enabled", slog.Any("origins", allowed))

	config := orderCORSConfig
	config.AllowOrigins = allowed
	return cors.New(config)
}

// validOrigins keeps absolute http(s) origins without a path and drops the rest.
func validOrigins(origins []string, logger *slog.Logger) []string {
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		u, err := url.Parse(origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" ||
			(u.Path != "" && u.Path != "/") {
			logger.Warn("ignoring invalid CORS origin", slog.String("origin", origin))
			continue
		}
		allowed = append(allowed, u.Scheme+"://"+u.Host)
	}
	return allowed
}
