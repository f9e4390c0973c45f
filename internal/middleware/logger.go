package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// quietRoutes are polled by health checks and scrapers; successful hits log at debug.
var quietRoutes = map[string]struct{}{
	"/api/healthz": {},
	"/metrics":     {},
}

// Logger writes one access line per request through the request-scoped logger
// that RequestID installed.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		route := c.FullPath()

		level := zerolog.InfoLevel
		switch {
		case status >= 500:
			level = zerolog.ErrorLevel
		case status >= 400:
			level = zerolog.WarnLevel
		default:
			if _, ok := quietRoutes[route]; ok {
				level = zerolog.DebugLevel
			}
		}

		event := zerolog.Ctx(c.Request.Context()).WithLevel(level)
		if user, ok := CurrentUser(c); ok {
			event = event.Str("user_id", user.ID).Str("role", string(user.Role))
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate); len(errs) > 0 {
			event = event.Str("error", errs.String())
		}

		event.
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("route", route).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("http request")
	}
}
