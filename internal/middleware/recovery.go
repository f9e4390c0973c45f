package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"propertyhub/internal/render"
)

// Recovery turns a panic into a 500 envelope and logs it with its stack.
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			log.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Str("request_id", RequestIDFrom(c)).
				Msg("panic recovered")
			render.Error(c, http.StatusInternalServerError, fmt.Sprint(r))
		}()
		c.Next()
	}
}
