package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"propertyhub/internal/database"
)

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Cache       string `json:"cache"`
	Storage     string `json:"storage"`
	Environment string `json:"environment"`
}

// Pinger is implemented by collaborators that can report their own liveness.
type Pinger interface {
	Ping(ctx context.Context) error
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{
		Status:      "ok",
		Database:    "ok",
		Cache:       "disabled",
		Storage:     "disabled",
		Environment: h.cfg.Environment,
	}

	if err := database.Ping(ctx, h.db); err != nil {
		resp.Database = "error"
		resp.Status = "degraded"
		h.log.Error().Err(err).Msg("database ping failed")
	}

	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx).Err(); err != nil {
			resp.Cache = "error"
			resp.Status = "degraded"
			h.log.Error().Err(err).Msg("redis ping failed")
		}
	}

	if pinger, ok := h.store.(Pinger); ok {
		resp.Storage = "ok"
		if err := pinger.Ping(ctx); err != nil {
			resp.Storage = "error"
			resp.Status = "degraded"
			h.log.Error().Err(err).Msg("object storage ping failed")
		}
	}

	status := http.StatusOK
	if resp.Database == "error" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}
