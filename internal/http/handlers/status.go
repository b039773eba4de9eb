package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mkravets/contentgate/internal/http/middleware"
	"github.com/mkravets/contentgate/internal/repo"
)

// keepAliveBody is the plain-text liveness line polled by external uptime
// monitors to keep the process awake on free hosting tiers.
const keepAliveBody = "Bot is alive and running!"

// StatusResponse is the JSON body of GET /status.
type StatusResponse struct {
	Status   string `json:"status"`
	Uptime   string `json:"uptime"`
	Users    int64  `json:"users"`
	Contents int64  `json:"contents"`
}

// Handler serves the ops endpoints.
type Handler struct {
	db      *gorm.DB
	started time.Time
}

// New constructs an ops handler over the given database handle.
func New(db *gorm.DB) *Handler {
	return &Handler{db: db, started: time.Now()}
}

// KeepAlive answers the root path with a constant plain-text line.
func (h *Handler) KeepAlive(c *gin.Context) {
	c.String(http.StatusOK, keepAliveBody)
}

// Healthz reports process liveness.
func (h *Handler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status reports uptime and store aggregates. A failing store degrades the
// body rather than the status code: the process itself is still alive.
func (h *Handler) Status(c *gin.Context) {
	ctx := c.Request.Context()
	resp := StatusResponse{
		Status: "ok",
		Uptime: time.Since(h.started).Round(time.Second).String(),
	}

	users, err := repo.CountUsers(ctx, h.db)
	if err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Msg("user count unavailable")
		resp.Status = "degraded"
	}
	resp.Users = users

	contents, err := repo.CountContent(ctx, h.db)
	if err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Warn().Err(err).Msg("content count unavailable")
		resp.Status = "degraded"
	}
	resp.Contents = contents

	c.JSON(http.StatusOK, resp)
}
