package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/emberchat/ember-server/internal/auth"
	"github.com/emberchat/ember-server/internal/config"
	"github.com/emberchat/ember-server/internal/core"
	"github.com/emberchat/ember-server/internal/storage"
	"github.com/emberchat/ember-server/internal/store"
)

// NewServer builds the HTTP server: REST API, static uploads and the
// websocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, messages store.MessageStore, uploads *storage.Disk, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, messages, uploads, cfg.HistoryLimit, logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)

	authed := router.Group("/api", AuthMiddleware(authService, logger))
	authed.POST("/upload", api.Upload)
	authed.GET("/history", api.History)

	router.Static("/uploads", uploads.Dir())

	wsHandler := NewWSHandler(hub, authService, logger)
	router.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
