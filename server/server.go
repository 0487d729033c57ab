// Package server exposes the channel store, the generated module and the run
// ledger over HTTP.
package server

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"tubeseed/channels"
	"tubeseed/common"
	"tubeseed/convert"
)

// RunFunc executes a conversion of the given kind, writing status lines to out
type RunFunc func(ctx context.Context, kind string, out io.Writer) (convert.Report, error)

// Options wires the router to its dependencies
type Options struct {
	DB          *gorm.DB
	Store       *channels.Store
	Runs        *common.RunStore
	Run         RunFunc
	AdminSecret string
	Logger      zerolog.Logger
}

// NewRouter builds the gin engine with every route registered
func NewRouter(opts Options) *gin.Engine {
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery())
	r.Use(common.MetricsMiddleware(opts.DB, opts.Logger))
	r.Use(RequestLogger(opts.Logger))

	h := NewHandler(opts.Store, opts.Runs, opts.Run, opts.Logger)

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/default_channels.js", h.DefaultChannels)

	api := r.Group("/api")
	api.GET("/ranking", h.Ranking)
	api.GET("/channel-history", h.ChannelHistory)
	api.GET("/live-candidates", h.LiveCandidates)

	RegisterRunRoutes(api.Group("/runs"), h, opts.AdminSecret)

	return r
}

// RegisterRunRoutes registers the run ledger routes
func RegisterRunRoutes(router *gin.RouterGroup, h *Handler, secret string) {
	router.GET("", h.ListRuns)
	router.GET("/:run_id", h.GetRun)
	router.POST("", RequireAdmin(secret), h.CreateRun)
}
