package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thanhnp/poa-ledger/internal/api/handlers"
	"github.com/thanhnp/poa-ledger/internal/api/middleware"
	"github.com/thanhnp/poa-ledger/pkg/semver"
)

// Version is the API version advertised on /health. Peers only replicate
// from nodes with a compatible major version.
var Version = semver.Version{Major: 1, Minor: 0, Patch: 0}

// Router wraps the Gin router with handlers
type Router struct {
	engine          *gin.Engine
	log             zerolog.Logger
	ledger          handlers.Ledger
	metrics         http.Handler
	blockHandler    *handlers.BlockHandler
	workflowHandler *handlers.WorkflowHandler
}

// NewRouter creates a new Router with all handlers. The metrics handler is
// optional.
func NewRouter(log zerolog.Logger, l handlers.Ledger, metrics http.Handler) *Router {
	gin.SetMode(gin.ReleaseMode)

	r := &Router{
		engine:          gin.New(),
		log:             log.With().Str("component", "api").Logger(),
		ledger:          l,
		metrics:         metrics,
		blockHandler:    handlers.NewBlockHandler(l),
		workflowHandler: handlers.NewWorkflowHandler(l),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// setupMiddleware configures middleware
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.Logger(r.log))
	r.engine.Use(middleware.CORS())
}

// setupRoutes configures API routes
func (r *Router) setupRoutes() {
	// Health check
	r.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"node":    r.ledger.Name(),
			"version": Version.String(),
		})
	})

	if r.metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(r.metrics))
	}

	v1 := r.engine.Group("/api/v1")
	v1.Use(middleware.RequireJSON())
	{
		v1.GET("/account", handlers.GetAccount)
		v1.GET("/current", r.blockHandler.GetCurrent)
		v1.GET("/chain", r.blockHandler.GetChain)
		v1.GET("/pending", r.blockHandler.GetPending)
		v1.POST("/confirm", r.workflowHandler.Confirm)

		// Block routes
		blocks := v1.Group("/blocks")
		{
			blocks.POST("", r.workflowHandler.Propose)
			blocks.GET("/latest", r.blockHandler.GetLatest)
			blocks.GET("/height/:height", r.blockHandler.GetByHeight)
			blocks.GET("/:hash", r.blockHandler.GetByHash)
		}
	}
}

// Engine returns the underlying Gin engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// Run starts the HTTP server
func (r *Router) Run(addr string) error {
	return r.engine.Run(addr)
}
