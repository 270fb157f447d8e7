package httptransport

import (
	"fmt"
	"time"

	"github.com/RyanBlaney/latency-benchmark-common/logging"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/voxmaster/voice-engine/internal/engine"
)

// Options configures the HTTP router builder.
type Options struct {
	Engine *engine.Engine
	Logger logging.Logger
	Debug  bool
}

// Router bundles the gin engine and its API group.
type Router struct {
	Engine *gin.Engine
	API    *gin.RouterGroup
}

// Build constructs a gin engine with recovery, logging, and CORS middleware,
// and mounts the full API surface.
func Build(opts Options) (*Router, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("http router requires an engine")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	if opts.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	handler := newHandler(opts.Engine, logger)

	api.GET("/health", handler.health)
	api.POST("/analyze", handler.analyze)
	api.GET("/analyze/features", handler.featureCatalog)
	api.GET("/analyze/scoring-info", handler.scoringInfo)

	biometrics := api.Group("/biometrics")
	biometrics.POST("/enroll", handler.enroll)
	biometrics.POST("/verify", handler.verify)
	biometrics.GET("/signatures", handler.listSignatures)
	biometrics.DELETE("/signatures/:id", handler.deleteSignature)

	generate := api.Group("/generate")
	generate.POST("/score", handler.scoreGeneration)
	generate.GET("/voice-types", handler.voiceTypes)
	generate.GET("/perceptual-profiles", handler.perceptualProfiles)

	return &Router{Engine: router, API: api}, nil
}

func loggingMiddleware(logger logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("HTTP request", logging.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}
}
