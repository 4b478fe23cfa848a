// Package server exposes the discovery agent over HTTP. Handlers stay thin:
// they validate references, delegate to the extractor, assistant, scorer,
// and aggregator, and translate errors to status codes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/xaenox/feature-scout/internal/assistant"
	"github.com/xaenox/feature-scout/internal/extractor"
	"github.com/xaenox/feature-scout/internal/models"
	"github.com/xaenox/feature-scout/internal/scoring"
	"github.com/xaenox/feature-scout/internal/storage"
	"go.uber.org/zap"
)

// Assistant is the slice of the assistant service the handlers use; tests
// substitute a stub so no model calls happen.
type Assistant interface {
	Recommend(ctx context.Context, userRole, experienceLevel string, pageContext models.PageContext, userQuery string, discovered, available []assistant.FeatureSummary) assistant.Recommendation
	GenerateTutorial(ctx context.Context, feature assistant.FeatureSummary, userRole, experienceLevel string, pageContext *models.PageContext) assistant.Tutorial
	GenerateAutomation(ctx context.Context, feature assistant.FeatureSummary, userRole string, pageContext *models.PageContext) assistant.Automation
}

type Server struct {
	store      storage.Storage
	extractor  *extractor.Extractor
	assistant  Assistant
	scorer     *scoring.Scorer
	aggregator *scoring.Aggregator
	logger     *zap.Logger
}

func New(store storage.Storage, ex *extractor.Extractor, as Assistant, scorer *scoring.Scorer, aggregator *scoring.Aggregator, logger *zap.Logger) *Server {
	return &Server{
		store:      store,
		extractor:  ex,
		assistant:  as,
		scorer:     scorer,
		aggregator: aggregator,
		logger:     logger,
	}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	router.GET("/health", s.health)

	router.POST("/users/", s.createUser)
	router.GET("/users/", s.listUsers)
	router.GET("/users/:id", s.getUser)
	router.GET("/users/:id/discovered_features", s.discoveredFeatures)

	router.POST("/features/", s.createFeature)
	router.GET("/features/", s.listFeatures)
	router.GET("/features/:id", s.getFeature)
	router.POST("/features/:id/tutorial", s.tutorial)
	router.POST("/features/:id/automate", s.automate)

	router.POST("/context/analyze", s.analyzeContext)
	router.POST("/feedback", s.feedback)

	router.GET("/insights/user/:id", s.userInsights)
	router.GET("/insights/features", s.featureInsights)

	return router
}

func (s *Server) Run(port int) error {
	addr := fmt.Sprintf(":%d", port)
	s.logger.Info("starting HTTP server", zap.String("addr", addr))
	return s.Router().Run(addr)
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services": gin.H{
			"assistant": "available",
			"extractor": "available",
		},
	})
}
