package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/cognivault/internal/config"
	"github.com/agenthands/cognivault/internal/core"
	"github.com/agenthands/cognivault/internal/core/dashboard"
	"github.com/agenthands/cognivault/internal/core/timeline"
	"github.com/agenthands/cognivault/internal/logger"
	"github.com/agenthands/cognivault/internal/session"
)

type Server struct {
	Config    *config.Config
	Vault     *core.Vault
	Timeline  *timeline.Analyzer
	Dashboard *dashboard.Aggregator
	Sessions  session.Store
	// LLMProvider is reported by the health check; "none" means fallbacks only.
	LLMProvider string

	Now func() time.Time
}

func NewServer(cfg *config.Config, vault *core.Vault, analyzer *timeline.Analyzer, aggregator *dashboard.Aggregator, sessions session.Store, llmProvider string) *Server {
	return &Server{
		Config:      cfg,
		Vault:       vault,
		Timeline:    analyzer,
		Dashboard:   aggregator,
		Sessions:    sessions,
		LLMProvider: llmProvider,
		Now:         time.Now,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	api := r.Group("/api")
	api.GET("/health", s.Health)

	protected := api.Group("")
	protected.Use(s.authMiddleware())

	protected.POST("/upload", s.Upload)
	protected.GET("/upload/history", s.UploadHistory)
	protected.GET("/upload/file/:fileId", s.FileDetails)

	g := protected.Group("/graph")
	g.GET("/full", s.FullGraph)
	g.GET("/subgraph", s.Subgraph)
	g.GET("/search", s.SearchGraph)
	g.GET("/stats", s.GraphStats)
	g.POST("/memory", s.CreateMemory)
	g.POST("/edges/similarity", s.LinkSimilar)
	g.DELETE("/clear", s.ClearGraph)

	tl := protected.Group("/timeline")
	tl.GET("/events", s.TimelineEvents)
	tl.GET("/topic-spikes", s.TopicSpikes)
	tl.GET("/emotion-trend", s.EmotionTrend)
	tl.GET("/knowledge-evolution", s.KnowledgeEvolution)
	tl.GET("/branch-triggers", s.BranchTriggers)
	tl.GET("/insights", s.TimelineInsights)

	protected.GET("/dashboard/overview", s.DashboardOverview)

	inc := protected.Group("/incognito")
	inc.POST("/process", s.IncognitoProcess)
	inc.POST("/chat", s.IncognitoChat)
	inc.DELETE("/:sessionId", s.IncognitoDelete)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
	})
	return r
}

// requestLogger logs one line per request after the handler has run.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		keyvals := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
		}
		if u, ok := c.Get(userKey); ok {
			keyvals = append(keyvals, "user_id", u.(User).ID)
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", keyvals...)
			return
		}
		logger.Info("request", keyvals...)
	}
}
