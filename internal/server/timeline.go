package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Timeline and dashboard reads degrade to empty payloads and never fail.

func (s *Server) TimelineEvents(c *gin.Context) {
	c.JSON(http.StatusOK, s.Timeline.Events(c.Request.Context(), currentUser(c).ID))
}

func (s *Server) TopicSpikes(c *gin.Context) {
	c.JSON(http.StatusOK, s.Timeline.TopicSpikes(c.Request.Context(), currentUser(c).ID))
}

func (s *Server) EmotionTrend(c *gin.Context) {
	c.JSON(http.StatusOK, s.Timeline.EmotionTrend(c.Request.Context(), currentUser(c).ID))
}

func (s *Server) KnowledgeEvolution(c *gin.Context) {
	c.JSON(http.StatusOK, s.Timeline.KnowledgeEvolution(c.Request.Context(), currentUser(c).ID))
}

func (s *Server) BranchTriggers(c *gin.Context) {
	c.JSON(http.StatusOK, s.Timeline.BranchTriggers(c.Request.Context(), currentUser(c).ID))
}

func (s *Server) TimelineInsights(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"insights": s.Timeline.Insights(c.Request.Context(), currentUser(c).ID)})
}

func (s *Server) DashboardOverview(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, s.Dashboard.Overview(c.Request.Context(), u.ID, u.Name, u.Email))
}
