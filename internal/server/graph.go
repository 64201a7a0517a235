package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/cognivault/internal/core"
	"github.com/agenthands/cognivault/internal/logger"
)

const defaultDepth = 2

func (s *Server) FullGraph(c *gin.Context) {
	g, err := s.Vault.FullGraph(c.Request.Context(), currentUser(c).ID, queryInt(c, "limit", core.DefaultGraphLimit))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) Subgraph(c *gin.Context) {
	nodeID := strings.TrimSpace(c.Query("node_id"))
	if nodeID == "" {
		badRequest(c, "node_id is required")
		return
	}
	g, err := s.Vault.Subgraph(c.Request.Context(), currentUser(c).ID, nodeID, queryInt(c, "depth", defaultDepth))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (s *Server) SearchGraph(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		badRequest(c, "query is required")
		return
	}
	nodes, err := s.Vault.Search(c.Request.Context(), currentUser(c).ID, query, c.Query("type"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, nodes)
}

func (s *Server) GraphStats(c *gin.Context) {
	stats, err := s.Vault.Stats(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) CreateMemory(c *gin.Context) {
	var req core.MemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.Summary) == "" {
		badRequest(c, "text and summary are required")
		return
	}

	chunk, err := s.Vault.CreateMemory(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, chunk)
}

type similarityRequest struct {
	MemoryID string `json:"memory_id"`
}

func (s *Server) LinkSimilar(c *gin.Context) {
	var req similarityRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.MemoryID) == "" {
		badRequest(c, "memory_id is required")
		return
	}

	edges, err := s.Vault.LinkSimilar(c.Request.Context(), currentUser(c).ID, req.MemoryID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"created": len(edges), "edges": edges})
}

func (s *Server) ClearGraph(c *gin.Context) {
	report, err := s.Vault.Clear(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		logger.Error("clear incomplete", "user_id", currentUser(c).ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Some stores could not be cleared",
			"deleted": report,
		})
		return
	}
	c.JSON(http.StatusOK, report)
}
