package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/cognivault/internal/driver"
)

const healthTimeout = 3 * time.Second

type HealthReport struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

// Health probes every store in parallel. It always answers 200; a store that
// does not respond turns the status to "degraded".
func (s *Server) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	probes := map[string]func(context.Context) error{
		"graph": func(ctx context.Context) error {
			_, err := s.Vault.Graph.ExecuteQuery(ctx, driver.PingQuery, nil)
			return err
		},
		"documents": s.Vault.Documents.Ping,
		"vectors":   s.Vault.Vectors.Ping,
	}

	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	errs := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			errs[i] = probes[name](ctx)
			return nil
		})
	}
	_ = g.Wait()

	report := HealthReport{
		Status:    "healthy",
		Timestamp: s.Now().UTC(),
		Services:  map[string]string{},
	}
	for i, name := range names {
		if errs[i] != nil {
			report.Services[name] = "unavailable"
			report.Status = "degraded"
			continue
		}
		report.Services[name] = "connected"
	}

	switch s.LLMProvider {
	case "", "none":
		report.Services["llm"] = "fallback"
	default:
		report.Services["llm"] = s.LLMProvider
	}
	c.JSON(http.StatusOK, report)
}
