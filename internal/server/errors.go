package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/logger"
)

// writeError maps domain errors onto status codes. Anything unrecognized is
// logged and reported as a generic 500.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrUnsupportedFileType),
		errors.Is(err, model.ErrExtractionFailure),
		errors.Is(err, model.ErrNoContent):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, model.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Not found"})
	default:
		logger.Error("request error", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}
