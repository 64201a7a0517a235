package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/agenthands/cognivault/internal/core"
	"github.com/agenthands/cognivault/internal/core/extraction"
)

// uploadForm holds the optional file part and the optional textInput field.
type uploadForm struct {
	file *core.Upload
	text string
}

// readForm enforces the upload cap and reads the multipart "file" part and
// the "textInput" field. It writes the error response itself.
func (s *Server) readForm(c *gin.Context) (uploadForm, bool) {
	var form uploadForm
	user := currentUser(c)

	limit := s.Config.Server.MaxUploadBytes
	if limit > 0 {
		if c.Request.ContentLength > limit {
			tooLarge(c, limit)
			return form, false
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}

	header, err := c.FormFile("file")
	switch {
	case err == nil:
		data, err := readPart(header)
		if err != nil {
			if isTooLarge(err) {
				tooLarge(c, limit)
			} else {
				badRequest(c, "Failed to read uploaded file")
			}
			return form, false
		}
		form.file = &core.Upload{
			UserID:   user.ID,
			FileName: header.Filename,
			MimeType: header.Header.Get("Content-Type"),
			Data:     data,
		}
	case isTooLarge(err):
		tooLarge(c, limit)
		return form, false
	}

	form.text = c.PostForm("textInput")
	return form, true
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func tooLarge(c *gin.Context, limit int64) {
	c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
		"success": false,
		"error":   fmt.Sprintf("Upload exceeds the %d byte limit", limit),
	})
}

func (s *Server) Upload(c *gin.Context) {
	form, ok := s.readForm(c)
	if !ok {
		return
	}

	var up core.Upload
	switch {
	case form.file != nil:
		up = *form.file
	case strings.TrimSpace(form.text) != "":
		up = core.Upload{
			UserID:   currentUser(c).ID,
			FileName: core.TextInputFileName,
			MimeType: extraction.MimeText,
			Data:     []byte(form.text),
		}
	default:
		badRequest(c, "No file or text input provided")
		return
	}

	res, err := s.Vault.ProcessUpload(c.Request.Context(), up)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) UploadHistory(c *gin.Context) {
	limit := queryInt(c, "limit", core.DefaultHistoryLimit)
	files, err := s.Vault.History(c.Request.Context(), currentUser(c).ID, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "files": files, "count": len(files)})
}

func (s *Server) FileDetails(c *gin.Context) {
	file, chunks, err := s.Vault.FileDetails(c.Request.Context(), currentUser(c).ID, c.Param("fileId"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "file": file, "chunks": chunks})
}

// queryInt falls back to def for missing, malformed or non-positive values.
func queryInt(c *gin.Context, key string, def int) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n <= 0 {
		return def
	}
	return n
}
