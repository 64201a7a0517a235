package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agenthands/cognivault/internal/core"
	"github.com/agenthands/cognivault/internal/core/common"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/session"
)

const (
	incognitoTextLimit    = 15000
	incognitoContextLimit = 5000
)

// IncognitoProcess analyzes an upload into a temporary session. Nothing is
// written to the graph, document or vector stores.
func (s *Server) IncognitoProcess(c *gin.Context) {
	form, ok := s.readForm(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	var parts []string
	fileName := core.TextInputFileName
	if form.file != nil {
		text, err := s.Vault.Extractor.Extract(ctx, form.file.Data, form.file.MimeType, form.file.FileName)
		if err != nil {
			writeError(c, err)
			return
		}
		parts = append(parts, text)
		fileName = form.file.FileName
	}
	if text := strings.TrimSpace(form.text); text != "" {
		parts = append(parts, text)
	}
	content := common.Truncate(strings.TrimSpace(strings.Join(parts, "\n\n")), incognitoTextLimit)
	if content == "" {
		writeError(c, fmt.Errorf("%w: no file or text content provided", model.ErrNoContent))
		return
	}

	meta := s.Vault.Summarizer.GenerateMetadata(ctx, content)
	sess, err := s.Sessions.Put(ctx, session.Session{
		ID:        "inc_" + uuid.New().String(),
		UserID:    currentUser(c).ID,
		FileName:  fileName,
		Text:      content,
		Summary:   meta.Summary,
		Tags:      meta.Tags,
		Entities:  session.MergeEntities(meta.Entities, session.BasicEntities(content)),
		WordCloud: session.WordCloud(content),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

type chatRequest struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
}

func (s *Server) IncognitoChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		badRequest(c, "Message is required.")
		return
	}
	if strings.TrimSpace(req.SessionID) == "" {
		badRequest(c, "sessionId is required. Process content first.")
		return
	}

	sess, ok := s.ownedSession(c, req.SessionID)
	if !ok {
		return
	}

	sessionContext := fmt.Sprintf("File: %s\nSummary: %s\nText content: %s",
		sess.FileName, sess.Summary, common.Truncate(sess.Text, incognitoContextLimit))
	prompt := fmt.Sprintf(s.Vault.Summarizer.Prompts.Chat, sessionContext, req.Message)

	answer, ok := s.Vault.Summarizer.GenerateText(c.Request.Context(), prompt)
	if !ok {
		answer = fmt.Sprintf("AI chat is unavailable right now. Here is what %s covers: %s", sess.FileName, sess.Summary)
	}
	c.JSON(http.StatusOK, gin.H{"sessionId": sess.ID, "response": answer})
}

func (s *Server) IncognitoDelete(c *gin.Context) {
	sess, ok := s.ownedSession(c, c.Param("sessionId"))
	if !ok {
		return
	}
	if err := s.Sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ownedSession loads a session and hides sessions of other users behind 404.
func (s *Server) ownedSession(c *gin.Context, id string) (session.Session, bool) {
	sess, err := s.Sessions.Get(c.Request.Context(), id)
	if err == nil && sess.UserID != currentUser(c).ID {
		err = fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		writeError(c, err)
		return session.Session{}, false
	}
	return sess, true
}
