// Package core runs the ingestion pipeline and the graph facade over the
// document, graph and vector stores.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agenthands/cognivault/internal/core/chunking"
	"github.com/agenthands/cognivault/internal/core/extraction"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/core/similarity"
	"github.com/agenthands/cognivault/internal/core/summary"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/llm"
	"github.com/agenthands/cognivault/internal/logger"
	"github.com/agenthands/cognivault/internal/store"
)

const (
	DefaultHistoryLimit = 10
	TextInputFileName   = "text_input.txt"
)

// Upload is a file or text body submitted by a user.
type Upload struct {
	UserID   string
	FileName string
	MimeType string
	Data     []byte
}

type Vault struct {
	Graph      driver.GraphDriver
	Documents  store.DocumentStore
	Vectors    store.VectorStore
	Extractor  *extraction.Extractor
	Summarizer *summary.Summarizer
	Writer     *Writer
	Linker     *similarity.Linker
	// Reranker reorders search results when set.
	Reranker llm.RerankerClient
	Policy   similarity.Policy

	ChunkSize    int
	ChunkOverlap int

	NewID func() string
	Now   func() time.Time
}

type Options struct {
	Graph        driver.GraphDriver
	Documents    store.DocumentStore
	Vectors      store.VectorStore
	Extractor    *extraction.Extractor
	Summarizer   *summary.Summarizer
	Writer       *Writer
	Linker       *similarity.Linker
	Reranker     llm.RerankerClient
	Policy       similarity.Policy
	ChunkSize    int
	ChunkOverlap int
}

func NewVault(opts Options) *Vault {
	v := &Vault{
		Graph:        opts.Graph,
		Documents:    opts.Documents,
		Vectors:      opts.Vectors,
		Extractor:    opts.Extractor,
		Summarizer:   opts.Summarizer,
		Writer:       opts.Writer,
		Linker:       opts.Linker,
		Reranker:     opts.Reranker,
		Policy:       opts.Policy,
		ChunkSize:    opts.ChunkSize,
		ChunkOverlap: opts.ChunkOverlap,
		NewID:        func() string { return uuid.New().String() },
		Now:          time.Now,
	}
	if v.ChunkSize <= 0 {
		v.ChunkSize = chunking.DefaultSize
	}
	if v.ChunkOverlap < 0 || v.ChunkOverlap >= v.ChunkSize {
		v.ChunkOverlap = chunking.DefaultOverlap
	}
	return v
}

// ProcessUpload extracts, chunks, enriches and stores an upload, then links
// every new chunk to its nearest neighbours.
func (v *Vault) ProcessUpload(ctx context.Context, up Upload) (model.UploadResult, error) {
	start := v.Now()
	mimeType := extraction.ResolveMIME(up.MimeType, up.FileName)

	text, err := v.Extractor.Extract(ctx, up.Data, mimeType, up.FileName)
	if err != nil {
		return model.UploadResult{}, err
	}
	if strings.TrimSpace(text) == "" {
		return model.UploadResult{}, fmt.Errorf("%w: %s", model.ErrNoContent, up.FileName)
	}
	logger.Info("Processing upload", "file", up.FileName, "user_id", up.UserID, "chars", len([]rune(text)))

	analysis := v.Summarizer.AnalyzeDocument(ctx, text, up.FileName)
	pieces := chunking.Split(text, v.ChunkSize, v.ChunkOverlap)
	totalChars := len([]rune(text))

	file := model.SourceFile{
		FileID:          v.NewID(),
		UserID:          up.UserID,
		FileName:        up.FileName,
		FileType:        mimeType,
		FileSize:        int64(len(up.Data)),
		UploadDate:      start.UTC(),
		Analysis:        &analysis,
		Status:          model.FileProcessing,
		TotalChunks:     len(pieces),
		TotalCharacters: totalChars,
	}
	if err := v.Documents.CreateFile(ctx, file); err != nil {
		return model.UploadResult{}, &model.StoreError{Store: model.StoreDocument, Op: "create file", Err: err}
	}

	tags := make(map[string]bool)
	entities := make(map[string]bool)
	written := make([]string, 0, len(pieces))
	graphUpdated := true

	for _, p := range pieces {
		meta := v.Summarizer.GenerateMetadata(ctx, p.Text)
		res, err := v.Writer.Write(ctx, MemoryInput{
			UserID:      up.UserID,
			FileID:      file.FileID,
			FileName:    up.FileName,
			Text:        p.Text,
			Index:       p.Index,
			TotalChunks: len(pieces),
			CharOffset:  p.Offset,
			Enrichment:  meta,
		})
		if err != nil {
			v.failFile(ctx, file.FileID, err)
			return model.UploadResult{}, err
		}

		written = append(written, res.Chunk.ChunkID)
		graphUpdated = graphUpdated && res.GraphCommitted()
		for _, t := range res.Chunk.Tags {
			tags[t] = true
		}
		for _, e := range res.Chunk.Entities {
			entities[strings.ToLower(e.Name)] = true
		}
		if p.Index > 0 && p.Index%10 == 0 {
			logger.Debug("upload progress", "file", up.FileName, "chunks", p.Index, "total", len(pieces))
		}
	}

	for _, id := range written {
		if _, err := v.Linker.LinkTop(ctx, id, up.UserID, v.Policy.UploadTopK); err != nil {
			logger.Warn("failed to link similar memories", "chunk_id", id, "error", err)
		}
	}

	if err := v.Documents.UpdateFile(ctx, file.FileID, store.FileUpdate{
		Status:          model.FileCompleted,
		TotalChunks:     len(pieces),
		TotalCharacters: totalChars,
		Analysis:        &analysis,
	}); err != nil {
		logger.Warn("failed to mark file completed", "file_id", file.FileID, "error", err)
	}

	elapsed := v.Now().Sub(start)
	logger.Info("Upload processed", "file", up.FileName, "chunks", len(pieces), "duration", elapsed)

	return model.UploadResult{
		Success:          true,
		FileID:           file.FileID,
		FileName:         up.FileName,
		FileType:         mimeType,
		TotalChunks:      len(pieces),
		TotalCharacters:  totalChars,
		TotalTags:        len(tags),
		TotalEntities:    len(entities),
		DocumentType:     file.DocumentType(),
		MainTopic:        file.MainTopic(),
		ProcessingTimeMS: elapsed.Milliseconds(),
		GraphUpdated:     graphUpdated,
		Message:          fmt.Sprintf("Successfully processed %s and added to your knowledge vault", up.FileName),
	}, nil
}

func (v *Vault) failFile(ctx context.Context, fileID string, cause error) {
	if err := v.Documents.UpdateFile(context.WithoutCancel(ctx), fileID, store.FileUpdate{
		Status: model.FileFailed,
		Error:  cause.Error(),
	}); err != nil {
		logger.Error("failed to mark file failed", "file_id", fileID, "error", err)
	}
}

// History lists the user's files, newest first.
func (v *Vault) History(ctx context.Context, userID string, limit int) ([]model.SourceFile, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	files, err := v.Documents.ListFiles(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// FileDetails returns a file with its chunks in index order. Files owned by
// someone else are reported as not found.
func (v *Vault) FileDetails(ctx context.Context, userID, fileID string) (model.SourceFile, []model.Chunk, error) {
	file, err := v.Documents.GetFile(ctx, userID, fileID)
	if err != nil {
		return model.SourceFile{}, nil, err
	}
	chunks, err := v.Documents.ListFileChunks(ctx, userID, fileID)
	if err != nil {
		return model.SourceFile{}, nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	return file, chunks, nil
}

// MemoryRequest creates a memory directly, bypassing extraction and enrichment.
type MemoryRequest struct {
	Text         string            `json:"text"`
	Summary      string            `json:"summary"`
	Tags         []string          `json:"tags"`
	Entities     []model.EntityRef `json:"entities"`
	SourceFileID string            `json:"source_file_id"`
}

func (v *Vault) CreateMemory(ctx context.Context, userID string, req MemoryRequest) (model.Chunk, error) {
	if strings.TrimSpace(req.Text) == "" {
		return model.Chunk{}, fmt.Errorf("%w: memory text is empty", model.ErrNoContent)
	}

	in := MemoryInput{
		UserID:      userID,
		FileID:      req.SourceFileID,
		Text:        req.Text,
		TotalChunks: 1,
		Enrichment: model.Enrichment{
			Summary:  strings.TrimSpace(req.Summary),
			Tags:     summary.CleanTags(req.Tags),
			Entities: validEntities(req.Entities),
		},
	}
	if req.SourceFileID != "" {
		file, err := v.Documents.GetFile(ctx, userID, req.SourceFileID)
		if err != nil {
			return model.Chunk{}, err
		}
		in.FileName = file.FileName
	}

	res, err := v.Writer.Write(ctx, in)
	if err != nil {
		return model.Chunk{}, err
	}
	return res.Chunk, nil
}

// LinkSimilar merges SIMILAR_TO edges for an existing memory.
func (v *Vault) LinkSimilar(ctx context.Context, userID, memoryID string) ([]model.SimilarityEdge, error) {
	return v.Linker.Link(ctx, memoryID, userID)
}

// ClearReport counts what was removed from each store.
type ClearReport struct {
	Graph     int `json:"graph"`
	Documents int `json:"documents"`
	Vectors   int `json:"vectors"`
}

// Clear removes the user's data from all three stores. Every store is
// attempted; failures are joined into the returned error.
func (v *Vault) Clear(ctx context.Context, userID string) (ClearReport, error) {
	ctx = context.WithoutCancel(ctx)
	var (
		report ClearReport
		errs   []error
	)

	res, err := v.Graph.ExecuteQuery(ctx, driver.ClearUserQuery, map[string]interface{}{"user_id": userID})
	if err != nil {
		errs = append(errs, &model.StoreError{Store: model.StoreGraph, Op: "clear", Err: err})
	} else if len(res.Records) > 0 {
		report.Graph = driver.RecordInt(res.Records[0], "deleted")
	}

	if n, err := v.Documents.DeleteUser(ctx, userID); err != nil {
		errs = append(errs, &model.StoreError{Store: model.StoreDocument, Op: "clear", Err: err})
	} else {
		report.Documents = n
	}

	if n, err := v.Vectors.DeleteUser(ctx, userID); err != nil {
		errs = append(errs, &model.StoreError{Store: model.StoreVector, Op: "clear", Err: err})
	} else {
		report.Vectors = n
	}

	logger.Info("Cleared user data", "user_id", userID, "graph", report.Graph, "documents", report.Documents, "vectors", report.Vectors)
	return report, errors.Join(errs...)
}

func validEntities(in []model.EntityRef) []model.EntityRef {
	out := make([]model.EntityRef, 0, len(in))
	for _, e := range in {
		e.Name = strings.TrimSpace(e.Name)
		if e.Name == "" {
			continue
		}
		e.Type = strings.ToUpper(strings.TrimSpace(e.Type))
		if e.Type == "" {
			e.Type = "GENERAL"
		}
		out = append(out, e)
	}
	return out
}
