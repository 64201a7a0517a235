package core

import (
	"context"
	"strings"
	"testing"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/core/similarity"
	"github.com/agenthands/cognivault/internal/driver"
	"github.com/agenthands/cognivault/internal/driver/drivertest"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const notes = `Go is a statically typed language designed at Google.
Goroutines are lightweight threads managed by the runtime.
Channels let goroutines communicate without sharing memory.
The select statement waits on several channel operations at once.
Context values carry deadlines and cancellation across API boundaries.
Interfaces are satisfied implicitly by any type with the right methods.`

func textUpload(user, text string) Upload {
	return Upload{UserID: user, FileName: "notes.txt", MimeType: "text/plain", Data: []byte(text)}
}

func TestProcessUpload(t *testing.T) {
	f := newFixture(t, &drivertest.Driver{})
	ctx := context.Background()

	res, err := f.vault.ProcessUpload(ctx, textUpload("u1", notes))
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, "file-1", res.FileID)
	assert.Equal(t, "text/plain", res.FileType)
	assert.Greater(t, res.TotalChunks, 1)
	assert.Positive(t, res.TotalCharacters)
	assert.True(t, res.GraphUpdated)
	assert.Equal(t, "document", res.DocumentType)
	assert.Equal(t, "notes.txt", res.MainTopic)
	assert.Equal(t, "Successfully processed notes.txt and added to your knowledge vault", res.Message)

	file, chunks, err := f.vault.FileDetails(ctx, "u1", "file-1")
	require.NoError(t, err)
	assert.Equal(t, model.FileCompleted, file.Status)
	assert.Equal(t, res.TotalChunks, file.TotalChunks)
	assert.Equal(t, res.TotalCharacters, file.TotalCharacters)
	require.Len(t, chunks, res.TotalChunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, "file-1", c.FileID)
		assert.Equal(t, "notes.txt", c.FileName)
		assert.NotEmpty(t, c.Summary)
	}

	history, err := f.vault.History(ctx, "u1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "file-1", history[0].FileID)
}

func TestProcessUploadGraphOutage(t *testing.T) {
	f := newFixture(t, &drivertest.Driver{Err: errOffline})

	res, err := f.vault.ProcessUpload(context.Background(), textUpload("u1", notes))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.False(t, res.GraphUpdated)
}

func TestProcessUploadDocumentFailureMarksFile(t *testing.T) {
	graph := &drivertest.Driver{}
	base := newFixture(t, graph)
	f := newFixtureWith(t, graph, base.docs, failingChunks{base.docs}, base.vectors, base.vectors)
	ctx := context.Background()

	_, err := f.vault.ProcessUpload(ctx, textUpload("u1", notes))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStorePartialFailure)

	file, err := base.docs.GetFile(ctx, "u1", "file-1")
	require.NoError(t, err)
	assert.Equal(t, model.FileFailed, file.Status)
	assert.NotEmpty(t, file.Error)
}

func TestProcessUploadRejectsInput(t *testing.T) {
	f := newFixture(t, &drivertest.Driver{})
	ctx := context.Background()

	_, err := f.vault.ProcessUpload(ctx, Upload{UserID: "u1", FileName: "archive.zip", MimeType: "application/zip", Data: []byte("PK")})
	assert.ErrorIs(t, err, model.ErrUnsupportedFileType)

	_, err = f.vault.ProcessUpload(ctx, textUpload("u1", "  \n\t "))
	assert.ErrorIs(t, err, model.ErrNoContent)

	history, err := f.vault.History(ctx, "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestFileDetailsIsScopedToOwner(t *testing.T) {
	f := newFixture(t, &drivertest.Driver{})
	ctx := context.Background()

	_, err := f.vault.ProcessUpload(ctx, textUpload("u1", notes))
	require.NoError(t, err)

	_, _, err = f.vault.FileDetails(ctx, "u2", "file-1")
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCreateMemory(t *testing.T) {
	graph := &drivertest.Driver{}
	f := newFixture(t, graph)
	ctx := context.Background()

	c, err := f.vault.CreateMemory(ctx, "u1", MemoryRequest{
		Text:     "Buffered channels block only when full.",
		Summary:  "  Buffered channels  ",
		Tags:     []string{"Channels", "channels", ""},
		Entities: []model.EntityRef{{Name: " Go "}, {Name: ""}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Buffered channels", c.Summary)
	assert.Equal(t, []string{"channels"}, c.Tags)
	assert.Equal(t, []model.EntityRef{{Name: "Go", Type: "GENERAL"}}, c.Entities)
	assert.Empty(t, c.FileName)

	_, err = f.vault.CreateMemory(ctx, "u1", MemoryRequest{Text: " "})
	assert.ErrorIs(t, err, model.ErrNoContent)

	_, err = f.vault.CreateMemory(ctx, "u1", MemoryRequest{Text: "x", SourceFileID: "missing"})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestLinkSimilar(t *testing.T) {
	graph := &drivertest.Driver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			if query == driver.MergeSimilarityQuery {
				return drivertest.Result([]string{"linked"}, []any{int64(1)}), nil
			}
			return neo4j.EagerResult{}, nil
		},
	}
	f := newFixture(t, graph)
	ctx := context.Background()

	text := "Select waits on many channels."
	first, err := f.vault.CreateMemory(ctx, "u1", MemoryRequest{Text: text})
	require.NoError(t, err)
	second, err := f.vault.CreateMemory(ctx, "u1", MemoryRequest{Text: text})
	require.NoError(t, err)
	_, err = f.vault.CreateMemory(ctx, "u2", MemoryRequest{Text: text})
	require.NoError(t, err)

	edges, err := f.vault.LinkSimilar(ctx, "u1", first.ChunkID)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, second.ChunkID, edges[0].Target)
	assert.Equal(t, similarity.EdgeType, edges[0].Type)

	_, err = f.vault.LinkSimilar(ctx, "u2", first.ChunkID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestClear(t *testing.T) {
	graph := &drivertest.Driver{
		Handler: func(query string, params map[string]interface{}) (neo4j.EagerResult, error) {
			if query == driver.ClearUserQuery {
				return drivertest.Result([]string{"deleted"}, []any{int64(7)}), nil
			}
			return neo4j.EagerResult{}, nil
		},
	}
	f := newFixture(t, graph)
	ctx := context.Background()

	res, err := f.vault.ProcessUpload(ctx, textUpload("u1", notes))
	require.NoError(t, err)

	report, err := f.vault.Clear(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, ClearReport{Graph: 7, Documents: res.TotalChunks + 1, Vectors: res.TotalChunks}, report)

	history, err := f.vault.History(ctx, "u1", 0)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClearAttemptsEveryStore(t *testing.T) {
	f := newFixture(t, &drivertest.Driver{Err: errOffline})
	ctx := context.Background()

	_, err := f.vault.CreateMemory(ctx, "u1", MemoryRequest{Text: "kept until cleared"})
	require.NoError(t, err)

	report, err := f.vault.Clear(ctx, "u1")
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrStorePartialFailure)
	assert.True(t, strings.Contains(err.Error(), "graph store clear"))
	assert.Equal(t, 1, report.Documents)
	assert.Equal(t, 1, report.Vectors)
}
