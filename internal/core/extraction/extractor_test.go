package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockVision struct {
	Text string
	Err  error
	Mime string
}

func (m *MockVision) ExtractText(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	m.Mime = mimeType
	return m.Text, m.Err
}

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor(nil, "")
	text, err := e.Extract(context.Background(), []byte("Hello   world.\r\n\r\n\r\nBye."), "text/plain; charset=utf-8", "a.txt")
	require.NoError(t, err)
	assert.Equal(t, "Hello world.\n\nBye.", text)
}

func TestExtractResolvesExtension(t *testing.T) {
	e := NewExtractor(nil, "")
	text, err := e.Extract(context.Background(), []byte("# Notes"), "application/octet-stream", "notes.md")
	require.NoError(t, err)
	assert.Equal(t, "# Notes", text)
}

func TestExtractUnsupported(t *testing.T) {
	e := NewExtractor(nil, "")
	_, err := e.Extract(context.Background(), []byte("x"), "application/zip", "a.zip")
	assert.True(t, errors.Is(err, model.ErrUnsupportedFileType))
}

func TestExtractDOCX(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>
<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:tab/><w:t>World</w:t></w:r></w:p>
<w:p><w:r><w:t>Second line</w:t></w:r></w:p>
</w:body></w:document>`

	e := NewExtractor(nil, "")
	text, err := e.Extract(context.Background(), buildDOCX(t, doc), MimeDOCX, "a.docx")
	require.NoError(t, err)
	assert.Equal(t, "Hello World\nSecond line", text)
}

func TestExtractDOCXMissingDocument(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("other.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	e := NewExtractor(nil, "")
	_, err = e.Extract(context.Background(), buf.Bytes(), MimeDOCX, "a.docx")
	assert.True(t, errors.Is(err, model.ErrExtractionFailure))
}

func TestExtractLegacyDOC(t *testing.T) {
	data := []byte{0x00, 0x01, 0xd0}
	data = append(data, []byte("This is a legacy word document body")...)
	data = append(data, 0x00, 0xff)
	data = append(data, []byte("ab")...)
	data = append(data, 0x00)

	e := NewExtractor(nil, "")
	text, err := e.Extract(context.Background(), data, MimeDOC, "old.doc")
	require.NoError(t, err)
	assert.Equal(t, "This is a legacy word document body", text)

	_, err = e.Extract(context.Background(), []byte{0x00, 'a', 'b', 'c', 'd', 'e', 0x00}, MimeDOC, "tiny.doc")
	assert.True(t, errors.Is(err, model.ErrExtractionFailure))
}

func TestExtractPDFInvalid(t *testing.T) {
	e := NewExtractor(nil, "")
	_, err := e.Extract(context.Background(), []byte("not a pdf"), MimePDF, "a.pdf")
	assert.True(t, errors.Is(err, model.ErrExtractionFailure))
}

// corruptPDF has a valid header, xref and trailer, but the Pages object
// the catalog points at is not a PDF object.
func corruptPDF() []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	objects := []string{
		"1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n",
		"2 0 obj\ngarbage garbage\nendobj\n",
	}
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		buf.WriteString(obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestExtractPDFCorruptObjects(t *testing.T) {
	e := NewExtractor(nil, "")
	var err error
	require.NotPanics(t, func() {
		_, err = e.Extract(context.Background(), corruptPDF(), MimePDF, "broken.pdf")
	})
	assert.True(t, errors.Is(err, model.ErrExtractionFailure))
}

func TestExtractImage(t *testing.T) {
	vision := &MockVision{Text: "  Whiteboard notes  "}
	e := NewExtractor(vision, "read it")
	text, err := e.Extract(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "", "board.png")
	require.NoError(t, err)
	assert.Equal(t, "Whiteboard notes", text)
	assert.Equal(t, "image/png", vision.Mime)
}

func TestExtractImageFailures(t *testing.T) {
	_, err := NewExtractor(nil, "").Extract(context.Background(), []byte{1}, "image/jpeg", "a.jpg")
	assert.True(t, errors.Is(err, model.ErrExtractionFailure))

	_, err = NewExtractor(&MockVision{Err: errors.New("quota")}, "").Extract(context.Background(), []byte{1}, "image/jpeg", "a.jpg")
	assert.True(t, errors.Is(err, model.ErrExtractionFailure))

	_, err = NewExtractor(&MockVision{Text: "   "}, "").Extract(context.Background(), []byte{1}, "image/jpeg", "a.jpg")
	assert.True(t, errors.Is(err, model.ErrExtractionFailure))
}

func TestResolveMIME(t *testing.T) {
	assert.Equal(t, "text/plain", ResolveMIME("Text/Plain; charset=UTF-8", "x"))
	assert.Equal(t, MimePDF, ResolveMIME("", "Paper.PDF"))
	assert.Equal(t, "application/octet-stream", ResolveMIME("application/octet-stream", "blob"))
}

func TestNormalize(t *testing.T) {
	in := "Hello   \t world  \r\nline two\n\n\n\nend\x00\u0085 "
	assert.Equal(t, "Hello world\nline two\n\nend", Normalize(in))
	assert.Equal(t, "", Normalize(" \n\t "))
	assert.Equal(t, "a\nb\n\nc d", Normalize("a\n  b  \n \n\tc   d"))
}
