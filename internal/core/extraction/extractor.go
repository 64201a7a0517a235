package extraction

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/llm"
	"github.com/agenthands/cognivault/internal/logger"
	"github.com/ledongthuc/pdf"
)

const (
	MimePDF      = "application/pdf"
	MimeDOC      = "application/msword"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText     = "text/plain"
	MimeMarkdown = "text/markdown"
)

var allowed = map[string]bool{
	MimePDF:      true,
	MimeDOC:      true,
	MimeDOCX:     true,
	MimeText:     true,
	MimeMarkdown: true,
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

var byExtension = map[string]string{
	".pdf":  MimePDF,
	".doc":  MimeDOC,
	".docx": MimeDOCX,
	".txt":  MimeText,
	".md":   MimeMarkdown,
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
}

// minDocText is the least legacy .doc text accepted as a real extraction.
const minDocText = 20

// Extractor turns uploaded bytes into plain text.
type Extractor struct {
	Vision       llm.VisionClient
	VisionPrompt string
}

func NewExtractor(vision llm.VisionClient, visionPrompt string) *Extractor {
	return &Extractor{Vision: vision, VisionPrompt: visionPrompt}
}

// ResolveMIME strips parameters and falls back to the file extension when the
// client sent no useful type.
func ResolveMIME(mimeType, fileName string) string {
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	if mt == "" || mt == "application/octet-stream" {
		if byExt, ok := byExtension[strings.ToLower(filepath.Ext(fileName))]; ok {
			return byExt
		}
	}
	return mt
}

func Supported(mimeType string) bool {
	return allowed[mimeType]
}

// Extract returns normalized text. Errors wrap model.ErrUnsupportedFileType or
// model.ErrExtractionFailure.
func (e *Extractor) Extract(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	mt := ResolveMIME(mimeType, fileName)
	if !Supported(mt) {
		return "", fmt.Errorf("%w: %s", model.ErrUnsupportedFileType, mt)
	}

	var (
		text string
		err  error
	)
	switch {
	case mt == MimePDF:
		text, err = extractPDF(data)
	case mt == MimeDOCX:
		text, err = extractDOCX(data)
	case mt == MimeDOC:
		text, err = extractDOC(data)
	case strings.HasPrefix(mt, "text/"):
		text = string(bytes.ToValidUTF8(data, []byte("�")))
	case strings.HasPrefix(mt, "image/"):
		text, err = e.extractImage(ctx, data, mt)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", model.ErrExtractionFailure, fileName, err)
	}

	logger.Debug("extracted text", "file", fileName, "mime", mt, "chars", len(text))
	return Normalize(text), nil
}

// extractPDF recovers from the reader's panics on malformed object graphs.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("failed to read PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	b, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(b); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// extractDOCX streams word/document.xml; <w:p> starts a line and <w:tab/> is a tab.
func extractDOCX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open DOCX zip: %w", err)
	}

	var documentXML *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			documentXML = f
			break
		}
	}
	if documentXML == nil {
		return "", fmt.Errorf("invalid docx: missing word/document.xml")
	}

	rc, err := documentXML.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	decoder := xml.NewDecoder(rc)
	var sb strings.Builder
	inText := false
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
			case "tab":
				sb.WriteString("\t")
			case "br":
				sb.WriteString("\n")
			case "t":
				inText = true
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return sb.String(), nil
}

// extractDOC keeps runs of printable characters from a legacy Word binary.
// Short runs are formatting noise and are dropped.
func extractDOC(data []byte) (string, error) {
	const minRun = 4

	var (
		out strings.Builder
		run []byte
	)
	flush := func() {
		if len(run) >= minRun {
			if out.Len() > 0 {
				out.WriteByte(' ')
			}
			out.Write(run)
		}
		run = run[:0]
	}
	for _, b := range data {
		switch {
		case b == '\r' || b == '\n':
			flush()
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
		case b >= 0x20 && b < 0x7f, b == '\t':
			run = append(run, b)
		default:
			flush()
		}
	}
	flush()

	text := strings.TrimSpace(out.String())
	if len([]rune(text)) < minDocText {
		return "", fmt.Errorf("no readable text in .doc file")
	}
	return text, nil
}

func (e *Extractor) extractImage(ctx context.Context, data []byte, mimeType string) (string, error) {
	if e.Vision == nil {
		return "", fmt.Errorf("image text extraction needs a vision provider: %w", model.ErrProviderUnavailable)
	}
	text, err := e.Vision.ExtractText(ctx, e.VisionPrompt, data, mimeType)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("vision provider returned no text")
	}
	return text, nil
}

// Normalize canonicalizes whitespace and strips control characters other than newlines.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var sb strings.Builder
	sb.Grow(len(text))
	newlines := 0
	pendingSpace := false
	for _, r := range text {
		switch {
		case r == '\n':
			pendingSpace = false
			newlines++
			if newlines <= 2 {
				sb.WriteRune('\n')
			}
		case r == ' ' || r == '\t':
			pendingSpace = true
		case unicode.IsControl(r):
			// dropped
		default:
			if pendingSpace && sb.Len() > 0 && newlines == 0 {
				sb.WriteRune(' ')
			}
			pendingSpace = false
			newlines = 0
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}
