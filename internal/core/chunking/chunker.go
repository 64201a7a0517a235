// Package chunking splits normalized text into sentence-aligned, overlapping chunks.
package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	DefaultSize    = 600
	DefaultOverlap = 120
)

// A sentence is a run ending in terminators, or a trailing fragment without one.
var sentencePattern = regexp.MustCompile(`[^.!?]*[.!?]+|[^.!?]+`)

type Chunk struct {
	Index int
	Text  string
	// Offset is the rune offset of the chunk body in the space-joined sentence stream.
	Offset int
	// Overlap is the byte length of the prefix repeated from the previous chunk.
	Overlap int
}

// Body returns the chunk text without the repeated prefix.
func (c Chunk) Body() string {
	if c.Overlap == 0 {
		return c.Text
	}
	return strings.TrimPrefix(c.Text[c.Overlap:], " ")
}

func sentences(text string) []string {
	var out []string
	for _, s := range sentencePattern.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Split packs whole sentences into chunks whose body stays within size runes.
// Every chunk after the first starts with about overlap runes from the end of
// the previous one, cut at a word boundary, so Text is at most
// size+overlap+1 runes. A sentence longer than size is emitted alone and
// never truncated.
func Split(text string, size, overlap int) []Chunk {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	var (
		chunks  []Chunk
		body    []string
		bodyLen int
		prefix  string
		offset  int
		pos     int
	)

	emit := func() {
		text := strings.Join(body, " ")
		if prefix != "" {
			text = prefix + " " + text
		}
		chunks = append(chunks, Chunk{
			Index:   len(chunks),
			Text:    text,
			Offset:  offset,
			Overlap: len(prefix),
		})
		prefix = tail(text, overlap)
		body = body[:0]
		bodyLen = 0
	}

	for _, s := range sentences(text) {
		n := utf8.RuneCountInString(s)
		added := n
		if len(body) > 0 {
			added++
		}
		if len(body) > 0 && bodyLen+added > size {
			emit()
			offset = pos
			added = n
		}
		body = append(body, s)
		bodyLen += added
		pos += n + 1
	}
	if len(body) > 0 {
		emit()
	}

	return chunks
}

// tail returns the last n runes of s, moved forward to start on a whole word.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return strings.TrimSpace(s)
	}
	cut := len(r) - n
	t := string(r[cut:])
	if r[cut-1] != ' ' {
		i := strings.IndexByte(t, ' ')
		if i < 0 {
			return ""
		}
		t = t[i+1:]
	}
	return strings.TrimSpace(t)
}
