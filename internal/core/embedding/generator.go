package embedding

import (
	"context"
	"math"

	"github.com/agenthands/cognivault/internal/llm"
	"github.com/agenthands/cognivault/internal/logger"
)

const DefaultDimensions = 768

// Embedding is a vector plus whether it came from the deterministic fallback.
type Embedding struct {
	Vector   []float32
	Fallback bool
}

// Generator always yields vectors of Dimensions length.
type Generator struct {
	Embedder   llm.EmbedderClient
	Dimensions int
}

func NewGenerator(embedder llm.EmbedderClient, dimensions int) *Generator {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Generator{Embedder: embedder, Dimensions: dimensions}
}

func (g *Generator) Embed(ctx context.Context, text string) Embedding {
	if g.Embedder != nil {
		vec, err := g.Embedder.Embed(ctx, text)
		switch {
		case err != nil:
			logger.Warn("embedding failed", "error", err, "fallback", true)
		case len(vec) != g.Dimensions:
			logger.Warn("embedding has wrong dimensions", "got", len(vec), "want", g.Dimensions, "fallback", true)
		default:
			return Embedding{Vector: vec}
		}
	}
	return Embedding{Vector: Fallback(text, g.Dimensions), Fallback: true}
}

// Fallback derives a unit vector from the text length and code points. It is
// stable across runs but carries no semantic signal.
func Fallback(text string, dims int) []float32 {
	seed := float64(len(text) % 100)
	var charSum float64
	for _, r := range text {
		charSum += float64(r)
	}

	raw := make([]float64, dims)
	var norm float64
	for i := range raw {
		v := math.Sin(seed+float64(i)+charSum/1000) * math.Cos(float64(i)/10)
		v = math.Max(-1, math.Min(1, v))
		raw[i] = v
		norm += v * v
	}
	norm = math.Sqrt(norm)

	out := make([]float32, dims)
	if norm == 0 {
		if dims > 0 {
			out[0] = 1
		}
		return out
	}
	for i, v := range raw {
		out[i] = float32(v / norm)
	}
	return out
}

// Cosine returns the cosine similarity of two equal-length vectors, or 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
