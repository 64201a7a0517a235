package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/agenthands/cognivault/internal/config"
	"github.com/agenthands/cognivault/internal/core/common"
	"github.com/agenthands/cognivault/internal/core/model"
	"github.com/agenthands/cognivault/internal/llm"
	"github.com/agenthands/cognivault/internal/logger"
)

const (
	maxMetadataInput  = 15000
	maxAnalysisInput  = 3000
	maxSentimentInput = 500
	maxTags           = 10
)

// Summarizer produces chunk and document metadata. Every method succeeds:
// provider errors are logged and replaced by the deterministic fallbacks.
type Summarizer struct {
	LLM     llm.LLMClient
	Prompts config.Prompts
}

func NewSummarizer(llmClient llm.LLMClient, prompts config.Prompts) *Summarizer {
	return &Summarizer{
		LLM:     llmClient,
		Prompts: prompts,
	}
}

func (s *Summarizer) GenerateMetadata(ctx context.Context, text string) model.Enrichment {
	if s.LLM == nil {
		return FallbackMetadata(text)
	}

	prompt := fmt.Sprintf(s.Prompts.Metadata, common.Truncate(text, maxMetadataInput))
	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("metadata generation failed", "error", err, "fallback", true)
		return FallbackMetadata(text)
	}

	result, err := common.ParseJSON[model.Enrichment](response)
	if err != nil {
		logger.Warn("failed to parse metadata", "error", err, "fallback", true)
		return FallbackMetadata(text)
	}

	result.Tags = CleanTags(result.Tags)
	result.Entities = cleanEntities(result.Entities)
	if result.Relations == nil {
		result.Relations = []model.Relation{}
	}
	if strings.TrimSpace(result.Summary) == "" {
		result.Summary = FallbackSummary(text)
	}
	return result
}

func (s *Summarizer) AnalyzeDocument(ctx context.Context, text, fileName string) model.DocumentAnalysis {
	if s.LLM == nil {
		return FallbackAnalysis(fileName)
	}

	prompt := fmt.Sprintf(s.Prompts.Analysis, fileName, common.Truncate(text, maxAnalysisInput))
	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("document analysis failed", "file", fileName, "error", err, "fallback", true)
		return FallbackAnalysis(fileName)
	}

	result, err := common.ParseJSON[model.DocumentAnalysis](response)
	if err != nil {
		logger.Warn("failed to parse document analysis", "file", fileName, "error", err, "fallback", true)
		return FallbackAnalysis(fileName)
	}

	fallback := FallbackAnalysis(fileName)
	if result.DocumentType == "" {
		result.DocumentType = fallback.DocumentType
	}
	if result.MainTopic == "" {
		result.MainTopic = fallback.MainTopic
	}
	if result.Sentiment == "" {
		result.Sentiment = fallback.Sentiment
	}
	if result.Complexity == "" {
		result.Complexity = fallback.Complexity
	}
	if result.KeyPoints == nil {
		result.KeyPoints = []string{}
	}
	if len(result.SuggestedCategories) == 0 {
		result.SuggestedCategories = fallback.SuggestedCategories
	}
	return result
}

func (s *Summarizer) AnalyzeSentiment(ctx context.Context, text string) model.Sentiment {
	if s.LLM == nil {
		return KeywordSentiment(text)
	}

	prompt := fmt.Sprintf(s.Prompts.Sentiment, common.Truncate(text, maxSentimentInput))
	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("sentiment analysis failed", "error", err, "fallback", true)
		return KeywordSentiment(text)
	}

	result, err := common.ParseJSON[model.Sentiment](response)
	if err != nil || result.Label == "" {
		return KeywordSentiment(text)
	}
	result.Label = strings.ToLower(strings.TrimSpace(result.Label))
	if result.Score < 0 || result.Score > 1 {
		result.Score = 0.5
	}
	return result
}

// GenerateText runs a free-form prompt. The bool is false when no answer is
// available and the caller should use its own template.
func (s *Summarizer) GenerateText(ctx context.Context, prompt string) (string, bool) {
	if s.LLM == nil {
		return "", false
	}
	response, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		logger.Warn("text generation failed", "error", err, "fallback", true)
		return "", false
	}
	response = strings.TrimSpace(response)
	return response, response != ""
}

// CleanTags lowercases, trims, de-duplicates and caps tags.
func CleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = common.NormalizeTag(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
		if len(out) == maxTags {
			break
		}
	}
	return out
}

func cleanEntities(entities []model.EntityRef) []model.EntityRef {
	out := make([]model.EntityRef, 0, len(entities))
	for _, e := range entities {
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
