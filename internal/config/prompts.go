package config

func DefaultPrompts() Prompts {
	return Prompts{
		Metadata: `Analyze this text and return JSON only.
Text: """%s"""
Return:
{
  "summary": "2-3 sentence summary",
  "tags": ["3-7 short lowercase topic keywords"],
  "entities": [{"name": "...", "type": "PERSON|ORG|LOCATION|DATE|OTHER"}],
  "relations": [{"subject": "...", "predicate": "...", "object": "..."}]
}`,
		Analysis: `Analyze document '%s'. Return JSON only:
{
  "document_type": "...",
  "main_topic": "...",
  "key_points": [...],
  "sentiment": "positive|negative|neutral",
  "complexity": "basic|intermediate|advanced",
  "suggested_categories": [...]
}
Content: """%s"""`,
		Sentiment: `Analyze the sentiment of this text. Return ONLY a JSON object with this exact structure:
{
  "label": "positive|negative|neutral",
  "score": 0.0-1.0
}

Text: %s`,
		Vision: "Extract all text from this image. Return only the text.",
		Insights: `Analyze this user's learning timeline data and provide 2-3 insightful observations about their learning evolution. Be concise and encouraging.

%s

Return ONLY the insights text, no JSON or formatting.`,
		Dashboard: `Analyze this user's learning dashboard and provide a brief, encouraging insight (2-3 sentences).

%s

Return ONLY the insight text, no JSON or formatting.`,
		Chat: `You are assisting in a private, temporary session. Answer using only the context below.

Context:
%s

Question: %s

Provide a helpful, concise response.`,
	}
}
