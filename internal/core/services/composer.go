package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/crateview/docquery/internal/core/domain"
	"github.com/crateview/docquery/internal/core/ports/driven"
)

// AnswerComposer turns evidence into a cited answer. Implemented by
// ComposerService; declared as an interface so the query service can
// be tested with a mock.
type AnswerComposer interface {
	// Compose builds a StructuredAnswer for the query from the
	// evidence. The bool reports degradation: true means the
	// generation service was missing or failed and the answer was
	// assembled from evidence alone.
	Compose(ctx context.Context, query string, evidence []domain.Evidence) (domain.StructuredAnswer, bool, error)
}

// Ensure ComposerService implements the interface.
var _ AnswerComposer = (*ComposerService)(nil)

// Composition limits.
const (
	// DefaultMaxContextChars caps the evidence text packed into the
	// prompt.
	DefaultMaxContextChars = 4000

	// DefaultMaxAnswerTokens bounds the generation length.
	DefaultMaxAnswerTokens = 1024

	// maxSnippetChars caps citation snippets.
	maxSnippetChars = 200
)

// NoEvidenceAnswer is the terminal answer when retrieval found
// nothing. The generation service is not consulted in that case.
const NoEvidenceAnswer = "No relevant information found in the indexed documents."

// answerInstruction asks the model for machine-readable output. The
// composer still parses defensively; models leak markdown fences and
// prose around the JSON.
const answerInstruction = `You are a document analysis assistant. Respond ONLY with valid JSON.

REQUIRED JSON FORMAT (no extra text):
{
  "answer": "Complete answer based on the provided sources",
  "citations": [
    {
      "chunk_id": "exact_chunk_id_from_source",
      "snippet": "relevant_text_under_100_chars",
      "confidence": 0.95
    }
  ]
}

RULES:
- Answer must be informative and complete
- Include citations for every fact mentioned
- Use exact chunk_id values from SOURCE entries
- Keep snippets under 100 characters
- Confidence: 0.0-1.0 based on relevance
- If no source answers the question: empty citations array
- Output must be valid JSON only`

// ComposerService builds cited answers with an LLM, degrading to an
// evidence summary when generation is unavailable.
type ComposerService struct {
	llm             driven.LLMService
	log             *zap.Logger
	maxContextChars int
}

// ComposerOption configures the service.
type ComposerOption func(*ComposerService)

// WithMaxContextChars caps the prompt context size.
func WithMaxContextChars(n int) ComposerOption {
	return func(s *ComposerService) {
		if n > 0 {
			s.maxContextChars = n
		}
	}
}

// NewComposerService creates a new composer service. The LLM service
// may be nil; composition then always degrades to evidence summaries.
func NewComposerService(llm driven.LLMService, log *zap.Logger, opts ...ComposerOption) *ComposerService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ComposerService{
		llm:             llm,
		log:             log,
		maxContextChars: DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// modelAnswer is the JSON shape requested from the model.
type modelAnswer struct {
	Answer    string `json:"answer"`
	Citations []struct {
		ChunkID    string  `json:"chunk_id"`
		Snippet    string  `json:"snippet"`
		Confidence float64 `json:"confidence"`
	} `json:"citations"`
}

// Compose answers the query from the evidence. With no evidence the
// terminal no-answer response is returned without a generation call.
func (s *ComposerService) Compose(ctx context.Context, query string, evidence []domain.Evidence) (domain.StructuredAnswer, bool, error) {
	if len(evidence) == 0 {
		return domain.StructuredAnswer{Answer: NoEvidenceAnswer}, false, nil
	}

	if s.llm == nil {
		return s.fallbackAnswer(evidence), true, nil
	}

	prompt := s.buildPrompt(query, evidence)
	raw, err := s.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   DefaultMaxAnswerTokens,
		Temperature: 0,
		JSONOnly:    true,
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.StructuredAnswer{}, false, ctx.Err()
		}
		s.log.Warn("generation failed, degrading to evidence summary",
			zap.Error(&domain.GenerationError{Err: err}))
		return s.fallbackAnswer(evidence), true, nil
	}

	parsed, ok := parseModelAnswer(raw)
	if !ok {
		s.log.Warn("unparseable generation output, degrading to evidence summary",
			zap.Int("output_len", len(raw)))
		return s.fallbackAnswer(evidence), true, nil
	}

	return s.resolveCitations(parsed, evidence), false, nil
}

// buildPrompt packs evidence into SOURCE blocks until the context
// budget is spent. Evidence arrives ranked, so truncation drops the
// least relevant chunks.
func (s *ComposerService) buildPrompt(query string, evidence []domain.Evidence) string {
	var blocks []string
	total := 0
	for _, ev := range evidence {
		block := fmt.Sprintf("SOURCE[%s|%s|%s]: %s", ev.ChunkID, ev.DocumentName, ev.Locator, ev.Text)
		if total+len(block) > s.maxContextChars {
			break
		}
		blocks = append(blocks, block)
		total += len(block)
	}

	context := "No relevant data available."
	if len(blocks) > 0 {
		context = strings.Join(blocks, "\n\n")
	}

	return fmt.Sprintf("%s\n\nCONTEXT:\n%s\n\nQUESTION: %s\n\nProvide your response as valid JSON:",
		answerInstruction, context, query)
}

// resolveCitations validates model citations against the evidence.
// Citations naming unknown chunks are dropped; the rest are hydrated
// with document and locator details the model never saw directly.
func (s *ComposerService) resolveCitations(parsed modelAnswer, evidence []domain.Evidence) domain.StructuredAnswer {
	byChunk := make(map[string]domain.Evidence, len(evidence))
	for _, ev := range evidence {
		byChunk[ev.ChunkID] = ev
	}

	var citations []domain.Citation
	var confidenceSum float64
	for _, c := range parsed.Citations {
		ev, ok := byChunk[c.ChunkID]
		if !ok {
			s.log.Debug("dropping citation for unknown chunk", zap.String("chunk_id", c.ChunkID))
			continue
		}
		snippet := c.Snippet
		if snippet == "" {
			snippet = truncate(ev.Text, maxSnippetChars)
		}
		confidence := clamp01(c.Confidence)
		citations = append(citations, domain.Citation{
			ChunkID:      ev.ChunkID,
			DocumentID:   ev.DocumentID,
			DocumentName: ev.DocumentName,
			Locator:      ev.Locator,
			Snippet:      snippet,
			Confidence:   confidence,
		})
		confidenceSum += confidence
	}

	answer := domain.StructuredAnswer{
		Answer:    parsed.Answer,
		Citations: citations,
	}
	switch {
	case len(citations) > 0:
		answer.Confidence = confidenceSum / float64(len(citations))
	default:
		// The model cited nothing usable; fall back to the strongest
		// retrieval score as the confidence signal.
		for _, ev := range evidence {
			if score := clamp01(ev.Score); score > answer.Confidence {
				answer.Confidence = score
			}
		}
	}
	return answer
}

// fallbackAnswer assembles a citation-bearing summary straight from
// the evidence when generation is unavailable.
func (s *ComposerService) fallbackAnswer(evidence []domain.Evidence) domain.StructuredAnswer {
	var parts []string
	var citations []domain.Citation
	maxScore := 0.0

	for i, ev := range evidence {
		if i < 3 {
			name := ev.DocumentName
			if name == "" {
				name = ev.DocumentID
			}
			parts = append(parts, fmt.Sprintf("According to %s: %s", name, truncate(ev.Text, 150)))
		}
		if i < 5 {
			citations = append(citations, domain.Citation{
				ChunkID:      ev.ChunkID,
				DocumentID:   ev.DocumentID,
				DocumentName: ev.DocumentName,
				Locator:      ev.Locator,
				Snippet:      truncate(ev.Text, maxSnippetChars),
				Confidence:   clamp01(ev.Score),
			})
		}
		if score := clamp01(ev.Score); score > maxScore {
			maxScore = score
		}
	}

	return domain.StructuredAnswer{
		Answer:     "Based on the retrieved documents:\n\n" + strings.Join(parts, "\n\n"),
		Citations:  citations,
		Confidence: maxScore,
	}
}

// parseModelAnswer extracts the JSON answer from raw model output.
// Tries direct parsing, then markdown fence stripping, then the
// outermost balanced JSON object.
func parseModelAnswer(raw string) (modelAnswer, bool) {
	text := strings.TrimSpace(raw)

	var parsed modelAnswer
	if err := json.Unmarshal([]byte(text), &parsed); err == nil && parsed.Answer != "" {
		return parsed, true
	}

	cleaned := text
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = cleaned[len("```json"):]
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = cleaned[len("```"):]
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	cleaned = strings.TrimSpace(cleaned)
	if err := json.Unmarshal([]byte(cleaned), &parsed); err == nil && parsed.Answer != "" {
		return parsed, true
	}

	if obj, ok := extractJSONObject(text); ok {
		if err := json.Unmarshal([]byte(obj), &parsed); err == nil && parsed.Answer != "" {
			return parsed, true
		}
	}

	return modelAnswer{}, false
}

// extractJSONObject returns the first balanced top-level {...} block,
// skipping braces inside string literals.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// truncate shortens s to at most n bytes, marking the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// clamp01 bounds a confidence or similarity score to [0,1].
func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
