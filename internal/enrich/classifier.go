package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Fallback values substituted by callers when an enrichment call fails.
// They are part of the note output contract, not incidental defaults.
const (
	FallbackTag      = "uncategorized"
	FallbackCategory = "uncategorized"

	fallbackSummaryRunes = 100
)

// FallbackSummary derives a summary from the raw content when the
// summarization call fails: a truncated prefix of the text itself.
func FallbackSummary(text string) string {
	runes := []rune(text)
	if len(runes) <= fallbackSummaryRunes {
		return text
	}
	return string(runes[:fallbackSummaryRunes])
}

// Summary is the structured output of the summarization call.
type Summary struct {
	Summary  string `json:"summary"`
	Category string `json:"category"`
}

// ImageAnalysis is the structured output of the vision call.
type ImageAnalysis struct {
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// Summarizer produces a summary and category for a piece of text.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (Summary, error)
}

// Tagger produces content tags for a piece of text.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]string, error)
}

// VisionAnalyzer describes and tags an image.
type VisionAnalyzer interface {
	AnalyzeImage(ctx context.Context, imageJPEG []byte) (ImageAnalysis, error)
}

// Transcriber converts speech audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, languageHint string) (string, error)
}

const (
	summarizeSystemPrompt = `You summarize and categorize user notes. Respond with a single JSON object, no prose: {"summary": "<one or two sentences in the note's language>", "category": "<one short lowercase category>"}`

	tagSystemPrompt = `You tag user notes. Respond with a single JSON object, no prose: {"tags": ["<up to five short lowercase tags in the note's language>"]}`

	visionPrompt = `Describe this image for a personal notebook. Respond with a single JSON object, no prose: {"description": "<one or two sentences>", "tags": ["<up to five short lowercase tags>"]}`
)

// Classifier implements Summarizer and Tagger on top of an LLMClient, and
// VisionAnalyzer on top of a VisionLLM.
type Classifier struct {
	llm     LLMClient
	vision  VisionLLM
	modelID string
}

// NewClassifier builds a classifier. modelID is passed through to providers
// that require an explicit model id (Bedrock); Gemini ignores it.
func NewClassifier(llm LLMClient, vision VisionLLM, modelID string) *Classifier {
	if llm == nil {
		panic("enrich: llm client cannot be nil")
	}
	return &Classifier{llm: llm, vision: vision, modelID: modelID}
}

// Summarize asks the LLM for a summary and category of the text.
func (c *Classifier) Summarize(ctx context.Context, text string) (Summary, error) {
	resp, err := c.llm.Complete(ctx, LLMRequest{
		Model:       c.modelID,
		System:      []string{summarizeSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: text}},
		MaxTokens:   512,
		Temperature: 0.2,
	})
	if err != nil {
		return Summary{}, fmt.Errorf("enrich: summarize: %w", err)
	}

	var out Summary
	if err := decodeModelJSON(resp.Text, &out); err != nil {
		return Summary{}, fmt.Errorf("enrich: summarize: %w", err)
	}
	if strings.TrimSpace(out.Summary) == "" {
		return Summary{}, errors.New("enrich: summarize: model returned empty summary")
	}
	if strings.TrimSpace(out.Category) == "" {
		out.Category = FallbackCategory
	}
	return out, nil
}

// Tag asks the LLM for content tags of the text.
func (c *Classifier) Tag(ctx context.Context, text string) ([]string, error) {
	resp, err := c.llm.Complete(ctx, LLMRequest{
		Model:       c.modelID,
		System:      []string{tagSystemPrompt},
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: text}},
		MaxTokens:   256,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("enrich: tag: %w", err)
	}

	var out struct {
		Tags []string `json:"tags"`
	}
	if err := decodeModelJSON(resp.Text, &out); err != nil {
		return nil, fmt.Errorf("enrich: tag: %w", err)
	}

	tags := cleanTags(out.Tags)
	if len(tags) == 0 {
		return nil, errors.New("enrich: tag: model returned no tags")
	}
	return tags, nil
}

// AnalyzeImage asks the vision model for a description and tags.
func (c *Classifier) AnalyzeImage(ctx context.Context, imageJPEG []byte) (ImageAnalysis, error) {
	if c.vision == nil {
		return ImageAnalysis{}, errors.New("enrich: no vision provider configured")
	}

	text, err := c.vision.CompleteVision(ctx, visionPrompt, imageJPEG)
	if err != nil {
		return ImageAnalysis{}, fmt.Errorf("enrich: analyze image: %w", err)
	}

	var out ImageAnalysis
	if err := decodeModelJSON(text, &out); err != nil {
		return ImageAnalysis{}, fmt.Errorf("enrich: analyze image: %w", err)
	}
	if strings.TrimSpace(out.Description) == "" {
		return ImageAnalysis{}, errors.New("enrich: analyze image: model returned empty description")
	}
	out.Tags = cleanTags(out.Tags)
	return out, nil
}

// decodeModelJSON unmarshals a model response that may be wrapped in markdown
// code fences or surrounded by stray prose.
func decodeModelJSON(text string, v any) error {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	if start := strings.Index(trimmed, "{"); start > 0 {
		trimmed = trimmed[start:]
	}
	if end := strings.LastIndex(trimmed, "}"); end >= 0 && end < len(trimmed)-1 {
		trimmed = trimmed[:end+1]
	}

	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}
