package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"github.com/awalther/amtspost/internal/gcp"
	"github.com/awalther/amtspost/internal/models"
)

// Analyzer asks the pre-configured Vertex AI model to translate the OCR text
// and extract the structured document record.
type Analyzer struct {
	vertexClient *gcp.VertexClient
}

func NewAnalyzer(vertexClient *gcp.VertexClient) *Analyzer {
	return &Analyzer{vertexClient: vertexClient}
}

// Analyze runs one model call over the document text and decodes the result.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*models.DocumentAnalysis, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document text is empty, nothing to analyze")
	}

	model := a.vertexClient.AnalyzerModel
	resp, err := model.GenerateContent(ctx, genai.Text(gcp.AnalyzerUserPrompt), genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to generate analysis from gemini: %w", err)
	}

	raw := extractResponseText(resp)
	if raw == "" {
		return nil, fmt.Errorf("gemini returned an empty response instead of JSON")
	}

	analysis, err := decodeAnalysis(raw)
	if err != nil {
		slog.Error("Failed to decode model response", "error", err, "responseBody", raw)
		return nil, err
	}
	return analysis, nil
}

// extractResponseText robustly gets the raw text content from the model
// response, concatenating multiple text parts when present.
func extractResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	return b.String()
}

// Sanity check for LLM refusal. If the model refuses to answer, fail fast
// rather than handing garbage to the filing steps.
var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// decodeAnalysis strips code fences, rejects refusals, and unmarshals the
// model output into a validated DocumentAnalysis.
func decodeAnalysis(raw string) (*models.DocumentAnalysis, error) {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)

	lower := strings.ToLower(clean)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return nil, fmt.Errorf("gemini response indicates refusal: %q", clean)
		}
	}

	var analysis models.DocumentAnalysis
	if err := json.Unmarshal([]byte(clean), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse JSON from model: %w", err)
	}
	if err := analysis.Validate(); err != nil {
		return nil, fmt.Errorf("model returned an inconsistent record: %w", err)
	}
	return &analysis, nil
}
