package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/vertexai/genai"
)

// --- Analyzer Model Prompts ---
const AnalyzerSystemPrompt = "You are a government document expert that is fluent in German bureaucracy. You are given the OCR text of a scanned document in German or English. You analyze the document, translate it, and respond with a single valid JSON object."

const AnalyzerUserPrompt = `Analyze the document text that follows and respond with exactly one JSON object with these keys:

- "title_in_original_language": the title of the document in the original language.
- "title_in_english": up to 3 words describing the document based on the action required.
- "sender": exactly one of "Employment Agency", "Tax", "Health", "Immigration", "Other". If none fit, use "Other".
- "sent_date": the date the document was sent, as YYYY-MM-DD.
- "addressed_to": the person or entity the document is addressed to, without titles or prefixes like Herr, Frau, Dr.
- "content_in_original_language": the content of the document in the original language.
- "content_in_english": the content translated to English.
- "summary_in_english": a short summary of the content in English.
- "required_actions": an array of action objects. Each has "action_type", one of "no_action", "appointment", "reply_required", "payment_required", plus exactly one matching detail object:
  - "appointment": {"date": RFC 3339 datetime, "location": string, "required_documents": [string], "additional_notes": string}
  - "reply": {"documents_to_send_in_original_language": [string], "documents_to_send_in_english": [string], "deadline": RFC 3339 datetime, "address_to_send_to": string}
  - "payment": {"recipient": string, "amount": number, "deadline": RFC 3339 datetime, "bank_details": {string: string}, "reference_number": string}

Output the JSON object only. Here is the document:

`

// VertexClient holds the pre-configured generative model for the analyzer.
type VertexClient struct {
	AnalyzerModel *genai.GenerativeModel
	baseClient    *genai.Client
}

// NewVertexClient creates a client with the analyzer model configured for
// deterministic JSON output.
func NewVertexClient(ctx context.Context, projectID, region, modelName string) (*VertexClient, error) {
	if projectID == "" || region == "" {
		return nil, fmt.Errorf("NewVertexClient: projectID and region cannot be empty")
	}

	baseClient, err := genai.NewClient(ctx, projectID, region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	analyzerModel := baseClient.GenerativeModel(modelName)
	analyzerModel.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(AnalyzerSystemPrompt)},
	}
	analyzerModel.GenerationConfig = genai.GenerationConfig{
		// Force JSON output. This is a critical setting for this model.
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.0),
	}
	analyzerModel.SafetySettings = []*genai.SafetySetting{
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockNone},
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockNone},
	}

	return &VertexClient{
		AnalyzerModel: analyzerModel,
		baseClient:    baseClient,
	}, nil
}

func (c *VertexClient) Close() error {
	if c.baseClient != nil {
		return c.baseClient.Close()
	}
	return nil
}
