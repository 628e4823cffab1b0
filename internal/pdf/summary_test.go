package pdf

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awalther/amtspost/internal/models"
)

func sampleAnalysis() *models.DocumentAnalysis {
	return &models.DocumentAnalysis{
		TitleInEnglish:   "Payment Request",
		Sender:           models.SenderTax,
		SentDate:         models.FlexTime{Time: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)},
		AddressedTo:      "Max Mustermann",
		SummaryInEnglish: "Pay 240.50 EUR by April 1st.",
		RequiredActions: []models.RequiredAction{
			{
				ActionType: models.ActionPaymentRequired,
				Payment: &models.Payment{
					Recipient: "Finanzamt Berlin",
					Amount:    240.5,
					Deadline:  models.FlexTime{Time: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
				},
			},
		},
	}
}

func TestSummaryLines(t *testing.T) {
	text := strings.Join(SummaryLines(sampleAnalysis()), "\n")

	assert.Contains(t, text, "Sender: Tax")
	assert.Contains(t, text, "Addressed To: Max Mustermann")
	assert.Contains(t, text, "Document Title: Payment Request")
	assert.Contains(t, text, "Sent: 2025-02-10")
	assert.Contains(t, text, "Pay 240.50 EUR by April 1st.")
	assert.Contains(t, text, "Payment Required:")
	assert.Contains(t, text, "- Amount: 240.50")
	assert.Contains(t, text, "- Recipient: Finanzamt Berlin")
}

func TestSummaryLinesNoActions(t *testing.T) {
	analysis := sampleAnalysis()
	analysis.RequiredActions = []models.RequiredAction{{ActionType: models.ActionNone}}

	text := strings.Join(SummaryLines(analysis), "\n")
	assert.Contains(t, text, "No actions required")
	assert.NotContains(t, text, "Payment Required:")
}

func TestSummarySpecIsValidCreateJSON(t *testing.T) {
	data, err := summarySpec(sampleAnalysis())
	require.NoError(t, err)

	var spec createSpec
	require.NoError(t, json.Unmarshal(data, &spec))

	page, ok := spec.Pages["1"]
	require.True(t, ok, "summary spec must describe page 1")
	require.Len(t, page.Content.Text, 2)

	assert.Equal(t, "Document Summary", page.Content.Text[0].Value)
	assert.Equal(t, "Helvetica-Bold", page.Content.Text[0].Font.Name)
	assert.Contains(t, page.Content.Text[1].Value, "Sender: Tax")
	assert.Contains(t, page.Content.Text[1].Value, "Payment Required:")
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "/out/scan_with_summary.pdf", OutputPath("/out", "/scans/scan.pdf"))
	assert.Equal(t, "out/doc.v2_with_summary.pdf", OutputPath("out", "doc.v2.pdf"))
}
