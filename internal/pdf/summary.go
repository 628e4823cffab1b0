// Package pdf prepends an English summary page to the original scan.
package pdf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/awalther/amtspost/internal/models"
)

// createSpec mirrors the pdfcpu create-from-JSON page description.
type createSpec struct {
	Pages map[string]specPage `json:"pages"`
}

type specPage struct {
	Content specContent `json:"content"`
}

type specContent struct {
	Text []textBox `json:"text"`
}

type textBox struct {
	Value  string    `json:"value"`
	Anchor string    `json:"anchor,omitempty"`
	Dx     float64   `json:"dx,omitempty"`
	Dy     float64   `json:"dy,omitempty"`
	Width  float64   `json:"width,omitempty"`
	Font   *specFont `json:"font,omitempty"`
}

type specFont struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

// Summarizer writes <name>_with_summary.pdf files.
type Summarizer struct{}

// Append builds the summary page for the analysis and merges it in front of
// the PDF at inPath, writing the result to outPath.
func (Summarizer) Append(analysis *models.DocumentAnalysis, inPath, outPath string) error {
	tempDir, err := os.MkdirTemp("", "amtspost-summary-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	spec, err := summarySpec(analysis)
	if err != nil {
		return err
	}
	specPath := filepath.Join(tempDir, "summary.json")
	if err := os.WriteFile(specPath, spec, 0644); err != nil {
		return fmt.Errorf("failed to write summary spec: %w", err)
	}

	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed

	summaryPath := filepath.Join(tempDir, "summary.pdf")
	if err := api.CreateFile("", specPath, summaryPath, cfg); err != nil {
		return fmt.Errorf("failed to render summary page: %w", err)
	}

	if err := api.MergeCreateFile([]string{summaryPath, inPath}, outPath, false, cfg); err != nil {
		return fmt.Errorf("failed to merge summary with original: %w", err)
	}
	return nil
}

// OutputPath derives the merged filename next to dir for the given input.
func OutputPath(dir, inPath string) string {
	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	return filepath.Join(dir, base+"_with_summary.pdf")
}

// summarySpec renders the analysis as a pdfcpu page description.
func summarySpec(analysis *models.DocumentAnalysis) ([]byte, error) {
	body := strings.Join(SummaryLines(analysis), "\n")

	spec := createSpec{
		Pages: map[string]specPage{
			"1": {
				Content: specContent{
					Text: []textBox{
						{
							Value:  "Document Summary",
							Anchor: "tc",
							Dy:     -72,
							Font:   &specFont{Name: "Helvetica-Bold", Size: 16},
						},
						{
							Value:  body,
							Anchor: "tl",
							Dx:     72,
							Dy:     -120,
							Width:  450,
							Font:   &specFont{Name: "Helvetica", Size: 10},
						},
					},
				},
			},
		},
	}

	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal summary spec: %w", err)
	}
	return data, nil
}

// SummaryLines flattens the analysis into the lines printed on the summary
// page, in reading order.
func SummaryLines(analysis *models.DocumentAnalysis) []string {
	lines := []string{
		"Sender: " + string(analysis.Sender),
		"Addressed To: " + analysis.AddressedTo,
		"Document Title: " + analysis.TitleInEnglish,
	}
	if !analysis.SentDate.IsZero() {
		lines = append(lines, "Sent: "+analysis.SentDate.Format("2006-01-02"))
	}
	lines = append(lines, "", "Summary:", analysis.SummaryInEnglish, "", "Required Actions:")

	actionable := false
	for _, action := range analysis.RequiredActions {
		if action.ActionType == models.ActionNone {
			continue
		}
		actionable = true
		lines = append(lines, actionLines(action)...)
	}
	if !actionable {
		lines = append(lines, "No actions required")
	}
	return lines
}

func actionLines(action models.RequiredAction) []string {
	switch action.ActionType {
	case models.ActionAppointment:
		a := action.Appointment
		return []string{
			"Appointment:",
			"- Date: " + a.Date.Format("2006-01-02 15:04"),
			"- Location: " + a.Location,
			"- Required Documents: " + listOrNone(a.RequiredDocuments),
		}
	case models.ActionReplyRequired:
		r := action.Reply
		return []string{
			"Reply Required:",
			"- Deadline: " + r.Deadline.Format("2006-01-02 15:04"),
			"- Documents (Original): " + listOrNone(r.DocumentsToSendInOriginalLanguage),
			"- Documents (English): " + listOrNone(r.DocumentsToSendInEnglish),
			"- Send To: " + r.AddressToSendTo,
		}
	case models.ActionPaymentRequired:
		p := action.Payment
		return []string{
			"Payment Required:",
			fmt.Sprintf("- Amount: %.2f", p.Amount),
			"- Deadline: " + p.Deadline.Format("2006-01-02 15:04"),
			"- Recipient: " + p.Recipient,
		}
	}
	return []string{"No specific action details"}
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "None"
	}
	return strings.Join(items, ", ")
}
