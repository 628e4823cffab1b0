package models

// ProcessRequest is the input for one pipeline run, regardless of whether the
// run was started from the CLI or from a GCS inbox event.
type ProcessRequest struct {
	PDFPath   string   `json:"pdfPath"`
	Languages []string `json:"languages,omitempty"`
	DryRun    bool     `json:"dryRun,omitempty"`
}

// ProcessResult reports what one pipeline run produced.
type ProcessResult struct {
	DocumentID   string            `json:"documentId,omitempty"`
	PageCount    int               `json:"pageCount"`
	OutputPDF    string            `json:"outputPdf"`
	AnalysisJSON string            `json:"analysisJson,omitempty"`
	DriveFileID  string            `json:"driveFileId,omitempty"`
	DriveLink    string            `json:"driveLink,omitempty"`
	EventIDs     []string          `json:"eventIds,omitempty"`
	TaskIDs      []string          `json:"taskIds,omitempty"`
	Skipped      bool              `json:"skipped,omitempty"`
	Analysis     *DocumentAnalysis `json:"analysis,omitempty"`
}
