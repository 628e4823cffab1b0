package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"

	"github.com/awalther/amtspost/internal/config"
	"github.com/awalther/amtspost/internal/gcp"
	"github.com/awalther/amtspost/internal/models"
	"github.com/awalther/amtspost/internal/ocr"
	"github.com/awalther/amtspost/internal/pdf"
	"github.com/awalther/amtspost/internal/workspace"
)

// The processor depends on narrow contracts so the pipeline can be exercised
// end to end with fakes.
type (
	textExtractor interface {
		ExtractText(ctx context.Context, pdfPath string) (string, int, error)
	}
	documentAnalyzer interface {
		Analyze(ctx context.Context, text string) (*models.DocumentAnalysis, error)
	}
	summarizer interface {
		Append(analysis *models.DocumentAnalysis, inPath, outPath string) error
	}
	documentFiler interface {
		File(ctx context.Context, analysis *models.DocumentAnalysis, localPath string) (string, string, error)
	}
	actionScheduler interface {
		Schedule(ctx context.Context, analysis *models.DocumentAnalysis, fileLink string) ([]string, []string, error)
	}
	recordKeeper interface {
		FindByHash(ctx context.Context, fileHash string) (string, error)
		Create(ctx context.Context, fileHash, filename string) (string, error)
		SetStatus(ctx context.Context, docID, status string) error
		SetPageCount(ctx context.Context, docID string, pageCount int) error
		SetFiled(ctx context.Context, docID, driveFileID string) error
		Fail(ctx context.Context, docID, details string) error
		Complete(ctx context.Context, docID, driveFileID string, eventIDs, taskIDs []string) error
	}
	artifactArchiver interface {
		Archive(ctx context.Context, docID, ocrText string, analysisJSON []byte) error
	}
)

// Processor runs the whole pipeline for one scanned PDF: OCR, LLM analysis,
// summary page, Drive filing, calendar/task scheduling, archival.
type Processor struct {
	extractor  textExtractor
	analyzer   documentAnalyzer
	summarizer summarizer
	filer      documentFiler
	scheduler  actionScheduler
	ledger     recordKeeper
	archiver   artifactArchiver
	outputDir  string

	// OnStep, when set, is called with a human-readable label as each
	// pipeline stage starts. The CLI uses it to drive its progress output.
	OnStep func(step string)
}

// NewProcessor wires the real pipeline from config. With dryRun set, only the
// local stages (OCR, analysis, summary page) are constructed, so no Google
// account access is needed.
func NewProcessor(ctx context.Context, cfg *config.Config, dryRun bool) (*Processor, error) {
	vertexClient, err := gcp.NewVertexClient(ctx, cfg.GCP.ProjectID, cfg.GCP.Region, cfg.LLM.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to create vertex client: %w", err)
	}

	p := &Processor{
		extractor:  ocr.NewExtractor(ocr.NewTesseractEngine(), cfg.OCR.Languages, cfg.OCR.DPI, cfg.OCR.Workers),
		analyzer:   NewAnalyzer(vertexClient),
		summarizer: pdf.Summarizer{},
		outputDir:  cfg.Output.Dir,
	}
	if dryRun {
		return p, nil
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, cfg.GCP.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	p.ledger = NewLedger(firestoreClient, cfg.GCP.LedgerCollection)

	httpClient, err := workspace.NewHTTPClient(ctx, cfg.Google.CredentialsFile, cfg.Google.TokenFile)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize Google account: %w", err)
	}
	drive, err := workspace.NewDrive(ctx, httpClient)
	if err != nil {
		return nil, err
	}
	p.filer = drive

	planner, err := workspace.NewPlanner(ctx, httpClient, cfg.Google.CalendarID, cfg.Google.TaskList, cfg.Google.TimeZone)
	if err != nil {
		return nil, err
	}
	p.scheduler = planner

	if cfg.GCP.ArchiveBucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		p.archiver = NewArchiver(storageClient, cfg.GCP.ArchiveBucket)
	}

	return p, nil
}

// Process runs the pipeline for one document. Errors after the ledger record
// exists mark the record FAILED before being returned.
func (p *Processor) Process(ctx context.Context, req *models.ProcessRequest) (*models.ProcessResult, error) {
	logCtx := slog.With("pdf", req.PDFPath)
	logCtx.Info("Processing new document.")

	result := &models.ProcessResult{}
	var docID string

	if !req.DryRun {
		fileHash, err := calculateFileHash(req.PDFPath)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate file hash: %w", err)
		}
		logCtx = logCtx.With("fileHash", fileHash)

		existingID, err := p.ledger.FindByHash(ctx, fileHash)
		if err != nil {
			return nil, err
		}
		if existingID != "" {
			logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", existingID)
			return &models.ProcessResult{DocumentID: existingID, Skipped: true}, nil
		}

		docID, err = p.ledger.Create(ctx, fileHash, filepath.Base(req.PDFPath))
		if err != nil {
			return nil, err
		}
		logCtx = logCtx.With("documentId", docID)
		result.DocumentID = docID
	}

	p.step("Extracting text (OCR)")
	text, pageCount, err := p.extractor.ExtractText(ctx, req.PDFPath)
	if err != nil {
		return nil, p.fail(ctx, logCtx, docID, "OCR failed", err)
	}
	result.PageCount = pageCount
	if docID != "" {
		if err := p.ledger.SetPageCount(ctx, docID, pageCount); err != nil {
			return nil, p.fail(ctx, logCtx, docID, "ledger update failed", err)
		}
		if err := p.ledger.SetStatus(ctx, docID, StatusAnalyzing); err != nil {
			return nil, p.fail(ctx, logCtx, docID, "ledger update failed", err)
		}
	}

	p.step("Analyzing document")
	analysis, err := p.analyzer.Analyze(ctx, text)
	if err != nil {
		return nil, p.fail(ctx, logCtx, docID, "analysis failed", err)
	}
	result.Analysis = analysis
	logCtx.Info("Document analyzed.", "title", analysis.TitleInEnglish, "sender", analysis.Sender, "actions", len(analysis.RequiredActions))

	analysisJSON, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		return nil, p.fail(ctx, logCtx, docID, "failed to marshal analysis", err)
	}
	result.AnalysisJSON = analysisPath(p.outputDir, req.PDFPath)
	if err := os.WriteFile(result.AnalysisJSON, analysisJSON, 0644); err != nil {
		return nil, p.fail(ctx, logCtx, docID, "failed to write analysis JSON", err)
	}

	p.step("Building summary page")
	result.OutputPDF = pdf.OutputPath(p.outputDir, req.PDFPath)
	if err := p.summarizer.Append(analysis, req.PDFPath, result.OutputPDF); err != nil {
		return nil, p.fail(ctx, logCtx, docID, "summary page failed", err)
	}

	if req.DryRun {
		logCtx.Info("Dry run complete, skipping Google account side effects.", "outputPdf", result.OutputPDF)
		return result, nil
	}

	p.step("Filing in Google Drive")
	if err := p.ledger.SetStatus(ctx, docID, StatusFiling); err != nil {
		return nil, p.fail(ctx, logCtx, docID, "ledger update failed", err)
	}
	fileID, fileLink, err := p.filer.File(ctx, analysis, result.OutputPDF)
	if err != nil {
		return nil, p.fail(ctx, logCtx, docID, "Drive filing failed", err)
	}
	result.DriveFileID = fileID
	result.DriveLink = fileLink
	logCtx.Info("Document filed in Drive.", "driveFileId", fileID)

	p.step("Scheduling reminders")
	if err := p.ledger.SetFiled(ctx, docID, fileID); err != nil {
		return nil, p.fail(ctx, logCtx, docID, "ledger update failed", err)
	}
	eventIDs, taskIDs, err := p.scheduler.Schedule(ctx, analysis, fileLink)
	if err != nil {
		return nil, p.fail(ctx, logCtx, docID, "scheduling failed", err)
	}
	result.EventIDs = eventIDs
	result.TaskIDs = taskIDs

	if p.archiver != nil {
		// Archive failures don't fail the run; the document is already filed.
		if err := p.archiver.Archive(ctx, docID, text, analysisJSON); err != nil {
			logCtx.Warn("Failed to archive artifacts.", "error", err)
		}
	}

	if err := p.ledger.Complete(ctx, docID, fileID, eventIDs, taskIDs); err != nil {
		return nil, p.fail(ctx, logCtx, docID, "ledger update failed", err)
	}

	logCtx.Info("Processing complete.", "events", len(eventIDs), "tasks", len(taskIDs))
	return result, nil
}

func (p *Processor) step(label string) {
	if p.OnStep != nil {
		p.OnStep(label)
	}
}

// fail marks the ledger record FAILED and returns the wrapped error.
func (p *Processor) fail(ctx context.Context, logCtx *slog.Logger, docID, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	if docID != "" {
		if err := p.ledger.Fail(ctx, docID, fmt.Sprintf("%s: %v", message, originalErr)); err != nil {
			logCtx.Error("CRITICAL: Failed to update ledger status to FAILED after a processing error.", "updateError", err)
		}
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

func analysisPath(dir, pdfPath string) string {
	base := filepath.Base(pdfPath)
	return filepath.Join(dir, base[:len(base)-len(filepath.Ext(base))]+".json")
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
