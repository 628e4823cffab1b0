package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"

	"github.com/awalther/amtspost/internal/config"
	"github.com/awalther/amtspost/internal/gcp"
	"github.com/awalther/amtspost/internal/models"
)

// GCSEvent is the payload of a storage object-finalize event.
type GCSEvent struct {
	Bucket string `json:"bucket"`
	Name   string `json:"name"`
}

// InboxFunction runs the pipeline for scans dropped into the GCS inbox
// bucket: download the object, then process it like a local file.
type InboxFunction struct {
	storageClient *storage.Client
	processor     *Processor
	inboxBucket   string
}

func NewInboxFunction(ctx context.Context, cfg *config.Config) (*InboxFunction, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	processor, err := NewProcessor(ctx, cfg, false)
	if err != nil {
		return nil, err
	}
	return &InboxFunction{
		storageClient: storageClient,
		processor:     processor,
		inboxBucket:   cfg.GCP.InboxBucket,
	}, nil
}

// Process handles one inbox event.
func (f *InboxFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)

	// A misconfigured trigger could route events from another bucket here.
	if f.inboxBucket != "" && e.Bucket != f.inboxBucket {
		logCtx.Info("Ignoring event from unexpected bucket.", "expectedBucket", f.inboxBucket)
		return nil
	}
	if !strings.HasSuffix(strings.ToLower(e.Name), ".pdf") {
		logCtx.Info("Ignoring non-PDF object.")
		return nil
	}
	logCtx.Info("Processing new inbox object.")

	tempDir, err := os.MkdirTemp("", "amtspost-inbox-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	localPath := filepath.Join(tempDir, filepath.Base(e.Name))
	if err := gcp.DownloadGCSObject(ctx, f.storageClient, e.Bucket, e.Name, localPath); err != nil {
		logCtx.Error("Failed to download inbox object", "error", err)
		return err
	}

	result, err := f.processor.Process(ctx, &models.ProcessRequest{PDFPath: localPath})
	if err != nil {
		return err
	}
	if result.Skipped {
		logCtx.Info("Inbox object was already processed.", "documentId", result.DocumentID)
	}
	return nil
}
