package services

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"

	"github.com/awalther/amtspost/internal/gcp"
)

// Archiver keeps a GCS copy of the OCR text and the analysis record per
// processed document. Writes are conditional on the object not existing, so
// re-runs never overwrite an earlier archive.
type Archiver struct {
	storageClient *storage.Client
	bucket        string
}

func NewArchiver(storageClient *storage.Client, bucket string) *Archiver {
	return &Archiver{storageClient: storageClient, bucket: bucket}
}

// Archive stores the run's artifacts under <docID>/ in the archive bucket.
func (a *Archiver) Archive(ctx context.Context, docID, ocrText string, analysisJSON []byte) error {
	bucketHandle := a.storageClient.Bucket(a.bucket)

	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, docID+"/ocr.txt", ocrText); err != nil {
		return fmt.Errorf("archiving OCR text: %w", err)
	}
	if err := gcp.SaveToGCSAtomically(ctx, bucketHandle, docID+"/analysis.json", string(analysisJSON)); err != nil {
		return fmt.Errorf("archiving analysis: %w", err)
	}
	return nil
}
