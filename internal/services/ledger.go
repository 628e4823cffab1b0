package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
)

// Ledger statuses, in pipeline order.
const (
	StatusOCR        = "OCR"
	StatusAnalyzing  = "ANALYZING"
	StatusFiling     = "FILING"
	StatusScheduling = "SCHEDULING"
	StatusComplete   = "COMPLETE"
	StatusFailed     = "FAILED"
)

// Record is the Firestore document tracking one processed scan. The file
// hash makes re-runs idempotent: a scan that was already processed is
// skipped instead of filed twice.
type Record struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	DriveFileID      string    `firestore:"driveFileId,omitempty"`
	EventIDs         []string  `firestore:"eventIds,omitempty"`
	TaskIDs          []string  `firestore:"taskIds,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}

// Ledger is the Firestore-backed processing ledger.
type Ledger struct {
	client     *firestore.Client
	collection string
}

func NewLedger(client *firestore.Client, collection string) *Ledger {
	return &Ledger{client: client, collection: collection}
}

// FindByHash returns the ID of an existing record with the same file hash,
// or "" when the document has not been seen before.
func (l *Ledger) FindByHash(ctx context.Context, fileHash string) (string, error) {
	docs, err := l.client.Collection(l.collection).Where("fileHash", "==", fileHash).Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return "", fmt.Errorf("failed to query for duplicates: %w", err)
	}
	if len(docs) > 0 {
		return docs[0].Ref.ID, nil
	}
	return "", nil
}

// Create inserts the initial record and returns its document ID.
func (l *Ledger) Create(ctx context.Context, fileHash, filename string) (string, error) {
	record := Record{
		FileHash:         fileHash,
		OriginalFilename: filename,
		Status:           StatusOCR,
		CreatedAt:        time.Now(),
	}
	docRef, _, err := l.client.Collection(l.collection).Add(ctx, record)
	if err != nil {
		return "", fmt.Errorf("failed to create ledger record: %w", err)
	}
	return docRef.ID, nil
}

func (l *Ledger) SetStatus(ctx context.Context, docID, status string) error {
	return l.update(ctx, docID, []firestore.Update{
		{Path: "status", Value: status},
	})
}

func (l *Ledger) SetPageCount(ctx context.Context, docID string, pageCount int) error {
	return l.update(ctx, docID, []firestore.Update{
		{Path: "pageCount", Value: pageCount},
	})
}

// SetFiled records the Drive file ID and advances the record to SCHEDULING.
// Writing the ID here, not at completion, keeps the uploaded file traceable
// from the ledger even when a later step fails.
func (l *Ledger) SetFiled(ctx context.Context, docID, driveFileID string) error {
	return l.update(ctx, docID, []firestore.Update{
		{Path: "status", Value: StatusScheduling},
		{Path: "driveFileId", Value: driveFileID},
	})
}

func (l *Ledger) Fail(ctx context.Context, docID, details string) error {
	return l.update(ctx, docID, []firestore.Update{
		{Path: "status", Value: StatusFailed},
		{Path: "errorDetails", Value: details},
	})
}

func (l *Ledger) Complete(ctx context.Context, docID, driveFileID string, eventIDs, taskIDs []string) error {
	return l.update(ctx, docID, []firestore.Update{
		{Path: "status", Value: StatusComplete},
		{Path: "driveFileId", Value: driveFileID},
		{Path: "eventIds", Value: eventIDs},
		{Path: "taskIds", Value: taskIDs},
	})
}

func (l *Ledger) update(ctx context.Context, docID string, updates []firestore.Update) error {
	_, err := l.client.Collection(l.collection).Doc(docID).Update(ctx, updates)
	if err != nil {
		return fmt.Errorf("failed to update ledger record %s: %w", docID, err)
	}
	return nil
}
