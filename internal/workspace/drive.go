package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/awalther/amtspost/internal/models"
)

const folderMimeType = "application/vnd.google-apps.folder"

// Drive files processed documents under <addressed_to>/<sender>/ in the
// user's Google Drive.
type Drive struct {
	svc *drive.Service
}

// NewDrive creates the Drive filing client on top of an authenticated HTTP client.
func NewDrive(ctx context.Context, client *http.Client) (*Drive, error) {
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}
	return &Drive{svc: svc}, nil
}

// File uploads the PDF at localPath into the folder hierarchy derived from
// the analysis and returns the Drive file ID and a shareable link.
func (d *Drive) File(ctx context.Context, analysis *models.DocumentAnalysis, localPath string) (string, string, error) {
	addresseeFolderID, err := d.GetOrCreateFolder(ctx, analysis.AddressedTo, "")
	if err != nil {
		return "", "", fmt.Errorf("addressee folder: %w", err)
	}
	senderFolderID, err := d.GetOrCreateFolder(ctx, string(analysis.Sender), addresseeFolderID)
	if err != nil {
		return "", "", fmt.Errorf("sender folder: %w", err)
	}

	fileID, err := d.UploadPDF(ctx, senderFolderID, analysis.TitleInEnglish+".pdf", localPath)
	if err != nil {
		return "", "", err
	}
	return fileID, FileLink(fileID), nil
}

// GetOrCreateFolder returns the ID of the named folder, creating it when it
// doesn't exist yet. An empty parentID means the Drive root.
func (d *Drive) GetOrCreateFolder(ctx context.Context, name, parentID string) (string, error) {
	folderID, err := d.FindFolder(ctx, name, parentID)
	if err != nil {
		return "", err
	}
	if folderID != "" {
		return folderID, nil
	}
	return d.CreateFolder(ctx, name, parentID)
}

// FindFolder looks up a folder by name, optionally scoped to a parent.
// It returns "" when no folder matches.
func (d *Drive) FindFolder(ctx context.Context, name, parentID string) (string, error) {
	list, err := d.svc.Files.List().
		Q(folderQuery(name, parentID)).
		Spaces("drive").
		Fields("files(id, name)").
		PageSize(1).
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to query Drive folders: %w", err)
	}
	if len(list.Files) == 0 {
		return "", nil
	}
	return list.Files[0].Id, nil
}

// CreateFolder creates a folder, optionally inside parentID.
func (d *Drive) CreateFolder(ctx context.Context, name, parentID string) (string, error) {
	meta := &drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}

	folder, err := d.svc.Files.Create(meta).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create Drive folder %q: %w", name, err)
	}
	slog.Info("Created Drive folder.", "name", name, "id", folder.Id)
	return folder.Id, nil
}

// UploadPDF uploads the file at localPath into folderID under the given name.
func (d *Drive) UploadPDF(ctx context.Context, folderID, name, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s for upload: %w", localPath, err)
	}
	defer f.Close()

	meta := &drive.File{
		Name:    name,
		Parents: []string{folderID},
	}
	uploaded, err := d.svc.Files.Create(meta).
		Media(f, googleapi.ContentType("application/pdf")).
		Fields("id, name").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to Drive: %w", name, err)
	}
	slog.Info("Uploaded file to Drive.", "name", uploaded.Name, "id", uploaded.Id)
	return uploaded.Id, nil
}

// folderQuery builds the Drive files.list query for a folder lookup.
func folderQuery(name, parentID string) string {
	escaped := strings.ReplaceAll(name, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `'`, `\'`)
	q := fmt.Sprintf("mimeType='%s' and name='%s' and trashed=false", folderMimeType, escaped)
	if parentID != "" {
		q += fmt.Sprintf(" and '%s' in parents", parentID)
	}
	return q
}

// FileLink renders the browser URL for a Drive file ID.
func FileLink(fileID string) string {
	return fmt.Sprintf("https://drive.google.com/file/d/%s/view", fileID)
}
