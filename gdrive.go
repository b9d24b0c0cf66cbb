package cerebro

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

// DriveImporter pulls the contents of a shared Google Drive folder into
// plain text using a service account. The folder must be shared with the
// service account's email address.
type DriveImporter struct {
	svc *drive.Service
}

// NewDriveImporter builds an importer from a service-account credentials
// file.
func NewDriveImporter(ctx context.Context, credentialsFile string) (*DriveImporter, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("service account file %s not found: %w", credentialsFile, err)
	}

	svc, err := drive.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive service: %w", err)
	}
	return &DriveImporter{svc: svc}, nil
}

// ImportFolder extracts text from every supported file directly inside the
// folder (non-recursive): Google Docs are exported as plain text, text
// files are downloaded as-is, PDFs are downloaded and extracted. Files it
// cannot handle are skipped with a log line rather than failing the whole
// import.
func (d *DriveImporter) ImportFolder(ctx context.Context, folderID string) (string, error) {
	if folderID == "" {
		return "", fmt.Errorf("folder ID is required")
	}

	var docs []ExtractedDocument
	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)
	pageToken := ""
	for {
		call := d.svc.Files.List().
			Q(query).
			Fields("nextPageToken, files(id, name, mimeType)").
			PageSize(100).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		list, err := call.Do()
		if err != nil {
			return "", fmt.Errorf("failed to list folder %s: %w", folderID, err)
		}

		for _, file := range list.Files {
			text, err := d.fileText(ctx, file)
			if err != nil {
				log.Printf("Skipping drive file %s (%s): %v", file.Name, file.MimeType, err)
				continue
			}
			if text != "" {
				docs = append(docs, ExtractedDocument{Name: file.Name, Text: text})
			}
		}

		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}

	if len(docs) == 0 {
		return "", fmt.Errorf("no readable documents in folder %s", folderID)
	}
	return CombineDocuments(docs), nil
}

func (d *DriveImporter) fileText(ctx context.Context, file *drive.File) (string, error) {
	switch file.MimeType {
	case "application/vnd.google-apps.document":
		resp, err := d.svc.Files.Export(file.Id, "text/plain").Context(ctx).Download()
		if err != nil {
			return "", fmt.Errorf("failed to export doc: %w", err)
		}
		return readBody(resp)

	case "text/plain", "text/markdown":
		resp, err := d.svc.Files.Get(file.Id).Context(ctx).Download()
		if err != nil {
			return "", fmt.Errorf("failed to download file: %w", err)
		}
		return readBody(resp)

	case "application/pdf":
		resp, err := d.svc.Files.Get(file.Id).Context(ctx).Download()
		if err != nil {
			return "", fmt.Errorf("failed to download pdf: %w", err)
		}
		defer resp.Body.Close()

		tmp, err := os.CreateTemp("", "drive-*.pdf")
		if err != nil {
			return "", fmt.Errorf("failed to create temp file: %w", err)
		}
		defer os.Remove(tmp.Name())

		if _, err := io.Copy(tmp, resp.Body); err != nil {
			tmp.Close()
			return "", fmt.Errorf("failed to save pdf: %w", err)
		}
		tmp.Close()
		return extractPDFText(tmp.Name())

	default:
		return "", fmt.Errorf("unsupported mime type %s", file.MimeType)
	}
}

func readBody(resp *http.Response) (string, error) {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(data), nil
}
