package drive

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/konkon034034/jinsei-soudan/internal/config"
)

// Service wraps Drive v3 for asset download and finished-video upload.
type Service struct {
	cfg *config.Config
	svc *drive.Service
}

// New connects using the shared service-account credential.
func New(ctx context.Context, cfg *config.Config) (*Service, error) {
	creds := os.Getenv(cfg.Drive.CredentialsEnv)
	if creds == "" {
		return nil, fmt.Errorf("%s not set", cfg.Drive.CredentialsEnv)
	}
	svc, err := drive.NewService(ctx, option.WithCredentialsJSON([]byte(creds)))
	if err != nil {
		return nil, fmt.Errorf("drive service: %w", err)
	}
	return &Service{cfg: cfg, svc: svc}, nil
}

// Download streams a file by ID to destPath.
func (s *Service) Download(ctx context.Context, fileID, destPath string) error {
	resp, err := s.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return fmt.Errorf("drive download %s: %w", fileID, err)
	}
	defer resp.Body.Close()

	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	out, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return fmt.Errorf("write %s: %w", destPath, err)
	}
	return nil
}

// Upload sends a local file into folderID with a resumable upload and
// opens it to anyone-with-the-link, returning the webViewLink. The
// link lands in the sheet so reviewers can preview the video before
// it is published.
func (s *Service) Upload(ctx context.Context, path, folderID string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	meta := &drive.File{Name: filepath.Base(path)}
	if folderID != "" {
		meta.Parents = []string{folderID}
	}

	log.Printf("[drive] Uploading %s...", filepath.Base(path))
	created, err := s.svc.Files.Create(meta).
		Media(f, googleapi.ChunkSize(8*1024*1024)).
		Fields("id", "webViewLink").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive upload: %w", err)
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	if _, err := s.svc.Permissions.Create(created.Id, perm).Context(ctx).Do(); err != nil {
		log.Printf("[drive] ⚠️  Could not open link permission: %v", err)
	}

	log.Printf("[drive] ✅ Uploaded: %s", created.WebViewLink)
	return created.WebViewLink, nil
}
