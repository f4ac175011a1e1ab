package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crewops/opsync/internal/domain"
	"github.com/crewops/opsync/internal/remote"
)

// Uploader pushes raw image bytes into the backend's object storage and
// returns the public URL for each object. It shares the runtime settings
// with the REST gateway: no endpoint or credential means uploads are
// refused with ErrNotConfigured.
type Uploader struct {
	settings *remote.Settings
	http     *http.Client
	logger   *slog.Logger
}

// NewUploader creates an uploader. A zero timeout falls back to 30s;
// image payloads are larger than row writes.
func NewUploader(settings *remote.Settings, timeout time.Duration, logger *slog.Logger) *Uploader {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Uploader{
		settings: settings,
		http:     &http.Client{Timeout: timeout},
		logger:   logger,
	}
}

// Upload stores data under objectPath in the configured bucket with
// upsert semantics and returns the public URL.
func (u *Uploader) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	endpoint, credential, ok := u.settings.Snapshot()
	if !ok {
		return "", domain.ErrNotConfigured
	}

	bucket := u.settings.Bucket()
	if bucket == "" {
		return "", fmt.Errorf("%w: no storage bucket", domain.ErrNotConfigured)
	}

	encoded := encodePath(objectPath)
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", endpoint, bucket, encoded)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}

	req.Header.Set("apikey", credential)
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := u.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("object upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		u.logger.Error("Object storage rejected upload",
			slog.String("path", objectPath),
			slog.Int("status", resp.StatusCode),
		)
		return "", fmt.Errorf("object upload failed (status %d): %s", resp.StatusCode, string(body))
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", endpoint, bucket, encoded)

	u.logger.Debug("Object uploaded",
		slog.String("path", objectPath),
		slog.Int("size", len(data)),
	)

	return publicURL, nil
}

// encodePath escapes each path segment while keeping the separators.
func encodePath(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
