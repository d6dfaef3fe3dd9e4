// Package upload pushes produced dataset files to the remote storage
// service.
package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/TueLindhart/load-electricity-data-from-api/internal/clients"
)

// HTTPSink uploads files as multipart posts to a storage endpoint and
// returns the file id the service assigns.
type HTTPSink struct {
	base     *clients.BaseClient
	token    string
	folderID string
	logger   *zap.Logger
}

// NewHTTPSink returns sink.
func NewHTTPSink(baseURL, token, folderID string, httpClient clients.HTTPDoer, logger *zap.Logger) *HTTPSink {
	return &HTTPSink{
		base:     clients.NewBaseClient(baseURL, httpClient),
		token:    token,
		folderID: folderID,
		logger:   logger,
	}
}

type uploadResponse struct {
	ID string `json:"id"`
}

// Upload sends one file. The remote name is the file's base name.
func (s *HTTPSink) Upload(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("upload: read %s: %w", path, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if s.folderID != "" {
		if err := writer.WriteField("folder", s.folderID); err != nil {
			return "", fmt.Errorf("upload: build request: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", fmt.Errorf("upload: build request: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("upload: build request: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("upload: build request: %w", err)
	}

	headers := map[string]string{
		"Authorization": "Bearer " + s.token,
		"Content-Type":  writer.FormDataContentType(),
	}
	resp, err := s.base.Do(ctx, http.MethodPost, "/files", buf.Bytes(), headers)
	if err != nil {
		return "", fmt.Errorf("upload: post %s: %w", path, err)
	}
	if !resp.OK() {
		return "", fmt.Errorf("upload: %s rejected with code %d: %s", path, resp.StatusCode, resp.Reason)
	}

	var payload uploadResponse
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", fmt.Errorf("upload: decode response: %w", err)
	}
	s.logger.Info("file uploaded to remote storage", zap.String("path", path), zap.String("file_id", payload.ID))
	return payload.ID, nil
}
