package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/config"
	"github.com/spec-kit/meeting-service/internal/observability"
)

// ErrNotConfigured is returned when no storage credentials are set.
var ErrNotConfigured = errors.New("object storage not configured")

// Uploader stores a local file and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, localPath string) (string, error)
}

// CloudinaryUploader performs signed uploads. The local file is removed
// whether or not the upload succeeds.
type CloudinaryUploader struct {
	cfg        config.StorageConfig
	apiBase    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    *observability.Metrics
	now        func() time.Time
}

// NewCloudinaryUploader builds an uploader from configuration.
func NewCloudinaryUploader(cfg config.StorageConfig, logger *zap.Logger, metrics *observability.Metrics) *CloudinaryUploader {
	return &CloudinaryUploader{
		cfg:        cfg,
		apiBase:    "https://api.cloudinary.com/v1_1",
		httpClient: &http.Client{Timeout: cfg.Timeout()},
		logger:     logger.With(zap.String("component", "storage")),
		metrics:    metrics,
		now:        time.Now,
	}
}

func (u *CloudinaryUploader) Upload(ctx context.Context, localPath string) (string, error) {
	defer func() {
		if err := os.Remove(localPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			u.logger.Warn("remove temp upload failed", zap.String("path", localPath), zap.Error(err))
		}
	}()

	if u.cfg.CloudName == "" || u.cfg.APIKey == "" || u.cfg.APISecret == "" {
		return "", ErrNotConfigured
	}

	body, contentType, err := u.buildForm(localPath)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/%s/auto/upload", u.apiBase, u.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		u.metrics.RecordExternalCall("storage", "upload", false)
		return "", fmt.Errorf("upload avatar: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		u.metrics.RecordExternalCall("storage", "upload", false)
		return "", err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		u.metrics.RecordExternalCall("storage", "upload", false)
		msg := gjson.GetBytes(raw, "error.message").String()
		return "", fmt.Errorf("upload avatar: status %d: %s", resp.StatusCode, msg)
	}

	url := gjson.GetBytes(raw, "secure_url").String()
	if url == "" {
		url = gjson.GetBytes(raw, "url").String()
	}
	if url == "" {
		u.metrics.RecordExternalCall("storage", "upload", false)
		return "", errors.New("upload avatar: response has no url")
	}
	u.metrics.RecordExternalCall("storage", "upload", true)
	u.logger.Info("avatar uploaded", zap.String("url", url))
	return url, nil
}

func (u *CloudinaryUploader) buildForm(localPath string) (io.Reader, string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	timestamp := strconv.FormatInt(u.now().Unix(), 10)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := map[string]string{
		"api_key":   u.cfg.APIKey,
		"timestamp": timestamp,
		"signature": sign(timestamp, u.cfg.APISecret),
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	part, err := w.CreateFormFile("file", filepath.Base(localPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// sign hashes the signed parameters followed by the API secret.
func sign(timestamp, secret string) string {
	sum := sha1.Sum([]byte("timestamp=" + timestamp + secret))
	return hex.EncodeToString(sum[:])
}
