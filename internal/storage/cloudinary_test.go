package storage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/config"
)

func newTestUploader(t *testing.T, handler http.HandlerFunc) *CloudinaryUploader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	u := NewCloudinaryUploader(config.StorageConfig{
		CloudName: "demo",
		APIKey:    "key",
		APISecret: "secret",
	}, zap.NewNop(), nil)
	u.apiBase = srv.URL
	u.now = func() time.Time { return time.Unix(1700000000, 0) }
	return u
}

func writeTemp(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "avatar.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o600))
	return path
}

func TestCloudinaryUploader_Upload(t *testing.T) {
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/demo/auto/upload", r.URL.Path)
		if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			assert.Equal(t, "key", r.FormValue("api_key"))
			assert.Equal(t, "1700000000", r.FormValue("timestamp"))
			assert.Equal(t, sign("1700000000", "secret"), r.FormValue("signature"))
		}
		_, _ = w.Write([]byte(`{"secure_url": "https://res.cloudinary.com/demo/avatar.png"}`))
	})

	path := writeTemp(t)
	url, err := u.Upload(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/avatar.png", url)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCloudinaryUploader_FailureRemovesFile(t *testing.T) {
	u := newTestUploader(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": {"message": "Invalid Signature"}}`))
	})

	path := writeTemp(t)
	_, err := u.Upload(context.Background(), path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid Signature")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestCloudinaryUploader_NotConfigured(t *testing.T) {
	u := NewCloudinaryUploader(config.StorageConfig{}, zap.NewNop(), nil)
	path := writeTemp(t)

	_, err := u.Upload(context.Background(), path)
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
