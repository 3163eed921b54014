package transcription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/config"
	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/internal/observability"
)

// BotResult reports a bot start attempt.
type BotResult struct {
	Started bool
	BotID   string
	Raw     []byte
	Err     error
}

// TranscriptResult carries normalized segments; Segments is never nil.
type TranscriptResult struct {
	Segments []domain.TranscriptSegment
	Raw      []byte
	Err      error
}

// TeardownResult reports a bot deletion attempt.
type TeardownResult struct {
	Deleted bool
	Err     error
}

// Gateway talks to the bot-hosting transcription service. Calls report
// failures in their result instead of returning errors.
type Gateway interface {
	ExternalID(joinLink string) *string
	StartBot(ctx context.Context, joinLink, botLabel string) BotResult
	FetchTranscript(ctx context.Context, joinLink string) TranscriptResult
	DeleteBot(ctx context.Context, joinLink string) TeardownResult
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("transcription service returned %d: %s", e.StatusCode, e.Body)
}

// Client is the HTTP Gateway implementation.
type Client struct {
	baseURL           string
	apiKey            string
	botTimeout        time.Duration
	transcriptTimeout time.Duration
	httpClient        *http.Client
	resolver          *Resolver
	logger            *zap.Logger
	metrics           *observability.Metrics
}

// NewClient builds a client from configuration.
func NewClient(cfg config.TranscriptionConfig, resolver *Resolver, logger *zap.Logger, metrics *observability.Metrics) *Client {
	if resolver == nil {
		resolver = NewResolver()
	}
	return &Client{
		baseURL:           strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:            cfg.APIKey,
		botTimeout:        cfg.BotTimeout(),
		transcriptTimeout: cfg.TranscriptTimeout(),
		httpClient:        &http.Client{},
		resolver:          resolver,
		logger:            logger.With(zap.String("component", "transcription")),
		metrics:           metrics,
	}
}

func (c *Client) ExternalID(joinLink string) *string {
	return c.resolver.ExternalID(joinLink)
}

func (c *Client) StartBot(ctx context.Context, joinLink, botLabel string) BotResult {
	ref, err := c.resolver.Resolve(joinLink)
	if err != nil {
		return BotResult{Err: err}
	}

	payload, err := json.Marshal(map[string]string{
		"platform":          ref.Platform,
		"native_meeting_id": ref.NativeID,
		"bot_name":          botLabel,
	})
	if err != nil {
		return BotResult{Err: err}
	}

	raw, err := c.do(ctx, c.botTimeout, http.MethodPost, "/bots", payload)
	c.metrics.RecordExternalCall("transcription", "start_bot", err == nil)
	if err != nil {
		c.logger.Warn("start bot failed", zap.String("meeting", ref.NativeID), zap.Error(err))
		return BotResult{Raw: raw, Err: err}
	}

	botID := ref.NativeID
	if id := gjson.GetBytes(raw, "id"); id.Exists() && id.String() != "" {
		botID = id.String()
	}
	c.logger.Info("bot started", zap.String("meeting", ref.NativeID), zap.String("bot_id", botID))
	return BotResult{Started: true, BotID: botID, Raw: raw}
}

func (c *Client) FetchTranscript(ctx context.Context, joinLink string) TranscriptResult {
	empty := []domain.TranscriptSegment{}
	ref, err := c.resolver.Resolve(joinLink)
	if err != nil {
		return TranscriptResult{Segments: empty, Err: err}
	}

	path := fmt.Sprintf("/transcripts/%s/%s", ref.Platform, ref.NativeID)
	raw, err := c.do(ctx, c.transcriptTimeout, http.MethodGet, path, nil)
	c.metrics.RecordExternalCall("transcription", "fetch_transcript", err == nil)
	if err != nil {
		c.logger.Warn("fetch transcript failed", zap.String("meeting", ref.NativeID), zap.Error(err))
		return TranscriptResult{Segments: empty, Raw: raw, Err: err}
	}

	segments := Normalize(raw)
	c.logger.Debug("transcript fetched", zap.String("meeting", ref.NativeID), zap.Int("segments", len(segments)))
	return TranscriptResult{Segments: segments, Raw: raw}
}

func (c *Client) DeleteBot(ctx context.Context, joinLink string) TeardownResult {
	ref, err := c.resolver.Resolve(joinLink)
	if err != nil {
		return TeardownResult{Err: err}
	}

	path := fmt.Sprintf("/bots/%s/%s", ref.Platform, ref.NativeID)
	_, err = c.do(ctx, c.botTimeout, http.MethodDelete, path, nil)
	c.metrics.RecordExternalCall("transcription", "delete_bot", err == nil)
	if err != nil {
		c.logger.Warn("delete bot failed", zap.String("meeting", ref.NativeID), zap.Error(err))
		return TeardownResult{Err: err}
	}
	return TeardownResult{Deleted: true}
}

func (c *Client) do(ctx context.Context, timeout time.Duration, method, path string, body []byte) ([]byte, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return raw, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}
