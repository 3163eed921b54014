package extraction

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/observability"
	"github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

// Completer returns the model's reply to a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Item is one action item as returned by the model.
type Item struct {
	Assignee *string
	Task     string
	DueDate  *time.Time
}

// Extractor turns transcript text into action items.
type Extractor struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *observability.Metrics
}

// NewExtractor wires an Extractor; timeout <= 0 disables the deadline.
func NewExtractor(completer Completer, timeout time.Duration, logger *zap.Logger, metrics *observability.Metrics) *Extractor {
	return &Extractor{
		completer: completer,
		timeout:   timeout,
		logger:    logger.With(zap.String("component", "extraction")),
		metrics:   metrics,
	}
}

// Extract asks the completer for action items. Completer failures surface as
// EXTERNAL_SERVICE_ERROR and malformed replies as PARSE_ERROR.
func (e *Extractor) Extract(ctx context.Context, transcript string, candidates []string) ([]Item, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	reply, err := e.completer.Complete(ctx, BuildPrompt(transcript, candidates))
	e.metrics.RecordExternalCall("llm", "complete", err == nil)
	if err != nil {
		e.logger.Warn("completion failed", zap.Error(err))
		return nil, errorutil.NewExternalServiceError("llm", err)
	}

	items, err := ParseReply(reply)
	if err != nil {
		e.logger.Warn("unparseable completion", zap.Error(err), zap.Int("reply_len", len(reply)))
		return nil, errorutil.NewParseError("failed to parse action items", err)
	}
	e.logger.Info("action items extracted", zap.Int("count", len(items)))
	return items, nil
}

// BuildPrompt lists the candidate names and requests a JSON array reply.
func BuildPrompt(transcript string, candidates []string) string {
	var b strings.Builder
	b.WriteString("Analyze this meeting transcript and extract action items. For each action item, identify:\n")
	fmt.Fprintf(&b, "1. The person responsible (from this list: %s)\n", strings.Join(candidates, ", "))
	b.WriteString("2. The task description\n")
	b.WriteString("3. The due date if mentioned, as YYYY-MM-DD\n\n")
	b.WriteString("Respond with only a JSON array of objects with the keys assignee, task and dueDate. ")
	b.WriteString("Use null for an unknown assignee or due date.\n\n")
	b.WriteString("Transcript:\n")
	b.WriteString(transcript)
	b.WriteString("\n\nResponse:")
	return b.String()
}

var errNotArray = errors.New("reply is not a JSON array")

// ParseReply strictly decodes a model reply. Markdown code fences are ignored.
func ParseReply(reply string) ([]Item, error) {
	body := stripFences(reply)
	if !gjson.Valid(body) {
		return nil, errNotArray
	}
	doc := gjson.Parse(body)
	if !doc.IsArray() {
		return nil, errNotArray
	}

	raw := doc.Array()
	items := make([]Item, 0, len(raw))
	for i, entry := range raw {
		if !entry.IsObject() {
			return nil, fmt.Errorf("item %d is not an object", i)
		}
		taskField := entry.Get("task")
		if taskField.Type != gjson.String {
			return nil, fmt.Errorf("item %d task is not a string", i)
		}
		task := strings.TrimSpace(taskField.Str)
		if task == "" {
			return nil, fmt.Errorf("item %d has no task", i)
		}
		item := Item{Task: task}
		switch assignee := entry.Get("assignee"); assignee.Type {
		case gjson.Null:
		case gjson.String:
			if name := strings.TrimSpace(assignee.Str); name != "" {
				item.Assignee = &name
			}
		default:
			return nil, fmt.Errorf("item %d assignee is not a string or null", i)
		}
		item.DueDate = parseDueDate(entry.Get("dueDate").String())
		items = append(items, item)
	}
	return items, nil
}

func stripFences(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// parseDueDate accepts RFC3339 or a bare date; anything else is dropped.
func parseDueDate(v string) *time.Time {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		t = t.UTC()
		return &t
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return &t
	}
	return nil
}
