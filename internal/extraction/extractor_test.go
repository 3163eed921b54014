package extraction

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/meeting-service/internal/config"
	"github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

func TestExtractor_Extract(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(p string) bool {
		return strings.Contains(p, "Alice, Bob") && strings.Contains(p, "Alice: I'll send the report by Friday.")
	})).Return("```json\n[{\"assignee\":\"Alice\",\"task\":\"Send report\",\"dueDate\":\"2030-01-04\"}]\n```", nil)

	ext := NewExtractor(completer, time.Second, zap.NewNop(), nil)
	items, err := ext.Extract(context.Background(), "Alice: I'll send the report by Friday.\n", []string{"Alice", "Bob"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Assignee)
	assert.Equal(t, "Alice", *items[0].Assignee)
	assert.Equal(t, "Send report", items[0].Task)
	require.NotNil(t, items[0].DueDate)
	assert.Equal(t, time.Date(2030, 1, 4, 0, 0, 0, 0, time.UTC), *items[0].DueDate)
	completer.AssertExpectations(t)
}

func TestExtractor_CompleterFailure(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("rate limited"))

	ext := NewExtractor(completer, time.Second, zap.NewNop(), nil)
	_, err := ext.Extract(context.Background(), "text", nil)
	require.Error(t, err)
	assert.True(t, errorutil.IsCode(err, errorutil.CodeExternalService))
}

func TestExtractor_MalformedReply(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).Return("Sure! Here are the action items.", nil)

	ext := NewExtractor(completer, time.Second, zap.NewNop(), nil)
	_, err := ext.Extract(context.Background(), "text", nil)
	require.Error(t, err)
	assert.True(t, errorutil.IsCode(err, errorutil.CodeParse))
}

func TestExtractor_NonStringAssignee(t *testing.T) {
	completer := &mockCompleter{}
	completer.On("Complete", mock.Anything, mock.Anything).
		Return(`[{"assignee": {"name": "Alice"}, "task": "Send the deck", "dueDate": null}]`, nil)

	ext := NewExtractor(completer, time.Second, zap.NewNop(), nil)
	items, err := ext.Extract(context.Background(), "Alice: I'll send the deck", []string{"Alice"})
	require.Error(t, err)
	assert.Nil(t, items)
	assert.True(t, errorutil.IsCode(err, errorutil.CodeParse))
}

func TestParseReply(t *testing.T) {
	items, err := ParseReply(`[
		{"assignee": null, "task": "Book a room", "dueDate": null},
		{"assignee": " ", "task": "Draft agenda", "dueDate": "next week"},
		{"assignee": "Bob", "task": "Ship it", "dueDate": "2030-02-01T15:00:00+02:00"}
	]`)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Nil(t, items[0].Assignee)
	assert.Nil(t, items[0].DueDate)
	assert.Nil(t, items[1].Assignee)
	assert.Nil(t, items[1].DueDate)
	require.NotNil(t, items[2].DueDate)
	assert.Equal(t, time.Date(2030, 2, 1, 13, 0, 0, 0, time.UTC), *items[2].DueDate)
}

func TestParseReply_Rejects(t *testing.T) {
	cases := map[string]string{
		"object":       `{"task": "x"}`,
		"prose":        `no items`,
		"scalar items": `["x"]`,
		"missing task": `[{"assignee": "Alice"}]`,
		"empty task":   `[{"task": "  "}]`,
		"numeric task": `[{"task": 42}]`,
		"object task":  `[{"task": {"text": "x"}}]`,
		"number owner": `[{"task": "x", "assignee": 7}]`,
		"object owner": `[{"task": "x", "assignee": {"name": "Alice"}}]`,
	}
	for name, reply := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReply(reply)
			assert.Error(t, err)
		})
	}
}

func TestParseReply_EmptyArray(t *testing.T) {
	items, err := ParseReply("```\n[]\n```")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestOpenAICompleter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-3.5-turbo",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "[]"}
			}]
		}`))
	}))
	defer srv.Close()

	completer := NewOpenAICompleter(config.LLMConfig{
		APIKey:      "sk-test",
		BaseURL:     srv.URL + "/",
		Model:       "gpt-3.5-turbo",
		Temperature: 0.3,
	})
	reply, err := completer.Complete(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "[]", reply)
}
