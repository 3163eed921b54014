package transcription

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/meeting-service/internal/domain"
)

func TestNormalize_EquivalentShapes(t *testing.T) {
	want := []domain.TranscriptSegment{
		{SpeakerName: "Alice", Text: "I'll send the report by Friday."},
		{SpeakerName: "Bob", Text: "Sounds good."},
	}

	shapes := map[string]string{
		"bare array": `[
			{"speaker": "Alice", "text": "I'll send the report by Friday."},
			{"speaker_name": "Bob", "text": "Sounds good."}
		]`,
		"segments wrapper": `{"meeting_id": "abc", "segments": [
			{"name": "Alice", "text": "I'll send the report by Friday."},
			{"speaker": "Bob", "text": "Sounds good."}
		]}`,
	}

	for name, raw := range shapes {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, Normalize([]byte(raw)))
		})
	}
}

func TestNormalize_SingleObject(t *testing.T) {
	got := Normalize([]byte(`{"speaker": "Alice", "text": "Only line"}`))
	assert.Equal(t, []domain.TranscriptSegment{{SpeakerName: "Alice", Text: "Only line"}}, got)
}

func TestNormalize_SpeakerPrecedence(t *testing.T) {
	got := Normalize([]byte(`[{"speaker": "A", "speaker_name": "B", "name": "C", "text": "x"}]`))
	assert.Equal(t, "A", got[0].SpeakerName)
}

func TestNormalize_EmptyOrUnknown(t *testing.T) {
	cases := []string{
		``,
		`null`,
		`[]`,
		`{}`,
		`"just a string"`,
		`{"segments": []}`,
		`{"status": "pending"}`,
		`not json`,
	}
	for _, raw := range cases {
		got := Normalize([]byte(raw))
		assert.NotNil(t, got, raw)
		assert.Empty(t, got, raw)
	}
}

func TestNormalize_SkipsNonObjectItems(t *testing.T) {
	got := Normalize([]byte(`[1, "x", {"text": "kept"}]`))
	assert.Equal(t, []domain.TranscriptSegment{{Text: "kept"}}, got)
}
