package transcription

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/spec-kit/meeting-service/internal/domain"
)

var speakerKeys = []string{"speaker", "speaker_name", "name"}

// Normalize converts a transcript payload into canonical segments.
// Accepted shapes, in order: a bare array of segments, an object with a
// "segments" array, a single segment object. Anything else yields an empty list.
func Normalize(raw []byte) []domain.TranscriptSegment {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return []domain.TranscriptSegment{}
	}
	doc := gjson.ParseBytes(raw)

	switch {
	case doc.IsArray():
		return segmentsFrom(doc.Array())
	case doc.IsObject():
		if wrapped := doc.Get("segments"); wrapped.IsArray() {
			return segmentsFrom(wrapped.Array())
		}
		if seg, ok := segmentFrom(doc); ok {
			return []domain.TranscriptSegment{seg}
		}
	}
	return []domain.TranscriptSegment{}
}

func segmentsFrom(items []gjson.Result) []domain.TranscriptSegment {
	out := make([]domain.TranscriptSegment, 0, len(items))
	for _, item := range items {
		if seg, ok := segmentFrom(item); ok {
			out = append(out, seg)
		}
	}
	return out
}

func segmentFrom(item gjson.Result) (domain.TranscriptSegment, bool) {
	if !item.IsObject() {
		return domain.TranscriptSegment{}, false
	}
	text := item.Get("text")
	if !text.Exists() {
		return domain.TranscriptSegment{}, false
	}
	seg := domain.TranscriptSegment{Text: strings.TrimSpace(text.String())}
	for _, key := range speakerKeys {
		if v := item.Get(key); v.Exists() && v.String() != "" {
			seg.SpeakerName = v.String()
			break
		}
	}
	return seg, true
}
