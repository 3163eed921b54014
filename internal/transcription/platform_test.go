package transcription

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoogleMeetParser(t *testing.T) {
	tests := []struct {
		link string
		want string
		ok   bool
	}{
		{"https://meet.google.com/abc-defg-hij", "abc-defg-hij", true},
		{"https://meet.google.com/lookup/abc-defg-hij", "abc-defg-hij", true},
		{"https://meet.google.com/abc-defg-hij?authuser=0", "abc-defg-hij", true},
		{"https://meet.google.com/abcdefghij", "", false},
		{"https://zoom.us/j/123456789", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			got, ok := GoogleMeetParser{}.Parse(tt.link)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

type zoomParser struct{}

func (zoomParser) Platform() string { return "zoom" }

func (zoomParser) Parse(link string) (string, bool) {
	const prefix = "https://zoom.us/j/"
	if len(link) > len(prefix) && link[:len(prefix)] == prefix {
		return link[len(prefix):], true
	}
	return "", false
}

func TestResolver_Pluggable(t *testing.T) {
	r := NewResolver(GoogleMeetParser{}, zoomParser{})

	ref, err := r.Resolve("https://zoom.us/j/987")
	require.NoError(t, err)
	assert.Equal(t, MeetingRef{Platform: "zoom", NativeID: "987"}, ref)

	ref, err = r.Resolve("https://meet.google.com/abc-defg-hij")
	require.NoError(t, err)
	assert.Equal(t, GoogleMeetPlatform, ref.Platform)

	_, err = r.Resolve("https://teams.microsoft.com/l/meetup-join/x")
	assert.ErrorIs(t, err, ErrUnsupportedLink)
}

func TestResolver_ExternalID(t *testing.T) {
	r := NewResolver()
	id := r.ExternalID("https://meet.google.com/abc-defg-hij")
	require.NotNil(t, id)
	assert.Equal(t, "abc-defg-hij", *id)
	assert.Nil(t, r.ExternalID("https://example.com/call"))
}
