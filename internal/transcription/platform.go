package transcription

import (
	"errors"
	"regexp"
)

// ErrUnsupportedLink is reported when no parser recognizes a join link.
var ErrUnsupportedLink = errors.New("unsupported meeting link")

// MeetingRef identifies a meeting on a bot-hosting platform.
type MeetingRef struct {
	Platform string
	NativeID string
}

// LinkParser extracts a platform meeting id from a join link.
type LinkParser interface {
	Platform() string
	Parse(link string) (nativeID string, ok bool)
}

// GoogleMeetPlatform is the platform key used by the bot service.
const GoogleMeetPlatform = "google_meet"

var googleMeetPattern = regexp.MustCompile(`meet\.google\.com/(?:lookup/)?([a-z]{3}-[a-z]{4}-[a-z]{3})`)

// GoogleMeetParser recognizes meet.google.com/<slug> and meet.google.com/lookup/<slug>.
type GoogleMeetParser struct{}

func (GoogleMeetParser) Platform() string { return GoogleMeetPlatform }

func (GoogleMeetParser) Parse(link string) (string, bool) {
	match := googleMeetPattern.FindStringSubmatch(link)
	if len(match) < 2 {
		return "", false
	}
	return match[1], true
}

// Resolver tries parsers in order.
type Resolver struct {
	parsers []LinkParser
}

// NewResolver builds a resolver; with no parsers it defaults to Google Meet.
func NewResolver(parsers ...LinkParser) *Resolver {
	if len(parsers) == 0 {
		parsers = []LinkParser{GoogleMeetParser{}}
	}
	return &Resolver{parsers: parsers}
}

// Resolve returns the first matching reference or ErrUnsupportedLink.
func (r *Resolver) Resolve(link string) (MeetingRef, error) {
	for _, p := range r.parsers {
		if id, ok := p.Parse(link); ok {
			return MeetingRef{Platform: p.Platform(), NativeID: id}, nil
		}
	}
	return MeetingRef{}, ErrUnsupportedLink
}

// ExternalID returns the native meeting id for link, or nil when unrecognized.
func (r *Resolver) ExternalID(link string) *string {
	ref, err := r.Resolve(link)
	if err != nil {
		return nil
	}
	return &ref.NativeID
}
