package service

import (
	"net/mail"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spec-kit/meeting-service/internal/domain"
	"github.com/spec-kit/meeting-service/pkg/util/errorutil"
)

// fieldErrors collects per-field validation messages.
type fieldErrors map[string]any

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return errorutil.NewValidationError("validation failed", map[string]any(f))
}

func (f fieldErrors) maxLen(field, value string, limit int) {
	if utf8.RuneCountInString(value) > limit {
		f.add(field, "must be at most "+strconv.Itoa(limit)+" characters")
	}
}

func validLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func validTimezone(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

func validateDuration(f fieldErrors, minutes int) {
	if minutes < domain.MinDurationMinutes || minutes > domain.MaxDurationMinutes {
		f.add("duration", "must be between 15 and 480 minutes")
	}
}

func validateSchedule(f fieldErrors, at, now time.Time) {
	if !at.After(now) {
		f.add("scheduledAt", "must be in the future")
	}
}

func validateRecurrence(f fieldErrors, recurring bool, pattern *domain.RecurringPattern) {
	if !recurring {
		return
	}
	if pattern == nil {
		f.add("recurringPattern", "is required for recurring meetings")
		return
	}
	switch pattern.Frequency {
	case domain.RecurrenceDaily, domain.RecurrenceWeekly, domain.RecurrenceMonthly:
	default:
		f.add("recurringPattern.frequency", "must be daily, weekly or monthly")
	}
	if pattern.Interval < 1 {
		f.add("recurringPattern.interval", "must be at least 1")
	}
}

// dedupe drops blanks and repeats, keeping first-seen order.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,20}$`)

func validUsername(username string) bool {
	return usernamePattern.MatchString(username)
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}
