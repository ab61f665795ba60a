// Package commlog maintains the bounded, newest-first communication history
// kept on every contact.
package commlog

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// MaxEvents is the number of events a contact's log retains.
const MaxEvents = 10

type Kind string

const (
	KindCall    Kind = "call"
	KindMessage Kind = "message"
)

var (
	ErrIndexOutOfRange = errors.New("log index out of range")
	ErrInvalidKind     = errors.New("communication kind must be call or message")
)

// Event is a single logged call or message.
type Event struct {
	Timestamp time.Time `json:"date"`
	Kind      Kind      `json:"type"`
}

// ParseKind accepts "call" or "message" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCall:
		return KindCall, nil
	case KindMessage:
		return KindMessage, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// AppendEvent returns a new log holding log plus e, sorted newest first and
// truncated to MaxEvents. The event is dropped when MaxEvents strictly newer
// events already exist. The input slice is not modified.
func AppendEvent(log []Event, e Event) []Event {
	out := make([]Event, 0, len(log)+1)
	out = append(out, log...)
	out = append(out, e)

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})

	if len(out) > MaxEvents {
		out = out[:MaxEvents]
	}
	return out
}

// DeleteEventAt returns a copy of log without the element at index.
func DeleteEventAt(log []Event, index int) ([]Event, error) {
	if index < 0 || index >= len(log) {
		return nil, fmt.Errorf("%w: index %d, length %d", ErrIndexOutOfRange, index, len(log))
	}

	out := make([]Event, 0, len(log)-1)
	out = append(out, log[:index]...)
	out = append(out, log[index+1:]...)
	return out, nil
}

// Latest returns the newest event of a log kept by AppendEvent.
func Latest(log []Event) (Event, bool) {
	if len(log) == 0 {
		return Event{}, false
	}
	return log[0], true
}

// FormatRecency renders the whole days elapsed between t and now.
// Timestamps in the future are reported as "Today".
func FormatRecency(t, now time.Time) string {
	days := int(now.Sub(t) / (24 * time.Hour))
	switch {
	case days <= 0:
		return "Today"
	case days == 1:
		return "1 day ago"
	default:
		return fmt.Sprintf("%d days ago", days)
	}
}
