package songtag

import (
	"errors"

	"github.com/himanishpuri/songtag/pkg/songtag/shazam"
)

var (
	// ErrSourceEnded reports audio that ran out before a terminal answer.
	ErrSourceEnded = errors.New("audio source ended before a match")
	// ErrGaveUp reports the server or MaxDuration ending the session.
	ErrGaveUp = errors.New("no match")
	// ErrHistoryDisabled is returned by history calls when nothing is stored.
	ErrHistoryDisabled = errors.New("tag history is disabled")
	ErrNoMicrophone    = errors.New("no microphone source configured")
)

// Outcome is how a capture session ended.
type Outcome int

const (
	Matched Outcome = iota
	GaveUp
	TransportError
	Cancelled
	SourceEnded
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case GaveUp:
		return "gave up"
	case TransportError:
		return "transport error"
	case Cancelled:
		return "cancelled"
	case SourceEnded:
		return "source ended"
	default:
		return "unknown"
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// TagResult describes a finished session. Err is nil only for Matched.
type TagResult struct {
	TagID       string         `json:"tag_id"`
	Outcome     Outcome        `json:"outcome"`
	Match       *shazam.Result `json:"match,omitempty"`
	ProcessedMs int64          `json:"processed_ms"`
	Submissions int            `json:"submissions"`
	Landmarks   int            `json:"landmarks"`
	HistoryID   string         `json:"history_id,omitempty"`
	Err         error          `json:"-"`
}

func (r *TagResult) Matched() bool {
	return r.Outcome == Matched && r.Match != nil
}
