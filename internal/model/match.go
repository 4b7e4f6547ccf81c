package model

import (
	"time"

	"github.com/rotisserie/eris"
)

// MatchStatus is the lifecycle state of a match.
type MatchStatus string

const (
	MatchSuggested MatchStatus = "suggested"
	MatchAccepted  MatchStatus = "accepted"
	MatchRejected  MatchStatus = "rejected"
	MatchManual    MatchStatus = "manual"
)

// Valid reports whether s is a known status value.
func (s MatchStatus) Valid() bool {
	switch s {
	case MatchSuggested, MatchAccepted, MatchRejected, MatchManual:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transition. Only suggested
// matches move; accepted, rejected and manual are final.
func (s MatchStatus) Terminal() bool {
	return s == MatchAccepted || s == MatchRejected || s == MatchManual
}

// Settled reports whether s makes the match the effective answer for its
// comparison cell. Manual counts the same as accepted.
func (s MatchStatus) Settled() bool {
	return s == MatchAccepted || s == MatchManual
}

// Match associates one response line with one ITT line. Matches are never
// deleted; rejected and superseded records keep their status for audit.
type Match struct {
	ID             string      `json:"id"`
	ProjectID      string      `json:"project_id"`
	ITTItemID      string      `json:"itt_item_id"`
	ContractorID   string      `json:"contractor_id"`
	ResponseItemID string      `json:"response_item_id"`
	Status         MatchStatus `json:"status"`
	Confidence     float64     `json:"confidence"`
	Comment        string      `json:"comment,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// Suggestion is one candidate pairing proposed by the auto-matcher.
type Suggestion struct {
	ID             string  `json:"id,omitempty"`
	ITTItemID      string  `json:"itt_item_id"`
	ResponseItemID string  `json:"response_item_id"`
	Confidence     float64 `json:"confidence"`
	Comment        string  `json:"comment,omitempty"`
}

// Validate reports the first violation in the suggestion, or nil.
func (s Suggestion) Validate() error {
	if s.ITTItemID == "" {
		return eris.Wrap(ErrValidation, "suggestion missing itt_item_id")
	}
	if s.ResponseItemID == "" {
		return eris.Wrap(ErrValidation, "suggestion missing response_item_id")
	}
	if s.Confidence < 0 || s.Confidence > 1 {
		return eris.Wrapf(ErrValidation, "suggestion confidence %v outside [0,1]", s.Confidence)
	}
	return nil
}

// MatchFilter selects matches by status in listing views.
type MatchFilter string

const (
	FilterAll       MatchFilter = "all"
	FilterSuggested MatchFilter = "suggested"
	FilterAccepted  MatchFilter = "accepted"
	FilterRejected  MatchFilter = "rejected"
	FilterManual    MatchFilter = "manual"
)

// ParseMatchFilter maps a user-supplied status string to a filter. The
// empty string means all.
func ParseMatchFilter(s string) (MatchFilter, error) {
	switch f := MatchFilter(s); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterSuggested, FilterAccepted, FilterRejected, FilterManual:
		return f, nil
	default:
		return "", eris.Wrapf(ErrValidation, "unknown match filter %q", s)
	}
}
