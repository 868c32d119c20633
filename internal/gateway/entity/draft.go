package entity

import "time"

// State is the position of a user's report session in the conversation FSM.
type State int

const (
	StateIdle State = iota
	StateAwaitingDescription
	StateAwaitingEvidenceDecision
	StateAwaitingEvidence
	StateAwaitingConfirmation
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingDescription:
		return "awaiting_description"
	case StateAwaitingEvidenceDecision:
		return "awaiting_evidence_decision"
	case StateAwaitingEvidence:
		return "awaiting_evidence"
	case StateAwaitingConfirmation:
		return "awaiting_confirmation"
	default:
		return "unknown"
	}
}

// ExpectsFreeText reports whether the state collects user-authored text
// that must not be confused with a command.
func (s State) ExpectsFreeText() bool {
	return s == StateAwaitingDescription || s == StateAwaitingEvidence
}

type EvidenceKind int

const (
	EvidenceText EvidenceKind = iota
	EvidencePhoto
)

// Evidence is one item attached to a draft. Photo items carry an opaque
// transport handle; Known is set when the photo already has a durable URL
// in URL and does not need to be uploaded again.
type Evidence struct {
	Kind   EvidenceKind
	Text   string
	Handle string
	Known  bool
	URL    string
}

func TextEvidence(text string) Evidence {
	return Evidence{Kind: EvidenceText, Text: text}
}

func PhotoEvidence(handle string) Evidence {
	return Evidence{Kind: EvidencePhoto, Handle: handle}
}

func (e Evidence) IsPhoto() bool { return e.Kind == EvidencePhoto }

// Draft is the in-progress report of one user. A draft exists only while the
// user has an active report session.
type Draft struct {
	UserID      UserID
	ChatID      string
	State       State
	Description string
	Evidence    []Evidence
	UpdatedAt   time.Time
}

func NewDraft(userID UserID, chatID string, now time.Time) Draft {
	return Draft{
		UserID:    userID,
		ChatID:    chatID,
		State:     StateAwaitingDescription,
		UpdatedAt: now,
	}
}

// Clone returns a copy whose evidence slice does not alias d's.
func (d Draft) Clone() Draft {
	out := d
	if d.Evidence != nil {
		out.Evidence = append([]Evidence(nil), d.Evidence...)
	}
	return out
}

func (d Draft) PhotoCount() int {
	n := 0
	for _, e := range d.Evidence {
		if e.IsPhoto() {
			n++
		}
	}
	return n
}
