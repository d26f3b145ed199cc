package pairing

import (
	"errors"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/catalog"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

var (
	ErrPending      = errors.New("waiting for both submissions")
	ErrNoAnswers    = errors.New("no answers submitted")
	ErrBankMismatch = errors.New("session was created for a different question bank")
)

// #region submission
// Submission is one respondent's answers as received from a caller.
type Submission struct {
	Name    string            `json:"name,omitempty"`
	Answers scoring.AnswerSet `json:"answers"`
	Profile engine.Profile    `json:"profile"`
}

// #endregion submission

// #region lookup
// Lookup is a catalog resolution for a queried code. Valid reports whether the
// code is well formed for the engine's axis set.
type Lookup struct {
	catalog.Resolution
	Valid bool `json:"valid"`
}

// #endregion lookup

// #region status
// Status is the state of a session after an operation. Result is set once
// the session has been diagnosed.
type Status struct {
	SessionID    string         `json:"session_id"`
	Relationship string         `json:"relationship,omitempty"`
	HostName     string         `json:"host_name"`
	GuestName    string         `json:"guest_name,omitempty"`
	HostReady    bool           `json:"host_ready"`
	GuestReady   bool           `json:"guest_ready"`
	Completed    bool           `json:"completed"`
	Result       *engine.Result `json:"result,omitempty"`
}

func statusOf(sess session.Session) Status {
	return Status{
		SessionID:    sess.ID,
		Relationship: sess.Relationship,
		HostName:     sess.Host.Name,
		GuestName:    sess.Guest.Name,
		HostReady:    sess.Host.Submitted(),
		GuestReady:   sess.Guest.Submitted(),
		Completed:    sess.Completed,
	}
}

// #endregion status
