package session

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("session not found")
	ErrCompleted = errors.New("session already completed")
)

// #region role
// Role identifies which side of the pair is submitting.
type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// #endregion role

// #region submission
// Submission is one respondent's stored answers. AnswersJSON and ProfileJSON
// are opaque to the store.
type Submission struct {
	Name        string
	AnswersJSON string
	ProfileJSON string
	SubmittedAt time.Time
}

// Submitted reports whether answers have been stored.
func (s Submission) Submitted() bool { return s.AnswersJSON != "" }

// #endregion submission

// #region session
// Session is one two-party diagnosis, coordinated by its ID.
type Session struct {
	ID           string
	Relationship string
	BankVersion  string
	Host         Submission
	Guest        Submission
	Completed    bool
	TypeCode     string
	SyncRate     int
	ResultJSON   string
	CreatedAt    time.Time
	CompletedAt  time.Time
}

// Ready reports whether both sides have submitted.
func (s Session) Ready() bool { return s.Host.Submitted() && s.Guest.Submitted() }

// Outcome is what CompleteSession records.
type Outcome struct {
	TypeCode   string
	SyncRate   int
	ResultJSON string
}

// #endregion session
