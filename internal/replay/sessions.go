package replay

import (
	"database/sql"
	"fmt"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/logging"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/metrics"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/pairing"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/session"
)

// Session actions.
const (
	SessionMatch   = "match"
	SessionDrift   = "drift"
	SessionSkipped = "skipped"
	SessionError   = "error"
)

// #region session-types
// SessionResult is the outcome of re-diagnosing one stored session.
type SessionResult struct {
	SessionID  string
	Action     string // "match" | "drift" | "skipped" | "error"
	Reason     string
	StoredCode string
	StoredSync int
	Input      engine.Input
	Result     engine.Result
}

// #endregion session-types

// #region replay-sessions
// ReplaySessions re-diagnoses completed sessions and compares the type code
// and synchrony with what was stored. Sessions recorded under another bank
// version are skipped since their stored scores are not comparable.
func ReplaySessions(store *session.Store, eng *engine.Engine, limit int) ([]SessionResult, error) {
	sessions, err := store.ListSessions(limit, true)
	if err != nil {
		return nil, err
	}
	version := eng.Bank().Version()
	out := make([]SessionResult, 0, len(sessions))
	for _, sess := range sessions {
		r := SessionResult{
			SessionID:  sess.ID,
			StoredCode: sess.TypeCode,
			StoredSync: sess.SyncRate,
		}
		if sess.BankVersion != version {
			r.Action = SessionSkipped
			r.Reason = fmt.Sprintf("bank %s, engine has %s", sess.BankVersion, version)
			out = append(out, r)
			continue
		}
		in, err := pairing.InputFor(sess)
		if err != nil {
			r.Action, r.Reason = SessionError, err.Error()
			out = append(out, r)
			continue
		}
		r.Input = in
		res, err := eng.Diagnose(in)
		if err != nil {
			r.Action, r.Reason = SessionError, err.Error()
			out = append(out, r)
			continue
		}
		r.Result = res
		switch {
		case string(res.TypeCode) != sess.TypeCode:
			r.Action = SessionDrift
			r.Reason = fmt.Sprintf("type code %s, stored %s", res.TypeCode, sess.TypeCode)
		case res.SynchronyPercent != sess.SyncRate:
			r.Action = SessionDrift
			r.Reason = fmt.Sprintf("synchrony %d, stored %d", res.SynchronyPercent, sess.SyncRate)
		default:
			r.Action = SessionMatch
		}
		out = append(out, r)
	}
	return out, nil
}

// RecordSessions writes a diagnosis_log entry for every matched or drifted
// session and counts drift.
func RecordSessions(db *sql.DB, results []SessionResult, m *metrics.Collectors) error {
	for _, r := range results {
		var decision string
		switch r.Action {
		case SessionMatch:
			decision = logging.DecisionMatch
		case SessionDrift:
			decision = logging.DecisionDrift
			m.IncDrift()
		default:
			continue
		}
		entry, err := logging.EntryFor(r.SessionID, r.Input, r.Result)
		if err != nil {
			return err
		}
		entry.Decision = decision
		entry.Reason = r.Reason
		if err := logging.LogDiagnosis(db, entry); err != nil {
			return err
		}
	}
	return nil
}

// #endregion replay-sessions
