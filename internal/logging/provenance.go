package logging

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/catalog"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
)

// #region log-diagnosis
// LogDiagnosis writes an entry to the diagnosis_log table.
func LogDiagnosis(db *sql.DB, entry DiagnosisEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO diagnosis_log (session_id, type_code, exact_match, overridden, incomplete, decision, reason, record_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullIfEmpty(entry.SessionID),
		entry.TypeCode,
		boolInt(entry.ExactMatch),
		boolInt(entry.Overridden),
		boolInt(entry.Incomplete),
		entry.Decision,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.RecordJSON),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log diagnosis: %w", err)
	}
	return nil
}

// EntryFor builds the log entry for a computed result. Results resolved by
// the nearest-match fallback are logged with DecisionFallback.
func EntryFor(sessionID string, in engine.Input, res engine.Result) (DiagnosisEntry, error) {
	data, err := json.Marshal(NewRecord(in, res))
	if err != nil {
		return DiagnosisEntry{}, fmt.Errorf("marshal record: %w", err)
	}
	decision := DecisionComplete
	if !res.ExactMatch {
		decision = DecisionFallback
	}
	return DiagnosisEntry{
		SessionID:  sessionID,
		TypeCode:   string(res.TypeCode),
		ExactMatch: res.ExactMatch,
		Overridden: res.Overridden,
		Incomplete: res.Incomplete,
		Decision:   decision,
		Reason:     res.OverrideReason,
		RecordJSON: string(data),
	}, nil
}

// LookupEntry builds the log entry for a catalog lookup that fell back to the
// nearest record. Lookups carry no diagnosis record.
func LookupEntry(query axis.Code, res catalog.Resolution) DiagnosisEntry {
	return DiagnosisEntry{
		TypeCode:   string(res.Record.Code),
		ExactMatch: res.Exact,
		Decision:   DecisionFallback,
		Reason: fmt.Sprintf("lookup %q resolved to nearest %s (%d positions)",
			string(query), res.Record.Code, res.Matches),
	}
}

// #endregion log-diagnosis

// #region list
// ListDiagnoses returns logged entries in insertion order. An empty decision
// matches every entry.
func ListDiagnoses(db *sql.DB, decision string, limit int) ([]DiagnosisEntry, error) {
	query := `SELECT id, session_id, type_code, exact_match, overridden, incomplete, decision, reason, record_json, created_at
		FROM diagnosis_log`
	args := []any{}
	if decision != "" {
		query += ` WHERE decision = ?`
		args = append(args, decision)
	}
	query += ` ORDER BY id ASC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	defer rows.Close()

	var out []DiagnosisEntry
	for rows.Next() {
		var e DiagnosisEntry
		var sessionID, reason, record sql.NullString
		var exact, overridden, incomplete int
		var createdAt string
		if err := rows.Scan(&e.ID, &sessionID, &e.TypeCode, &exact, &overridden, &incomplete,
			&e.Decision, &reason, &record, &createdAt); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.SessionID = sessionID.String
		e.Reason = reason.String
		e.RecordJSON = record.String
		e.ExactMatch = exact == 1
		e.Overridden = overridden == 1
		e.Incomplete = incomplete == 1
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// DecodeRecord parses an entry's record_json.
func DecodeRecord(e DiagnosisEntry) (DiagnosisRecord, error) {
	var rec DiagnosisRecord
	if e.RecordJSON == "" {
		return rec, fmt.Errorf("decode record %d: empty record_json", e.ID)
	}
	if err := json.Unmarshal([]byte(e.RecordJSON), &rec); err != nil {
		return rec, fmt.Errorf("decode record %d: %w", e.ID, err)
	}
	return rec, nil
}

// #endregion list

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
