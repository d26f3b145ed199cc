package logging

import (
	"database/sql"
	"testing"
	"time"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
	_ "modernc.org/sqlite"
)

// #region helpers
func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	_, err = db.Exec(`CREATE TABLE diagnosis_log (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT,
		type_code   TEXT NOT NULL,
		exact_match INTEGER NOT NULL DEFAULT 1,
		overridden  INTEGER NOT NULL DEFAULT 0,
		incomplete  INTEGER NOT NULL DEFAULT 0,
		decision    TEXT NOT NULL,
		reason      TEXT,
		record_json TEXT,
		created_at  TEXT NOT NULL
	)`)
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	return db
}

// #endregion helpers

// #region log-diagnosis-tests
func TestLogDiagnosis_Success(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	entry := DiagnosisEntry{
		SessionID:  "s1",
		TypeCode:   "EBSD",
		ExactMatch: true,
		Overridden: true,
		Decision:   DecisionComplete,
		Reason:     "overall divergence 75% > 45%",
		RecordJSON: `{"type_code":"EBSD"}`,
		CreatedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	if err := LogDiagnosis(db, entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM diagnosis_log").Scan(&count)
	if count != 1 {
		t.Errorf("expected 1 row, got %d", count)
	}

	var sessionID, typeCode string
	var overridden int
	db.QueryRow("SELECT session_id, type_code, overridden FROM diagnosis_log").Scan(&sessionID, &typeCode, &overridden)
	if sessionID != "s1" {
		t.Errorf("expected session_id 's1', got %q", sessionID)
	}
	if typeCode != "EBSD" {
		t.Errorf("expected type_code 'EBSD', got %q", typeCode)
	}
	if overridden != 1 {
		t.Errorf("expected overridden 1, got %d", overridden)
	}
}

func TestLogDiagnosis_ZeroCreatedAt(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	before := time.Now().UTC()
	if err := LogDiagnosis(db, DiagnosisEntry{TypeCode: "HIAD", Decision: DecisionComplete}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var createdAtStr string
	db.QueryRow("SELECT created_at FROM diagnosis_log").Scan(&createdAtStr)
	createdAt, err := time.Parse(time.RFC3339Nano, createdAtStr)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	if createdAt.Before(before) {
		t.Error("expected auto-filled created_at to be >= test start time")
	}
}

func TestLogDiagnosis_EmptyOptionalFields(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	if err := LogDiagnosis(db, DiagnosisEntry{TypeCode: "EBSC", Decision: DecisionComplete}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sessionID, reason, record sql.NullString
	db.QueryRow("SELECT session_id, reason, record_json FROM diagnosis_log").Scan(&sessionID, &reason, &record)
	if sessionID.Valid || reason.Valid || record.Valid {
		t.Error("expected NULL for empty optional fields")
	}
}

func TestLogDiagnosis_ClosedDB(t *testing.T) {
	db := setupDB(t)
	db.Close()

	if err := LogDiagnosis(db, DiagnosisEntry{TypeCode: "EBSC", Decision: DecisionComplete}); err == nil {
		t.Fatal("expected error on closed db")
	}
}

// #endregion log-diagnosis-tests

// #region entry-tests
func TestEntryFor_FallbackDecision(t *testing.T) {
	in := engine.Input{
		AnswersA: scoring.AnswerSet{1: 5},
		AnswersB: scoring.AnswerSet{1: 1},
		LabelA:   "a",
		LabelB:   "b",
	}
	res := engine.Result{TypeCode: "EBSC", ExactMatch: false, SynchronyPercent: 42, BankVersion: "v1"}

	entry, err := EntryFor("s9", in, res)
	if err != nil {
		t.Fatalf("EntryFor: %v", err)
	}
	if entry.Decision != DecisionFallback {
		t.Errorf("expected fallback decision, got %q", entry.Decision)
	}

	rec, err := DecodeRecord(entry)
	if err != nil {
		t.Fatalf("DecodeRecord: %v", err)
	}
	if rec.SynchronyPercent != 42 || rec.BankVersion != "v1" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Input.AnswersA[1] != 5 || rec.Input.AnswersB[1] != 1 {
		t.Errorf("answers not preserved: %+v", rec.Input)
	}
}

func TestDecodeRecord_Empty(t *testing.T) {
	if _, err := DecodeRecord(DiagnosisEntry{ID: 3}); err == nil {
		t.Fatal("expected error for empty record_json")
	}
}

// #endregion entry-tests

// #region list-tests
func TestListDiagnoses_FilterAndOrder(t *testing.T) {
	db := setupDB(t)
	defer db.Close()

	for _, e := range []DiagnosisEntry{
		{TypeCode: "EBSC", Decision: DecisionComplete},
		{TypeCode: "HIAD", Decision: DecisionFallback, ExactMatch: false},
		{TypeCode: "EBSD", Decision: DecisionComplete, Overridden: true},
	} {
		if err := LogDiagnosis(db, e); err != nil {
			t.Fatalf("LogDiagnosis: %v", err)
		}
	}

	all, err := ListDiagnoses(db, "", 10)
	if err != nil {
		t.Fatalf("ListDiagnoses: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	if all[0].TypeCode != "EBSC" || all[2].TypeCode != "EBSD" {
		t.Errorf("unexpected order: %s, %s", all[0].TypeCode, all[2].TypeCode)
	}
	if !all[2].Overridden {
		t.Error("expected overridden flag on third entry")
	}

	complete, err := ListDiagnoses(db, DecisionComplete, 10)
	if err != nil {
		t.Fatalf("ListDiagnoses: %v", err)
	}
	if len(complete) != 2 {
		t.Errorf("expected 2 complete entries, got %d", len(complete))
	}
}

// #endregion list-tests

// #region null-if-empty-tests
func TestNullIfEmpty_Empty(t *testing.T) {
	result := nullIfEmpty("")
	if result != nil {
		t.Errorf("expected nil for empty string, got %v", result)
	}
}

func TestNullIfEmpty_NonEmpty(t *testing.T) {
	result := nullIfEmpty("hello")
	if result != "hello" {
		t.Errorf("expected 'hello', got %v", result)
	}
}

// #endregion null-if-empty-tests
