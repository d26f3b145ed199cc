package session

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS pair_sessions (
	session_id     TEXT PRIMARY KEY,
	relationship   TEXT NOT NULL DEFAULT '',
	bank_version   TEXT NOT NULL,
	host_name      TEXT NOT NULL,
	host_answers   TEXT,
	host_profile   TEXT,
	host_at        TEXT,
	guest_name     TEXT,
	guest_answers  TEXT,
	guest_profile  TEXT,
	guest_at       TEXT,
	completed      INTEGER NOT NULL DEFAULT 0,
	type_code      TEXT,
	sync_rate      INTEGER,
	result_json    TEXT,
	created_at     TEXT NOT NULL,
	completed_at   TEXT
);

CREATE INDEX IF NOT EXISTS idx_pair_sessions_created ON pair_sessions(created_at);

CREATE TABLE IF NOT EXISTS diagnosis_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT,
	type_code     TEXT NOT NULL,
	exact_match   INTEGER NOT NULL DEFAULT 1,
	overridden    INTEGER NOT NULL DEFAULT 0,
	incomplete    INTEGER NOT NULL DEFAULT 0,
	decision      TEXT NOT NULL,
	reason        TEXT,
	record_json   TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_diagnosis_log_session ON diagnosis_log(session_id);
`

const columns = `session_id, relationship, bank_version,
	host_name, host_answers, host_profile, host_at,
	guest_name, guest_answers, guest_profile, guest_at,
	completed, type_code, sync_rate, result_json, created_at, completed_at`

// Fixed-width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion schema

// #region store-struct
// Store persists pair sessions in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		return nil, fmt.Errorf("pragma busy: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region create
// CreateSession starts a session for the host.
func (s *Store) CreateSession(hostName, relationship, bankVersion string) (Session, error) {
	sess := Session{
		ID:           uuid.New().String(),
		Relationship: relationship,
		BankVersion:  bankVersion,
		Host:         Submission{Name: hostName},
		CreatedAt:    time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO pair_sessions (session_id, relationship, bank_version, host_name, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.ID, relationship, bankVersion, hostName, sess.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Session{}, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// #endregion create

// #region submit
// Submit stores one side's answers. Resubmission before completion replaces
// the earlier answers; after completion it fails with ErrCompleted.
func (s *Store) Submit(id string, role Role, sub Submission) (Session, error) {
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = time.Now().UTC()
	}
	var query string
	switch role {
	case RoleHost:
		query = `UPDATE pair_sessions
			SET host_name = COALESCE(NULLIF(?, ''), host_name), host_answers = ?, host_profile = ?, host_at = ?
			WHERE session_id = ? AND completed = 0`
	case RoleGuest:
		query = `UPDATE pair_sessions
			SET guest_name = COALESCE(NULLIF(?, ''), guest_name), guest_answers = ?, guest_profile = ?, guest_at = ?
			WHERE session_id = ? AND completed = 0`
	default:
		return Session{}, fmt.Errorf("submit: unknown role %q", role)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return Session{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(query, sub.Name, sub.AnswersJSON, nullIfEmpty(sub.ProfileJSON),
		sub.SubmittedAt.Format(timeLayout), id)
	if err != nil {
		return Session{}, fmt.Errorf("submit %s: %w", role, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return Session{}, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		sess, err := getSession(tx, id)
		if err != nil {
			return Session{}, err
		}
		if sess.Completed {
			return Session{}, fmt.Errorf("submit %s to %s: %w", role, id, ErrCompleted)
		}
		return Session{}, fmt.Errorf("submit %s to %s: no rows updated", role, id)
	}

	sess, err := getSession(tx, id)
	if err != nil {
		return Session{}, err
	}
	if err := tx.Commit(); err != nil {
		return Session{}, fmt.Errorf("commit: %w", err)
	}
	return sess, nil
}

// SubmitHost stores the host's answers.
func (s *Store) SubmitHost(id string, sub Submission) (Session, error) {
	return s.Submit(id, RoleHost, sub)
}

// SubmitGuest stores the guest's answers.
func (s *Store) SubmitGuest(id string, sub Submission) (Session, error) {
	return s.Submit(id, RoleGuest, sub)
}

// #endregion submit

// #region complete
// CompleteSession records the diagnosis once. It reports false when another
// caller already completed the session, leaving the stored outcome intact.
func (s *Store) CompleteSession(id string, out Outcome) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE pair_sessions
		 SET completed = 1, type_code = ?, sync_rate = ?, result_json = ?, completed_at = ?
		 WHERE session_id = ? AND completed = 0
		   AND host_answers IS NOT NULL AND guest_answers IS NOT NULL`,
		out.TypeCode, out.SyncRate, out.ResultJSON, time.Now().UTC().Format(timeLayout), id,
	)
	if err != nil {
		return false, fmt.Errorf("complete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 1 {
		return true, nil
	}
	sess, err := s.GetSession(id)
	if err != nil {
		return false, err
	}
	if !sess.Ready() {
		return false, fmt.Errorf("complete session %s: both submissions required", id)
	}
	return false, nil
}

// #endregion complete

// #region get
// GetSession retrieves a session by ID.
func (s *Store) GetSession(id string) (Session, error) {
	return getSession(s.db, id)
}

// ListSessions returns the most recent sessions. completedOnly restricts the
// list to sessions with a stored result.
func (s *Store) ListSessions(limit int, completedOnly bool) ([]Session, error) {
	query := `SELECT ` + columns + ` FROM pair_sessions`
	if completedOnly {
		query += ` WHERE completed = 1`
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// #endregion get

// #region scan
type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

func getSession(q queryRower, id string) (Session, error) {
	row := q.QueryRow(`SELECT `+columns+` FROM pair_sessions WHERE session_id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("get session %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session %s: %w", id, err)
	}
	return sess, nil
}

func scanSession(row scanner) (Session, error) {
	var sess Session
	var hostAnswers, hostProfile, hostAt sql.NullString
	var guestName, guestAnswers, guestProfile, guestAt sql.NullString
	var typeCode, resultJSON, completedAt sql.NullString
	var syncRate sql.NullInt64
	var completed int
	var createdAt string

	err := row.Scan(&sess.ID, &sess.Relationship, &sess.BankVersion,
		&sess.Host.Name, &hostAnswers, &hostProfile, &hostAt,
		&guestName, &guestAnswers, &guestProfile, &guestAt,
		&completed, &typeCode, &syncRate, &resultJSON, &createdAt, &completedAt)
	if err != nil {
		return Session{}, err
	}

	sess.Host.AnswersJSON = hostAnswers.String
	sess.Host.ProfileJSON = hostProfile.String
	sess.Host.SubmittedAt = parseTime(hostAt)
	sess.Guest.Name = guestName.String
	sess.Guest.AnswersJSON = guestAnswers.String
	sess.Guest.ProfileJSON = guestProfile.String
	sess.Guest.SubmittedAt = parseTime(guestAt)
	sess.Completed = completed == 1
	sess.TypeCode = typeCode.String
	sess.SyncRate = int(syncRate.Int64)
	sess.ResultJSON = resultJSON.String
	sess.CreatedAt, _ = time.Parse(timeLayout, createdAt)
	sess.CompletedAt = parseTime(completedAt)
	return sess, nil
}

// #endregion scan

// #region helpers
func parseTime(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, _ := time.Parse(timeLayout, s.String)
	return t
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
