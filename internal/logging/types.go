package logging

import (
	"time"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
)

// Decision values written to diagnosis_log.decision.
const (
	DecisionComplete = "complete"
	DecisionFallback = "fallback"
	DecisionMatch    = "replay_match"
	DecisionDrift    = "replay_drift"
)

// #region diagnosis-entry
// DiagnosisEntry is a single row in the diagnosis_log table.
type DiagnosisEntry struct {
	ID         int64
	SessionID  string
	TypeCode   string
	ExactMatch bool
	Overridden bool
	Incomplete bool
	Decision   string // "complete" | "fallback" | "replay_match" | "replay_drift"
	Reason     string
	RecordJSON string
	CreatedAt  time.Time
}

// #endregion diagnosis-entry

// #region diagnosis-record
// DiagnosisRecord captures the complete inputs of one diagnosis together with
// its headline outputs. Serialized as JSON into diagnosis_log.record_json for
// deterministic replay.
type DiagnosisRecord struct {
	BankVersion string       `json:"bank_version"`
	Input       engine.Input `json:"input"`

	// Outputs as computed at decision time
	TypeCode                 string `json:"type_code"`
	SynchronyPercent         int    `json:"synchrony_percent"`
	OverallDivergencePercent int    `json:"overall_divergence_percent"`
	Overridden               bool   `json:"overridden"`
}

// NewRecord builds the record for a computed result.
func NewRecord(in engine.Input, res engine.Result) DiagnosisRecord {
	return DiagnosisRecord{
		BankVersion:              res.BankVersion,
		Input:                    in,
		TypeCode:                 string(res.TypeCode),
		SynchronyPercent:         res.SynchronyPercent,
		OverallDivergencePercent: res.OverallDivergencePercent,
		Overridden:               res.Overridden,
	}
}

// #endregion diagnosis-record
