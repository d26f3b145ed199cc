// Package replay re-runs recorded or hand-written answer pairs through the
// engine to catch nondeterminism and drift.
package replay

import (
	"fmt"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
)

// Case actions.
const (
	ActionMatch            = "match"
	ActionMismatch         = "mismatch"
	ActionNondeterministic = "nondeterministic"
	ActionError            = "error"
)

// #region types
// Expectation lists the outputs a case must reproduce. Nil fields are not
// checked.
type Expectation struct {
	TypeCode   string `json:"type_code"`
	Synchrony  *int   `json:"synchrony,omitempty"`
	Divergence *int   `json:"divergence,omitempty"`
	Overridden *bool  `json:"overridden,omitempty"`
}

// Case is one answer pair with its expected outputs.
type Case struct {
	Name     string
	Input    engine.Input
	Expected Expectation
}

// CaseResult captures the outcome of replaying one case.
type CaseResult struct {
	Name   string
	Action string // "match" | "mismatch" | "nondeterministic" | "error"
	Reason string
	Result engine.Result
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Total            int
	Matches          int
	Mismatches       int
	Nondeterministic int
	Errors           int
}

// OK reports whether every case matched.
func (s Summary) OK() bool { return s.Matches == s.Total }

// #endregion types

// #region replay
// Replay diagnoses every case twice. Differing runs are nondeterministic;
// otherwise the result is checked against the expectation.
func Replay(eng *engine.Engine, cases []Case) []CaseResult {
	results := make([]CaseResult, 0, len(cases))
	for _, c := range cases {
		first, err := eng.Diagnose(c.Input)
		if err != nil {
			results = append(results, CaseResult{Name: c.Name, Action: ActionError, Reason: err.Error()})
			continue
		}
		second, err := eng.Diagnose(c.Input)
		if err != nil {
			results = append(results, CaseResult{Name: c.Name, Action: ActionError, Reason: err.Error()})
			continue
		}
		if diff := cmp.Diff(first, second); diff != "" {
			results = append(results, CaseResult{
				Name:   c.Name,
				Action: ActionNondeterministic,
				Reason: "repeated diagnosis differs (-first +second):\n" + diff,
				Result: first,
			})
			continue
		}

		r := CaseResult{Name: c.Name, Action: ActionMatch, Result: first}
		if reason := c.Expected.check(first); reason != "" {
			r.Action = ActionMismatch
			r.Reason = reason
		}
		results = append(results, r)
	}
	return results
}

// Summarize computes aggregate stats from replay results.
func Summarize(results []CaseResult) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch r.Action {
		case ActionMatch:
			s.Matches++
		case ActionMismatch:
			s.Mismatches++
		case ActionNondeterministic:
			s.Nondeterministic++
		case ActionError:
			s.Errors++
		}
	}
	return s
}

// #endregion replay

// #region helpers
func (e Expectation) check(res engine.Result) string {
	if e.TypeCode != "" && string(res.TypeCode) != e.TypeCode {
		return fmt.Sprintf("type code %s, expected %s", res.TypeCode, e.TypeCode)
	}
	if e.Synchrony != nil && res.SynchronyPercent != *e.Synchrony {
		return fmt.Sprintf("synchrony %d, expected %d", res.SynchronyPercent, *e.Synchrony)
	}
	if e.Divergence != nil && res.OverallDivergencePercent != *e.Divergence {
		return fmt.Sprintf("divergence %d, expected %d", res.OverallDivergencePercent, *e.Divergence)
	}
	if e.Overridden != nil && res.Overridden != *e.Overridden {
		return fmt.Sprintf("overridden %t, expected %t", res.Overridden, *e.Overridden)
	}
	return ""
}

// #endregion helpers
