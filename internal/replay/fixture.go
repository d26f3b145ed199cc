package replay

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/bank"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/logging"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a replay fixture.
type Fixture struct {
	Description  string        `json:"description"`
	BankVersion  string        `json:"bank_version,omitempty"`
	Relationship string        `json:"relationship,omitempty"`
	Cases        []FixtureCase `json:"cases"`
}

// FixtureCase is one answer pair. FillA/FillB, when non-zero, answer every
// bank question with that raw value before AnswersA/AnswersB are applied.
type FixtureCase struct {
	Name         string            `json:"name"`
	Relationship string            `json:"relationship,omitempty"`
	FillA        int               `json:"fill_a,omitempty"`
	FillB        int               `json:"fill_b,omitempty"`
	AnswersA     scoring.AnswerSet `json:"answers_a,omitempty"`
	AnswersB     scoring.AnswerSet `json:"answers_b,omitempty"`
	ProfileA     engine.Profile    `json:"profile_a"`
	ProfileB     engine.Profile    `json:"profile_b"`
	Expected     Expectation       `json:"expected"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return &f, nil
}

// WriteFixture writes f as indented JSON.
func WriteFixture(path string, f *Fixture) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fixture: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

// ToCases expands the fixture against b. A fixture pinned to another bank
// version is rejected.
func (f *Fixture) ToCases(b *bank.Bank) ([]Case, error) {
	if f.BankVersion != "" && f.BankVersion != b.Version() {
		return nil, fmt.Errorf("fixture bank %q does not match engine bank %q", f.BankVersion, b.Version())
	}
	cases := make([]Case, len(f.Cases))
	for i, fc := range f.Cases {
		rel := fc.Relationship
		if rel == "" {
			rel = f.Relationship
		}
		cases[i] = Case{
			Name: fc.Name,
			Input: engine.Input{
				AnswersA:     expand(b, fc.FillA, fc.AnswersA),
				AnswersB:     expand(b, fc.FillB, fc.AnswersB),
				LabelA:       "A",
				LabelB:       "B",
				ProfileA:     fc.ProfileA,
				ProfileB:     fc.ProfileB,
				Relationship: rel,
			},
			Expected: fc.Expected,
		}
	}
	return cases, nil
}

func expand(b *bank.Bank, fill int, answers scoring.AnswerSet) scoring.AnswerSet {
	out := scoring.AnswerSet{}
	if fill != 0 {
		for _, q := range b.Questions() {
			out[q.ID] = fill
		}
	}
	for id, v := range answers {
		out[id] = v
	}
	return out
}

// #endregion fixture-loader

// #region fixture-export

// ExportFixture builds a fixture from logged diagnoses. Each case expects the
// outputs recorded at decision time, so replaying it detects drift.
func ExportFixture(db *sql.DB, description string, limit int) (*Fixture, error) {
	entries, err := logging.ListDiagnoses(db, "", limit)
	if err != nil {
		return nil, err
	}
	f := &Fixture{Description: description}
	for _, e := range entries {
		if e.Decision != logging.DecisionComplete && e.Decision != logging.DecisionFallback {
			continue
		}
		// Catalog lookups are logged without a record.
		if e.RecordJSON == "" {
			continue
		}
		rec, err := logging.DecodeRecord(e)
		if err != nil {
			return nil, err
		}
		if f.BankVersion == "" {
			f.BankVersion = rec.BankVersion
		} else if f.BankVersion != rec.BankVersion {
			continue
		}
		sync, div, overridden := rec.SynchronyPercent, rec.OverallDivergencePercent, rec.Overridden
		name := e.SessionID
		if name == "" {
			name = fmt.Sprintf("log-%d", e.ID)
		}
		f.Cases = append(f.Cases, FixtureCase{
			Name:         name,
			Relationship: rec.Input.Relationship,
			AnswersA:     rec.Input.AnswersA,
			AnswersB:     rec.Input.AnswersB,
			ProfileA:     rec.Input.ProfileA,
			ProfileB:     rec.Input.ProfileB,
			Expected: Expectation{
				TypeCode:   rec.TypeCode,
				Synchrony:  &sync,
				Divergence: &div,
				Overridden: &overridden,
			},
		})
	}
	return f, nil
}

// #endregion fixture-export
