package replay

import (
	"testing"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/config"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
)

func defaultEngine(t *testing.T) *engine.Engine {
	t.Helper()
	eng, err := config.LoadEngine("")
	if err != nil {
		t.Fatalf("LoadEngine: %v", err)
	}
	return eng
}

func fill(eng *engine.Engine, v int) scoring.AnswerSet {
	out := scoring.AnswerSet{}
	for _, q := range eng.Bank().Questions() {
		out[q.ID] = v
	}
	return out
}

func intp(v int) *int { return &v }

func TestReplay_Match(t *testing.T) {
	eng := defaultEngine(t)
	results := Replay(eng, []Case{{
		Name:     "agree",
		Input:    engine.Input{AnswersA: fill(eng, 5), AnswersB: fill(eng, 5)},
		Expected: Expectation{TypeCode: "EBSC", Synchrony: intp(100)},
	}})
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Action != ActionMatch {
		t.Fatalf("expected match, got %s (%s)", results[0].Action, results[0].Reason)
	}
}

func TestReplay_Mismatch(t *testing.T) {
	eng := defaultEngine(t)
	results := Replay(eng, []Case{{
		Name:     "wrong-sync",
		Input:    engine.Input{AnswersA: fill(eng, 5), AnswersB: fill(eng, 5)},
		Expected: Expectation{TypeCode: "EBSC", Synchrony: intp(50)},
	}, {
		Name:     "wrong-code",
		Input:    engine.Input{AnswersA: fill(eng, 5), AnswersB: fill(eng, 5)},
		Expected: Expectation{TypeCode: "HIAD"},
	}})
	for _, r := range results {
		if r.Action != ActionMismatch {
			t.Errorf("%s: expected mismatch, got %s", r.Name, r.Action)
		}
		if r.Reason == "" {
			t.Errorf("%s: expected a reason", r.Name)
		}
	}
}

func TestReplay_Error(t *testing.T) {
	eng := defaultEngine(t)
	results := Replay(eng, []Case{{
		Name:  "bad-answer",
		Input: engine.Input{AnswersA: scoring.AnswerSet{1: 9}, AnswersB: fill(eng, 3)},
	}})
	if results[0].Action != ActionError {
		t.Fatalf("expected error action, got %s", results[0].Action)
	}
}

func TestReplay_Summarize(t *testing.T) {
	s := Summarize([]CaseResult{
		{Action: ActionMatch},
		{Action: ActionMatch},
		{Action: ActionMismatch},
		{Action: ActionNondeterministic},
		{Action: ActionError},
	})
	if s.Total != 5 || s.Matches != 2 || s.Mismatches != 1 || s.Nondeterministic != 1 || s.Errors != 1 {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.OK() {
		t.Fatal("summary with failures should not be OK")
	}
	if !Summarize(nil).OK() {
		t.Fatal("empty summary should be OK")
	}
}

func TestReplay_Deterministic(t *testing.T) {
	eng := defaultEngine(t)
	cases := []Case{{
		Name:  "mixed",
		Input: engine.Input{AnswersA: fill(eng, 4), AnswersB: fill(eng, 2), Relationship: "family"},
	}}
	a := Replay(eng, cases)
	b := Replay(eng, cases)
	if a[0].Action != ActionMatch || b[0].Action != ActionMatch {
		t.Fatalf("expected match, got %s / %s", a[0].Action, b[0].Action)
	}
	if a[0].Result.TypeCode != b[0].Result.TypeCode || a[0].Result.SynchronyPercent != b[0].Result.SynchronyPercent {
		t.Fatal("replay results differ between runs")
	}
}
