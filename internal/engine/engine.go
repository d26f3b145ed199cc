// Package engine runs the full diagnosis of a respondent pair. Every call is
// pure: no clocks, no randomness, no I/O.
package engine

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/bank"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/catalog"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/classify"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
)

// #region options
// Options are the validated building blocks of an Engine.
type Options struct {
	Axes       axis.Set
	Bank       *bank.Bank
	Scoring    scoring.Config
	Classifier classify.Config
	Catalog    []catalog.Record
}

// #endregion options

// #region engine
// Engine diagnoses respondent pairs.
type Engine struct {
	axes       axis.Set
	bank       *bank.Bank
	calc       *scoring.Calculator
	classifier *classify.Classifier
	resolver   *catalog.Resolver
}

// New builds an Engine. Configuration errors, including an incomplete
// catalog, are returned here rather than at diagnosis time.
func New(opts Options) (*Engine, error) {
	if opts.Bank == nil {
		return nil, fmt.Errorf("new engine: nil question bank")
	}
	calc, err := scoring.NewCalculator(opts.Bank, opts.Axes, opts.Scoring)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	cl, err := classify.NewClassifier(opts.Axes, opts.Classifier)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	res, err := catalog.NewResolver(opts.Axes, opts.Catalog)
	if err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return &Engine{
		axes:       opts.Axes,
		bank:       opts.Bank,
		calc:       calc,
		classifier: cl,
		resolver:   res,
	}, nil
}

// Axes returns the axis set.
func (e *Engine) Axes() axis.Set { return e.axes }

// Bank returns the question bank.
func (e *Engine) Bank() *bank.Bank { return e.bank }

// Resolver returns the category resolver.
func (e *Engine) Resolver() *catalog.Resolver { return e.resolver }

// Relationships lists the accepted relationship contexts.
func (e *Engine) Relationships() []string { return e.classifier.Relationships() }

// ValidateAnswers rejects unknown question ids and out-of-scale values.
func (e *Engine) ValidateAnswers(answers scoring.AnswerSet) error {
	return e.bank.Validate(answers)
}

// #endregion engine

// #region diagnose
// Diagnose scores both answer sets, classifies the pair and resolves its
// category.
func (e *Engine) Diagnose(in Input) (Result, error) {
	if err := e.bank.Validate(in.AnswersA); err != nil {
		return Result{}, fmt.Errorf("respondent A: %w", err)
	}
	if err := e.bank.Validate(in.AnswersB); err != nil {
		return Result{}, fmt.Errorf("respondent B: %w", err)
	}
	thresholds, err := e.classifier.Thresholds(in.Relationship, in.ProfileA.Age, in.ProfileB.Age)
	if err != nil {
		return Result{}, fmt.Errorf("thresholds: %w", err)
	}

	rawA, err := e.calc.Scores(in.AnswersA)
	if err != nil {
		return Result{}, fmt.Errorf("respondent A: %w", err)
	}
	rawB, err := e.calc.Scores(in.AnswersB)
	if err != nil {
		return Result{}, fmt.Errorf("respondent B: %w", err)
	}
	scoresA := e.calc.Adjust(rawA, in.ProfileA.MBTI)
	scoresB := e.calc.Adjust(rawB, in.ProfileB.MBTI)

	div, err := e.calc.Divergence(in.AnswersA, in.AnswersB)
	if err != nil {
		return Result{}, err
	}
	sharedA, sharedB, err := e.calc.SharedScores(in.AnswersA, in.AnswersB)
	if err != nil {
		return Result{}, err
	}
	synchrony := e.calc.Synchrony(div,
		e.calc.Adjust(sharedA, in.ProfileA.MBTI),
		e.calc.Adjust(sharedB, in.ProfileB.MBTI))

	pair, gap := e.calc.Pair(scoresA, scoresB)
	labels := e.classifier.Classify(pair, thresholds)
	decision, err := e.classifier.Generate(labels, div.Overall)
	if err != nil {
		return Result{}, err
	}
	resolution := e.resolver.Resolve(decision.Code)

	out := Result{
		TypeCode:                 decision.Code,
		Category:                 resolution.Record,
		ExactMatch:               resolution.Exact,
		SynchronyPercent:         synchrony,
		OverallDivergencePercent: roundPercent(div.Overall),
		Overridden:               decision.Overridden,
		MissingA:                 scoresA.Missing,
		MissingB:                 scoresB.Missing,
		Unshared:                 div.Unshared,
		Profile:                  e.calc.Profile(pair, gap, thresholds),
		Comparison:               e.compare(in.AnswersA, in.AnswersB),
		LabelA:                   in.LabelA,
		LabelB:                   in.LabelB,
		Relationship:             in.Relationship,
		BankVersion:              e.bank.Version(),
	}
	if decision.Overridden {
		out.OverrideReason = decision.Reason
	}
	for _, id := range e.axes.IDs() {
		if n := div.Shared[id]; n > 0 && n < len(e.bank.ByAxis(id)) {
			out.Partial = append(out.Partial, id)
		}
	}
	out.Incomplete = len(out.MissingA) > 0 || len(out.MissingB) > 0 ||
		len(out.Unshared) > 0 || len(out.Partial) > 0

	for i, a := range e.axes.Axes() {
		l := decision.Labels[i]
		out.Axes = append(out.Axes, AxisDetail{
			Axis:              a.ID,
			Name:              a.Name,
			ScoreA:            scoresA.Values[a.ID],
			ScoreB:            scoresB.Values[a.ID],
			PairScore:         pair[a.ID],
			Gap:               gap[a.ID],
			Threshold:         thresholds[a.ID],
			Polarity:          l.Polarity,
			Label:             l.Pole,
			DivergencePercent: roundPercent(div.ByAxis[a.ID]),
		})
	}
	return out, nil
}

// compare lists every bank question with both respondents' answers.
func (e *Engine) compare(a, b scoring.AnswerSet) []Comparison {
	qs := e.bank.Questions()
	out := make([]Comparison, 0, len(qs))
	for _, q := range qs {
		c := Comparison{QuestionID: q.ID, Code: q.Code, Axis: q.Axis}
		if v, ok := a[q.ID]; ok {
			c.RawA = &v
			c.NormA, _ = e.bank.Normalize(q.ID, v)
		}
		if v, ok := b[q.ID]; ok {
			c.RawB = &v
			c.NormB, _ = e.bank.Normalize(q.ID, v)
		}
		if c.RawA != nil && c.RawB != nil {
			c.Shared = true
			c.Gap = math.Abs(c.NormA - c.NormB)
		}
		out = append(out, c)
	}
	return out
}

// #endregion diagnose

func roundPercent(v float64) int {
	return int(math.Round(math.Max(0, math.Min(100, v))))
}
