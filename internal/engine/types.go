package engine

import (
	"slices"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/catalog"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
)

// #region input
// Profile carries optional respondent attributes. Zero values disable the
// corresponding adjustment.
type Profile struct {
	MBTI string `json:"mbti,omitempty"`
	Age  int    `json:"age,omitempty"`
}

// Input is one completed pair.
type Input struct {
	AnswersA     scoring.AnswerSet `json:"answers_a"`
	AnswersB     scoring.AnswerSet `json:"answers_b"`
	LabelA       string            `json:"label_a"`
	LabelB       string            `json:"label_b"`
	ProfileA     Profile           `json:"profile_a"`
	ProfileB     Profile           `json:"profile_b"`
	Relationship string            `json:"relationship,omitempty"`
}

// #endregion input

// #region result
// AxisDetail is the per-axis breakdown of a diagnosis.
type AxisDetail struct {
	Axis              axis.ID       `json:"axis"`
	Name              string        `json:"name"`
	ScoreA            float64       `json:"score_a"`
	ScoreB            float64       `json:"score_b"`
	PairScore         float64       `json:"pair_score"`
	Gap               float64       `json:"gap"`
	Threshold         float64       `json:"threshold"`
	Polarity          axis.Polarity `json:"polarity"`
	Label             axis.Pole     `json:"label"`
	DivergencePercent int           `json:"divergence_percent"`
}

// Comparison is one question as answered by both respondents.
type Comparison struct {
	QuestionID int     `json:"question_id"`
	Code       string  `json:"code"`
	Axis       axis.ID `json:"axis"`
	RawA       *int    `json:"raw_a,omitempty"`
	RawB       *int    `json:"raw_b,omitempty"`
	NormA      float64 `json:"norm_a"`
	NormB      float64 `json:"norm_b"`
	Gap        float64 `json:"gap"`
	Shared     bool    `json:"shared"`
}

// Result is the diagnosis of one pair. It contains no timestamps or other
// run-dependent data, so equal inputs produce byte-identical JSON.
type Result struct {
	TypeCode                 axis.Code       `json:"type_code"`
	Category                 catalog.Record  `json:"category"`
	ExactMatch               bool            `json:"exact_match"`
	SynchronyPercent         int             `json:"synchrony_percent"`
	OverallDivergencePercent int             `json:"overall_divergence_percent"`
	Axes                     []AxisDetail    `json:"axes"`
	Overridden               bool            `json:"overridden"`
	OverrideReason           string          `json:"override_reason,omitempty"`
	Incomplete               bool            `json:"incomplete"`
	MissingA                 []axis.ID       `json:"missing_a,omitempty"`
	MissingB                 []axis.ID       `json:"missing_b,omitempty"`
	Unshared                 []axis.ID       `json:"unshared,omitempty"`
	Partial                  []axis.ID       `json:"partial,omitempty"`
	Profile                  scoring.Profile `json:"profile"`
	Comparison               []Comparison    `json:"comparison"`
	LabelA                   string          `json:"label_a"`
	LabelB                   string          `json:"label_b"`
	Relationship             string          `json:"relationship,omitempty"`
	BankVersion              string          `json:"bank_version"`
}

// Axis returns the detail for id.
func (r Result) Axis(id axis.ID) (AxisDetail, bool) {
	for _, d := range r.Axes {
		if d.Axis == id {
			return d, true
		}
	}
	return AxisDetail{}, false
}

// Clone returns a copy of r that shares no slices or pointers with it.
func (r Result) Clone() Result {
	out := r
	out.Axes = slices.Clone(r.Axes)
	out.MissingA = slices.Clone(r.MissingA)
	out.MissingB = slices.Clone(r.MissingB)
	out.Unshared = slices.Clone(r.Unshared)
	out.Partial = slices.Clone(r.Partial)
	out.Comparison = slices.Clone(r.Comparison)
	for i := range out.Comparison {
		out.Comparison[i].RawA = cloneInt(r.Comparison[i].RawA)
		out.Comparison[i].RawB = cloneInt(r.Comparison[i].RawB)
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// #endregion result
