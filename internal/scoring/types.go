package scoring

import (
	"errors"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

var ErrInvalidConfig = errors.New("invalid scoring config")

// AnswerSet maps question id to a raw answer value.
type AnswerSet map[int]int

// #region config
// Range is the bounded axis-score range.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Width returns Max - Min.
func (r Range) Width() float64 { return r.Max - r.Min }

// Clamp bounds v to the range.
func (r Range) Clamp(v float64) float64 {
	if v < r.Min {
		return r.Min
	}
	if v > r.Max {
		return r.Max
	}
	return v
}

// SynchronyConfig holds the synchrony penalty coefficients. Both must be
// non-negative so that more disagreement never raises synchrony.
type SynchronyConfig struct {
	GapPenalty      float64 `yaml:"gap_penalty" json:"gap_penalty"`             // per point of summed axis-score gap
	ValueAxisWeight float64 `yaml:"value_axis_weight" json:"value_axis_weight"` // extra weight on the value axis divergence percent
	ValueAxis       axis.ID `yaml:"value_axis" json:"value_axis"`
}

// Adjustment shifts one axis score when a respondent's MBTI type has Letter
// at Position.
type Adjustment struct {
	Position int     `yaml:"position" json:"position"`
	Letter   string  `yaml:"letter" json:"letter"`
	Axis     axis.ID `yaml:"axis" json:"axis"`
	Delta    float64 `yaml:"delta" json:"delta"`
}

// Config parameterizes the calculator.
type Config struct {
	ScoreRange  Range
	Synchrony   SynchronyConfig
	Adjustments []Adjustment
}

// DefaultConfig returns the canonical -3..+3 range and penalties weighted
// on the "V" axis.
func DefaultConfig() Config {
	return Config{
		ScoreRange: Range{Min: -3, Max: 3},
		Synchrony: SynchronyConfig{
			GapPenalty:      2.0,
			ValueAxisWeight: 0.25,
			ValueAxis:       "V",
		},
	}
}

// #endregion config

// #region results
// Scores is one respondent's axis-score vector.
type Scores struct {
	Values  map[axis.ID]float64
	Counts  map[axis.ID]int // answered questions per axis
	Missing []axis.ID       // axes with no answers, scored 0
}

// Incomplete reports whether any axis defaulted to neutral.
func (s Scores) Incomplete() bool { return len(s.Missing) > 0 }

// Divergence is the disagreement between two answer sets, in percent.
type Divergence struct {
	Overall     float64
	ByAxis      map[axis.ID]float64
	Shared      map[axis.ID]int
	SharedTotal int
	Unshared    []axis.ID // axes with no question answered by both
}

// Profile summarizes how decisive and how stable the pair is.
type Profile struct {
	Fit       int `json:"fit"`
	Stability int `json:"stability"`
	Kizuna    int `json:"kizuna"`
}

// #endregion results
