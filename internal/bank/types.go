package bank

import (
	"errors"
	"fmt"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

// #region errors
var (
	ErrUnknownQuestion = errors.New("unknown question")
	ErrOutOfScale      = errors.New("answer out of scale")
	ErrInvalidBank     = errors.New("invalid question bank")
)

// AnswerError reports a rejected raw answer. It unwraps to ErrUnknownQuestion
// or ErrOutOfScale.
type AnswerError struct {
	QuestionID int
	Value      int
	Err        error
}

func (e *AnswerError) Error() string {
	return fmt.Sprintf("question %d value %d: %v", e.QuestionID, e.Value, e.Err)
}

func (e *AnswerError) Unwrap() error { return e.Err }

// #endregion errors

// #region scale
// Scale is the inclusive range of raw integer answers. The midpoint maps to 0
// after normalization.
type Scale struct {
	Min int `yaml:"min" json:"min"`
	Max int `yaml:"max" json:"max"`
}

// FivePoint is the canonical 1..5 scale.
func FivePoint() Scale { return Scale{Min: 1, Max: 5} }

// Midpoint returns the center of the scale.
func (s Scale) Midpoint() float64 { return float64(s.Min+s.Max) / 2 }

// Width returns the distance between the scale extremes.
func (s Scale) Width() float64 { return float64(s.Max - s.Min) }

// Contains reports whether v is a legal raw answer.
func (s Scale) Contains(v int) bool { return v >= s.Min && v <= s.Max }

// #endregion scale

// #region question
// Question is one immutable entry of the bank.
type Question struct {
	ID      int     `yaml:"id" json:"id"`
	Code    string  `yaml:"code" json:"code"`
	Axis    axis.ID `yaml:"axis" json:"axis"`
	Reverse bool    `yaml:"reverse" json:"reverse"`
}

// #endregion question
