package bank

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

// #region bank
// Bank is a fixed, versioned sequence of questions answered on one scale.
type Bank struct {
	version   string
	scale     Scale
	questions []Question
	index     map[int]int
}

// NewBank validates the questions against the axis set and scale.
func NewBank(version string, scale Scale, set axis.Set, questions []Question) (*Bank, error) {
	if scale.Max <= scale.Min {
		return nil, fmt.Errorf("%w: scale max %d must exceed min %d", ErrInvalidBank, scale.Max, scale.Min)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidBank)
	}
	index := make(map[int]int, len(questions))
	for i, q := range questions {
		if _, dup := index[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", ErrInvalidBank, q.ID)
		}
		if !set.Has(q.Axis) {
			return nil, fmt.Errorf("%w: question %d references unknown axis %q", ErrInvalidBank, q.ID, q.Axis)
		}
		index[q.ID] = i
	}
	qs := make([]Question, len(questions))
	copy(qs, questions)
	return &Bank{version: version, scale: scale, questions: qs, index: index}, nil
}

// Version returns the bank version label.
func (b *Bank) Version() string { return b.version }

// Scale returns the answer scale.
func (b *Bank) Scale() Scale { return b.scale }

// Questions returns the questions in bank order.
func (b *Bank) Questions() []Question {
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}

// Question looks up a question by id.
func (b *Bank) Question(id int) (Question, bool) {
	i, ok := b.index[id]
	if !ok {
		return Question{}, false
	}
	return b.questions[i], true
}

// ByAxis returns the questions tagged with the given axis, in bank order.
func (b *Bank) ByAxis(id axis.ID) []Question {
	var out []Question
	for _, q := range b.questions {
		if q.Axis == id {
			out = append(out, q)
		}
	}
	return out
}

// #endregion bank

// #region normalize
// Normalize centers a raw answer on the scale midpoint and inverts it for
// reverse-keyed questions. Out-of-scale values are rejected, never clamped.
func (b *Bank) Normalize(questionID, raw int) (float64, error) {
	q, ok := b.Question(questionID)
	if !ok {
		return 0, &AnswerError{QuestionID: questionID, Value: raw, Err: ErrUnknownQuestion}
	}
	if !b.scale.Contains(raw) {
		return 0, &AnswerError{QuestionID: questionID, Value: raw, Err: ErrOutOfScale}
	}
	v := float64(raw) - b.scale.Midpoint()
	if q.Reverse {
		v = -v
	}
	return v, nil
}

// Validate checks every answer in ascending question-id order and returns
// the first rejection.
func (b *Bank) Validate(answers map[int]int) error {
	ids := make([]int, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if _, err := b.Normalize(id, answers[id]); err != nil {
			return err
		}
	}
	return nil
}

// #endregion normalize
