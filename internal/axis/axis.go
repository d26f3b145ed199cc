package axis

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Count is the number of axes in every set.
const Count = 4

var ErrInvalidSet = errors.New("invalid axis set")

// #region set
// Set is the ordered collection of axes. Declaration order is the canonical
// order used when composing and parsing type codes.
type Set struct {
	axes  []Axis
	index map[ID]int
}

// NewSet validates the axes and returns a Set in the given order.
func NewSet(axes []Axis) (Set, error) {
	if len(axes) != Count {
		return Set{}, fmt.Errorf("%w: expected %d axes, got %d", ErrInvalidSet, Count, len(axes))
	}
	index := make(map[ID]int, len(axes))
	for i, a := range axes {
		if a.ID == "" {
			return Set{}, fmt.Errorf("%w: axis %d has empty id", ErrInvalidSet, i)
		}
		if _, dup := index[a.ID]; dup {
			return Set{}, fmt.Errorf("%w: duplicate axis %s", ErrInvalidSet, a.ID)
		}
		for _, p := range []Pole{a.Positive, a.Negative} {
			if utf8.RuneCountInString(p.Symbol) != 1 {
				return Set{}, fmt.Errorf("%w: axis %s pole symbol %q must be one character", ErrInvalidSet, a.ID, p.Symbol)
			}
		}
		if a.Positive.Symbol == a.Negative.Symbol {
			return Set{}, fmt.Errorf("%w: axis %s poles share symbol %q", ErrInvalidSet, a.ID, a.Positive.Symbol)
		}
		index[a.ID] = i
	}
	out := make([]Axis, len(axes))
	copy(out, axes)
	return Set{axes: out, index: index}, nil
}

// Axes returns the axes in canonical order.
func (s Set) Axes() []Axis {
	out := make([]Axis, len(s.axes))
	copy(out, s.axes)
	return out
}

// IDs returns the axis ids in canonical order.
func (s Set) IDs() []ID {
	ids := make([]ID, len(s.axes))
	for i, a := range s.axes {
		ids[i] = a.ID
	}
	return ids
}

// Lookup returns the axis with the given id.
func (s Set) Lookup(id ID) (Axis, bool) {
	i, ok := s.index[id]
	if !ok {
		return Axis{}, false
	}
	return s.axes[i], true
}

// Has reports whether id belongs to the set.
func (s Set) Has(id ID) bool {
	_, ok := s.index[id]
	return ok
}

// Position returns the canonical position of id, or -1.
func (s Set) Position(id ID) int {
	i, ok := s.index[id]
	if !ok {
		return -1
	}
	return i
}

// #endregion set

// #region codes
// Compose builds the type code from one polarity per axis in canonical order.
func (s Set) Compose(polarities []Polarity) (Code, error) {
	if len(polarities) != len(s.axes) {
		return "", fmt.Errorf("compose: expected %d polarities, got %d", len(s.axes), len(polarities))
	}
	var b []byte
	for i, a := range s.axes {
		b = append(b, a.Pole(polarities[i]).Symbol...)
	}
	return Code(b), nil
}

// Parse splits a well-formed code into per-axis polarities.
func (s Set) Parse(code Code) ([]Polarity, error) {
	runes := []rune(string(code))
	if len(runes) != len(s.axes) {
		return nil, fmt.Errorf("parse %q: expected %d symbols, got %d", code, len(s.axes), len(runes))
	}
	out := make([]Polarity, len(s.axes))
	for i, a := range s.axes {
		switch string(runes[i]) {
		case a.Positive.Symbol:
			out[i] = Positive
		case a.Negative.Symbol:
			out[i] = Negative
		default:
			return nil, fmt.Errorf("parse %q: symbol %q is not a pole of axis %s", code, runes[i], a.ID)
		}
	}
	return out, nil
}

// Valid reports whether code is one of the well-formed codes of the set.
func (s Set) Valid(code Code) bool {
	_, err := s.Parse(code)
	return err == nil
}

// Codes enumerates every well-formed code, positive pole first, with the
// first axis varying slowest.
func (s Set) Codes() []Code {
	n := 1 << len(s.axes)
	codes := make([]Code, 0, n)
	pols := make([]Polarity, len(s.axes))
	for mask := 0; mask < n; mask++ {
		for i := range s.axes {
			if mask&(1<<(len(s.axes)-1-i)) != 0 {
				pols[i] = Negative
			} else {
				pols[i] = Positive
			}
		}
		code, _ := s.Compose(pols)
		codes = append(codes, code)
	}
	return codes
}

// #endregion codes
