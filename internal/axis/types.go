package axis

import "fmt"

// #region id
// ID identifies one of the four axes (e.g. "P", "V").
type ID string

// #endregion id

// #region polarity
// Polarity selects one of the two poles of an axis.
type Polarity int

const (
	Positive Polarity = iota
	Negative
)

func (p Polarity) String() string {
	if p == Negative {
		return "negative"
	}
	return "positive"
}

func (p Polarity) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Polarity) UnmarshalText(b []byte) error {
	switch string(b) {
	case "positive":
		*p = Positive
	case "negative":
		*p = Negative
	default:
		return fmt.Errorf("unknown polarity %q", b)
	}
	return nil
}

// #endregion polarity

// #region pole
// Pole is one named end of an axis. Symbol is the single character that
// represents the pole inside a type code.
type Pole struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Name   string `yaml:"name" json:"name"`
}

// #endregion pole

// #region axis
// Axis is a bipolar dimension.
type Axis struct {
	ID       ID     `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Positive Pole   `yaml:"positive" json:"positive"`
	Negative Pole   `yaml:"negative" json:"negative"`
}

// Pole returns the pole for the given polarity.
func (a Axis) Pole(p Polarity) Pole {
	if p == Negative {
		return a.Negative
	}
	return a.Positive
}

// #endregion axis

// #region code
// Code is a type code: one pole symbol per axis, in canonical axis order.
type Code string

// #endregion code
