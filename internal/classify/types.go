package classify

import (
	"errors"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

var (
	ErrUnknownRelationship = errors.New("unknown relationship")
	ErrInvalidConfig       = errors.New("invalid classifier config")
)

// #region config
// AgeBand shifts the age-gap axis threshold when the respondents' age gap is
// at most MaxGap years.
type AgeBand struct {
	MaxGap int     `yaml:"max_gap" json:"max_gap"`
	Shift  float64 `yaml:"shift" json:"shift"`
}

// AgeGapConfig lowers one axis threshold as the age gap widens. Bands must be
// ordered by MaxGap; gaps beyond the last band use Beyond.
type AgeGapConfig struct {
	Axis   axis.ID   `yaml:"axis" json:"axis"`
	Bands  []AgeBand `yaml:"bands" json:"bands"`
	Beyond float64   `yaml:"beyond" json:"beyond"`
}

// Config holds classifier thresholds and the override rule.
type Config struct {
	SyncAxis           axis.ID                        // only axis the override may flip
	OverrideDivergence float64                        // overall divergence percent that must be exceeded
	OverrideMargin     float64                        // max distance above threshold still considered "barely" positive
	Relationships      map[string]map[axis.ID]float64 // per-context threshold offsets
	AgeGap             AgeGapConfig
}

// DefaultConfig returns the canonical thresholds for the P/M/G/V axis set.
func DefaultConfig() Config {
	return Config{
		SyncAxis:           "V",
		OverrideDivergence: 45,
		OverrideMargin:     0.5,
		Relationships: map[string]map[axis.ID]float64{
			"lover":  {"P": 0, "M": 0.3, "G": 0, "V": -0.3},
			"friend": {"P": 0, "M": -0.3, "G": -0.3, "V": 0},
			"work":   {"P": 0.3, "M": -0.75, "G": 0.3, "V": -0.3},
			"family": {"P": -0.3, "M": 0, "G": -0.3, "V": 0},
		},
		AgeGap: AgeGapConfig{
			Axis: "P",
			Bands: []AgeBand{
				{MaxGap: 3, Shift: 0},
				{MaxGap: 10, Shift: -0.225},
			},
			Beyond: -0.45,
		},
	}
}

// #endregion config

// #region label
// Label is the resolved pole of one axis.
type Label struct {
	Axis      axis.ID       `json:"axis"`
	Polarity  axis.Polarity `json:"polarity"`
	Pole      axis.Pole     `json:"pole"`
	Score     float64       `json:"score"`
	Threshold float64       `json:"threshold"`
}

// #endregion label

// #region decision
// Decision is the output of type-code generation.
type Decision struct {
	Code       axis.Code
	Labels     []Label // after any override, canonical order
	Overridden bool
	Reason     string
}

// #endregion decision
