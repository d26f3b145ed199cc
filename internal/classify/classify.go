package classify

import (
	"fmt"
	"sort"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

// #region classifier
// Classifier turns pair scores into per-axis labels and a type code.
type Classifier struct {
	set    axis.Set
	config Config
}

// NewClassifier validates config against the axis set.
func NewClassifier(set axis.Set, config Config) (*Classifier, error) {
	if !set.Has(config.SyncAxis) {
		return nil, fmt.Errorf("%w: sync axis %q not in axis set", ErrInvalidConfig, config.SyncAxis)
	}
	if config.OverrideMargin < 0 {
		return nil, fmt.Errorf("%w: override margin %v is negative", ErrInvalidConfig, config.OverrideMargin)
	}
	for name, offsets := range config.Relationships {
		for id := range offsets {
			if !set.Has(id) {
				return nil, fmt.Errorf("%w: relationship %q references unknown axis %q", ErrInvalidConfig, name, id)
			}
		}
	}
	if len(config.AgeGap.Bands) > 0 && !set.Has(config.AgeGap.Axis) {
		return nil, fmt.Errorf("%w: age gap axis %q not in axis set", ErrInvalidConfig, config.AgeGap.Axis)
	}
	if !sort.SliceIsSorted(config.AgeGap.Bands, func(i, j int) bool {
		return config.AgeGap.Bands[i].MaxGap < config.AgeGap.Bands[j].MaxGap
	}) {
		return nil, fmt.Errorf("%w: age bands must be ordered by max_gap", ErrInvalidConfig)
	}
	return &Classifier{set: set, config: config}, nil
}

// Relationships returns the configured relationship names, sorted.
func (c *Classifier) Relationships() []string {
	names := make([]string, 0, len(c.config.Relationships))
	for name := range c.config.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// #endregion classifier

// #region thresholds
// Thresholds returns the per-axis classification thresholds for a
// relationship context and the respondents' ages. An empty relationship
// means no offsets; an age of 0 means unknown and disables the age shift.
func (c *Classifier) Thresholds(relationship string, ageA, ageB int) (map[axis.ID]float64, error) {
	out := make(map[axis.ID]float64, axis.Count)
	for _, id := range c.set.IDs() {
		out[id] = 0
	}
	if relationship != "" {
		offsets, ok := c.config.Relationships[relationship]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownRelationship, relationship)
		}
		for id, v := range offsets {
			out[id] += v
		}
	}
	if ageA > 0 && ageB > 0 && len(c.config.AgeGap.Bands) > 0 {
		out[c.config.AgeGap.Axis] += c.ageShift(ageA, ageB)
	}
	return out, nil
}

func (c *Classifier) ageShift(ageA, ageB int) float64 {
	gap := ageA - ageB
	if gap < 0 {
		gap = -gap
	}
	for _, band := range c.config.AgeGap.Bands {
		if gap <= band.MaxGap {
			return band.Shift
		}
	}
	return c.config.AgeGap.Beyond
}

// #endregion thresholds

// #region classify
// Classify labels each axis: a score at or above its threshold resolves to
// the positive pole, so an exact tie is always positive.
func (c *Classifier) Classify(pair, thresholds map[axis.ID]float64) []Label {
	axes := c.set.Axes()
	labels := make([]Label, len(axes))
	for i, a := range axes {
		score := pair[a.ID]
		th := thresholds[a.ID]
		pol := axis.Positive
		if score < th {
			pol = axis.Negative
		}
		labels[i] = Label{
			Axis:      a.ID,
			Polarity:  pol,
			Pole:      a.Pole(pol),
			Score:     score,
			Threshold: th,
		}
	}
	return labels
}

// #endregion classify

// #region generate
// Generate composes the type code from labels. When overall divergence
// exceeds the override threshold and the sync axis is only barely positive,
// that axis is reported as negative. No other axis is ever touched.
func (c *Classifier) Generate(labels []Label, overallDivergence float64) (Decision, error) {
	if len(labels) != axis.Count {
		return Decision{}, fmt.Errorf("generate: expected %d labels, got %d", axis.Count, len(labels))
	}
	out := make([]Label, len(labels))
	copy(out, labels)

	decision := Decision{Reason: "labels as classified"}
	pos := c.set.Position(c.config.SyncAxis)
	sync := out[pos]
	if overallDivergence > c.config.OverrideDivergence &&
		sync.Polarity == axis.Positive &&
		sync.Score-sync.Threshold <= c.config.OverrideMargin {
		a, _ := c.set.Lookup(sync.Axis)
		sync.Polarity = axis.Negative
		sync.Pole = a.Negative
		out[pos] = sync
		decision.Overridden = true
		decision.Reason = fmt.Sprintf("override: divergence %.2f%% > %.2f%% with %s score %.4f within %.2f of threshold",
			overallDivergence, c.config.OverrideDivergence, sync.Axis, sync.Score, c.config.OverrideMargin)
	}

	ids := c.set.IDs()
	pols := make([]axis.Polarity, len(out))
	for i, l := range out {
		if l.Axis != ids[i] {
			return Decision{}, fmt.Errorf("generate: label %d is axis %s, want %s", i, l.Axis, ids[i])
		}
		pols[i] = l.Polarity
	}
	code, err := c.set.Compose(pols)
	if err != nil {
		return Decision{}, fmt.Errorf("generate: %w", err)
	}
	decision.Code = code
	decision.Labels = out
	return decision, nil
}

// #endregion generate
