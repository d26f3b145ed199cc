package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/montanaflynn/stats"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/bank"
)

// #region calculator
// Calculator computes axis scores, divergence and synchrony over one bank.
// It holds no mutable state.
type Calculator struct {
	bank   *bank.Bank
	set    axis.Set
	cfg    Config
	factor float64
}

// NewCalculator validates cfg against the axis set.
func NewCalculator(b *bank.Bank, set axis.Set, cfg Config) (*Calculator, error) {
	if cfg.ScoreRange.Width() <= 0 {
		return nil, fmt.Errorf("%w: score range [%v,%v]", ErrInvalidConfig, cfg.ScoreRange.Min, cfg.ScoreRange.Max)
	}
	if cfg.Synchrony.GapPenalty < 0 || cfg.Synchrony.ValueAxisWeight < 0 {
		return nil, fmt.Errorf("%w: synchrony penalties must be non-negative", ErrInvalidConfig)
	}
	if !set.Has(cfg.Synchrony.ValueAxis) {
		return nil, fmt.Errorf("%w: value axis %q not in axis set", ErrInvalidConfig, cfg.Synchrony.ValueAxis)
	}
	for _, adj := range cfg.Adjustments {
		if !set.Has(adj.Axis) {
			return nil, fmt.Errorf("%w: adjustment references unknown axis %q", ErrInvalidConfig, adj.Axis)
		}
		if adj.Position < 0 || adj.Position >= axis.Count || len(adj.Letter) != 1 {
			return nil, fmt.Errorf("%w: adjustment %+v", ErrInvalidConfig, adj)
		}
	}
	factor := cfg.ScoreRange.Width() / b.Scale().Width()

	// A point of added disagreement on any question must cost at least as
	// much overall divergence as it can remove from an axis gap.
	limit := 100 / (float64(len(b.Questions())) * b.Scale().Width())
	for _, id := range set.IDs() {
		n := len(b.ByAxis(id))
		if n == 0 {
			continue
		}
		if step := cfg.Synchrony.GapPenalty * factor / float64(n); step > limit {
			return nil, fmt.Errorf("%w: gap penalty %v lets axis %s gain %.3f synchrony per point of disagreement (max %.3f)",
				ErrInvalidConfig, cfg.Synchrony.GapPenalty, id, step, limit)
		}
	}
	return &Calculator{
		bank:   b,
		set:    set,
		cfg:    cfg,
		factor: factor,
	}, nil
}

// Range returns the axis-score range.
func (c *Calculator) Range() Range { return c.cfg.ScoreRange }

// #endregion calculator

// #region axis-scores
// Scores averages normalized answers per axis and rescales the mean into the
// score range. An axis without answers scores 0 and is listed as missing.
func (c *Calculator) Scores(answers AnswerSet) (Scores, error) {
	if err := c.bank.Validate(answers); err != nil {
		return Scores{}, fmt.Errorf("axis scores: %w", err)
	}

	perAxis := make(map[axis.ID]stats.Float64Data, axis.Count)
	for _, q := range c.bank.Questions() {
		raw, ok := answers[q.ID]
		if !ok {
			continue
		}
		v, _ := c.bank.Normalize(q.ID, raw)
		perAxis[q.Axis] = append(perAxis[q.Axis], v)
	}

	out := Scores{
		Values: make(map[axis.ID]float64, axis.Count),
		Counts: make(map[axis.ID]int, axis.Count),
	}
	for _, id := range c.set.IDs() {
		data := perAxis[id]
		out.Counts[id] = len(data)
		if len(data) == 0 {
			out.Values[id] = 0
			out.Missing = append(out.Missing, id)
			continue
		}
		mean, err := stats.Mean(data)
		if err != nil {
			return Scores{}, fmt.Errorf("axis %s mean: %w", id, err)
		}
		out.Values[id] = c.cfg.ScoreRange.Clamp(mean * c.factor)
	}
	return out, nil
}

// SharedScores scores both answer sets over the questions both respondents
// answered. Each axis sum is divided by the axis's bank size, not the shared
// count, so a one-sided answer never moves the gap and a thinly shared axis
// weighs no more than its share of the bank. Axes with no shared question
// score 0 and are listed as missing.
func (c *Calculator) SharedScores(a, b AnswerSet) (Scores, Scores, error) {
	if err := c.bank.Validate(a); err != nil {
		return Scores{}, Scores{}, fmt.Errorf("shared scores: respondent A: %w", err)
	}
	if err := c.bank.Validate(b); err != nil {
		return Scores{}, Scores{}, fmt.Errorf("shared scores: respondent B: %w", err)
	}

	sumA := make(map[axis.ID]float64, axis.Count)
	sumB := make(map[axis.ID]float64, axis.Count)
	shared := make(map[axis.ID]int, axis.Count)
	for _, q := range c.bank.Questions() {
		ra, okA := a[q.ID]
		rb, okB := b[q.ID]
		if !okA || !okB {
			continue
		}
		na, _ := c.bank.Normalize(q.ID, ra)
		nb, _ := c.bank.Normalize(q.ID, rb)
		sumA[q.Axis] += na
		sumB[q.Axis] += nb
		shared[q.Axis]++
	}

	newScores := func() Scores {
		return Scores{
			Values: make(map[axis.ID]float64, axis.Count),
			Counts: make(map[axis.ID]int, axis.Count),
		}
	}
	outA, outB := newScores(), newScores()
	for _, id := range c.set.IDs() {
		outA.Counts[id], outB.Counts[id] = shared[id], shared[id]
		if shared[id] == 0 {
			outA.Values[id], outB.Values[id] = 0, 0
			outA.Missing = append(outA.Missing, id)
			outB.Missing = append(outB.Missing, id)
			continue
		}
		n := float64(len(c.bank.ByAxis(id)))
		outA.Values[id] = c.cfg.ScoreRange.Clamp(sumA[id] / n * c.factor)
		outB.Values[id] = c.cfg.ScoreRange.Clamp(sumB[id] / n * c.factor)
	}
	return outA, outB, nil
}

// Adjust applies the MBTI adjustment rules to a copy of s. Types that are not
// exactly four letters are ignored.
func (c *Calculator) Adjust(s Scores, mbti string) Scores {
	out := Scores{
		Values:  make(map[axis.ID]float64, len(s.Values)),
		Counts:  s.Counts,
		Missing: s.Missing,
	}
	for id, v := range s.Values {
		out.Values[id] = v
	}
	mbti = strings.ToUpper(strings.TrimSpace(mbti))
	if len(mbti) != axis.Count {
		return out
	}
	for _, adj := range c.cfg.Adjustments {
		if mbti[adj.Position:adj.Position+1] == strings.ToUpper(adj.Letter) {
			out.Values[adj.Axis] = c.cfg.ScoreRange.Clamp(out.Values[adj.Axis] + adj.Delta)
		}
	}
	return out
}

// Pair returns the element-wise average of two score vectors and their
// absolute per-axis gap.
func (c *Calculator) Pair(a, b Scores) (pair, gap map[axis.ID]float64) {
	pair = make(map[axis.ID]float64, axis.Count)
	gap = make(map[axis.ID]float64, axis.Count)
	for _, id := range c.set.IDs() {
		pair[id] = (a.Values[id] + b.Values[id]) / 2
		gap[id] = math.Abs(a.Values[id] - b.Values[id])
	}
	return pair, gap
}

// #endregion axis-scores

// #region divergence
// Divergence compares the normalized answers to every question both
// respondents answered. One-sided answers are excluded from numerator and
// denominator alike.
func (c *Calculator) Divergence(a, b AnswerSet) (Divergence, error) {
	if err := c.bank.Validate(a); err != nil {
		return Divergence{}, fmt.Errorf("divergence: respondent A: %w", err)
	}
	if err := c.bank.Validate(b); err != nil {
		return Divergence{}, fmt.Errorf("divergence: respondent B: %w", err)
	}

	sums := make(map[axis.ID]float64, axis.Count)
	shared := make(map[axis.ID]int, axis.Count)
	var total float64
	var n int
	for _, q := range c.bank.Questions() {
		ra, okA := a[q.ID]
		rb, okB := b[q.ID]
		if !okA || !okB {
			continue
		}
		na, _ := c.bank.Normalize(q.ID, ra)
		nb, _ := c.bank.Normalize(q.ID, rb)
		d := math.Abs(na - nb)
		sums[q.Axis] += d
		shared[q.Axis]++
		total += d
		n++
	}

	width := c.bank.Scale().Width()
	out := Divergence{
		ByAxis:      make(map[axis.ID]float64, axis.Count),
		Shared:      shared,
		SharedTotal: n,
		Overall:     percent(total, float64(n)*width),
	}
	for _, id := range c.set.IDs() {
		out.ByAxis[id] = percent(sums[id], float64(shared[id])*width)
		if shared[id] == 0 {
			out.Unshared = append(out.Unshared, id)
		}
	}
	return out, nil
}

// #endregion divergence

// #region synchrony
// Synchrony combines overall divergence, the summed axis-score gaps and the
// value-axis divergence into one 0-100 percentage. Every term is subtracted.
// Given scores from SharedScores, moving one answer further from the
// partner's never raises the result: NewCalculator bounds the gap penalty so
// divergence always grows faster than any gap can shrink.
func (c *Calculator) Synchrony(d Divergence, a, b Scores) int {
	var gapSum float64
	for _, id := range c.set.IDs() {
		gapSum += math.Abs(a.Values[id] - b.Values[id])
	}
	s := 100 - d.Overall -
		c.cfg.Synchrony.GapPenalty*gapSum -
		c.cfg.Synchrony.ValueAxisWeight*d.ByAxis[c.cfg.Synchrony.ValueAxis]
	return int(math.Round(clamp(s, 0, 100)))
}

// Profile scores how far the pair sits from each threshold (Fit) and how
// closely the two respondents agree per axis (Stability).
func (c *Calculator) Profile(pair, gap, thresholds map[axis.ID]float64) Profile {
	half := c.cfg.ScoreRange.Width() / 2
	var fit, stability float64
	ids := c.set.IDs()
	for _, id := range ids {
		fit += math.Abs(pair[id] - thresholds[id])
		stability += 1 - gap[id]/c.cfg.ScoreRange.Width()
	}
	n := float64(len(ids))
	fitPct := clamp(fit/n/half*100, 0, 100)
	stabPct := clamp(stability/n*100, 0, 100)
	return Profile{
		Fit:       int(math.Round(fitPct)),
		Stability: int(math.Round(stabPct)),
		Kizuna:    int(math.Round(0.4*fitPct + 0.6*stabPct)),
	}
}

// #endregion synchrony

// #region helpers
func percent(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return clamp(num/den*100, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// #endregion helpers
