package catalog

import (
	"fmt"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

// #region resolver
// Resolver maps type codes to catalog records.
type Resolver struct {
	records []Record
	byCode  map[axis.Code]int
}

// NewResolver checks that records form a bijection with the code space of
// set: no empty catalog, no malformed or duplicate codes, no missing code.
func NewResolver(set axis.Set, records []Record) (*Resolver, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	for _, rec := range records {
		if !set.Valid(rec.Code) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedCode, rec.Code)
		}
	}
	r, err := newResolver(records)
	if err != nil {
		return nil, err
	}
	var missing []axis.Code
	for _, code := range set.Codes() {
		if _, ok := r.byCode[code]; !ok {
			missing = append(missing, code)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", ErrIncompleteCatalog, missing)
	}
	return r, nil
}

// newResolver indexes records without checking coverage.
func newResolver(records []Record) (*Resolver, error) {
	if len(records) == 0 {
		return nil, ErrEmptyCatalog
	}
	r := &Resolver{
		records: make([]Record, len(records)),
		byCode:  make(map[axis.Code]int, len(records)),
	}
	copy(r.records, records)
	for i, rec := range r.records {
		if _, dup := r.byCode[rec.Code]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCode, rec.Code)
		}
		r.byCode[rec.Code] = i
	}
	return r, nil
}

// Records returns the catalog in declaration order.
func (r *Resolver) Records() []Record {
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// #endregion resolver

// #region resolve
// Resolve returns the record for code. A code absent from the catalog falls
// back to the record sharing the most symbol positions with it; ties go to
// the earliest declared record.
func (r *Resolver) Resolve(code axis.Code) Resolution {
	if i, ok := r.byCode[code]; ok {
		return Resolution{Record: r.records[i], Exact: true, Matches: len([]rune(string(code)))}
	}
	best, bestScore := 0, -1
	for i, rec := range r.records {
		if s := positionMatches(code, rec.Code); s > bestScore {
			best, bestScore = i, s
		}
	}
	return Resolution{Record: r.records[best], Exact: false, Matches: bestScore}
}

// #endregion resolve

// #region helpers
func positionMatches(a, b axis.Code) int {
	ra, rb := []rune(string(a)), []rune(string(b))
	n := min(len(ra), len(rb))
	var score int
	for i := 0; i < n; i++ {
		if ra[i] == rb[i] {
			score++
		}
	}
	return score
}

// #endregion helpers
