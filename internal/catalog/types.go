package catalog

import (
	"errors"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

var (
	ErrEmptyCatalog      = errors.New("catalog is empty")
	ErrMalformedCode     = errors.New("malformed catalog code")
	ErrDuplicateCode     = errors.New("duplicate catalog code")
	ErrIncompleteCatalog = errors.New("catalog does not cover every type code")
)

// #region record
// Record is one catalog entry. Records are immutable once loaded.
type Record struct {
	Code axis.Code `yaml:"code" json:"code"`
	Slug string    `yaml:"slug" json:"slug"`
	Name string    `yaml:"name" json:"name"`
}

// #endregion record

// #region resolution
// Resolution is the outcome of resolving a type code.
type Resolution struct {
	Record  Record `json:"record"`
	Exact   bool   `json:"exact"`   // false when the nearest-match fallback was used
	Matches int    `json:"matches"` // symbol positions shared with the query
}

// #endregion resolution
