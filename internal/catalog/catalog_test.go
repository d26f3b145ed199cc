package catalog

import (
	"errors"
	"fmt"
	"testing"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
)

func testSet(t *testing.T) axis.Set {
	t.Helper()
	s, err := axis.NewSet([]axis.Axis{
		{ID: "P", Positive: axis.Pole{Symbol: "E"}, Negative: axis.Pole{Symbol: "H"}},
		{ID: "M", Positive: axis.Pole{Symbol: "B"}, Negative: axis.Pole{Symbol: "I"}},
		{ID: "G", Positive: axis.Pole{Symbol: "S"}, Negative: axis.Pole{Symbol: "A"}},
		{ID: "V", Positive: axis.Pole{Symbol: "C"}, Negative: axis.Pole{Symbol: "D"}},
	})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	return s
}

func fullCatalog(set axis.Set) []Record {
	var recs []Record
	for i, code := range set.Codes() {
		recs = append(recs, Record{Code: code, Slug: fmt.Sprintf("type-%02d", i+1), Name: string(code)})
	}
	return recs
}

func TestEveryCodeResolvesExactly(t *testing.T) {
	set := testSet(t)
	r, err := NewResolver(set, fullCatalog(set))
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	for _, code := range set.Codes() {
		res := r.Resolve(code)
		if !res.Exact {
			t.Fatalf("%s resolved via fallback", code)
		}
		if res.Record.Code != code {
			t.Fatalf("%s resolved to %s", code, res.Record.Code)
		}
		if res.Matches != 4 {
			t.Fatalf("%s: expected 4 matches, got %d", code, res.Matches)
		}
	}
}

func TestNewResolverRejects(t *testing.T) {
	set := testSet(t)

	if _, err := NewResolver(set, nil); !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("expected ErrEmptyCatalog, got %v", err)
	}

	recs := fullCatalog(set)
	recs[3].Code = "HOT-EQUAL-VALUE-SYNC"
	if _, err := NewResolver(set, recs); !errors.Is(err, ErrMalformedCode) {
		t.Fatalf("expected ErrMalformedCode, got %v", err)
	}

	recs = fullCatalog(set)
	recs[15].Code = recs[0].Code
	if _, err := NewResolver(set, recs); !errors.Is(err, ErrDuplicateCode) {
		t.Fatalf("expected ErrDuplicateCode, got %v", err)
	}

	recs = fullCatalog(set)[:15]
	if _, err := NewResolver(set, recs); !errors.Is(err, ErrIncompleteCatalog) {
		t.Fatalf("expected ErrIncompleteCatalog, got %v", err)
	}
}

func TestFallbackNearestMatch(t *testing.T) {
	r, err := newResolver([]Record{
		{Code: "EBSC", Slug: "first"},
		{Code: "HIAD", Slug: "second"},
		{Code: "EBAD", Slug: "third"},
	})
	if err != nil {
		t.Fatalf("newResolver: %v", err)
	}

	res := r.Resolve("HBAD")
	if res.Exact {
		t.Fatal("expected fallback")
	}
	if res.Record.Slug != "second" || res.Matches != 3 {
		t.Fatalf("expected second with 3 matches, got %s with %d", res.Record.Slug, res.Matches)
	}

	// EBSD: first and third both match 3 positions; declaration order wins.
	res = r.Resolve("EBSD")
	if res.Record.Slug != "first" {
		t.Fatalf("tie should resolve to first, got %s", res.Record.Slug)
	}

	res = r.Resolve("NEUTRAL")
	if res.Exact || res.Record.Slug != "first" || res.Matches != 0 {
		t.Fatalf("unrelated code should fall back to first with 0 matches, got %+v", res)
	}
}

func TestRecordsReturnsCopy(t *testing.T) {
	set := testSet(t)
	r, _ := NewResolver(set, fullCatalog(set))
	recs := r.Records()
	recs[0].Name = "changed"
	if r.Resolve(recs[0].Code).Record.Name == "changed" {
		t.Fatal("Records must not expose internal storage")
	}
}
