package classify

import (
	"errors"
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

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewClassifier(testSet(t), DefaultConfig())
	if err != nil {
		t.Fatalf("NewClassifier: %v", err)
	}
	return c
}

func scores(p, m, g, v float64) map[axis.ID]float64 {
	return map[axis.ID]float64{"P": p, "M": m, "G": g, "V": v}
}

func TestClassifySigns(t *testing.T) {
	c := newClassifier(t)
	labels := c.Classify(scores(1.2, -0.1, 2, -3), scores(0, 0, 0, 0))
	want := []axis.Polarity{axis.Positive, axis.Negative, axis.Positive, axis.Negative}
	for i, l := range labels {
		if l.Polarity != want[i] {
			t.Fatalf("axis %s: expected %s, got %s", l.Axis, want[i], l.Polarity)
		}
	}
	if labels[1].Pole.Symbol != "I" {
		t.Fatalf("expected M negative symbol I, got %s", labels[1].Pole.Symbol)
	}
}

func TestClassifyZeroIsPositive(t *testing.T) {
	c := newClassifier(t)
	for i := 0; i < 50; i++ {
		labels := c.Classify(scores(0, 0, 0, 0), scores(0, 0, 0, 0))
		for _, l := range labels {
			if l.Polarity != axis.Positive {
				t.Fatalf("exact tie on %s must classify positive", l.Axis)
			}
		}
	}
}

func TestGenerateNormalPath(t *testing.T) {
	c := newClassifier(t)
	labels := c.Classify(scores(-1, 1, -1, 1), scores(0, 0, 0, 0))
	d, err := c.Generate(labels, 10)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.Code != "HBAC" {
		t.Fatalf("expected HBAC, got %s", d.Code)
	}
	if d.Overridden {
		t.Fatal("low divergence must not override")
	}
}

func TestGenerateOverridesBarelyPositiveSyncAxis(t *testing.T) {
	c := newClassifier(t)
	labels := c.Classify(scores(1, 1, 1, 0.1), scores(0, 0, 0, 0))
	d, err := c.Generate(labels, 60)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if d.Code != "EBSD" {
		t.Fatalf("expected EBSD after override, got %s", d.Code)
	}
	if !d.Overridden {
		t.Fatal("expected Overridden")
	}
	if d.Labels[3].Polarity != axis.Negative || d.Labels[3].Pole.Symbol != "D" {
		t.Fatalf("sync label not flipped: %+v", d.Labels[3])
	}
	if labels[3].Polarity != axis.Positive {
		t.Fatal("Generate must not mutate its input labels")
	}
}

func TestGenerateOverrideConditions(t *testing.T) {
	c := newClassifier(t)
	cases := []struct {
		name       string
		pair       map[axis.ID]float64
		divergence float64
		want       axis.Code
	}{
		{"divergence at threshold", scores(1, 1, 1, 0.1), 45, "EBSC"},
		{"sync clearly positive", scores(1, 1, 1, 0.6), 80, "EBSC"},
		{"sync at margin", scores(1, 1, 1, 0.5), 80, "EBSD"},
		{"sync already negative", scores(1, 1, 1, -0.1), 80, "EBSD"},
		{"other axes untouched", scores(0.1, 0.1, 0.1, 2), 90, "EBSC"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d, err := c.Generate(c.Classify(tc.pair, scores(0, 0, 0, 0)), tc.divergence)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if d.Code != tc.want {
				t.Fatalf("expected %s, got %s (%s)", tc.want, d.Code, d.Reason)
			}
		})
	}
}

func TestGenerateRejectsWrongLabels(t *testing.T) {
	c := newClassifier(t)
	if _, err := c.Generate(nil, 0); err == nil {
		t.Fatal("expected error for missing labels")
	}
	labels := c.Classify(scores(0, 0, 0, 0), scores(0, 0, 0, 0))
	labels[0], labels[1] = labels[1], labels[0]
	if _, err := c.Generate(labels, 0); err == nil {
		t.Fatal("expected error for out-of-order labels")
	}
}

func TestThresholds(t *testing.T) {
	c := newClassifier(t)

	th, err := c.Thresholds("", 0, 0)
	if err != nil {
		t.Fatalf("Thresholds: %v", err)
	}
	for id, v := range th {
		if v != 0 {
			t.Fatalf("default threshold for %s should be 0, got %v", id, v)
		}
	}

	th, _ = c.Thresholds("work", 0, 0)
	if th["M"] != -0.75 || th["P"] != 0.3 {
		t.Fatalf("unexpected work thresholds %v", th)
	}

	if _, err := c.Thresholds("rival", 0, 0); !errors.Is(err, ErrUnknownRelationship) {
		t.Fatalf("expected ErrUnknownRelationship, got %v", err)
	}
}

func TestThresholdsAgeGap(t *testing.T) {
	c := newClassifier(t)
	cases := []struct {
		a, b int
		want float64
	}{
		{30, 33, 0},
		{30, 40, -0.225},
		{50, 20, -0.45},
		{0, 40, 0},
	}
	for _, tc := range cases {
		th, err := c.Thresholds("", tc.a, tc.b)
		if err != nil {
			t.Fatalf("Thresholds: %v", err)
		}
		if th["P"] != tc.want {
			t.Errorf("ages %d/%d: expected P threshold %v, got %v", tc.a, tc.b, tc.want, th["P"])
		}
	}
}

func TestThresholdShiftsClassification(t *testing.T) {
	c := newClassifier(t)
	th, _ := c.Thresholds("lover", 0, 0)
	labels := c.Classify(scores(0, 0.2, 0, -0.2), th)
	if labels[1].Polarity != axis.Negative {
		t.Fatal("M=0.2 below lover threshold 0.3 should be negative")
	}
	if labels[3].Polarity != axis.Positive {
		t.Fatal("V=-0.2 above lover threshold -0.3 should be positive")
	}
}

func TestNewClassifierRejects(t *testing.T) {
	set := testSet(t)
	mutations := map[string]func(*Config){
		"sync axis":     func(c *Config) { c.SyncAxis = "X" },
		"margin":        func(c *Config) { c.OverrideMargin = -1 },
		"relationship":  func(c *Config) { c.Relationships["odd"] = map[axis.ID]float64{"Q": 1} },
		"age axis":      func(c *Config) { c.AgeGap.Axis = "Q" },
		"band ordering": func(c *Config) { c.AgeGap.Bands = []AgeBand{{MaxGap: 10}, {MaxGap: 3}} },
	}
	for name, mutate := range mutations {
		cfg := DefaultConfig()
		mutate(&cfg)
		if _, err := NewClassifier(set, cfg); !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("%s: expected ErrInvalidConfig, got %v", name, err)
		}
	}
}

func TestRelationshipsSorted(t *testing.T) {
	got := newClassifier(t).Relationships()
	want := []string{"family", "friend", "lover", "work"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
