// Package config loads the diagnostic configuration from YAML and builds the
// engine from it.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/axis"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/bank"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/catalog"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/classify"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/engine"
	"github.com/danielpatrickdp/kizuna-mode/go-engine/internal/scoring"
)

//go:embed default.yaml
var defaultYAML []byte

// #region config
// Config mirrors the YAML document.
type Config struct {
	BankVersion   string                         `yaml:"bank_version"`
	Scale         bank.Scale                     `yaml:"scale"`
	ScoreRange    scoring.Range                  `yaml:"score_range"`
	Axes          []axis.Axis                    `yaml:"axes"`
	Synchrony     scoring.SynchronyConfig        `yaml:"synchrony"`
	Classifier    ClassifierConfig               `yaml:"classifier"`
	Relationships map[string]map[axis.ID]float64 `yaml:"relationships"`
	AgeGap        classify.AgeGapConfig          `yaml:"age_gap"`
	MBTI          []scoring.Adjustment           `yaml:"mbti"`
	Questions     []bank.Question                `yaml:"questions"`
	Catalog       []catalog.Record               `yaml:"catalog"`
}

// ClassifierConfig holds the override rule constants.
type ClassifierConfig struct {
	SyncAxis           axis.ID `yaml:"sync_axis"`
	OverrideDivergence float64 `yaml:"override_divergence"`
	OverrideMargin     float64 `yaml:"override_margin"`
}

// #endregion config

// #region load
// Default returns the embedded configuration.
func Default() (*Config, error) {
	return Parse(defaultYAML)
}

// Load reads a YAML configuration file. An empty path loads the default.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML document. Unknown fields are rejected. Scoring and
// classifier constants the document omits keep their package defaults.
func Parse(data []byte) (*Config, error) {
	cfg := seeded()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// seeded returns a Config holding the numeric scoring and classifier
// defaults. Settings that name an axis (sync and value axes, the age gap
// rule) depend on the axis set and are left empty.
func seeded() Config {
	sc, cc := scoring.DefaultConfig(), classify.DefaultConfig()
	return Config{
		ScoreRange: sc.ScoreRange,
		Synchrony: scoring.SynchronyConfig{
			GapPenalty:      sc.Synchrony.GapPenalty,
			ValueAxisWeight: sc.Synchrony.ValueAxisWeight,
		},
		Classifier: ClassifierConfig{
			OverrideDivergence: cc.OverrideDivergence,
			OverrideMargin:     cc.OverrideMargin,
		},
	}
}

// #endregion load

// #region build
// Build validates the configuration and constructs the engine.
func (c *Config) Build() (*engine.Engine, error) {
	set, err := axis.NewSet(c.Axes)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	b, err := bank.NewBank(c.BankVersion, c.Scale, set, c.Questions)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	eng, err := engine.New(engine.Options{
		Axes: set,
		Bank: b,
		Scoring: scoring.Config{
			ScoreRange:  c.ScoreRange,
			Synchrony:   c.Synchrony,
			Adjustments: c.MBTI,
		},
		Classifier: classify.Config{
			SyncAxis:           c.Classifier.SyncAxis,
			OverrideDivergence: c.Classifier.OverrideDivergence,
			OverrideMargin:     c.Classifier.OverrideMargin,
			Relationships:      c.Relationships,
			AgeGap:             c.AgeGap,
		},
		Catalog: c.Catalog,
	})
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	return eng, nil
}

// LoadEngine loads path (or the default) and builds the engine.
func LoadEngine(path string) (*engine.Engine, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	return cfg.Build()
}

// #endregion build
