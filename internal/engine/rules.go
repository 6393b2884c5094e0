package engine

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// rulesFile is the YAML shape of an external matching-rules file. Every field
// is optional; absent fields keep their DefaultConfig values.
type rulesFile struct {
	Matching struct {
		NameSimilarityThreshold   *float64 `yaml:"name_similarity_threshold"`
		CausalityToleranceMinutes *int     `yaml:"causality_tolerance_minutes"`
		SKUOverrideWindowHours    *float64 `yaml:"sku_override_window_hours"`
		TieBreakWindow            *float64 `yaml:"tie_break_window"`
		AmbiguityWindow           *float64 `yaml:"ambiguity_window"`
		ToyKeyword                *string  `yaml:"toy_keyword"`
		Stopwords                 []string `yaml:"stopwords"`
		ExcludedSKUs              []struct {
			SKU  string  `yaml:"sku"`
			Cost float64 `yaml:"cost"`
		} `yaml:"excluded_skus"`
	} `yaml:"matching"`
}

// LoadRules reads a matching-rules YAML file and overlays it on the default
// configuration.
func LoadRules(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "engine: read rules %s", path)
	}

	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return cfg, eris.Wrap(err, "engine: parse rules")
	}

	m := rf.Matching
	if m.NameSimilarityThreshold != nil {
		cfg.NameSimilarityThreshold = *m.NameSimilarityThreshold
	}
	if m.CausalityToleranceMinutes != nil {
		cfg.CausalityTolerance = time.Duration(*m.CausalityToleranceMinutes) * time.Minute
	}
	if m.SKUOverrideWindowHours != nil {
		cfg.SKUOverrideWindowHours = *m.SKUOverrideWindowHours
	}
	if m.TieBreakWindow != nil {
		cfg.TieBreakWindow = *m.TieBreakWindow
	}
	if m.AmbiguityWindow != nil {
		cfg.AmbiguityWindow = *m.AmbiguityWindow
	}
	if m.ToyKeyword != nil {
		cfg.ToyKeyword = *m.ToyKeyword
	}
	if len(m.Stopwords) > 0 {
		cfg.Stopwords = m.Stopwords
	}
	if len(m.ExcludedSKUs) > 0 {
		cfg.ExcludedSKUs = make(map[string]float64, len(m.ExcludedSKUs))
		for _, ex := range m.ExcludedSKUs {
			cfg.ExcludedSKUs[ex.SKU] = ex.Cost
		}
	}

	return cfg, nil
}
