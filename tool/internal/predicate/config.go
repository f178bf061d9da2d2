// Copyright The Augmentum Authors
// SPDX-License-Identifier: Apache-2.0

package predicate

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/augmentum-project/augmentum-go/tool/ex"
)

// Config selects a predicate variant from a YAML file:
//
//	predicate: heuristic        # always | targeted | heuristic | script
//	targets: targets.csv        # targeted only
//	script: policy.expr         # script only
type Config struct {
	Predicate string `yaml:"predicate"`
	Targets   string `yaml:"targets"`
	Script    string `yaml:"script"`
}

// LoadConfig reads a predicate config file and builds the variant it names.
func LoadConfig(path string) (ShouldInstrument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ex.Wrapf(err, "failed to read config %s", path)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, ex.Wrapf(err, "failed to parse config %s", path)
	}
	return cfg.Build()
}

// Build constructs the configured predicate.
func (cfg Config) Build() (ShouldInstrument, error) {
	switch cfg.Predicate {
	case "", "always":
		return Always{}, nil
	case "heuristic":
		return Heuristic{}, nil
	case "targeted":
		if cfg.Targets == "" {
			return nil, ex.New("targeted predicate needs a targets file")
		}
		return NewTargeted(cfg.Targets)
	case "script":
		if cfg.Script == "" {
			return nil, ex.New("script predicate needs a script file")
		}
		return NewScript(cfg.Script)
	default:
		return nil, ex.Newf("unknown predicate %q", cfg.Predicate)
	}
}
