// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mirtaint/mirtaint/internal/funcutil"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config holds the settings of an analysis run. If some field is not defined in the config file,
// it will be empty/zero in the struct. Private fields are not populated from a yaml file, but
// computed after initialization.
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// TaintProblems lists the per-function taint problems: which locals start out tainted.
	TaintProblems []TaintSpec `yaml:"taint-problems"`
}

// TaintSpec names the seed taints of one function: the locals that are pre-tainted on entry,
// as identified by an external source catalogue.
type TaintSpec struct {
	// Function is the name of the function body the seeds apply to.
	Function string `yaml:"function"`

	// Seed lists the local indices that are tainted when the function starts.
	Seed []int `yaml:"seed"`
}

// Options are the tunable settings of the analysis engine.
type Options struct {
	// LogLevel controls the verbosity of the analysis (see LogLevel constants).
	LogLevel int `yaml:"log-level"`

	// MaxIterations caps the number of block visits of one fixed-point run. Zero means the cap
	// is derived from the size of the function (blocks times locals, plus slack). The cap is a
	// guard against a non-monotone transfer function; a well-formed analysis never reaches it.
	MaxIterations int `yaml:"max-iterations"`

	// Strict makes the analysis fail when it encounters an instruction shape it can only
	// approximate, instead of recording it and moving on.
	Strict bool `yaml:"strict"`
}

// NewDefault returns a config with default settings: info-level logging, derived iteration cap,
// non-strict.
func NewDefault() *Config {
	return &Config{
		Options: Options{LogLevel: int(InfoLevel)},
	}
}

// Load reads a config from a yaml file. Zero fields keep their default meaning.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg := NewDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config file %s: %w", filename, err)
	}
	cfg.sourceFile = filename
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.LogLevel < int(ErrLevel) || c.LogLevel > int(TraceLevel) {
		return fmt.Errorf("log-level %d out of range [%d, %d]", c.LogLevel, ErrLevel, TraceLevel)
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max-iterations must be non-negative, got %d", c.MaxIterations)
	}
	var seen []string
	for _, spec := range c.TaintProblems {
		if spec.Function == "" {
			return fmt.Errorf("taint problem with empty function name")
		}
		if funcutil.Contains(seen, spec.Function) {
			return fmt.Errorf("duplicate taint problem for function %q", spec.Function)
		}
		seen = append(seen, spec.Function)
		for _, local := range spec.Seed {
			if local < 0 {
				return fmt.Errorf("taint problem for %q seeds negative local %d", spec.Function, local)
			}
		}
	}
	return nil
}

// SourceFile returns the name of the file the config was loaded from, if any.
func (c *Config) SourceFile() string {
	return c.sourceFile
}

// SeedFor returns the seed locals configured for the named function. Returns nil when the
// function has no taint problem configured.
func (c *Config) SeedFor(function string) []int {
	for _, spec := range c.TaintProblems {
		if spec.Function == function {
			return spec.Seed
		}
	}
	return nil
}
