/*
PURPOSE:
  Defines the configuration structure and loading logic for anneal-runner.
  Adheres to "Config IS Code" philosophy.

REQUIREMENTS:
  User-specified:
  - Input path, output path, token and sampling parameters are configurable.
  - Defaults reproduce the fixed parameter set: 1000 reads, annealing time
    0.05 us, chain strength 2, fast anneal on, auto scale off, raw answers.

  Implementation-discovered:
  - Needs to support YAML parsing.
  - Needs to support Environment variables overrides (DWAVE_API_...), with
    the solver service's own DW_INTERNAL__ names as a fallback.
  - Flags override everything (applied by internal/cli).

ARCHITECTURE INTEGRATION:
  - Used by: internal/cli, internal/engine
  - Dependencies: gopkg.in/yaml.v3, github.com/go-playground/validator/v10

ERROR HANDLING:
  - Returns explicit error if config file is invalid.
  - Missing default files fall back to defaults; a missing explicit file is an error.
  - Validate() reports every bad field at once.

IMPLEMENTATION RULES:
  - Config struct tags should support yaml and validate.
  - Precedence: defaults < file < env < flags.

USAGE:
  cfg, err := config.Load("anneal_runner.yaml")
  cfg.ApplyEnv(os.LookupEnv)
  err = cfg.Validate()

SELF-HEALING INSTRUCTIONS:
  - If new fields are needed, add to Config struct and update DefaultConfig().

RELATED FILES:
  - internal/cli/root.go
  - internal/cli/run.go

MAINTENANCE:
  - Update when adding new tuning parameters.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

// Config represents the full configuration for anneal-runner.
type Config struct {
	InputPath  string `yaml:"input_path" validate:"required"`
	OutputPath string `yaml:"output_path" validate:"required"`

	// Solver service
	Endpoint     string        `yaml:"endpoint" validate:"required,url"`
	Token        string        `yaml:"token"`
	Solver       string        `yaml:"solver"` // Overrides the first record's solver when set
	Timeout      time.Duration `yaml:"timeout" validate:"gt=0"`
	PollInterval time.Duration `yaml:"poll_interval" validate:"gt=0"`
	MaxRetries   int           `yaml:"max_retries" validate:"min=0"`
	RetryDelay   time.Duration `yaml:"retry_delay" validate:"min=0"`

	// Sampling parameters, sent unchanged with every instance
	NumReads         int     `yaml:"num_reads" validate:"gt=0"`
	AnnealingTime    float64 `yaml:"annealing_time" validate:"gt=0"` // microseconds
	ChainStrength    float64 `yaml:"chain_strength" validate:"gt=0"`
	FastAnneal       bool    `yaml:"fast_anneal"`
	AutoScale        bool    `yaml:"auto_scale"`
	AnswerMode       string  `yaml:"answer_mode" validate:"oneof=raw histogram"`
	ChainBreakMethod string  `yaml:"chain_break_method" validate:"oneof=majority_vote discard"`

	// Optional side outputs and filtering
	SummaryCSV   string `yaml:"summary_csv"`
	SummaryJSONL string `yaml:"summary_jsonl"`
	Select       string `yaml:"select"`

	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`

	// Source is the file the configuration was read from, if any.
	Source string `yaml:"-"`
}

// DefaultEndpoint is the public solver API.
const DefaultEndpoint = "https://cloud.dwavesys.com/sapi"

// DefaultFiles are searched, in order, when no config path is given.
var DefaultFiles = []string{"anneal_runner.yaml", "runner.yaml"}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		InputPath:        "data_20.msgpack",
		OutputPath:       "results.msgpack",
		Endpoint:         DefaultEndpoint,
		Timeout:          60 * time.Second,
		PollInterval:     time.Second,
		MaxRetries:       0,
		RetryDelay:       2 * time.Second,
		NumReads:         1000,
		AnnealingTime:    0.05,
		ChainStrength:    2,
		FastAnneal:       true,
		AutoScale:        false,
		AnswerMode:       "raw",
		ChainBreakMethod: "majority_vote",
		LogLevel:         "info",
	}
}

// Load reads configuration from a file.
// If path is specified, it attempts to load that file.
// If path is empty, it searches for default files in order.
// If no file found, returns default config.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	var data []byte
	var err error

	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
	} else {
		found := false
		for _, name := range DefaultFiles {
			data, err = os.ReadFile(name)
			if err == nil {
				path = name
				found = true
				break
			}
		}
		if !found {
			return cfg, nil
		}
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	cfg.Source = path

	return cfg, nil
}

// Environment variables consulted by ApplyEnv. The first set name wins.
var (
	TokenEnv    = []string{"DWAVE_API_TOKEN", "DW_INTERNAL__TOKEN"}
	EndpointEnv = []string{"DWAVE_API_ENDPOINT", "DW_INTERNAL__HTTPLINK"}
	SolverEnv   = []string{"DWAVE_API_SOLVER", "DW_INTERNAL__SOLVER"}
)

// ApplyEnv overrides token, endpoint and solver from the environment.
// lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	first := func(names []string) (string, bool) {
		for _, n := range names {
			if v, ok := lookup(n); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}
	if v, ok := first(TokenEnv); ok {
		c.Token = v
	}
	if v, ok := first(EndpointEnv); ok {
		c.Endpoint = v
	}
	if v, ok := first(SolverEnv); ok {
		c.Solver = v
	}
}

// Validate checks every field against its constraints.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", fe.Field(), fe.ActualTag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}
