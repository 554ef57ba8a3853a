package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is looked up in the project directory when --config is not given.
const DefaultFileName = ".devguard.yaml"

// fileConfig mirrors the YAML layout of .devguard.yaml. All fields are
// pointers so that an absent key leaves the in-memory default untouched.
type fileConfig struct {
	Inputs struct {
		Chart      *string `yaml:"chart"`
		Dockerfile *string `yaml:"dockerfile"`
		Manifests  *string `yaml:"manifests"`
	} `yaml:"inputs"`
	Checks struct {
		Severity      []string `yaml:"severity"`
		Ignore        []string `yaml:"ignore"`
		Mirror        *string  `yaml:"mirror"`
		PolicyDir     *string  `yaml:"policy_dir"`
		IgnoreUnfixed *bool    `yaml:"ignore_unfixed"`
	} `yaml:"checks"`
	Analysis struct {
		Enabled *bool   `yaml:"enabled"`
		Model   *string `yaml:"model"`
		Region  *string `yaml:"region"`
	} `yaml:"analysis"`
	Attest struct {
		SigningKey *string `yaml:"signing_key"`
	} `yaml:"attest"`
	Output struct {
		Dir    *string `yaml:"dir"`
		Format *string `yaml:"format"`
	} `yaml:"output"`
	Runtime struct {
		Concurrency *int    `yaml:"concurrency"`
		ToolTimeout *string `yaml:"tool_timeout"`
	} `yaml:"runtime"`
}

// ApplyFile layers a YAML config file over cfg. A missing file is only an
// error when the path was explicitly requested.
func ApplyFile(cfg *Config, path string, explicit bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&cfg.Inputs.ChartPath, fc.Inputs.Chart)
	setString(&cfg.Inputs.DockerfilePath, fc.Inputs.Dockerfile)
	setString(&cfg.Inputs.ManifestsPath, fc.Inputs.Manifests)

	if len(fc.Checks.Severity) > 0 {
		cfg.Checks.Severity = fc.Checks.Severity
	}
	if len(fc.Checks.Ignore) > 0 {
		cfg.Checks.Ignore = fc.Checks.Ignore
	}
	setString(&cfg.Checks.Mirror, fc.Checks.Mirror)
	setString(&cfg.Checks.PolicyDir, fc.Checks.PolicyDir)
	setBool(&cfg.Checks.IgnoreUnfixed, fc.Checks.IgnoreUnfixed)

	setBool(&cfg.Analysis.Enabled, fc.Analysis.Enabled)
	setString(&cfg.Analysis.Model, fc.Analysis.Model)
	setString(&cfg.Analysis.Region, fc.Analysis.Region)

	setString(&cfg.Attest.SigningKeyPath, fc.Attest.SigningKey)

	setString(&cfg.Output.Dir, fc.Output.Dir)
	setString(&cfg.Output.Format, fc.Output.Format)

	if fc.Runtime.Concurrency != nil {
		cfg.Runtime.Concurrency = *fc.Runtime.Concurrency
	}
	if fc.Runtime.ToolTimeout != nil {
		d, err := time.ParseDuration(*fc.Runtime.ToolTimeout)
		if err != nil {
			return fmt.Errorf("parse runtime.tool_timeout in %s: %w", path, err)
		}
		cfg.Runtime.ToolTimeout = d
	}

	return nil
}

// Environment override names. Resolved once at startup; nothing reads the
// environment after the Config is built.
const (
	EnvMirror     = "DEVGUARD_MIRROR"
	EnvSeverity   = "DEVGUARD_SEVERITY"
	EnvSigningKey = "DEVGUARD_SIGNING_KEY"
	EnvAnalysis   = "DEVGUARD_ANALYSIS"
	EnvModel      = "DEVGUARD_ANALYSIS_MODEL"
	EnvRegion     = "AWS_REGION"
)

// ApplyEnv layers environment overrides over cfg. Env wins over the config
// file but loses to explicit flags (the CLI applies flags last).
func ApplyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv(EnvMirror); ok {
		cfg.Checks.Mirror = v
	}
	if v, ok := os.LookupEnv(EnvSeverity); ok {
		cfg.Checks.Severity = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv(EnvSigningKey); ok {
		cfg.Attest.SigningKeyPath = v
	}
	if v, ok := os.LookupEnv(EnvAnalysis); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parse %s=%q: %w", EnvAnalysis, v, err)
		}
		cfg.Analysis.Enabled = b
	}
	if v, ok := os.LookupEnv(EnvModel); ok {
		cfg.Analysis.Model = v
	}
	if v, ok := os.LookupEnv(EnvRegion); ok && cfg.Analysis.Region == New().Analysis.Region {
		cfg.Analysis.Region = v
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
