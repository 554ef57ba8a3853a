package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect
	// verification behavior, keep these in sync:
	// - CLI flags in internal/cli/verify.go
	// - config file keys and env overrides in internal/config/file.go
	// - the configuration snapshot in internal/report/report.go
	Inputs   Inputs
	Checks   Checks
	Analysis Analysis
	Attest   Attest
	Output   Output
	Runtime  Runtime
}

type Inputs struct {
	// ProjectDir is the root of the project tree to verify (see --project).
	ProjectDir string

	// ChartPath points at the Helm chart directory (see --chart).
	// Empty means no chart; chart checks record SKIP.
	ChartPath string

	// DockerfilePath points at the Dockerfile (see --dockerfile).
	// Empty means no Dockerfile; the Dockerfile check records SKIP.
	DockerfilePath string

	// ManifestsPath points at rendered or raw Kubernetes manifests (see --manifests).
	// Empty means no manifests; manifest checks record SKIP.
	ManifestsPath string
}

type Checks struct {
	// Selector selects which checks to run.
	// Empty means all checks; otherwise a comma-separated list of check IDs (see --checks).
	Selector string

	// Severity is the set of vulnerability severities that fail the scan (see --severity).
	// Allowed values: LOW, MEDIUM, HIGH, CRITICAL.
	Severity []string

	// Ignore lists finding IDs suppressed across scanners (see --ignore).
	Ignore []string

	// Mirror is the hardened registry mirror images must come from (see --mirror).
	Mirror string

	// PolicyDir holds the Rego policy bundle for manifest validation (see --policy-dir).
	PolicyDir string

	// IgnoreUnfixed drops vulnerabilities without an upstream fix (see --ignore-unfixed).
	IgnoreUnfixed bool
}

type Analysis struct {
	// Enabled turns the AI analysis pass on (see --analysis).
	// The pass is best-effort either way: it can never fail the run.
	Enabled bool

	// Model is the Bedrock model identifier (see --analysis-model).
	Model string

	// Region is the AWS region hosting the model (see --analysis-region).
	Region string
}

type Attest struct {
	// SigningKeyPath is a PEM-encoded ed25519 private key (see --signing-key).
	// Empty produces an explicitly unsigned envelope and a SKIP record.
	SigningKeyPath string
}

type Output struct {
	// Dir is where the report and envelope are written (see --output-dir).
	Dir string

	// Format controls what verify prints to stdout at the end of the run
	// (see --format). Allowed values: structured, human.
	Format string

	// ConsoleFilterStatus filters streamed console records by status (see --console-filter-status).
	// Allowed values: PASS, FAIL, SKIP.
	ConsoleFilterStatus []string

	// NoConsole suppresses the streaming console sink (see --no-console).
	NoConsole bool
}

type Runtime struct {
	// Concurrency controls how many independent checks may run at once (see --concurrency).
	// Report folding stays serialized regardless. Must be >= 1.
	Concurrency int

	// ToolTimeout bounds every external tool invocation (see --tool-timeout).
	// Must be > 0. A timed-out tool is treated as a non-zero exit.
	ToolTimeout time.Duration
}

func New() *Config {
	return &Config{
		Inputs: Inputs{
			ProjectDir: ".",
		},
		Checks: Checks{
			Severity: []string{"HIGH", "CRITICAL"},
		},
		Analysis: Analysis{
			Model:  "anthropic.claude-3-5-sonnet-20241022-v2:0",
			Region: "us-east-1",
		},
		Output: Output{
			Dir:    "devguard-reports",
			Format: "human",
		},
		Runtime: Runtime{
			Concurrency: 1,
			ToolTimeout: 5 * time.Minute,
		},
	}
}

var validSeverities = map[string]bool{
	"LOW": true, "MEDIUM": true, "HIGH": true, "CRITICAL": true,
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Checks.Severity = splitCommaList(c.Checks.Severity)
	c.Checks.Ignore = splitCommaList(c.Checks.Ignore)
	c.Output.ConsoleFilterStatus = splitCommaList(c.Output.ConsoleFilterStatus)

	if strings.TrimSpace(c.Inputs.ProjectDir) == "" {
		return errors.New("--project must not be empty")
	}

	for i, s := range c.Checks.Severity {
		v := strings.ToUpper(strings.TrimSpace(s))
		if !validSeverities[v] {
			return fmt.Errorf("unsupported --severity: %s (must be one of: LOW, MEDIUM, HIGH, CRITICAL)", s)
		}
		c.Checks.Severity[i] = v
	}
	if len(c.Checks.Severity) == 0 {
		return errors.New("--severity must list at least one severity")
	}

	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		c.Output.Format = "human"
	}
	if c.Output.Format != "structured" && c.Output.Format != "human" {
		return fmt.Errorf("unsupported --format: %s (must be one of: structured, human)", c.Output.Format)
	}

	for i, s := range c.Output.ConsoleFilterStatus {
		v := strings.ToUpper(strings.TrimSpace(s))
		if v != "PASS" && v != "FAIL" && v != "SKIP" {
			return fmt.Errorf("unsupported --console-filter-status: %s (must be one of: PASS, FAIL, SKIP)", s)
		}
		c.Output.ConsoleFilterStatus[i] = v
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.New("--output-dir must not be empty")
	}

	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.ToolTimeout <= 0 {
		return errors.New("--tool-timeout must be > 0")
	}

	if c.Analysis.Enabled {
		if strings.TrimSpace(c.Analysis.Model) == "" {
			return errors.New("--analysis-model must not be empty when analysis is enabled")
		}
		if strings.TrimSpace(c.Analysis.Region) == "" {
			return errors.New("--analysis-region must not be empty when analysis is enabled")
		}
	}

	return nil
}

// Snapshot returns the resolved settings captured into the report's
// configuration block. It is taken once at run start and never mutated.
func (c *Config) Snapshot() map[string]any {
	return map[string]any{
		"mirror":         c.Checks.Mirror,
		"severity":       append([]string(nil), c.Checks.Severity...),
		"ignore":         append([]string(nil), c.Checks.Ignore...),
		"policy_dir":     c.Checks.PolicyDir,
		"ignore_unfixed": c.Checks.IgnoreUnfixed,
		"analysis":       c.Analysis.Enabled,
		"output_format":  c.Output.Format,
	}
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
