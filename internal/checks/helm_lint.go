package checks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devguard/internal/config"
	"devguard/internal/report"
	"devguard/internal/toolexec"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

type HelmLintCheck struct{}

func (c *HelmLintCheck) ID() string {
	return HelmLintID
}

func (c *HelmLintCheck) Title() string {
	return "Helm Chart Validation"
}

func (c *HelmLintCheck) Description() string {
	return "Lints the Helm chart, verifies it renders with helm template, and checks that Chart.yaml declares a valid semantic version."
}

type chartMetadata struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

func (c *HelmLintCheck) Evaluate(ctx context.Context, cfg *config.Config, runner toolexec.Runner) report.Record {
	chart := cfg.Inputs.ChartPath
	if chart == "" {
		return report.Skip(c.ID(), "Helm chart validation skipped (no chart path resolved)")
	}
	if !runner.Available("helm") {
		return report.Skip(c.ID(), "Helm chart validation skipped (helm not found on PATH)")
	}

	if msg, ok := c.validateChartVersion(chart); !ok {
		return report.Fail(c.ID(), msg, "")
	}

	lint, err := runner.Run(ctx, "helm", "lint", chart)
	if err != nil {
		return report.Fail(c.ID(), "helm lint could not be invoked", err.Error())
	}
	if lint.Failed() {
		return report.Fail(c.ID(), "helm lint reported issues", lint.Output())
	}

	tmpl, err := runner.Run(ctx, "helm", "template", chart)
	if err != nil {
		return report.Fail(c.ID(), "helm template could not be invoked", err.Error())
	}
	if tmpl.Failed() {
		return report.Fail(c.ID(), "chart does not render with helm template", tmpl.Output())
	}

	return report.Pass(c.ID(), "Helm chart linted and rendered cleanly")
}

// validateChartVersion enforces a semver chart version. A chart without a
// readable Chart.yaml fails here rather than in helm, which reports it less
// precisely.
func (c *HelmLintCheck) validateChartVersion(chart string) (string, bool) {
	raw, err := os.ReadFile(filepath.Join(chart, "Chart.yaml"))
	if err != nil {
		return fmt.Sprintf("Chart.yaml not readable: %v", err), false
	}
	var meta chartMetadata
	if err := yaml.Unmarshal(raw, &meta); err != nil {
		return fmt.Sprintf("Chart.yaml not parseable: %v", err), false
	}
	if strings.TrimSpace(meta.Version) == "" {
		return "Chart.yaml has no version field", false
	}
	if _, err := semver.StrictNewVersion(meta.Version); err != nil {
		return fmt.Sprintf("chart version %q is not valid semver: %v", meta.Version, err), false
	}
	return "", true
}

func init() {
	Register(&HelmLintCheck{})
}
