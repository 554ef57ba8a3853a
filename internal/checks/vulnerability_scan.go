package checks

import (
	"context"
	"strings"

	"devguard/internal/config"
	"devguard/internal/report"
	"devguard/internal/toolexec"
)

type VulnerabilityScanCheck struct{}

func (c *VulnerabilityScanCheck) ID() string {
	return VulnerabilityScanID
}

func (c *VulnerabilityScanCheck) Title() string {
	return "Vulnerability Scan"
}

func (c *VulnerabilityScanCheck) Description() string {
	return "Scans the project tree with trivy at the configured severity thresholds. Findings at or above threshold fail the check."
}

func (c *VulnerabilityScanCheck) Evaluate(ctx context.Context, cfg *config.Config, runner toolexec.Runner) report.Record {
	if !runner.Available("trivy") {
		return report.Skip(c.ID(), "Vulnerability scan skipped (trivy not found on PATH)")
	}

	args := []string{
		"filesystem",
		"--severity", strings.Join(cfg.Checks.Severity, ","),
		"--exit-code", "1",
		"--no-progress",
	}
	if cfg.Checks.IgnoreUnfixed {
		args = append(args, "--ignore-unfixed")
	}
	args = append(args, cfg.Inputs.ProjectDir)

	res, err := runner.Run(ctx, "trivy", args...)
	if err != nil {
		return report.Fail(c.ID(), "trivy could not be invoked", err.Error())
	}
	if res.Failed() {
		msg := "vulnerabilities found at severity " + strings.Join(cfg.Checks.Severity, ",")
		if res.TimedOut {
			msg = "vulnerability scan timed out"
		}
		return report.Fail(c.ID(), msg, res.Output())
	}
	return report.Pass(c.ID(), "No vulnerabilities at or above threshold")
}

func init() {
	Register(&VulnerabilityScanCheck{})
}
