package checks

import (
	"context"

	"devguard/internal/config"
	"devguard/internal/report"
	"devguard/internal/toolexec"
)

type PolicyValidationCheck struct{}

func (c *PolicyValidationCheck) ID() string {
	return PolicyValidationID
}

func (c *PolicyValidationCheck) Title() string {
	return "Kubernetes Manifest Policy Validation"
}

func (c *PolicyValidationCheck) Description() string {
	return "Evaluates the project's Kubernetes manifests against the configured Rego policy bundle using conftest."
}

func (c *PolicyValidationCheck) Evaluate(ctx context.Context, cfg *config.Config, runner toolexec.Runner) report.Record {
	if cfg.Inputs.ManifestsPath == "" {
		return report.Skip(c.ID(), "Policy validation skipped (no manifests path resolved)")
	}
	if cfg.Checks.PolicyDir == "" {
		return report.Skip(c.ID(), "Policy validation skipped (no policy bundle configured)")
	}
	if !runner.Available("conftest") {
		return report.Skip(c.ID(), "Policy validation skipped (conftest not found on PATH)")
	}

	res, err := runner.Run(ctx, "conftest", "test", "--policy", cfg.Checks.PolicyDir, cfg.Inputs.ManifestsPath)
	if err != nil {
		return report.Fail(c.ID(), "conftest could not be invoked", err.Error())
	}
	if res.Failed() {
		return report.Fail(c.ID(), "policy violations found in manifests", res.Output())
	}
	return report.Pass(c.ID(), "Manifests conform to policy bundle")
}

func init() {
	Register(&PolicyValidationCheck{})
}
