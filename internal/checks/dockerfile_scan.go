package checks

import (
	"context"

	"devguard/internal/config"
	"devguard/internal/report"
	"devguard/internal/toolexec"
)

type DockerfileScanCheck struct{}

func (c *DockerfileScanCheck) ID() string {
	return DockerfileScanID
}

func (c *DockerfileScanCheck) Title() string {
	return "Dockerfile Best-Practice Scan"
}

func (c *DockerfileScanCheck) Description() string {
	return "Lints the Dockerfile with hadolint. Ignore rules from configuration are passed through verbatim."
}

func (c *DockerfileScanCheck) Evaluate(ctx context.Context, cfg *config.Config, runner toolexec.Runner) report.Record {
	if cfg.Inputs.DockerfilePath == "" {
		return report.Skip(c.ID(), "No Dockerfile found")
	}
	if !runner.Available("hadolint") {
		return report.Skip(c.ID(), "Dockerfile scan skipped (hadolint not found on PATH)")
	}

	args := []string{}
	for _, rule := range cfg.Checks.Ignore {
		args = append(args, "--ignore", rule)
	}
	args = append(args, cfg.Inputs.DockerfilePath)

	res, err := runner.Run(ctx, "hadolint", args...)
	if err != nil {
		return report.Fail(c.ID(), "hadolint could not be invoked", err.Error())
	}
	if res.Failed() {
		return report.Fail(c.ID(), "Dockerfile violates best practices", res.Output())
	}
	return report.Pass(c.ID(), "Dockerfile passes hadolint")
}

func init() {
	Register(&DockerfileScanCheck{})
}
