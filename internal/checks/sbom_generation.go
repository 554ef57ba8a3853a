package checks

import (
	"context"
	"path/filepath"

	"devguard/internal/config"
	"devguard/internal/report"
	"devguard/internal/toolexec"
)

type SbomGenerationCheck struct{}

func (c *SbomGenerationCheck) ID() string {
	return SbomGenerationID
}

func (c *SbomGenerationCheck) Title() string {
	return "SBOM Generation"
}

func (c *SbomGenerationCheck) Description() string {
	return "Generates an SPDX SBOM for the project tree with syft and writes it next to the report."
}

func (c *SbomGenerationCheck) Evaluate(ctx context.Context, cfg *config.Config, runner toolexec.Runner) report.Record {
	if !runner.Available("syft") {
		return report.Skip(c.ID(), "SBOM generation skipped (syft not found on PATH)")
	}

	dest := filepath.Join(cfg.Output.Dir, "sbom.spdx.json")
	res, err := runner.Run(ctx, "syft", "scan", "dir:"+cfg.Inputs.ProjectDir, "-o", "spdx-json="+dest)
	if err != nil {
		return report.Fail(c.ID(), "syft could not be invoked", err.Error())
	}
	if res.Failed() {
		return report.Fail(c.ID(), "SBOM generation failed", res.Output())
	}
	return report.Pass(c.ID(), "SBOM written to "+dest)
}

func init() {
	Register(&SbomGenerationCheck{})
}
