package checks

import (
	"context"

	"devguard/internal/config"
	"devguard/internal/report"
	"devguard/internal/toolexec"
)

// Check is one discrete compliance verification step wrapping an external
// tool. Checks never talk to os/exec directly; they go through the Runner.
//
// Evaluate always returns a Record: a check that cannot run because its
// input or tool is absent returns SKIP with a message naming the reason, and
// a tool failure (non-zero exit, timeout, unlaunchable binary) returns FAIL
// with the captured output as details. Nothing a collaborator does may
// escape as an error.
type Check interface {
	ID() string
	Title() string
	Description() string
	Evaluate(ctx context.Context, cfg *config.Config, runner toolexec.Runner) report.Record
}

// Check IDs, in pipeline order.
const (
	HelmLintID          = "helm-lint"
	PolicyValidationID  = "policy-validation"
	DockerfileScanID    = "dockerfile-scan"
	VulnerabilityScanID = "vulnerability-scan"
	SbomGenerationID    = "sbom-generation"
)

// PipelineOrder is the fixed execution order of the tool checks. The
// registry is a lookup table; ordering decisions live here.
var PipelineOrder = []string{
	HelmLintID,
	PolicyValidationID,
	DockerfileScanID,
	VulnerabilityScanID,
	SbomGenerationID,
}
