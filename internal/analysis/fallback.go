package analysis

import (
	"context"
	"fmt"

	"devguard/internal/checks"
	"devguard/internal/report"
)

// RuleBasedAnalyzer is the deterministic fallback used when Bedrock is
// unreachable. It produces the same document shape from canned knowledge
// about each check.
type RuleBasedAnalyzer struct{}

func (a *RuleBasedAnalyzer) Mode() string { return "rule-based" }

var cannedRemediation = map[string]struct{ issue, fix, command string }{
	checks.HelmLintID: {
		issue:   "Helm chart fails lint or does not render",
		fix:     "Fix the reported template errors and ensure Chart.yaml declares a semver version",
		command: "helm lint <chart> && helm template <chart>",
	},
	checks.PolicyValidationID: {
		issue:   "Kubernetes manifests violate the policy bundle",
		fix:     "Address each denied rule; run conftest locally to iterate",
		command: "conftest test --policy <policy-dir> <manifests>",
	},
	checks.DockerfileScanID: {
		issue:   "Dockerfile violates best practices",
		fix:     "Resolve the hadolint findings (pin versions, avoid root, use COPY over ADD)",
		command: "hadolint <Dockerfile>",
	},
	checks.VulnerabilityScanID: {
		issue:   "Dependencies carry vulnerabilities at or above threshold",
		fix:     "Upgrade affected packages or rebase onto a patched base image",
		command: "trivy filesystem --severity HIGH,CRITICAL .",
	},
	checks.SbomGenerationID: {
		issue:   "SBOM could not be generated",
		fix:     "Ensure syft can read the project tree and the output directory is writable",
		command: "syft scan dir:.",
	},
}

func (a *RuleBasedAnalyzer) Analyze(ctx context.Context, doc *report.Document) (map[string]any, error) {
	failed := doc.FailedChecks()

	if len(failed) == 0 {
		return map[string]any{
			"enabled":  false,
			"mode":     a.Mode(),
			"priority": "low",
			"summary":  "No compliance issues found - all checks passed.",
			"prevention_tips": []any{
				"Continue following hardened-baseline practices",
				"Review policy bundles periodically",
			},
		}, nil
	}

	priority := "medium"
	var causes []any
	var steps []any
	for _, rec := range failed {
		if rec.Name == checks.VulnerabilityScanID || rec.Name == checks.PolicyValidationID {
			priority = "high"
		}
		canned, ok := cannedRemediation[rec.Name]
		if !ok {
			canned.issue = rec.Message
			canned.fix = "Inspect the check output in the report details"
		}
		causes = append(causes, fmt.Sprintf("%s: %s", rec.Name, rec.Message))
		step := map[string]any{
			"check": rec.Name,
			"issue": canned.issue,
			"fix":   canned.fix,
		}
		if canned.command != "" {
			step["command"] = canned.command
		}
		steps = append(steps, step)
	}
	if len(failed) >= 3 {
		priority = "critical"
	}

	return map[string]any{
		"enabled":           false,
		"mode":              a.Mode(),
		"priority":          priority,
		"summary":           fmt.Sprintf("%d of %d checks failed; see remediation steps.", len(failed), doc.Summary.Total),
		"root_causes":       causes,
		"remediation_steps": steps,
		"prevention_tips": []any{
			"Run devguard verify locally before pushing",
			"Keep base images and dependencies current",
		},
	}, nil
}
