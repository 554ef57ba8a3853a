// Package analysis is the best-effort enrichment pass: it asks a model (or a
// rule-based fallback) to triage the run's failures and folds the result into
// the report's analysis namespace. It augments the compliance verdict and
// never gates it.
package analysis

import (
	"context"
	"encoding/json"
	"fmt"

	"devguard/internal/report"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CheckName is the reserved record name the enrichment stage reports under.
const CheckName = "ai_analysis"

// Analyzer produces a supplemental analysis document for the current report.
type Analyzer interface {
	Analyze(ctx context.Context, doc *report.Document) (map[string]any, error)

	// Mode names the analysis backend ("bedrock" or "rule-based").
	Mode() string
}

// supplementalSchema is what a supplemental document must look like before
// it is allowed anywhere near the report. Anything else is a merge error and
// the report stays untouched.
const supplementalSchema = `{
  "type": "object",
  "required": ["mode", "priority", "summary"],
  "properties": {
    "enabled": {"type": "boolean"},
    "mode": {"enum": ["bedrock", "rule-based"]},
    "model": {"type": "string"},
    "priority": {"enum": ["critical", "high", "medium", "low"]},
    "summary": {"type": "string"},
    "root_causes": {"type": "array", "items": {"type": "string"}},
    "remediation_steps": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["check", "issue", "fix"],
        "properties": {
          "check": {"type": "string"},
          "issue": {"type": "string"},
          "fix": {"type": "string"},
          "command": {"type": "string"}
        }
      }
    },
    "prevention_tips": {"type": "array", "items": {"type": "string"}}
  }
}`

var compiledSchema = jsonschema.MustCompileString("supplemental.schema.json", supplementalSchema)

// ValidateSupplemental rejects malformed supplemental documents. The value
// is round-tripped through JSON so schema validation sees what would
// actually be merged.
func ValidateSupplemental(sup map[string]any) error {
	raw, err := json.Marshal(sup)
	if err != nil {
		return fmt.Errorf("supplemental document not serializable: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("supplemental document not parseable: %w", err)
	}
	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("supplemental document rejected: %w", err)
	}
	return nil
}

// Enrich runs the analyzer and merges its document into the report. Every
// failure mode (analyzer error, schema rejection, reserved-key clash) is
// downgraded to a SKIP record under CheckName with the cause in details;
// the report is left byte-for-byte unchanged apart from that record.
func Enrich(ctx context.Context, doc *report.Document, analyzer Analyzer) report.Record {
	sup, err := analyzer.Analyze(ctx, doc)
	if err != nil {
		return report.SkipWithDetails(CheckName, "AI analysis attempted but failed", err.Error())
	}
	if err := ValidateSupplemental(sup); err != nil {
		return report.SkipWithDetails(CheckName, "AI analysis produced an invalid document", err.Error())
	}
	if err := doc.MergeSupplemental(sup); err != nil {
		return report.SkipWithDetails(CheckName, "AI analysis merge rejected", err.Error())
	}
	return report.Pass(CheckName, fmt.Sprintf("analysis merged (%s)", analyzer.Mode()))
}
