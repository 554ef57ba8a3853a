package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"devguard/internal/report"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

// ModelInvoker is the narrow Bedrock boundary so the analyzer is testable
// without AWS.
type ModelInvoker interface {
	Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error)
}

type bedrockInvoker struct {
	client *bedrockruntime.Client
}

// NewBedrockInvoker builds a bedrock-runtime client from the default AWS
// credential chain. Missing credentials surface here, before any check has
// run, and the caller falls back to rule-based analysis.
func NewBedrockInvoker(ctx context.Context, region string) (ModelInvoker, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("resolve AWS credentials: %w", err)
	}
	return &bedrockInvoker{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

func (b *bedrockInvoker) Invoke(ctx context.Context, modelID string, body []byte) ([]byte, error) {
	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model %s: %w", modelID, err)
	}
	return out.Body, nil
}

// BedrockAnalyzer asks an Anthropic model on Bedrock to triage the failed
// checks and emit a remediation document.
type BedrockAnalyzer struct {
	Invoker ModelInvoker
	Model   string
}

func (a *BedrockAnalyzer) Mode() string { return "bedrock" }

func (a *BedrockAnalyzer) Analyze(ctx context.Context, doc *report.Document) (map[string]any, error) {
	failed := doc.FailedChecks()
	if len(failed) == 0 {
		return map[string]any{
			"enabled":  true,
			"mode":     a.Mode(),
			"model":    a.Model,
			"priority": "low",
			"summary":  "No compliance issues found - all checks passed.",
			"prevention_tips": []any{
				"Continue following hardened-baseline practices",
				"Review policy bundles periodically",
			},
		}, nil
	}

	prompt, err := buildPrompt(doc, failed)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(map[string]any{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        2000,
		"temperature":       0.3,
		"messages": []map[string]any{
			{"role": "user", "content": prompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("encode model request: %w", err)
	}

	raw, err := a.Invoker.Invoke(ctx, a.Model, body)
	if err != nil {
		return nil, err
	}

	text, err := extractText(raw)
	if err != nil {
		return nil, err
	}

	var sup map[string]any
	if err := json.Unmarshal([]byte(stripFences(text)), &sup); err != nil {
		return nil, fmt.Errorf("model response is not a JSON document: %w", err)
	}
	sup["enabled"] = true
	sup["mode"] = a.Mode()
	sup["model"] = a.Model
	return sup, nil
}

func buildPrompt(doc *report.Document, failed []report.Record) (string, error) {
	failedJSON, err := json.MarshalIndent(failed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode failed checks: %w", err)
	}
	cfgJSON, err := json.Marshal(doc.Configuration)
	if err != nil {
		return "", fmt.Errorf("encode configuration: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are a Kubernetes supply-chain compliance expert. Analyze these compliance check failures and provide actionable remediation guidance.\n\n")
	fmt.Fprintf(&b, "CONTEXT:\n- Failed checks: %d out of %d\n- Configuration: %s\n\n", len(failed), doc.Summary.Total, cfgJSON)
	fmt.Fprintf(&b, "FAILED CHECKS:\n%s\n\n", failedJSON)
	b.WriteString(`Respond with JSON only, using this structure:
{
  "priority": "critical|high|medium|low",
  "summary": "brief overall assessment",
  "root_causes": ["..."],
  "remediation_steps": [
    {"check": "check id", "issue": "description", "fix": "specific fix", "command": "example command"}
  ],
  "prevention_tips": ["..."]
}
Be practical and specific. Provide working commands where possible.`)
	return b.String(), nil
}

// extractText pulls the text block out of an Anthropic messages response.
func extractText(raw []byte) (string, error) {
	var resp struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	for _, c := range resp.Content {
		if c.Type == "text" && c.Text != "" {
			return c.Text, nil
		}
	}
	return "", fmt.Errorf("model response contains no text block")
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.Index(s, "\n"); i >= 0 {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
