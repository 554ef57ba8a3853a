package engine

import (
	"context"
	"fmt"
	"os"
	"time"

	"devguard/internal/analysis"
	"devguard/internal/attest"
	"devguard/internal/checks"
	"devguard/internal/config"
	"devguard/internal/gitinfo"
	"devguard/internal/output"
	"devguard/internal/report"
	"devguard/internal/toolexec"

	"github.com/google/uuid"
)

// Exit code contract:
// 0 = all checks passed or were skipped
// 1 = at least one check recorded FAIL
// 2 = infrastructure error (report unwritable, run cancelled)
// 3 = invalid invocation, owned by the CLI layer, never returned here
const (
	ExitOK      = 0
	ExitFailed  = 1
	ExitAborted = 2
)

func exitCodeForRun(aborted, failed bool) int {
	if aborted {
		return ExitAborted
	}
	if failed {
		return ExitFailed
	}
	return ExitOK
}

type Engine struct {
	Runner  toolexec.Runner
	Version string

	// newAnalyzer is a test seam. If nil, the engine builds a Bedrock
	// analyzer and falls back to rule-based analysis when AWS is not
	// reachable.
	newAnalyzer func(ctx context.Context, cfg *config.Config) analysis.Analyzer

	now func() time.Time
}

func New(runner toolexec.Runner, version string) *Engine {
	return &Engine{
		Runner:  runner,
		Version: version,
	}
}

func (e *Engine) clock() time.Time {
	if e.now != nil {
		return e.now()
	}
	return time.Now()
}

// Run drives the full pipeline: tool checks, best-effort analysis,
// attestation, persistence, rendering. The returned value is the process
// exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	selected, err := checks.Resolve(cfg.Checks.Selector)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving checks: %v\n", err)
		return ExitAborted
	}

	doc := report.NewDocument(e.buildMetadata(cfg), cfg.Snapshot())

	outMgr := output.NewManager()
	if !cfg.Output.NoConsole {
		if err := outMgr.AddSink(output.NewConsoleSink(nil, cfg.Output.ConsoleFilterStatus)); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating console sink: %v\n", err)
			return ExitAborted
		}
	}
	defer outMgr.Close()

	// Establish that the report is writable before any check runs. If it
	// is not, nothing can be recorded and the run aborts.
	if _, err := doc.Persist(cfg.Output.Dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating report: %v\n", err)
		return ExitAborted
	}

	_ = outMgr.Write(output.Event{Type: "run.started", Checks: len(selected)})

	// fold is the single owner of document mutation. Records from
	// concurrent checks funnel through it one at a time, and the document
	// is checkpointed after every fold so a crashed or cancelled run
	// leaves evidence on disk.
	fold := func(rec report.Record) bool {
		if err := doc.Record(rec); err != nil {
			fmt.Fprintf(os.Stderr, "Error recording %s: %v\n", rec.Name, err)
			return false
		}
		_ = outMgr.Write(rec)
		if _, err := doc.Persist(cfg.Output.Dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error persisting report: %v\n", err)
			return false
		}
		return true
	}

	for rec := range runChecks(ctx, cfg, e.Runner, selected) {
		if !fold(rec) {
			return ExitAborted
		}
	}
	if ctx.Err() != nil {
		// Cancelled mid-run. The document is already flushed; report the
		// abort code rather than a misleading pass/fail.
		fmt.Fprintln(os.Stderr, "Run cancelled; partial report flushed")
		return ExitAborted
	}

	if !fold(e.runAnalysis(ctx, cfg, doc)) {
		return ExitAborted
	}

	attRec, env := e.seal(doc, cfg)
	if !fold(attRec) {
		return ExitAborted
	}

	reportPath, err := doc.Persist(cfg.Output.Dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error persisting report: %v\n", err)
		return ExitAborted
	}
	if env != nil {
		if _, err := env.Persist(cfg.Output.Dir, doc.Filename()); err != nil {
			fmt.Fprintf(os.Stderr, "Error persisting envelope: %v\n", err)
			return ExitAborted
		}
	}
	if !cfg.Output.NoConsole {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", reportPath)
	}

	switch cfg.Output.Format {
	case "structured":
		if err := output.RenderStructured(os.Stdout, doc); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			return ExitAborted
		}
	default:
		if err := output.RenderHuman(os.Stdout, doc); err != nil {
			fmt.Fprintf(os.Stderr, "Error rendering report: %v\n", err)
			return ExitAborted
		}
	}

	code := exitCodeForRun(false, doc.HasFailures())
	_ = outMgr.Write(output.Event{Type: "run.finished", ExitCode: code})
	return code
}

func (e *Engine) buildMetadata(cfg *config.Config) report.RunMetadata {
	return report.RunMetadata{
		RunID:          uuid.NewString(),
		Version:        e.Version,
		Timestamp:      e.clock().UTC(),
		Revision:       gitinfo.Revision(cfg.Inputs.ProjectDir),
		ChartPath:      optionalPath(cfg.Inputs.ChartPath),
		DockerfilePath: optionalPath(cfg.Inputs.DockerfilePath),
		ManifestsPath:  optionalPath(cfg.Inputs.ManifestsPath),
	}
}

// runAnalysis is best-effort by contract: whatever happens inside, the only
// observable outcome is one record under the reserved ai_analysis name.
func (e *Engine) runAnalysis(ctx context.Context, cfg *config.Config, doc *report.Document) report.Record {
	if !cfg.Analysis.Enabled {
		return report.Skip(analysis.CheckName, "AI analysis disabled by configuration")
	}
	return analysis.Enrich(ctx, doc, e.analyzer(ctx, cfg))
}

func (e *Engine) analyzer(ctx context.Context, cfg *config.Config) analysis.Analyzer {
	if e.newAnalyzer != nil {
		return e.newAnalyzer(ctx, cfg)
	}
	invoker, err := analysis.NewBedrockInvoker(ctx, cfg.Analysis.Region)
	if err != nil {
		if !cfg.Output.NoConsole {
			fmt.Fprintf(os.Stderr, "Bedrock unavailable (%v); using rule-based analysis\n", err)
		}
		return &analysis.RuleBasedAnalyzer{}
	}
	return &analysis.BedrockAnalyzer{Invoker: invoker, Model: cfg.Analysis.Model}
}

// seal wraps the document bytes as they stand, failures and all. A missing
// key is an expected configuration state (SKIP, unsigned envelope); a key
// that is configured but unusable is a FAIL for this stage.
func (e *Engine) seal(doc *report.Document, cfg *config.Config) (report.Record, *attest.Envelope) {
	raw, err := doc.Marshal()
	if err != nil {
		return report.Fail(attest.CheckName, "report could not be serialized for sealing", err.Error()), nil
	}

	if cfg.Attest.SigningKeyPath == "" {
		env, err := attest.Seal(raw, nil, e.clock())
		if err != nil {
			return report.Fail(attest.CheckName, "envelope could not be built", err.Error()), nil
		}
		return report.Skip(attest.CheckName, "no signing key configured; envelope is unsigned"), env
	}

	key, err := attest.LoadPrivateKey(cfg.Attest.SigningKeyPath)
	if err != nil {
		return report.Fail(attest.CheckName, "signing key unusable", err.Error()), nil
	}
	env, err := attest.Seal(raw, key, e.clock())
	if err != nil {
		return report.Fail(attest.CheckName, "signing failed", err.Error()), nil
	}
	keyID := env.Signatures[0].KeyID
	return report.Pass(attest.CheckName, "report sealed (key "+keyID[:12]+")"), env
}

func optionalPath(p string) *string {
	if p == "" {
		return nil
	}
	return &p
}
