package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"devguard/internal/checks"
	"devguard/internal/config"
	"devguard/internal/engine"
	"devguard/internal/flags"
	"devguard/internal/toolexec"

	"github.com/spf13/cobra"
)

var cfg = config.New()

var configPath string

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run the compliance pipeline against a project",
	Long: `Run the compliance pipeline against a project and write the report.

Configuration precedence (lowest to highest):
  built-in defaults < .devguard.yaml < environment < flags

Environment overrides:
  DEVGUARD_MIRROR, DEVGUARD_SEVERITY, DEVGUARD_SIGNING_KEY,
  DEVGUARD_ANALYSIS, DEVGUARD_ANALYSIS_MODEL, AWS_REGION

Checks that cannot run (missing input path, missing tool, disabled feature)
are recorded as SKIP, never silently omitted. A check failure does not stop
later checks; all findings surface in one report.

Exit codes:
	0 = all checks passed or were skipped
	1 = at least one check failed
	2 = infrastructure error (report unwritable, run cancelled)
	3 = invalid invocation

Examples:
  devguard verify --chart ./chart --manifests ./manifests --policy-dir ./policy
  devguard verify --dockerfile ./Dockerfile --severity HIGH,CRITICAL
  devguard verify --signing-key ./devguard.key --format structured
`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := resolveConfig(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		if _, err := checks.Resolve(cfg.Checks.Selector); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(3)
		}
		resolveInputPaths(cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		eng := engine.New(toolexec.NewExecRunner(), buildVersion)
		os.Exit(eng.Run(ctx, cfg))
	},
}

// resolveConfig layers the config file and environment under any flags the
// user set explicitly. Flags were already parsed into cfg, so the explicit
// values are snapshotted, the file/env layers applied, and the snapshot
// restored for changed flags only.
func resolveConfig(cmd *cobra.Command) error {
	explicit := *cfg

	path := configPath
	requested := cmd.Flags().Changed(flags.FlagConfig)
	if !requested {
		path = filepath.Join(cfg.Inputs.ProjectDir, config.DefaultFileName)
	}
	if err := config.ApplyFile(cfg, path, requested); err != nil {
		return err
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return err
	}

	restoreChangedFlags(cmd, &explicit, cfg)
	return nil
}

func restoreChangedFlags(cmd *cobra.Command, explicit, cfg *config.Config) {
	restore := map[string]func(){
		flags.FlagProject:        func() { cfg.Inputs.ProjectDir = explicit.Inputs.ProjectDir },
		flags.FlagChart:          func() { cfg.Inputs.ChartPath = explicit.Inputs.ChartPath },
		flags.FlagDockerfile:     func() { cfg.Inputs.DockerfilePath = explicit.Inputs.DockerfilePath },
		flags.FlagManifests:      func() { cfg.Inputs.ManifestsPath = explicit.Inputs.ManifestsPath },
		flags.FlagChecks:         func() { cfg.Checks.Selector = explicit.Checks.Selector },
		flags.FlagSeverity:       func() { cfg.Checks.Severity = explicit.Checks.Severity },
		flags.FlagIgnore:         func() { cfg.Checks.Ignore = explicit.Checks.Ignore },
		flags.FlagMirror:         func() { cfg.Checks.Mirror = explicit.Checks.Mirror },
		flags.FlagPolicyDir:      func() { cfg.Checks.PolicyDir = explicit.Checks.PolicyDir },
		flags.FlagIgnoreUnfixed:  func() { cfg.Checks.IgnoreUnfixed = explicit.Checks.IgnoreUnfixed },
		flags.FlagAnalysis:       func() { cfg.Analysis.Enabled = explicit.Analysis.Enabled },
		flags.FlagAnalysisModel:  func() { cfg.Analysis.Model = explicit.Analysis.Model },
		flags.FlagAnalysisRegion: func() { cfg.Analysis.Region = explicit.Analysis.Region },
		flags.FlagSigningKey:     func() { cfg.Attest.SigningKeyPath = explicit.Attest.SigningKeyPath },
		flags.FlagOutputDir:      func() { cfg.Output.Dir = explicit.Output.Dir },
		flags.FlagFormat:         func() { cfg.Output.Format = explicit.Output.Format },
		flags.FlagConsoleFilterStatus: func() {
			cfg.Output.ConsoleFilterStatus = explicit.Output.ConsoleFilterStatus
		},
		flags.FlagNoConsole:   func() { cfg.Output.NoConsole = explicit.Output.NoConsole },
		flags.FlagConcurrency: func() { cfg.Runtime.Concurrency = explicit.Runtime.Concurrency },
		flags.FlagToolTimeout: func() { cfg.Runtime.ToolTimeout = explicit.Runtime.ToolTimeout },
	}
	for name, fn := range restore {
		if cmd.Flags().Changed(name) {
			fn()
		}
	}
}

// resolveInputPaths fills in conventional locations for inputs the user did
// not point at explicitly. An input that still cannot be found stays empty
// and its check records SKIP.
func resolveInputPaths(cfg *config.Config) {
	if cfg.Inputs.ChartPath == "" {
		candidate := filepath.Join(cfg.Inputs.ProjectDir, "chart")
		if hasFile(filepath.Join(candidate, "Chart.yaml")) {
			cfg.Inputs.ChartPath = candidate
		}
	}
	if cfg.Inputs.DockerfilePath == "" {
		candidate := filepath.Join(cfg.Inputs.ProjectDir, "Dockerfile")
		if hasFile(candidate) {
			cfg.Inputs.DockerfilePath = candidate
		}
	}
	if cfg.Inputs.ManifestsPath == "" {
		candidate := filepath.Join(cfg.Inputs.ProjectDir, "manifests")
		if isDir(candidate) {
			cfg.Inputs.ManifestsPath = candidate
		}
	}
}

func hasFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Inputs
	verifyCmd.Flags().StringVar(&cfg.Inputs.ProjectDir, flags.FlagProject, ".", "Project root to verify")
	verifyCmd.Flags().StringVar(&cfg.Inputs.ChartPath, flags.FlagChart, "", "Helm chart directory (default: <project>/chart if present)")
	verifyCmd.Flags().StringVar(&cfg.Inputs.DockerfilePath, flags.FlagDockerfile, "", "Dockerfile path (default: <project>/Dockerfile if present)")
	verifyCmd.Flags().StringVar(&cfg.Inputs.ManifestsPath, flags.FlagManifests, "", "Kubernetes manifests path (default: <project>/manifests if present)")

	// Checks
	verifyCmd.Flags().StringVar(&cfg.Checks.Selector, flags.FlagChecks, "", "Comma-separated check IDs to run (empty = all)")
	verifyCmd.Flags().StringSliceVar(&cfg.Checks.Severity, flags.FlagSeverity, cfg.Checks.Severity, "Vulnerability severities that fail the scan (comma-separated)")
	verifyCmd.Flags().StringSliceVar(&cfg.Checks.Ignore, flags.FlagIgnore, nil, "Finding IDs to suppress (repeatable; comma-separated accepted)")
	verifyCmd.Flags().StringVar(&cfg.Checks.Mirror, flags.FlagMirror, "", "Hardened registry mirror images must come from")
	verifyCmd.Flags().StringVar(&cfg.Checks.PolicyDir, flags.FlagPolicyDir, "", "Rego policy bundle for manifest validation")
	verifyCmd.Flags().BoolVar(&cfg.Checks.IgnoreUnfixed, flags.FlagIgnoreUnfixed, false, "Drop vulnerabilities without an upstream fix")

	// Analysis
	verifyCmd.Flags().BoolVar(&cfg.Analysis.Enabled, flags.FlagAnalysis, false, "Enable the best-effort AI analysis pass")
	verifyCmd.Flags().StringVar(&cfg.Analysis.Model, flags.FlagAnalysisModel, cfg.Analysis.Model, "Bedrock model identifier")
	verifyCmd.Flags().StringVar(&cfg.Analysis.Region, flags.FlagAnalysisRegion, cfg.Analysis.Region, "AWS region hosting the model")

	// Attestation
	verifyCmd.Flags().StringVar(&cfg.Attest.SigningKeyPath, flags.FlagSigningKey, "", "PEM ed25519 private key; empty produces an unsigned envelope")

	// Output
	verifyCmd.Flags().StringVar(&cfg.Output.Dir, flags.FlagOutputDir, cfg.Output.Dir, "Directory for the report and envelope")
	verifyCmd.Flags().StringVar(&cfg.Output.Format, flags.FlagFormat, cfg.Output.Format, "Report rendering on stdout: structured|human")
	verifyCmd.Flags().StringSliceVar(&cfg.Output.ConsoleFilterStatus, flags.FlagConsoleFilterStatus, nil, "Filter streamed console records by status (PASS, FAIL, SKIP). Comma-separated.")
	verifyCmd.Flags().BoolVar(&cfg.Output.NoConsole, flags.FlagNoConsole, false, "Suppress streamed console output")

	// Runtime
	verifyCmd.Flags().StringVar(&configPath, flags.FlagConfig, "", "Config file (default: <project>/"+config.DefaultFileName+")")
	verifyCmd.Flags().IntVar(&cfg.Runtime.Concurrency, flags.FlagConcurrency, cfg.Runtime.Concurrency, "Concurrent checks (report folding stays serialized)")
	verifyCmd.Flags().DurationVar(&cfg.Runtime.ToolTimeout, flags.FlagToolTimeout, cfg.Runtime.ToolTimeout, "Per-tool invocation timeout")
}
