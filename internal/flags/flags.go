package flags

// Package flags defines canonical CLI flag names shared across the CLI and engine.
// Keeping these as constants helps avoid drift between Cobra flag wiring and other
// code paths that need to reference flags (e.g. config file/env override precedence).
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Inputs.ChartPath, flags.FlagChart, "", "...")
//	arg := "--" + flags.FlagChart
const (
	// Inputs
	FlagProject    = "project"
	FlagChart      = "chart"
	FlagDockerfile = "dockerfile"
	FlagManifests  = "manifests"

	// Checks
	FlagChecks        = "checks"
	FlagSeverity      = "severity"
	FlagIgnore        = "ignore"
	FlagMirror        = "mirror"
	FlagPolicyDir     = "policy-dir"
	FlagIgnoreUnfixed = "ignore-unfixed"

	// Analysis
	FlagAnalysis       = "analysis"
	FlagAnalysisModel  = "analysis-model"
	FlagAnalysisRegion = "analysis-region"

	// Attestation
	FlagSigningKey = "signing-key"

	// Output
	FlagOutputDir           = "output-dir"
	FlagFormat              = "format"
	FlagConsoleFilterStatus = "console-filter-status"
	FlagNoConsole           = "no-console"

	// Runtime
	FlagConfig      = "config"
	FlagConcurrency = "concurrency"
	FlagToolTimeout = "tool-timeout"
)
