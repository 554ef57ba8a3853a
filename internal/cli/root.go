package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "devguard",
	Short: "Verify a project against hardened-baseline compliance checks",
	Long: `Devguard runs a fixed sequence of compliance checks against a project
(Helm chart, Dockerfile, Kubernetes manifests), aggregates every outcome into
one report, optionally enriches it with an AI analysis pass, and seals the
result in a signed or unsigned attestation envelope.

Devguard is verify-only: it invokes, observes, and records. It never mutates
the project and never re-implements a wrapped tool's logic.

Examples:
	# Show available commands and global flags
	devguard --help

	# Verify the current project
	devguard verify --chart ./chart --dockerfile ./Dockerfile

	# List checks
	devguard checks list

	# Print build info
	devguard version

Output:
	verify streams per-check progress to stderr and prints a report summary
	to stdout (see --format). The full report and attestation envelope are
	written under --output-dir.`,
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
}
