package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"HIGH", "CRITICAL"}, cfg.Checks.Severity)
	assert.Equal(t, "human", cfg.Output.Format)
	assert.Equal(t, 1, cfg.Runtime.Concurrency)
	assert.Equal(t, 5*time.Minute, cfg.Runtime.ToolTimeout)
}

func TestValidate_Normalization(t *testing.T) {
	cfg := New()
	cfg.Checks.Severity = []string{"high, critical", " low "}
	cfg.Checks.Ignore = []string{"DL3008,DL3013", "", "CVE-2024-1234"}
	cfg.Output.Format = " Structured "
	cfg.Output.ConsoleFilterStatus = []string{"fail,skip"}
	require.NoError(t, cfg.Validate())

	assert.Equal(t, []string{"HIGH", "CRITICAL", "LOW"}, cfg.Checks.Severity)
	assert.Equal(t, []string{"DL3008", "DL3013", "CVE-2024-1234"}, cfg.Checks.Ignore)
	assert.Equal(t, "structured", cfg.Output.Format)
	assert.Equal(t, []string{"FAIL", "SKIP"}, cfg.Output.ConsoleFilterStatus)
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "empty project dir",
			mutate:  func(c *Config) { c.Inputs.ProjectDir = "  " },
			wantErr: "--project",
		},
		{
			name:    "unknown severity",
			mutate:  func(c *Config) { c.Checks.Severity = []string{"SEVERE"} },
			wantErr: "--severity",
		},
		{
			name:    "empty severity list",
			mutate:  func(c *Config) { c.Checks.Severity = []string{" , "} },
			wantErr: "--severity",
		},
		{
			name:    "unknown format",
			mutate:  func(c *Config) { c.Output.Format = "xml" },
			wantErr: "--format",
		},
		{
			name:    "unknown console filter",
			mutate:  func(c *Config) { c.Output.ConsoleFilterStatus = []string{"WARN"} },
			wantErr: "--console-filter-status",
		},
		{
			name:    "empty output dir",
			mutate:  func(c *Config) { c.Output.Dir = "" },
			wantErr: "--output-dir",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Runtime.Concurrency = 0 },
			wantErr: "--concurrency",
		},
		{
			name:    "zero tool timeout",
			mutate:  func(c *Config) { c.Runtime.ToolTimeout = 0 },
			wantErr: "--tool-timeout",
		},
		{
			name: "analysis enabled without model",
			mutate: func(c *Config) {
				c.Analysis.Enabled = true
				c.Analysis.Model = ""
			},
			wantErr: "--analysis-model",
		},
		{
			name: "analysis enabled without region",
			mutate: func(c *Config) {
				c.Analysis.Enabled = true
				c.Analysis.Region = ""
			},
			wantErr: "--analysis-region",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := New()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestSnapshot_DetachedFromConfig(t *testing.T) {
	cfg := New()
	require.NoError(t, cfg.Validate())
	snap := cfg.Snapshot()

	assert.Equal(t, []string{"HIGH", "CRITICAL"}, snap["severity"])
	assert.Equal(t, false, snap["analysis"])
	assert.Equal(t, "human", snap["output_format"])

	// Mutating the config after the snapshot must not leak into it.
	cfg.Checks.Severity[0] = "LOW"
	assert.Equal(t, []string{"HIGH", "CRITICAL"}, snap["severity"])
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestApplyFile(t *testing.T) {
	cfg := New()
	path := writeConfigFile(t, `
inputs:
  chart: ./deploy/chart
  dockerfile: ./Dockerfile
checks:
  severity: [LOW, MEDIUM]
  ignore: [DL3008]
  mirror: mirror.example.com
  ignore_unfixed: true
analysis:
  enabled: true
  region: eu-west-1
attest:
  signing_key: /keys/devguard.key
output:
  dir: ./out
  format: structured
runtime:
  concurrency: 4
  tool_timeout: 90s
`)
	require.NoError(t, ApplyFile(cfg, path, true))

	assert.Equal(t, "./deploy/chart", cfg.Inputs.ChartPath)
	assert.Equal(t, "./Dockerfile", cfg.Inputs.DockerfilePath)
	assert.Equal(t, []string{"LOW", "MEDIUM"}, cfg.Checks.Severity)
	assert.Equal(t, []string{"DL3008"}, cfg.Checks.Ignore)
	assert.Equal(t, "mirror.example.com", cfg.Checks.Mirror)
	assert.True(t, cfg.Checks.IgnoreUnfixed)
	assert.True(t, cfg.Analysis.Enabled)
	assert.Equal(t, "eu-west-1", cfg.Analysis.Region)
	assert.Equal(t, "/keys/devguard.key", cfg.Attest.SigningKeyPath)
	assert.Equal(t, "./out", cfg.Output.Dir)
	assert.Equal(t, "structured", cfg.Output.Format)
	assert.Equal(t, 4, cfg.Runtime.Concurrency)
	assert.Equal(t, 90*time.Second, cfg.Runtime.ToolTimeout)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, "anthropic.claude-3-5-sonnet-20241022-v2:0", cfg.Analysis.Model)
	assert.Equal(t, ".", cfg.Inputs.ProjectDir)
}

func TestApplyFile_PartialFileKeepsDefaults(t *testing.T) {
	cfg := New()
	path := writeConfigFile(t, "checks:\n  mirror: mirror.example.com\n")
	require.NoError(t, ApplyFile(cfg, path, false))

	assert.Equal(t, "mirror.example.com", cfg.Checks.Mirror)
	assert.Equal(t, []string{"HIGH", "CRITICAL"}, cfg.Checks.Severity)
	assert.Equal(t, "devguard-reports", cfg.Output.Dir)
}

func TestApplyFile_Missing(t *testing.T) {
	absent := filepath.Join(t.TempDir(), DefaultFileName)

	t.Run("implicit lookup tolerates absence", func(t *testing.T) {
		assert.NoError(t, ApplyFile(New(), absent, false))
	})

	t.Run("explicit path must exist", func(t *testing.T) {
		assert.Error(t, ApplyFile(New(), absent, true))
	})
}

func TestApplyFile_BadContent(t *testing.T) {
	t.Run("invalid yaml", func(t *testing.T) {
		path := writeConfigFile(t, "checks: [not: a: mapping")
		assert.Error(t, ApplyFile(New(), path, true))
	})

	t.Run("invalid tool timeout", func(t *testing.T) {
		path := writeConfigFile(t, "runtime:\n  tool_timeout: soon\n")
		assert.Error(t, ApplyFile(New(), path, true))
	})
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvMirror, "mirror.example.com")
	t.Setenv(EnvSeverity, "LOW,MEDIUM")
	t.Setenv(EnvSigningKey, "/keys/devguard.key")
	t.Setenv(EnvAnalysis, "true")
	t.Setenv(EnvModel, "anthropic.claude-3-haiku-20240307-v1:0")
	t.Setenv(EnvRegion, "eu-central-1")

	cfg := New()
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, "mirror.example.com", cfg.Checks.Mirror)
	assert.Equal(t, []string{"LOW", "MEDIUM"}, cfg.Checks.Severity)
	assert.Equal(t, "/keys/devguard.key", cfg.Attest.SigningKeyPath)
	assert.True(t, cfg.Analysis.Enabled)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", cfg.Analysis.Model)
	assert.Equal(t, "eu-central-1", cfg.Analysis.Region)
}

func TestApplyEnv_RegionFromFileWinsOverAWSRegion(t *testing.T) {
	t.Setenv(EnvRegion, "eu-central-1")

	cfg := New()
	cfg.Analysis.Region = "ap-southeast-2"
	require.NoError(t, ApplyEnv(cfg))

	assert.Equal(t, "ap-southeast-2", cfg.Analysis.Region)
}

func TestApplyEnv_BadAnalysisValue(t *testing.T) {
	t.Setenv(EnvAnalysis, "maybe")
	assert.Error(t, ApplyEnv(New()))
}
