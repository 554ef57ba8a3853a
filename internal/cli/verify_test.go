package cli

import (
	"os"
	"path/filepath"
	"testing"

	"devguard/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveInputPaths_ConventionalLocations(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "chart"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "chart", "Chart.yaml"), []byte("name: app\nversion: 1.0.0\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "manifests"), 0o755))

	c := config.New()
	c.Inputs.ProjectDir = dir
	resolveInputPaths(c)

	assert.Equal(t, filepath.Join(dir, "chart"), c.Inputs.ChartPath)
	assert.Equal(t, filepath.Join(dir, "Dockerfile"), c.Inputs.DockerfilePath)
	assert.Equal(t, filepath.Join(dir, "manifests"), c.Inputs.ManifestsPath)
}

func TestResolveInputPaths_NothingFoundStaysEmpty(t *testing.T) {
	c := config.New()
	c.Inputs.ProjectDir = t.TempDir()
	resolveInputPaths(c)

	assert.Empty(t, c.Inputs.ChartPath)
	assert.Empty(t, c.Inputs.DockerfilePath)
	assert.Empty(t, c.Inputs.ManifestsPath)
}

func TestResolveInputPaths_ExplicitPathsUntouched(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0o644))

	c := config.New()
	c.Inputs.ProjectDir = dir
	c.Inputs.DockerfilePath = "/elsewhere/Dockerfile"
	resolveInputPaths(c)

	assert.Equal(t, "/elsewhere/Dockerfile", c.Inputs.DockerfilePath)
}

func TestResolveInputPaths_ChartDirWithoutChartYamlIgnored(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "chart"), 0o755))

	c := config.New()
	c.Inputs.ProjectDir = dir
	resolveInputPaths(c)

	assert.Empty(t, c.Inputs.ChartPath)
}

// The verify flags are bound straight into the package-level config, so this
// exercises the real precedence chain once: file < env < explicit flags.
func TestResolveConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	fileContent := `
checks:
  mirror: file-mirror.example.com
  severity: [LOW]
output:
  dir: file-reports
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.DefaultFileName), []byte(fileContent), 0o644))
	t.Setenv(config.EnvMirror, "env-mirror.example.com")

	require.NoError(t, verifyCmd.ParseFlags([]string{
		"--project", dir,
		"--severity", "HIGH",
	}))
	require.NoError(t, resolveConfig(verifyCmd))

	// Env beats the file, the explicit flag beats both, and a value set
	// only in the file survives.
	assert.Equal(t, "env-mirror.example.com", cfg.Checks.Mirror)
	assert.Equal(t, []string{"HIGH"}, cfg.Checks.Severity)
	assert.Equal(t, "file-reports", cfg.Output.Dir)
	assert.Equal(t, dir, cfg.Inputs.ProjectDir)
}
