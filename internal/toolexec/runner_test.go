package toolexec

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner_Run(t *testing.T) {
	r := NewExecRunner()

	t.Run("zero exit with stdout", func(t *testing.T) {
		res, err := r.Run(context.Background(), "sh", "-c", "echo hello")
		require.NoError(t, err)
		assert.False(t, res.Failed())
		assert.Equal(t, "hello\n", res.Stdout)
	})

	t.Run("non-zero exit is not an error", func(t *testing.T) {
		res, err := r.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
		require.NoError(t, err)
		assert.True(t, res.Failed())
		assert.Equal(t, 3, res.ExitCode)
		assert.Equal(t, "oops\n", res.Stderr)
	})

	t.Run("deadline reads as timeout, not error", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		res, err := r.Run(ctx, "sh", "-c", "echo partial; sleep 5")
		require.NoError(t, err)
		assert.True(t, res.TimedOut)
		assert.True(t, res.Failed())
		assert.Contains(t, res.Stdout, "partial")
	})

	t.Run("unlaunchable tool is an error", func(t *testing.T) {
		_, err := r.Run(context.Background(), "devguard-no-such-tool-xyz")
		assert.Error(t, err)
	})
}

func TestExecRunner_Available(t *testing.T) {
	r := NewExecRunner()
	assert.True(t, r.Available("sh"))
	assert.False(t, r.Available("devguard-no-such-tool-xyz"))
}

func TestProbeCache_Memoizes(t *testing.T) {
	var c probeCache
	probes := 0
	probe := func() bool {
		probes++
		return true
	}

	assert.True(t, c.available("helm", probe))
	assert.True(t, c.available("helm", probe))
	assert.Equal(t, 1, probes, "second lookup must hit the cache")

	assert.False(t, c.available("trivy", func() bool { return false }))
	assert.False(t, c.available("trivy", func() bool {
		t.Fatal("negative results must be cached too")
		return true
	}))
}

func TestProbeCache_ConcurrentAccess(t *testing.T) {
	var c probeCache
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.True(t, c.available("helm", func() bool { return true }))
		}()
	}
	wg.Wait()
}

func TestResult_Output(t *testing.T) {
	assert.Equal(t, "out\nerr", Result{Stdout: "out", Stderr: "err"}.Output())
	assert.Equal(t, "err", Result{Stderr: "err"}.Output())
	assert.Equal(t, "out", Result{Stdout: "out"}.Output())
}
