package toolexec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeRunner is a scripted Runner for tests. Responses are keyed by tool
// name; unknown tools report unavailable.
type FakeRunner struct {
	mu        sync.Mutex
	Responses map[string]Result
	Errs      map[string]error
	Missing   map[string]bool
	Calls     []string
}

func (f *FakeRunner) Run(ctx context.Context, tool string, args ...string) (Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, strings.Join(append([]string{tool}, args...), " "))
	f.mu.Unlock()

	if err := f.Errs[tool]; err != nil {
		return Result{}, err
	}
	res, ok := f.Responses[tool]
	if !ok {
		return Result{}, fmt.Errorf("invoke %s: no scripted response", tool)
	}
	return res, nil
}

func (f *FakeRunner) Available(tool string) bool {
	if f.Missing[tool] {
		return false
	}
	return true
}
