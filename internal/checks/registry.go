package checks

import (
	"fmt"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Check)
	mu       sync.RWMutex
)

func Register(c Check) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[c.ID()]; exists {
		panic(fmt.Sprintf("check %s already registered", c.ID()))
	}
	registry[c.ID()] = c
}

// List returns all registered checks in pipeline order.
func List() []Check {
	mu.RLock()
	defer mu.RUnlock()
	var out []Check
	for _, id := range PipelineOrder {
		if c, ok := registry[id]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Resolve selects checks by comma-separated ID list, preserving pipeline
// order regardless of the order IDs were given in. Empty selects all.
func Resolve(selector string) ([]Check, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return List(), nil
	}

	wanted := make(map[string]bool)
	for _, id := range strings.Split(selector, ",") {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := registry[id]; !ok {
			return nil, fmt.Errorf("check not found: %s", id)
		}
		wanted[id] = true
	}

	var selected []Check
	for _, id := range PipelineOrder {
		if wanted[id] {
			selected = append(selected, registry[id])
		}
	}
	return selected, nil
}
