package engine

import (
	"context"

	"devguard/internal/checks"
	"devguard/internal/config"
	"devguard/internal/report"
	"devguard/internal/toolexec"

	"golang.org/x/sync/errgroup"
)

// runChecks evaluates the selected checks and streams their records. With
// concurrency 1 (the default) checks run strictly in pipeline order; with
// more, independent checks overlap but records still arrive on a single
// channel for one folding owner, so the document is never written from two
// goroutines.
//
// Every evaluation is bounded by the configured tool timeout. A check never
// fails the stream: whatever happens, it yields exactly one record.
func runChecks(ctx context.Context, cfg *config.Config, runner toolexec.Runner, selected []checks.Check) <-chan report.Record {
	out := make(chan report.Record)

	go func() {
		defer close(out)
		var g errgroup.Group
		g.SetLimit(cfg.Runtime.Concurrency)
		for _, c := range selected {
			g.Go(func() error {
				cctx, cancel := context.WithTimeout(ctx, cfg.Runtime.ToolTimeout)
				defer cancel()
				out <- c.Evaluate(cctx, cfg, runner)
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}
