package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/SaloEater/varefined/internal/armorfx"
	"github.com/SaloEater/varefined/internal/loudness"
)

// Status classifies how one work item concluded.
type Status int

const (
	StatusOK Status = iota
	StatusDegraded
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDegraded:
		return "degraded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Result reports the outcome of one work item.
type Result struct {
	Item   WorkItem
	Status Status
	Err    error
}

// Summary aggregates a whole run.
type Summary struct {
	Total     int
	Succeeded int
	Degraded  int
	Skipped   int
	Failed    int
}

func (s *Summary) add(r Result) {
	switch r.Status {
	case StatusOK:
		s.Succeeded++
	case StatusDegraded:
		s.Degraded++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Run plans the work list and executes it. onResult, when non-nil, is
// called once per item as it completes, in completion order. Per-file
// failures are recorded in the summary and never abort the batch; the
// returned error covers only structural problems.
func Run(ctx context.Context, cfg *Config, onResult func(Result)) (Summary, error) {
	items, err := Plan(cfg)
	if err != nil {
		return Summary{}, err
	}
	summary := Summary{Total: len(items)}
	if len(items) == 0 {
		cfg.logf("no %s files found under %s", "*.ogg", cfg.Root)
		return summary, nil
	}

	if cfg.DryRun {
		for _, item := range items {
			if !cfg.HelmetOnly {
				cfg.logf("DRY normal: %s -> %s", item.Rel, item.NormalOut)
			}
			cfg.logf("DRY helmet: %s -> %s", item.Rel, item.HelmetOut)
		}
		return summary, nil
	}

	work := make(chan WorkItem)
	results := make(chan Result)

	var wg sync.WaitGroup
	for i := 0; i < cfg.jobs(); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range work {
				results <- processItem(ctx, cfg, item)
			}
		}()
	}

	go func() {
		defer close(work)
		for _, item := range items {
			select {
			case work <- item:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		summary.add(r)
		if r.Status == StatusFailed {
			cfg.warnf("FAIL: %s: %v", r.Item.Rel, r.Err)
		}
		if onResult != nil {
			onResult(r)
		}
	}

	return summary, ctx.Err()
}

// processItem runs one input end-to-end: the normal loudness branch,
// then the armor effect into a scratch file followed by the helmet
// loudness branch. Errors are caught here, at the worker boundary, and
// folded into the result.
func processItem(ctx context.Context, cfg *Config, item WorkItem) Result {
	// skip-existing guards on the helmet output alone; no hashing.
	if cfg.SkipExisting {
		if _, err := os.Stat(item.HelmetOut); err == nil {
			return Result{Item: item, Status: StatusSkipped}
		}
	}

	// degraded-quality notes are warnings, not info
	renderer := &loudness.Renderer{
		FFmpeg: cfg.Tools.FFmpeg,
		Runner: cfg.Runner,
		Logf:   cfg.Warnf,
	}
	degraded := false

	if !cfg.HelmetOnly {
		outcome, err := renderer.Render(ctx, item.Input, item.NormalOut,
			cfg.branchParams("normal", cfg.NormalDB))
		if err != nil {
			return Result{Item: item, Status: StatusFailed, Err: fmt.Errorf("normal branch: %w", err)}
		}
		degraded = degraded || outcome.Degraded
	}

	engine := &armorfx.Engine{Tools: cfg.Tools, Runner: cfg.Runner, Logf: cfg.Logf}

	td, err := os.MkdirTemp("", "armorfx_batch.")
	if err != nil {
		return Result{Item: item, Status: StatusFailed, Err: err}
	}
	defer os.RemoveAll(td)

	raw := filepath.Join(td, "raw_"+filepath.Base(item.Input))
	if err := engine.Render(ctx, item.Input, raw, cfg.Armor); err != nil {
		return Result{Item: item, Status: StatusFailed, Err: fmt.Errorf("armor effect: %w", err)}
	}

	outcome, err := renderer.Render(ctx, raw, item.HelmetOut,
		cfg.branchParams("helmet", cfg.HelmetDB))
	if err != nil {
		return Result{Item: item, Status: StatusFailed, Err: fmt.Errorf("helmet branch: %w", err)}
	}
	degraded = degraded || outcome.Degraded

	if degraded {
		return Result{Item: item, Status: StatusDegraded}
	}
	return Result{Item: item, Status: StatusOK}
}
