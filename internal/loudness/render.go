package loudness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/SaloEater/varefined/internal/pipeline"
	"github.com/SaloEater/varefined/internal/toolchain"
)

// Attempt records one encode attempt of the fallback ladder. Transient:
// it exists only for the duration of a single file's render.
type Attempt struct {
	Strategy Strategy
	Chain    string
	Err      error
}

// Outcome reports how a render concluded.
type Outcome struct {
	Strategy Strategy
	Degraded bool
	Attempts []Attempt
}

// Renderer runs the loudness pass through ffmpeg.
type Renderer struct {
	FFmpeg string
	Runner toolchain.Runner

	// Logf receives degraded-quality warnings. May be nil.
	Logf func(format string, args ...any)
}

func (r *Renderer) logf(format string, args ...any) {
	if r.Logf != nil {
		r.Logf(format, args...)
	}
}

// Render normalises src into dst, walking the fallback ladder until one
// chain variant succeeds. The output is written to a .tmp_ sibling and
// renamed into place only on success, so a failed or cancelled run never
// leaves a corrupt file at dst.
func (r *Renderer) Render(ctx context.Context, src, dst string, p Params) (Outcome, error) {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return Outcome{}, fmt.Errorf("create output dir: %w", err)
	}

	tmp := filepath.Join(filepath.Dir(dst), ".tmp_"+filepath.Base(dst))
	baseArgs := []string{
		"-v", "error", "-y", "-i", src,
		"-ar", strconv.Itoa(pipeline.SampleRate), "-ac", "1",
		"-c:a", "libvorbis", "-q:a", strconv.Itoa(p.OggQuality),
	}

	outcome := Outcome{}
	for _, strategy := range Strategies {
		chain := BuildChain(p, strategy)
		args := append(append([]string{}, baseArgs...), "-af", chain, tmp)
		err := r.Runner.Run(ctx, r.FFmpeg, args...)
		outcome.Attempts = append(outcome.Attempts, Attempt{Strategy: strategy, Chain: chain, Err: err})
		if err != nil {
			continue
		}
		if renameErr := os.Rename(tmp, dst); renameErr != nil {
			os.Remove(tmp)
			return outcome, fmt.Errorf("finalise output: %w", renameErr)
		}
		outcome.Strategy = strategy
		outcome.Degraded = strategy.Degraded()
		if outcome.Degraded {
			r.logf("degraded: %s rendered via %s chain", filepath.Base(dst), strategy)
		}
		return outcome, nil
	}

	os.Remove(tmp)
	last := outcome.Attempts[len(outcome.Attempts)-1]
	return outcome, &pipeline.RenderFailureError{
		Path:  src,
		Stage: last.Strategy.String(),
		Err:   last.Err,
	}
}
