// Package armorfx renders the helmet/armor variant of a voice line: a
// wet DSP chain blended with the dry signal, normalised and encoded to
// Ogg Vorbis at the fixed working rate.
package armorfx

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/SaloEater/varefined/internal/pipeline"
	"github.com/SaloEater/varefined/internal/preset"
	"github.com/SaloEater/varefined/internal/toolchain"
)

// Engine applies the armor effect using the resolved external tools.
type Engine struct {
	Tools  *toolchain.Set
	Runner toolchain.Runner

	// WetOnly encodes the wet chain output alone, skipping mix and
	// normalisation. Diagnostic use only, never set in batch runs.
	WetOnly bool

	// PrintOnly marks the runner as non-executing (a PrintRunner): no
	// files are produced, so the finalise rename is skipped.
	PrintOnly bool

	// KeepTmp retains the per-render temp directory for inspection.
	KeepTmp bool

	// Logf receives debug notes (decode fallbacks, temp dir location).
	// May be nil.
	Logf func(format string, args ...any)
}

func (e *Engine) logf(format string, args ...any) {
	if e.Logf != nil {
		e.Logf(format, args...)
	}
}

// sr is the fixed working sample rate as a command argument.
var sr = strconv.Itoa(pipeline.SampleRate)

// WetChainArgs builds the sox effect arguments producing the wet signal
// from the dry intermediate. Stage order is fixed: high-pass, low-pass,
// both EQ bands, the inner low-pass that dulls the enclosed-space
// signal, the slap and comb echo taps, then the outer low-pass again to
// tame ringing the comb introduces.
func WetChainArgs(p preset.Params) []string {
	combMs := p.CombDelayMs()
	return []string{
		"highpass", strconv.Itoa(p.Hipass),
		"lowpass", strconv.Itoa(p.Lopass),
		"equalizer", strconv.Itoa(p.EQ1.Freq), preset.NormalizeWidth(p.EQ1.Width), formatFloat(p.EQ1.GainDB),
		"equalizer", strconv.Itoa(p.EQ2.Freq), preset.NormalizeWidth(p.EQ2.Width), formatFloat(p.EQ2.GainDB),
		"lowpass", strconv.Itoa(p.InnerLP),
		"echo", "0.75", "0.75",
		formatFloat(p.SlapMs), formatFloat(p.SlapDecay),
		fmt.Sprintf("%.3f", combMs), formatFloat(p.CombDecay),
		"lowpass", strconv.Itoa(p.Lopass),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// MixArgs builds the sox mix invocation blending dry and wet at their
// respective levels. Levels always sum to exactly 1.
func MixArgs(dry, wet, out string, p preset.Params) []string {
	wetLevel, dryLevel := p.EffectiveWet()
	return []string{
		"-m",
		"-v", fmt.Sprintf("%.6f", dryLevel), dry,
		"-v", fmt.Sprintf("%.3f", wetLevel), wet,
		out,
	}
}

// GainArgs builds the headroom stage: peak-normalise leaving the
// configured headroom, or a fixed -3 dB safety cut when normalisation
// is disabled.
func GainArgs(in, out string, p preset.Params) []string {
	if p.Normalize {
		return []string{in, out, "gain", "-n", fmt.Sprintf("-%g", p.HeadroomDB)}
	}
	return []string{in, out, "gain", "-3"}
}

// decodeToWav resamples src to a mono WAV at the working rate. sox is
// tried first; ffmpeg covers formats sox cannot read.
func (e *Engine) decodeToWav(ctx context.Context, src, dst string) error {
	if err := e.Runner.Run(ctx, e.Tools.Sox, src, "-r", sr, "-c", "1", dst); err == nil {
		return nil
	}
	e.logf("sox decode failed for %s; trying ffmpeg", filepath.Base(src))
	if err := e.Runner.Run(ctx, e.Tools.FFmpeg, "-v", "error", "-y", "-i", src,
		"-ar", sr, "-ac", "1", dst); err != nil {
		return &pipeline.UnsupportedInputError{Path: src, Err: err}
	}
	return nil
}

// encodeToOgg writes src to dst as mono Vorbis at the working rate.
// sox is tried first; the ffmpeg fallback encodes at libvorbis q5
// regardless of the requested quality, matching older tool behaviour.
func (e *Engine) encodeToOgg(ctx context.Context, src, dst string, quality int) error {
	if err := e.Runner.Run(ctx, e.Tools.Sox, "-r", sr, "-c", "1",
		"-C", strconv.Itoa(quality), src, dst); err == nil {
		return nil
	}
	e.logf("sox encode failed; trying ffmpeg")
	return e.Runner.Run(ctx, e.Tools.FFmpeg, "-v", "error", "-y", "-i", src,
		"-ar", sr, "-ac", "1", "-c:a", "libvorbis", "-q:a", "5", dst)
}

// Render transforms src into its helmet rendition at dst. Intermediates
// live in a per-render temp directory removed on every path unless
// KeepTmp is set; the final file is written to a temporary name beside
// dst and renamed into place only on success.
func (e *Engine) Render(ctx context.Context, src, dst string, p preset.Params) error {
	if !e.PrintOnly {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	td, err := os.MkdirTemp("", "armorfx.")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	if e.KeepTmp {
		e.logf("keeping temp dir %s", td)
	} else {
		defer os.RemoveAll(td)
	}

	dry := filepath.Join(td, "dry.wav")
	wet := filepath.Join(td, "wet.wav")
	mix := filepath.Join(td, "mix.wav")
	final := filepath.Join(td, "final.wav")

	if err := e.decodeToWav(ctx, src, dry); err != nil {
		return err
	}

	wetArgs := append([]string{dry, wet}, WetChainArgs(p)...)
	if err := e.Runner.Run(ctx, e.Tools.Sox, wetArgs...); err != nil {
		return fmt.Errorf("wet chain: %w", err)
	}

	encodeSrc := final
	if e.WetOnly {
		encodeSrc = wet
	} else {
		if err := e.Runner.Run(ctx, e.Tools.Sox, MixArgs(dry, wet, mix, p)...); err != nil {
			return fmt.Errorf("mix: %w", err)
		}
		if err := e.Runner.Run(ctx, e.Tools.Sox, GainArgs(mix, final, p)...); err != nil {
			return fmt.Errorf("gain: %w", err)
		}
	}

	tmpOut := filepath.Join(filepath.Dir(dst), ".tmp_"+filepath.Base(dst))
	if err := e.encodeToOgg(ctx, encodeSrc, tmpOut, p.OggQuality); err != nil {
		os.Remove(tmpOut)
		return fmt.Errorf("encode: %w", err)
	}
	if e.PrintOnly {
		return nil
	}
	if err := os.Rename(tmpOut, dst); err != nil {
		os.Remove(tmpOut)
		return fmt.Errorf("finalise output: %w", err)
	}
	return nil
}

// Play previews path with whichever playback tool is on PATH. sox's
// play is preferred, ffplay covers ffmpeg-only installs.
func (e *Engine) Play(ctx context.Context, path string) error {
	for _, bin := range []string{"play", "ffplay"} {
		if _, err := exec.LookPath(bin); err != nil {
			continue
		}
		if bin == "ffplay" {
			return e.Runner.Run(ctx, bin, "-nodisp", "-autoexit", "-loglevel", "error", path)
		}
		return e.Runner.Run(ctx, bin, path)
	}
	return fmt.Errorf("no playback tool found (tried play, ffplay)")
}
