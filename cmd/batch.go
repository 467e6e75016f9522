package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/SaloEater/varefined/internal/batch"
	"github.com/SaloEater/varefined/internal/loudness"
	"github.com/SaloEater/varefined/internal/pipeline"
	"github.com/SaloEater/varefined/internal/preset"
	"github.com/SaloEater/varefined/internal/toolchain"
	"github.com/SaloEater/varefined/internal/tui"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process a whole sound tree",
}

var (
	batRoot         string
	batOutDir       string
	batJobs         int
	batDryRun       bool
	batQuiet        bool
	batSkipExisting bool
	batInPlace      bool
	batHelmetOnly   bool
	batNoTUI        bool

	batLUFS      float64
	batTP        float64
	batLRA       float64
	batNonlinear bool
	batOggQ      int
	batLimit     float64

	batRestore  string
	batStrength string
	batNormalDB float64
	batHelmetDB float64

	batPreset    string
	batWet       float64
	batWetGain   float64
	batCombHz    float64
	batCombDecay float64

	batSoxBin    string
	batFFmpegBin string
)

var batchApplyCmd = &cobra.Command{
	Use:          "apply",
	Short:        "Normalise every voice line and render its helmet variant",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch batch.RestoreMode(batRestore) {
		case batch.RestoreNone, batch.RestoreNormal, batch.RestoreHelmet, batch.RestoreBoth:
		default:
			return &pipeline.ConfigurationError{Flag: "--restore",
				Reason: fmt.Sprintf("want none|normal|helmet|both, got %q", batRestore)}
		}
		switch loudness.Strength(batStrength) {
		case loudness.StrengthMild, loudness.StrengthMedium, loudness.StrengthStrong:
		default:
			return &pipeline.ConfigurationError{Flag: "--restore-strength",
				Reason: fmt.Sprintf("want mild|medium|strong, got %q", batStrength)}
		}

		var overrides []preset.Override
		flags := cmd.Flags()
		if flags.Changed("wet") {
			overrides = append(overrides, func(p *preset.Params) { p.Wet = preset.Clamp01(batWet) })
		}
		if flags.Changed("wet-gain") {
			overrides = append(overrides, func(p *preset.Params) { p.WetGain = batWetGain })
		}
		if flags.Changed("comb-hz") {
			overrides = append(overrides, func(p *preset.Params) { p.CombHz = batCombHz })
		}
		if flags.Changed("comb-decay") {
			overrides = append(overrides, func(p *preset.Params) { p.CombDecay = batCombDecay })
		}
		armor, err := preset.Resolve(batPreset, overrides...)
		if err != nil {
			return err
		}

		tools, err := toolchain.Resolve(batSoxBin, batFFmpegBin)
		if err != nil {
			return err
		}

		// warnings and failures stay visible under --quiet
		warnf := func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "[varefined] "+format+"\n", args...)
		}
		logf := func(format string, args ...any) {
			if !batQuiet {
				warnf(format, args...)
			}
		}

		cfg := &batch.Config{
			Tools:        tools,
			Runner:       toolchain.ExecRunner{},
			Root:         batRoot,
			OutDir:       batOutDir,
			Jobs:         batJobs,
			DryRun:       batDryRun,
			SkipExisting: batSkipExisting,
			InPlace:      batInPlace,
			HelmetOnly:   batHelmetOnly,
			Loudness: loudness.Params{
				TargetLUFS: batLUFS,
				TruePeak:   batTP,
				LRA:        batLRA,
				Linear:     !batNonlinear,
				Limit:      batLimit,
				OggQuality: batOggQ,
			},
			NormalDB:        batNormalDB,
			HelmetDB:        batHelmetDB,
			Restore:         batch.RestoreMode(batRestore),
			RestoreStrength: loudness.Strength(batStrength),
			Armor:           armor,
			Logf:            logf,
			Warnf:           warnf,
		}

		logf("root=%s out=%s jobs=%d", batRoot, batOutDir, cfg.Jobs)
		logf("loudnorm I=%g TP=%g linear=%t limit=%g oggq=%d",
			batLUFS, batTP, !batNonlinear, batLimit, batOggQ)
		logf("restore=%s strength=%s", batRestore, batStrength)
		logf("armor preset=%s wet=%g comb_hz=%g comb_decay=%g",
			batPreset, armor.Wet, armor.CombHz, armor.CombDecay)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		useTUI := wantTUI(batNoTUI, batQuiet, batDryRun, os.Stdout.Fd())
		var summary batch.Summary
		if useTUI {
			summary, err = runBatchTUI(ctx, cfg)
		} else {
			summary, err = batch.Run(ctx, cfg, func(r batch.Result) {
				if r.Status != batch.StatusFailed {
					logf("%s: %s", r.Status, r.Item.Rel)
				}
			})
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				warnf("interrupted")
				printSummary(summary)
			}
			return err
		}

		printSummary(summary)
		return nil
	},
}

// wantTUI decides whether the live progress UI runs: never when
// disabled, quiet or dry-run, and only when stdout is a terminal, so
// piped and scripted invocations fall back to plain log lines.
func wantTUI(noTUI, quiet, dryRun bool, fd uintptr) bool {
	return !noTUI && !quiet && !dryRun && isatty.IsTerminal(fd)
}

// runBatchTUI drives the run under the live progress UI. The pipeline
// runs in the background and posts each result to the program. When
// the UI exits early (q, ctrl+c) the run context is cancelled, and the
// summary is read only after the run goroutine has finished.
func runBatchTUI(ctx context.Context, cfg *batch.Config, opts ...tea.ProgramOption) (batch.Summary, error) {
	items, err := batch.Plan(cfg)
	if err != nil {
		return batch.Summary{}, err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.NewModel(len(items)), opts...)
	// the UI owns the screen
	cfg.Logf = nil
	cfg.Warnf = nil

	var (
		summary batch.Summary
		runErr  error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		summary, runErr = batch.Run(ctx, cfg, func(r batch.Result) {
			p.Send(tui.ResultMsg{Result: r})
		})
		p.Send(tui.DoneMsg{Summary: summary, Err: runErr})
	}()

	_, uiErr := p.Run()
	cancel()
	<-done
	if uiErr != nil {
		return summary, fmt.Errorf("ui error: %w", uiErr)
	}
	return summary, runErr
}

func printSummary(s batch.Summary) {
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("#E95420"))
	gray := lipgloss.NewStyle().Foreground(lipgloss.Color("#9A9EA0"))

	fmt.Printf("done  files=%d  %s  %s  %s  %s\n",
		s.Total,
		green.Render(fmt.Sprintf("ok=%d", s.Succeeded)),
		yellow.Render(fmt.Sprintf("degraded=%d", s.Degraded)),
		gray.Render(fmt.Sprintf("skipped=%d", s.Skipped)),
		red.Render(fmt.Sprintf("failed=%d", s.Failed)),
	)
}

func init() {
	f := batchApplyCmd.Flags()
	f.StringVar(&batRoot, "root", ".", "Input root directory")
	f.StringVar(&batOutDir, "out-dir", "./_armorfx_out", "Output root directory")
	f.IntVar(&batJobs, "jobs", 0, "Worker count (default: CPU count)")
	f.BoolVar(&batDryRun, "dry-run", false, "Log intended outputs without processing")
	f.BoolVar(&batQuiet, "quiet", false, "Warnings and errors only")
	f.BoolVar(&batSkipExisting, "skip-existing", false, "Skip inputs whose helmet output already exists")
	f.BoolVar(&batInPlace, "in-place", false, "Write m_ files next to the source files instead of --out-dir")
	f.BoolVar(&batHelmetOnly, "helmet-only", false, "Skip the normal loudnorm pass, produce only m_ files")
	f.BoolVar(&batNoTUI, "no-tui", false, "Disable the live progress UI")

	f.Float64Var(&batLUFS, "lufs", -16.0, "Target integrated loudness (LUFS)")
	f.Float64Var(&batTP, "tp", -2.0, "True-peak ceiling (dBTP)")
	f.Float64Var(&batLRA, "lra", 11.0, "Loudness range target (LU)")
	f.BoolVar(&batNonlinear, "nonlinear", false, "Two-pass dynamic loudnorm instead of linear")
	f.IntVar(&batOggQ, "oggq", 6, "Ogg Vorbis quality")
	f.Float64Var(&batLimit, "limit", 0.85, "Final limiter threshold (linear amplitude)")

	f.StringVar(&batRestore, "restore", string(batch.RestoreNone), "Restoration mode (none|normal|helmet|both)")
	f.StringVar(&batStrength, "restore-strength", string(loudness.StrengthMild), "Restoration strength (mild|medium|strong)")
	f.Float64Var(&batNormalDB, "normal-db", 0.0, "Gain trim for the normal branch (dB)")
	f.Float64Var(&batHelmetDB, "helmet-db", 0.0, "Gain trim for the helmet branch (dB)")

	f.StringVar(&batPreset, "preset", preset.DefaultName, "Armor preset")
	f.Float64Var(&batWet, "wet", 0, "Wet ratio override (0..1)")
	f.Float64Var(&batWetGain, "wet-gain", 0, "Wet gain override")
	f.Float64Var(&batCombHz, "comb-hz", 0, "Comb resonance frequency override (Hz)")
	f.Float64Var(&batCombDecay, "comb-decay", 0, "Comb decay override")

	f.StringVar(&batSoxBin, "sox", "", "sox_ng/sox binary path")
	f.StringVar(&batFFmpegBin, "ffmpeg", "", "ffmpeg binary path")

	batchCmd.AddCommand(batchApplyCmd)
	rootCmd.AddCommand(batchCmd)
}
