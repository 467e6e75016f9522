package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SaloEater/varefined/internal/armorfx"
	"github.com/SaloEater/varefined/internal/pipeline"
	"github.com/SaloEater/varefined/internal/preset"
	"github.com/SaloEater/varefined/internal/toolchain"
)

var armorfxCmd = &cobra.Command{
	Use:   "armorfx",
	Short: "Render a single file through the helmet/armor effect chain",
}

var armorfxPresetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List available armor presets",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range preset.Names() {
			p, _ := preset.Get(name)
			fmt.Printf("  %-8s wet=%g  comb_hz=%g  comb_decay=%g\n",
				name, p.Wet, p.CombHz, p.CombDecay)
		}
	},
}

var (
	fxInput      string
	fxOutput     string
	fxPreset     string
	fxWet        float64
	fxWetGain    float64
	fxHipass     int
	fxLopass     int
	fxInnerLP    int
	fxCombHz     float64
	fxCombDecay  float64
	fxSlapMs     float64
	fxSlapDecay  float64
	fxEQ1        string
	fxEQ2        string
	fxHeadroom   float64
	fxNoNorm     bool
	fxQuality    int
	fxWetOnly    bool
	fxDryRun     bool
	fxPrintCmd   bool
	fxDumpParams bool
	fxKeepTmp    bool
	fxPlay       bool
	fxSoxBin     string
	fxFFmpegBin  string
)

// fxOverrides turns changed flags into ordered preset overrides.
func fxOverrides(flags interface{ Changed(string) bool }) []preset.Override {
	var overrides []preset.Override
	add := func(name string, o preset.Override) {
		if flags.Changed(name) {
			overrides = append(overrides, o)
		}
	}
	add("wet", func(p *preset.Params) { p.Wet = preset.Clamp01(fxWet) })
	add("wet-gain", func(p *preset.Params) { p.WetGain = fxWetGain })
	add("hipass", func(p *preset.Params) { p.Hipass = fxHipass })
	add("lopass", func(p *preset.Params) { p.Lopass = fxLopass })
	add("innerlp", func(p *preset.Params) { p.InnerLP = fxInnerLP })
	add("comb-hz", func(p *preset.Params) { p.CombHz = fxCombHz })
	add("comb-decay", func(p *preset.Params) { p.CombDecay = fxCombDecay })
	add("slap-ms", func(p *preset.Params) { p.SlapMs = fxSlapMs })
	add("slap-decay", func(p *preset.Params) { p.SlapDecay = fxSlapDecay })
	add("headroom", func(p *preset.Params) { p.HeadroomDB = fxHeadroom })
	add("no-normalize", func(p *preset.Params) { p.Normalize = !fxNoNorm })
	add("quality", func(p *preset.Params) { p.OggQuality = fxQuality })
	return overrides
}

var armorfxApplyCmd = &cobra.Command{
	Use:          "apply",
	Short:        "Apply the armor effect to one file",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !strings.EqualFold(filepath.Ext(fxOutput), pipeline.OutputExt) {
			return &pipeline.ConfigurationError{
				Flag:   "-o",
				Reason: fmt.Sprintf("output must have the %s extension, got %q", pipeline.OutputExt, fxOutput),
			}
		}

		overrides := fxOverrides(cmd.Flags())
		if cmd.Flags().Changed("eq1") {
			band, err := preset.ParseBand("--eq1", fxEQ1)
			if err != nil {
				return err
			}
			overrides = append(overrides, func(p *preset.Params) { p.EQ1 = band })
		}
		if cmd.Flags().Changed("eq2") {
			band, err := preset.ParseBand("--eq2", fxEQ2)
			if err != nil {
				return err
			}
			overrides = append(overrides, func(p *preset.Params) { p.EQ2 = band })
		}

		params, err := preset.Resolve(fxPreset, overrides...)
		if err != nil {
			return err
		}

		if fxDumpParams {
			dumpParams(params)
		}
		if fxDryRun {
			fmt.Fprintf(os.Stderr, "[varefined] DRY armorfx: %s -> %s (preset=%s)\n",
				fxInput, fxOutput, fxPreset)
			return nil
		}

		tools, err := toolchain.Resolve(fxSoxBin, fxFFmpegBin)
		if err != nil {
			return err
		}

		var runner toolchain.Runner = toolchain.ExecRunner{}
		if fxPrintCmd {
			runner = toolchain.PrintRunner{Printf: func(format string, args ...any) {
				fmt.Printf(format, args...)
			}}
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		engine := &armorfx.Engine{
			Tools:     tools,
			Runner:    runner,
			WetOnly:   fxWetOnly,
			PrintOnly: fxPrintCmd,
			KeepTmp:   fxKeepTmp,
			Logf: func(format string, args ...any) {
				fmt.Fprintf(os.Stderr, "[varefined] "+format+"\n", args...)
			},
		}
		if err := engine.Render(ctx, fxInput, fxOutput, params); err != nil {
			return err
		}

		if fxPlay && !fxPrintCmd {
			if err := engine.Play(ctx, fxOutput); err != nil {
				fmt.Fprintf(os.Stderr, "[varefined] playback: %v\n", err)
			}
		}
		return nil
	},
}

func dumpParams(p preset.Params) {
	wet, dry := p.EffectiveWet()
	fmt.Printf("wet=%g wet_gain=%g (effective wet=%g dry=%g)\n", p.Wet, p.WetGain, wet, dry)
	fmt.Printf("hipass=%d lopass=%d inner_lp=%d\n", p.Hipass, p.Lopass, p.InnerLP)
	fmt.Printf("comb_hz=%g comb_delay_ms=%.3f comb_decay=%g\n", p.CombHz, p.CombDelayMs(), p.CombDecay)
	fmt.Printf("slap_ms=%g slap_decay=%g\n", p.SlapMs, p.SlapDecay)
	fmt.Printf("eq1=%d,%s,%g eq2=%d,%s,%g\n",
		p.EQ1.Freq, p.EQ1.Width, p.EQ1.GainDB, p.EQ2.Freq, p.EQ2.Width, p.EQ2.GainDB)
	fmt.Printf("headroom_db=%g normalize=%t ogg_quality=%d\n", p.HeadroomDB, p.Normalize, p.OggQuality)
}

func init() {
	f := armorfxApplyCmd.Flags()
	f.StringVarP(&fxInput, "input", "i", "", "Input audio file")
	f.StringVarP(&fxOutput, "output", "o", "", "Output .ogg file")
	f.StringVar(&fxPreset, "preset", preset.DefaultName, "Armor preset ("+strings.Join(preset.Names(), "|")+")")
	f.Float64Var(&fxWet, "wet", 0, "Wet ratio (0..1)")
	f.Float64Var(&fxWetGain, "wet-gain", 0, "Wet gain multiplier")
	f.IntVar(&fxHipass, "hipass", 0, "High-pass cutoff (Hz)")
	f.IntVar(&fxLopass, "lopass", 0, "Low-pass cutoff (Hz)")
	f.IntVar(&fxInnerLP, "innerlp", 0, "Inner low-pass cutoff (Hz)")
	f.Float64Var(&fxCombHz, "comb-hz", 0, "Comb resonance frequency (Hz)")
	f.Float64Var(&fxCombDecay, "comb-decay", 0, "Comb echo decay")
	f.Float64Var(&fxSlapMs, "slap-ms", 0, "Slap echo delay (ms)")
	f.Float64Var(&fxSlapDecay, "slap-decay", 0, "Slap echo decay")
	f.StringVar(&fxEQ1, "eq1", "", "EQ band 1 as freq,width,gain (e.g. 900,1.2q,3.0)")
	f.StringVar(&fxEQ2, "eq2", "", "EQ band 2 as freq,width,gain")
	f.Float64Var(&fxHeadroom, "headroom", 0, "Normalisation headroom (dB)")
	f.BoolVar(&fxNoNorm, "no-normalize", false, "Disable peak normalisation (-3 dB safety gain instead)")
	f.IntVar(&fxQuality, "quality", 0, "Ogg Vorbis quality")
	f.BoolVar(&fxWetOnly, "wet-only", false, "Encode the wet signal alone (diagnostics)")
	f.BoolVar(&fxDryRun, "dry-run", false, "Log intended work without running any tool")
	f.BoolVar(&fxPrintCmd, "print-cmd", false, "Print tool command lines instead of executing them")
	f.BoolVar(&fxDumpParams, "dump-params", false, "Print the resolved parameter set")
	f.BoolVar(&fxKeepTmp, "keep-tmp", false, "Keep the temp directory with intermediates")
	f.BoolVar(&fxPlay, "play", false, "Play the result after rendering")
	f.StringVar(&fxSoxBin, "sox", "", "sox_ng/sox binary path")
	f.StringVar(&fxFFmpegBin, "ffmpeg", "", "ffmpeg binary path")
	_ = armorfxApplyCmd.MarkFlagRequired("input")
	_ = armorfxApplyCmd.MarkFlagRequired("output")

	armorfxCmd.AddCommand(armorfxPresetsCmd)
	armorfxCmd.AddCommand(armorfxApplyCmd)
	rootCmd.AddCommand(armorfxCmd)
}
