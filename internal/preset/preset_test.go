package preset

import (
	"errors"
	"math"
	"testing"

	"github.com/SaloEater/varefined/internal/pipeline"
)

func TestResolve_AllPresetsInDomain(t *testing.T) {
	names := append(Names(), "marine")
	for _, name := range names {
		p, err := Resolve(name)
		if err != nil {
			t.Fatalf("Resolve(%q) failed: %v", name, err)
		}

		wet, dry := p.EffectiveWet()
		if wet < 0 || wet > 1 {
			t.Errorf("%s: effective wet %g out of [0,1]", name, wet)
		}
		if math.Abs(wet+dry-1.0) > 1e-12 {
			t.Errorf("%s: wet %g + dry %g != 1", name, wet, dry)
		}
		if p.Hipass <= 0 || p.Lopass <= 0 || p.InnerLP <= 0 {
			t.Errorf("%s: non-positive cutoff: hp=%d lp=%d inner=%d", name, p.Hipass, p.Lopass, p.InnerLP)
		}
		if p.CombHz <= 0 {
			t.Errorf("%s: non-positive comb frequency %g", name, p.CombHz)
		}
		if p.EQ1.Freq <= 0 || p.EQ2.Freq <= 0 {
			t.Errorf("%s: non-positive EQ frequency", name)
		}
		if p.OggQuality <= 0 {
			t.Errorf("%s: non-positive quality %d", name, p.OggQuality)
		}
		if p.HeadroomDB < 0 {
			t.Errorf("%s: negative headroom %g", name, p.HeadroomDB)
		}
	}
}

func TestResolve_UnknownPreset(t *testing.T) {
	_, err := Resolve("bogus")
	if err == nil {
		t.Fatal("expected error for unknown preset")
	}
	var cfgErr *pipeline.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if cfgErr.Flag != "--preset" {
		t.Errorf("expected flag --preset, got %q", cfgErr.Flag)
	}
}

func TestResolve_MarineIsHaloAlias(t *testing.T) {
	halo, _ := Resolve("halo")
	marine, _ := Resolve("marine")
	if halo != marine {
		t.Errorf("marine should equal halo: %+v vs %+v", marine, halo)
	}
}

func TestResolve_OverridesApplyInOrder(t *testing.T) {
	p, err := Resolve("halo",
		func(p *Params) { p.Wet = 0.1 },
		func(p *Params) { p.Wet = 0.9 },
	)
	if err != nil {
		t.Fatal(err)
	}
	if p.Wet != 0.9 {
		t.Errorf("later override should win, got wet=%g", p.Wet)
	}
}

func TestResolve_HeavyRaisesQuality(t *testing.T) {
	// The heavy preset bumps encode quality as a side effect of the
	// preset choice; this behaviour is deliberate and load-bearing for
	// existing invocations.
	heavy, _ := Resolve("heavy")
	halo, _ := Resolve("halo")
	if heavy.OggQuality != 6 {
		t.Errorf("heavy quality = %d, want 6", heavy.OggQuality)
	}
	if halo.OggQuality != 5 {
		t.Errorf("halo quality = %d, want 5", halo.OggQuality)
	}
}

func TestNormalizeWidth(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"1.2", "1.2q"},
		{"2", "2q"},
		{"1.2q", "1.2q"},
		{"500h", "500h"},
		{"2o", "2o"},
	}
	for _, tt := range tests {
		if got := NormalizeWidth(tt.in); got != tt.want {
			t.Errorf("NormalizeWidth(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEffectiveWet_Clamped(t *testing.T) {
	tests := []struct {
		wet, gain float64
		wantWet   float64
	}{
		{0.30, 1.00, 0.30},
		{0.55, 1.10, 0.605},
		{0.90, 2.00, 1.0}, // clamped high
		{0.00, 1.00, 0.0},
		{0.50, 0.00, 0.0},
		{-0.2, 1.00, 0.0}, // clamped low
	}
	for _, tt := range tests {
		p := Params{Wet: tt.wet, WetGain: tt.gain}
		wet, dry := p.EffectiveWet()
		if math.Abs(wet-tt.wantWet) > 1e-9 {
			t.Errorf("wet=%g gain=%g: effective wet = %g, want %g", tt.wet, tt.gain, wet, tt.wantWet)
		}
		if math.Abs(wet+dry-1.0) > 1e-12 {
			t.Errorf("wet=%g gain=%g: levels sum to %g, want 1", tt.wet, tt.gain, wet+dry)
		}
	}
}

func TestCombDelayMs(t *testing.T) {
	tests := []struct {
		hz   float64
		want float64
	}{
		{220, 1000.0 / 220},
		{250, 4.0},
		{0, 5.0},  // floor, not a division error
		{-10, 5.0},
	}
	for _, tt := range tests {
		p := Params{CombHz: tt.hz}
		if got := p.CombDelayMs(); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CombDelayMs(hz=%g) = %g, want %g", tt.hz, got, tt.want)
		}
	}
}

func TestParseBand(t *testing.T) {
	band, err := ParseBand("--eq1", "900,1.2,3.0")
	if err != nil {
		t.Fatal(err)
	}
	if band.Freq != 900 || band.Width != "1.2q" || band.GainDB != 3.0 {
		t.Errorf("unexpected band: %+v", band)
	}

	band, err = ParseBand("--eq2", "2400, 1.0q, 2.2")
	if err != nil {
		t.Fatal(err)
	}
	if band.Width != "1.0q" {
		t.Errorf("suffixed width should pass through, got %q", band.Width)
	}
}

func TestParseBand_Errors(t *testing.T) {
	bad := []string{"900,1.2", "abc,1.2,3", "900,1.2,xyz", "900,,3"}
	for _, in := range bad {
		_, err := ParseBand("--eq1", in)
		if err == nil {
			t.Errorf("ParseBand(%q): expected error", in)
			continue
		}
		var cfgErr *pipeline.ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Errorf("ParseBand(%q): expected ConfigurationError, got %T", in, err)
		} else if cfgErr.Flag != "--eq1" {
			t.Errorf("ParseBand(%q): error should name the flag, got %q", in, cfgErr.Flag)
		}
	}
}

func TestNames_DefinitionOrderWithoutAlias(t *testing.T) {
	want := []string{"halo", "mild", "heavy", "radio"}
	got := Names()
	if len(got) != len(want) {
		t.Fatalf("expected %d presets, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
