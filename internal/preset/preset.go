// Package preset resolves a named armor preset plus explicit overrides
// into a fully-specified effect parameter set.
package preset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/SaloEater/varefined/internal/pipeline"
)

// Band is one parametric EQ band. Width is a sox bandwidth spec: a bare
// number is interpreted as a Q factor ("1.2" → "1.2q"); recognised unit
// suffixes (q, o, h, k) pass through unchanged.
type Band struct {
	Freq   int
	Width  string
	GainDB float64
}

// Params is the immutable value set describing one armor-effect render.
type Params struct {
	Wet     float64 // wet ratio 0..1 before gain
	WetGain float64 // wet gain multiplier

	Hipass  int // Hz, outer high-pass cutoff
	Lopass  int // Hz, outer low-pass cutoff
	InnerLP int // Hz, inner low-pass that dulls the enclosed-space signal

	CombHz    float64 // resonance frequency the comb delay is derived from
	CombDecay float64
	SlapMs    float64 // slap echo delay
	SlapDecay float64

	EQ1 Band
	EQ2 Band

	HeadroomDB float64 // dB left below full scale when normalising
	Normalize  bool
	OggQuality int
}

func base() Params {
	return Params{
		Wet:        0.30,
		WetGain:    1.00,
		Hipass:     240,
		Lopass:     7200,
		InnerLP:    3600,
		CombHz:     220.0,
		CombDecay:  0.18,
		SlapMs:     7.0,
		SlapDecay:  0.10,
		EQ1:        Band{Freq: 900, Width: "1.2q", GainDB: 3.0},
		EQ2:        Band{Freq: 2400, Width: "1.0q", GainDB: 2.2},
		HeadroomDB: 1.0,
		Normalize:  true,
		OggQuality: 5,
	}
}

func presets() map[string]Params {
	halo := base()
	halo.Wet = 0.34
	halo.CombHz = 235
	halo.CombDecay = 0.20
	halo.EQ1.GainDB = 3.5
	halo.EQ2.GainDB = 2.5

	mild := base()
	mild.Wet = 0.24
	mild.CombDecay = 0.14
	mild.EQ1.GainDB = 2.0
	mild.EQ2.GainDB = 1.5

	heavy := base()
	heavy.Wet = 0.55
	heavy.WetGain = 1.10
	heavy.Hipass = 280
	heavy.Lopass = 5600
	heavy.InnerLP = 3000
	heavy.CombHz = 250
	heavy.CombDecay = 0.32
	heavy.SlapDecay = 0.14
	heavy.EQ1.GainDB = 5.0
	heavy.EQ2.GainDB = 3.5
	heavy.HeadroomDB = 1.5
	heavy.OggQuality = 6

	radio := base()
	radio.Wet = 0.28
	radio.Hipass = 500
	radio.Lopass = 3200
	radio.InnerLP = 2200
	radio.CombHz = 210
	radio.CombDecay = 0.12
	radio.SlapDecay = 0.06
	radio.EQ1.GainDB = 1.5
	radio.EQ2.GainDB = 1.2

	return map[string]Params{
		"halo":   halo,
		"marine": halo, // alias
		"mild":   mild,
		"heavy":  heavy,
		"radio":  radio,
	}
}

// DefaultName is the preset used when none is requested.
const DefaultName = "halo"

// names lists the selectable presets in definition order, aliases
// excluded.
var names = []string{"halo", "mild", "heavy", "radio"}

// Names returns the selectable preset names in definition order.
func Names() []string {
	return append([]string(nil), names...)
}

// Override mutates one field of a resolved parameter set. Overrides are
// applied in the order given; later overrides win.
type Override func(*Params)

// Resolve looks up name and applies overrides on top of it.
func Resolve(name string, overrides ...Override) (Params, error) {
	p, ok := presets()[name]
	if !ok {
		return Params{}, &pipeline.ConfigurationError{
			Flag:   "--preset",
			Reason: fmt.Sprintf("unknown preset %q (known: %s)", name, strings.Join(Names(), ", ")),
		}
	}
	for _, o := range overrides {
		o(&p)
	}
	p.EQ1.Width = NormalizeWidth(p.EQ1.Width)
	p.EQ2.Width = NormalizeWidth(p.EQ2.Width)
	return p, nil
}

// Get returns the named preset without overrides. Exists for the
// presets listing.
func Get(name string) (Params, bool) {
	p, ok := presets()[name]
	return p, ok
}

// NormalizeWidth appends "q" when the value is a plain number, per the
// sox EQ bandwidth convention. Suffixed values pass through unchanged.
func NormalizeWidth(w string) string {
	if _, err := strconv.ParseFloat(w, 64); err == nil {
		return w + "q"
	}
	return w
}

// ParseBand parses a "freq,width,gain" flag value into an EQ band.
// Numeric parse failures are configuration errors naming the flag.
func ParseBand(flag, value string) (Band, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 3 {
		return Band{}, &pipeline.ConfigurationError{
			Flag:   flag,
			Reason: fmt.Sprintf("want freq,width,gain, got %q", value),
		}
	}
	freq, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Band{}, &pipeline.ConfigurationError{Flag: flag, Reason: fmt.Sprintf("bad frequency %q", parts[0])}
	}
	width := strings.TrimSpace(parts[1])
	if width == "" {
		return Band{}, &pipeline.ConfigurationError{Flag: flag, Reason: "empty bandwidth"}
	}
	gain, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
	if err != nil {
		return Band{}, &pipeline.ConfigurationError{Flag: flag, Reason: fmt.Sprintf("bad gain %q", parts[2])}
	}
	return Band{Freq: freq, Width: NormalizeWidth(width), GainDB: gain}, nil
}

// Clamp01 clamps x into [0,1].
func Clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// EffectiveWet returns the wet and dry mix levels after applying the
// wet gain multiplier. The pair always sums to exactly 1.
func (p Params) EffectiveWet() (wet, dry float64) {
	wet = Clamp01(p.Wet * p.WetGain)
	return wet, 1.0 - wet
}

// CombDelayMs derives the comb echo delay from the resonance frequency.
// Non-positive frequencies fall back to a 5 ms floor instead of
// dividing by zero.
func (p Params) CombDelayMs() float64 {
	if p.CombHz > 0 {
		return 1000.0 / p.CombHz
	}
	return 5.0
}
