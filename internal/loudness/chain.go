// Package loudness brings rendered audio to the target integrated
// loudness with optional spectral restoration and a final peak limiter,
// degrading gracefully when the environment lacks a filter.
package loudness

import (
	"fmt"
	"strings"
)

// Strength selects one of the restoration parameter tiers.
type Strength string

const (
	StrengthMild   Strength = "mild"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// restoreChains maps each tier to its ffmpeg filter sequence: rumble
// high-pass, broadband denoise, clarity shelf, harmonic exciter, and a
// de-esser to keep the added brightness from turning sibilant.
var restoreChains = map[Strength]string{
	StrengthMild: "highpass=f=70,afftdn=nr=5:nf=-45:nt=w,highshelf=f=3500:g=2" +
		",aexciter=amount=0.35:drive=2.0:freq=6000:ceil=16000:blend=0:level_in=1:level_out=1" +
		",deesser=i=0.12:m=0.35:f=0.60",
	StrengthMedium: "highpass=f=70,afftdn=nr=7:nf=-45:nt=w,highshelf=f=3200:g=3" +
		",aexciter=amount=0.50:drive=2.2:freq=5800:ceil=16000:blend=0:level_in=1:level_out=1" +
		",deesser=i=0.16:m=0.45:f=0.55",
	StrengthStrong: "highpass=f=80,afftdn=nr=9:nf=-44:nt=w,highshelf=f=3000:g=4" +
		",aexciter=amount=0.70:drive=2.5:freq=5500:ceil=16000:blend=0:level_in=1:level_out=1" +
		",deesser=i=0.20:m=0.55:f=0.50",
}

// RestoreChain returns the filter sequence for a tier, defaulting to
// mild for unknown values.
func RestoreChain(s Strength) string {
	if chain, ok := restoreChains[s]; ok {
		return chain
	}
	return restoreChains[StrengthMild]
}

// Params configures one loudness pass.
type Params struct {
	TargetLUFS float64 // integrated loudness target
	TruePeak   float64 // dBTP ceiling, passed through to loudnorm
	LRA        float64 // loudness range target, passed through
	Linear     bool    // single-measurement linear mode vs two-pass dynamic
	Limit      float64 // final limiter threshold, linear amplitude
	GainDB     float64 // static trim after normalisation; 0 emits nothing
	Restore    bool    // prepend the restoration chain for this branch
	Strength   Strength
	OggQuality int
}

// Strategy tags one chain-builder variant of the fallback ladder.
type Strategy int

const (
	// StrategyFull is the chain as configured, limiter included.
	StrategyFull Strategy = iota
	// StrategyNoLimiter drops the peak limiter for environments whose
	// ffmpeg build lacks alimiter.
	StrategyNoLimiter
	// StrategyLoudnessOnly keeps only loudnorm and the trailing gain
	// trim. Success here is always reported as degraded.
	StrategyLoudnessOnly
)

// Strategies is the ladder in attempt order.
var Strategies = []Strategy{StrategyFull, StrategyNoLimiter, StrategyLoudnessOnly}

func (s Strategy) String() string {
	switch s {
	case StrategyFull:
		return "full"
	case StrategyNoLimiter:
		return "no-limiter"
	case StrategyLoudnessOnly:
		return "loudnorm-only"
	}
	return fmt.Sprintf("strategy(%d)", int(s))
}

// Degraded reports whether a success at this level counts as degraded
// output rather than full success.
func (s Strategy) Degraded() bool { return s != StrategyFull }

// loudnormSpec builds the loudness-normalisation stage. TP and LRA are
// forwarded unmodified; linear=false selects the two-pass dynamic mode.
func loudnormSpec(p Params) string {
	return fmt.Sprintf("loudnorm=I=%g:TP=%g:LRA=%g:linear=%t",
		p.TargetLUFS, p.TruePeak, p.LRA, p.Linear)
}

// volumeSpec builds the static gain trim, or "" when the trim is
// exactly 0 dB.
func volumeSpec(p Params) string {
	if p.GainDB == 0 {
		return ""
	}
	return fmt.Sprintf("volume=%+gdB", p.GainDB)
}

// limiterSpec builds the final hard peak limiter.
func limiterSpec(p Params) string {
	return fmt.Sprintf("alimiter=limit=%g", p.Limit)
}

// BuildChain assembles the filter specification for one ladder level.
// Each level is a pure function of the parameters; empty stages are
// skipped.
func BuildChain(p Params, s Strategy) string {
	var stages []string
	if p.Restore && s != StrategyLoudnessOnly {
		stages = append(stages, RestoreChain(p.Strength))
	}
	stages = append(stages, loudnormSpec(p))
	if v := volumeSpec(p); v != "" {
		stages = append(stages, v)
	}
	if s == StrategyFull {
		stages = append(stages, limiterSpec(p))
	}
	return strings.Join(stages, ",")
}
