package loudness

import (
	"strings"
	"testing"
)

func baseParams() Params {
	return Params{
		TargetLUFS: -16,
		TruePeak:   -2,
		LRA:        11,
		Linear:     true,
		Limit:      0.85,
		OggQuality: 6,
		Strength:   StrengthMild,
	}
}

func TestBuildChain_Full(t *testing.T) {
	got := BuildChain(baseParams(), StrategyFull)
	want := "loudnorm=I=-16:TP=-2:LRA=11:linear=true,alimiter=limit=0.85"
	if got != want {
		t.Errorf("full chain = %q, want %q", got, want)
	}
}

func TestBuildChain_NoLimiter(t *testing.T) {
	got := BuildChain(baseParams(), StrategyNoLimiter)
	if strings.Contains(got, "alimiter") {
		t.Errorf("no-limiter chain still has the limiter: %q", got)
	}
	if !strings.Contains(got, "loudnorm=") {
		t.Errorf("no-limiter chain lost loudnorm: %q", got)
	}
}

func TestBuildChain_LoudnessOnlyDropsRestore(t *testing.T) {
	p := baseParams()
	p.Restore = true
	p.GainDB = -1.5

	got := BuildChain(p, StrategyLoudnessOnly)
	if strings.Contains(got, "afftdn") || strings.Contains(got, "alimiter") {
		t.Errorf("loudnorm-only chain should keep only loudnorm and volume: %q", got)
	}
	if !strings.Contains(got, "volume=-1.5dB") {
		t.Errorf("gain trim missing: %q", got)
	}
}

func TestBuildChain_RestorePrepended(t *testing.T) {
	p := baseParams()
	p.Restore = true
	p.Strength = StrengthStrong

	got := BuildChain(p, StrategyFull)
	if !strings.HasPrefix(got, "highpass=f=80,afftdn=nr=9") {
		t.Errorf("restore chain should lead: %q", got)
	}
	if !strings.HasSuffix(got, "alimiter=limit=0.85") {
		t.Errorf("limiter should trail: %q", got)
	}
}

func TestBuildChain_ZeroGainOmitsVolume(t *testing.T) {
	got := BuildChain(baseParams(), StrategyFull)
	if strings.Contains(got, "volume=") {
		t.Errorf("0 dB trim should emit no volume stage: %q", got)
	}

	p := baseParams()
	p.GainDB = 2
	got = BuildChain(p, StrategyFull)
	if !strings.Contains(got, "volume=+2dB") {
		t.Errorf("positive trim should be signed: %q", got)
	}
}

func TestBuildChain_DynamicMode(t *testing.T) {
	p := baseParams()
	p.Linear = false
	got := BuildChain(p, StrategyFull)
	if !strings.Contains(got, "linear=false") {
		t.Errorf("dynamic mode not reflected: %q", got)
	}
}

func TestRestoreChain_UnknownDefaultsToMild(t *testing.T) {
	if RestoreChain("nope") != RestoreChain(StrengthMild) {
		t.Error("unknown strength should fall back to mild")
	}
}

func TestStrategy_Degraded(t *testing.T) {
	if StrategyFull.Degraded() {
		t.Error("full success is not degraded")
	}
	if !StrategyNoLimiter.Degraded() || !StrategyLoudnessOnly.Degraded() {
		t.Error("fallback levels must report degraded")
	}
	if len(Strategies) != 3 || Strategies[0] != StrategyFull {
		t.Errorf("ladder order wrong: %v", Strategies)
	}
}
