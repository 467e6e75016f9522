// Package batch discovers eligible voice files and fans the two-stage
// pipeline out across a bounded worker pool: every input yields a
// loudness-normalised copy and an m_-prefixed helmet variant.
package batch

import (
	"runtime"

	"github.com/SaloEater/varefined/internal/loudness"
	"github.com/SaloEater/varefined/internal/preset"
	"github.com/SaloEater/varefined/internal/toolchain"
)

// HelmetPrefix marks helmet-variant output filenames. Inputs already
// carrying it are never reprocessed.
const HelmetPrefix = "m_"

// tmpPrefix marks partially-written outputs, excluded from scans.
const tmpPrefix = ".tmp_"

// RestoreMode selects which branches get the restoration chain.
type RestoreMode string

const (
	RestoreNone   RestoreMode = "none"
	RestoreNormal RestoreMode = "normal"
	RestoreHelmet RestoreMode = "helmet"
	RestoreBoth   RestoreMode = "both"
)

// appliesTo reports whether the mode enables restoration for a branch
// ("normal" or "helmet").
func (m RestoreMode) appliesTo(branch string) bool {
	return m == RestoreBoth || string(m) == branch
}

// Config is the immutable per-run configuration handed to every worker.
// Workers share nothing else.
type Config struct {
	Tools  *toolchain.Set
	Runner toolchain.Runner

	Root   string
	OutDir string
	Jobs   int

	DryRun       bool
	SkipExisting bool
	InPlace      bool // write m_ files next to the sources instead of OutDir
	HelmetOnly   bool // skip the normal loudnorm branch

	Loudness        loudness.Params // branch gain trim is set per branch below
	NormalDB        float64
	HelmetDB        float64
	Restore         RestoreMode
	RestoreStrength loudness.Strength

	Armor preset.Params

	// Logf receives run-level info lines. May be nil.
	Logf func(format string, args ...any)

	// Warnf receives per-file failures and degraded-quality warnings.
	// Stays active when info logging is suppressed. May be nil.
	Warnf func(format string, args ...any)
}

func (c *Config) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}

func (c *Config) warnf(format string, args ...any) {
	if c.Warnf != nil {
		c.Warnf(format, args...)
	}
}

// jobs returns the worker pool size, defaulting to the processor count.
func (c *Config) jobs() int {
	if c.Jobs > 0 {
		return c.Jobs
	}
	return runtime.NumCPU()
}

// branchParams derives the loudness parameters for one branch from the
// shared base: restoration on/off and the per-group gain trim.
func (c *Config) branchParams(branch string, gainDB float64) loudness.Params {
	p := c.Loudness
	p.Restore = c.Restore.appliesTo(branch)
	p.Strength = c.RestoreStrength
	p.GainDB = gainDB
	return p
}
