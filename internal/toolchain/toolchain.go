// Package toolchain locates and invokes the external audio tools the
// pipeline depends on. Binary paths are resolved once, up front, from
// explicit flags, environment overrides, and PATH probing with per-tool
// fallbacks; the resolved set is then passed around as read-only state.
package toolchain

import (
	"os"
	"os/exec"

	"github.com/SaloEater/varefined/internal/pipeline"
)

// Environment variables overriding tool binary paths.
const (
	EnvSox     = "VAREFINED_SOX"
	EnvFFmpeg  = "VAREFINED_FFMPEG"
	EnvFFprobe = "VAREFINED_FFPROBE"
)

// Tool describes one external dependency.
type Tool struct {
	Name        string // command name or explicit path (e.g. "sox_ng")
	Fallback    string // alternative command tried when Name is missing
	EnvVar      string // environment variable overriding the path
	Description string
	Required    bool
}

// Tools lists every external dependency the pipeline can use.
var Tools = []Tool{
	{
		Name:        "sox_ng",
		Fallback:    "sox",
		EnvVar:      EnvSox,
		Description: "Armor effect chain, decode and Vorbis encode",
		Required:    true,
	},
	{
		Name:        "ffmpeg",
		EnvVar:      EnvFFmpeg,
		Description: "Loudness normalisation, restoration and encode fallback",
		Required:    true,
	},
	{
		Name:        "ffprobe",
		EnvVar:      EnvFFprobe,
		Description: "Stream inspection for diagnostics",
		Required:    false,
	},
}

// CheckResult contains the result of probing one tool.
type CheckResult struct {
	Tool      Tool
	Available bool
	Path      string // resolved path if found
	Err       error
}

// locate resolves a single candidate binary: an explicit path that
// exists wins, otherwise PATH is searched.
func locate(candidate string) (string, bool) {
	if candidate == "" {
		return "", false
	}
	if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
		return candidate, true
	}
	if path, err := exec.LookPath(candidate); err == nil {
		return path, true
	}
	return "", false
}

// Check probes one tool, honouring its environment override before the
// primary name and fallback.
func Check(t Tool) CheckResult {
	result := CheckResult{Tool: t}
	for _, candidate := range []string{os.Getenv(t.EnvVar), t.Name, t.Fallback} {
		if path, ok := locate(candidate); ok {
			result.Available = true
			result.Path = path
			return result
		}
	}
	result.Err = &pipeline.ToolchainUnavailableError{Tool: t.Name, Fallback: t.Fallback}
	return result
}

// CheckAll probes every known tool.
func CheckAll() []CheckResult {
	results := make([]CheckResult, 0, len(Tools))
	for _, t := range Tools {
		results = append(results, Check(t))
	}
	return results
}

// Set holds the resolved binary paths for one run. FFprobe may be empty;
// Sox and FFmpeg are always set.
type Set struct {
	Sox     string
	FFmpeg  string
	FFprobe string
}

// Resolve produces the tool set for a run. Non-empty flag values take
// precedence over environment overrides, which take precedence over PATH
// probing. A missing required tool yields ToolchainUnavailableError.
func Resolve(soxFlag, ffmpegFlag string) (*Set, error) {
	set := &Set{}

	resolveOne := func(flag string, t Tool) (string, error) {
		if flag != "" {
			if path, ok := locate(flag); ok {
				return path, nil
			}
			return "", &pipeline.ToolchainUnavailableError{Tool: flag}
		}
		r := Check(t)
		if !r.Available {
			if !t.Required {
				return "", nil
			}
			return "", r.Err
		}
		return r.Path, nil
	}

	for _, t := range Tools {
		var flag string
		switch t.Name {
		case "sox_ng":
			flag = soxFlag
		case "ffmpeg":
			flag = ffmpegFlag
		}
		path, err := resolveOne(flag, t)
		if err != nil {
			return nil, err
		}
		switch t.Name {
		case "sox_ng":
			set.Sox = path
		case "ffmpeg":
			set.FFmpeg = path
		case "ffprobe":
			set.FFprobe = path
		}
	}

	return set, nil
}
