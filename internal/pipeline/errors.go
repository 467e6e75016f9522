// Package pipeline holds the error taxonomy and shared audio constants
// used by the armor effect engine, the loudness pipeline, and the batch
// orchestrator.
package pipeline

import "fmt"

// SampleRate is the fixed working sample rate for every intermediate and
// output file. All renders are mono at this rate.
const SampleRate = 44100

// OutputExt is the recognised compressed output extension.
const OutputExt = ".ogg"

// ConfigurationError reports bad CLI or preset input. It is fatal
// immediately: no per-file work is attempted once one is raised.
type ConfigurationError struct {
	Flag   string // offending flag name, empty when not flag-related
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Flag != "" {
		return fmt.Sprintf("invalid %s: %s", e.Flag, e.Reason)
	}
	return e.Reason
}

// UnsupportedInputError reports an input file that none of the available
// decoders could read. Fatal only to that file.
type UnsupportedInputError struct {
	Path string
	Err  error
}

func (e *UnsupportedInputError) Error() string {
	return fmt.Sprintf("cannot decode %s: %v", e.Path, e.Err)
}

func (e *UnsupportedInputError) Unwrap() error { return e.Err }

// ToolchainUnavailableError reports that a required external tool (and
// its fallback, if any) could not be found. Raised at probe time, before
// any worker starts, so it is fatal to the whole run.
type ToolchainUnavailableError struct {
	Tool     string
	Fallback string
}

func (e *ToolchainUnavailableError) Error() string {
	if e.Fallback != "" {
		return fmt.Sprintf("missing dependency: %q (fallback %q also missing)", e.Tool, e.Fallback)
	}
	return fmt.Sprintf("missing dependency: %q", e.Tool)
}

// RenderFailureError reports that every fallback level of the render
// ladder was exhausted for one file. Fatal to that file only; the batch
// continues with the remaining files.
type RenderFailureError struct {
	Path  string
	Stage string
	Err   error
}

func (e *RenderFailureError) Error() string {
	return fmt.Sprintf("render failed at %s for %s: %v", e.Stage, e.Path, e.Err)
}

func (e *RenderFailureError) Unwrap() error { return e.Err }
