package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes one external tool invocation. Every pipeline stage
// goes through a Runner so that fallback behaviour can be exercised in
// tests without real binaries.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) error
}

// ExecRunner invokes tools as subprocesses. Output is captured and only
// surfaced inside the returned error, matching the quiet console the
// batch UI expects.
type ExecRunner struct{}

// Run executes bin with args, honouring context cancellation.
func (ExecRunner) Run(ctx context.Context, bin string, args ...string) error {
	cmd := exec.CommandContext(ctx, bin, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w, output: %s", bin, err, tail(string(output), 400))
	}
	return nil
}

// PrintRunner writes each command line to Printf instead of executing
// it. Used by --print-cmd and dry runs of the effect tool.
type PrintRunner struct {
	Printf func(format string, args ...any)
}

// Run prints the would-be invocation and reports success.
func (r PrintRunner) Run(_ context.Context, bin string, args ...string) error {
	r.Printf("%s %s\n", bin, strings.Join(args, " "))
	return nil
}

// tail returns at most n trailing bytes of s, trimmed of whitespace.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) > n {
		s = "…" + s[len(s)-n:]
	}
	return s
}
