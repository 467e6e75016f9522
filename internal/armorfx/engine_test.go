package armorfx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SaloEater/varefined/internal/pipeline"
	"github.com/SaloEater/varefined/internal/preset"
	"github.com/SaloEater/varefined/internal/toolchain"
)

// fakeRunner records invocations and simulates tool output by creating
// the file named by the last argument. fail decides per call whether
// the simulated tool errors instead.
type fakeRunner struct {
	calls [][]string
	fail  func(bin string, args []string) error
}

func (f *fakeRunner) Run(_ context.Context, bin string, args ...string) error {
	call := append([]string{bin}, args...)
	f.calls = append(f.calls, call)
	if f.fail != nil {
		if err := f.fail(bin, args); err != nil {
			return err
		}
	}
	if len(args) > 0 {
		out := args[len(args)-1]
		if !strings.HasPrefix(out, "-") {
			os.WriteFile(out, []byte("fake"), 0644)
		}
	}
	return nil
}

func testEngine(r toolchain.Runner) *Engine {
	return &Engine{
		Tools:  &toolchain.Set{Sox: "sox_ng", FFmpeg: "ffmpeg"},
		Runner: r,
	}
}

func TestWetChainArgs_StageOrder(t *testing.T) {
	p, err := preset.Resolve("halo")
	if err != nil {
		t.Fatal(err)
	}
	got := WetChainArgs(p)
	want := []string{
		"highpass", "240",
		"lowpass", "7200",
		"equalizer", "900", "1.2q", "3.5",
		"equalizer", "2400", "1.0q", "2.5",
		"lowpass", "3600",
		"echo", "0.75", "0.75",
		"7", "0.1",
		"4.255", "0.2",
		"lowpass", "7200",
	}
	if len(got) != len(want) {
		t.Fatalf("got %d args, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestWetChainArgs_EndsWithOuterLowpass(t *testing.T) {
	p, _ := preset.Resolve("heavy")
	got := WetChainArgs(p)
	n := len(got)
	if got[n-2] != "lowpass" || got[n-1] != "5600" {
		t.Errorf("chain should end with the outer low-pass, got %v", got[n-2:])
	}
}

func TestMixArgs_LevelsSumToOne(t *testing.T) {
	p, _ := preset.Resolve("heavy") // wet 0.55 * gain 1.10 = 0.605
	got := MixArgs("d.wav", "w.wav", "m.wav", p)
	want := []string{"-m", "-v", "0.395000", "d.wav", "-v", "0.605", "w.wav", "m.wav"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("arg[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGainArgs(t *testing.T) {
	p, _ := preset.Resolve("halo")
	got := GainArgs("in.wav", "out.wav", p)
	want := []string{"in.wav", "out.wav", "gain", "-n", "-1"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("normalise args = %v, want %v", got, want)
		}
	}

	p.Normalize = false
	got = GainArgs("in.wav", "out.wav", p)
	if got[len(got)-1] != "-3" || got[len(got)-2] != "gain" {
		t.Errorf("with normalise off want fixed gain -3, got %v", got)
	}
}

func TestRender_Succeeds(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "line.ogg")
	dst := filepath.Join(dir, "out", "m_line.ogg")
	if err := os.WriteFile(src, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	r := &fakeRunner{}
	e := testEngine(r)
	p, _ := preset.Resolve("halo")

	if err := e.Render(context.Background(), src, dst, p); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("output missing: %v", err)
	}

	// decode, wet chain, mix, gain, encode
	if len(r.calls) != 5 {
		t.Fatalf("expected 5 tool calls, got %d: %v", len(r.calls), r.calls)
	}
	for i, call := range r.calls {
		if call[0] != "sox_ng" {
			t.Errorf("call %d used %q, want sox_ng", i, call[0])
		}
	}

	// no stray temp output next to dst
	left, _ := filepath.Glob(filepath.Join(filepath.Dir(dst), ".tmp_*"))
	if len(left) != 0 {
		t.Errorf("temp output left behind: %v", left)
	}
}

func TestRender_WetOnlySkipsMixAndGain(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "line.ogg")
	dst := filepath.Join(dir, "m_line.ogg")
	os.WriteFile(src, []byte("x"), 0644)

	r := &fakeRunner{}
	e := testEngine(r)
	e.WetOnly = true
	p, _ := preset.Resolve("halo")

	if err := e.Render(context.Background(), src, dst, p); err != nil {
		t.Fatal(err)
	}
	// decode, wet chain, encode only
	if len(r.calls) != 3 {
		t.Fatalf("expected 3 tool calls in wet-only mode, got %d", len(r.calls))
	}
}

func TestRender_PrintOnlyProducesNoFiles(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "line.ogg")
	dst := filepath.Join(dir, "out", "m_line.ogg")
	os.WriteFile(src, []byte("x"), 0644)

	var lines []string
	e := testEngine(toolchain.PrintRunner{Printf: func(format string, args ...any) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}})
	e.PrintOnly = true
	p, _ := preset.Resolve("halo")

	if err := e.Render(context.Background(), src, dst, p); err != nil {
		t.Fatalf("print mode must succeed without real outputs: %v", err)
	}
	// decode, wet chain, mix, gain, encode
	if len(lines) != 5 {
		t.Errorf("expected 5 printed commands, got %d: %v", len(lines), lines)
	}
	if _, err := os.Stat(dst); err == nil {
		t.Error("print mode must not write the output file")
	}
	if _, err := os.Stat(filepath.Dir(dst)); err == nil {
		t.Error("print mode must not create the output directory")
	}
}

func TestRender_DecodeFallsBackToFFmpeg(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "line.ogg")
	dst := filepath.Join(dir, "m_line.ogg")
	os.WriteFile(src, []byte("x"), 0644)

	r := &fakeRunner{}
	r.fail = func(bin string, args []string) error {
		// only the initial sox decode of src fails
		if bin == "sox_ng" && len(args) > 0 && args[0] == src {
			return errors.New("sox FAIL formats: no handler")
		}
		return nil
	}
	e := testEngine(r)
	p, _ := preset.Resolve("halo")

	if err := e.Render(context.Background(), src, dst, p); err != nil {
		t.Fatal(err)
	}
	if r.calls[1][0] != "ffmpeg" {
		t.Errorf("second call should be the ffmpeg decode fallback, got %v", r.calls[1])
	}
}

func TestRender_UnreadableInput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "line.ogg")
	dst := filepath.Join(dir, "m_line.ogg")
	os.WriteFile(src, []byte("x"), 0644)

	r := &fakeRunner{fail: func(bin string, args []string) error {
		if len(args) > 0 && (args[0] == src || contains(args, src)) {
			return errors.New("unreadable")
		}
		return nil
	}}
	e := testEngine(r)
	p, _ := preset.Resolve("halo")

	err := e.Render(context.Background(), src, dst, p)
	var unsup *pipeline.UnsupportedInputError
	if !errors.As(err, &unsup) {
		t.Fatalf("expected UnsupportedInputError, got %v", err)
	}
	if _, statErr := os.Stat(dst); statErr == nil {
		t.Error("no output should exist after decode failure")
	}
}

func TestRender_EncodeFailureLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "line.ogg")
	dst := filepath.Join(dir, "m_line.ogg")
	os.WriteFile(src, []byte("x"), 0644)

	r := &fakeRunner{fail: func(bin string, args []string) error {
		if contains(args, "-C") || contains(args, "libvorbis") {
			return errors.New("encoder exploded")
		}
		return nil
	}}
	e := testEngine(r)
	p, _ := preset.Resolve("halo")

	if err := e.Render(context.Background(), src, dst, p); err == nil {
		t.Fatal("expected encode failure")
	}
	if _, err := os.Stat(dst); err == nil {
		t.Error("failed render must not produce the output file")
	}
	left, _ := filepath.Glob(filepath.Join(dir, ".tmp_*"))
	if len(left) != 0 {
		t.Errorf("temp output left behind: %v", left)
	}
}

func contains(ss []string, want string) bool {
	for _, s := range ss {
		if s == want {
			return true
		}
	}
	return false
}
