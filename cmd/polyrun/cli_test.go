package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/michaelbrown/polyrun/internal/config"
	"github.com/michaelbrown/polyrun/internal/console"
	"github.com/michaelbrown/polyrun/internal/execution"
	"github.com/michaelbrown/polyrun/internal/language"
)

func executeCommand(root *cobra.Command, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

// resetFlags undoes flag values left over from a previous Execute on the
// shared command tree.
func resetFlags(t *testing.T) {
	t.Helper()
	for _, c := range append(rootCmd.Commands(), rootCmd) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	configFlag = ""
}

func TestCLIHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedPhrases := []string{
		"polyrun",
		"JavaScript",
		"remote service",
		"run",
		"repl",
		"serve",
		"languages",
	}

	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("help output should contain %q", phrase)
		}
	}
}

func TestCLIRunHelp(t *testing.T) {
	output, err := executeCommand(rootCmd, "run", "--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, phrase := range []string{"--lang", "--code", "--stdin", "--json"} {
		if !strings.Contains(output, phrase) {
			t.Errorf("run help output should contain %q", phrase)
		}
	}
}

func TestCLIRunCode(t *testing.T) {
	resetFlags(t)

	output, err := executeCommand(rootCmd, "run", "-l", "javascript", "-c", "console.log(2 + 2)")
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, output)
	}
	if strings.TrimSpace(output) != "4" {
		t.Errorf("output = %q, want 4", output)
	}
}

func TestCLIRunFileDetectsLanguage(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "hello.ts")
	if err := os.WriteFile(path, []byte(`const who: string = "ts"; console.log("hello " + who);`), 0o644); err != nil {
		t.Fatal(err)
	}

	output, err := executeCommand(rootCmd, "run", path)
	if err != nil {
		t.Fatalf("unexpected error: %v\n%s", err, output)
	}
	if strings.TrimSpace(output) != "hello ts" {
		t.Errorf("output = %q", output)
	}
}

func TestCLIRunFailures(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown language", []string{"run", "-l", "cobol", "-c", "x"}, "Unsupported language"},
		{"type error", []string{"run", "-l", "typescript", "-c", `let n: number = "x";`}, "TS2322"},
		{"runtime error", []string{"run", "-l", "javascript", "-c", "null.x"}, "Runtime error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags(t)
			output, err := executeCommand(rootCmd, tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(output, tt.want) {
				t.Errorf("output %q should contain %q", output, tt.want)
			}
		})
	}
}

func TestCLIRunNeedsLanguage(t *testing.T) {
	resetFlags(t)

	path := filepath.Join(t.TempDir(), "notes.txt")
	os.WriteFile(path, []byte("hi"), 0o644)

	if _, err := executeCommand(rootCmd, "run", path); err == nil {
		t.Error("expected error for unknown extension")
	}
}

func TestCLILanguages(t *testing.T) {
	resetFlags(t)

	output, err := executeCommand(rootCmd, "languages")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range language.Builtin().Keys() {
		if !strings.Contains(output, key) {
			t.Errorf("languages output should contain %q", key)
		}
	}
}

func TestMetricsFooter(t *testing.T) {
	cpu, mem := 0.25, 2048.0

	tests := []struct {
		name string
		m    execution.Metrics
		want string
	}{
		{"none", execution.Metrics{}, ""},
		{"cpu only", execution.Metrics{CPUTimeSeconds: &cpu}, "CPU Time: 0.25s"},
		{"both", execution.Metrics{CPUTimeSeconds: &cpu, MemoryKB: &mem}, "CPU Time: 0.25s | Memory: 2MiB"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := metricsFooter(tt.m); got != tt.want {
				t.Errorf("metricsFooter() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newTestRepl(t *testing.T) (*replSession, *bytes.Buffer) {
	t.Helper()
	d, err := (&config.Config{}).Dispatcher(console.Channels{})
	if err != nil {
		t.Fatal(err)
	}
	out := new(bytes.Buffer)
	s, err := newReplSession(d, "javascript", out)
	if err != nil {
		t.Fatal(err)
	}
	return s, out
}

func TestReplRun(t *testing.T) {
	s, out := newTestRepl(t)

	s.handle("const x = 20;")
	s.handle("console.log(x + 1);")
	if quit := s.handle("/run"); quit {
		t.Fatal("/run should not end the session")
	}
	if !strings.Contains(out.String(), "21") {
		t.Errorf("output = %q", out.String())
	}

	// The buffer survives a run.
	if s.source() != "const x = 20;\nconsole.log(x + 1);" {
		t.Errorf("buffer = %q", s.source())
	}
}

func TestReplCommands(t *testing.T) {
	s, out := newTestRepl(t)

	s.handle("/lang cobol")
	if s.lang != "javascript" {
		t.Errorf("unknown language accepted: %q", s.lang)
	}

	s.handle("/lang typescript")
	if s.lang != "typescript" {
		t.Errorf("lang = %q", s.lang)
	}

	s.handle("/scaffold")
	if len(s.buf) == 0 {
		t.Error("scaffold left the buffer empty")
	}

	s.handle("/clear")
	if len(s.buf) != 0 {
		t.Errorf("buffer after /clear = %q", s.source())
	}

	out.Reset()
	s.handle("/run")
	if !strings.Contains(out.String(), "empty") {
		t.Errorf("running an empty buffer: %q", out.String())
	}

	if !s.handle("/quit") {
		t.Error("/quit should end the session")
	}
}

func TestNewReplSessionUnknownLanguage(t *testing.T) {
	d, _ := (&config.Config{}).Dispatcher(console.Channels{})
	if _, err := newReplSession(d, "cobol", new(bytes.Buffer)); err == nil {
		t.Error("expected error")
	}
}
