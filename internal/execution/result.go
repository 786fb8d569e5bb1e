// Package execution holds the request and result types shared by every
// execution backend.
package execution

import "fmt"

// NoOutput is rendered when a run succeeds without producing any output, so
// callers can tell "ran, printed nothing" apart from "not run yet".
const NoOutput = "Code executed successfully (no output)"

// Kind classifies a failed execution.
type Kind string

const (
	UnsupportedLanguage Kind = "unsupported_language"
	CompilationError    Kind = "compilation_error"
	RuntimeError        Kind = "runtime_error"
	ConfigurationError  Kind = "configuration_error"
	InfrastructureError Kind = "infrastructure_error"
)

// Request is a single submission.
type Request struct {
	Source   string `json:"source"`
	Language string `json:"language"`
	Stdin    string `json:"stdin,omitempty"`
}

// Metrics are resource figures reported by a backend. Nil means unreported.
type Metrics struct {
	CPUTimeSeconds *float64 `json:"cpu_time_seconds,omitempty"`
	MemoryKB       *float64 `json:"memory_kb,omitempty"`
}

// Empty reports whether no metric was reported.
func (m Metrics) Empty() bool {
	return m.CPUTimeSeconds == nil && m.MemoryKB == nil
}

// Failure describes why an execution did not produce output.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Result is either a successful run (Output set, Failure nil) or a failed
// one (Failure set, Output empty). Metrics may accompany either.
type Result struct {
	Output  string   `json:"output,omitempty"`
	Metrics Metrics  `json:"metrics"`
	Failure *Failure `json:"failure,omitempty"`
}

// Ok builds a successful result. An empty output is replaced by NoOutput.
func Ok(output string, metrics Metrics) Result {
	if output == "" {
		output = NoOutput
	}
	return Result{Output: output, Metrics: metrics}
}

// Fail builds a failed result.
func Fail(kind Kind, message string) Result {
	return Result{Failure: &Failure{Kind: kind, Message: message}}
}

// Failf builds a failed result with a formatted message.
func Failf(kind Kind, format string, args ...any) Result {
	return Fail(kind, fmt.Sprintf(format, args...))
}

// WithMetrics returns a copy of r carrying m.
func (r Result) WithMetrics(m Metrics) Result {
	r.Metrics = m
	return r
}

// OK reports whether the run succeeded.
func (r Result) OK() bool {
	return r.Failure == nil
}

// Kind returns the failure kind, or "" for a successful result.
func (r Result) Kind() Kind {
	if r.Failure == nil {
		return ""
	}
	return r.Failure.Kind
}

// Err returns the failure as an error, or nil.
func (r Result) Err() error {
	if r.Failure == nil {
		return nil
	}
	return r.Failure
}
