package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	units "github.com/docker/go-units"

	"github.com/michaelbrown/polyrun/internal/execution"
)

// metricsFooter renders reported metrics as "CPU Time: 0.02s | Memory: 2MiB".
// It returns "" when nothing was reported.
func metricsFooter(m execution.Metrics) string {
	var parts []string
	if m.CPUTimeSeconds != nil {
		parts = append(parts, "CPU Time: "+strconv.FormatFloat(*m.CPUTimeSeconds, 'f', -1, 64)+"s")
	}
	if m.MemoryKB != nil {
		parts = append(parts, "Memory: "+units.BytesSize(*m.MemoryKB*1024))
	}
	return strings.Join(parts, " | ")
}

// printResult writes a successful run to out. A failure is written to errOut
// and returned, so the command exits non-zero.
func printResult(out, errOut io.Writer, res execution.Result) error {
	footer := metricsFooter(res.Metrics)

	if !res.OK() {
		fmt.Fprintf(errOut, "%s%s\n", failureLabel(res.Kind()), res.Failure.Message)
		if footer != "" {
			fmt.Fprintln(errOut, footer)
		}
		return fmt.Errorf("run failed: %s", res.Kind())
	}

	fmt.Fprintln(out, res.Output)
	if footer != "" {
		fmt.Fprintln(out, "\n"+footer)
	}
	return nil
}

func failureLabel(k execution.Kind) string {
	switch k {
	case execution.CompilationError:
		return "Compilation error: "
	case execution.RuntimeError:
		return "Runtime error: "
	case execution.ConfigurationError:
		return "Configuration error: "
	case execution.UnsupportedLanguage:
		return "Unsupported language: "
	default:
		return "Error: "
	}
}
