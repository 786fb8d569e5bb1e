// Package transform turns typed source dialects into JavaScript the local
// runner can evaluate.
package transform

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/michaelbrown/polyrun/internal/language"
)

// Diagnostic is a single compiler message.
type Diagnostic struct {
	File    string
	Line    int // 1-based, 0 if unknown
	Column  int // 1-based, 0 if unknown
	Code    string
	Message string
}

func (d Diagnostic) String() string {
	var b strings.Builder
	b.WriteString(d.File)
	if d.Line > 0 {
		fmt.Fprintf(&b, "(%d,%d)", d.Line, d.Column)
	}
	b.WriteString(": error")
	if d.Code != "" {
		b.WriteString(" " + d.Code)
	}
	b.WriteString(": " + d.Message)
	return b.String()
}

// CompilationError reports source that is not valid in its dialect.
type CompilationError struct {
	Dialect     language.Dialect
	Diagnostics []Diagnostic
}

func (e *CompilationError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return fmt.Sprintf("%s compilation failed:\n%s", e.Dialect, strings.Join(lines, "\n"))
}

// Transform converts source written in from into JavaScript. JavaScript is
// returned unchanged.
func Transform(source string, from language.Dialect) (string, error) {
	switch from {
	case language.JavaScript:
		return source, nil
	case language.TypeScript:
		return typescript(source)
	default:
		return "", fmt.Errorf("no transform for dialect %q", from)
	}
}

const tsFile = "main.ts"

func typescript(source string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:     api.LoaderTS,
		Target:     api.ES2017,
		Sourcefile: tsFile,
		LogLevel:   api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		return "", &CompilationError{
			Dialect:     language.TypeScript,
			Diagnostics: fromMessages(result.Errors),
		}
	}

	// esbuild strips types without checking them.
	if diags := checkDeclarations(tsFile, source); len(diags) > 0 {
		return "", &CompilationError{Dialect: language.TypeScript, Diagnostics: diags}
	}

	return string(result.Code), nil
}

func fromMessages(msgs []api.Message) []Diagnostic {
	out := make([]Diagnostic, 0, len(msgs))
	for _, m := range msgs {
		d := Diagnostic{File: tsFile, Message: m.Text}
		if loc := m.Location; loc != nil {
			if loc.File != "" {
				d.File = loc.File
			}
			d.Line = loc.Line
			d.Column = loc.Column + 1
		}
		out = append(out, d)
	}
	return out
}
