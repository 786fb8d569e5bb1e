// Package sandbox evaluates JavaScript in-process on an embedded runtime.
//
// Each run gets a fresh goja runtime, so nothing leaks between submissions,
// but there is no isolation beyond that: the code has whatever the runtime
// exposes. There is also no time or instruction limit. A submission that
// never terminates blocks the calling goroutine forever; callers that need a
// bound must impose it themselves.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dop251/goja"

	"github.com/michaelbrown/polyrun/internal/console"
	"github.com/michaelbrown/polyrun/internal/execution"
)

// Sandbox runs directly evaluable source.
type Sandbox interface {
	Run(ctx context.Context, source string) execution.Result
}

// Runner evaluates JavaScript with console output captured from Console.
type Runner struct {
	Console *console.Console
	Logger  *slog.Logger
}

// NewRunner creates a Runner bound to c. A nil c uses console.Default.
func NewRunner(c *console.Console, logger *slog.Logger) *Runner {
	if c == nil {
		c = console.Default
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{Console: c, Logger: logger}
}

// Run compiles source as the body of a parameterless function and calls it
// once. ctx is only checked before evaluation starts.
func (r *Runner) Run(ctx context.Context, source string) execution.Result {
	if err := ctx.Err(); err != nil {
		return execution.Failf(execution.InfrastructureError, "run not started: %v", err)
	}

	ret, emissions, err := console.Capture(r.Console, func() (string, error) {
		return r.evaluate(source)
	})
	if err != nil {
		r.Logger.Debug("sandbox run failed", "error", err, "emissions", len(emissions))
		return execution.Fail(execution.RuntimeError, describe(err))
	}

	if len(emissions) > 0 {
		return execution.Ok(console.Render(emissions), execution.Metrics{})
	}
	return execution.Ok(ret, execution.Metrics{})
}

// wrap turns source into a function expression. The source starts on the
// first line so reported line numbers match the submission; the newline
// before the closing brace keeps a trailing line comment from swallowing it.
func wrap(source string) string {
	return "(function() {" + source + "\n})"
}

func (r *Runner) evaluate(source string) (ret string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("runtime panic: %v", p)
		}
	}()

	prog, err := goja.Compile("main.js", wrap(source), false)
	if err != nil {
		return "", err
	}

	vm := goja.New()
	if err := bindConsole(vm, r.Console); err != nil {
		return "", fmt.Errorf("binding console: %w", err)
	}

	v, err := vm.RunProgram(prog)
	if err != nil {
		return "", err
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return "", errors.New("compiled source is not callable")
	}

	out, err := fn(goja.Undefined())
	if err != nil {
		return "", err
	}
	if out == nil || goja.IsUndefined(out) || goja.IsNull(out) {
		return "", nil
	}
	return console.Format(export(out)), nil
}

// describe renders an evaluation error as message plus stack, when the
// runtime provides one.
func describe(err error) string {
	var exc *goja.Exception
	if errors.As(err, &exc) {
		return exc.String()
	}
	return err.Error()
}
