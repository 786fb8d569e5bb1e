// Package dispatch is the single entry point for running a submission: it
// resolves the language, picks the execution route and returns one
// normalized result.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/michaelbrown/polyrun/internal/execution"
	"github.com/michaelbrown/polyrun/internal/language"
	"github.com/michaelbrown/polyrun/internal/sandbox"
)

// Executor runs a request on one execution route.
type Executor interface {
	Execute(ctx context.Context, desc language.Descriptor, req execution.Request) execution.Result
}

// RemoteRunner is the part of the remote client the dispatcher uses.
type RemoteRunner interface {
	Run(ctx context.Context, source, languageKey, stdin string) execution.Result
}

// Dispatcher routes requests. It keeps no per-request state, so concurrent
// Dispatch calls are independent. Local runs still serialize on the
// sandbox's console.
type Dispatcher struct {
	registry *language.Registry
	routes   map[language.Route]Executor
	logger   *slog.Logger
}

// New creates a Dispatcher with the two standard routes.
func New(registry *language.Registry, local sandbox.Sandbox, remote RemoteRunner, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		routes: map[language.Route]Executor{
			language.Local:  &localExecutor{sandbox: local, logger: logger},
			language.Remote: &remoteExecutor{client: remote},
		},
		logger: logger,
	}
}

// Registry returns the language registry requests are resolved against.
func (d *Dispatcher) Registry() *language.Registry {
	return d.registry
}

// Dispatch runs req and returns its result. It never panics and never
// retries; every failure is reported in the result.
func (d *Dispatcher) Dispatch(ctx context.Context, req execution.Request) (res execution.Result) {
	id := uuid.NewString()
	log := d.logger.With("request_id", id, "language", req.Language)
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			log.Error("dispatch panicked", "panic", p)
			res = execution.Failf(execution.InfrastructureError, "internal error: %v", p)
		}
		if res.OK() {
			log.Debug("dispatch completed", "duration", time.Since(start))
		} else {
			log.Debug("dispatch errored", "kind", res.Kind(), "duration", time.Since(start))
		}
	}()

	log.Debug("dispatching")
	desc, err := d.registry.Describe(req.Language)
	if err != nil {
		if errors.Is(err, language.ErrNotFound) {
			return execution.Failf(execution.UnsupportedLanguage, "unsupported language %q", req.Language)
		}
		return execution.Failf(execution.InfrastructureError, "resolving language: %v", err)
	}

	exec, ok := d.routes[desc.Route]
	if !ok {
		return execution.Failf(execution.InfrastructureError, "no executor for route %q", desc.Route)
	}
	log.Debug("executing", "route", desc.Route)
	return exec.Execute(ctx, desc, req)
}

// Run is a convenience wrapper around Dispatch.
func (d *Dispatcher) Run(ctx context.Context, source, languageKey, stdin string) execution.Result {
	return d.Dispatch(ctx, execution.Request{Source: source, Language: languageKey, Stdin: stdin})
}
