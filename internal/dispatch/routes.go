package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/michaelbrown/polyrun/internal/execution"
	"github.com/michaelbrown/polyrun/internal/language"
	"github.com/michaelbrown/polyrun/internal/sandbox"
	"github.com/michaelbrown/polyrun/internal/transform"
)

// localExecutor transforms the source when its dialect needs it, then runs
// it in the sandbox. Stdin is ignored: local code has no input stream.
type localExecutor struct {
	sandbox sandbox.Sandbox
	logger  *slog.Logger
}

func (e *localExecutor) Execute(ctx context.Context, desc language.Descriptor, req execution.Request) execution.Result {
	source := req.Source
	if desc.NeedsTransform() {
		e.logger.Debug("transforming", "dialect", desc.Dialect)
		out, err := transform.Transform(source, desc.Dialect)
		if err != nil {
			var cerr *transform.CompilationError
			if errors.As(err, &cerr) {
				return execution.Fail(execution.CompilationError, cerr.Error())
			}
			return execution.Failf(execution.InfrastructureError, "transforming source: %v", err)
		}
		source = out
	}
	return e.sandbox.Run(ctx, source)
}

// remoteExecutor hands the request to the remote service unchanged.
type remoteExecutor struct {
	client RemoteRunner
}

func (e *remoteExecutor) Execute(ctx context.Context, desc language.Descriptor, req execution.Request) execution.Result {
	return e.client.Run(ctx, req.Source, desc.Key, req.Stdin)
}
