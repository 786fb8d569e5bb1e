package config

import (
	"fmt"
	"net/http"

	"github.com/michaelbrown/polyrun/internal/console"
	"github.com/michaelbrown/polyrun/internal/dispatch"
	"github.com/michaelbrown/polyrun/internal/remote"
	"github.com/michaelbrown/polyrun/internal/sandbox"
)

// Dispatcher wires the registry, the local runner and the remote client
// from this configuration. Sandbox console output is forwarded to base
// after being captured; pass empty Channels to drop it.
func (c *Config) Dispatcher(base console.Channels) (*dispatch.Dispatcher, error) {
	registry, err := c.Registry()
	if err != nil {
		return nil, fmt.Errorf("loading languages: %w", err)
	}

	logger := c.Logger()

	opts := []remote.Option{
		remote.WithEndpoint(c.Remote.Endpoint),
		remote.WithVersionIndex(c.Remote.VersionIndex),
		remote.WithLogger(logger),
	}
	if c.Remote.Timeout > 0 {
		opts = append(opts, remote.WithHTTPClient(&http.Client{Timeout: c.Remote.Timeout}))
	}
	client := remote.NewClient(c.Credentials(), opts...)

	runner := sandbox.NewRunner(console.New(base), logger)

	return dispatch.New(registry, runner, client, logger), nil
}
