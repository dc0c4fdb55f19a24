package swarmgate

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/datafund/swarmgate/internal/swarmgate/config"
	"github.com/datafund/swarmgate/internal/swarmgate/gateway"
	"github.com/datafund/swarmgate/internal/swarmgate/tools"
	"github.com/datafund/swarmgate/pkg/logger"
)

// Run wires the gateway client into the tool adapter and serves MCP over
// stdio until the client disconnects.
func Run(cfg *config.Config) error {
	if err := logger.Init(cfg.LogLevel); err != nil {
		return err
	}

	client := gateway.NewClient(&gateway.Config{
		BaseURL: cfg.Gateway.URL,
		Timeout: cfg.Gateway.Timeout,
		Retry: gateway.RetryPolicy{
			MaxRetries:  cfg.Gateway.Retries,
			BackoffBase: cfg.Gateway.BackoffBase,
			BackoffMax:  cfg.Gateway.BackoffMax,
		},
		UserAgent: fmt.Sprintf("%s/%s", cfg.Server.Name, cfg.Server.Version),
	}, nil)

	adapter := tools.NewAdapter(client, tools.Defaults{
		StampAmount: cfg.Stamp.DefaultAmount,
		StampDepth:  cfg.Stamp.DefaultDepth,
		StampID:     cfg.Stamp.DefaultID,
	})

	s := server.NewMCPServer(cfg.Server.Name, cfg.Server.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	adapter.Register(s)

	logger.Info("starting %s v%s (gateway %s, timeout %s, retries %d)",
		cfg.Server.Name, cfg.Server.Version, cfg.Gateway.URL, cfg.Gateway.Timeout, cfg.Gateway.Retries)

	return server.ServeStdio(s)
}
