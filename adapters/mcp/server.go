package mcp

import (
	"context"
	"errors"

	"github.com/artpar/duetgate/config"
	mcpgo "github.com/felixgeelhaar/mcp-go"
	"github.com/felixgeelhaar/mcp-go/middleware"
	"github.com/rs/zerolog"
)

// Serve starts the MCP tool server over HTTP and blocks until the
// context is canceled.
func Serve(ctx context.Context, cfg *config.Config, deps ToolDependencies, logger zerolog.Logger) error {
	if cfg == nil {
		return errors.New("config is required")
	}

	srv := mcpgo.NewServer(mcpgo.ServerInfo{
		Name:    cfg.MCP.Name,
		Version: "1.0.0",
		Capabilities: mcpgo.Capabilities{
			Tools: true,
		},
	})

	if err := RegisterTools(srv, deps); err != nil {
		return err
	}

	adapter := mcpLogger{logger: logger}
	stack := middleware.DefaultStack(adapter)

	if cfg.MCP.AuthToken != "" {
		authenticator := middleware.BearerTokenAuthenticator(middleware.StaticTokens(map[string]*middleware.Identity{
			cfg.MCP.AuthToken: {ID: "mcp", Name: "mcp"},
		}))
		stack = append([]middleware.Middleware{middleware.Auth(authenticator, middleware.WithAuthLogger(adapter))}, stack...)
	} else {
		logger.Warn().Msg("MCP auth token not set; requests will be unauthenticated")
	}

	logger.Info().Str("addr", cfg.MCP.Addr).Msg("mcp server listening")
	return mcpgo.ServeHTTPWithMiddleware(ctx, srv, cfg.MCP.Addr, nil, mcpgo.WithMiddleware(stack...))
}

type mcpLogger struct {
	logger zerolog.Logger
}

func (l mcpLogger) Info(msg string, fields ...middleware.Field) {
	l.event(l.logger.Info(), fields).Msg(msg)
}

func (l mcpLogger) Error(msg string, fields ...middleware.Field) {
	l.event(l.logger.Error(), fields).Msg(msg)
}

func (l mcpLogger) Debug(msg string, fields ...middleware.Field) {
	l.event(l.logger.Debug(), fields).Msg(msg)
}

func (l mcpLogger) Warn(msg string, fields ...middleware.Field) {
	l.event(l.logger.Warn(), fields).Msg(msg)
}

func (l mcpLogger) event(e *zerolog.Event, fields []middleware.Field) *zerolog.Event {
	for _, f := range fields {
		e = e.Interface(f.Key, f.Value)
	}
	return e
}
