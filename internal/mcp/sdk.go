package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	mcp_sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/seatsync/seatsync/internal/auth"
	"github.com/seatsync/seatsync/internal/logger"
)

// Environment variables carrying credentials for the stdio transport,
// where no HTTP headers exist.
const (
	EnvUsername   = "SEATSYNC_USERNAME"
	EnvPassword   = "SEATSYNC_PASSWORD"
	EnvRestaurant = "SEATSYNC_RESTAURANT_ID"
)

// credentialsFromEnv reads stdio-transport credentials.
func credentialsFromEnv() (auth.Credentials, error) {
	creds := auth.Credentials{
		Username:     os.Getenv(EnvUsername),
		Password:     os.Getenv(EnvPassword),
		RestaurantID: os.Getenv(EnvRestaurant),
	}
	if creds.Username == "" || creds.Password == "" {
		return auth.Credentials{}, fmt.Errorf("%s and %s must be set", EnvUsername, EnvPassword)
	}
	return creds, nil
}

// registerWithSDKServer exposes every registered tool on an MCP SDK
// server. The stdio transport serves a single account, so one session
// is shared across calls; its token lives for the process lifetime.
func (s *Server) registerWithSDKServer(server *mcp_sdk.Server, sess *Session) {
	for _, def := range s.registry.GetAllTools() {
		tool := &mcp_sdk.Tool{
			Name:        def.Name,
			Description: def.Description,
			InputSchema: def.InputSchema,
		}

		name := def.Name
		sdkHandler := func(ctx context.Context, req *mcp_sdk.CallToolRequest) (*mcp_sdk.CallToolResult, error) {
			var args json.RawMessage
			if req.Params != nil {
				args = req.Params.Arguments
			}

			sess.ApplyScopeArgument(args)

			result, err := s.registry.CallTool(ctx, sess, name, args)
			if err != nil {
				return &mcp_sdk.CallToolResult{
					IsError: true,
					Content: []mcp_sdk.Content{
						&mcp_sdk.TextContent{Text: err.Error()},
					},
				}, nil
			}

			out := &mcp_sdk.CallToolResult{
				Content: []mcp_sdk.Content{
					&mcp_sdk.TextContent{Text: result.Text},
				},
			}
			if result.Structured != nil {
				out.StructuredContent = result.Structured
			}
			return out, nil
		}

		server.AddTool(tool, sdkHandler)
	}
}

// ServeStdio runs the server over stdin/stdout for local MCP clients.
// Credentials come from the environment instead of per-request headers.
func (s *Server) ServeStdio(ctx context.Context) error {
	creds, err := credentialsFromEnv()
	if err != nil {
		return err
	}

	sess := NewSession(s.upstreamURL, creds, s.cache, "stdio")

	sdkServer := mcp_sdk.NewServer(&mcp_sdk.Implementation{
		Name:    "seatsync",
		Version: s.version,
	}, &mcp_sdk.ServerOptions{
		HasTools: true,
	})
	s.registerWithSDKServer(sdkServer, sess)

	logger.Info("SeatSync MCP server running on stdio for %s", auth.MaskUsername(creds.Username))
	return sdkServer.Run(ctx, &mcp_sdk.StdioTransport{})
}
