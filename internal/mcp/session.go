package mcp

import (
	"encoding/json"

	"github.com/seatsync/seatsync/internal/auth"
	"github.com/seatsync/seatsync/internal/tokencache"
	"github.com/seatsync/seatsync/internal/upstream"
)

// Session is the request-scoped context passed into every tool
// invocation. It owns the upstream client (and with it the in-memory
// bearer token and resolved restaurant scope) for exactly one inbound
// request; nothing in it is shared across requests.
type Session struct {
	Client    *upstream.Client
	Username  string
	RequestID string

	// ScopePinned is true when the restaurant scope arrived via the
	// transport header, which takes precedence over any tool argument.
	ScopePinned bool
}

// NewSession builds the per-request session from the transport
// credentials.
func NewSession(upstreamURL string, creds auth.Credentials, cache *tokencache.Store, requestID string) *Session {
	return &Session{
		Client:      upstream.NewClient(upstreamURL, creds, cache),
		Username:    creds.Username,
		RequestID:   requestID,
		ScopePinned: creds.RestaurantID != "",
	}
}

// ApplyScopeArgument applies a restaurant_id supplied in tool arguments,
// unless the transport already pinned the scope. Called before argument
// validation so scope resolution and validation see the same state.
func (s *Session) ApplyScopeArgument(args json.RawMessage) {
	if s.ScopePinned || len(args) == 0 {
		return
	}

	var probe struct {
		RestaurantID string `json:"restaurant_id"`
	}
	if err := json.Unmarshal(args, &probe); err != nil {
		return // malformed arguments are rejected by validation
	}
	if probe.RestaurantID != "" {
		s.Client.SetRestaurant(probe.RestaurantID)
	}
}
