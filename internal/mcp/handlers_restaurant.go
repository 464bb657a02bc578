package mcp

import (
	"context"
	"fmt"
	"strings"
)

type listRestaurantsParams struct{}

func (s *Server) handleListRestaurants(ctx context.Context, sess *Session, params listRestaurantsParams) (*ToolResult, error) {
	restaurants, err := sess.Client.ListRestaurants(ctx)
	if err != nil {
		return nil, err
	}

	if len(restaurants) == 0 {
		return ObjectResult("No restaurants are attached to this account.", "restaurants", restaurants), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d restaurant(s):\n", len(restaurants))
	for _, r := range restaurants {
		fmt.Fprintf(&b, "- %s (id: %s)", r.Name, r.ID)
		if r.City != "" {
			fmt.Fprintf(&b, ", %s", r.City)
		}
		b.WriteString("\n")
	}
	return ObjectResult(strings.TrimRight(b.String(), "\n"), "restaurants", restaurants), nil
}
