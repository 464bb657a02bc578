package mcp

import (
	"context"
	"encoding/json"

	"github.com/seatsync/seatsync/internal/logger"
	"github.com/seatsync/seatsync/internal/metrics"
)

// protocolVersion is the MCP protocol revision this server speaks.
const protocolVersion = "2024-11-05"

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      any           `json:"id"`
	Result  any           `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC 2.0 error
type JSONRPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func errorResponse(id any, rpcErr *JSONRPCError) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: rpcErr}
}

func resultResponse(id any, result any) *JSONRPCResponse {
	return &JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
}

// processRequest dispatches one JSON-RPC request against the session.
func (s *Server) processRequest(ctx context.Context, sess *Session, req *JSONRPCRequest) *JSONRPCResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(ctx, sess, req)
	default:
		return errorResponse(req.ID, &JSONRPCError{
			Code:    CodeMethodNotFound,
			Message: "Method not found: " + req.Method,
		})
	}
}

func (s *Server) handleInitialize(req *JSONRPCRequest) *JSONRPCResponse {
	return resultResponse(req.ID, map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"tools": map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "seatsync",
			"version": s.version,
		},
	})
}

func (s *Server) handleToolsList(req *JSONRPCRequest) *JSONRPCResponse {
	tools := s.registry.GetAllTools()
	list := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		list = append(list, map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		})
	}
	return resultResponse(req.ID, map[string]any{"tools": list})
}

func (s *Server) handleToolsCall(ctx context.Context, sess *Session, req *JSONRPCRequest) *JSONRPCResponse {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			return errorResponse(req.ID, &JSONRPCError{
				Code:    CodeInvalidParams,
				Message: "Invalid params: " + err.Error(),
			})
		}
	}
	if params.Name == "" {
		return errorResponse(req.ID, &JSONRPCError{
			Code:    CodeInvalidParams,
			Message: "tool name is required",
		})
	}

	if _, ok := s.registry.GetTool(params.Name); !ok {
		metrics.RecordToolCall(params.Name, "not_found")
		return errorResponse(req.ID, &JSONRPCError{
			Code:    CodeMethodNotFound,
			Message: "Tool not found: " + params.Name,
		})
	}

	// A restaurant_id argument can widen the scope only when the
	// transport header did not already pin it.
	sess.ApplyScopeArgument(params.Arguments)

	result, err := s.registry.CallTool(ctx, sess, params.Name, params.Arguments)
	if err != nil {
		metrics.RecordToolCall(params.Name, "error")
		logger.Error("Tool %s failed for %s: %v", params.Name, sess.Username, err)
		return errorResponse(req.ID, toJSONRPCError(err))
	}

	metrics.RecordToolCall(params.Name, "success")

	payload := map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": result.Text},
		},
	}
	if result.Structured != nil {
		payload["structuredContent"] = result.Structured
	}
	return resultResponse(req.ID, payload)
}
