package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ToolHandler executes a tool call against the request session.
type ToolHandler func(ctx context.Context, sess *Session, args json.RawMessage) (*ToolResult, error)

// ToolDef defines a tool with all metadata
type ToolDef struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema,omitempty"`
}

// Registry stores tool definitions and handlers
type Registry struct {
	mu       sync.RWMutex
	tools    map[string]*ToolDef
	handlers map[string]ToolHandler
	order    []string // preserve registration order
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools:    make(map[string]*ToolDef),
		handlers: make(map[string]ToolHandler),
		order:    make([]string, 0),
	}
}

// Register adds a tool with its handler to the registry.
// Schema is auto-generated from the P type parameter if not provided in
// def, and arguments are validated against it before the handler runs.
// Registration happens once at startup, so schema failures panic.
func Register[P any](r *Registry, def ToolDef, handler func(ctx context.Context, sess *Session, params P) (*ToolResult, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.InputSchema == nil {
		schema, err := jsonschema.For[P](nil)
		if err != nil {
			panic(fmt.Sprintf("tool %s: schema generation failed: %v", def.Name, err))
		}
		def.InputSchema = schema
	}

	resolved, err := def.InputSchema.Resolve(nil)
	if err != nil {
		panic(fmt.Sprintf("tool %s: schema resolution failed: %v", def.Name, err))
	}

	r.tools[def.Name] = &def
	r.handlers[def.Name] = wrapHandler(resolved, handler)
	r.order = append(r.order, def.Name)
}

// GetTool returns a tool definition by name
func (r *Registry) GetTool(name string) (*ToolDef, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// GetAllTools returns all tool definitions in registration order
func (r *Registry) GetAllTools() []*ToolDef {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]*ToolDef, 0, len(r.order))
	for _, name := range r.order {
		if tool, ok := r.tools[name]; ok {
			tools = append(tools, tool)
		}
	}
	return tools
}

// CallTool executes a tool by name with JSON arguments
func (r *Registry) CallTool(ctx context.Context, sess *Session, name string, args json.RawMessage) (*ToolResult, error) {
	r.mu.RLock()
	handler, ok := r.handlers[name]
	r.mu.RUnlock()

	if !ok {
		return nil, Errorf(CodeMethodNotFound, "Tool not found: %s", name)
	}
	return handler(ctx, sess, args)
}

// wrapHandler wraps a typed handler into a ToolHandler that validates
// arguments against the resolved schema before decoding them.
func wrapHandler[P any](resolved *jsonschema.Resolved, handler func(ctx context.Context, sess *Session, params P) (*ToolResult, error)) ToolHandler {
	return func(ctx context.Context, sess *Session, args json.RawMessage) (*ToolResult, error) {
		if len(args) == 0 {
			args = json.RawMessage(`{}`)
		}

		var instance any
		if err := json.Unmarshal(args, &instance); err != nil {
			return nil, Errorf(CodeInvalidParams, "Invalid params: %v", err)
		}
		if err := resolved.Validate(instance); err != nil {
			return nil, Errorf(CodeInvalidParams, "Invalid params: %v", err)
		}

		var params P
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, Errorf(CodeInvalidParams, "Invalid params: %v", err)
		}
		return handler(ctx, sess, params)
	}
}
