package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type echoParams struct {
	Name  string `json:"name" jsonschema:"name to echo"`
	Count int    `json:"count,omitempty" jsonschema:"number of repetitions"`
}

func newEchoRegistry() *Registry {
	r := NewRegistry()
	Register(r, ToolDef{
		Name:        "echo",
		Description: "Echo a name.",
	}, func(ctx context.Context, sess *Session, params echoParams) (*ToolResult, error) {
		return TextResult("hello %s", params.Name), nil
	})
	return r
}

func TestRegistry_SchemaGenerated(t *testing.T) {
	r := newEchoRegistry()

	def, ok := r.GetTool("echo")
	if !ok {
		t.Fatal("echo tool not registered")
	}
	if def.InputSchema == nil {
		t.Fatal("InputSchema is nil, want generated schema")
	}

	data, err := json.Marshal(def.InputSchema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var schema map[string]any
	if err := json.Unmarshal(data, &schema); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if schema["type"] != "object" {
		t.Errorf("schema type = %v, want object", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties: %v", schema)
	}
	if _, ok := props["name"]; !ok {
		t.Error("schema missing property name")
	}
	if _, ok := props["count"]; !ok {
		t.Error("schema missing property count")
	}
}

func TestRegistry_CallTool(t *testing.T) {
	r := newEchoRegistry()

	result, err := r.CallTool(context.Background(), &Session{}, "echo", json.RawMessage(`{"name":"world"}`))
	if err != nil {
		t.Fatalf("CallTool() error = %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("result text = %q, want %q", result.Text, "hello world")
	}
}

func TestRegistry_CallTool_InvalidParams(t *testing.T) {
	r := newEchoRegistry()

	// count must be an integer
	_, err := r.CallTool(context.Background(), &Session{}, "echo", json.RawMessage(`{"name":"x","count":"three"}`))
	if err == nil {
		t.Fatal("CallTool() with wrong argument type succeeded, want error")
	}
	var dispatchErr *Error
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if dispatchErr.Code != CodeInvalidParams {
		t.Errorf("error code = %d, want %d", dispatchErr.Code, CodeInvalidParams)
	}
}

func TestRegistry_CallTool_Unknown(t *testing.T) {
	r := newEchoRegistry()

	_, err := r.CallTool(context.Background(), &Session{}, "nope", nil)
	if err == nil {
		t.Fatal("CallTool() for unknown tool succeeded, want error")
	}
	var dispatchErr *Error
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("error type = %T, want *Error", err)
	}
	if dispatchErr.Code != CodeMethodNotFound {
		t.Errorf("error code = %d, want %d", dispatchErr.Code, CodeMethodNotFound)
	}
}

func TestRegistry_Order(t *testing.T) {
	r := NewRegistry()
	names := []string{"charlie", "alpha", "bravo"}
	for _, name := range names {
		Register(r, ToolDef{Name: name, Description: name}, func(ctx context.Context, sess *Session, params echoParams) (*ToolResult, error) {
			return TextResult("ok"), nil
		})
	}

	tools := r.GetAllTools()
	if len(tools) != len(names) {
		t.Fatalf("GetAllTools() returned %d tools, want %d", len(tools), len(names))
	}
	for i, name := range names {
		if tools[i].Name != name {
			t.Errorf("tools[%d].Name = %q, want %q (registration order)", i, tools[i].Name, name)
		}
	}
}

func TestToJSONRPCError(t *testing.T) {
	rpcErr := toJSONRPCError(Errorf(CodeInvalidParams, "bad date"))
	if rpcErr.Code != CodeInvalidParams || rpcErr.Message != "bad date" {
		t.Errorf("typed error mapped to %+v", rpcErr)
	}

	rpcErr = toJSONRPCError(errors.New("connection refused"))
	if rpcErr.Code != CodeInternalError {
		t.Errorf("plain error code = %d, want %d", rpcErr.Code, CodeInternalError)
	}
	if rpcErr.Message != "connection refused" {
		t.Errorf("plain error message = %q, want original message", rpcErr.Message)
	}
}
