package mcp

import (
	"encoding/json"
	"fmt"
)

// ToolResult is the outcome of a successful tool execution. Text is the
// human-readable summary; Structured carries the machine-readable payload
// returned as structuredContent. Structured is always a JSON object, so
// sequences live under a named field rather than as a bare array.
type ToolResult struct {
	Text       string
	Structured map[string]any
}

// TextResult builds a result with only a text summary.
func TextResult(format string, v ...any) *ToolResult {
	return &ToolResult{Text: fmt.Sprintf(format, v...)}
}

// ObjectResult builds a result whose structured payload is a single
// object, converted through JSON so the structured content matches what
// the wire types marshal to.
func ObjectResult(text string, field string, value any) *ToolResult {
	return &ToolResult{
		Text:       text,
		Structured: map[string]any{field: toJSONValue(value)},
	}
}

// toJSONValue round-trips a Go value through encoding/json so field
// names and omitted values match the type's JSON representation.
func toJSONValue(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}
