// Package tools provides the map MCP tools implementations.
package tools

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResponse is used for consistent error reporting
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// ParseArray extracts an array parameter from a CallToolRequest
func ParseArray(req mcp.CallToolRequest, paramName string) ([]interface{}, error) {
	// Check if parameter exists
	param, ok := req.Params.Arguments[paramName]
	if !ok {
		return nil, fmt.Errorf("parameter %s not found", paramName)
	}

	// Check if it's already an array
	if arr, ok := param.([]interface{}); ok {
		return arr, nil
	}

	// Try to convert from JSON
	jsonBytes, err := json.Marshal(param)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal parameter: %v", err)
	}

	var result []interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to parse array: %v", err)
	}

	return result, nil
}

// toFloat64 converts a decoded JSON value to a float64 where possible.
func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
