package tools

import (
	"log/slog"
	"os"
	"testing"

	"github.com/mapagent/mapmcp/pkg/testutil"
	"github.com/mark3labs/mcp-go/mcp"
)

func TestMain(m *testing.M) {
	// Keep handler logging out of test output
	slog.SetDefault(testutil.DiscardLogger())
	os.Exit(m.Run())
}

// newToolRequest builds a CallToolRequest the way the MCP server would
// deliver it to a handler.
func newToolRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments,omitempty"`
			Meta      *struct {
				ProgressToken mcp.ProgressToken `json:"progressToken,omitempty"`
			} `json:"_meta,omitempty"`
		}{
			Name:      name,
			Arguments: args,
		},
	}
}

// resultText extracts the text content from a tool result.
func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if result == nil {
		t.Fatal("expected result, got nil")
	}
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok {
			return text.Text
		}
	}
	t.Fatal("no text content in result")
	return ""
}
