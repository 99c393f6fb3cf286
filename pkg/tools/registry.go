// Package tools provides the map MCP tools implementations.
package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Registry holds all MCP tool registrations for the map service.
type Registry struct {
	logger *slog.Logger
}

// NewRegistry creates a new MCP tool registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

// ToolDefinition represents a map MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns all map MCP tool definitions.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	return []ToolDefinition{
		// Geocoding Tools
		{
			Name:        "geocode",
			Description: "Convert an address or place name to geographic coordinates",
			Tool:        GeocodeTool(),
			Handler:     HandleGeocode,
		},
		{
			Name:        "reverse_geocode",
			Description: "Convert geographic coordinates to a human-readable address",
			Tool:        ReverseGeocodeTool(),
			Handler:     HandleReverseGeocode,
		},
		{
			Name:        "search_places",
			Description: "Search for points of interest by name or category",
			Tool:        SearchPlacesTool(),
			Handler:     HandleSearchPlaces,
		},

		// Routing Tools
		{
			Name:        "calculate_route",
			Description: "Estimate a route between two points with distance, duration and directions",
			Tool:        CalculateRouteTool(),
			Handler:     HandleCalculateRoute,
		},
		{
			Name:        "distance_matrix",
			Description: "Calculate distances and travel times between multiple origins and destinations",
			Tool:        DistanceMatrixTool(),
			Handler:     HandleDistanceMatrix,
		},
		{
			Name:        "find_nearby",
			Description: "Find locations within a radius of a center point, sorted by distance",
			Tool:        FindNearbyTool(),
			Handler:     HandleFindNearby,
		},

		// Weather Tools
		{
			Name:        "get_weather",
			Description: "Get current weather conditions for a location",
			Tool:        GetWeatherTool(),
			Handler:     HandleGetWeather,
		},
		{
			Name:        "weather_forecast",
			Description: "Get a multi-day weather forecast for a location",
			Tool:        WeatherForecastTool(),
			Handler:     HandleWeatherForecast,
		},
		{
			Name:        "location_weather_info",
			Description: "Get combined location and weather information",
			Tool:        LocationWeatherInfoTool(),
			Handler:     HandleLocationWeatherInfo,
		},
	}
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		mcpServer.AddTool(def.Tool, def.Handler)
	}
}
