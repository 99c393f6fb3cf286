// Package tools provides the map MCP tools implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mapagent/mapmcp/pkg/geo"
	"github.com/mark3labs/mcp-go/mcp"
)

// CalculateRouteTool returns a tool definition for route estimation
func CalculateRouteTool() mcp.Tool {
	return mcp.NewTool("calculate_route",
		mcp.WithDescription("Calculate a route between two geographic points with estimated distance, duration and directions"),
		mcp.WithNumber("start_lat",
			mcp.Required(),
			mcp.Description("Starting point latitude"),
		),
		mcp.WithNumber("start_lon",
			mcp.Required(),
			mcp.Description("Starting point longitude"),
		),
		mcp.WithNumber("end_lat",
			mcp.Required(),
			mcp.Description("Destination latitude"),
		),
		mcp.WithNumber("end_lon",
			mcp.Required(),
			mcp.Description("Destination longitude"),
		),
		mcp.WithString("mode",
			mcp.Description("Transportation mode (driving, walking, cycling)"),
			mcp.DefaultString("driving"),
		),
	)
}

// HandleCalculateRoute implements heuristic route estimation. The
// estimate is pure math over the coordinates; no routing service is
// contacted.
func HandleCalculateRoute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "calculate_route")

	// Parse input parameters
	startLat := mcp.ParseFloat64(req, "start_lat", 0)
	startLon := mcp.ParseFloat64(req, "start_lon", 0)
	endLat := mcp.ParseFloat64(req, "end_lat", 0)
	endLon := mcp.ParseFloat64(req, "end_lon", 0)
	modeStr := mcp.ParseString(req, "mode", "driving")

	// Validate parameters
	if err := geo.ValidateCoords(startLat, startLon); err != nil {
		return ErrorResponse(fmt.Sprintf("Invalid start coordinates: %v", err)), nil
	}
	if err := geo.ValidateCoords(endLat, endLon); err != nil {
		return ErrorResponse(fmt.Sprintf("Invalid end coordinates: %v", err)), nil
	}
	mode, err := geo.ParseTravelMode(modeStr)
	if err != nil {
		return ErrorResponse(err.Error()), nil
	}

	route := geo.EstimateRoute(
		geo.Location{Latitude: startLat, Longitude: startLon},
		geo.Location{Latitude: endLat, Longitude: endLon},
		mode,
	)

	// Return result
	resultBytes, err := json.Marshal(route)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// DistanceMatrixTool returns a tool definition for many-to-many distance estimation
func DistanceMatrixTool() mcp.Tool {
	return mcp.NewTool("distance_matrix",
		mcp.WithDescription("Calculate distances and travel times between multiple origin and destination points"),
		mcp.WithArray("origins",
			mcp.Required(),
			mcp.Description("List of origin coordinates as [latitude, longitude] pairs"),
		),
		mcp.WithArray("destinations",
			mcp.Required(),
			mcp.Description("List of destination coordinates as [latitude, longitude] pairs"),
		),
	)
}

// parseCoordinateList converts a raw JSON array of [lat, lon] pairs to
// locations, validating every pair.
func parseCoordinateList(raw []interface{}, name string) ([]geo.Location, error) {
	locations := make([]geo.Location, 0, len(raw))
	for i, item := range raw {
		pair, ok := item.([]interface{})
		if !ok || len(pair) != 2 {
			return nil, fmt.Errorf("%s[%d] must be a [latitude, longitude] pair", name, i)
		}
		lat, okLat := toFloat64(pair[0])
		lon, okLon := toFloat64(pair[1])
		if !okLat || !okLon {
			return nil, fmt.Errorf("%s[%d] must contain two numbers", name, i)
		}
		if err := geo.ValidateCoords(lat, lon); err != nil {
			return nil, fmt.Errorf("%s[%d]: %v", name, i, err)
		}
		locations = append(locations, geo.Location{Latitude: lat, Longitude: lon})
	}
	return locations, nil
}

// HandleDistanceMatrix implements many-to-many distance estimation
func HandleDistanceMatrix(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "distance_matrix")

	originsRaw, err := ParseArray(req, "origins")
	if err != nil {
		return ErrorResponse("Missing or invalid origins parameter"), nil
	}
	destinationsRaw, err := ParseArray(req, "destinations")
	if err != nil {
		return ErrorResponse("Missing or invalid destinations parameter"), nil
	}

	origins, err := parseCoordinateList(originsRaw, "origins")
	if err != nil {
		return ErrorResponse(err.Error()), nil
	}
	destinations, err := parseCoordinateList(destinationsRaw, "destinations")
	if err != nil {
		return ErrorResponse(err.Error()), nil
	}

	matrix := geo.DistanceMatrix(origins, destinations)

	resultBytes, err := json.Marshal(matrix)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// FindNearbyTool returns a tool definition for proximity filtering
func FindNearbyTool() mcp.Tool {
	return mcp.NewTool("find_nearby",
		mcp.WithDescription("Find locations within a specified radius of a center point, sorted by distance"),
		mcp.WithNumber("center_lat",
			mcp.Required(),
			mcp.Description("Center point latitude"),
		),
		mcp.WithNumber("center_lon",
			mcp.Required(),
			mcp.Description("Center point longitude"),
		),
		mcp.WithArray("locations",
			mcp.Required(),
			mcp.Description("List of locations to check (each must have 'latitude' and 'longitude' fields; other fields are carried through)"),
		),
		mcp.WithNumber("radius_km",
			mcp.Description("Search radius in kilometers"),
			mcp.DefaultNumber(geo.DefaultNearbyRadiusKm),
		),
	)
}

// parseCandidates converts raw JSON location objects to geo candidates,
// splitting off latitude/longitude and carrying every other field in Meta.
func parseCandidates(raw []interface{}) []geo.Candidate {
	candidates := make([]geo.Candidate, 0, len(raw))
	for _, item := range raw {
		obj, ok := item.(map[string]interface{})
		if !ok {
			// Not an object; treated like a record with missing coordinates
			candidates = append(candidates, geo.Candidate{})
			continue
		}

		var c geo.Candidate
		c.Meta = make(map[string]any, len(obj))
		for k, v := range obj {
			switch k {
			case "latitude":
				if f, ok := toFloat64(v); ok {
					lat := f
					c.Latitude = &lat
				}
			case "longitude":
				if f, ok := toFloat64(v); ok {
					lon := f
					c.Longitude = &lon
				}
			default:
				c.Meta[k] = v
			}
		}
		candidates = append(candidates, c)
	}
	return candidates
}

// HandleFindNearby implements proximity filtering. Candidates missing
// coordinates are skipped rather than rejected.
func HandleFindNearby(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "find_nearby")

	centerLat := mcp.ParseFloat64(req, "center_lat", 0)
	centerLon := mcp.ParseFloat64(req, "center_lon", 0)
	radiusKm := mcp.ParseFloat64(req, "radius_km", geo.DefaultNearbyRadiusKm)

	if err := geo.ValidateCoords(centerLat, centerLon); err != nil {
		return ErrorResponse(fmt.Sprintf("Invalid center coordinates: %v", err)), nil
	}
	// The radius compare is inclusive, so zero is valid and matches
	// candidates exactly at the center point.
	if radiusKm < 0 {
		return ErrorResponse("Radius must not be negative"), nil
	}

	locationsRaw, err := ParseArray(req, "locations")
	if err != nil {
		return ErrorResponse("Missing or invalid locations parameter"), nil
	}

	center := geo.Location{Latitude: centerLat, Longitude: centerLon}
	nearby := geo.FindNearby(center, parseCandidates(locationsRaw), radiusKm)

	// Flatten each result back into the original record shape: the
	// caller's fields plus coordinates and the computed values.
	results := make([]map[string]any, 0, len(nearby))
	for _, place := range nearby {
		record := make(map[string]any, len(place.Meta)+5)
		for k, v := range place.Meta {
			record[k] = v
		}
		record["latitude"] = place.Location.Latitude
		record["longitude"] = place.Location.Longitude
		record["distance_km"] = place.DistanceKm
		record["bearing"] = place.Bearing
		record["direction"] = place.Direction
		results = append(results, record)
	}

	resultBytes, err := json.Marshal(results)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
