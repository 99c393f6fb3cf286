package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/mapagent/mapmcp/pkg/geo"
	"github.com/mapagent/mapmcp/pkg/upstream"
	"github.com/mark3labs/mcp-go/mcp"
)

// nominatimBaseURL is a variable so tests can point handlers at a local
// HTTP server.
var nominatimBaseURL = upstream.NominatimBaseURL

// geocodeCache holds recent forward-geocoding responses. Nominatim asks
// clients to cache results; identical queries within the TTL never leave
// the process.
var geocodeCache = expirable.NewLRU[string, []GeocodeResult](256, nil, 15*time.Minute)

// GeocodeResult is one forward-geocoding match.
type GeocodeResult struct {
	DisplayName string            `json:"display_name"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
	Type        string            `json:"type"`
	Importance  float64           `json:"importance"`
	Address     map[string]string `json:"address"`
}

// nominatimPlace is the wire format of a Nominatim search/reverse entry.
type nominatimPlace struct {
	PlaceID     json.Number       `json:"place_id"`
	DisplayName string            `json:"display_name"`
	Lat         string            `json:"lat"`
	Lon         string            `json:"lon"`
	Type        string            `json:"type"`
	Class       string            `json:"class"`
	Importance  float64           `json:"importance"`
	Address     map[string]string `json:"address"`
}

// GeocodeTool returns a tool definition for forward geocoding
func GeocodeTool() mcp.Tool {
	return mcp.NewTool("geocode",
		mcp.WithDescription("Convert an address or place name to geographic coordinates (latitude/longitude)"),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("The address or place name to geocode (e.g., 'Eiffel Tower, Paris' or '123 Main St, New York, NY')"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return"),
			mcp.DefaultNumber(5),
		),
	)
}

// HandleGeocode implements forward geocoding against Nominatim
func HandleGeocode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "geocode")

	address := mcp.ParseString(req, "address", "")
	limit := int(mcp.ParseFloat64(req, "limit", 5))

	if address == "" {
		return ErrorResponse("Address must not be empty"), nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 10 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("%d|%s", limit, address)
	if cached, ok := geocodeCache.Get(cacheKey); ok {
		logger.Debug("geocode cache hit", "address", address)
		return marshalResult(logger, cached)
	}

	// Build request URL
	reqURL, err := url.Parse(fmt.Sprintf("%s/search", nominatimBaseURL))
	if err != nil {
		logger.Error("failed to parse URL", "error", err)
		return ErrorResponse("Internal server error"), nil
	}
	q := reqURL.Query()
	q.Add("q", address)
	q.Add("format", "json")
	q.Add("limit", strconv.Itoa(limit))
	q.Add("addressdetails", "1")
	reqURL.RawQuery = q.Encode()

	resp, err := upstream.DefaultClient().Get(ctx, reqURL.String())
	if err != nil {
		logger.Error("failed to execute request", "error", err)
		return ErrorWithGuidance(NewAPIError("Nominatim", 0, "Failed to communicate with geocoding service", GuidanceNetworkError)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("geocoding service returned error", "status", resp.StatusCode)
		return ErrorWithGuidance(NewAPIError("Nominatim", resp.StatusCode,
			fmt.Sprintf("Geocoding service error: %d", resp.StatusCode), "")), nil
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		logger.Error("failed to decode response", "error", err)
		return ErrorWithGuidance(NewAPIError("Nominatim", resp.StatusCode, "Failed to parse geocoding response", GuidanceDataError)), nil
	}

	if len(places) == 0 {
		return ErrorResponse("No results found for the address"), nil
	}

	results := make([]GeocodeResult, 0, len(places))
	for _, p := range places {
		lat, latErr := strconv.ParseFloat(p.Lat, 64)
		lon, lonErr := strconv.ParseFloat(p.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		results = append(results, GeocodeResult{
			DisplayName: p.DisplayName,
			Latitude:    lat,
			Longitude:   lon,
			Type:        p.Type,
			Importance:  p.Importance,
			Address:     p.Address,
		})
	}

	geocodeCache.Add(cacheKey, results)

	return marshalResult(logger, results)
}

// ReverseGeocodeOutput is the response shape for reverse geocoding.
type ReverseGeocodeOutput struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Type        string            `json:"type"`
	Latitude    float64           `json:"latitude"`
	Longitude   float64           `json:"longitude"`
}

// ReverseGeocodeTool returns a tool definition for reverse geocoding
func ReverseGeocodeTool() mcp.Tool {
	return mcp.NewTool("reverse_geocode",
		mcp.WithDescription("Convert geographic coordinates to a human-readable address"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("The latitude coordinate"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("The longitude coordinate"),
		),
	)
}

// HandleReverseGeocode implements the reverse geocoding functionality
func HandleReverseGeocode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "reverse_geocode")

	latitude := mcp.ParseFloat64(req, "latitude", 0)
	longitude := mcp.ParseFloat64(req, "longitude", 0)

	if err := geo.ValidateCoords(latitude, longitude); err != nil {
		return ErrorResponse(err.Error()), nil
	}

	// Build request URL
	reqURL, err := url.Parse(fmt.Sprintf("%s/reverse", nominatimBaseURL))
	if err != nil {
		logger.Error("failed to parse URL", "error", err)
		return ErrorResponse("Internal server error"), nil
	}
	q := reqURL.Query()
	q.Add("lat", fmt.Sprintf("%f", latitude))
	q.Add("lon", fmt.Sprintf("%f", longitude))
	q.Add("format", "json")
	q.Add("addressdetails", "1")
	reqURL.RawQuery = q.Encode()

	resp, err := upstream.DefaultClient().Get(ctx, reqURL.String())
	if err != nil {
		logger.Error("failed to execute request", "error", err)
		return ErrorWithGuidance(NewAPIError("Nominatim", 0, "Failed to communicate with geocoding service", GuidanceNetworkError)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("geocoding service returned error", "status", resp.StatusCode)
		return ErrorWithGuidance(NewAPIError("Nominatim", resp.StatusCode,
			fmt.Sprintf("Geocoding service error: %d", resp.StatusCode), "")), nil
	}

	var place nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		logger.Error("failed to decode response", "error", err)
		return ErrorWithGuidance(NewAPIError("Nominatim", resp.StatusCode, "Failed to parse geocoding response", GuidanceDataError)), nil
	}

	output := ReverseGeocodeOutput{
		DisplayName: place.DisplayName,
		Address:     place.Address,
		Type:        place.Type,
		Latitude:    latitude,
		Longitude:   longitude,
	}

	return marshalResult(logger, output)
}

// marshalResult serializes a tool result payload to a text response.
func marshalResult(logger *slog.Logger, v any) (*mcp.CallToolResult, error) {
	resultBytes, err := json.Marshal(v)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return ErrorResponse("Failed to generate result"), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}
