package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"

	"github.com/mapagent/mapmcp/pkg/geo"
	"github.com/mapagent/mapmcp/pkg/upstream"
	"github.com/mark3labs/mcp-go/mcp"
)

// searchViewboxRadiusKm bounds a near-point place search to roughly
// this radius around the reference coordinate.
const searchViewboxRadiusKm = 5.0

// SearchPlacesTool returns a tool definition for POI search
func SearchPlacesTool() mcp.Tool {
	return mcp.NewTool("search_places",
		mcp.WithDescription("Search for points of interest (POIs) like restaurants, museums, coffee shops, etc."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("What to search for (e.g., 'coffee shop', 'museum', 'restaurant')"),
		),
		mcp.WithNumber("near_lat",
			mcp.Description("Optional: latitude to search near"),
		),
		mcp.WithNumber("near_lon",
			mcp.Description("Optional: longitude to search near"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results"),
			mcp.DefaultNumber(10),
		),
	)
}

// structuredAddress maps a Nominatim addressdetails object onto the
// shared Address type. Nominatim reports the locality under different
// keys depending on the place kind.
func structuredAddress(addr map[string]string, displayName string) geo.Address {
	city := addr["city"]
	if city == "" {
		city = addr["town"]
	}
	if city == "" {
		city = addr["village"]
	}
	return geo.Address{
		Street:      addr["road"],
		HouseNumber: addr["house_number"],
		City:        city,
		State:       addr["state"],
		Country:     addr["country"],
		PostalCode:  addr["postcode"],
		Formatted:   displayName,
	}
}

// HandleSearchPlaces implements POI search against Nominatim. When a
// reference point is given the search is bounded to a viewbox around it
// and results are sorted by straight-line distance.
func HandleSearchPlaces(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "search_places")

	query := mcp.ParseString(req, "query", "")
	limit := int(mcp.ParseFloat64(req, "limit", 10))

	if query == "" {
		return ErrorResponse("Query must not be empty"), nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 50 {
		limit = 50
	}

	// The reference point is optional; (0,0) is a valid coordinate, so
	// presence is decided by the arguments map rather than a default.
	_, hasLat := req.Params.Arguments["near_lat"]
	_, hasLon := req.Params.Arguments["near_lon"]
	hasCenter := hasLat && hasLon

	var center geo.Location
	if hasCenter {
		center = geo.Location{
			Latitude:  mcp.ParseFloat64(req, "near_lat", 0),
			Longitude: mcp.ParseFloat64(req, "near_lon", 0),
		}
		if err := geo.ValidateCoords(center.Latitude, center.Longitude); err != nil {
			return ErrorResponse(err.Error()), nil
		}
	}

	// Build request URL
	reqURL, err := url.Parse(fmt.Sprintf("%s/search", nominatimBaseURL))
	if err != nil {
		logger.Error("failed to parse URL", "error", err)
		return ErrorResponse("Internal server error"), nil
	}
	q := reqURL.Query()
	q.Add("q", query)
	q.Add("format", "json")
	q.Add("limit", strconv.Itoa(limit))
	q.Add("addressdetails", "1")
	if hasCenter {
		bbox := geo.NewBoundingBox()
		bbox.ExtendWithPoint(center.Latitude, center.Longitude)
		bbox.Buffer(searchViewboxRadiusKm)
		q.Add("viewbox", bbox.Viewbox())
		q.Add("bounded", "1")
	}
	reqURL.RawQuery = q.Encode()

	resp, err := upstream.DefaultClient().Get(ctx, reqURL.String())
	if err != nil {
		logger.Error("failed to execute request", "error", err)
		return ErrorWithGuidance(NewAPIError("Nominatim", 0, "Failed to communicate with geocoding service", GuidanceNetworkError)), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.Error("place search returned error", "status", resp.StatusCode)
		return ErrorWithGuidance(NewAPIError("Nominatim", resp.StatusCode,
			fmt.Sprintf("Place search error: %d", resp.StatusCode), "")), nil
	}

	var places []nominatimPlace
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		logger.Error("failed to decode response", "error", err)
		return ErrorWithGuidance(NewAPIError("Nominatim", resp.StatusCode, "Failed to parse place search response", GuidanceDataError)), nil
	}

	results := make([]Place, 0, len(places))
	for _, p := range places {
		lat, latErr := strconv.ParseFloat(p.Lat, 64)
		lon, lonErr := strconv.ParseFloat(p.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		result := Place{
			ID:         p.PlaceID.String(),
			Name:       p.DisplayName,
			Location:   geo.Location{Latitude: lat, Longitude: lon},
			Address:    structuredAddress(p.Address, p.DisplayName),
			Category:   p.Class,
			Type:       p.Type,
			Importance: p.Importance,
		}
		if hasCenter {
			result.DistanceKm = geo.Distance(center, result.Location)
		}
		results = append(results, result)
	}

	if hasCenter {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].DistanceKm < results[j].DistanceKm
		})
	}

	return marshalResult(logger, results)
}
