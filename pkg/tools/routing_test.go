package tools

import (
	"context"
	"encoding/json"
	"testing"
)

func TestHandleCalculateRoute(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		expectError bool
	}{
		{
			name: "NYC to Boston driving",
			args: map[string]any{
				"start_lat": 40.7128,
				"start_lon": -74.0060,
				"end_lat":   42.3601,
				"end_lon":   -71.0589,
				"mode":      "driving",
			},
		},
		{
			name: "default mode",
			args: map[string]any{
				"start_lat": 40.7128,
				"start_lon": -74.0060,
				"end_lat":   42.3601,
				"end_lon":   -71.0589,
			},
		},
		{
			name: "invalid latitude",
			args: map[string]any{
				"start_lat": 91.0,
				"start_lon": -74.0060,
				"end_lat":   42.3601,
				"end_lon":   -71.0589,
			},
			expectError: true,
		},
		{
			name: "unknown mode",
			args: map[string]any{
				"start_lat": 40.7128,
				"start_lon": -74.0060,
				"end_lat":   42.3601,
				"end_lon":   -71.0589,
				"mode":      "teleport",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := HandleCalculateRoute(context.Background(), newToolRequest("calculate_route", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.IsError != tt.expectError {
				t.Fatalf("IsError = %v, want %v (%s)", result.IsError, tt.expectError, resultText(t, result))
			}
			if tt.expectError {
				return
			}

			var route struct {
				DistanceKm      float64 `json:"distance_km"`
				DurationMinutes float64 `json:"duration_minutes"`
				DurationText    string  `json:"duration_text"`
				Mode            string  `json:"mode"`
				Direction       string  `json:"direction"`
				Steps           []struct {
					Instruction string  `json:"instruction"`
					DistanceKm  float64 `json:"distance_km"`
				} `json:"steps"`
			}
			if err := json.Unmarshal([]byte(resultText(t, result)), &route); err != nil {
				t.Fatalf("failed to parse result: %v", err)
			}

			if route.DistanceKm < 300 || route.DistanceKm > 500 {
				t.Errorf("distance_km = %f, want within [300, 500]", route.DistanceKm)
			}
			if route.Mode != "driving" {
				t.Errorf("mode = %q, want driving", route.Mode)
			}
			if route.Direction != "Northeast" {
				t.Errorf("direction = %q, want Northeast", route.Direction)
			}
			if len(route.Steps) != 3 {
				t.Errorf("expected 3 steps, got %d", len(route.Steps))
			}
			if route.DurationText == "" {
				t.Error("expected duration text")
			}
		})
	}
}

func TestHandleDistanceMatrix(t *testing.T) {
	args := map[string]any{
		"origins": []any{
			[]any{40.7128, -74.0060}, // NYC
			[]any{41.8781, -87.6298}, // Chicago
		},
		"destinations": []any{
			[]any{42.3601, -71.0589},  // Boston
			[]any{34.0522, -118.2437}, // LA
		},
	}

	result, err := HandleDistanceMatrix(context.Background(), newToolRequest("distance_matrix", args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	var matrix struct {
		Origins      []map[string]float64 `json:"origins"`
		Destinations []map[string]float64 `json:"destinations"`
		Matrix       [][]struct {
			DistanceKm       float64 `json:"distance_km"`
			RouteDistanceKm  float64 `json:"route_distance_km"`
			DurationMinutes  float64 `json:"duration_minutes"`
			OriginIndex      int     `json:"origin_index"`
			DestinationIndex int     `json:"destination_index"`
		} `json:"matrix"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &matrix); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}

	if len(matrix.Matrix) != 2 || len(matrix.Matrix[0]) != 2 {
		t.Fatalf("expected a 2x2 matrix, got %dx%d", len(matrix.Matrix), len(matrix.Matrix[0]))
	}
	for i, row := range matrix.Matrix {
		for j, cell := range row {
			if cell.OriginIndex != i || cell.DestinationIndex != j {
				t.Errorf("cell (%d,%d) carries indices (%d,%d)", i, j, cell.OriginIndex, cell.DestinationIndex)
			}
			if cell.DistanceKm > cell.RouteDistanceKm {
				t.Errorf("cell (%d,%d): direct %f exceeds route %f", i, j, cell.DistanceKm, cell.RouteDistanceKm)
			}
		}
	}
	if len(matrix.Origins) != 2 || len(matrix.Destinations) != 2 {
		t.Error("input coordinate lists not echoed")
	}
}

func TestHandleDistanceMatrixInvalid(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "missing origins",
			args: map[string]any{
				"destinations": []any{[]any{42.3601, -71.0589}},
			},
		},
		{
			name: "malformed pair",
			args: map[string]any{
				"origins":      []any{[]any{40.7128}},
				"destinations": []any{[]any{42.3601, -71.0589}},
			},
		},
		{
			name: "out of range coordinate",
			args: map[string]any{
				"origins":      []any{[]any{95.0, -74.0060}},
				"destinations": []any{[]any{42.3601, -71.0589}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := HandleDistanceMatrix(context.Background(), newToolRequest("distance_matrix", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected error result, got: %s", resultText(t, result))
			}
		})
	}
}

func TestHandleDistanceMatrixEmpty(t *testing.T) {
	args := map[string]any{
		"origins":      []any{},
		"destinations": []any{},
	}

	result, err := HandleDistanceMatrix(context.Background(), newToolRequest("distance_matrix", args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("empty lists should yield an empty matrix, got error: %s", resultText(t, result))
	}

	var matrix struct {
		Matrix [][]json.RawMessage `json:"matrix"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &matrix); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if len(matrix.Matrix) != 0 {
		t.Errorf("expected empty matrix, got %d rows", len(matrix.Matrix))
	}
}

func TestHandleFindNearby(t *testing.T) {
	args := map[string]any{
		"center_lat": 40.7580,
		"center_lon": -73.9855,
		"radius_km":  10.0,
		"locations": []any{
			map[string]any{"name": "Close", "latitude": 40.7589, "longitude": -73.9851},
			map[string]any{"name": "Medium", "latitude": 40.7128, "longitude": -74.0060},
			map[string]any{"name": "Far", "latitude": 41.8781, "longitude": -87.6298},
			map[string]any{"name": "Broken", "latitude": 40.7}, // missing longitude
		},
	}

	result, err := HandleFindNearby(context.Background(), newToolRequest("find_nearby", args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, result))
	}

	var nearby []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &nearby); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}

	if len(nearby) != 2 {
		t.Fatalf("expected 2 results, got %d", len(nearby))
	}
	if nearby[0]["name"] != "Close" {
		t.Errorf("first result = %v, want Close", nearby[0]["name"])
	}

	var prev float64
	for i, record := range nearby {
		dist, ok := record["distance_km"].(float64)
		if !ok {
			t.Fatalf("result %d missing distance_km", i)
		}
		if dist > 10 {
			t.Errorf("result %d outside radius: %f", i, dist)
		}
		if dist < prev {
			t.Errorf("results not sorted ascending at index %d", i)
		}
		prev = dist

		if _, ok := record["direction"].(string); !ok {
			t.Errorf("result %d missing direction", i)
		}
		if _, ok := record["bearing"].(float64); !ok {
			t.Errorf("result %d missing bearing", i)
		}
	}
}

func TestHandleFindNearbyInvalid(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
	}{
		{
			name: "invalid center",
			args: map[string]any{
				"center_lat": 95.0,
				"center_lon": 0.0,
				"locations":  []any{},
			},
		},
		{
			name: "negative radius",
			args: map[string]any{
				"center_lat": 0.0,
				"center_lon": 0.0,
				"radius_km":  -1.0,
				"locations":  []any{},
			},
		},
		{
			name: "missing locations",
			args: map[string]any{
				"center_lat": 0.0,
				"center_lon": 0.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := HandleFindNearby(context.Background(), newToolRequest("find_nearby", tt.args))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !result.IsError {
				t.Errorf("expected error result, got: %s", resultText(t, result))
			}
		})
	}
}

func TestHandleFindNearbyZeroRadius(t *testing.T) {
	args := map[string]any{
		"center_lat": 40.7580,
		"center_lon": -73.9855,
		"radius_km":  0.0,
		"locations": []any{
			map[string]any{"name": "At center", "latitude": 40.7580, "longitude": -73.9855},
			map[string]any{"name": "One block over", "latitude": 40.7590, "longitude": -73.9855},
		},
	}

	result, err := HandleFindNearby(context.Background(), newToolRequest("find_nearby", args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("zero radius should be accepted: %s", resultText(t, result))
	}

	var nearby []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &nearby); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if len(nearby) != 1 {
		t.Fatalf("expected only the candidate at the center, got %d", len(nearby))
	}
	if nearby[0]["name"] != "At center" {
		t.Errorf("name = %v, want At center", nearby[0]["name"])
	}
}

func TestHandleFindNearbyEmptyResult(t *testing.T) {
	args := map[string]any{
		"center_lat": 0.0,
		"center_lon": 0.0,
		"radius_km":  1.0,
		"locations": []any{
			map[string]any{"name": "Far away", "latitude": 50.0, "longitude": 50.0},
		},
	}

	result, err := HandleFindNearby(context.Background(), newToolRequest("find_nearby", args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("empty result should not be an error: %s", resultText(t, result))
	}

	var nearby []map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &nearby); err != nil {
		t.Fatalf("failed to parse result: %v", err)
	}
	if len(nearby) != 0 {
		t.Errorf("expected empty result, got %d", len(nearby))
	}
}
