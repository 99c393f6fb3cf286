// Package tools provides the map MCP tools implementations.
package tools

import "github.com/mapagent/mapmcp/pkg/geo"

// Place represents a named location with coordinates and optional address
type Place struct {
	ID         string       `json:"id,omitempty"`
	Name       string       `json:"name"`
	Location   geo.Location `json:"location"`
	Address    geo.Address  `json:"address,omitempty"`
	Category   string       `json:"category,omitempty"`
	Type       string       `json:"type,omitempty"`
	DistanceKm float64      `json:"distance_km,omitempty"` // from the search reference point
	Importance float64      `json:"importance,omitempty"`  // Nominatim importance score
}
