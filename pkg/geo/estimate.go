package geo

import (
	"fmt"
	"math"
	"sort"
)

// TravelMode represents a supported transportation mode.
type TravelMode string

const (
	ModeDriving TravelMode = "driving"
	ModeWalking TravelMode = "walking"
	ModeCycling TravelMode = "cycling"
)

// DefaultNearbyRadiusKm is the search radius used by FindNearby callers
// when none is specified.
const DefaultNearbyRadiusKm = 5.0

// modeProfile holds the estimation constants for a transport mode:
// a multiplier approximating real road distance from straight-line
// distance, and an assumed average speed.
type modeProfile struct {
	RouteFactor float64
	AvgSpeedKmh float64
}

var modeProfiles = map[TravelMode]modeProfile{
	ModeDriving: {RouteFactor: 1.3, AvgSpeedKmh: 60},
	ModeWalking: {RouteFactor: 1.2, AvgSpeedKmh: 5},
	ModeCycling: {RouteFactor: 1.25, AvgSpeedKmh: 20},
}

// ParseTravelMode converts a mode string to a TravelMode. The empty
// string selects ModeDriving, which is the documented default; any other
// unrecognized value is an error rather than a silent fallback.
func ParseTravelMode(s string) (TravelMode, error) {
	if s == "" {
		return ModeDriving, nil
	}
	mode := TravelMode(s)
	if _, ok := modeProfiles[mode]; !ok {
		return "", fmt.Errorf("unknown travel mode %q (must be driving, walking or cycling)", s)
	}
	return mode, nil
}

// profile returns the estimation constants for the mode. TravelMode
// values constructed outside ParseTravelMode that are not in the table
// use the driving profile; that is the defined-default contract for
// this type.
func (m TravelMode) profile() modeProfile {
	if p, ok := modeProfiles[m]; ok {
		return p
	}
	return modeProfiles[ModeDriving]
}

// Step is a single synthetic instruction in a route estimate. The
// instructions are placeholder narrative text derived from the overall
// bearing, not real turn-by-turn directions.
type Step struct {
	Instruction  string  `json:"instruction"`
	DistanceKm   float64 `json:"distance_km"`
	DistanceText string  `json:"distance_text"`
}

// RouteEstimate is the result of estimating a route between two points.
// Distances are kilometers, durations minutes.
type RouteEstimate struct {
	DistanceKm      float64    `json:"distance_km"`
	DistanceText    string     `json:"distance_text"`
	DurationMinutes float64    `json:"duration_minutes"`
	DurationText    string     `json:"duration_text"`
	Mode            TravelMode `json:"mode"`
	Steps           []Step     `json:"steps"`
	Start           Location   `json:"start_coordinates"`
	End             Location   `json:"end_coordinates"`
	Bearing         float64    `json:"bearing"`
	Direction       string     `json:"direction"`
}

// EstimateRoute produces a heuristic route estimate between two points.
// The straight-line distance is inflated by the mode's road factor to
// approximate real road distance and divided by the mode's average speed
// to estimate duration. This is not a routing engine; there is no
// pathfinding and no failure path for finite inputs.
func EstimateRoute(start, end Location, mode TravelMode) RouteEstimate {
	p := mode.profile()

	directKm := Distance(start, end)
	routeKm := directKm * p.RouteFactor
	minutes := routeKm / p.AvgSpeedKmh * 60

	bearing := Bearing(start, end)
	direction := DirectionLabel(bearing)

	// Fixed three-step narrative with a 10%/80%/10% distance split.
	steps := []Step{
		{
			Instruction:  fmt.Sprintf("Head %s", direction),
			DistanceKm:   routeKm * 0.1,
			DistanceText: fmt.Sprintf("%.1f km", routeKm*0.1),
		},
		{
			Instruction:  fmt.Sprintf("Continue %s", direction),
			DistanceKm:   routeKm * 0.8,
			DistanceText: fmt.Sprintf("%.1f km", routeKm*0.8),
		},
		{
			Instruction:  "Arrive at destination",
			DistanceKm:   routeKm * 0.1,
			DistanceText: fmt.Sprintf("%.1f km", routeKm*0.1),
		},
	}

	return RouteEstimate{
		DistanceKm:      round2(routeKm),
		DistanceText:    fmt.Sprintf("%.1f km", routeKm),
		DurationMinutes: round1(minutes),
		DurationText:    FormatDuration(minutes),
		Mode:            mode,
		Steps:           steps,
		Start:           start,
		End:             end,
		Bearing:         round1(bearing),
		Direction:       direction,
	}
}

// FormatDuration renders minutes as "Xh Ym" when at least an hour,
// otherwise "X min".
func FormatDuration(minutes float64) string {
	whole := int(minutes)
	if minutes >= 60 {
		return fmt.Sprintf("%dh %dm", whole/60, whole%60)
	}
	return fmt.Sprintf("%d min", whole)
}

// MatrixEntry is one cell of a distance matrix, carrying its own
// origin/destination indices.
type MatrixEntry struct {
	DistanceKm       float64 `json:"distance_km"`
	RouteDistanceKm  float64 `json:"route_distance_km"`
	DurationMinutes  float64 `json:"duration_minutes"`
	OriginIndex      int     `json:"origin_index"`
	DestinationIndex int     `json:"destination_index"`
}

// Matrix is a dense row-major distance matrix with echoed input
// coordinate lists. Entries[i][j] pairs origin i with destination j.
type Matrix struct {
	Origins      []Location      `json:"origins"`
	Destinations []Location      `json:"destinations"`
	Entries      [][]MatrixEntry `json:"matrix"`
}

// DistanceMatrix computes straight-line and estimated driving distances
// between every origin/destination pair. Unlike EstimateRoute it always
// uses the driving profile. Empty input lists yield an empty matrix.
// Nil inputs are echoed as empty slices so the result marshals with
// empty JSON arrays rather than null.
func DistanceMatrix(origins, destinations []Location) Matrix {
	p := ModeDriving.profile()

	if origins == nil {
		origins = []Location{}
	}
	if destinations == nil {
		destinations = []Location{}
	}

	entries := make([][]MatrixEntry, len(origins))
	for i, origin := range origins {
		row := make([]MatrixEntry, len(destinations))
		for j, dest := range destinations {
			directKm := Distance(origin, dest)
			routeKm := directKm * p.RouteFactor
			minutes := routeKm / p.AvgSpeedKmh * 60

			row[j] = MatrixEntry{
				DistanceKm:       round2(directKm),
				RouteDistanceKm:  round2(routeKm),
				DurationMinutes:  round1(minutes),
				OriginIndex:      i,
				DestinationIndex: j,
			}
		}
		entries[i] = row
	}

	return Matrix{
		Origins:      origins,
		Destinations: destinations,
		Entries:      entries,
	}
}

// Candidate is a location record offered to FindNearby. Latitude and
// Longitude are pointers so a record missing either field can be
// represented and skipped; Meta carries arbitrary caller-supplied fields
// through to the result untouched.
type Candidate struct {
	Latitude  *float64
	Longitude *float64
	Meta      map[string]any
}

// NearbyPlace is a candidate that fell within the search radius,
// augmented with its distance and direction from the center.
type NearbyPlace struct {
	Location   Location
	DistanceKm float64
	Bearing    float64
	Direction  string
	Meta       map[string]any
}

// FindNearby returns the candidates within radiusKm of center (boundary
// inclusive), each augmented with distance, bearing and direction from
// the center, sorted ascending by distance. The sort is stable, so ties
// keep their original relative order. Candidates missing latitude or
// longitude are skipped silently. An empty result is valid.
func FindNearby(center Location, candidates []Candidate, radiusKm float64) []NearbyPlace {
	nearby := make([]NearbyPlace, 0, len(candidates))

	for _, c := range candidates {
		if c.Latitude == nil || c.Longitude == nil {
			continue
		}
		loc := Location{Latitude: *c.Latitude, Longitude: *c.Longitude}

		distKm := Distance(center, loc)
		if distKm > radiusKm {
			continue
		}

		bearing := Bearing(center, loc)
		nearby = append(nearby, NearbyPlace{
			Location:   loc,
			DistanceKm: round2(distKm),
			Bearing:    round1(bearing),
			Direction:  DirectionLabel(bearing),
			Meta:       c.Meta,
		})
	}

	sort.SliceStable(nearby, func(i, j int) bool {
		return nearby[i].DistanceKm < nearby[j].DistanceKm
	})

	return nearby
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
