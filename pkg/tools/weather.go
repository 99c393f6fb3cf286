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

	"github.com/mapagent/mapmcp/pkg/cache"
	"github.com/mapagent/mapmcp/pkg/geo"
	"github.com/mapagent/mapmcp/pkg/upstream"
	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"
)

// openMeteoBaseURL is a variable so tests can point handlers at a local
// HTTP server.
var openMeteoBaseURL = upstream.OpenMeteoBaseURL

// currentWeatherCache holds recent current-conditions responses keyed
// by coordinate. Open-Meteo updates current weather every 15 minutes;
// a short TTL keeps repeated conversational queries cheap.
var currentWeatherCache = cache.NewTTLCache[string, CurrentWeather](5 * time.Minute)

// CurrentWeather is the current-conditions response shape.
type CurrentWeather struct {
	Location           string  `json:"location"`
	Latitude           float64 `json:"latitude"`
	Longitude          float64 `json:"longitude"`
	TemperatureF       float64 `json:"temperature_f"`
	WindspeedMph       float64 `json:"windspeed_mph"`
	WindDirection      float64 `json:"wind_direction"`
	WeatherCode        int     `json:"weather_code"`
	WeatherDescription string  `json:"weather_description"`
	Time               string  `json:"time"`
	IsDay              bool    `json:"is_day"`
}

// ForecastDay is a single day of forecast data.
type ForecastDay struct {
	Date               string  `json:"date"`
	TemperatureMaxF    float64 `json:"temperature_max_f"`
	TemperatureMinF    float64 `json:"temperature_min_f"`
	PrecipitationIn    float64 `json:"precipitation_in"`
	WeatherCode        int     `json:"weather_code"`
	WeatherDescription string  `json:"weather_description"`
}

// Forecast is the multi-day forecast response shape.
type Forecast struct {
	Location  string        `json:"location"`
	Latitude  float64       `json:"latitude"`
	Longitude float64       `json:"longitude"`
	Forecast  []ForecastDay `json:"forecast"`
	DaysCount int           `json:"days_count"`
}

// weatherCodeDescription interprets a WMO weather code (WW table) into
// a human-readable description.
func weatherCodeDescription(code int) string {
	codeMap := map[int]string{
		0:  "Clear sky",
		1:  "Mainly clear",
		2:  "Partly cloudy",
		3:  "Overcast",
		45: "Foggy",
		48: "Depositing rime fog",
		51: "Light drizzle",
		53: "Moderate drizzle",
		55: "Dense drizzle",
		56: "Light freezing drizzle",
		57: "Dense freezing drizzle",
		61: "Slight rain",
		63: "Moderate rain",
		65: "Heavy rain",
		66: "Light freezing rain",
		67: "Heavy freezing rain",
		71: "Slight snow",
		73: "Moderate snow",
		75: "Heavy snow",
		77: "Snow grains",
		80: "Slight rain showers",
		81: "Moderate rain showers",
		82: "Violent rain showers",
		85: "Slight snow showers",
		86: "Heavy snow showers",
		95: "Thunderstorm",
		96: "Thunderstorm with slight hail",
		99: "Thunderstorm with heavy hail",
	}

	if desc, ok := codeMap[code]; ok {
		return desc
	}
	return fmt.Sprintf("Unknown weather (code %d)", code)
}

// fetchCurrentWeather retrieves current conditions from Open-Meteo.
func fetchCurrentWeather(ctx context.Context, lat, lon float64, locationName string) (CurrentWeather, error) {
	cacheKey := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if cached, ok := currentWeatherCache.Get(cacheKey); ok {
		if locationName != "" {
			cached.Location = locationName
		}
		return cached, nil
	}

	reqURL, err := url.Parse(fmt.Sprintf("%s/forecast", openMeteoBaseURL))
	if err != nil {
		return CurrentWeather{}, err
	}
	q := reqURL.Query()
	q.Add("latitude", fmt.Sprintf("%f", lat))
	q.Add("longitude", fmt.Sprintf("%f", lon))
	q.Add("current_weather", "true")
	q.Add("temperature_unit", "fahrenheit")
	q.Add("windspeed_unit", "mph")
	reqURL.RawQuery = q.Encode()

	resp, err := upstream.DefaultClient().Get(ctx, reqURL.String())
	if err != nil {
		return CurrentWeather{}, NewAPIError("Open-Meteo", 0, "Failed to communicate with weather service", GuidanceNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CurrentWeather{}, NewAPIError("Open-Meteo", resp.StatusCode,
			fmt.Sprintf("Weather service error: %d", resp.StatusCode), "")
	}

	var payload struct {
		CurrentWeather struct {
			Temperature   float64 `json:"temperature"`
			Windspeed     float64 `json:"windspeed"`
			WindDirection float64 `json:"winddirection"`
			WeatherCode   int     `json:"weathercode"`
			Time          string  `json:"time"`
			IsDay         int     `json:"is_day"`
		} `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return CurrentWeather{}, NewAPIError("Open-Meteo", resp.StatusCode, "Failed to parse weather response", GuidanceDataError)
	}

	name := locationName
	if name == "" {
		name = fmt.Sprintf("%g, %g", lat, lon)
	}

	current := payload.CurrentWeather
	result := CurrentWeather{
		Location:           name,
		Latitude:           lat,
		Longitude:          lon,
		TemperatureF:       current.Temperature,
		WindspeedMph:       current.Windspeed,
		WindDirection:      current.WindDirection,
		WeatherCode:        current.WeatherCode,
		WeatherDescription: weatherCodeDescription(current.WeatherCode),
		Time:               current.Time,
		IsDay:              current.IsDay == 1,
	}

	currentWeatherCache.Set(cacheKey, result)

	return result, nil
}

// fetchForecast retrieves a daily forecast from Open-Meteo. Days is
// clamped to the service's supported 1-16 range.
func fetchForecast(ctx context.Context, lat, lon float64, days int, locationName string) (Forecast, error) {
	if days < 1 {
		days = 1
	}
	if days > 16 {
		days = 16
	}

	reqURL, err := url.Parse(fmt.Sprintf("%s/forecast", openMeteoBaseURL))
	if err != nil {
		return Forecast{}, err
	}
	q := reqURL.Query()
	q.Add("latitude", fmt.Sprintf("%f", lat))
	q.Add("longitude", fmt.Sprintf("%f", lon))
	q.Add("daily", "temperature_2m_max,temperature_2m_min,precipitation_sum,weathercode")
	q.Add("temperature_unit", "fahrenheit")
	q.Add("precipitation_unit", "inch")
	q.Add("forecast_days", strconv.Itoa(days))
	reqURL.RawQuery = q.Encode()

	resp, err := upstream.DefaultClient().Get(ctx, reqURL.String())
	if err != nil {
		return Forecast{}, NewAPIError("Open-Meteo", 0, "Failed to communicate with weather service", GuidanceNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Forecast{}, NewAPIError("Open-Meteo", resp.StatusCode,
			fmt.Sprintf("Weather service error: %d", resp.StatusCode), "")
	}

	var payload struct {
		Daily struct {
			Time             []string  `json:"time"`
			TemperatureMax   []float64 `json:"temperature_2m_max"`
			TemperatureMin   []float64 `json:"temperature_2m_min"`
			PrecipitationSum []float64 `json:"precipitation_sum"`
			WeatherCode      []int     `json:"weathercode"`
		} `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Forecast{}, NewAPIError("Open-Meteo", resp.StatusCode, "Failed to parse forecast response", GuidanceDataError)
	}

	name := locationName
	if name == "" {
		name = fmt.Sprintf("%g, %g", lat, lon)
	}

	daily := payload.Daily
	forecastDays := make([]ForecastDay, 0, len(daily.Time))
	for i, date := range daily.Time {
		day := ForecastDay{Date: date}
		if i < len(daily.TemperatureMax) {
			day.TemperatureMaxF = daily.TemperatureMax[i]
		}
		if i < len(daily.TemperatureMin) {
			day.TemperatureMinF = daily.TemperatureMin[i]
		}
		if i < len(daily.PrecipitationSum) {
			day.PrecipitationIn = daily.PrecipitationSum[i]
		}
		if i < len(daily.WeatherCode) {
			day.WeatherCode = daily.WeatherCode[i]
			day.WeatherDescription = weatherCodeDescription(daily.WeatherCode[i])
		}
		forecastDays = append(forecastDays, day)
	}

	return Forecast{
		Location:  name,
		Latitude:  lat,
		Longitude: lon,
		Forecast:  forecastDays,
		DaysCount: len(forecastDays),
	}, nil
}

// GetWeatherTool returns a tool definition for current weather conditions
func GetWeatherTool() mcp.Tool {
	return mcp.NewTool("get_weather",
		mcp.WithDescription("Get current weather conditions for a specific location"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("Location latitude"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("Location longitude"),
		),
		mcp.WithString("location_name",
			mcp.Description("Optional name of the location for display"),
		),
	)
}

// HandleGetWeather implements the current weather functionality
func HandleGetWeather(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "get_weather")

	latitude := mcp.ParseFloat64(req, "latitude", 0)
	longitude := mcp.ParseFloat64(req, "longitude", 0)
	locationName := mcp.ParseString(req, "location_name", "")

	if err := geo.ValidateCoords(latitude, longitude); err != nil {
		return ErrorResponse(err.Error()), nil
	}

	weather, err := fetchCurrentWeather(ctx, latitude, longitude, locationName)
	if err != nil {
		logger.Error("failed to fetch current weather", "error", err)
		if apiErr, ok := err.(*APIError); ok {
			return ErrorWithGuidance(apiErr), nil
		}
		return ErrorResponse("Failed to fetch current weather"), nil
	}

	return marshalResult(logger, weather)
}

// WeatherForecastTool returns a tool definition for multi-day forecasts
func WeatherForecastTool() mcp.Tool {
	return mcp.NewTool("weather_forecast",
		mcp.WithDescription("Get weather forecast for a location for the specified number of days"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("Location latitude"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("Location longitude"),
		),
		mcp.WithNumber("days",
			mcp.Description("Number of days to forecast (1-16)"),
			mcp.DefaultNumber(7),
		),
		mcp.WithString("location_name",
			mcp.Description("Optional name of the location"),
		),
	)
}

// HandleWeatherForecast implements the forecast functionality
func HandleWeatherForecast(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "weather_forecast")

	latitude := mcp.ParseFloat64(req, "latitude", 0)
	longitude := mcp.ParseFloat64(req, "longitude", 0)
	days := int(mcp.ParseFloat64(req, "days", 7))
	locationName := mcp.ParseString(req, "location_name", "")

	if err := geo.ValidateCoords(latitude, longitude); err != nil {
		return ErrorResponse(err.Error()), nil
	}

	forecast, err := fetchForecast(ctx, latitude, longitude, days, locationName)
	if err != nil {
		logger.Error("failed to fetch forecast", "error", err)
		if apiErr, ok := err.(*APIError); ok {
			return ErrorWithGuidance(apiErr), nil
		}
		return ErrorResponse("Failed to fetch forecast"), nil
	}

	return marshalResult(logger, forecast)
}

// LocationWeatherInfo is the combined location and weather response.
type LocationWeatherInfo struct {
	Location struct {
		Name      string  `json:"name"`
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
	CurrentWeather CurrentWeather `json:"current_weather"`
	Forecast       []ForecastDay  `json:"forecast,omitempty"`
}

// LocationWeatherInfoTool returns a tool definition for the combined view
func LocationWeatherInfoTool() mcp.Tool {
	return mcp.NewTool("location_weather_info",
		mcp.WithDescription("Get comprehensive location and weather information including current conditions and forecast"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("Location latitude"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("Location longitude"),
		),
		mcp.WithString("location_name",
			mcp.Required(),
			mcp.Description("Name of the location"),
		),
		mcp.WithBoolean("include_forecast",
			mcp.Description("Whether to include 5-day forecast"),
			mcp.DefaultBool(true),
		),
	)
}

// HandleLocationWeatherInfo implements the combined location and weather
// view. Current conditions and the forecast are fetched concurrently.
func HandleLocationWeatherInfo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "location_weather_info")

	latitude := mcp.ParseFloat64(req, "latitude", 0)
	longitude := mcp.ParseFloat64(req, "longitude", 0)
	locationName := mcp.ParseString(req, "location_name", "")
	includeForecast := mcp.ParseBoolean(req, "include_forecast", true)

	if err := geo.ValidateCoords(latitude, longitude); err != nil {
		return ErrorResponse(err.Error()), nil
	}
	if locationName == "" {
		return ErrorResponse("Location name must not be empty"), nil
	}

	var (
		current  CurrentWeather
		forecast Forecast
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = fetchCurrentWeather(gctx, latitude, longitude, locationName)
		return err
	})
	if includeForecast {
		g.Go(func() error {
			var err error
			forecast, err = fetchForecast(gctx, latitude, longitude, 5, locationName)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("failed to fetch weather info", "error", err)
		if apiErr, ok := err.(*APIError); ok {
			return ErrorWithGuidance(apiErr), nil
		}
		return ErrorResponse("Failed to fetch weather information"), nil
	}

	var info LocationWeatherInfo
	info.Location.Name = locationName
	info.Location.Latitude = latitude
	info.Location.Longitude = longitude
	info.CurrentWeather = current
	if includeForecast {
		info.Forecast = forecast.Forecast
	}

	return marshalResult(logger, info)
}
