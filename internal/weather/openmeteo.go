package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/CJang10/my-style-ai/internal/config"
	"github.com/CJang10/my-style-ai/internal/models"
)

// Conditions is the slice of current weather the stylist cares about.
type Conditions struct {
	TemperatureC  float64 `json:"temperature_c"`
	WindSpeedKmh  float64 `json:"wind_speed_kmh"`
	WeatherCode   int     `json:"weather_code"`
	Description   string  `json:"description"`
	Precipitation float64 `json:"precipitation_mm"`
}

// IWeather fetches current conditions for a coordinate pair.
type IWeather interface {
	Current(ctx context.Context, latitude, longitude float64) (*Conditions, error)
}

type openMeteoClient struct {
	cfg        *config.Config
	httpClient *http.Client
}

// NewOpenMeteoClient creates a client against the Open-Meteo forecast API.
// No API key required.
func NewOpenMeteoClient(cfg *config.Config) IWeather {
	return &openMeteoClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.WeatherTimeout},
	}
}

type forecastResponse struct {
	Current struct {
		Temperature   float64 `json:"temperature_2m"`
		WindSpeed     float64 `json:"wind_speed_10m"`
		WeatherCode   int     `json:"weather_code"`
		Precipitation float64 `json:"precipitation"`
	} `json:"current"`
}

func (c *openMeteoClient) Current(ctx context.Context, latitude, longitude float64) (*Conditions, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", latitude))
	q.Set("longitude", fmt.Sprintf("%.4f", longitude))
	q.Set("current", "temperature_2m,wind_speed_10m,weather_code,precipitation")

	endpoint := strings.TrimSuffix(c.cfg.WeatherBaseURL, "/") + "/v1/forecast?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &models.UpstreamUnavailableError{Upstream: "open-meteo", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		log.Printf("Open-Meteo error: %d - %s", resp.StatusCode, string(body))
		return nil, &models.UpstreamUnavailableError{Upstream: "open-meteo", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, &models.UpstreamUnavailableError{Upstream: "open-meteo", Err: err}
	}

	return &Conditions{
		TemperatureC:  fr.Current.Temperature,
		WindSpeedKmh:  fr.Current.WindSpeed,
		WeatherCode:   fr.Current.WeatherCode,
		Description:   describeCode(fr.Current.WeatherCode),
		Precipitation: fr.Current.Precipitation,
	}, nil
}

// describeCode maps WMO weather interpretation codes to short labels.
func describeCode(code int) string {
	switch {
	case code == 0:
		return "clear sky"
	case code <= 3:
		return "partly cloudy"
	case code <= 48:
		return "fog"
	case code <= 57:
		return "drizzle"
	case code <= 67:
		return "rain"
	case code <= 77:
		return "snow"
	case code <= 82:
		return "rain showers"
	case code <= 86:
		return "snow showers"
	default:
		return "thunderstorm"
	}
}
