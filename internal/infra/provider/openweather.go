package provider

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

const defaultOpenWeatherURL = "https://api.openweathermap.org"

// OpenWeatherProvider reads current conditions from the OpenWeather API.
type OpenWeatherProvider struct {
	httpProvider
	baseURL string
	apiKey  string
	city    string
}

// NewOpenWeatherProvider creates the primary upstream provider.
func NewOpenWeatherProvider(cfg Config) *OpenWeatherProvider {
	base := cfg.URL
	if base == "" {
		base = defaultOpenWeatherURL
	}
	name := cfg.Name
	if name == "" {
		name = "openweather"
	}
	return &OpenWeatherProvider{
		httpProvider: newHTTPProvider(name, cfg.Timeout),
		baseURL:      strings.TrimRight(base, "/"),
		apiKey:       cfg.APIKey,
		city:         cfg.City,
	}
}

type openWeatherResponse struct {
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
	Main *struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
}

// Fetch performs one request for the configured city.
func (p *OpenWeatherProvider) Fetch(ctx context.Context) (domain.Measurement, error) {
	q := url.Values{}
	q.Set("q", p.city)
	q.Set("appid", p.apiKey)
	q.Set("units", "metric")
	endpoint := fmt.Sprintf("%s/data/2.5/weather?%s", p.baseURL, q.Encode())

	var resp openWeatherResponse
	err := p.getJSON(ctx, endpoint, &resp, func() error {
		if resp.Main == nil || resp.Dt == 0 {
			return errors.New("openweather: response missing main/dt")
		}
		return nil
	})
	if err != nil {
		return domain.Measurement{}, err
	}

	return domain.Measurement{
		SourceID:    p.Name() + "/" + p.city,
		Timestamp:   resp.Dt,
		Temperature: resp.Main.Temp,
		Humidity:    resp.Main.Humidity,
		Pressure:    resp.Main.Pressure,
	}, nil
}
