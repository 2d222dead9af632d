package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

const defaultWeatherstackURL = "http://api.weatherstack.com"

// WeatherstackProvider reads current conditions from the Weatherstack API.
type WeatherstackProvider struct {
	httpProvider
	baseURL string
	apiKey  string
	city    string
	now     func() time.Time
}

// NewWeatherstackProvider creates the secondary upstream provider.
func NewWeatherstackProvider(cfg Config) *WeatherstackProvider {
	base := cfg.URL
	if base == "" {
		base = defaultWeatherstackURL
	}
	name := cfg.Name
	if name == "" {
		name = "weatherstack"
	}
	return &WeatherstackProvider{
		httpProvider: newHTTPProvider(name, cfg.Timeout),
		baseURL:      strings.TrimRight(base, "/"),
		apiKey:       cfg.APIKey,
		city:         cfg.City,
		now:          time.Now,
	}
}

type weatherstackResponse struct {
	Success *bool `json:"success"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
	Location struct {
		LocaltimeEpoch int64 `json:"localtime_epoch"`
	} `json:"location"`
	Current *struct {
		Temperature float64 `json:"temperature"`
		Humidity    float64 `json:"humidity"`
		Pressure    float64 `json:"pressure"`
	} `json:"current"`
}

// Fetch performs one request for the configured city. Weatherstack reports
// errors with HTTP 200 and a success=false body.
func (p *WeatherstackProvider) Fetch(ctx context.Context) (domain.Measurement, error) {
	q := url.Values{}
	q.Set("access_key", p.apiKey)
	q.Set("query", p.city)
	q.Set("units", "m")
	endpoint := fmt.Sprintf("%s/current?%s", p.baseURL, q.Encode())

	var resp weatherstackResponse
	err := p.getJSON(ctx, endpoint, &resp, func() error {
		if resp.Error != nil {
			return fmt.Errorf("weatherstack error %d (%s): %s", resp.Error.Code, resp.Error.Type, resp.Error.Info)
		}
		if resp.Success != nil && !*resp.Success {
			return fmt.Errorf("weatherstack: request unsuccessful")
		}
		if resp.Current == nil {
			return fmt.Errorf("weatherstack: response missing current")
		}
		return nil
	})
	if err != nil {
		return domain.Measurement{}, err
	}

	ts := resp.Location.LocaltimeEpoch
	if ts == 0 {
		ts = p.now().Unix()
	}

	return domain.Measurement{
		SourceID:    p.Name() + "/" + p.city,
		Timestamp:   ts,
		Temperature: resp.Current.Temperature,
		Humidity:    resp.Current.Humidity,
		Pressure:    resp.Current.Pressure,
	}, nil
}
