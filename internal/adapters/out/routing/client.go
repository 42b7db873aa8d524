// Package routing prices deliveries from the road distance reported by an
// OpenRouteService compatible directions API.
package routing

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"mensajero/internal/core/domain/model/kernel"
	"mensajero/internal/core/domain/model/order"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

const (
	DefaultProfile = "driving-car"
	DefaultTimeout = 5 * time.Second
)

var ErrNoRoute = errors.New("routing: no route between points")

// Pricing turns a distance into a price: BaseFare + PerKm * km, rounded to cents.
type Pricing struct {
	BaseFare float64
	PerKm    float64
}

func (p Pricing) Price(distanceKm float64) float64 {
	return math.Round((p.BaseFare+p.PerKm*distanceKm)*100) / 100
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Profile string
	Timeout time.Duration
	Pricing Pricing
}

// Client implements ports.RouteQuoter and DistanceSource.
type Client struct {
	http    *resty.Client
	apiKey  string
	profile string
	pricing Pricing
}

func NewClient(cfg ClientConfig) *Client {
	if cfg.Profile == "" {
		cfg.Profile = DefaultProfile
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		http:    resty.New().SetBaseURL(cfg.BaseURL).SetTimeout(cfg.Timeout),
		apiKey:  cfg.APIKey,
		profile: cfg.Profile,
		pricing: cfg.Pricing,
	}
}

// directionsResponse is the GeoJSON subset we read.
type directionsResponse struct {
	Features []struct {
		Properties struct {
			Summary struct {
				Distance float64 `json:"distance"`
				Duration float64 `json:"duration"`
			} `json:"summary"`
		} `json:"properties"`
	} `json:"features"`
}

// Quote prices the road distance between pickup and dropoff.
func (c *Client) Quote(ctx context.Context, pickup, dropoff kernel.GeoPoint) (order.RouteQuote, error) {
	km, err := c.DistanceKm(ctx, pickup, dropoff)
	if err != nil {
		return order.RouteQuote{}, err
	}
	return order.NewRouteQuote(km, c.pricing.Price(km))
}

// DistanceKm asks the directions API for the road distance in kilometres.
func (c *Client) DistanceKm(ctx context.Context, pickup, dropoff kernel.GeoPoint) (float64, error) {
	if err := pickup.Validate(); err != nil {
		return 0, err
	}
	if err := dropoff.Validate(); err != nil {
		return 0, err
	}

	var body directionsResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("profile", c.profile).
		SetQueryParams(map[string]string{
			"api_key": c.apiKey,
			"start":   lonLat(pickup),
			"end":     lonLat(dropoff),
		}).
		SetHeader("Accept", "application/json, application/geo+json").
		SetResult(&body).
		Get("/v2/directions/{profile}")
	if err != nil {
		return 0, errors.Wrap(err, "routing request")
	}
	if resp.StatusCode() != http.StatusOK {
		return 0, errors.Errorf("routing: unexpected status %d", resp.StatusCode())
	}
	if len(body.Features) == 0 {
		return 0, ErrNoRoute
	}

	return body.Features[0].Properties.Summary.Distance / 1000, nil
}

// lonLat formats a point the way ORS expects it: longitude first.
func lonLat(p kernel.GeoPoint) string {
	return strconv.FormatFloat(p.Longitude(), 'f', -1, 64) + "," +
		strconv.FormatFloat(p.Latitude(), 'f', -1, 64)
}
