// Package datagov fetches real-time weather readings from the data.gov.sg
// environment API.
package datagov

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/cinderbloom/heatrisk/internal/adapter/fetch"
	"github.com/cinderbloom/heatrisk/internal/domain"
)

// Client implements pipeline.WeatherSource using the data.gov.sg real-time
// air-temperature dataset.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a data.gov.sg client. baseURL points at the real-time
// API root, e.g. "https://api-open.data.gov.sg/v2/real-time/api".
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: fetch.NewBreaker("datagov", logger),
		logger:  logger,
	}
}

// TemperaturePoints fetches the latest island-wide air-temperature readings
// and joins them to station coordinates. Stations without a reading in the
// latest set are skipped; a station with an empty name is labeled by its ID.
func (c *Client) TemperaturePoints(ctx context.Context) ([]domain.Point, error) {
	var resp airTemperatureResponse
	url := c.baseURL + "/air-temperature"
	if err := fetch.GetJSON(ctx, c.httpClient, c.breaker, url, nil, &resp, c.logger); err != nil {
		return nil, fmt.Errorf("fetch air temperature: %w", err)
	}

	if resp.Code != 0 {
		return nil, fmt.Errorf("data.gov.sg error code %d: %s", resp.Code, resp.ErrorMsg)
	}
	if len(resp.Data.Readings) == 0 {
		return nil, errors.New("no temperature readings in response")
	}

	reading := resp.Data.Readings[0]
	values := make(map[string]float64, len(reading.Data))
	for _, r := range reading.Data {
		values[r.StationID] = r.Value
	}

	points := make([]domain.Point, 0, len(resp.Data.Stations))
	for _, s := range resp.Data.Stations {
		v, ok := values[s.ID]
		if !ok {
			c.logger.Debug("station has no reading in latest set", "station", s.ID)
			continue
		}
		label := s.Name
		if label == "" {
			label = s.ID
		}
		points = append(points, domain.Point{
			Lat:   s.Location.Latitude,
			Lon:   s.Location.Longitude,
			Value: v,
			Label: label,
		})
	}

	c.logger.Info("fetched temperature readings",
		"stations", len(resp.Data.Stations), "points", len(points), "reading_time", reading.Timestamp)
	return points, nil
}

// data.gov.sg API response types.

type airTemperatureResponse struct {
	Code     int    `json:"code"`
	ErrorMsg string `json:"errorMsg"`
	Data     struct {
		Stations []station       `json:"stations"`
		Readings []readingWindow `json:"readings"`
	} `json:"data"`
}

type station struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Location struct {
		Latitude  float64 `json:"latitude"`
		Longitude float64 `json:"longitude"`
	} `json:"location"`
}

type readingWindow struct {
	Timestamp string `json:"timestamp"`
	Data      []struct {
		StationID string  `json:"stationId"`
		Value     float64 `json:"value"`
	} `json:"data"`
}
