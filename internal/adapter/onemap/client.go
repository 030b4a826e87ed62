// Package onemap fetches planning-area boundaries and amenity themes from the
// Singapore OneMap public API.
package onemap

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/cinderbloom/heatrisk/internal/adapter/fetch"
	"github.com/cinderbloom/heatrisk/internal/domain"
)

// Client implements pipeline.RegionSource and pipeline.ThemeSource against
// OneMap. The token is optional for public datasets but raises rate limits
// and is required for some themes.
type Client struct {
	baseURL    string
	token      string
	year       string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewClient creates a OneMap client. baseURL points at the public API root,
// e.g. "https://www.onemap.gov.sg/api/public"; year selects the planning-area
// census vintage.
func NewClient(baseURL, token, year string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		year:    year,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: fetch.NewBreaker("onemap", logger),
		logger:  logger,
	}
}

// Boundaries fetches every planning-area polygon for the configured year. The
// geojson payload arrives as a string per area and is passed through raw;
// RegionIndex owns parsing so one malformed polygon cannot fail the load.
func (c *Client) Boundaries(ctx context.Context) ([]domain.RegionBoundary, error) {
	u := fmt.Sprintf("%s/popapi/getAllPlanningarea?year=%s", c.baseURL, url.QueryEscape(c.year))

	var resp planningAreaResponse
	if err := fetch.GetJSON(ctx, c.httpClient, c.breaker, u, c.authHeader(), &resp, c.logger); err != nil {
		return nil, fmt.Errorf("fetch planning areas: %w", err)
	}

	boundaries := make([]domain.RegionBoundary, 0, len(resp.SearchResults))
	for _, area := range resp.SearchResults {
		name := area.PlnAreaN
		if name == "" {
			name = "UNKNOWN"
		}
		boundaries = append(boundaries, domain.RegionBoundary{
			Name:     name,
			Geometry: json.RawMessage(area.GeoJSON),
		})
	}

	c.logger.Info("fetched planning areas", "count", len(boundaries), "year", c.year)
	return boundaries, nil
}

// ThemeItems fetches amenity locations for each requested theme category. A
// category that fails to fetch is logged and skipped so one flaky theme
// cannot blank out the rest; only a finished context aborts the sweep.
func (c *Client) ThemeItems(ctx context.Context, categories []string) ([]domain.ThemeItem, error) {
	var items []domain.ThemeItem
	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := url.Values{"queryName": {cat}}
		if c.token != "" {
			params.Set("token", c.token)
		}
		u := fmt.Sprintf("%s/themesvc/retrieveTheme?%s", c.baseURL, params.Encode())

		var resp themeResponse
		if err := fetch.GetJSON(ctx, c.httpClient, c.breaker, u, c.authHeader(), &resp, c.logger); err != nil {
			c.logger.Warn("theme fetch failed, skipping category", "category", cat, "error", err)
			continue
		}

		// The first result row is usually metadata without a LatLng; it is
		// forwarded as-is and dropped during parsing downstream.
		for _, r := range resp.SrchResults {
			items = append(items, domain.ThemeItem{Category: cat, LatLng: r.LatLng})
		}
		c.logger.Debug("fetched theme", "category", cat, "items", len(resp.SrchResults))
	}
	return items, nil
}

func (c *Client) authHeader() http.Header {
	if c.token == "" {
		return nil
	}
	return http.Header{"Authorization": {c.token}}
}

// OneMap API response types.

type planningAreaResponse struct {
	SearchResults []struct {
		PlnAreaN string `json:"pln_area_n"`
		GeoJSON  string `json:"geojson"`
	} `json:"SearchResults"`
}

type themeResponse struct {
	SrchResults []struct {
		LatLng string `json:"LatLng"`
	} `json:"SrchResults"`
}
