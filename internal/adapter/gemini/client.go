// Package gemini generates district-level heat advisories with the Google
// Gemini API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/cinderbloom/heatrisk/internal/observability"
)

const promptTemplate = `You are an AI Urban Planner for Singapore (URA/HDB).

SITUATION:
Real-time sensors detect a heat hotspot at **%s** measuring **%.1f°C**.

TASK:
1. Analyze the severity (Is this normal for Singapore? Is it a heatwave?).
2. Recommend immediate district-level interventions (e.g., "Deploy mobile misting units", "Check district cooling load", "Issue health advisory").
3. Suggest long-term mitigation for this specific area.

OUTPUT FORMAT:
Use Markdown. Keep it brief (bullet points). Tone: Professional, Urgent, Strategic.`

// fallbackHeader opens every simulated assessment; CachedAdvisor keys off it.
const fallbackHeader = "### AI Rate Notice"

const fallbackTemplate = fallbackHeader + `
*Gemini is experiencing high traffic. Showing simulated analysis for **%s**.*

### 1. Severity Analysis
*   **Status**: Moderate to High Heat Stress.
*   **Context**: Temperature of **%.1f°C** is above the district norm for this time of day.

### 2. Immediate Interventions
*   **Deploy**: Mobile cooling stations to bus interchanges in the area.
*   **Alert**: Send hydration reminders to community gardening groups.
*   **Monitor**: Increase sensor polling rate to 5-minute intervals.

### 3. Long-Term Strategy
*   **Green Facades**: Mandate vertical greening for upcoming projects in %s.
*   **Wind Corridors**: Review urban canyon effects in the next master plan review.`

// Client calls the Gemini generateContent endpoint.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Gemini advisory client for the given model, e.g.
// "gemini-2.0-flash".
func NewClient(apiKey, model string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://generativelanguage.googleapis.com/v1beta/models",
		metrics: metrics,
		logger:  logger,
	}
}

// Assess generates a markdown mitigation briefing for one overheating region.
// When Gemini is rate limited (HTTP 429 or RESOURCE_EXHAUSTED) a canned
// simulated assessment is returned instead of an error, so the advisory
// endpoint stays useful during quota exhaustion.
func (c *Client) Assess(ctx context.Context, region string, temperature float64) (string, error) {
	start := time.Now()
	defer func() {
		c.metrics.AdvisoryDuration.Observe(time.Since(start).Seconds())
	}()

	prompt := fmt.Sprintf(promptTemplate, region, temperature)
	payload, err := json.Marshal(request{
		Contents: []content{{Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	u := fmt.Sprintf("%s/%s:generateContent?key=%s", c.baseURL, c.model, url.QueryEscape(c.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.AdvisoryRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.AdvisoryRequests.WithLabelValues("error").Inc()
		return "", fmt.Errorf("read response: %w", err)
	}

	var out response
	// A non-JSON error body is tolerated; the status code decides below.
	_ = json.Unmarshal(body, &out)

	if resp.StatusCode == http.StatusTooManyRequests || (out.Error != nil && out.Error.Status == "RESOURCE_EXHAUSTED") {
		c.metrics.AdvisoryRequests.WithLabelValues("fallback").Inc()
		c.logger.Warn("gemini rate limited, serving simulated assessment",
			"region", region, "status", resp.StatusCode)
		return fmt.Sprintf(fallbackTemplate, region, temperature, region), nil
	}

	if resp.StatusCode != http.StatusOK {
		c.metrics.AdvisoryRequests.WithLabelValues("error").Inc()
		if out.Error != nil {
			return "", fmt.Errorf("gemini API error %d: %s", out.Error.Code, out.Error.Message)
		}
		return "", fmt.Errorf("gemini API error: status %d: %s", resp.StatusCode, body)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		c.metrics.AdvisoryRequests.WithLabelValues("error").Inc()
		return "", errors.New("gemini returned no candidates")
	}

	c.metrics.AdvisoryRequests.WithLabelValues("success").Inc()
	return out.Candidates[0].Content.Parts[0].Text, nil
}

// Gemini API request and response types.

type request struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}
