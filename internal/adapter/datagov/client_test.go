package datagov

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const airTempPayload = `{
	"code": 0,
	"data": {
		"stations": [
			{"id": "S107", "name": "East Coast Parkway", "location": {"latitude": 1.3135, "longitude": 103.9625}},
			{"id": "S109", "name": "", "location": {"latitude": 1.3764, "longitude": 103.8492}},
			{"id": "S900", "name": "Offline Station", "location": {"latitude": 1.29, "longitude": 103.85}}
		],
		"readings": [
			{
				"timestamp": "2024-06-01T14:00:00+08:00",
				"data": [
					{"stationId": "S107", "value": 30.2},
					{"stationId": "S109", "value": 29.1}
				]
			},
			{
				"timestamp": "2024-06-01T13:59:00+08:00",
				"data": [{"stationId": "S900", "value": 28.0}]
			}
		]
	}
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTemperaturePoints_JoinsStationsToLatestReading(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/air-temperature", r.URL.Path)
		_, _ = w.Write([]byte(airTempPayload))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger())
	points, err := c.TemperaturePoints(context.Background())
	require.NoError(t, err)

	// S900 only appears in an older reading set and is skipped.
	require.Len(t, points, 2)

	assert.Equal(t, "East Coast Parkway", points[0].Label)
	assert.Equal(t, 30.2, points[0].Value)
	assert.Equal(t, 1.3135, points[0].Lat)
	assert.Equal(t, 103.9625, points[0].Lon)

	// Unnamed stations fall back to the station ID.
	assert.Equal(t, "S109", points[1].Label)
	assert.Equal(t, 29.1, points[1].Value)
}

func TestTemperaturePoints_APIErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code": 3, "errorMsg": "dataset temporarily unavailable", "data": {}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger())
	_, err := c.TemperaturePoints(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset temporarily unavailable")
}

func TestTemperaturePoints_EmptyReadings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"code": 0, "data": {"stations": [], "readings": []}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger())
	_, err := c.TemperaturePoints(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no temperature readings")
}

func TestTemperaturePoints_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second, testLogger())
	_, err := c.TemperaturePoints(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch air temperature")
}
