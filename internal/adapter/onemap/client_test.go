package onemap

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

const testToken = "onemap-test-token"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestBoundaries_ParsesPlanningAreas(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/popapi/getAllPlanningarea", r.URL.Path)
		assert.Equal(t, "2019", r.URL.Query().Get("year"))
		assert.Equal(t, testToken, r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`{
			"SearchResults": [
				{"pln_area_n": "BEDOK", "geojson": "{\"type\":\"MultiPolygon\",\"coordinates\":[[[[103.9,1.31],[103.96,1.31],[103.96,1.35],[103.9,1.35],[103.9,1.31]]]]}"},
				{"pln_area_n": "", "geojson": "{\"type\":\"Polygon\",\"coordinates\":[]}"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testToken, "2019", 5*time.Second, testLogger())
	boundaries, err := c.Boundaries(context.Background())
	require.NoError(t, err)
	require.Len(t, boundaries, 2)

	assert.Equal(t, "BEDOK", boundaries[0].Name)
	assert.Contains(t, string(boundaries[0].Geometry), "MultiPolygon")
	assert.Equal(t, "UNKNOWN", boundaries[1].Name, "nameless areas get a placeholder")
}

func TestBoundaries_NoAuthHeaderWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"SearchResults": []}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "2019", 5*time.Second, testLogger())
	boundaries, err := c.Boundaries(context.Background())
	require.NoError(t, err)
	assert.Empty(t, boundaries)
}

func TestBoundaries_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "expired", "2019", 5*time.Second, testLogger())
	_, err := c.Boundaries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch planning areas")
}

func TestThemeItems_FetchesEachCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/themesvc/retrieveTheme", r.URL.Path)
		assert.Equal(t, testToken, r.URL.Query().Get("token"))

		switch r.URL.Query().Get("queryName") {
		case "nationalparks":
			// Head row carries query metadata and no LatLng.
			_, _ = w.Write([]byte(`{"SrchResults": [
				{"FeatCount": "2"},
				{"LatLng": "1.3521,103.8198"},
				{"LatLng": "1.3644,103.9915"}
			]}`))
		case "hotels":
			_, _ = w.Write([]byte(`{"SrchResults": [{"LatLng": "1.2931,103.8558"}]}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, testToken, "2019", 5*time.Second, testLogger())
	items, err := c.ThemeItems(context.Background(), []string{"nationalparks", "hotels"})
	require.NoError(t, err)
	require.Len(t, items, 4)

	assert.Equal(t, "nationalparks", items[0].Category)
	assert.Empty(t, items[0].LatLng, "metadata head row passes through unparsed")
	assert.Equal(t, "1.3521,103.8198", items[1].LatLng)
	assert.Equal(t, "hotels", items[3].Category)
	assert.Equal(t, "1.2931,103.8558", items[3].LatLng)
}

func TestThemeItems_SkipsFailedCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("queryName") == "kindergartens" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"SrchResults": [{"LatLng": "1.30,103.80"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "2019", 5*time.Second, testLogger())
	items, err := c.ThemeItems(context.Background(), []string{"kindergartens", "hotels"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "hotels", items[0].Category)
}

func TestThemeItems_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient("http://127.0.0.1:0", "", "2019", time.Second, testLogger())
	_, err := c.ThemeItems(ctx, []string{"hotels"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
