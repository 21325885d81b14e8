package mapbox

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

func newTestClient(baseURL string) *Client {
	c := NewClient("test-token", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = baseURL
	return c
}

func TestGeocode(t *testing.T) {
	t.Run("returns the first feature center", func(t *testing.T) {
		var gotPath, gotToken string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotToken = r.URL.Query().Get("access_token")
			_, _ = w.Write([]byte(`{"features":[{"center":[-87.63,41.88],"place_name":"Chicago, Illinois"}]}`))
		}))
		defer srv.Close()

		c := newTestClient(srv.URL)
		coords, found, err := c.Geocode(context.Background(), "Daley Plaza, Chicago, IL")

		require.NoError(t, err)
		require.True(t, found)
		// Mapbox centers are lon,lat; the client swaps them.
		assert.Equal(t, 41.88, coords.Latitude)
		assert.Equal(t, -87.63, coords.Longitude)
		assert.Equal(t, "/Daley Plaza, Chicago, IL.json", gotPath)
		assert.Equal(t, "test-token", gotToken)
	})

	t.Run("zero features means not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"features":[]}`))
		}))
		defer srv.Close()

		_, found, err := newTestClient(srv.URL).Geocode(context.Background(), "nowhere at all")

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("malformed center means not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"features":[{"center":[1]}]}`))
		}))
		defer srv.Close()

		_, found, err := newTestClient(srv.URL).Geocode(context.Background(), "somewhere")

		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("API error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"message":"Not Authorized"}`, http.StatusUnauthorized)
		}))
		defer srv.Close()

		_, found, err := newTestClient(srv.URL).Geocode(context.Background(), "somewhere")

		assert.False(t, found)
		assert.ErrorContains(t, err, "status 401")
	})
}
