package traccar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(server *httptest.Server) *Client {
	return &Client{
		ServerURL:  server.URL,
		Username:   "saferide",
		Password:   "secret",
		httpClient: server.Client(),
	}
}

func TestPositionsForTimeRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/positions", r.URL.Path)
		assert.Equal(t, "7", r.URL.Query().Get("deviceId"))
		assert.NotEmpty(t, r.URL.Query().Get("from"))
		assert.NotEmpty(t, r.URL.Query().Get("to"))

		username, password, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "saferide", username)
		assert.Equal(t, "secret", password)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"id": 1, "deviceId": 7, "latitude": 23.8110, "longitude": 90.4125, "fixTime": "2024-05-01T11:58:00Z"},
			{"id": 2, "deviceId": 7, "latitude": 23.8112, "longitude": 90.4125, "fixTime": "2024-05-01T11:58:30Z"}
		]`))
	}))
	defer server.Close()

	client := newTestClient(server)

	positions, err := client.PositionsForTimeRange(context.Background(), 7, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)

	require.Len(t, positions, 2)
	assert.Equal(t, 7, positions[0].DeviceID)
	assert.Equal(t, 23.8110, positions[0].Latitude)
	assert.Equal(t, "2024-05-01T11:58:30Z", positions[1].FixTime)
}

func TestLastPosition(t *testing.T) {
	t.Run("returns the position", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[{"id": 1, "deviceId": 7, "latitude": 23.8110, "longitude": 90.4125}]`))
		}))
		defer server.Close()

		position, err := newTestClient(server).LastPosition(context.Background(), 7)
		require.NoError(t, err)

		require.NotNil(t, position)
		assert.Equal(t, 23.8110, position.Latitude)
	})

	t.Run("nil when the server has none", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer server.Close()

		position, err := newTestClient(server).LastPosition(context.Background(), 7)
		require.NoError(t, err)
		assert.Nil(t, position)
	})
}

func TestDevices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/devices", r.URL.Path)
		w.Write([]byte(`[{"id": 7, "name": "Rickshaw 12", "uniqueId": "860000000000007", "status": "online"}]`))
	}))
	defer server.Close()

	devices, err := newTestClient(server).Devices(context.Background())
	require.NoError(t, err)

	require.Len(t, devices, 1)
	assert.Equal(t, 7, devices[0].ID)
	assert.Equal(t, "860000000000007", devices[0].UniqueID)
}

func TestTokenAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer api-token", r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := newTestClient(server)
	client.Token = "api-token"

	_, err := client.Devices(context.Background())
	require.NoError(t, err)
}

func TestRetryOnTransientFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}

		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	_, err := newTestClient(server).Devices(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestNoRetryOnAuthFailure(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(server).Devices(context.Background())
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}
