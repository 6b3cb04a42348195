package api_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"tracker/internal/app/server/api"
	"tracker/internal/domain/device"
	"tracker/internal/domain/session"
)

type stubDevices struct {
	device.Servicer
}

func (stubDevices) GetUserDevicesWithPositions(context.Context) device.Result[[]*device.DeviceWithPosition] {
	return device.Ok([]*device.DeviceWithPosition{
		{Device: device.Device{EnteredID: "IMEI123", CustomName: "Car"}},
	})
}

func (stubDevices) GetStats(context.Context) device.Result[*device.Stats] {
	return device.Fail[*device.Stats](assert.AnError)
}

type okStore struct{}

func (okStore) Ping(context.Context) error {
	return nil
}

type tokenValidator map[string]string

func (v tokenValidator) Validate(_ context.Context, token string) (string, error) {
	login, ok := v[token]
	if !ok {
		return "", session.ErrInvalidToken
	}
	return login, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := httptest.NewServer(api.New(stubDevices{}, tokenValidator{"good": "alice"}, okStore{}, log))
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url, token string) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/api/v1/health", "")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestAPI_Devices(t *testing.T) {
	srv := newTestServer(t)

	t.Run("без токена", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/api/v1/devices", "")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "unauthorized", body["error"])
	})

	t.Run("неверный токен", func(t *testing.T) {
		resp, _ := get(t, srv.URL+"/api/v1/devices", "bad")

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("список", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/api/v1/devices", "good")

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, true, body["success"])

		data, ok := body["data"].([]any)
		require.True(t, ok)
		require.Len(t, data, 1)
		assert.Equal(t, "IMEI123", data[0].(map[string]any)["enteredId"])
	})

	t.Run("ошибка в конверте", func(t *testing.T) {
		resp, body := get(t, srv.URL+"/api/v1/stats", "good")

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, assert.AnError.Error(), body["error"])
	})
}
