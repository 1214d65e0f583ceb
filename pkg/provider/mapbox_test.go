package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elonfeng/commutescore/pkg/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func assertWellFormed(t *testing.T, d *InfrastructureData) {
	t.Helper()
	require.NotNil(t, d)
	assert.True(t, d.Simulated)
	assert.GreaterOrEqual(t, d.SafetyScore, 5.0)
	assert.Less(t, d.SafetyScore, 10.0)
	assert.GreaterOrEqual(t, d.InfrastructureScore, 3.0)
	assert.Less(t, d.InfrastructureScore, 10.0)
}

func TestMapboxInfrastructureUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
	}))
	defer srv.Close()

	m := NewMapbox(srv.URL, "mb-key", time.Second, rng.New(7), zap.NewNop())
	for i := 0; i < 50; i++ {
		assertWellFormed(t, m.Infrastructure(context.Background(), 40.7, -74.0))
	}
}

func TestMapboxInfrastructureUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	m := NewMapbox(url, "mb-key", time.Second, rng.New(1), zap.NewNop())
	assertWellFormed(t, m.Infrastructure(context.Background(), 40.7, -74.0))
}

func TestMapboxInfrastructureProbeRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/directions-matrix/v1/mapbox/cycling/"))
		assert.Contains(t, r.URL.Path, "-74.006000,40.712800;-74.006000,40.712800")
		assert.Equal(t, "mb-key", r.URL.Query().Get("access_token"))
		w.Write([]byte(`{"code":"Ok","durations":[[0,0],[0,0]]}`))
	}))
	defer srv.Close()

	m := NewMapbox(srv.URL, "mb-key", time.Second, rng.New(3), zap.NewNop())
	assertWellFormed(t, m.Infrastructure(context.Background(), 40.7128, -74.006))
}

func TestMapboxMissingKeySkipsNetwork(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	m := NewMapbox(srv.URL, "", time.Second, rng.New(3), nil)
	assertWellFormed(t, m.Infrastructure(context.Background(), 1, 2))
	assert.False(t, called)
}

func TestSimulatedInfrastructureDraws(t *testing.T) {
	low := SimulatedInfrastructure(rng.Fixed(0))
	assert.False(t, low.BikeLanes)
	assert.False(t, low.BikePaths)
	assert.False(t, low.BikeFriendlyRoads)
	assert.Equal(t, 5.0, low.SafetyScore)
	assert.Equal(t, 3.0, low.InfrastructureScore)

	high := SimulatedInfrastructure(rng.Fixed(0.99))
	assert.True(t, high.BikeLanes)
	assert.True(t, high.BikePaths)
	assert.True(t, high.BikeFriendlyRoads)
	assert.InDelta(t, 9.95, high.SafetyScore, 1e-9)
	assert.InDelta(t, 9.93, high.InfrastructureScore, 1e-9)
}
