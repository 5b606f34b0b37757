package geolocation

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/croustipeze/cookbook/internal/config"
	apperrors "github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/recipe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) CurrentPosition(ctx context.Context) (recipe.GeoPoint, error) {
	args := m.Called(ctx)
	return args.Get(0).(recipe.GeoPoint), args.Error(1)
}

var paris = recipe.GeoPoint{Latitude: 48.8566, Longitude: 2.3522}

func TestLastKnownProvider_ReusesReading(t *testing.T) {
	live := new(MockProvider)
	live.On("CurrentPosition", mock.Anything).Return(paris, nil).Once()

	p := NewLastKnownProvider(live, time.Second, time.Minute)
	for i := 0; i < 3; i++ {
		pt, err := p.CurrentPosition(context.Background())
		require.NoError(t, err)
		assert.Equal(t, paris, pt)
	}
	live.AssertExpectations(t)
}

func TestLastKnownProvider_StaleReadingIsRefreshed(t *testing.T) {
	lyon := recipe.GeoPoint{Latitude: 45.75, Longitude: 4.85}
	live := new(MockProvider)
	live.On("CurrentPosition", mock.Anything).Return(paris, nil).Once()
	live.On("CurrentPosition", mock.Anything).Return(lyon, nil).Once()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := NewLastKnownProvider(live, time.Second, time.Minute)
	p.now = func() time.Time { return now }

	pt, err := p.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, paris, pt)

	now = now.Add(2 * time.Minute)
	pt, err = p.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lyon, pt)
	live.AssertExpectations(t)
}

func TestLastKnownProvider_LiveFailure(t *testing.T) {
	live := new(MockProvider)
	live.On("CurrentPosition", mock.Anything).Return(recipe.GeoPoint{}, errors.New("gps off"))

	p := NewLastKnownProvider(live, time.Second, 0)
	_, err := p.CurrentPosition(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePositionUnavailable))

	_, ok := p.LastKnown()
	assert.False(t, ok)
}

func TestLastKnownProvider_AppliesTimeout(t *testing.T) {
	live := new(MockProvider)
	live.On("CurrentPosition", mock.Anything).Run(func(args mock.Arguments) {
		ctx := args.Get(0).(context.Context)
		_, hasDeadline := ctx.Deadline()
		assert.True(t, hasDeadline, "live read must carry a deadline")
	}).Return(paris, nil)

	p := NewLastKnownProvider(live, 30*time.Second, 0)
	_, err := p.Refresh(context.Background())
	require.NoError(t, err)
}

func TestChainProvider(t *testing.T) {
	failing := new(MockProvider)
	failing.On("CurrentPosition", mock.Anything).Return(recipe.GeoPoint{}, errors.New("no fix"))

	t.Run("falls through to static", func(t *testing.T) {
		pt, err := NewChainProvider(failing, StaticProvider{Point: paris}).CurrentPosition(context.Background())
		require.NoError(t, err)
		assert.Equal(t, paris, pt)
	})

	t.Run("all fail", func(t *testing.T) {
		_, err := NewChainProvider(failing, failing).CurrentPosition(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePositionUnavailable))
	})

	t.Run("empty chain", func(t *testing.T) {
		_, err := NewChainProvider().CurrentPosition(context.Background())
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePositionUnavailable))
	})
}

func TestGoogleProvider(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/geolocate"), "unexpected path %s", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"considerIp":true`)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"location":{"lat":48.8566,"lng":2.3522},"accuracy":1200}`)
	}))
	defer server.Close()

	p, err := NewGoogleProvider("test-key", maps.WithBaseURL(server.URL))
	require.NoError(t, err)

	pt, err := p.CurrentPosition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, paris, pt)
}

func TestGoogleProvider_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	p, err := NewGoogleProvider("test-key", maps.WithBaseURL(url))
	require.NoError(t, err)

	_, err = p.CurrentPosition(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePositionUnavailable))
}

func TestNewProvider(t *testing.T) {
	lat, lon := 48.8566, 2.3522

	_, ok := NewProvider(config.GeolocationConfig{}).(Unavailable)
	assert.True(t, ok)

	static, ok := NewProvider(config.GeolocationConfig{FallbackLatitude: &lat, FallbackLongitude: &lon}).(StaticProvider)
	require.True(t, ok)
	assert.Equal(t, paris, static.Point)

	_, ok = NewProvider(config.GeolocationConfig{
		GoogleMapsAPIKey:  "key",
		Timeout:           time.Second,
		FallbackLatitude:  &lat,
		FallbackLongitude: &lon,
	}).(*ChainProvider)
	assert.True(t, ok)
}
