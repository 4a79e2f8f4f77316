package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const forecastBody = `{
	"location": {"name": "Paris", "country": "France"},
	"current": {"temp_c": 18.0, "condition": {"text": "Partly cloudy", "icon": "//cdn.weatherapi.com/weather/64x64/day/116.png"}},
	"forecast": {"forecastday": []}
}`

func TestWeatherClient_Forecast(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/forecast.json", r.URL.Path)
		q := r.URL.Query()
		gotQuery = map[string]string{"key": q.Get("key"), "q": q.Get("q"), "days": q.Get("days")}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	client := NewWeatherClient(srv.URL+"/v1/", "secret", time.Second)
	forecast, err := client.Forecast(context.Background(), "Paris", 7)
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"key": "secret", "q": "Paris", "days": "7"}, gotQuery)
	assert.Equal(t, "Paris", forecast.Location)
	assert.Equal(t, "Partly cloudy", forecast.Condition)
	assert.Equal(t, "https://cdn.weatherapi.com/weather/64x64/day/116.png", forecast.Icon)
	assert.Equal(t, 7, forecast.Days)
	assert.JSONEq(t, forecastBody, string(forecast.Payload))
}

func TestForecast_Summary(t *testing.T) {
	forecast := &Forecast{Payload: []byte(forecastBody)}
	summary := forecast.Summary()
	assert.Contains(t, summary, `"location":"Paris"`)
	assert.Contains(t, summary, "Partly cloudy")
	assert.NotContains(t, summary, "icon")

	raw := &Forecast{Payload: []byte("not json")}
	assert.Equal(t, "not json", raw.Summary())
}

// forecastPayload builds a weatherapi.com style payload with hourly detail for each day
func forecastPayload(days int) string {
	var b strings.Builder
	b.WriteString(`{"location":{"name":"Tokyo","country":"Japan","tz_id":"Asia/Tokyo"},`)
	b.WriteString(`"current":{"temp_c":21.5,"feelslike_c":21.0,"humidity":60,"wind_kph":11.2,"condition":{"text":"Clear","icon":"//cdn.weatherapi.com/weather/64x64/day/113.png","code":1000}},`)
	b.WriteString(`"forecast":{"forecastday":[`)
	for d := 0; d < days; d++ {
		if d > 0 {
			b.WriteString(",")
		}
		date := time.Date(2024, 6, 1+d, 0, 0, 0, 0, time.UTC).Format(time.DateOnly)
		fmt.Fprintf(&b, `{"date":%q,"day":{"maxtemp_c":%d.4,"mintemp_c":%d.1,"avgtemp_c":20.3,"maxwind_kph":14.8,"totalprecip_mm":1.2,"avghumidity":71,"daily_chance_of_rain":%d,"uv":5.0,"condition":{"text":"Patchy rain nearby","icon":"//cdn.weatherapi.com/weather/64x64/day/176.png","code":1063}},"astro":{"sunrise":"04:25 AM","sunset":"06:54 PM"},"hour":[`, date, 24+d%5, 15+d%3, 10*(d%10))
		for h := 0; h < 24; h++ {
			if h > 0 {
				b.WriteString(",")
			}
			fmt.Fprintf(&b, `{"time":"%s %02d:00","temp_c":19.8,"condition":{"text":"Clear","icon":"//cdn.weatherapi.com/weather/64x64/night/113.png","code":1000},"wind_kph":9.4,"humidity":74,"chance_of_rain":0}`, date, h)
		}
		b.WriteString("]}")
	}
	b.WriteString("]}}")
	return b.String()
}

func TestForecast_SummaryCoversEveryDay(t *testing.T) {
	for _, days := range []int{1, 7, 14} {
		t.Run(fmt.Sprintf("%d days", days), func(t *testing.T) {
			forecast := &Forecast{Payload: []byte(forecastPayload(days)), Days: days}
			summary := forecast.Summary()

			require.True(t, gjson.Valid(summary), summary)
			assert.Equal(t, "Tokyo", gjson.Get(summary, "location").String())
			assert.Equal(t, "Japan", gjson.Get(summary, "country").String())
			assert.Equal(t, "Clear", gjson.Get(summary, "current.condition").String())
			assert.Equal(t, 21.5, gjson.Get(summary, "current.temp_c").Float())

			daily := gjson.Get(summary, "daily").Array()
			require.Len(t, daily, days)
			last := daily[days-1]
			assert.Equal(t, time.Date(2024, 6, days, 0, 0, 0, 0, time.UTC).Format(time.DateOnly), last.Get("date").String())
			assert.Equal(t, "Patchy rain nearby", last.Get("condition").String())
			assert.True(t, last.Get("max_c").Exists())
			assert.True(t, last.Get("min_c").Exists())
			assert.True(t, last.Get("chance_of_rain").Exists())
			assert.False(t, last.Get("hour").Exists())
			assert.Less(t, len(summary), len(forecast.Payload))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{name: "short", in: "Paris", n: 10, want: "Paris"},
		{name: "ascii", in: "Paris", n: 3, want: "Par"},
		{name: "inside two-byte rune", in: "Zürich", n: 2, want: "Z"},
		{name: "after two-byte rune", in: "Zürich", n: 3, want: "Zü"},
		{name: "inside three-byte rune", in: "東京都", n: 4, want: "東"},
		{name: "inside first rune", in: "東京", n: 2, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.in, tt.n)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestWeatherClient_StatusBodyStaysValidUTF8(t *testing.T) {
	body := strings.Repeat("é", 150)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := NewWeatherClient(srv.URL, "k", time.Second).Forecast(context.Background(), "Paris", 1)
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.True(t, utf8.ValidString(statusErr.Body))
	assert.LessOrEqual(t, len(statusErr.Body), 200)
}

func TestWeatherClient_Errors(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		location string
		isStatus bool
	}{
		{name: "non-2xx", status: http.StatusBadRequest, body: `{"error":{"message":"No matching location found."}}`, location: "Atlantis", isStatus: true},
		{name: "server error", status: http.StatusBadGateway, body: "upstream down", location: "Paris", isStatus: true},
		{name: "invalid json", status: http.StatusOK, body: "<html>", location: "Paris"},
		{name: "empty location", status: http.StatusOK, body: forecastBody, location: " "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewWeatherClient(srv.URL, "k", time.Second).Forecast(context.Background(), tt.location, 1)
			require.Error(t, err)
			assert.Equal(t, tt.isStatus, errors.Is(err, ErrUpstreamStatus))
			if tt.isStatus {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, tt.status, statusErr.StatusCode)
			}
		})
	}
}

func TestWeatherClient_DefaultsDays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("days"))
		_, _ = w.Write([]byte(forecastBody))
	}))
	defer srv.Close()

	forecast, err := NewWeatherClient(srv.URL, "k", time.Second).Forecast(context.Background(), "Paris", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, forecast.Days)
}

func TestIPLocator_PublicIP(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr bool
	}{
		{name: "json", status: http.StatusOK, body: `{"ip":"203.0.113.7"}`, want: "203.0.113.7"},
		{name: "plain text", status: http.StatusOK, body: "2001:db8::1\n", want: "2001:db8::1"},
		{name: "garbage", status: http.StatusOK, body: `{"ip":"nope"}`, wantErr: true},
		{name: "status", status: http.StatusServiceUnavailable, body: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			ip, err := NewIPLocator(srv.URL, time.Second).PublicIP(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ip)
		})
	}
}
