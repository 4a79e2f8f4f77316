package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

const (
	maxResponseBytes = 1 << 20
	maxSummaryChars  = 4000
)

var ErrUpstreamStatus = errors.New("weather service returned non-2xx status")

// StatusError carries the status code of a failed upstream call
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather service returned status %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstreamStatus
}

// Forecast is the weather payload for one location
type Forecast struct {
	Location  string `json:"location"`
	Condition string `json:"condition"`
	Icon      string `json:"icon"`
	Days      int    `json:"days"`
	Payload   []byte `json:"-"`
}

// WeatherClient talks to a weatherapi.com compatible forecast endpoint
type WeatherClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewWeatherClient(baseURL, apiKey string, timeout time.Duration) *WeatherClient {
	return &WeatherClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Forecast fetches current conditions plus a days-long forecast for location
func (c *WeatherClient) Forecast(ctx context.Context, location string, days int) (*Forecast, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("location cannot be empty")
	}
	if days < 1 {
		days = 1
	}

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("q", location)
	query.Set("days", strconv.Itoa(days))
	query.Set("aqi", "no")
	query.Set("alerts", "no")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/forecast.json?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build weather request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read weather response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 200)}
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("weather service returned invalid JSON")
	}

	forecast := &Forecast{
		Location:  gjson.GetBytes(body, "location.name").String(),
		Condition: gjson.GetBytes(body, "current.condition.text").String(),
		Icon:      iconURL(gjson.GetBytes(body, "current.condition.icon").String()),
		Days:      days,
		Payload:   body,
	}
	if forecast.Location == "" {
		forecast.Location = location
	}
	return forecast, nil
}

// Summary condenses the payload into what a reply needs: location, current conditions and
// one compact entry per forecast day. Unparseable payloads are passed through, truncated.
func (f *Forecast) Summary() string {
	if !gjson.ValidBytes(f.Payload) {
		return truncate(string(f.Payload), maxSummaryChars)
	}
	payload := gjson.ParseBytes(f.Payload)

	summary := "{}"
	summary = setFields(summary, "", payload, locationFields)
	summary = setFields(summary, "current.", payload.Get("current"), currentFields)

	days := payload.Get("forecast.forecastday").Array()
	if len(days) > 0 {
		summary, _ = sjson.SetRaw(summary, "daily", "[]")
	}
	for _, day := range days {
		entry := setFields("{}", "", day, dailyFields)
		summary, _ = sjson.SetRaw(summary, "daily.-1", entry)
	}
	return summary
}

// summaryField maps a summary key onto a gjson path in the source payload
type summaryField struct {
	key  string
	path string
}

var locationFields = []summaryField{
	{"location", "location.name"},
	{"country", "location.country"},
}

var currentFields = []summaryField{
	{"temp_c", "temp_c"},
	{"feelslike_c", "feelslike_c"},
	{"humidity", "humidity"},
	{"wind_kph", "wind_kph"},
	{"condition", "condition.text"},
}

var dailyFields = []summaryField{
	{"date", "date"},
	{"max_c", "day.maxtemp_c"},
	{"min_c", "day.mintemp_c"},
	{"chance_of_rain", "day.daily_chance_of_rain"},
	{"precip_mm", "day.totalprecip_mm"},
	{"condition", "day.condition.text"},
}

// setFields copies each field of src that exists into doc under prefix+key
func setFields(doc, prefix string, src gjson.Result, fields []summaryField) string {
	for _, field := range fields {
		value := src.Get(field.path)
		if !value.Exists() {
			continue
		}
		if updated, err := sjson.SetRaw(doc, prefix+field.key, value.Raw); err == nil {
			doc = updated
		}
	}
	return doc
}

// iconURL turns protocol-relative icon paths into absolute URLs
func iconURL(icon string) string {
	if strings.HasPrefix(icon, "//") {
		return "https:" + icon
	}
	return icon
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
