package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// IPLocator discovers the caller's public IP, used as a last-resort weather location
type IPLocator struct {
	url        string
	httpClient *http.Client
}

func NewIPLocator(url string, timeout time.Duration) *IPLocator {
	return &IPLocator{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// PublicIP accepts either {"ip": "..."} or a bare address in the response body
func (l *IPLocator) PublicIP(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build geolocation request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geolocation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("failed to read geolocation response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("geolocation service returned status %d", resp.StatusCode)
	}

	ip := strings.TrimSpace(string(body))
	if gjson.ValidBytes(body) {
		ip = gjson.GetBytes(body, "ip").String()
	}
	if net.ParseIP(ip) == nil {
		return "", errors.New("geolocation service returned no valid IP address")
	}
	return ip, nil
}
