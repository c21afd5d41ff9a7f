package weather_tools

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// UserAgent identifies this client to Nominatim and the NWS API, both of
// which reject anonymous requests. Override via NWS_USER_AGENT.
var UserAgent = "basic-agent-weather/1.0 (contact@example.com)"

// httpGet is a package-level var so tests can mock it.
var httpGet = defaultHTTPGet

func defaultHTTPGet(url string) (*http.Response, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json,application/geo+json")
	return client.Do(req)
}

// getJSON fetches a URL and decodes the JSON body into out.
func getJSON(url string, out interface{}) error {
	resp, err := httpGet(url)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024)) // 5MB limit
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding response from %s: %w", url, err)
	}
	return nil
}
