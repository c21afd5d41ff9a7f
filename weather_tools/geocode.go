package weather_tools

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Coordinates is a geocoded city location.
type Coordinates struct {
	Lat         float64
	Lon         float64
	DisplayName string
}

// City geometry doesn't change; cache geocode hits for a day.
var geocodeCache = gocache.New(24*time.Hour, time.Hour)

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Geocode resolves a US city name to coordinates via OpenStreetMap
// Nominatim (free, no API key, but User-Agent required).
func Geocode(city string) (Coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if key == "" {
		return Coordinates{}, fmt.Errorf("city is required")
	}
	if cached, found := geocodeCache.Get(key); found {
		return cached.(Coordinates), nil
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", "us") // NWS only covers the US

	var results []nominatimResult
	reqURL := "https://nominatim.openstreetmap.org/search?" + params.Encode()
	if err := getJSON(reqURL, &results); err != nil {
		return Coordinates{}, fmt.Errorf("error getting coordinates for %s: %w", city, err)
	}
	if len(results) == 0 {
		return Coordinates{}, fmt.Errorf("could not find coordinates for %s", city)
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid latitude for %s: %w", city, err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Coordinates{}, fmt.Errorf("invalid longitude for %s: %w", city, err)
	}

	coords := Coordinates{Lat: lat, Lon: lon, DisplayName: results[0].DisplayName}
	geocodeCache.Set(key, coords, gocache.DefaultExpiration)
	return coords, nil
}

// ShortName returns the leading segment of the display name, usually
// just the city.
func (c Coordinates) ShortName() string {
	if i := strings.Index(c.DisplayName, ","); i >= 0 {
		return c.DisplayName[:i]
	}
	return c.DisplayName
}
