package weather_tools

import (
	"fmt"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Grid metadata for a coordinate never changes; forecasts do.
var (
	pointsCache   = gocache.New(12*time.Hour, time.Hour)
	forecastCache = gocache.New(5*time.Minute, time.Minute)
)

// nwsPoints is the /points/{lat},{lon} response, reduced to the
// forecast URLs we follow.
type nwsPoints struct {
	Properties struct {
		Forecast       string `json:"forecast"`
		ForecastHourly string `json:"forecastHourly"`
	} `json:"properties"`
}

// ForecastPeriod is one entry of an NWS forecast, daily or hourly.
type ForecastPeriod struct {
	Name                       string `json:"name"`
	StartTime                  string `json:"startTime"`
	Temperature                int    `json:"temperature"`
	TemperatureUnit            string `json:"temperatureUnit"`
	WindSpeed                  string `json:"windSpeed"`
	WindDirection              string `json:"windDirection"`
	ShortForecast              string `json:"shortForecast"`
	DetailedForecast           string `json:"detailedForecast"`
	ProbabilityOfPrecipitation struct {
		Value *int `json:"value"`
	} `json:"probabilityOfPrecipitation"`
}

type nwsForecast struct {
	Properties struct {
		Periods []ForecastPeriod `json:"periods"`
	} `json:"properties"`
}

// Alert is one active NWS alert for a point.
type Alert struct {
	Event       string
	Severity    string
	Urgency     string
	Description string
}

type nwsAlerts struct {
	Features []struct {
		Properties struct {
			Event       string `json:"event"`
			Severity    string `json:"severity"`
			Urgency     string `json:"urgency"`
			Description string `json:"description"`
		} `json:"properties"`
	} `json:"features"`
}

// lookupPoints resolves the forecast URLs for a coordinate.
func lookupPoints(lat, lon float64) (nwsPoints, error) {
	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	if cached, found := pointsCache.Get(key); found {
		return cached.(nwsPoints), nil
	}

	var points nwsPoints
	pointsURL := fmt.Sprintf("https://api.weather.gov/points/%.4f,%.4f", lat, lon)
	if err := getJSON(pointsURL, &points); err != nil {
		return nwsPoints{}, fmt.Errorf("error getting NWS grid point: %w", err)
	}
	if points.Properties.Forecast == "" {
		return nwsPoints{}, fmt.Errorf("no NWS forecast available for %s (outside US coverage?)", key)
	}

	pointsCache.Set(key, points, gocache.DefaultExpiration)
	return points, nil
}

func fetchForecastURL(forecastURL string) ([]ForecastPeriod, error) {
	if cached, found := forecastCache.Get(forecastURL); found {
		return cached.([]ForecastPeriod), nil
	}

	var forecast nwsForecast
	if err := getJSON(forecastURL, &forecast); err != nil {
		return nil, fmt.Errorf("error getting NWS forecast: %w", err)
	}
	periods := forecast.Properties.Periods
	if len(periods) == 0 {
		return nil, fmt.Errorf("NWS returned an empty forecast")
	}

	forecastCache.Set(forecastURL, periods, gocache.DefaultExpiration)
	return periods, nil
}

// FetchForecast returns the daily forecast periods for a coordinate.
func FetchForecast(lat, lon float64) ([]ForecastPeriod, error) {
	points, err := lookupPoints(lat, lon)
	if err != nil {
		return nil, err
	}
	return fetchForecastURL(points.Properties.Forecast)
}

// FetchHourlyForecast returns the hourly forecast periods for a coordinate.
func FetchHourlyForecast(lat, lon float64) ([]ForecastPeriod, error) {
	points, err := lookupPoints(lat, lon)
	if err != nil {
		return nil, err
	}
	return fetchForecastURL(points.Properties.ForecastHourly)
}

// FetchAlerts returns the active alerts covering a coordinate. Alerts
// are never cached.
func FetchAlerts(lat, lon float64) ([]Alert, error) {
	params := url.Values{}
	params.Set("point", fmt.Sprintf("%.4f,%.4f", lat, lon))

	var raw nwsAlerts
	alertsURL := "https://api.weather.gov/alerts/active?" + params.Encode()
	if err := getJSON(alertsURL, &raw); err != nil {
		return nil, fmt.Errorf("error getting weather alerts: %w", err)
	}

	alerts := make([]Alert, 0, len(raw.Features))
	for _, f := range raw.Features {
		alerts = append(alerts, Alert{
			Event:       f.Properties.Event,
			Severity:    f.Properties.Severity,
			Urgency:     f.Properties.Urgency,
			Description: f.Properties.Description,
		})
	}
	return alerts, nil
}
