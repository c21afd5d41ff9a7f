package weather_tools

import (
	"fmt"
	"strings"
)

// Get_Weather returns the current weather and forecast for a US city.
func Get_Weather(city string) (string, error) {
	coords, err := Geocode(city)
	if err != nil {
		return "", err
	}

	periods, err := FetchForecast(coords.Lat, coords.Lon)
	if err != nil {
		return "", err
	}

	current := periods[0]
	var sb strings.Builder
	fmt.Fprintf(&sb, "Weather for %s:\n\n", coords.DisplayName)
	fmt.Fprintf(&sb, "📅 %s: %s\n", current.Name, current.DetailedForecast)
	fmt.Fprintf(&sb, "🌡️ Temperature: %d°%s\n", current.Temperature, current.TemperatureUnit)
	fmt.Fprintf(&sb, "💨 Wind: %s %s\n", current.WindSpeed, current.WindDirection)

	if len(periods) > 1 {
		next := periods[1]
		fmt.Fprintf(&sb, "\n📅 %s: %s\n", next.Name, next.ShortForecast)
		fmt.Fprintf(&sb, "🌡️ Temperature: %d°%s\n", next.Temperature, next.TemperatureUnit)
	}

	return sb.String(), nil
}
