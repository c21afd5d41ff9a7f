package weather_tools

import (
	"fmt"
	"strings"
	"time"
)

// Get_Hourly_Forecast returns the next 12 hours of temperature and
// precipitation details for a US city.
func Get_Hourly_Forecast(city string) (string, error) {
	coords, err := Geocode(city)
	if err != nil {
		return "", err
	}

	periods, err := FetchHourlyForecast(coords.Lat, coords.Lon)
	if err != nil {
		return "", err
	}
	if len(periods) > 12 {
		periods = periods[:12]
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🕐 12-Hour Hourly Forecast for %s:\n\n", coords.ShortName())

	minTemp, maxTemp := periods[0].Temperature, periods[0].Temperature
	maxPrecip := 0
	for _, period := range periods {
		if period.Temperature < minTemp {
			minTemp = period.Temperature
		}
		if period.Temperature > maxTemp {
			maxTemp = period.Temperature
		}

		precip := 0
		if period.ProbabilityOfPrecipitation.Value != nil {
			precip = *period.ProbabilityOfPrecipitation.Value
		}
		if precip > maxPrecip {
			maxPrecip = precip
		}

		timeStr := period.StartTime
		if t, err := time.Parse(time.RFC3339, period.StartTime); err == nil {
			timeStr = t.Format("3 PM")
		}
		shortForecast := period.ShortForecast
		if shortForecast == "" {
			shortForecast = "Clear"
		}

		fmt.Fprintf(&sb, "• %s: %d°F - %s", timeStr, period.Temperature, shortForecast)
		if precip > 0 {
			fmt.Fprintf(&sb, " (%d%% rain chance)", precip)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n📊 Summary:\n")
	fmt.Fprintf(&sb, "  🌡️ Temperature Range: %d°F to %d°F\n", minTemp, maxTemp)
	fmt.Fprintf(&sb, "  ☔ Highest Rain Chance: %d%%\n", maxPrecip)

	return sb.String(), nil
}
