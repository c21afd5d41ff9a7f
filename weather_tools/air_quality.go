package weather_tools

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

type airNowReading struct {
	ParameterName string `json:"ParameterName"`
	AQI           int    `json:"AQI"`
	Category      struct {
		Name string `json:"Name"`
	} `json:"Category"`
	ReportingArea string `json:"ReportingArea"`
}

var categoryEmoji = map[string]string{
	"Good":                           "🟢",
	"Moderate":                       "🟡",
	"Unhealthy for Sensitive Groups": "🟠",
	"Unhealthy":                      "🔴",
	"Very Unhealthy":                 "🟣",
	"Hazardous":                      "🟤",
}

var pollutantEmoji = map[string]string{
	"PM2.5": "🔬",
	"PM10":  "💨",
	"OZONE": "☁️",
	"O3":    "☁️",
}

// Get_Air_Quality returns the current AirNow air quality observations
// within 25 miles of a US city. Without an AIRNOW_API_KEY it returns
// setup instructions and demo values.
func Get_Air_Quality(city string) (string, error) {
	coords, err := Geocode(city)
	if err != nil {
		return "", err
	}

	apiKey := os.Getenv("AIRNOW_API_KEY")
	if apiKey == "" {
		var sb strings.Builder
		fmt.Fprintf(&sb, "🌬️ Air Quality for %s:\n\n", coords.ShortName())
		sb.WriteString("⚠️ AirNow API key required for real-time air quality data.\n\n")
		sb.WriteString("📝 To enable this feature:\n")
		sb.WriteString("1. Register for free at: https://docs.airnowapi.org/account/request/\n")
		sb.WriteString("2. Get your API key from the dashboard\n")
		sb.WriteString("3. Set environment variable: AIRNOW_API_KEY=your_key_here\n")
		sb.WriteString("4. Restart the application\n\n")
		sb.WriteString("📊 Demo AQI: 42 (Good)\n")
		sb.WriteString("🟢 Air quality is satisfactory for outdoor activities\n")
		sb.WriteString("💡 PM2.5: 8.2 μg/m³, Ozone: 0.045 ppm")
		return sb.String(), nil
	}

	params := url.Values{}
	params.Set("format", "application/json")
	params.Set("latitude", fmt.Sprintf("%.4f", coords.Lat))
	params.Set("longitude", fmt.Sprintf("%.4f", coords.Lon))
	params.Set("distance", "25")
	params.Set("API_KEY", apiKey)

	var readings []airNowReading
	reqURL := "https://www.airnowapi.org/aq/observation/latLong/current/?" + params.Encode()
	if err := getJSON(reqURL, &readings); err != nil {
		return "", fmt.Errorf("error connecting to AirNow API: %w", err)
	}

	if len(readings) == 0 {
		return fmt.Sprintf("🌬️ No air quality data available for %s within 25 miles.", coords.ShortName()), nil
	}

	// The worst pollutant determines the overall AQI.
	maxAQI := 0
	overallCategory := "Good"
	for _, r := range readings {
		if r.AQI > maxAQI {
			maxAQI = r.AQI
			overallCategory = r.Category.Name
		}
	}
	emoji, ok := categoryEmoji[overallCategory]
	if !ok {
		emoji = "⚪"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🌬️ Air Quality for %s:\n\n", coords.ShortName())
	fmt.Fprintf(&sb, "📊 Overall AQI: %d - %s %s\n\n", maxAQI, overallCategory, emoji)

	for _, r := range readings {
		pEmoji, ok := pollutantEmoji[r.ParameterName]
		if !ok {
			pEmoji = "📈"
		}
		fmt.Fprintf(&sb, "%s %s: AQI %d (%s)\n", pEmoji, r.ParameterName, r.AQI, r.Category.Name)
	}

	sb.WriteString("\n💡 Health Guidance:\n")
	switch {
	case maxAQI <= 50:
		sb.WriteString("   ✅ Air quality is good. Ideal for outdoor activities.\n")
	case maxAQI <= 100:
		sb.WriteString("   ⚠️ Acceptable for most people. Sensitive individuals may experience minor issues.\n")
	case maxAQI <= 150:
		sb.WriteString("   🟠 Sensitive groups should limit prolonged outdoor exertion.\n")
	case maxAQI <= 200:
		sb.WriteString("   🔴 Everyone should limit prolonged outdoor exertion.\n")
	case maxAQI <= 300:
		sb.WriteString("   🟣 Everyone should avoid prolonged outdoor exertion.\n")
	default:
		sb.WriteString("   🟤 Emergency conditions. Everyone should avoid outdoor activities.\n")
	}

	fmt.Fprintf(&sb, "\n📍 Data from: %s", readings[0].ReportingArea)

	return sb.String(), nil
}
