package weather_tools

import (
	"fmt"
	"strings"
)

var severityEmoji = map[string]string{
	"Extreme":  "🔴",
	"Severe":   "🟠",
	"Moderate": "🟡",
	"Minor":    "🟢",
	"Unknown":  "⚪",
}

// Get_Weather_Alerts returns active weather alerts, watches, and
// warnings for a US city.
func Get_Weather_Alerts(city string) (string, error) {
	coords, err := Geocode(city)
	if err != nil {
		return "", err
	}

	alerts, err := FetchAlerts(coords.Lat, coords.Lon)
	if err != nil {
		return "", err
	}

	if len(alerts) == 0 {
		return fmt.Sprintf("✅ No active weather alerts for %s", coords.ShortName()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🚨 Active Weather Alerts for %s:\n\n", coords.DisplayName)

	for _, alert := range alerts {
		event := alert.Event
		if event == "" {
			event = "Unknown Event"
		}
		severity := alert.Severity
		if severity == "" {
			severity = "Unknown"
		}
		urgency := alert.Urgency
		if urgency == "" {
			urgency = "Unknown"
		}
		emoji, ok := severityEmoji[severity]
		if !ok {
			emoji = "⚪"
		}

		description := alert.Description
		if description == "" {
			description = "No description available"
		}
		if runes := []rune(description); len(runes) > 200 {
			description = string(runes[:200]) + "..."
		}

		fmt.Fprintf(&sb, "%s **%s** (%s)\n", emoji, event, severity)
		fmt.Fprintf(&sb, "   📍 Urgency: %s\n", urgency)
		fmt.Fprintf(&sb, "   📝 %s\n\n", description)
	}

	return sb.String(), nil
}
