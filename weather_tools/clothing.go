package weather_tools

import (
	"fmt"
	"strings"
	"unicode"
)

// Recommend_Clothing suggests clothing and activities for the current
// conditions in a US city.
func Recommend_Clothing(city string) (string, error) {
	coords, err := Geocode(city)
	if err != nil {
		return "", err
	}

	periods, err := FetchForecast(coords.Lat, coords.Lon)
	if err != nil {
		return "", err
	}
	current := periods[0]

	temp := current.Temperature
	if current.TemperatureUnit == "C" {
		temp = temp*9/5 + 32
	}
	forecast := strings.ToLower(current.ShortForecast)

	var sb strings.Builder
	fmt.Fprintf(&sb, "👔 Clothing & Activity Recommendations for %s:\n\n", coords.ShortName())
	fmt.Fprintf(&sb, "🌡️ Current: %d°F, %s\n\n", temp, current.ShortForecast)

	var clothing, activities string
	switch {
	case temp >= 80:
		clothing = "👕 Light, breathable clothing (t-shirt, shorts, sandals)"
		activities = "🏊 Great for: Swimming, outdoor sports, beach activities"
	case temp >= 70:
		clothing = "👖 Comfortable casual wear (light pants, short sleeves)"
		activities = "🚶 Great for: Walking, hiking, outdoor dining"
	case temp >= 60:
		clothing = "🧥 Light layers (long sleeves, light jacket optional)"
		activities = "🍂 Great for: Jogging, cycling, fall activities"
	case temp >= 50:
		clothing = "🧥 Jacket or sweater recommended"
		activities = "🥾 Great for: Hiking with layers, outdoor photography"
	case temp >= 40:
		clothing = "🧥 Warm coat, long pants, closed shoes"
		activities = "☕ Better for: Indoor activities, brief outdoor walks"
	case temp >= 32:
		clothing = "🧥 Heavy coat, hat, gloves, warm layers"
		activities = "❄️ Bundle up for: Winter sports, holiday activities"
	default:
		clothing = "🧥 Full winter gear - coat, hat, gloves, insulated boots"
		activities = "🏠 Consider: Indoor activities, limit outdoor exposure"
	}

	fmt.Fprintf(&sb, "👔 %s\n", clothing)
	fmt.Fprintf(&sb, "🎯 %s\n\n", activities)

	if strings.Contains(forecast, "rain") || strings.Contains(forecast, "shower") {
		sb.WriteString("☔ Rain expected - bring umbrella or raincoat\n")
	}
	if strings.Contains(forecast, "snow") {
		sb.WriteString("❄️ Snow expected - wear waterproof boots and warm layers\n")
	}
	if strings.Contains(forecast, "wind") || containsDigit(current.WindSpeed) {
		sb.WriteString("💨 Windy conditions - consider windproof outer layer\n")
	}
	if strings.Contains(forecast, "sun") || strings.Contains(forecast, "clear") {
		sb.WriteString("☀️ Sunny conditions - don't forget sunscreen and sunglasses\n")
	}

	return sb.String(), nil
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
