package weather_tools

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

type route struct {
	match string
	body  string
	code  int
}

// mockRoutes returns an httpGet stub that answers by URL substring.
// Routes are checked in order, so put more specific matches first.
func mockRoutes(t *testing.T, routes []route) func(string) (*http.Response, error) {
	t.Helper()
	return func(url string) (*http.Response, error) {
		for _, r := range routes {
			if strings.Contains(url, r.match) {
				code := r.code
				if code == 0 {
					code = 200
				}
				return &http.Response{
					StatusCode: code,
					Body:       io.NopCloser(strings.NewReader(r.body)),
				}, nil
			}
		}
		t.Fatalf("unexpected URL fetched: %s", url)
		return nil, nil
	}
}

func resetCaches() {
	geocodeCache.Flush()
	pointsCache.Flush()
	forecastCache.Flush()
}

const seattleGeocode = `[{"lat":"47.6038","lon":"-122.3301","display_name":"Seattle, King County, Washington, United States"}]`

const seattlePoints = `{"properties":{
	"forecast":"https://api.weather.gov/gridpoints/SEW/124,67/forecast",
	"forecastHourly":"https://api.weather.gov/gridpoints/SEW/124,67/forecast/hourly"}}`

const seattleForecast = `{"properties":{"periods":[
	{"name":"Tonight","temperature":48,"temperatureUnit":"F","windSpeed":"10 mph","windDirection":"SW",
	 "shortForecast":"Light Rain","detailedForecast":"Rain likely, with a low around 48."},
	{"name":"Tuesday","temperature":57,"temperatureUnit":"F","windSpeed":"5 mph","windDirection":"S",
	 "shortForecast":"Partly Sunny","detailedForecast":"Partly sunny, with a high near 57."}]}}`

func TestGeocode(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	calls := 0
	httpGet = func(url string) (*http.Response, error) {
		calls++
		if !strings.Contains(url, "nominatim.openstreetmap.org") {
			t.Fatalf("unexpected URL %s", url)
		}
		if !strings.Contains(url, "countrycodes=us") {
			t.Errorf("expected countrycodes=us in %s", url)
		}
		return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(seattleGeocode))}, nil
	}

	coords, err := Geocode("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if coords.Lat != 47.6038 || coords.Lon != -122.3301 {
		t.Errorf("unexpected coords %+v", coords)
	}
	if coords.ShortName() != "Seattle" {
		t.Errorf("short name = %q", coords.ShortName())
	}

	// Second lookup must come from cache.
	if _, err := Geocode("seattle"); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected 1 HTTP call, got %d", calls)
	}
}

func TestGeocodeNoResult(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	httpGet = mockRoutes(t, []route{{match: "nominatim", body: `[]`}})

	_, err := Geocode("Nowhereville")
	if err == nil || !strings.Contains(err.Error(), "could not find coordinates") {
		t.Errorf("expected no-result error, got %v", err)
	}
}

func TestGeocodeEmptyCity(t *testing.T) {
	if _, err := Geocode("  "); err == nil {
		t.Error("expected error for empty city")
	}
}

func TestGetWeather(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	httpGet = mockRoutes(t, []route{
		{match: "nominatim", body: seattleGeocode},
		{match: "/points/", body: seattlePoints},
		{match: "/forecast", body: seattleForecast},
	})

	result, err := Get_Weather("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "Weather for Seattle, King County") {
		t.Errorf("missing location header: %q", result)
	}
	if !strings.Contains(result, "📅 Tonight: Rain likely, with a low around 48.") {
		t.Errorf("missing current period: %q", result)
	}
	if !strings.Contains(result, "🌡️ Temperature: 48°F") {
		t.Errorf("missing temperature: %q", result)
	}
	if !strings.Contains(result, "💨 Wind: 10 mph SW") {
		t.Errorf("missing wind: %q", result)
	}
	if !strings.Contains(result, "📅 Tuesday: Partly Sunny") {
		t.Errorf("missing next period: %q", result)
	}
}

func TestGetWeatherGeocodeFailure(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	httpGet = mockRoutes(t, []route{{match: "nominatim", body: `[]`}})

	if _, err := Get_Weather("Atlantis"); err == nil {
		t.Error("expected error when geocoding fails")
	}
}

func TestGetHourlyForecast(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	// 13 hourly periods; the tool must only report 12.
	var periods []string
	for i := 0; i < 13; i++ {
		precip := "null"
		if i == 3 {
			precip = "60"
		}
		periods = append(periods, fmt.Sprintf(
			`{"name":"","startTime":"2025-06-10T%02d:00:00-07:00","temperature":%d,"temperatureUnit":"F",
			"shortForecast":"Sunny","probabilityOfPrecipitation":{"value":%s}}`,
			8+i, 60+i, precip))
	}
	hourlyBody := `{"properties":{"periods":[` + strings.Join(periods, ",") + `]}}`

	httpGet = mockRoutes(t, []route{
		{match: "nominatim", body: seattleGeocode},
		{match: "/points/", body: seattlePoints},
		{match: "/forecast/hourly", body: hourlyBody},
	})

	result, err := Get_Hourly_Forecast("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "🕐 12-Hour Hourly Forecast for Seattle:") {
		t.Errorf("missing header: %q", result)
	}
	if strings.Count(result, "• ") != 12 {
		t.Errorf("expected 12 hourly lines, got %d:\n%s", strings.Count(result, "• "), result)
	}
	if !strings.Contains(result, "8 AM: 60°F - Sunny") {
		t.Errorf("missing first hour: %q", result)
	}
	if !strings.Contains(result, "(60% rain chance)") {
		t.Errorf("missing rain chance: %q", result)
	}
	if !strings.Contains(result, "Temperature Range: 60°F to 71°F") {
		t.Errorf("missing range: %q", result)
	}
	if !strings.Contains(result, "Highest Rain Chance: 60%") {
		t.Errorf("missing max precip: %q", result)
	}
}

func TestGetWeatherAlertsNone(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	httpGet = mockRoutes(t, []route{
		{match: "nominatim", body: seattleGeocode},
		{match: "alerts/active", body: `{"features":[]}`},
	})

	result, err := Get_Weather_Alerts("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if result != "✅ No active weather alerts for Seattle" {
		t.Errorf("unexpected result: %q", result)
	}
}

func TestGetWeatherAlerts(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	longDesc := strings.Repeat("x", 250)
	alertsBody := `{"features":[
		{"properties":{"event":"Wind Advisory","severity":"Moderate","urgency":"Expected","description":"` + longDesc + `"}},
		{"properties":{"event":"Flood Warning","severity":"Severe","urgency":"Immediate","description":"River flooding."}}]}`

	httpGet = mockRoutes(t, []route{
		{match: "nominatim", body: seattleGeocode},
		{match: "alerts/active", body: alertsBody},
	})

	result, err := Get_Weather_Alerts("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "🟡 **Wind Advisory** (Moderate)") {
		t.Errorf("missing moderate alert: %q", result)
	}
	if !strings.Contains(result, "🟠 **Flood Warning** (Severe)") {
		t.Errorf("missing severe alert: %q", result)
	}
	if !strings.Contains(result, strings.Repeat("x", 200)+"...") {
		t.Error("long description should be truncated at 200 chars")
	}
	if strings.Contains(result, strings.Repeat("x", 201)) {
		t.Error("description not truncated")
	}
}

func TestGetAirQualityDemoMode(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()
	t.Setenv("AIRNOW_API_KEY", "")

	httpGet = mockRoutes(t, []route{{match: "nominatim", body: seattleGeocode}})

	result, err := Get_Air_Quality("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "AirNow API key required") {
		t.Errorf("expected setup instructions: %q", result)
	}
	if !strings.Contains(result, "Demo AQI: 42 (Good)") {
		t.Errorf("expected demo values: %q", result)
	}
}

func TestGetAirQuality(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()
	t.Setenv("AIRNOW_API_KEY", "test-key")

	airNowBody := `[
		{"ParameterName":"PM2.5","AQI":42,"Category":{"Name":"Good"},"ReportingArea":"Seattle-Bellevue-Kent Valley"},
		{"ParameterName":"OZONE","AQI":61,"Category":{"Name":"Moderate"},"ReportingArea":"Seattle-Bellevue-Kent Valley"}]`

	httpGet = mockRoutes(t, []route{
		{match: "nominatim", body: seattleGeocode},
		{match: "airnowapi.org", body: airNowBody},
	})

	result, err := Get_Air_Quality("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "📊 Overall AQI: 61 - Moderate 🟡") {
		t.Errorf("wrong overall AQI: %q", result)
	}
	if !strings.Contains(result, "🔬 PM2.5: AQI 42 (Good)") {
		t.Errorf("missing PM2.5 line: %q", result)
	}
	if !strings.Contains(result, "Acceptable for most people") {
		t.Errorf("wrong health guidance: %q", result)
	}
	if !strings.Contains(result, "📍 Data from: Seattle-Bellevue-Kent Valley") {
		t.Errorf("missing reporting area: %q", result)
	}
}

func TestRecommendClothingCold(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	coldForecast := `{"properties":{"periods":[
		{"name":"Tonight","temperature":25,"temperatureUnit":"F","windSpeed":"20 mph","windDirection":"N",
		 "shortForecast":"Snow Showers","detailedForecast":"Snow."}]}}`

	httpGet = mockRoutes(t, []route{
		{match: "nominatim", body: seattleGeocode},
		{match: "/points/", body: seattlePoints},
		{match: "/forecast", body: coldForecast},
	})

	result, err := Recommend_Clothing("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "Full winter gear") {
		t.Errorf("expected winter gear for 25F: %q", result)
	}
	if !strings.Contains(result, "❄️ Snow expected") {
		t.Errorf("expected snow adjustment: %q", result)
	}
	if !strings.Contains(result, "💨 Windy conditions") {
		t.Errorf("expected wind adjustment for numeric wind speed: %q", result)
	}
}

func TestRecommendClothingWarm(t *testing.T) {
	resetCaches()
	orig := httpGet
	defer func() { httpGet = orig }()

	warmForecast := `{"properties":{"periods":[
		{"name":"This Afternoon","temperature":85,"temperatureUnit":"F","windSpeed":"calm","windDirection":"",
		 "shortForecast":"Sunny","detailedForecast":"Sunny and hot."}]}}`

	httpGet = mockRoutes(t, []route{
		{match: "nominatim", body: seattleGeocode},
		{match: "/points/", body: seattlePoints},
		{match: "/forecast", body: warmForecast},
	})

	result, err := Recommend_Clothing("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "Light, breathable clothing") {
		t.Errorf("expected light clothing for 85F: %q", result)
	}
	if !strings.Contains(result, "☀️ Sunny conditions") {
		t.Errorf("expected sunscreen note: %q", result)
	}
	if strings.Contains(result, "💨 Windy") {
		t.Errorf("calm wind should not trigger wind note: %q", result)
	}
}

func TestMoonPhaseDesc(t *testing.T) {
	cases := []struct {
		phase float64
		want  string
	}{
		{0.0, "New Moon"},
		{0.98, "New Moon"},
		{0.12, "Waxing Crescent"},
		{0.25, "First Quarter"},
		{0.35, "Waxing Gibbous"},
		{0.50, "Full Moon"},
		{0.60, "Waning Gibbous"},
		{0.75, "Last Quarter"},
		{0.90, "Waning Crescent"},
	}
	for _, c := range cases {
		if got := moonPhaseDesc(c.phase); !strings.Contains(got, c.want) {
			t.Errorf("moonPhaseDesc(%v) = %q, want %q", c.phase, got, c.want)
		}
	}
}

func TestSolarLunarInfo(t *testing.T) {
	resetCaches()
	orig := httpGet
	origNow := timeNow
	defer func() {
		httpGet = orig
		timeNow = origNow
	}()

	httpGet = mockRoutes(t, []route{{match: "nominatim", body: seattleGeocode}})
	timeNow = func() time.Time {
		return time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	}

	result, err := Get_Solar_Lunar_Info("Seattle")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(result, "🌅 Solar & Lunar Info for Seattle:") {
		t.Errorf("missing header: %q", result)
	}
	if !strings.Contains(result, "Sunrise:") || !strings.Contains(result, "Sunset:") {
		t.Errorf("missing sun times: %q", result)
	}
	if !strings.Contains(result, "(Los Angeles Time)") {
		t.Errorf("expected Pacific timezone label: %q", result)
	}
	if !strings.Contains(result, "🌙 Moon Phase:") {
		t.Errorf("missing moon phase: %q", result)
	}
	// Mid-June in Seattle is close to the longest day of the year.
	if !strings.Contains(result, "☀️ Daylight: 15h") {
		t.Errorf("expected ~15h45m daylight: %q", result)
	}
}
