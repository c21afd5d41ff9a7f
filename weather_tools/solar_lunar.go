package weather_tools

import (
	"fmt"
	"strings"
	"sync"
	"time"

	moonphase "github.com/janczer/goMoonPhase"
	"github.com/nathan-osman/go-sunrise"
	"github.com/ringsaturn/tzf"
)

// timeNow is a package-level var so tests can pin the clock.
var timeNow = time.Now

// The timezone finder carries an embedded polygon dataset; build it once.
var (
	tzFinderOnce sync.Once
	tzFinder     tzf.F
	tzFinderErr  error
)

func timezoneFor(lat, lon float64) (*time.Location, string, error) {
	tzFinderOnce.Do(func() {
		tzFinder, tzFinderErr = tzf.NewDefaultFinder()
	})
	if tzFinderErr != nil {
		return nil, "", fmt.Errorf("error building timezone finder: %w", tzFinderErr)
	}

	name := tzFinder.GetTimezoneName(lon, lat)
	if name == "" {
		return nil, "", fmt.Errorf("no timezone found for %.4f,%.4f", lat, lon)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, "", fmt.Errorf("error loading timezone %s: %w", name, err)
	}
	return loc, name, nil
}

// moonPhaseDesc maps the phase fraction (0 = new, 0.5 = full) to a name.
func moonPhaseDesc(phase float64) string {
	switch {
	case phase < 0.03 || phase >= 0.97:
		return "🌑 New Moon"
	case phase < 0.22:
		return "🌒 Waxing Crescent"
	case phase < 0.28:
		return "🌓 First Quarter"
	case phase < 0.47:
		return "🌔 Waxing Gibbous"
	case phase < 0.53:
		return "🌕 Full Moon"
	case phase < 0.72:
		return "🌖 Waning Gibbous"
	case phase < 0.78:
		return "🌗 Last Quarter"
	default:
		return "🌘 Waning Crescent"
	}
}

// Get_Solar_Lunar_Info returns sunrise, sunset, moon phase, and daylight
// duration for a US city, in the city's local time.
func Get_Solar_Lunar_Info(city string) (string, error) {
	coords, err := Geocode(city)
	if err != nil {
		return "", err
	}

	loc, tzName, err := timezoneFor(coords.Lat, coords.Lon)
	if err != nil {
		return "", err
	}

	now := timeNow().In(loc)
	rise, set := sunrise.SunriseSunset(coords.Lat, coords.Lon, now.Year(), now.Month(), now.Day())
	if rise.IsZero() || set.IsZero() {
		return "", fmt.Errorf("no sunrise/sunset today for %s (polar day or night)", coords.ShortName())
	}
	riseLocal := rise.In(loc)
	setLocal := set.In(loc)

	moon := moonphase.New(now)
	phaseDesc := moonPhaseDesc(moon.Phase())

	tzDisplay := tzName
	if i := strings.LastIndex(tzName, "/"); i >= 0 {
		tzDisplay = tzName[i+1:]
	}
	tzDisplay = strings.ReplaceAll(tzDisplay, "_", " ")

	var sb strings.Builder
	fmt.Fprintf(&sb, "🌅 Solar & Lunar Info for %s:\n\n", coords.ShortName())
	fmt.Fprintf(&sb, "🌅 Sunrise: %s (%s Time)\n", riseLocal.Format("3:04 PM"), tzDisplay)
	fmt.Fprintf(&sb, "🌅 Sunset: %s (%s Time)\n", setLocal.Format("3:04 PM"), tzDisplay)
	fmt.Fprintf(&sb, "🌙 Moon Phase: %s (%.1f%% illuminated)\n", phaseDesc, moon.Illumination()*100)

	daylight := setLocal.Sub(riseLocal)
	hours := int(daylight.Hours())
	minutes := int(daylight.Minutes()) % 60
	fmt.Fprintf(&sb, "☀️ Daylight: %dh %dm\n", hours, minutes)

	return sb.String(), nil
}
