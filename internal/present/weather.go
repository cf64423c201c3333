package present

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/yegors/infotavla/internal/source"
)

type iconPair struct {
	day   string
	night string
}

// clearSky is the fallback for unknown codes and a missing today entry
var clearSky = iconPair{day: "wi-day-sunny.svg", night: "wi-night-clear.svg"}

var weatherIcons = map[int]iconPair{
	1: clearSky,
	2: {day: "wi-day-cloudy.svg", night: "wi-night-alt-partly-cloudy.svg"},
	3: {day: "wi-cloudy.svg", night: "wi-night-cloudy.svg"},
	4: {day: "wi-snow.svg", night: "wi-night-snow.svg"},
	5: {day: "wi-rain.svg", night: "wi-night-rain.svg"},
	6: {day: "wi-sleet.svg", night: "wi-night-sleet.svg"},
	7: {day: "wi-thunderstorm.svg", night: "wi-night-thunderstorm.svg"},
	8: {day: "wi-fog.svg", night: "wi-night-fog.svg"},
	9: {day: "wi-day-sprinkle.svg", night: "wi-night-sprinkle.svg"},
}

func (p iconPair) pick(isDay bool) string {
	if isDay {
		return p.day
	}
	return p.night
}

// IconFor returns the icon file for a weather code
func IconFor(code int, isDay bool) string {
	pair, ok := weatherIcons[code]
	if !ok {
		pair = clearSky
	}
	return pair.pick(isDay)
}

// ClearSkyIcon returns the fallback icon file
func ClearSkyIcon(isDay bool) string {
	return clearSky.pick(isDay)
}

// IconPath returns the asset reference for an icon file
func IconPath(file string) string {
	return "icons/" + file
}

// weekdays is indexed by time.Weekday, Sunday first
var weekdays = [7]string{"Söndag", "Måndag", "Tisdag", "Onsdag", "Torsdag", "Fredag", "Lördag"}

// UnknownWeekday is shown for dates that do not parse
const UnknownWeekday = "Okänd"

// WeekdayName returns the Swedish weekday of a Y-M-D date. Parts need not be
// zero padded and out-of-range days roll over into the next month.
func WeekdayName(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return UnknownWeekday
	}
	var ymd [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return UnknownWeekday
		}
		ymd[i] = n
	}
	t := time.Date(ymd[0], time.Month(ymd[1]), ymd[2], 12, 0, 0, 0, time.UTC)
	return weekdays[t.Weekday()]
}

// TodayText renders today's panel, empty when there is no today entry
func TodayText(day *source.ForecastDay) string {
	if day == nil {
		return ""
	}
	text := fmt.Sprintf("Idag: %s°C – %s°C", FormatTemp(day.MinTemp), FormatTemp(day.MaxTemp))
	if day.AvgWind != nil {
		text += fmt.Sprintf(", Vind %s m/s", FormatTemp(*day.AvgWind))
	}
	return text
}

// ForecastLine renders one upcoming day
func ForecastLine(day source.ForecastDay) string {
	return fmt.Sprintf("%s %s°C – %s°C", WeekdayName(day.Date), FormatTemp(day.MinTemp), FormatTemp(day.MaxTemp))
}

// WeatherView is the display state of the weather pipeline
type WeatherView struct {
	Icon     string // asset reference, e.g. icons/wi-snow.svg
	Today    string
	Forecast []string
}

// Weather maps a weather response to display state
func Weather(now time.Time, resp source.WeatherResponse) WeatherView {
	isDay := IsDay(now.Hour())

	view := WeatherView{Forecast: []string{}}
	if today := resp.Today(); today != nil {
		view.Icon = IconPath(IconFor(today.WeatherCode, isDay))
		view.Today = TodayText(today)
	} else {
		view.Icon = IconPath(ClearSkyIcon(isDay))
	}

	for _, day := range resp.Upcoming() {
		view.Forecast = append(view.Forecast, ForecastLine(day))
	}
	return view
}
