package source

// Name identifies one of the upstream data sources
type Name string

const (
	Clock      Name = "clock"
	Weather    Name = "weather"
	Departures Name = "departures"
)

// Names returns the sources in pipeline order
func Names() []Name {
	return []Name{Clock, Weather, Departures}
}

// ParseName resolves a source by its endpoint name
func ParseName(s string) (Name, bool) {
	for _, n := range Names() {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// ClockSnapshot is the /clock payload. The live time is computed locally.
type ClockSnapshot struct {
	CurrentDay string `json:"current_day" validate:"required"`
	WeekNumber int    `json:"week_number" validate:"min=1,max=53"`
}

// ForecastDay is one day of the /weather forecast
type ForecastDay struct {
	Date        string   `json:"date"` // Y-M-D, zero padding optional
	MinTemp     float64  `json:"min_temp"`
	MaxTemp     float64  `json:"max_temp"`
	AvgWind     *float64 `json:"avg_wind,omitempty"` // nil when the backend has no wind data
	WeatherCode int      `json:"weather_code"`
}

// WeatherResponse is the /weather payload. Element 0 is today.
// An empty forecast is valid, a missing or null one is not.
type WeatherResponse struct {
	Forecast []ForecastDay `json:"forecast" validate:"required,dive"`
}

// Today returns the first forecast entry, or nil when the forecast is empty
func (w *WeatherResponse) Today() *ForecastDay {
	if w == nil || len(w.Forecast) == 0 {
		return nil
	}
	return &w.Forecast[0]
}

// Upcoming returns the forecast entries after today
func (w *WeatherResponse) Upcoming() []ForecastDay {
	if w == nil || len(w.Forecast) < 2 {
		return nil
	}
	return w.Forecast[1:]
}

// DepartureGroup is one named group in the /departures payload.
// Each departure is a pre-formatted line.
type DepartureGroup struct {
	Name       string   `json:"name"`
	Departures []string `json:"departures"`
}
