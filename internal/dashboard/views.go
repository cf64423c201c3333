package dashboard

import (
	"github.com/yegors/infotavla/internal/display"
	"github.com/yegors/infotavla/internal/present"
)

// Update is one region's new content
type Update struct {
	Region  display.RegionID
	Content display.Content
}

// CSS classes used by the page stylesheet
const (
	classForecastDay    = "forecast-day"
	classDepartureTitle = "departure-title"
	classDepartureLine  = "departure-line"
	classDelayed        = "delayed"
)

// ClockUpdates maps the clock view onto its regions
func ClockUpdates(v present.ClockView) []Update {
	return []Update{
		{Region: display.CurrentDay, Content: display.Text(v.DayLabel)},
		{Region: display.CurrentTime, Content: display.Text(v.Time)},
	}
}

// WeatherUpdates maps the weather view onto its regions
func WeatherUpdates(v present.WeatherView) []Update {
	days := make([]display.Entry, 0, len(v.Forecast))
	for _, line := range v.Forecast {
		days = append(days, display.Entry{Tag: "div", Classes: []string{classForecastDay}, Text: line})
	}
	return []Update{
		{Region: display.WeatherIcon, Content: display.Image(v.Icon)},
		{Region: display.TodayWeather, Content: display.Text(v.Today)},
		{Region: display.ForecastWeek, Content: display.Children(days...)},
	}
}

// DepartureUpdates maps departure entries onto the departures region
func DepartureUpdates(entries []present.DepartureEntry) []Update {
	children := make([]display.Entry, 0, len(entries))
	for _, e := range entries {
		switch e.Kind {
		case present.EntryTitle:
			children = append(children, display.Entry{Tag: "div", Classes: []string{classDepartureTitle}, Text: e.Text})
		case present.EntrySeparator:
			children = append(children, display.Entry{Tag: "hr"})
		case present.EntryLine:
			classes := []string{classDepartureLine}
			if e.Delayed {
				classes = append(classes, classDelayed)
			}
			children = append(children, display.Entry{Tag: "div", Classes: classes, Text: e.Text})
		}
	}
	return []Update{{Region: display.Departures, Content: display.Children(children...)}}
}
