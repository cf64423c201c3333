package display

import (
	"errors"
	"slices"
	"time"
)

// RegionID names a display region
type RegionID string

const (
	CurrentDay   RegionID = "current-day"
	CurrentTime  RegionID = "current-time"
	WeatherIcon  RegionID = "weather-icon"
	TodayWeather RegionID = "today-weather"
	ForecastWeek RegionID = "forecast-week"
	Departures   RegionID = "departures"
)

// Kind describes what a region holds
type Kind string

const (
	KindText      Kind = "text"
	KindImage     Kind = "image"
	KindContainer Kind = "container"
)

// Spec declares a region and its kind
type Spec struct {
	ID   RegionID
	Kind Kind
}

// DefaultRegions returns the six regions of the dashboard page
func DefaultRegions() []Spec {
	return []Spec{
		{ID: CurrentDay, Kind: KindText},
		{ID: CurrentTime, Kind: KindText},
		{ID: WeatherIcon, Kind: KindImage},
		{ID: TodayWeather, Kind: KindText},
		{ID: ForecastWeek, Kind: KindContainer},
		{ID: Departures, Kind: KindContainer},
	}
}

var (
	// ErrRegionMissing is returned when rendering into a region the display does not have
	ErrRegionMissing = errors.New("display region missing")
	// ErrKindMismatch is returned when the content does not fit the region kind
	ErrKindMismatch = errors.New("content does not match region kind")
)

// Entry is a child element of a container region
type Entry struct {
	Tag     string   `json:"tag"`
	Classes []string `json:"classes,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Content is what gets rendered into a region. Only the field matching the
// region kind may be set.
type Content struct {
	Text     string  `json:"text,omitempty"`
	Src      string  `json:"src,omitempty"`
	Children []Entry `json:"children,omitempty"`
}

// Text returns text content
func Text(s string) Content { return Content{Text: s} }

// Image returns image content
func Image(src string) Content { return Content{Src: src} }

// Children returns container content. A nil list clears the container.
func Children(entries ...Entry) Content {
	if entries == nil {
		entries = []Entry{}
	}
	return Content{Children: entries}
}

func (c Content) fits(kind Kind) bool {
	switch kind {
	case KindText:
		return c.Src == "" && len(c.Children) == 0
	case KindImage:
		return c.Text == "" && len(c.Children) == 0
	case KindContainer:
		return c.Text == "" && c.Src == ""
	}
	return false
}

// Equal reports whether two contents would look the same
func (c Content) Equal(o Content) bool {
	return c.Text == o.Text && c.Src == o.Src &&
		slices.EqualFunc(c.Children, o.Children, func(a, b Entry) bool {
			return a.Tag == b.Tag && a.Text == b.Text && slices.Equal(a.Classes, b.Classes)
		})
}

func (c Content) clone() Content {
	out := Content{Text: c.Text, Src: c.Src}
	if c.Children != nil {
		out.Children = make([]Entry, len(c.Children))
		for i, e := range c.Children {
			e.Classes = slices.Clone(e.Classes)
			out.Children[i] = e
		}
	}
	return out
}

// Region is the current state of one display region
type Region struct {
	ID        RegionID  `json:"id"`
	Kind      Kind      `json:"kind"`
	Content   Content   `json:"content"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

func (r Region) clone() Region {
	r.Content = r.Content.clone()
	return r
}
