package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/yegors/infotavla/internal/display"
	"github.com/yegors/infotavla/internal/source"
	"github.com/yegors/infotavla/pkg/logger"
)

// fakeFetcher serves canned payloads and records the call order
type fakeFetcher struct {
	mu    sync.Mutex
	calls []source.Name

	clock      *source.ClockSnapshot
	weather    *source.WeatherResponse
	departures []source.DepartureGroup
	fail       map[source.Name]error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		clock:   &source.ClockSnapshot{CurrentDay: "Onsdag", WeekNumber: 2},
		weather: &source.WeatherResponse{Forecast: []source.ForecastDay{}},
		fail:    map[source.Name]error{},
	}
}

func (f *fakeFetcher) record(name source.Name) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	return f.fail[name]
}

func (f *fakeFetcher) setFailure(name source.Name, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[name] = err
}

func (f *fakeFetcher) count(name source.Name) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeFetcher) FetchClock(ctx context.Context) (*source.ClockSnapshot, error) {
	if err := f.record(source.Clock); err != nil {
		return nil, err
	}
	return f.clock, nil
}

func (f *fakeFetcher) FetchWeather(ctx context.Context) (*source.WeatherResponse, error) {
	if err := f.record(source.Weather); err != nil {
		return nil, err
	}
	return f.weather, nil
}

func (f *fakeFetcher) FetchDepartures(ctx context.Context) ([]source.DepartureGroup, error) {
	if err := f.record(source.Departures); err != nil {
		return nil, err
	}
	return f.departures, nil
}

func fixedClock(hour int) func() time.Time {
	return func() time.Time {
		return time.Date(2024, time.January, 10, hour, 4, 5, 0, time.UTC)
	}
}

func regionText(t *testing.T, d *display.Display, id display.RegionID) string {
	t.Helper()
	r, ok := d.Region(id)
	if !ok {
		t.Fatalf("region %s missing", id)
	}
	return r.Content.Text
}

func TestCadenceConstants(t *testing.T) {
	if ClockPeriod != time.Second || WeatherPeriod != time.Minute || DeparturesPeriod != 30*time.Second {
		t.Errorf("unexpected cadence: %v %v %v", ClockPeriod, WeatherPeriod, DeparturesPeriod)
	}
}

func TestStartRunsInitialPassInOrder(t *testing.T) {
	f := newFakeFetcher()
	d := display.NewDisplay(display.DefaultRegions()...)
	o := New(f, d, logger.NewNop(), WithClock(fixedClock(10)))

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	f.mu.Lock()
	calls := append([]source.Name(nil), f.calls[:3]...)
	f.mu.Unlock()
	want := []source.Name{source.Clock, source.Weather, source.Departures}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("call order = %v, want %v", calls, want)
		}
	}

	if got := regionText(t, d, display.CurrentDay); got != "Onsdag 2024-01-10 ─ Vecka: 2" {
		t.Errorf("current-day = %q", got)
	}
	if got := regionText(t, d, display.CurrentTime); got != "10:04:05" {
		t.Errorf("current-time = %q", got)
	}
}

func TestWeatherEndToEnd(t *testing.T) {
	f := newFakeFetcher()
	f.weather = &source.WeatherResponse{Forecast: []source.ForecastDay{
		{Date: "2024-01-10", MinTemp: -2.3, MaxTemp: 1.04, WeatherCode: 4},
	}}
	d := display.NewDisplay(display.DefaultRegions()...)
	o := New(f, d, logger.NewNop(), WithClock(fixedClock(10)))

	if err := o.Tick(context.Background(), source.Weather); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if got := regionText(t, d, display.TodayWeather); got != "Idag: -2.3°C – 1.0°C" {
		t.Errorf("today-weather = %q", got)
	}
	icon, _ := d.Region(display.WeatherIcon)
	if icon.Content.Src != "icons/wi-snow.svg" {
		t.Errorf("weather-icon = %q", icon.Content.Src)
	}
	week, _ := d.Region(display.ForecastWeek)
	if len(week.Content.Children) != 0 {
		t.Errorf("forecast-week = %+v", week.Content.Children)
	}
}

func TestEmptyForecastEndToEnd(t *testing.T) {
	f := newFakeFetcher()
	f.weather = &source.WeatherResponse{Forecast: []source.ForecastDay{
		{Date: "2024-01-10", MinTemp: 1, MaxTemp: 2, WeatherCode: 1},
		{Date: "2024-01-11", MinTemp: 1, MaxTemp: 2, WeatherCode: 1},
	}}
	d := display.NewDisplay(display.DefaultRegions()...)
	o := New(f, d, logger.NewNop(), WithClock(fixedClock(22)))
	ctx := context.Background()

	if err := o.Tick(ctx, source.Weather); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	f.weather = &source.WeatherResponse{Forecast: []source.ForecastDay{}}
	if err := o.Tick(ctx, source.Weather); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	if got := regionText(t, d, display.TodayWeather); got != "" {
		t.Errorf("today-weather = %q, want empty", got)
	}
	icon, _ := d.Region(display.WeatherIcon)
	if icon.Content.Src != "icons/wi-night-clear.svg" {
		t.Errorf("weather-icon = %q", icon.Content.Src)
	}
	week, _ := d.Region(display.ForecastWeek)
	if len(week.Content.Children) != 0 {
		t.Errorf("forecast-week should be cleared, got %+v", week.Content.Children)
	}
}

func TestDeparturesEndToEnd(t *testing.T) {
	f := newFakeFetcher()
	f.departures = []source.DepartureGroup{
		{Name: "Huvudsta - Kista", Departures: []string{}},
		{Name: "Huvudsta - KTH", Departures: []string{
			"Huvudsta - KTH | Avgår om 2 min",
			"Huvudsta - KTH | Avgår om 6 min | Delayed",
		}},
	}
	d := display.NewDisplay(display.DefaultRegions()...)
	o := New(f, d, logger.NewNop())

	if err := o.Tick(context.Background(), source.Departures); err != nil {
		t.Fatalf("Tick: %v", err)
	}

	r, _ := d.Region(display.Departures)
	want := []display.Entry{
		{Tag: "div", Classes: []string{"departure-title"}, Text: "Huvudsta - KTH"},
		{Tag: "hr"},
		{Tag: "div", Classes: []string{"departure-line"}, Text: "Huvudsta - KTH | Avgår om 2 min"},
		{Tag: "div", Classes: []string{"departure-line", "delayed"}, Text: "Huvudsta - KTH | Avgår om 6 min | Delayed"},
	}
	if !r.Content.Equal(display.Children(want...)) {
		t.Errorf("departures = %+v", r.Content.Children)
	}
}

func TestFailedTickKeepsStaleDisplay(t *testing.T) {
	f := newFakeFetcher()
	d := display.NewDisplay(display.DefaultRegions()...)
	o := New(f, d, logger.NewNop(), WithClock(fixedClock(10)))
	ctx := context.Background()

	if err := o.Tick(ctx, source.Clock); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	before, _ := d.Region(display.CurrentDay)

	upstream := &source.FetchError{Source: source.Clock, Kind: source.ErrTransport, Err: errors.New("connection refused")}
	f.setFailure(source.Clock, upstream)
	if err := o.Tick(ctx, source.Clock); !errors.Is(err, source.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}

	after, _ := d.Region(display.CurrentDay)
	if after.Version != before.Version || after.Content.Text != before.Content.Text {
		t.Errorf("display changed on failure: %+v -> %+v", before, after)
	}

	st := o.Status()[0]
	if st.LastOutcome != OutcomeFailed || st.ConsecutiveFailures != 1 || st.State != StateIdle {
		t.Errorf("status = %+v", st)
	}
	if st.LastSuccess.IsZero() {
		t.Error("last success should survive a failure")
	}
}

func TestFailureIsContainedToItsPipeline(t *testing.T) {
	f := newFakeFetcher()
	f.setFailure(source.Weather, errors.New("boom"))
	f.departures = []source.DepartureGroup{{Name: "g", Departures: []string{"x"}}}
	d := display.NewDisplay(display.DefaultRegions()...)
	o := New(f, d, logger.NewNop(), WithClock(fixedClock(10)))

	err := o.RunAll(context.Background())
	if err == nil {
		t.Fatal("expected joined error")
	}
	if f.count(source.Departures) != 1 {
		t.Error("departures should still run after weather failed")
	}
	if got := regionText(t, d, display.CurrentTime); got != "10:04:05" {
		t.Errorf("current-time = %q", got)
	}
	r, _ := d.Region(display.Departures)
	if len(r.Content.Children) != 3 {
		t.Errorf("departures = %+v", r.Content.Children)
	}
}

func TestMissingRegionDisablesOnlyThatPipeline(t *testing.T) {
	var specs []display.Spec
	for _, s := range display.DefaultRegions() {
		if s.ID != display.ForecastWeek {
			specs = append(specs, s)
		}
	}
	f := newFakeFetcher()
	d := display.NewDisplay(specs...)
	o := New(f, d, logger.NewNop(), withPeriods(map[source.Name]time.Duration{
		source.Clock:      20 * time.Millisecond,
		source.Weather:    20 * time.Millisecond,
		source.Departures: time.Hour,
	}))

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer o.Stop()

	if err := o.Tick(context.Background(), source.Weather); !errors.Is(err, ErrPipelineDisabled) {
		t.Errorf("expected ErrPipelineDisabled, got %v", err)
	}

	waitFor(t, func() bool { return f.count(source.Clock) >= 3 })
	if n := f.count(source.Weather); n != 1 {
		t.Errorf("weather fetched %d times, want only the initial pass", n)
	}

	st := o.Status()
	if st[1].State != StateDisabled {
		t.Errorf("weather state = %s", st[1].State)
	}
	if st[0].State == StateDisabled || st[2].State == StateDisabled {
		t.Errorf("other pipelines disabled: %+v", st)
	}
}

func TestScheduledTicksAndStop(t *testing.T) {
	f := newFakeFetcher()
	d := display.NewDisplay(display.DefaultRegions()...)
	o := New(f, d, logger.NewNop(), withPeriods(map[source.Name]time.Duration{
		source.Clock:      20 * time.Millisecond,
		source.Weather:    time.Hour,
		source.Departures: time.Hour,
	}))

	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// a second start is a no-op
	if err := o.Start(context.Background()); err != nil {
		t.Fatalf("second Start: %v", err)
	}

	f.setFailure(source.Clock, errors.New("flaky"))
	waitFor(t, func() bool { return f.count(source.Clock) >= 3 })
	f.setFailure(source.Clock, nil)
	waitFor(t, func() bool { return o.Status()[0].LastOutcome == OutcomeRendered && o.Status()[0].Ticks > 3 })

	o.Stop()
	stopped := f.count(source.Clock)
	time.Sleep(100 * time.Millisecond)
	if got := f.count(source.Clock); got != stopped {
		t.Errorf("clock kept ticking after Stop: %d -> %d", stopped, got)
	}
	if f.count(source.Weather) != 1 || f.count(source.Departures) != 1 {
		t.Errorf("slow pipelines should only have run the initial pass")
	}
}

func TestTickUnknownSource(t *testing.T) {
	o := New(newFakeFetcher(), display.NewDisplay(display.DefaultRegions()...), logger.NewNop())
	if err := o.Tick(context.Background(), source.Name("traffic")); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("expected ErrUnknownSource, got %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
