package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/yegors/infotavla/internal/display"
)

func TestVersionCommand(t *testing.T) {
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := strings.TrimSpace(out.String()); got != Version {
		t.Errorf("version = %q, want %q", got, Version)
	}
}

func TestOnceRejectsUnknownOutput(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"once", "-o", "yaml"})

	if err := cmd.Execute(); err == nil || !strings.Contains(err.Error(), "yaml") {
		t.Errorf("err = %v, want unknown output format", err)
	}
}

func TestPrintRegions(t *testing.T) {
	d := display.NewDisplay(display.DefaultRegions()...)
	renders := []struct {
		id      display.RegionID
		content display.Content
	}{
		{display.CurrentTime, display.Text("08:15:00")},
		{display.WeatherIcon, display.Image("icons/wi-day-sunny.svg")},
		{display.Departures, display.Children(
			display.Entry{Tag: "div", Classes: []string{"departure-title"}, Text: "Buss 4"},
			display.Entry{Tag: "hr"},
			display.Entry{Tag: "div", Classes: []string{"departure-line", "delayed"}, Text: "08:20 Försenad"},
		)},
	}
	for _, r := range renders {
		if _, err := d.Render(r.id, r.content); err != nil {
			t.Fatal(err)
		}
	}

	var out bytes.Buffer
	printRegions(&out, d.Snapshot())
	got := out.String()

	for _, want := range []string{
		"current-time   08:15:00",
		"weather-icon   icons/wi-day-sunny.svg",
		"  Buss 4\n  ------------------------\n  08:20 Försenad  [delayed]\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
}
