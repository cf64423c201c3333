package present

import "github.com/yegors/infotavla/internal/source"

// EntryKind tells the renderer how to present a departure entry
type EntryKind string

const (
	EntryTitle     EntryKind = "title"
	EntrySeparator EntryKind = "separator"
	EntryLine      EntryKind = "line"
)

// DepartureEntry is one child of the departures region
type DepartureEntry struct {
	Kind    EntryKind
	Text    string
	Delayed bool
}

// Departures flattens the groups into title, separator and line entries.
// Groups without departures produce nothing, not even a title.
func Departures(groups []source.DepartureGroup) []DepartureEntry {
	entries := []DepartureEntry{}
	for _, g := range groups {
		if len(g.Departures) == 0 {
			continue
		}
		entries = append(entries,
			DepartureEntry{Kind: EntryTitle, Text: g.Name},
			DepartureEntry{Kind: EntrySeparator})
		for _, dep := range g.Departures {
			entries = append(entries, DepartureEntry{Kind: EntryLine, Text: dep, Delayed: IsDelayed(dep)})
		}
	}
	return entries
}
