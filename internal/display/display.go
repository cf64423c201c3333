// Package display holds the named regions the dashboard renders into.
package display

import (
	"fmt"
	"sync"
	"time"
)

// Listener is called with a copy of every region whose content changed
type Listener func(Region)

// Display owns the regions. Each pipeline writes only to its own regions,
// the mutex guards the map against concurrent pipelines and readers.
type Display struct {
	mu        sync.RWMutex
	regions   map[RegionID]*Region
	order     []RegionID
	listeners []Listener
	now       func() time.Time
}

// NewDisplay creates a display with the given regions
func NewDisplay(specs ...Spec) *Display {
	d := &Display{
		regions: make(map[RegionID]*Region, len(specs)),
		now:     time.Now,
	}
	for _, s := range specs {
		if _, dup := d.regions[s.ID]; dup {
			continue
		}
		r := &Region{ID: s.ID, Kind: s.Kind}
		if s.Kind == KindContainer {
			r.Content = Children()
		}
		d.regions[s.ID] = r
		d.order = append(d.order, s.ID)
	}
	return d
}

// Subscribe registers a listener for region changes
func (d *Display) Subscribe(l Listener) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, l)
}

// Render replaces the content of a region. Rendering content equal to the
// current content changes nothing and reports changed=false.
func (d *Display) Render(id RegionID, content Content) (bool, error) {
	d.mu.Lock()
	r, ok := d.regions[id]
	if !ok {
		d.mu.Unlock()
		return false, fmt.Errorf("%w: %s", ErrRegionMissing, id)
	}
	if !content.fits(r.Kind) {
		d.mu.Unlock()
		return false, fmt.Errorf("%w: %s is %s", ErrKindMismatch, id, r.Kind)
	}
	if r.Kind == KindContainer && content.Children == nil {
		content.Children = []Entry{}
	}
	if r.Content.Equal(content) {
		d.mu.Unlock()
		return false, nil
	}

	r.Content = content.clone()
	r.Version++
	r.UpdatedAt = d.now()
	updated := r.clone()
	listeners := d.listeners
	d.mu.Unlock()

	for _, l := range listeners {
		l(updated)
	}
	return true, nil
}

// Region returns a copy of one region
func (d *Display) Region(id RegionID) (Region, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	r, ok := d.regions[id]
	if !ok {
		return Region{}, false
	}
	return r.clone(), true
}

// Snapshot returns copies of all regions in declaration order
func (d *Display) Snapshot() []Region {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]Region, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.regions[id].clone())
	}
	return out
}
