// ABOUTME: Persisted filter state and the active filter selection rules.
// ABOUTME: At most one filter is active; the empty string means none.

package models

// State is everything the popup and the page share through storage.
type State struct {
	Filters      []string `json:"filters"`
	ActiveFilter string   `json:"activeFilter,omitempty"`
	HideFeatured bool     `json:"hideFeatured"`
}

func DefaultState() State {
	return State{
		Filters:      []string{},
		HideFeatured: true,
	}
}

func (s State) HasActive() bool {
	return s.ActiveFilter != ""
}

// ActiveListed reports whether the active filter, if any, is still in the
// filter list. Nothing enforces this; callers decide what to do about it.
func (s State) ActiveListed() bool {
	return !s.HasActive() || ContainsFilter(s.Filters, s.ActiveFilter)
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	out := s
	out.Filters = make([]string, len(s.Filters))
	copy(out.Filters, s.Filters)
	return out
}

// ToggleActive returns the new active filter after name's checkbox was set
// to isActive. Any previously active filter is replaced; the caller clears
// other selection indicators.
func ToggleActive(name string, isActive bool, current string) string {
	if isActive {
		return name
	}
	return ""
}

// ShouldClearActive reports whether removing removed from the list must
// also clear the active selection.
func ShouldClearActive(removed, current string) bool {
	return current != "" && removed == current
}
