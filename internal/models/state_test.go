// ABOUTME: Tests for persisted state defaults and active filter rules.
// ABOUTME: Validates toggle, clear-on-remove and the listed-invariant check.

package models

import "testing"

func TestToggleActive(t *testing.T) {
	if got := ToggleActive("Work", true, ""); got != "Work" {
		t.Errorf("expected Work, got %q", got)
	}
	if got := ToggleActive("Work", false, "Work"); got != "" {
		t.Errorf("expected none, got %q", got)
	}
	if got := ToggleActive("Work", true, "Family"); got != "Work" {
		t.Errorf("expected Work to replace Family, got %q", got)
	}
}

func TestShouldClearActive(t *testing.T) {
	if !ShouldClearActive("Work", "Work") {
		t.Error("expected clear when removing the active filter")
	}
	if ShouldClearActive("Work", "Family") {
		t.Error("expected no clear when removing another filter")
	}
	if ShouldClearActive("Work", "") {
		t.Error("expected no clear without an active filter")
	}
}

func TestDefaultState(t *testing.T) {
	st := DefaultState()
	if st.Filters == nil || len(st.Filters) != 0 {
		t.Errorf("expected empty non-nil filters, got %v", st.Filters)
	}
	if st.HasActive() {
		t.Error("expected no active filter")
	}
	if !st.HideFeatured {
		t.Error("expected hideFeatured to default to true")
	}
}

func TestActiveListed(t *testing.T) {
	st := State{Filters: []string{"Work"}, ActiveFilter: "Work"}
	if !st.ActiveListed() {
		t.Error("expected listed active filter")
	}

	st.ActiveFilter = "Gone"
	if st.ActiveListed() {
		t.Error("expected unlisted active filter to be reported")
	}

	st.ActiveFilter = ""
	if !st.ActiveListed() {
		t.Error("expected no active filter to count as listed")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	st := State{Filters: []string{"A"}}
	c := st.Clone()
	c.Filters[0] = "B"
	if st.Filters[0] != "A" {
		t.Error("clone shares filter storage")
	}
}
