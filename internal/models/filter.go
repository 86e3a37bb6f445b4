// ABOUTME: Filter list model: pure operations over an ordered set of filter names.
// ABOUTME: Add, remove, sort and validate never mutate the list they are given.

package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyName     = errors.New("filter name is empty")
	ErrDuplicateName = errors.New("filter already exists")
)

// ValidationError reports a rejected filter name. The operation that
// returned it left its input unchanged.
type ValidationError struct {
	Name string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter %q: %v", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// DuplicatePolicy decides when two filter names count as the same filter.
type DuplicatePolicy int

const (
	// CaseSensitive treats "Work" and "work" as different filters.
	CaseSensitive DuplicatePolicy = iota
	// CaseInsensitive treats "Work" and "work" as the same filter.
	CaseInsensitive
)

func (p DuplicatePolicy) String() string {
	if p == CaseInsensitive {
		return "case-insensitive"
	}
	return "case-sensitive"
}

func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

func ValidateFilterInput(input string) bool {
	return len(NormalizeName(input)) > 0
}

func ContainsFilter(list []string, name string) bool {
	for _, f := range list {
		if f == name {
			return true
		}
	}
	return false
}

func ContainsFilterFold(list []string, name string) bool {
	for _, f := range list {
		if strings.EqualFold(f, name) {
			return true
		}
	}
	return false
}

// AddFilter appends name using the case-sensitive duplicate policy.
func AddFilter(name string, list []string) ([]string, error) {
	return AddFilterWithPolicy(name, list, CaseSensitive)
}

// AddFilterWithPolicy trims name and returns a new list with it appended.
// An empty or duplicate name returns list itself and a *ValidationError.
func AddFilterWithPolicy(name string, list []string, policy DuplicatePolicy) ([]string, error) {
	trimmed := NormalizeName(name)
	if trimmed == "" {
		return list, &ValidationError{Name: name, Err: ErrEmptyName}
	}

	exists := ContainsFilter(list, trimmed)
	if policy == CaseInsensitive {
		exists = ContainsFilterFold(list, trimmed)
	}
	if exists {
		return list, &ValidationError{Name: trimmed, Err: ErrDuplicateName}
	}

	out := make([]string, 0, len(list)+1)
	out = append(out, list...)
	return append(out, trimmed), nil
}

// RemoveFilter returns a new list without any entry equal to name.
func RemoveFilter(name string, list []string) []string {
	out := make([]string, 0, len(list))
	for _, f := range list {
		if f != name {
			out = append(out, f)
		}
	}
	return out
}

// SortFilters returns a copy of list in byte order, so upper case sorts
// before lower case.
func SortFilters(list []string) []string {
	out := make([]string, len(list))
	copy(out, list)
	sort.Strings(out)
	return out
}
