// ABOUTME: Keyword matching for displayed item titles.
// ABOUTME: Case-insensitive substring containment; empty keyword matches all.

package page

import "strings"

// Matches reports whether title contains keyword, ignoring case.
func Matches(title, keyword string) bool {
	return strings.Contains(strings.ToLower(title), strings.ToLower(keyword))
}
