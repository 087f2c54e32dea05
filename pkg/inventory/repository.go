package inventory

import (
	"strings"
	"sync"

	"github.com/modwin/modwin/pkg/dism"
)

// Repository holds the latest scan result per kind. Scans replace a list
// wholesale; readers always get copies.
type Repository struct {
	mu    sync.RWMutex
	lists map[dism.Kind][]Item
}

func NewRepository() *Repository {
	return &Repository{lists: make(map[dism.Kind][]Item)}
}

// Replace swaps the list for kind. Selections on the old list are dropped.
func (r *Repository) Replace(kind dism.Kind, items []Item) {
	cp := make([]Item, len(items))
	copy(cp, items)

	r.mu.Lock()
	r.lists[kind] = cp
	r.mu.Unlock()
}

func (r *Repository) Items(kind dism.Kind) []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Item, len(r.lists[kind]))
	copy(out, r.lists[kind])
	return out
}

// Filter returns the items whose name contains query, ignoring case.
// An empty query matches everything.
func (r *Repository) Filter(kind dism.Kind, query string) []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Item
	for _, it := range r.lists[kind] {
		if matches(it.Name, query) {
			out = append(out, it)
		}
	}
	return out
}

func matches(name, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(name), strings.ToLower(query))
}

// SetSelected marks a single item. It reports false if name is not listed.
func (r *Repository) SetSelected(kind dism.Kind, name string, selected bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lists[kind] {
		if r.lists[kind][i].Name == name {
			r.lists[kind][i].Selected = selected
			return true
		}
	}
	return false
}

// SelectAll marks every item matching query and returns how many changed.
func (r *Repository) SelectAll(kind dism.Kind, query string, selected bool) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for i := range r.lists[kind] {
		it := &r.lists[kind][i]
		if matches(it.Name, query) && it.Selected != selected {
			it.Selected = selected
			n++
		}
	}
	return n
}

func (r *Repository) ToggleDetails(kind dism.Kind, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.lists[kind] {
		if r.lists[kind][i].Name == name {
			r.lists[kind][i].ShowDetails = !r.lists[kind][i].ShowDetails
			return true
		}
	}
	return false
}

// Selected returns the names of the selected items in list order.
func (r *Repository) Selected(kind dism.Kind) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for _, it := range r.lists[kind] {
		if it.Selected {
			names = append(names, it.Name)
		}
	}
	return names
}
