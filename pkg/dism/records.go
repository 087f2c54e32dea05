package dism

import (
	"sort"
	"strings"
)

// Kind identifies which dism inventory a record came from.
type Kind string

const (
	KindApp     Kind = "appx"
	KindPackage Kind = "package"
	KindDriver  Kind = "driver"
	KindFeature Kind = "feature"
)

// Record is a single item discovered in a mounted image.
type Record struct {
	Identifier string
	State      string
}

// Collection maps identifiers to records. A second Put for the same
// identifier overwrites the first one but keeps its original position.
type Collection struct {
	index   map[string]int
	records []Record
}

func NewCollection() *Collection {
	return &Collection{index: make(map[string]int)}
}

// Put stores a record, replacing any earlier one with the same identifier.
func (c *Collection) Put(identifier, state string) {
	if c.index == nil {
		c.index = make(map[string]int)
	}
	if i, ok := c.index[identifier]; ok {
		c.records[i].State = state
		return
	}
	c.index[identifier] = len(c.records)
	c.records = append(c.records, Record{Identifier: identifier, State: state})
}

// Get returns the record stored under identifier.
func (c *Collection) Get(identifier string) (Record, bool) {
	i, ok := c.index[identifier]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

func (c *Collection) Len() int {
	return len(c.records)
}

// Records returns a copy of the records in first-seen order.
func (c *Collection) Records() []Record {
	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out
}

// Sorted returns the records ordered case-insensitively by identifier.
func (c *Collection) Sorted() []Record {
	out := c.Records()
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Identifier) < strings.ToLower(out[j].Identifier)
	})
	return out
}
