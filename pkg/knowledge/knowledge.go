// Package knowledge annotates Windows image components with a
// description, a removal safety rating and a category.
package knowledge

import "fmt"

// Rating says how risky it is to remove a component.
type Rating int

const (
	Unknown Rating = iota
	Safe
	Caution
	Critical
)

func (r Rating) String() string {
	switch r {
	case Unknown:
		return "unknown"
	case Safe:
		return "safe"
	case Caution:
		return "caution"
	case Critical:
		return "critical"
	}
	return fmt.Sprintf("rating(%d)", int(r))
}

// Valid reports whether r is one of the four known ratings.
func (r Rating) Valid() bool {
	return r >= Unknown && r <= Critical
}

// Entry is one row of the reference dataset.
type Entry struct {
	Identifier   string `yaml:"identifier"`
	Description  string `yaml:"description"`
	SafetyRating Rating `yaml:"safety_rating"`
	Category     string `yaml:"category"`
}

// Info returns the lookup result carried by e.
func (e Entry) Info() Info {
	return Info{
		Description:  e.Description,
		SafetyRating: e.SafetyRating,
		Category:     e.Category,
	}
}

// Info is what a lookup tells the caller about a component.
type Info struct {
	Description  string
	SafetyRating Rating
	Category     string
}

const (
	DefaultDescription = "No description available."
	DefaultCategory    = "Unknown"
)

// DefaultInfo is returned when nothing in the dataset matches.
func DefaultInfo() Info {
	return Info{
		Description:  DefaultDescription,
		SafetyRating: Unknown,
		Category:     DefaultCategory,
	}
}

// IsDefault reports whether i carries no knowledge.
func (i Info) IsDefault() bool {
	return i == DefaultInfo()
}
