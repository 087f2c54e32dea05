package knowledge

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data/definitions.yaml
var definitionsYAML []byte

// Definitions is the versioned reference dataset shipped with the tool.
type Definitions struct {
	Version     string  `yaml:"version"`
	Definitions []Entry `yaml:"definitions"`
}

// Dataset parses and validates the embedded definitions.
func Dataset() (Definitions, error) {
	return ParseDefinitions(definitionsYAML)
}

// ParseDefinitions decodes a definitions document and checks that every
// identifier is present and unique and every rating is in range.
func ParseDefinitions(raw []byte) (Definitions, error) {
	var defs Definitions
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return Definitions{}, fmt.Errorf("parse definitions: %w", err)
	}
	if err := validateDefinitions(defs); err != nil {
		return Definitions{}, err
	}
	return defs, nil
}

func validateDefinitions(defs Definitions) error {
	if strings.TrimSpace(defs.Version) == "" {
		return errors.New("definitions: version is required")
	}
	if len(defs.Definitions) == 0 {
		return errors.New("definitions: list is empty")
	}

	seen := make(map[string]struct{}, len(defs.Definitions))
	for _, e := range defs.Definitions {
		id := strings.TrimSpace(e.Identifier)
		if id == "" {
			return errors.New("definitions: identifier is required")
		}
		if id != e.Identifier {
			return fmt.Errorf("definitions: identifier has surrounding whitespace: %q", e.Identifier)
		}
		if _, ok := seen[id]; ok {
			return fmt.Errorf("definitions: duplicate identifier: %s", id)
		}
		seen[id] = struct{}{}

		if !e.SafetyRating.Valid() {
			return fmt.Errorf("definitions: safety rating out of range for %s: %d", id, e.SafetyRating)
		}
	}
	return nil
}
