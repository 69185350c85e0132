package oracle

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/alf/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// document is the loose on-disk form of an automaton. Transitions may be listed
// one by one, or given as a dense table where table[q][s] is the successor of q
// under s (negative entries mean no transition).
type document struct {
	domain.Automaton `mapstructure:",squash"`
	Table            [][]int `mapstructure:"table"`
}

// Load reads an automaton definition from a YAML or JSON file.
func Load(path string) (*domain.Automaton, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read automaton: %w", err)
	}

	var raw map[string]any
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		// Default to YAML
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}
	return Decode(raw)
}

// Decode builds an automaton from a generic document such as a parsed YAML map.
func Decode(raw map[string]any) (*domain.Automaton, error) {
	var doc document
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           &doc,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidAutomaton, err)
	}

	a := doc.Automaton
	for q, succ := range doc.Table {
		if len(succ) > a.AlphabetSize {
			a.AlphabetSize = len(succ)
		}
		for s, to := range succ {
			if to < 0 {
				continue
			}
			a.Transitions = append(a.Transitions, domain.Transition{From: q, Symbol: domain.Symbol(s), To: to})
		}
	}
	if a.States == 0 {
		a.States = len(doc.Table)
	}
	if len(a.Initial) == 0 && a.States > 0 {
		a.Initial = []int{0}
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &a, nil
}
