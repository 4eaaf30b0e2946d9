// Package tools maps named operations with JSON arguments onto the
// companion's command line. It knows nothing about transport: callers pass
// the argv from Tool.Argv to the sidecar client.
package tools

import (
	"encoding/json"
	"sort"
)

// Tool is a named companion operation
type Tool struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`

	// Argv validates the JSON arguments and returns the companion argv
	Argv func(args json.RawMessage) ([]string, error) `json:"-" yaml:"-"`
}

var registry = index(
	[]Tool{pingTool},
	calendarTools,
	remindersTools,
	notesTools,
)

var pingTool = Tool{
	Name:        "sidecar.ping",
	Description: "Check that the companion starts and responds.",
	Argv: func(raw json.RawMessage) ([]string, error) {
		var args struct{}
		if err := decode(raw, &args); err != nil {
			return nil, err
		}

		return []string{"ping"}, nil
	},
}

func index(groups ...[]Tool) map[string]Tool {
	m := make(map[string]Tool)
	for _, group := range groups {
		for _, t := range group {
			m[t.Name] = t
		}
	}

	return m
}

// Lookup returns the tool with the given name
func Lookup(name string) (Tool, bool) {
	t, ok := registry[name]
	return t, ok
}

// All returns every tool sorted by name
func All() []Tool {
	all := make([]Tool, 0, len(registry))
	for _, t := range registry {
		all = append(all, t)
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].Name < all[j].Name
	})

	return all
}
