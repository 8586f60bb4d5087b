// Package schemas embeds the JSON Schemas for the documents the tools emit.
package schemas

import (
	"embed"
	"fmt"
)

// Schema file names
const (
	CandidateProfile = "candidate_profile.schema.json"
	MatchResult      = "match_result.schema.json"
)

//go:embed *.schema.json
var files embed.FS

// Get returns the content of an embedded schema
func Get(name string) ([]byte, error) {
	data, err := files.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unknown schema %s: %w", name, err)
	}
	return data, nil
}

// Names lists the embedded schemas
func Names() []string {
	entries, _ := files.ReadDir(".")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
