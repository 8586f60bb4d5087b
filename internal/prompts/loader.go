// Package prompts holds the embedded prompt templates for the place
// recognizer. Each JSON file maps a prompt key to a text/template body.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"maps"
	"slices"
	"strings"
	"sync"
	"text/template"
)

//go:embed *.json
var promptFiles embed.FS

// Library is a parsed set of prompt files
type Library struct {
	// file name -> prompt key -> template
	files map[string]map[string]*template.Template
}

var (
	defaultOnce sync.Once
	defaultLib  *Library
	defaultErr  error
)

// Default returns the library parsed from the embedded files. Parsing
// happens once.
func Default() (*Library, error) {
	defaultOnce.Do(func() {
		defaultLib, defaultErr = Load(promptFiles)
	})
	return defaultLib, defaultErr
}

// Load parses every *.json file at the root of fsys. A template that
// references a missing field fails at render time.
func Load(fsys fs.FS) (*Library, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}
	lib := &Library{files: make(map[string]map[string]*template.Template, len(names))}
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var raw map[string]string
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}
		parsed := make(map[string]*template.Template, len(raw))
		for key, body := range raw {
			tmpl, err := template.New(key).Option("missingkey=error").Parse(body)
			if err != nil {
				return nil, fmt.Errorf("prompt %s/%s: %w", name, key, err)
			}
			parsed[key] = tmpl
		}
		lib.files[name] = parsed
	}
	return lib, nil
}

// Render executes the prompt key from file with data
func (l *Library) Render(file, key string, data any) (string, error) {
	prompts, ok := l.files[file]
	if !ok {
		return "", fmt.Errorf("prompt file %s not found", file)
	}
	tmpl, ok := prompts[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, file)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render prompt %s/%s: %w", file, key, err)
	}
	return sb.String(), nil
}

// Keys returns the prompt keys of file, sorted
func (l *Library) Keys(file string) []string {
	return slices.Sorted(maps.Keys(l.files[file]))
}

// Render executes a prompt from the embedded library
func Render(file, key string, data any) (string, error) {
	lib, err := Default()
	if err != nil {
		return "", err
	}
	return lib.Render(file, key, data)
}
