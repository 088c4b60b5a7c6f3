// Package prompts holds the embedded prompt templates for the beat planner
// (planner.json), the question generator (generator.json) and the beat
// definitions shared by both (beats.json), plus the per-program selection
// and safeguards applied around applicant input.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"sync"
)

//go:embed *.json
var promptFiles embed.FS

// promptFileNames lists every embedded template file.
var promptFileNames = []string{"beats.json", "planner.json", "generator.json"}

var placeholderRe = regexp.MustCompile(`\{\{\.([A-Za-z][A-Za-z0-9_]*)\}\}`)

var loadTemplates = sync.OnceValues(func() (map[string]map[string]string, error) {
	all := make(map[string]map[string]string, len(promptFileNames))
	for _, name := range promptFileNames {
		data, err := promptFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt file %s: %w", name, err)
		}
		var templates map[string]string
		if err := json.Unmarshal(data, &templates); err != nil {
			return nil, fmt.Errorf("failed to parse prompt file %s: %w", name, err)
		}
		all[name] = templates
	}
	return all, nil
})

// Get returns the template stored under key in filename ("planner.json",
// "generator.json" or "beats.json").
func Get(filename, key string) (string, error) {
	all, err := loadTemplates()
	if err != nil {
		return "", err
	}
	templates, ok := all[filename]
	if !ok {
		return "", fmt.Errorf("unknown prompt file %s", filename)
	}
	prompt, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return prompt, nil
}

// MustGet is Get for templates that ship with the binary. A miss is a
// programming error and panics.
func MustGet(filename, key string) string {
	prompt, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return prompt
}

// Placeholders returns the distinct {{.Key}} names in template, in order of
// first appearance.
func Placeholders(template string) []string {
	var names []string
	seen := map[string]bool{}
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Format substitutes every {{.Key}} placeholder of template in a single pass.
// Substituted values are never expanded again, so applicant text that looks
// like a placeholder is inserted verbatim. A placeholder without a value in
// data is an error.
func Format(template string, data map[string]string) (string, error) {
	var missing []string
	for _, name := range Placeholders(template) {
		if _, ok := data[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("prompt template is missing values for %s", strings.Join(missing, ", "))
	}
	return placeholderRe.ReplaceAllStringFunc(template, func(ph string) string {
		return data[placeholderRe.FindStringSubmatch(ph)[1]]
	}), nil
}

// MustFormat is Format for embedded templates whose placeholders are fixed
// at build time. A missing value panics.
func MustFormat(template string, data map[string]string) string {
	out, err := Format(template, data)
	if err != nil {
		panic(fmt.Sprintf("failed to format prompt: %v", err))
	}
	return out
}
