// Package tmpl renders Go templates used to build command lines.
package tmpl

import (
	"bytes"
	"fmt"
	"text/template"
)

// Render executes a Go template string with the given data.
// Returns an error if the template is invalid or references undefined keys.
func Render(tmpl string, data any) (string, error) {
	t, err := template.New("").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template: %w", err)
	}

	return buf.String(), nil
}

// RenderArgs renders each element of an argv-style template list. Elements
// are rendered independently, so a value containing spaces stays a single
// argument.
func RenderArgs(args []string, data any) ([]string, error) {
	out := make([]string, 0, len(args))
	for i, a := range args {
		rendered, err := Render(a, data)
		if err != nil {
			return nil, fmt.Errorf("argument %d %q: %w", i, a, err)
		}
		out = append(out, rendered)
	}
	return out, nil
}
