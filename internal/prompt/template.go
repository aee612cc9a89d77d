package prompt

import (
	"regexp"
	"strings"

	"github.com/promptforge/promptforge/internal/apperr"
)

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Render substitutes {{name}} placeholders in a draft's content with
// the supplied variable bindings. Every placeholder must be bound;
// unbound names are a validation error so a run never hits the model
// with literal braces left in.
func Render(content string, vars map[string]string) (string, error) {
	var missing []string
	for _, name := range Placeholders(content) {
		if _, ok := vars[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "", apperr.Validation("unbound variables: %s", strings.Join(missing, ", "))
	}

	return placeholderPattern.ReplaceAllStringFunc(content, func(match string) string {
		name := match[2 : len(match)-2]
		return vars[name]
	}), nil
}

// Placeholders returns the distinct placeholder names in content, in
// order of first appearance.
func Placeholders(content string) []string {
	matches := placeholderPattern.FindAllStringSubmatch(content, -1)
	seen := make(map[string]bool)
	var names []string
	for _, m := range matches {
		if !seen[m[1]] {
			names = append(names, m[1])
			seen[m[1]] = true
		}
	}
	return names
}
