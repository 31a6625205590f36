package placeholder

import (
	"regexp"
	"strings"
)

// pattern matches {{name}} first, then {name}. Both alternatives exclude
// braces from the name so adjacent placeholders never merge.
var pattern = regexp.MustCompile(`\{\{([^{}]*)\}\}|\{([^{}]*)\}`)

// Render replaces every {name} and {{name}} occurrence with data[name].
// Placeholders without a matching key are deleted.
func Render(tmpl string, data map[string]string) string {
	if tmpl == "" || !strings.Contains(tmpl, "{") {
		return tmpl
	}

	return pattern.ReplaceAllStringFunc(tmpl, func(token string) string {
		if v, ok := data[name(token)]; ok {
			return v
		}
		return ""
	})
}

// Names returns the distinct placeholder names used in tmpl, in order of
// first appearance.
func Names(tmpl string) []string {
	matches := pattern.FindAllString(tmpl, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		n := name(m)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		names = append(names, n)
	}
	return names
}

// Missing returns placeholder names used in tmpl that have no key in data.
func Missing(tmpl string, data map[string]string) []string {
	var missing []string
	for _, n := range Names(tmpl) {
		if _, ok := data[n]; !ok {
			missing = append(missing, n)
		}
	}
	return missing
}

func name(token string) string {
	token = strings.TrimPrefix(token, "{{")
	token = strings.TrimSuffix(token, "}}")
	token = strings.TrimPrefix(token, "{")
	token = strings.TrimSuffix(token, "}")
	return strings.TrimSpace(token)
}
