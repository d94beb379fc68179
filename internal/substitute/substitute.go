// Package substitute merges named data sections into prompt templates.
package substitute

import (
	"regexp"
	"strings"

	"github.com/kovalenq/pressroom/pkg/models"
)

var (
	// placeholderPattern matches any bracketed token, e.g. {{old_data}} or
	// {{ Market Overview }}.
	placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)
	// fieldPattern matches dotted data-field references, e.g. {{quote.price}}.
	fieldPattern = regexp.MustCompile(`\{\{\s*[A-Za-z0-9_-]+(?:\.[A-Za-z0-9_-]+)+\s*\}\}`)
)

// Result is the outcome of applying sections to a template.
type Result struct {
	Output string
	// Unresolved lists placeholder names that matched no section. They are
	// left untouched in Output; callers surface them as warnings.
	Unresolved []string
}

// Apply replaces every placeholder in template with the matching section
// body. Matching order per token: exact key, then case-insensitive key, then
// case-insensitive whitespace-normalized title. Unmatched tokens stay as-is.
// Replacement is a single left-to-right pass; section bodies are never
// rescanned, so a placeholder inside a body is not substituted recursively.
func Apply(template string, sections []models.Section) Result {
	byKey := make(map[string]models.Section, len(sections))
	byLowerKey := make(map[string]models.Section, len(sections))
	byTitle := make(map[string]models.Section, len(sections))
	for _, sec := range sections {
		key := sec.Key()
		if _, ok := byKey[key]; !ok {
			byKey[key] = sec
		}
		lower := strings.ToLower(key)
		if _, ok := byLowerKey[lower]; !ok {
			byLowerKey[lower] = sec
		}
		if title := normalize(sec.Title()); title != "" {
			if _, ok := byTitle[title]; !ok {
				byTitle[title] = sec
			}
		}
	}

	var unresolved []string
	output := placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		name := strings.TrimSpace(token[2 : len(token)-2])

		if sec, ok := byKey[name]; ok {
			return sec.RenderAsText()
		}
		if sec, ok := byLowerKey[strings.ToLower(name)]; ok {
			return sec.RenderAsText()
		}
		if sec, ok := byTitle[normalize(name)]; ok {
			return sec.RenderAsText()
		}

		unresolved = append(unresolved, name)
		return token
	})

	return Result{Output: output, Unresolved: unresolved}
}

// HasPlaceholders reports whether the raw template contains at least one
// bracketed section reference or dotted data-field token. Used for pre-flight
// warnings only: a placeholder-free template still generates, but ignores all
// configured data.
func HasPlaceholders(template string) bool {
	return placeholderPattern.MatchString(template) || fieldPattern.MatchString(template)
}

// normalize lowercases and collapses internal whitespace for title matching.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
