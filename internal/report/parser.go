package report

import (
	"fmt"
	"strings"

	"github.com/kovalenq/pressroom/pkg/models"
)

// SectionSeparator is the fixed line the generator emits between sections.
const SectionSeparator = "========================================"

// ParseSections splits generator output into exactly want labeled sections.
// Segments are delimited by SectionSeparator lines; the first non-empty line
// of each segment is its title, the remainder its body. Any deviation from
// the expected count is a hard parse failure — a truncated report must fail
// the whole job rather than feed partial data downstream.
func ParseSections(output string, want int) ([]models.TextSection, error) {
	var segments [][]string
	var current []string
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == SectionSeparator {
			segments = append(segments, current)
			current = nil
			continue
		}
		current = append(current, line)
	}
	segments = append(segments, current)

	var sections []models.TextSection
	for _, seg := range segments {
		title, body, ok := splitSegment(seg)
		if !ok {
			continue
		}
		sections = append(sections, models.TextSection{
			SectionKey:   slugify(title),
			SectionTitle: title,
			Body:         body,
		})
	}

	if len(sections) != want {
		return nil, fmt.Errorf("%w: expected %d sections, got %d", ErrMalformedOutput, want, len(sections))
	}
	return sections, nil
}

// splitSegment extracts the title (first non-empty line) and body from a
// segment. Segments with no content at all are skipped, so leading or
// trailing separators do not count as sections.
func splitSegment(lines []string) (title, body string, ok bool) {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) {
		return "", "", false
	}
	title = strings.TrimSpace(lines[i])
	body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
	return title, body, true
}

// slugify derives a stable placeholder key from a section title, e.g.
// "Market Overview" -> "market_overview".
func slugify(title string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore && b.Len() > 0 {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
