// Package citation applies a fixed penalty when an input chunk visibly
// cites its source, reducing false-positive plagiarism flags on properly
// attributed quotations.
package citation

import (
	"regexp"
	"strings"
)

// Penalty is the fixed multiplicative discount applied to a combined
// score when a citation marker is present.
const Penalty = 0.15

var patterns = []*regexp.Regexp{
	regexp.MustCompile(`\([A-Z][\w.\- ]*,\s*\d{4}\)`),      // (Name, YYYY)
	regexp.MustCompile(`\[\d{1,3}\]`),                       // [N], 1-3 digits
	regexp.MustCompile(`10\.\d{4,}/`),                       // DOI prefix
	regexp.MustCompile(`https?://`),                         // bare URL
}

// authorYear is the only pattern that carries an identifiable source (an
// author name and a year), so it's the only one checked against a
// candidate's title/metadata for the "is the cited source" exemption.
var authorYear = regexp.MustCompile(`\(([A-Z][\w.\- ]*),\s*(\d{4})\)`)

// HasCitation reports whether text contains at least one citation marker.
// Detection fires at most once per chunk regardless of marker count.
func HasCitation(text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

// citesSource reports whether an (Name, YYYY) citation in text plausibly
// names sourceTitle or one of sourceMetadata's values as its source: the
// author surname and year both appear in the candidate's own identifying
// text. DOI/URL/numbered markers carry no author to compare, so they never
// exempt.
func citesSource(text, sourceTitle string, sourceMetadata map[string]string) bool {
	matches := authorYear.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return false
	}

	var joined strings.Builder
	joined.WriteString(sourceTitle)
	for _, v := range sourceMetadata {
		joined.WriteByte(' ')
		joined.WriteString(v)
	}
	haystack := joined.String()
	if strings.TrimSpace(haystack) == "" {
		return false
	}
	lowerHaystack := strings.ToLower(haystack)

	for _, m := range matches {
		name := strings.TrimSpace(m[1])
		year := m[2]
		if name == "" {
			continue
		}
		if strings.Contains(lowerHaystack, strings.ToLower(name)) && strings.Contains(haystack, year) {
			return true
		}
	}
	return false
}

// Apply multiplies combined by (1 - Penalty) when the input chunk carries a
// citation marker that does not identify the matched candidate itself as
// the cited source (§4.5). sourceTitle and sourceMetadata describe the
// candidate the chunk matched against; either may be empty/nil.
func Apply(combined float64, inputChunkText, sourceTitle string, sourceMetadata map[string]string) float64 {
	if !HasCitation(inputChunkText) {
		return combined
	}
	if citesSource(inputChunkText, sourceTitle, sourceMetadata) {
		return combined
	}
	return combined * (1 - Penalty)
}
