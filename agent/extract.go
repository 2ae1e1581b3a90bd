package agent

import (
	"regexp"
	"strings"
)

// maxRecommendations caps the extracted list; extra matches are dropped in
// source order.
const maxRecommendations = 5

var (
	bulletLine   = regexp.MustCompile(`^[-•]\s+`)
	numberedLine = regexp.MustCompile(`^\d+\.\s+`)
	markerPrefix = regexp.MustCompile(`^[-•\d.\s]+`)
)

// actionVerbs mark a line as an actual recommendation rather than a plain
// list item.
var actionVerbs = []string{"recommend", "should", "suggest"}

// ExtractRecommendations scans free-text analysis line by line for bullet or
// numbered items containing an action verb. This is a fixed heuristic, not
// NLP: the marker patterns, verb set and cap are part of the contract.
func ExtractRecommendations(text string) []string {
	recommendations := []string{}

	for _, line := range strings.Split(text, "\n") {
		if !bulletLine.MatchString(line) && !numberedLine.MatchString(line) {
			continue
		}

		rec := strings.TrimSpace(markerPrefix.ReplaceAllString(line, ""))
		if rec == "" {
			continue
		}

		lower := strings.ToLower(rec)
		for _, verb := range actionVerbs {
			if strings.Contains(lower, verb) {
				recommendations = append(recommendations, rec)
				break
			}
		}

		if len(recommendations) == maxRecommendations {
			break
		}
	}

	return recommendations
}
