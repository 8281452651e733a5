package enrich

import (
	"regexp"
	"strings"
)

var reEmphasis = regexp.MustCompile(`\*\*(.+?)\*\*`)

const maxHeuristicQuestions = 3

// ExtractQuestions is the regex fallback for suggested questions: spans of
// markdown bold emphasis that read as questions, taken from the raw
// document. Used whenever the generation capability fails or returns an
// unparsable response for a language.
func ExtractQuestions(doc string) []string {
	questions := []string{}
	seen := map[string]struct{}{}

	for _, m := range reEmphasis.FindAllStringSubmatch(doc, -1) {
		q := strings.TrimSpace(m[1])
		if !strings.HasSuffix(q, "?") {
			continue
		}
		if _, dup := seen[q]; dup {
			continue
		}
		seen[q] = struct{}{}
		questions = append(questions, q)
		if len(questions) == maxHeuristicQuestions {
			break
		}
	}
	return questions
}
