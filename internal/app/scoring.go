package app

import (
	"strings"

	"trivia-duel-service/internal/domain"
)

// maxFreeResponseItems caps how many free-text items a single submission may
// score against the answer key.
const maxFreeResponseItems = 8

// scoreSubmission computes the score delta for one submission and returns the
// normalized form that gets recorded for the round.
//
// Multiple-choice: the first submitted item must exactly match the answer key
// for +1, anything else scores 0. Free-response: items are matched
// case-insensitively against the acceptable set, and each acceptable answer is
// credited at most once no matter how many submitted synonyms hit it.
func scoreSubmission(q domain.Question, mode domain.Mode, submission []string) (int, []string) {
	if mode == domain.ModeMultipleChoice {
		if len(submission) == 0 {
			return 0, nil
		}
		answer := strings.TrimSpace(submission[0])
		if answer == q.Answer {
			return 1, []string{answer}
		}
		return 0, []string{answer}
	}

	tokens := tokenizeAnswers(submission)
	accepted := make(map[string]bool, len(q.Accepted))
	for _, a := range q.Accepted {
		accepted[strings.ToLower(strings.TrimSpace(a))] = false
	}

	delta := 0
	for _, token := range tokens {
		key := strings.ToLower(token)
		if used, ok := accepted[key]; ok && !used {
			accepted[key] = true
			delta++
		}
	}
	return delta, tokens
}

// tokenizeAnswers flattens raw submission items by splitting on runs of
// newlines, commas, and whitespace, trimming, dropping empties, and keeping
// only the first maxFreeResponseItems tokens.
func tokenizeAnswers(items []string) []string {
	var tokens []string
	for _, item := range items {
		fields := strings.FieldsFunc(item, func(r rune) bool {
			return r == '\n' || r == '\r' || r == ',' || r == ' ' || r == '\t'
		})
		for _, f := range fields {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			tokens = append(tokens, f)
			if len(tokens) == maxFreeResponseItems {
				return tokens
			}
		}
	}
	return tokens
}
