package app

import (
	"reflect"
	"testing"

	"trivia-duel-service/internal/domain"
)

func TestTokenizeAnswers(t *testing.T) {
	tokens := tokenizeAnswers([]string{"Paris, London\nRome  Berlin"})
	want := []string{"Paris", "London", "Rome", "Berlin"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}

	tokens = tokenizeAnswers([]string{"a b c d e f g h i j"})
	if len(tokens) != maxFreeResponseItems {
		t.Fatalf("expected cap at %d tokens, got %d", maxFreeResponseItems, len(tokens))
	}

	if got := tokenizeAnswers([]string{"  ,, \n  "}); len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}
}

func TestFreeResponseScoringDedupesSynonyms(t *testing.T) {
	q := domain.Question{Accepted: []string{"paris", "london", "rome", "berlin"}}

	delta, _ := scoreSubmission(q, domain.ModeFreeResponse, []string{"Paris", "paris", "London", "Rome"})
	if delta != 3 {
		t.Fatalf("expected 3 points (Paris credited once), got %d", delta)
	}
}

func TestFreeResponseScoringIgnoresMisses(t *testing.T) {
	q := domain.Question{Accepted: []string{"red", "green"}}

	delta, _ := scoreSubmission(q, domain.ModeFreeResponse, []string{"RED", "blue", "yellow"})
	if delta != 1 {
		t.Fatalf("expected 1 point, got %d", delta)
	}
}

// Accepted answers are matched per token, so a multi-word entry can never be
// credited. Pool content is checked against this rule in the cli package.
func TestFreeResponseScoringMatchesSingleTokensOnly(t *testing.T) {
	q := domain.Question{Accepted: []string{"king lear", "hamlet"}}

	delta, _ := scoreSubmission(q, domain.ModeFreeResponse, []string{"king lear", "hamlet"})
	if delta != 1 {
		t.Fatalf("expected only the single-token answer to score, got %d", delta)
	}
}

func TestMultipleChoiceScoring(t *testing.T) {
	q := domain.Question{Options: []string{"4", "3", "5"}, Answer: "4"}

	if delta, _ := scoreSubmission(q, domain.ModeMultipleChoice, []string{"4"}); delta != 1 {
		t.Fatalf("expected +1 for exact match, got %d", delta)
	}
	if delta, _ := scoreSubmission(q, domain.ModeMultipleChoice, []string{"5"}); delta != 0 {
		t.Fatalf("expected 0 for wrong option, got %d", delta)
	}
	if delta, _ := scoreSubmission(q, domain.ModeMultipleChoice, nil); delta != 0 {
		t.Fatalf("expected 0 for empty submission, got %d", delta)
	}
}

func TestRoomCodeFormat(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code := newRoomCode()
		if len(code) != roomCodeLength {
			t.Fatalf("expected %d characters, got %q", roomCodeLength, code)
		}
		for _, c := range code {
			if !contains(roomCodeAlphabet, c) {
				t.Fatalf("character %q outside alphabet in %q", c, code)
			}
		}
		seen[code] = true
	}
	// 200 draws over 31^6 codes colliding would point at broken sampling.
	if len(seen) < 190 {
		t.Fatalf("suspiciously many collisions: %d unique of 200", len(seen))
	}

	if normalizeRoomCode("  abC234 ") != "ABC234" {
		t.Fatalf("expected case-insensitive normalization")
	}
}

func contains(alphabet string, c rune) bool {
	for _, a := range alphabet {
		if a == c {
			return true
		}
	}
	return false
}
