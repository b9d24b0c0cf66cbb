package cerebro

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	qMarker   = regexp.MustCompile(`(?i)Q:`)
	qBoundary = regexp.MustCompile(`(?i)\nQ:`)
	aMarker   = regexp.MustCompile(`(?i)A:`)
)

// ParseFlashcards extracts question/answer pairs from a raw generator
// response. The primary form is repeated "Q: ... A: ..." segments, where a
// segment runs until the next "Q:" marker or the end of input. Markers
// match case-insensitively and bodies may span multiple lines. Unlike the
// MCQ path, newlines are preserved here because answers often carry
// intentional line structure.
//
// If no segment matches, the text is tried as a JSON list of
// {question, answer} objects. If that fails too the result is simply
// empty; the caller shows the raw response for manual inspection instead
// of treating it as a fatal condition.
func ParseFlashcards(raw string) []Flashcard {
	if first := qMarker.FindStringIndex(raw); first != nil {
		if cards := parseQASegments(raw[first[0]:]); len(cards) > 0 {
			return cards
		}
	}
	return parseFlashcardJSON(raw)
}

// parseQASegments walks text that begins at a "Q:" marker, cutting a new
// segment at every "\nQ:" boundary.
func parseQASegments(text string) []Flashcard {
	starts := []int{0}
	for _, b := range qBoundary.FindAllStringIndex(text, -1) {
		if b[0] == 0 {
			continue
		}
		starts = append(starts, b[0]+1) // segment begins at the "Q:", not the newline
	}

	var cards []Flashcard
	for i, start := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1] - 1 // drop the terminating newline
		}
		body := text[start+2 : end] // skip the 2-byte "Q:" marker

		aLoc := aMarker.FindStringIndex(body)
		if aLoc == nil {
			continue
		}
		question := strings.TrimSpace(body[:aLoc[0]])
		answer := strings.TrimSpace(body[aLoc[1]:])
		if question == "" || answer == "" {
			continue
		}
		cards = append(cards, Flashcard{Question: question, Answer: answer})
	}
	return cards
}

// parseFlashcardJSON accepts the response only if it is a JSON list whose
// every element is an object carrying non-empty question and answer
// strings. Anything else yields nil so the Q:/A: failure surfaces instead.
func parseFlashcardJSON(raw string) []Flashcard {
	trimmed := strings.TrimSpace(raw)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil
	}

	var decoded []map[string]any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil
	}

	cards := make([]Flashcard, 0, len(decoded))
	for _, obj := range decoded {
		question, qok := obj["question"].(string)
		answer, aok := obj["answer"].(string)
		if !qok || !aok {
			return nil
		}
		question = strings.TrimSpace(question)
		answer = strings.TrimSpace(answer)
		if question == "" || answer == "" {
			return nil
		}
		cards = append(cards, Flashcard{Question: question, Answer: answer})
	}
	return cards
}
