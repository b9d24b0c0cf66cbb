package cerebro

import (
	"reflect"
	"testing"
)

func TestParseFlashcards_TwoPairs(t *testing.T) {
	raw := "Q: What is 2+2?\nA: 4\nQ: What is the capital of France?\nA: Paris"

	cards := ParseFlashcards(raw)
	want := []Flashcard{
		{Question: "What is 2+2?", Answer: "4"},
		{Question: "What is the capital of France?", Answer: "Paris"},
	}
	if !reflect.DeepEqual(cards, want) {
		t.Errorf("got %+v, want %+v", cards, want)
	}
}

func TestParseFlashcards_CaseInsensitiveMarkers(t *testing.T) {
	raw := "q: lowercase question\na: lowercase answer\nQ: mixed\nA: pair"

	cards := ParseFlashcards(raw)
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d: %+v", len(cards), cards)
	}
	if cards[0].Question != "lowercase question" || cards[0].Answer != "lowercase answer" {
		t.Errorf("first card: %+v", cards[0])
	}
}

func TestParseFlashcards_MultiLineBodies(t *testing.T) {
	raw := "Preamble from the model.\nQ: Define a monad\nin one sentence.\nA: A monoid\nin the category of endofunctors.\nQ: Next?\nA: Yes"

	cards := ParseFlashcards(raw)
	if len(cards) != 2 {
		t.Fatalf("expected 2 cards, got %d: %+v", len(cards), cards)
	}
	if cards[0].Question != "Define a monad\nin one sentence." {
		t.Errorf("question: %q", cards[0].Question)
	}
	if cards[0].Answer != "A monoid\nin the category of endofunctors." {
		t.Errorf("answer: %q", cards[0].Answer)
	}
}

func TestParseFlashcards_SegmentWithoutAnswerSkipped(t *testing.T) {
	raw := "Q: orphan question with no answer\nQ: real question\nA: real answer"

	cards := ParseFlashcards(raw)
	if len(cards) != 1 {
		t.Fatalf("expected 1 card, got %d: %+v", len(cards), cards)
	}
	if cards[0].Question != "real question" {
		t.Errorf("question: %q", cards[0].Question)
	}
}

func TestParseFlashcards_JSONFallback(t *testing.T) {
	raw := `[
		{"question": "What color is the sky?", "answer": "Blue"},
		{"question": "How many legs has a spider?", "answer": "Eight"}
	]`

	cards := ParseFlashcards(raw)
	want := []Flashcard{
		{Question: "What color is the sky?", Answer: "Blue"},
		{Question: "How many legs has a spider?", Answer: "Eight"},
	}
	if !reflect.DeepEqual(cards, want) {
		t.Errorf("got %+v, want %+v", cards, want)
	}
}

func TestParseFlashcards_EmptyJSONList(t *testing.T) {
	cards := ParseFlashcards("[]")
	if cards == nil {
		t.Fatal("expected empty non-nil slice for \"[]\"")
	}
	if len(cards) != 0 {
		t.Fatalf("expected 0 cards, got %d", len(cards))
	}
}

func TestParseFlashcards_JSONWithBadElementRejectedWhole(t *testing.T) {
	raw := `[
		{"question": "good", "answer": "pair"},
		{"question": "missing answer"}
	]`

	if cards := ParseFlashcards(raw); cards != nil {
		t.Errorf("expected nil for a list with a bad element, got %+v", cards)
	}
}

func TestParseFlashcards_Garbage(t *testing.T) {
	if cards := ParseFlashcards("the model produced prose with no markers"); len(cards) != 0 {
		t.Errorf("expected no cards, got %+v", cards)
	}
}
