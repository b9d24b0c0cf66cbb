package cerebro

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGenerator_DisabledWithoutKey(t *testing.T) {
	g := NewGenerator("", "", "deepseek-chat")
	req := GenerationRequest{SourceText: "material", Count: 5}

	if _, _, err := g.GenerateFlashcards(t.Context(), req, nil); !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("GenerateFlashcards: got %v, want ErrGenerationUnavailable", err)
	}
	if _, _, _, err := g.GenerateMCQs(t.Context(), req, nil, nil); !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("GenerateMCQs: got %v, want ErrGenerationUnavailable", err)
	}
	if _, err := g.AnswerQuestion(t.Context(), "q", []string{"passage"}); !errors.Is(err, ErrGenerationUnavailable) {
		t.Errorf("AnswerQuestion: got %v, want ErrGenerationUnavailable", err)
	}
}

func TestBuildPrompts_CountAndSource(t *testing.T) {
	req := GenerationRequest{SourceText: "the water cycle has stages", Count: 7}

	flash := buildFlashcardPrompt(req)
	if !strings.Contains(flash, "exactly 7 flashcards") {
		t.Error("flashcard prompt missing count")
	}
	if !strings.Contains(flash, req.SourceText) {
		t.Error("flashcard prompt missing source text")
	}

	mcq := buildMCQPrompt(req)
	if !strings.Contains(mcq, "exactly 7 multiple-choice questions") {
		t.Error("mcq prompt missing count")
	}
	if !strings.Contains(mcq, req.SourceText) {
		t.Error("mcq prompt missing source text")
	}
}

func TestTruncateSource(t *testing.T) {
	if got := truncateSource("short", 100); got != "short" {
		t.Errorf("short text changed: %q", got)
	}

	long := strings.Repeat("ab", 100)
	got := truncateSource(long, 15)
	if len(got) != 15 {
		t.Errorf("length: got %d, want 15", len(got))
	}

	// A cut inside a multi-byte rune backs off to the rune boundary.
	multibyte := strings.Repeat("é", 10) // 2 bytes each
	got = truncateSource(multibyte, 5)
	if !utf8.ValidString(got) {
		t.Errorf("cut split a rune: %q", got)
	}
	if len(got) != 4 {
		t.Errorf("length after backing off: got %d, want 4", len(got))
	}
}
