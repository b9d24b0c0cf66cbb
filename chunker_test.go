package cerebro

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("just a short paragraph", 100, 10)
	if len(chunks) != 1 || chunks[0] != "just a short paragraph" {
		t.Fatalf("got %v", chunks)
	}
}

func TestSplitText_Empty(t *testing.T) {
	if chunks := SplitText("   \n  ", 100, 10); chunks != nil {
		t.Fatalf("expected nil for blank input, got %v", chunks)
	}
}

func TestSplitText_RespectsChunkSize(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("This is sentence number something in a long paragraph.\n\n")
	}

	chunks := SplitText(b.String(), 500, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 500 {
			t.Errorf("chunk %d exceeds size: %d bytes", i, len(c))
		}
		if strings.TrimSpace(c) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestSplitText_OverlapCarriesTail(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString(strings.Repeat("x", 90))
		b.WriteString("\n\n")
	}

	chunks := SplitText(b.String(), 400, 100)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-50:]
		if !strings.Contains(chunks[i], strings.TrimSpace(prevTail)) {
			t.Errorf("chunk %d does not carry tail of chunk %d", i, i-1)
		}
	}
}

func TestSplitText_HardCutsUnbrokenRun(t *testing.T) {
	text := strings.Repeat("a", 2500)

	chunks := SplitText(text, 1000, 0)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	total := 0
	for i, c := range chunks {
		if len(c) > 1000 {
			t.Errorf("chunk %d exceeds size: %d", i, len(c))
		}
		total += len(c)
	}
	if total != 2500 {
		t.Errorf("characters lost or duplicated: total %d", total)
	}
}

func TestSplitText_HardCutNeverSplitsRune(t *testing.T) {
	// 700 three-byte runes with no separators; 1000 is not a rune boundary.
	text := strings.Repeat("世", 700)

	chunks := SplitText(text, 1000, 0)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	totalRunes := 0
	for i, c := range chunks {
		if len(c) > 1000 {
			t.Errorf("chunk %d exceeds size: %d bytes", i, len(c))
		}
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d contains a split rune", i)
		}
		totalRunes += utf8.RuneCountInString(c)
	}
	if totalRunes != 700 {
		t.Errorf("runes lost or duplicated: total %d, want 700", totalRunes)
	}
}

func TestSplitText_DefaultsOnBadParameters(t *testing.T) {
	text := strings.Repeat("word ", 100)

	// Zero size falls back to the default, which holds this text whole.
	chunks := SplitText(text, 0, 10)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk with default size, got %d", len(chunks))
	}

	// Overlap at least the chunk size is ignored rather than looping.
	chunks = SplitText(text, 120, 200)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 120 {
			t.Errorf("chunk %d exceeds size: %d", i, len(c))
		}
	}
}
