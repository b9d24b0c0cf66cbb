package cerebro

import (
	"strings"
	"unicode/utf8"
)

// Chunking parameters: large chunks with a generous overlap so retrieved
// passages carry enough surrounding context to answer from.
const (
	DefaultChunkSize    = 10000
	DefaultChunkOverlap = 1000
)

var chunkSeparators = []string{"\n\n", "\n", " "}

// SplitText splits text into chunks of at most chunkSize bytes with
// roughly overlap bytes carried over between consecutive chunks. Splitting
// prefers paragraph breaks, then line breaks, then word boundaries, and
// hard-cuts only when a single unbroken run exceeds the chunk size.
func SplitText(text string, chunkSize, overlap int) []string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 0
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= chunkSize {
		return []string{text}
	}

	pieces := splitRecursive(text, chunkSize, 0)
	return mergePieces(pieces, chunkSize, overlap)
}

// splitRecursive breaks text into pieces no longer than chunkSize, trying
// coarser separators before finer ones.
func splitRecursive(text string, chunkSize, sepIndex int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}
	if sepIndex >= len(chunkSeparators) {
		// No separator left; hard cut, backing off to a rune boundary so
		// a multibyte character is never split across chunks.
		var parts []string
		for len(text) > chunkSize {
			cut := chunkSize
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == 0 {
				cut = chunkSize
			}
			parts = append(parts, text[:cut])
			text = text[cut:]
		}
		if text != "" {
			parts = append(parts, text)
		}
		return parts
	}

	sep := chunkSeparators[sepIndex]
	var parts []string
	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if len(piece) > chunkSize {
			parts = append(parts, splitRecursive(piece, chunkSize, sepIndex+1)...)
			continue
		}
		parts = append(parts, piece)
	}
	return parts
}

// mergePieces packs small pieces back together into chunks close to
// chunkSize, seeding each new chunk with the tail of the previous one for
// overlap.
func mergePieces(pieces []string, chunkSize, overlap int) []string {
	var chunks []string
	var current strings.Builder
	fresh := false // whether current holds anything beyond the overlap seed

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		fresh = false
		if chunk == "" {
			return
		}
		chunks = append(chunks, chunk)
		if overlap > 0 && len(chunk) > overlap {
			current.WriteString(chunk[len(chunk)-overlap:])
			current.WriteString("\n")
		}
	}

	for _, piece := range pieces {
		if fresh && current.Len()+len(piece)+1 > chunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(piece)
		fresh = true
	}
	if fresh {
		if chunk := strings.TrimSpace(current.String()); chunk != "" {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
