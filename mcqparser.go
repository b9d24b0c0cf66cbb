package cerebro

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// ExtractionError reports that no parseable JSON list could be recovered
// from a generator response. Candidate holds the exact substring that was
// handed to the decoder so it can be shown to the user alongside the
// decode error.
type ExtractionError struct {
	Candidate string
	Err       error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("no parseable JSON list in response: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// The bracket captures are deliberately greedy: a response holding several
// records contains nested "]" characters, and a non-greedy match would stop
// at the first one and truncate the list. Greedy matching spans from the
// first "[" to the last "]".
var mcqBlockPattern = regexp.MustCompile("(?is)```(?:json)?\\s*(\\[.*\\])\\s*```|(\\[.*\\])")

// ExtractCandidate locates the substring of a generator response that most
// plausibly contains the JSON list of records. It collapses newlines to
// spaces first, then looks for a ```json fenced block or a bare bracketed
// span; if neither is present the normalized text itself is the candidate,
// on the assumption the generator followed its formatting instructions.
//
// The newline collapse means string values that legitimately contain line
// breaks come back flattened to single lines. The upstream prompts ask for
// one-line values, so this is accepted rather than worked around.
func ExtractCandidate(raw string) (candidate, note string) {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ReplaceAll(normalized, "\r", "")
	normalized = strings.ReplaceAll(normalized, "\n", " ")

	m := mcqBlockPattern.FindStringSubmatch(normalized)
	if m != nil {
		if m[1] != "" {
			return strings.TrimSpace(m[1]), "extracted fenced JSON block"
		}
		return strings.TrimSpace(m[2]), "extracted bracketed span"
	}
	return normalized, "no bracketed block found, using full response"
}

// ParseMCQs turns a raw generator response into a validated batch of MCQs.
// It is pure: the same input always yields the same records and the same
// diagnostics, and nothing is written anywhere.
//
// Failure modes are kept separate for the caller:
//   - a non-nil error is always an *ExtractionError (the response held no
//     decodable JSON at all);
//   - a nil error with zero records means the JSON decoded but no element
//     survived validation, with the reasons listed in the diagnostics.
func ParseMCQs(raw string) ([]MCQ, Diagnostics, error) {
	candidate, note := ExtractCandidate(raw)

	var decoded any
	if err := json.Unmarshal([]byte(candidate), &decoded); err != nil {
		return nil, Diagnostics{ExtractionNote: note}, &ExtractionError{Candidate: candidate, Err: err}
	}

	records, diags := ValidateMCQs(decoded)
	diags.ExtractionNote = note
	return records, diags, nil
}
