package cerebro

import (
	"fmt"
	"strings"
)

// ValidateMCQs filters a decoded JSON value down to the elements that form
// well-shaped MCQs. Bad elements are dropped, never repaired: one malformed
// record should not cost the user the rest of the batch. Each drop is
// recorded with the specific check that failed.
//
// Surviving records keep their original relative order. Running validation
// over an already-valid batch returns it unchanged with zero rejections.
func ValidateMCQs(candidate any) ([]MCQ, Diagnostics) {
	list, ok := candidate.([]any)
	if !ok {
		return nil, Diagnostics{
			Reasons: []string{fmt.Sprintf("expected a list, got %s", jsonKind(candidate))},
		}
	}

	diags := Diagnostics{Candidates: len(list)}
	valid := make([]MCQ, 0, len(list))
	for i, elem := range list {
		rec, reason := validateElement(elem)
		if reason != "" {
			diags.Rejected++
			diags.Reasons = append(diags.Reasons, fmt.Sprintf("record %d: %s", i+1, reason))
			continue
		}
		valid = append(valid, rec)
	}
	diags.Valid = len(valid)
	return valid, diags
}

// validateElement applies the shape checks in a fixed order and stops at
// the first failure so the reported reason names the actual problem rather
// than a generic "invalid record".
func validateElement(elem any) (MCQ, string) {
	obj, ok := elem.(map[string]any)
	if !ok {
		return MCQ{}, fmt.Sprintf("expected an object, got %s", jsonKind(elem))
	}

	var missing []string
	for _, key := range []string{"question", "options", "answer", "type"} {
		if _, present := obj[key]; !present {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return MCQ{}, fmt.Sprintf("missing key(s): %s", strings.Join(missing, ", "))
	}

	question, ok := obj["question"].(string)
	if !ok || strings.TrimSpace(question) == "" {
		return MCQ{}, `"question" must be a non-empty string`
	}

	rawOptions, ok := obj["options"].([]any)
	if !ok {
		return MCQ{}, fmt.Sprintf(`"options" must be a list, got %s`, jsonKind(obj["options"]))
	}
	if len(rawOptions) < 2 {
		return MCQ{}, fmt.Sprintf(`"options" must have at least 2 entries, got %d`, len(rawOptions))
	}
	options := make([]string, len(rawOptions))
	for i, opt := range rawOptions {
		s, ok := opt.(string)
		if !ok || s == "" {
			return MCQ{}, fmt.Sprintf(`"options" entry %d must be a non-empty string`, i+1)
		}
		options[i] = s
	}

	answer, ok := obj["answer"].(string)
	if !ok || strings.TrimSpace(answer) == "" {
		return MCQ{}, `"answer" must be a non-empty string`
	}

	// Exact, case-sensitive membership. Normalizing here would let an
	// answer pass validation while never matching a displayed option.
	found := false
	for _, opt := range options {
		if answer == opt {
			found = true
			break
		}
	}
	if !found {
		return MCQ{}, fmt.Sprintf("answer %q is not one of the options", answer)
	}

	qType, ok := obj["type"].(string)
	if !ok {
		return MCQ{}, fmt.Sprintf(`"type" must be a string, got %s`, jsonKind(obj["type"]))
	}

	return MCQ{Question: question, Options: options, Answer: answer, Type: qType}, ""
}

// jsonKind names a decoded JSON value the way a user would describe it.
func jsonKind(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case float64:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "a list"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
