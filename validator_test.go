package cerebro

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func decodeJSON(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("test input did not decode: %v", err)
	}
	return v
}

func TestValidateMCQs_NotAList(t *testing.T) {
	records, diags := ValidateMCQs(decodeJSON(t, `{"question": "lone object"}`))
	if records != nil {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if len(diags.Reasons) != 1 || diags.Reasons[0] != "expected a list, got an object" {
		t.Errorf("reasons: %v", diags.Reasons)
	}
}

func TestValidateMCQs_RejectionReasons(t *testing.T) {
	tests := []struct {
		name   string
		elem   string
		reason string
	}{
		{
			name:   "bare scalar",
			elem:   `5`,
			reason: "record 1: expected an object, got a number",
		},
		{
			name:   "missing keys",
			elem:   `{"question": "q", "options": ["a", "b"]}`,
			reason: "record 1: missing key(s): answer, type",
		},
		{
			name:   "empty question",
			elem:   `{"question": "  ", "options": ["a", "b"], "answer": "a", "type": "t"}`,
			reason: `record 1: "question" must be a non-empty string`,
		},
		{
			name:   "options not a list",
			elem:   `{"question": "q", "options": "a,b", "answer": "a", "type": "t"}`,
			reason: `record 1: "options" must be a list, got a string`,
		},
		{
			name:   "single option",
			elem:   `{"question": "q", "options": ["only"], "answer": "only", "type": "t"}`,
			reason: `record 1: "options" must have at least 2 entries, got 1`,
		},
		{
			name:   "non-string option",
			elem:   `{"question": "q", "options": ["a", 2], "answer": "a", "type": "t"}`,
			reason: `record 1: "options" entry 2 must be a non-empty string`,
		},
		{
			name:   "answer not among options",
			elem:   `{"question": "q", "options": ["a", "b"], "answer": "c", "type": "t"}`,
			reason: `record 1: answer "c" is not one of the options`,
		},
		{
			name:   "answer differs by case",
			elem:   `{"question": "q", "options": ["Paris", "Lyon"], "answer": "paris", "type": "t"}`,
			reason: `record 1: answer "paris" is not one of the options`,
		},
		{
			name:   "type not a string",
			elem:   `{"question": "q", "options": ["a", "b"], "answer": "a", "type": 7}`,
			reason: `record 1: "type" must be a string, got a number`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, diags := ValidateMCQs(decodeJSON(t, "["+tt.elem+"]"))
			if len(records) != 0 {
				t.Fatalf("expected rejection, got %d records", len(records))
			}
			if diags.Rejected != 1 || len(diags.Reasons) != 1 {
				t.Fatalf("unexpected diagnostics: %+v", diags)
			}
			if diags.Reasons[0] != tt.reason {
				t.Errorf("reason: got %q, want %q", diags.Reasons[0], tt.reason)
			}
		})
	}
}

func TestValidateMCQs_BadElementsSkippedOthersKept(t *testing.T) {
	input := `[
		{"question": "first", "options": ["a", "b"], "answer": "a", "type": "t"},
		{"question": "broken", "options": ["a", "b"], "answer": "z", "type": "t"},
		{"question": "third", "options": ["x", "y", "z"], "answer": "y", "type": "t"}
	]`

	records, diags := ValidateMCQs(decodeJSON(t, input))
	if len(records) != 2 {
		t.Fatalf("expected 2 surviving records, got %d", len(records))
	}
	if records[0].Question != "first" || records[1].Question != "third" {
		t.Errorf("survivor order wrong: %q, %q", records[0].Question, records[1].Question)
	}
	if diags.Candidates != 3 || diags.Valid != 2 || diags.Rejected != 1 {
		t.Errorf("diagnostics: %+v", diags)
	}
	if !strings.HasPrefix(diags.Reasons[0], "record 2: ") {
		t.Errorf("reason should name record 2: %q", diags.Reasons[0])
	}
}

func TestValidateMCQs_ValidBatchUnchanged(t *testing.T) {
	input := `[
		{"question": "q1", "options": ["a", "b", "c"], "answer": "b", "type": "fact"},
		{"question": "q2", "options": ["x", "y"], "answer": "x", "type": "concept"}
	]`

	records, diags := ValidateMCQs(decodeJSON(t, input))
	if diags.Rejected != 0 {
		t.Fatalf("expected no rejections: %+v", diags)
	}

	want := []MCQ{
		{Question: "q1", Options: []string{"a", "b", "c"}, Answer: "b", Type: "fact"},
		{Question: "q2", Options: []string{"x", "y"}, Answer: "x", Type: "concept"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records changed: got %+v", records)
	}
}
