package cerebro

// Flashcard is a single question/answer pair generated from source material.
// Both fields are non-empty after trimming; ParseFlashcards drops anything
// that fails that.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MCQ is a multiple-choice question. Answer is always the literal text of
// one of the entries in Options, so shuffling Options never invalidates it.
type MCQ struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
	Type     string   `json:"type"`
}

// Diagnostics is the record of one parse-and-validate cycle: how many
// candidate elements were seen, how many survived, and a human-readable
// reason for every element that was dropped. It is produced fresh per call
// and surfaced to the user rather than hidden.
type Diagnostics struct {
	Candidates     int      `json:"candidates"`
	Valid          int      `json:"valid"`
	Rejected       int      `json:"rejected"`
	Reasons        []string `json:"reasons,omitempty"`
	ExtractionNote string   `json:"extraction_note,omitempty"`
}

// GenerationRequest describes one flashcard or MCQ generation cycle.
type GenerationRequest struct {
	SourceText string `json:"-"`
	Count      int    `json:"count"`
}

// ChatMessage is one turn of the document Q&A conversation.
type ChatMessage struct {
	Role    string   `json:"role"` // "user" or "assistant"
	Content string   `json:"content"`
	Chunks  []string `json:"chunks,omitempty"` // context passages shown for assistant turns
}
