package cerebro

import (
	"sort"
	"sync"
)

// ReviewCursor tracks a reviewer's position within one record batch:
// the current index, whether the answer is revealed, and which indices
// are starred.
type ReviewCursor struct {
	Index    int
	Revealed bool
	Starred  map[int]bool
}

// NewReviewCursor returns a cursor positioned at the start with nothing
// starred.
func NewReviewCursor() ReviewCursor {
	return ReviewCursor{Starred: make(map[int]bool)}
}

// Reset returns the cursor to index 0, hides the answer and clears stars.
// Called whenever the underlying batch is replaced.
func (c *ReviewCursor) Reset() {
	c.Index = 0
	c.Revealed = false
	c.Starred = make(map[int]bool)
}

// Clamp enforces index < count. An out-of-range index (the batch shrank
// underneath it) resets to 0 rather than pinning to the end, matching what
// the reviewer expects after a regeneration.
func (c *ReviewCursor) Clamp(count int) {
	if c.Index >= count || c.Index < 0 {
		c.Index = 0
		c.Revealed = false
	}
}

// Next advances the cursor and hides the answer. No-op at the last record.
func (c *ReviewCursor) Next(count int) {
	if c.Index < count-1 {
		c.Index++
		c.Revealed = false
	}
}

// Prev moves the cursor back and hides the answer. No-op at the first record.
func (c *ReviewCursor) Prev() {
	if c.Index > 0 {
		c.Index--
		c.Revealed = false
	}
}

// ToggleStar stars or unstars the given index.
func (c *ReviewCursor) ToggleStar(i int) {
	if c.Starred[i] {
		delete(c.Starred, i)
		return
	}
	c.Starred[i] = true
}

// StarredIn returns the starred indices that still fall inside a batch of
// the given size, sorted. Indices beyond the batch are skipped, not
// removed: a star referencing a record from a replaced batch is stale, not
// an error.
func (c *ReviewCursor) StarredIn(count int) []int {
	var indices []int
	for i := range c.Starred {
		if i >= 0 && i < count {
			indices = append(indices, i)
		}
	}
	sort.Ints(indices)
	return indices
}

// Session holds everything one user interaction session owns: the
// processed source text, the current flashcard and MCQ batches with their
// cursors, and the chat history. Nothing here outlives the session; Clear
// discards it all.
//
// HTTP handlers run concurrently, so a surface must hold the session lock
// for the duration of each request touching it. That also serializes
// interaction per session: a second request waits while a generation call
// is outstanding.
type Session struct {
	mu sync.Mutex

	ID            string
	ProcessedText string
	ChunkCount    int

	Flashcards []Flashcard
	CardCursor ReviewCursor

	MCQs          []MCQ
	MCQCursor     ReviewCursor
	MCQAnswered   bool
	MCQUserAnswer string
	MCQDiags      Diagnostics

	Chat []ChatMessage
}

// NewSession returns an empty session with the given ID.
func NewSession(id string) *Session {
	return &Session{
		ID:         id,
		CardCursor: NewReviewCursor(),
		MCQCursor:  NewReviewCursor(),
	}
}

// Lock takes exclusive ownership of the session's state.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session.
func (s *Session) Unlock() { s.mu.Unlock() }

// Ready reports whether source material has been processed for this
// session.
func (s *Session) Ready() bool { return s.ProcessedText != "" }

// ReplaceFlashcards swaps in a freshly generated batch as a unit and
// resets the cursor. A partial batch is never exposed: the old batch stays
// visible until the new one is complete.
func (s *Session) ReplaceFlashcards(batch []Flashcard) {
	s.Flashcards = batch
	s.CardCursor.Reset()
}

// ReplaceMCQs swaps in a freshly generated, validated, shuffled batch and
// resets the cursor and answer state.
func (s *Session) ReplaceMCQs(batch []MCQ, diags Diagnostics) {
	s.MCQs = batch
	s.MCQDiags = diags
	s.MCQCursor.Reset()
	s.MCQAnswered = false
	s.MCQUserAnswer = ""
}

// SubmitAnswer records the reviewer's choice for the current MCQ and
// reports whether it was correct. Further submissions for the same
// question are ignored until navigation resets the answer state.
func (s *Session) SubmitAnswer(answer string) (correct bool, accepted bool) {
	if s.MCQAnswered || len(s.MCQs) == 0 {
		return false, false
	}
	s.MCQCursor.Clamp(len(s.MCQs))
	s.MCQAnswered = true
	s.MCQUserAnswer = answer
	return answer == s.MCQs[s.MCQCursor.Index].Answer, true
}

// ResetAnswer clears the per-question answer state; called on navigation.
func (s *Session) ResetAnswer() {
	s.MCQAnswered = false
	s.MCQUserAnswer = ""
}

// Clear discards all processed material, batches, cursors and chat
// history, returning the session to its initial state.
func (s *Session) Clear() {
	s.ProcessedText = ""
	s.ChunkCount = 0
	s.Flashcards = nil
	s.CardCursor.Reset()
	s.MCQs = nil
	s.MCQDiags = Diagnostics{}
	s.MCQCursor.Reset()
	s.MCQAnswered = false
	s.MCQUserAnswer = ""
	s.Chat = nil
}

// SessionRegistry maps session IDs to live sessions. Only the map itself
// is guarded; each session is owned by one interaction at a time.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionRegistry returns an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it if absent.
func (r *SessionRegistry) Get(id string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.sessions[id]; ok {
		return s
	}
	s := NewSession(id)
	r.sessions[id] = s
	return s
}

// Delete drops the session for id.
func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Len returns the number of live sessions.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}
