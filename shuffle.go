package cerebro

import (
	"math/rand"
	"time"
)

// OptionShuffler randomizes the presentation order of MCQ options. The
// randomness source is injected so tests can pin down the permutation; a
// nil source falls back to a time-seeded one.
//
// Shuffling permutes positions, never values: Answer still names one of the
// entries in Options afterwards. Callers apply it exactly once per batch,
// right after validation; re-shuffling on every render would move the
// options under the reviewer between redisplays.
type OptionShuffler struct {
	rng *rand.Rand
}

// NewOptionShuffler returns a shuffler backed by rng.
func NewOptionShuffler(rng *rand.Rand) *OptionShuffler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &OptionShuffler{rng: rng}
}

// Shuffle permutes the options of a single record in place, every ordering
// equally likely.
func (s *OptionShuffler) Shuffle(m *MCQ) {
	s.rng.Shuffle(len(m.Options), func(i, j int) {
		m.Options[i], m.Options[j] = m.Options[j], m.Options[i]
	})
}

// ShuffleAll shuffles every record of a batch, independently.
func (s *OptionShuffler) ShuffleAll(batch []MCQ) {
	for i := range batch {
		s.Shuffle(&batch[i])
	}
}
