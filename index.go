package cerebro

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sort"

	openai "github.com/sashabaranov/go-openai"
)

// ErrIndexUnavailable is returned when no embedding API key is configured.
var ErrIndexUnavailable = errors.New("embedding service is not configured")

// embeddingBatchSize caps how many chunks go into one embeddings request.
const embeddingBatchSize = 64

// VectorIndex embeds session material and answers similarity queries over
// it. Embeddings come from an OpenAI-compatible embeddings endpoint;
// vectors live in the ChunkStore and are ranked by cosine similarity at
// query time. The chunk counts per session are small enough that a linear
// scan is the whole search.
type VectorIndex struct {
	client *openai.Client
	model  openai.EmbeddingModel
	store  *ChunkStore
}

// NewVectorIndex creates an index backed by store. An empty API key yields
// a disabled index whose methods return ErrIndexUnavailable.
func NewVectorIndex(apiKey, baseURL, model string, store *ChunkStore) *VectorIndex {
	if apiKey == "" {
		return &VectorIndex{store: store}
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &VectorIndex{
		client: openai.NewClientWithConfig(cfg),
		model:  openai.EmbeddingModel(model),
		store:  store,
	}
}

func (ix *VectorIndex) disabled() bool { return ix.client == nil }

// IndexText chunks text, embeds every chunk and replaces the session's
// stored chunk set. Returns the number of chunks indexed.
func (ix *VectorIndex) IndexText(ctx context.Context, sessionID, text string) (int, error) {
	if ix.disabled() {
		return 0, ErrIndexUnavailable
	}

	chunks := SplitText(text, DefaultChunkSize, DefaultChunkOverlap)
	if len(chunks) == 0 {
		return 0, errors.New("no text to index")
	}

	embeddings, err := ix.embed(ctx, chunks)
	if err != nil {
		return 0, err
	}

	if err := ix.store.ReplaceChunks(ctx, sessionID, chunks, embeddings); err != nil {
		return 0, err
	}

	log.Printf("Indexed %d chunks for session %s", len(chunks), sessionID)
	return len(chunks), nil
}

// Search embeds the query and returns the text of the k most similar
// stored chunks for the session, best first.
func (ix *VectorIndex) Search(ctx context.Context, sessionID, query string, k int) ([]string, error) {
	if ix.disabled() {
		return nil, ErrIndexUnavailable
	}

	queryEmb, err := ix.embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}

	chunks, err := ix.store.Chunks(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		return nil, errors.New("no indexed material for this session")
	}

	type scored struct {
		text  string
		score float64
	}
	ranked := make([]scored, 0, len(chunks))
	for _, chunk := range chunks {
		ranked = append(ranked, scored{chunk.Text, cosineSimilarity(queryEmb[0], chunk.Embedding)})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if k > len(ranked) {
		k = len(ranked)
	}
	passages := make([]string, k)
	for i := 0; i < k; i++ {
		passages[i] = ranked[i].text
	}
	return passages, nil
}

// Clear removes a session's indexed material.
func (ix *VectorIndex) Clear(ctx context.Context, sessionID string) error {
	return ix.store.DeleteSession(ctx, sessionID)
}

// embed fetches embeddings for all inputs, batching requests.
func (ix *VectorIndex) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(inputs))
	for start := 0; start < len(inputs); start += embeddingBatchSize {
		end := start + embeddingBatchSize
		if end > len(inputs) {
			end = len(inputs)
		}

		resp, err := ix.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: inputs[start:end],
			Model: ix.model,
		})
		if err != nil {
			return nil, fmt.Errorf("embeddings request failed: %w", err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("expected %d embeddings, got %d", end-start, len(resp.Data))
		}
		for _, d := range resp.Data {
			embeddings = append(embeddings, d.Embedding)
		}
	}
	return embeddings, nil
}

// cosineSimilarity ranks vectors; mismatched or zero-length vectors score
// zero rather than erroring, which simply drops them to the bottom.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
