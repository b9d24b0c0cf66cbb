package cerebro

import (
	"path/filepath"
	"reflect"
	"testing"
)

func openTestStore(t *testing.T) *ChunkStore {
	t.Helper()
	store, err := OpenChunkStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("OpenChunkStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestChunkStore_ReplaceAndRead(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()

	chunks := []string{"first chunk", "second chunk"}
	embeddings := [][]float32{{0.1, 0.2}, {0.3, 0.4}}
	if err := store.ReplaceChunks(ctx, "sess-1", chunks, embeddings); err != nil {
		t.Fatalf("ReplaceChunks failed: %v", err)
	}

	got, err := store.Chunks(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Chunks failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	for i, chunk := range got {
		if chunk.Num != i || chunk.Text != chunks[i] {
			t.Errorf("chunk %d: %+v", i, chunk)
		}
		if !reflect.DeepEqual(chunk.Embedding, embeddings[i]) {
			t.Errorf("chunk %d embedding: got %v, want %v", i, chunk.Embedding, embeddings[i])
		}
	}

	count, err := store.ChunkCount(ctx, "sess-1")
	if err != nil {
		t.Fatalf("ChunkCount failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count: got %d, want 2", count)
	}
}

func TestChunkStore_ReplaceDropsPreviousRows(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()

	if err := store.ReplaceChunks(ctx, "sess-1", []string{"a", "b", "c"}, [][]float32{{1}, {2}, {3}}); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}
	if err := store.ReplaceChunks(ctx, "sess-1", []string{"only"}, [][]float32{{9}}); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	got, err := store.Chunks(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Chunks failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "only" {
		t.Errorf("got %+v", got)
	}
}

func TestChunkStore_SessionsIsolated(t *testing.T) {
	store := openTestStore(t)
	ctx := t.Context()

	if err := store.ReplaceChunks(ctx, "sess-a", []string{"a1"}, [][]float32{{1}}); err != nil {
		t.Fatal(err)
	}
	if err := store.ReplaceChunks(ctx, "sess-b", []string{"b1", "b2"}, [][]float32{{1}, {2}}); err != nil {
		t.Fatal(err)
	}

	if err := store.DeleteSession(ctx, "sess-a"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	countA, _ := store.ChunkCount(ctx, "sess-a")
	countB, _ := store.ChunkCount(ctx, "sess-b")
	if countA != 0 {
		t.Errorf("sess-a still has %d chunks", countA)
	}
	if countB != 2 {
		t.Errorf("sess-b lost chunks: %d", countB)
	}
}

func TestChunkStore_CountMismatchRejected(t *testing.T) {
	store := openTestStore(t)

	err := store.ReplaceChunks(t.Context(), "sess-1", []string{"a", "b"}, [][]float32{{1}})
	if err == nil {
		t.Fatal("expected an error for mismatched chunk and embedding counts")
	}
}

func TestEmbeddingRoundTrip(t *testing.T) {
	original := []float32{0.25, -1.5, 3}

	s, err := EmbeddingToJSON(original)
	if err != nil {
		t.Fatalf("EmbeddingToJSON failed: %v", err)
	}
	back, err := JSONToEmbedding(s)
	if err != nil {
		t.Fatalf("JSONToEmbedding failed: %v", err)
	}
	if !reflect.DeepEqual(back, original) {
		t.Errorf("round trip changed vector: %v -> %v", original, back)
	}
}
