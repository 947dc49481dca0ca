// Package chunk defines the parallel-sequence batch shape consumed by
// the vector-store upsert call.
package chunk

import "fmt"

// Batch holds chunks as parallel ordered sequences of equal length.
// Embeddings is nil unless vectors are precomputed before upsert.
type Batch struct {
	IDs        []string
	Documents  []string
	Metadatas  []map[string]any
	Embeddings [][]float32
}

// Len returns the number of chunks in the batch.
func (b Batch) Len() int {
	return len(b.IDs)
}

// Append adds one chunk, keeping the parallel sequences aligned.
func (b *Batch) Append(id, doc string, meta map[string]any) {
	b.IDs = append(b.IDs, id)
	b.Documents = append(b.Documents, doc)
	b.Metadatas = append(b.Metadatas, meta)
}

// Extend appends all chunks of other, including embeddings when present.
func (b *Batch) Extend(other Batch) {
	b.IDs = append(b.IDs, other.IDs...)
	b.Documents = append(b.Documents, other.Documents...)
	b.Metadatas = append(b.Metadatas, other.Metadatas...)
	if other.Embeddings != nil {
		b.Embeddings = append(b.Embeddings, other.Embeddings...)
	}
}

// Slice returns the aligned sub-batch [from, to) across all sequences.
func (b Batch) Slice(from, to int) Batch {
	out := Batch{
		IDs:       b.IDs[from:to],
		Documents: b.Documents[from:to],
		Metadatas: b.Metadatas[from:to],
	}
	if b.Embeddings != nil {
		out.Embeddings = b.Embeddings[from:to]
	}
	return out
}

// ID formats the deterministic chunk id for a document chunk.
func ID(source, documentKey string, index int) string {
	return fmt.Sprintf("%s::%s::%d", source, documentKey, index)
}
