// Package chunk splits unified documents into embeddable pieces.
package chunk

import (
	"github.com/kailas-cloud/vecsync/internal/domain/chunk"
	"github.com/kailas-cloud/vecsync/internal/domain/document"
)

const (
	// DefaultChunkSize is the maximum characters per chunk.
	DefaultChunkSize = 800
	// DefaultDocumentBatchSize bounds how many documents are chunked
	// into one outer batch. This limits memory on large document sets
	// and is independent of the downstream write-size batching.
	DefaultDocumentBatchSize = 300
)

// Service chunks document content into contiguous, non-overlapping
// pieces of at most the configured size.
type Service struct {
	chunkSize    int
	docBatchSize int
}

// New creates a chunking service with default sizes.
func New() *Service {
	return &Service{chunkSize: DefaultChunkSize, docBatchSize: DefaultDocumentBatchSize}
}

// WithChunkSize configures the maximum characters per chunk.
func (s *Service) WithChunkSize(size int) *Service {
	if size > 0 {
		s.chunkSize = size
	}
	return s
}

// WithDocumentBatchSize configures documents per outer batch.
func (s *Service) WithDocumentBatchSize(size int) *Service {
	if size > 0 {
		s.docBatchSize = size
	}
	return s
}

// Split chunks an ordered document sequence into outer batches. Within
// a batch, every chunk id is source::document_key::index and chunk
// metadata extends the parent's flattened metadata with chunk_index and
// total_chunks. Concatenating a document's chunks in index order
// reconstructs its content exactly.
func (s *Service) Split(docs []document.Document) []chunk.Batch {
	var batches []chunk.Batch

	for start := 0; start < len(docs); start += s.docBatchSize {
		end := min(start+s.docBatchSize, len(docs))

		var batch chunk.Batch
		for _, doc := range docs[start:end] {
			s.appendDocument(&batch, doc)
		}
		batches = append(batches, batch)
	}

	return batches
}

func (s *Service) appendDocument(batch *chunk.Batch, doc document.Document) {
	pieces := splitContent(doc.Content, s.chunkSize)
	total := len(pieces)

	for i, piece := range pieces {
		meta := doc.Flatten()
		meta["chunk_index"] = i
		meta["total_chunks"] = total
		batch.Append(chunk.ID(doc.Source, doc.Key, i), piece, meta)
	}
}

// splitContent cuts content into rune-safe pieces of at most size
// characters. Content at or under the size (including empty content)
// yields exactly one piece.
func splitContent(content string, size int) []string {
	runes := []rune(content)
	if len(runes) <= size {
		return []string{content}
	}

	pieces := make([]string, 0, (len(runes)+size-1)/size)
	for i := 0; i < len(runes); i += size {
		pieces = append(pieces, string(runes[i:min(i+size, len(runes))]))
	}
	return pieces
}
