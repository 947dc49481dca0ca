// Package batch regroups a flat chunk stream into write-sized batches
// for the vector-store upsert call.
package batch

import "github.com/kailas-cloud/vecsync/internal/domain/chunk"

// DefaultBatchSize is the maximum number of chunks per upsert call.
const DefaultBatchSize = 100

// Service regroups chunk batches. This is a pure, total function over
// its input; there are no failure modes.
type Service struct {
	size int
}

// New creates a batching service.
func New() *Service {
	return &Service{size: DefaultBatchSize}
}

// WithBatchSize configures the maximum batch size.
func (s *Service) WithBatchSize(size int) *Service {
	if size > 0 {
		s.size = size
	}
	return s
}

// Regroup flattens the input batches and splits them into batches of at
// most the configured size, preserving order and alignment across all
// parallel sequences. Empty input yields an empty output sequence.
func (s *Service) Regroup(batches []chunk.Batch) []chunk.Batch {
	var flat chunk.Batch
	for _, b := range batches {
		flat.Extend(b)
	}
	return Split(flat, s.size)
}

// Split cuts one flat batch into aligned batches of at most size chunks.
// The final batch may be smaller.
func Split(flat chunk.Batch, size int) []chunk.Batch {
	if flat.Len() == 0 {
		return nil
	}

	out := make([]chunk.Batch, 0, (flat.Len()+size-1)/size)
	for i := 0; i < flat.Len(); i += size {
		out = append(out, flat.Slice(i, min(i+size, flat.Len())))
	}
	return out
}
