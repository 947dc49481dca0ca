// Package predicate builds the filter expressions that select obsolete
// chunks for deletion in the vector-store collection.
package predicate

import (
	"github.com/kailas-cloud/vecsync/internal/domain/document"
	"github.com/kailas-cloud/vecsync/internal/domain/where"
)

const (
	// DefaultMaxPredicates is the per-delete-call budget of leaf
	// comparisons. Each AND(document_key, version_key) pair costs 2
	// leaves, so the per-batch document count is maxPredicates/2. If
	// the filter grammar ever allows variable-arity leaves this ratio
	// needs revisiting.
	DefaultMaxPredicates = 8

	// DefaultDeleteKeysPerBatch is how many document keys are OR'd into
	// one delete call on the explicit-deletion path. Independent of the
	// stale-version budget above.
	DefaultDeleteKeysPerBatch = 4
)

// Service builds deletion predicates.
type Service struct {
	maxPredicates int
	keysPerBatch  int
}

// New creates a predicate builder with default budgets.
func New() *Service {
	return &Service{maxPredicates: DefaultMaxPredicates, keysPerBatch: DefaultDeleteKeysPerBatch}
}

// WithMaxPredicates configures the stale-version leaf budget.
func (s *Service) WithMaxPredicates(n int) *Service {
	if n > 0 {
		s.maxPredicates = n
	}
	return s
}

// WithDeleteKeysPerBatch configures keys per explicit-deletion batch.
func (s *Service) WithDeleteKeysPerBatch(n int) *Service {
	if n > 0 {
		s.keysPerBatch = n
	}
	return s
}

// Stale returns clauses selecting every stored chunk whose document_key
// matches one of docs but whose version_key differs from that document's
// current revision: the superseded chunks of a re-ingested document set.
//
// When all documents fit in one batch the per-document AND clauses are
// returned unwrapped. Once more than one batch is needed, every batch is
// wrapped in an OR — including a final batch of one, since the
// downstream validator rejects a mix of top-level shapes but accepts a
// lone AND only when no OR wrapping is present at all.
func (s *Service) Stale(docs []document.Document) []where.Clause {
	if len(docs) == 0 {
		return nil
	}

	perDoc := make([]where.Clause, len(docs))
	for i, doc := range docs {
		perDoc[i] = where.And(
			where.Eq("document_key", doc.Key),
			where.Ne("version_key", doc.VersionKey),
		)
	}

	batchSize := s.maxPredicates / 2
	if batchSize < 1 {
		batchSize = 1
	}
	if len(perDoc) <= batchSize {
		return perDoc
	}

	var wrapped []where.Clause
	for i := 0; i < len(perDoc); i += batchSize {
		group := perDoc[i:min(i+batchSize, len(perDoc))]
		wrapped = append(wrapped, where.Or(group...))
	}
	return wrapped
}

// Deleted returns clauses selecting all chunks of explicitly deleted
// documents, identified by key only. Keys are grouped into OR batches;
// a group of one stays an unwrapped equality, because an OR of one
// child fails downstream validation.
func (s *Service) Deleted(keys []string) []where.Clause {
	if len(keys) == 0 {
		return nil
	}

	var clauses []where.Clause
	for i := 0; i < len(keys); i += s.keysPerBatch {
		group := keys[i:min(i+s.keysPerBatch, len(keys))]

		if len(group) == 1 {
			clauses = append(clauses, where.Eq("document_key", group[0]))
			continue
		}

		eqs := make([]where.Clause, len(group))
		for j, key := range group {
			eqs[j] = where.Eq("document_key", key)
		}
		clauses = append(clauses, where.Or(eqs...))
	}
	return clauses
}
