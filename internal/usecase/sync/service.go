// Package sync orchestrates one webhook delivery: fetching changed
// records, normalizing them, and driving chunking, batching, upserts
// and stale-chunk deletion against the vector-store collaborator.
package sync

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/account"
	"github.com/kailas-cloud/vecsync/internal/domain/document"
	"github.com/kailas-cloud/vecsync/internal/domain/record"
	"github.com/kailas-cloud/vecsync/internal/domain/syncstate"
	"github.com/kailas-cloud/vecsync/internal/logger"
	"github.com/kailas-cloud/vecsync/internal/metrics"
	"github.com/kailas-cloud/vecsync/internal/usecase/batch"
	"github.com/kailas-cloud/vecsync/internal/usecase/chunk"
	"github.com/kailas-cloud/vecsync/internal/usecase/normalize"
	"github.com/kailas-cloud/vecsync/internal/usecase/predicate"
)

// DefaultPageLimit bounds how many records one fetch call may return.
const DefaultPageLimit = 1000

// DefaultCollectionName is the collection every user's chunks live in,
// isolated per user by their own credentials (tenant and database).
const DefaultCollectionName = "default"

// Service is the sync orchestrator. It is a pure coordinator: all state
// lives in its collaborators, so a delivery can safely be re-run from
// the top after any failure (upserts and deletes are idempotent).
type Service struct {
	records     RecordFetcher
	creds       CredentialResolver
	collections CollectionProvider
	users       UserReader
	connections ConnectionWriter
	embedder    Embedder
	states      StateRecorder

	normalizer *normalize.Normalizer
	chunker    *chunk.Service
	batcher    *batch.Service
	predicates *predicate.Service

	collectionName string
	pageLimit      int
	retry          RetryConfig
}

// New creates the orchestrator with default pipeline components.
func New(
	records RecordFetcher,
	creds CredentialResolver,
	collections CollectionProvider,
	users UserReader,
	connections ConnectionWriter,
) *Service {
	retry := DefaultRetryConfig()
	return &Service{
		records:        records,
		creds:          creds,
		collections:    collections,
		users:          users,
		connections:    connections,
		normalizer:     normalize.New(),
		chunker:        chunk.New(),
		batcher:        batch.New(),
		predicates:     predicate.New(),
		collectionName: DefaultCollectionName,
		pageLimit:      DefaultPageLimit,
		retry:          retry,
	}
}

// WithPipeline overrides the pipeline components.
func (s *Service) WithPipeline(n *normalize.Normalizer, c *chunk.Service, b *batch.Service, p *predicate.Service) *Service {
	if n != nil {
		s.normalizer = n
	}
	if c != nil {
		s.chunker = c
	}
	if b != nil {
		s.batcher = b
	}
	if p != nil {
		s.predicates = p
	}
	return s
}

// WithEmbedder configures optional vector precomputation.
func (s *Service) WithEmbedder(e Embedder) *Service {
	s.embedder = e
	return s
}

// WithStateRecorder enables per-pair sync bookkeeping.
func (s *Service) WithStateRecorder(r StateRecorder) *Service {
	s.states = r
	return s
}

// WithCollectionName overrides the target collection name.
func (s *Service) WithCollectionName(name string) *Service {
	if name != "" {
		s.collectionName = name
	}
	return s
}

// WithPageLimit overrides the record fetch page limit.
func (s *Service) WithPageLimit(limit int) *Service {
	if limit > 0 {
		s.pageLimit = limit
	}
	return s
}

// WithRetry overrides the step retry configuration.
func (s *Service) WithRetry(cfg RetryConfig) *Service {
	cfg.ApplyDefaults()
	s.retry = cfg
	return s
}

// Process handles one webhook delivery. Fatal errors indicate an
// upstream contract violation or incomplete setup; transient errors
// have already exhausted their per-step retries.
func (s *Service) Process(ctx context.Context, ev Event) error {
	log := logger.FromContext(ctx)

	switch ev.Type {
	case EventTypeAuth:
		return s.processAuth(ctx, ev)
	case EventTypeSync:
		return s.processSync(ctx, ev)
	default:
		log.Warn("ignoring webhook event of unknown type", zap.String("type", ev.Type))
		return nil
	}
}

// processAuth registers a fresh connection for an existing user.
// Connections cannot create accounts: an unknown end user is fatal.
func (s *Service) processAuth(ctx context.Context, ev Event) error {
	if !ev.Success {
		return nil
	}
	if ev.EndUser == nil || ev.EndUser.EndUserID == "" {
		return fmt.Errorf("auth event for connection %s: %w", ev.ConnectionID, domain.ErrEndUserMissing)
	}

	var user account.User
	err := runStep(ctx, s.retry, logger.FromContext(ctx), "lookup_user", func(ctx context.Context) error {
		var err error
		user, err = s.users.Get(ctx, ev.EndUser.EndUserID)
		return err
	})
	if err != nil {
		return fmt.Errorf("lookup user %s: %w", ev.EndUser.EndUserID, err)
	}

	conn := account.Connection{
		UserID:            user.ID,
		ConnectionID:      ev.ConnectionID,
		ProviderConfigKey: ev.ProviderConfigKey,
	}
	err = runStep(ctx, s.retry, logger.FromContext(ctx), "upsert_connection", func(ctx context.Context) error {
		return s.connections.Upsert(ctx, conn)
	})
	if err != nil {
		return fmt.Errorf("upsert connection %s: %w", ev.ConnectionID, err)
	}

	logger.FromContext(ctx).Info("connection registered",
		zap.String("user_id", user.ID),
		zap.String("provider_config_key", ev.ProviderConfigKey),
	)
	return nil
}

// processSync runs the data pipeline for one sync event:
// resolve credentials, fetch, partition, delete, upsert.
func (s *Service) processSync(ctx context.Context, ev Event) error {
	if !ev.Success {
		return nil
	}
	log := logger.FromContext(ctx)
	s.logPreviousSync(ctx, ev)

	var creds account.Credentials
	err := runStep(ctx, s.retry, log, "resolve_credentials", func(ctx context.Context) error {
		var err error
		creds, err = s.creds.Resolve(ctx, ev.ConnectionID)
		return err
	})
	if err != nil {
		return fmt.Errorf("resolve credentials for connection %s: %w", ev.ConnectionID, err)
	}

	var records []record.Record
	err = runStep(ctx, s.retry, log, "fetch_records", func(ctx context.Context) error {
		var err error
		records, err = s.records.ListRecords(ctx, ev.ConnectionID, ev.ProviderConfigKey, ev.Model, s.pageLimit)
		return err
	})
	if err != nil {
		return fmt.Errorf("fetch records for model %s: %w", ev.Model, err)
	}
	metrics.SyncRecordsFetched.WithLabelValues(ev.ProviderConfigKey).Add(float64(len(records)))

	toUpsert, toDelete, err := s.partition(ev, records)
	if err != nil {
		return err
	}
	log.Info("delivery partitioned",
		zap.String("model", ev.Model),
		zap.Int("records", len(records)),
		zap.Int("to_upsert", len(toUpsert)),
		zap.Int("to_delete", len(toDelete)),
	)

	if len(toUpsert) == 0 && len(toDelete) == 0 {
		s.recordState(ctx, ev, len(records), 0, 0)
		return nil
	}

	var col Collection
	err = runStep(ctx, s.retry, log, "open_collection", func(ctx context.Context) error {
		var err error
		col, err = s.collections.GetOrCreate(ctx, creds, s.collectionName)
		return err
	})
	if err != nil {
		return fmt.Errorf("open collection %s: %w", s.collectionName, err)
	}

	if len(toDelete) > 0 {
		if err := s.deleteDocuments(ctx, col, toDelete); err != nil {
			return err
		}
	}

	if len(toUpsert) > 0 {
		if err := s.ingest(ctx, col, ev, toUpsert); err != nil {
			return err
		}
	}

	s.recordState(ctx, ev, len(records), len(toUpsert), len(toDelete))
	return nil
}

// logPreviousSync annotates the delivery log with the last recorded
// sync for this pair. Best effort: a storage failure here never fails
// the delivery.
func (s *Service) logPreviousSync(ctx context.Context, ev Event) {
	if s.states == nil {
		return
	}
	log := logger.FromContext(ctx)
	st, ok, err := s.states.Last(ctx, ev.ConnectionID, ev.Model)
	if err != nil {
		log.Warn("reading previous sync state failed", zap.Error(err))
		return
	}
	if !ok {
		log.Debug("first sync for pair", zap.String("model", ev.Model))
		return
	}
	log.Debug("previous sync",
		zap.String("model", ev.Model),
		zap.Time("synced_at", st.SyncedAt),
		zap.Int("records_fetched", st.RecordsFetched),
	)
}

// recordState persists sync bookkeeping. Best effort: a storage failure
// here never fails the delivery, the chunks are already in place.
func (s *Service) recordState(ctx context.Context, ev Event, fetched, upserted, deleted int) {
	if s.states == nil {
		return
	}
	st := syncstate.State{
		ConnectionID:      ev.ConnectionID,
		Model:             ev.Model,
		SyncedAt:          time.Now().UTC(),
		RecordsFetched:    fetched,
		DocumentsUpserted: upserted,
		DocumentsDeleted:  deleted,
	}
	if err := s.states.Record(ctx, st); err != nil {
		logger.FromContext(ctx).Warn("recording sync state failed", zap.Error(err))
	}
}

// partition normalizes every record and routes it to the upsert or
// deletion path. Unrecognized models are skipped; a record without
// change-tracking metadata aborts the delivery.
func (s *Service) partition(ev Event, records []record.Record) (toUpsert []document.Document, toDelete []string, err error) {
	for _, rec := range records {
		res, err := s.normalizer.Normalize(ev.Model, rec, ev.ProviderConfigKey)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case res.Doc == nil:
			metrics.SyncRecordsSkipped.WithLabelValues(ev.ProviderConfigKey).Inc()
		case res.Deleted:
			toDelete = append(toDelete, res.Doc.Key)
		default:
			toUpsert = append(toUpsert, *res.Doc)
		}
	}
	return toUpsert, toDelete, nil
}

// deleteDocuments removes every chunk of explicitly deleted documents,
// one delete call per predicate batch.
func (s *Service) deleteDocuments(ctx context.Context, col Collection, keys []string) error {
	log := logger.FromContext(ctx)

	for i, clause := range s.predicates.Deleted(keys) {
		name := fmt.Sprintf("delete_documents_%d", i)
		err := runStep(ctx, s.retry, log, name, func(ctx context.Context) error {
			return col.Delete(ctx, clause)
		})
		if err != nil {
			return fmt.Errorf("delete documents batch %d: %w", i, err)
		}
		metrics.SyncDeleteCalls.WithLabelValues("deleted").Inc()
	}

	log.Info("deleted documents purged", zap.Int("keys", len(keys)))
	return nil
}

// ingest chunks, batches, and upserts the surviving documents, then
// deletes their superseded versions. The deletion predicates exclude
// the new version keys, so upsert and delete order is not correctness
// relevant; batches are retried individually.
func (s *Service) ingest(ctx context.Context, col Collection, ev Event, docs []document.Document) error {
	log := logger.FromContext(ctx)
	start := time.Now()

	batches := s.batcher.Regroup(s.chunker.Split(docs))

	for i := range batches {
		if s.embedder != nil {
			name := fmt.Sprintf("embed_batch_%d", i)
			err := runStep(ctx, s.retry, log, name, func(ctx context.Context) error {
				vectors, err := s.embedder.EmbedBatch(ctx, batches[i].Documents)
				if err != nil {
					return err
				}
				batches[i].Embeddings = vectors
				return nil
			})
			if err != nil {
				return fmt.Errorf("embed batch %d: %w", i, err)
			}
		}

		name := fmt.Sprintf("upsert_batch_%d", i)
		err := runStep(ctx, s.retry, log, name, func(ctx context.Context) error {
			return col.Upsert(ctx, batches[i])
		})
		if err != nil {
			return fmt.Errorf("upsert batch %d: %w", i, err)
		}
		metrics.SyncChunksUpserted.WithLabelValues(ev.ProviderConfigKey).Add(float64(batches[i].Len()))
	}

	for i, clause := range s.predicates.Stale(docs) {
		name := fmt.Sprintf("delete_stale_%d", i)
		err := runStep(ctx, s.retry, log, name, func(ctx context.Context) error {
			return col.Delete(ctx, clause)
		})
		if err != nil {
			return fmt.Errorf("delete stale versions batch %d: %w", i, err)
		}
		metrics.SyncDeleteCalls.WithLabelValues("stale").Inc()
	}

	log.Info("documents ingested",
		zap.Int("documents", len(docs)),
		zap.Int("batches", len(batches)),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}
