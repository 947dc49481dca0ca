// Package normalize converts raw provider records into unified
// documents, or routes them to the deletion path.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/vecsync/internal/domain"
	"github.com/kailas-cloud/vecsync/internal/domain/document"
	"github.com/kailas-cloud/vecsync/internal/domain/record"
)

// Result is the outcome of normalizing one record.
//
// Doc is nil when the provider model is unrecognized; the record is
// skipped, which is expected steady-state behavior rather than an error.
// Deleted routes the document to the deletion path by Key only.
type Result struct {
	Doc     *document.Document
	Deleted bool
}

// Normalizer maps provider records to unified documents. It is pure
// apart from the clock, which is injectable for tests.
type Normalizer struct {
	now func() time.Time
}

// New creates a Normalizer.
func New() *Normalizer {
	return &Normalizer{now: time.Now}
}

// WithClock overrides the current-time source.
func (n *Normalizer) WithClock(now func() time.Time) *Normalizer {
	if now != nil {
		n.now = now
	}
	return n
}

// Normalize produces a Result for one raw record.
//
// A record without its change-tracking block cannot be version-tracked
// and fails with domain.ErrChangeMetaMissing (fatal).
func (n *Normalizer) Normalize(model string, rec record.Record, providerConfigKey string) (Result, error) {
	meta, ok := rec.ChangeMeta()
	if !ok {
		return Result{}, fmt.Errorf("record %s: %w", rec.ID(), domain.ErrChangeMetaMissing)
	}

	doc, recognized := n.buildDocument(model, rec, meta, providerConfigKey)
	if !recognized {
		return Result{}, nil
	}

	if meta.Deleted() {
		// Deletion needs only the document key; content and metadata
		// of the deleted revision are irrelevant.
		return Result{Doc: &document.Document{Source: doc.Source, Key: doc.Key}, Deleted: true}, nil
	}

	return Result{Doc: &doc}, nil
}

// buildDocument dispatches on the provider model name. The recognized
// set is closed; anything else reports recognized=false.
func (n *Normalizer) buildDocument(model string, rec record.Record, meta record.ChangeMeta, providerConfigKey string) (document.Document, bool) {
	doc := document.Document{
		Source: providerConfigKey,
		Key:    rec.ID(),
	}
	doc.VersionKey = versionKey(doc.Key, rec, meta, n.now)

	switch {
	case model == "GithubIssue" || strings.Contains(model, "Issue"):
		doc.Content = firstNonEmpty(rec.String("body"), rec.String("title"))
		doc.Meta = document.Metadata{
			Kind: document.KindIssue,
			Issue: &document.IssueMeta{
				Owner:        rec.String("owner"),
				Repo:         rec.String("repo"),
				Number:       rec.Int("issue_number"),
				Title:        rec.String("title"),
				State:        rec.String("state"),
				Author:       rec.String("author"),
				AuthorID:     rec.Int("author_id"),
				DateCreated:  rec.String("date_created"),
				DateModified: rec.String("date_last_modified"),
			},
		}

	case model == "SlackMessageReaction" || strings.Contains(model, "Contact"):
		name := firstNonEmpty(rec.String("fullName"), rec.String("name"))
		doc.Content = name
		doc.Meta = document.Metadata{
			Kind: document.KindContact,
			Contact: &document.ContactMeta{
				FullName: name,
				Avatar:   rec.String("avatar"),
			},
		}

	case strings.Contains(model, "Slack") || strings.Contains(model, "Message"):
		doc.Content = rec.String("text")
		doc.Meta = document.Metadata{
			Kind: document.KindMessage,
			Message: &document.MessageMeta{
				ChannelID: rec.String("channel_id"),
				ThreadTS:  rec.String("thread_ts"),
				UserID:    rec.String("user_id"),
				TS:        rec.String("ts"),
				Subtype:   rec.String("subtype"),
				AppID:     rec.String("app_id"),
				BotID:     rec.String("bot_id"),
			},
		}

	case strings.Contains(model, "File") || strings.Contains(model, "Drive"):
		title := firstNonEmpty(rec.String("title"), rec.String("name"))
		doc.Content = title
		doc.Meta = document.Metadata{
			Kind: document.KindFile,
			File: &document.FileMeta{
				Title:    title,
				MimeType: firstNonEmpty(rec.String("mimeType"), rec.String("mime_type")),
				URL:      rec.String("url"),
				Size:     rec.Int("size"),
			},
		}

	default:
		return document.Document{}, false
	}

	return doc, true
}

// versionKey derives the opaque revision token. Preference order:
// change-tracking last-modified, the record's own last-modified field,
// the record's fractional-seconds timestamp (scaled to milliseconds),
// and finally the current processing time.
func versionKey(documentKey string, rec record.Record, meta record.ChangeMeta, now func() time.Time) string {
	var millis int64
	switch {
	case !meta.LastModifiedAt.IsZero():
		millis = meta.LastModifiedAt.UnixMilli()
	case !rec.Time("date_last_modified").IsZero():
		millis = rec.Time("date_last_modified").UnixMilli()
	case rec.Float("ts") != 0:
		millis = int64(rec.Float("ts") * 1000)
	default:
		millis = now().UnixMilli()
	}
	return fmt.Sprintf("%s::%d", documentKey, millis)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
