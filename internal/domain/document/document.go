// Package document defines the unified representation every provider
// record is normalized into before chunking and upsert.
package document

// Document is one logical item from any provider.
//
// Key is stable across versions of the same item; VersionKey changes
// with every content revision. Documents are created per webhook
// delivery and never mutated.
type Document struct {
	// Source identifies the originating provider configuration.
	Source string
	// Key is the document key, unique within Source.
	Key string
	// VersionKey is an opaque revision token, unique per content revision.
	VersionKey string
	// Content is the textual body to be embedded. May be empty.
	Content string
	// Meta carries the provider-specific fields.
	Meta Metadata
}

// Kind tags the provider shape a document was normalized from.
type Kind string

// Recognized document kinds. Any other provider model yields no document.
const (
	KindIssue   Kind = "github_issue"
	KindMessage Kind = "slack_message"
	KindContact Kind = "contact"
	KindFile    Kind = "file"
)

// Metadata is a closed tagged variant: exactly one of the per-kind
// structs is set, matching Kind. Open-mapping merging happens only at
// the storage boundary, in Flatten.
type Metadata struct {
	Kind    Kind
	Issue   *IssueMeta
	Message *MessageMeta
	Contact *ContactMeta
	File    *FileMeta
}

// IssueMeta holds issue-tracker fields.
type IssueMeta struct {
	Owner        string
	Repo         string
	Number       int64
	Title        string
	State        string
	Author       string
	AuthorID     int64
	DateCreated  string
	DateModified string
}

// MessageMeta holds chat-message fields.
type MessageMeta struct {
	ChannelID string
	ThreadTS  string
	UserID    string
	TS        string
	Subtype   string
	AppID     string
	BotID     string
}

// ContactMeta holds contact fields.
type ContactMeta struct {
	FullName string
	Avatar   string
}

// FileMeta holds file-store fields.
type FileMeta struct {
	Title    string
	MimeType string
	URL      string
	Size     int64
}

// Flatten serializes the document's identity and metadata into the open
// mapping stored alongside each chunk. Empty optional strings are
// omitted; identity fields and Kind are always present.
func (d Document) Flatten() map[string]any {
	m := map[string]any{
		"source":       d.Source,
		"document_key": d.Key,
		"version_key":  d.VersionKey,
		"type":         string(d.Meta.Kind),
	}

	switch {
	case d.Meta.Issue != nil:
		i := d.Meta.Issue
		putString(m, "owner", i.Owner)
		putString(m, "repo", i.Repo)
		m["issue_number"] = i.Number
		putString(m, "title", i.Title)
		putString(m, "state", i.State)
		putString(m, "author", i.Author)
		m["author_id"] = i.AuthorID
		putString(m, "date_created", i.DateCreated)
		putString(m, "date_last_modified", i.DateModified)
	case d.Meta.Message != nil:
		msg := d.Meta.Message
		putString(m, "channel_id", msg.ChannelID)
		putString(m, "thread_ts", msg.ThreadTS)
		putString(m, "user_id", msg.UserID)
		putString(m, "ts", msg.TS)
		putString(m, "subtype", msg.Subtype)
		putString(m, "app_id", msg.AppID)
		putString(m, "bot_id", msg.BotID)
	case d.Meta.Contact != nil:
		putString(m, "full_name", d.Meta.Contact.FullName)
		putString(m, "avatar", d.Meta.Contact.Avatar)
	case d.Meta.File != nil:
		f := d.Meta.File
		putString(m, "title", f.Title)
		putString(m, "mime_type", f.MimeType)
		putString(m, "url", f.URL)
		m["size"] = f.Size
	}

	return m
}

func putString(m map[string]any, key, value string) {
	if value != "" {
		m[key] = value
	}
}
