// Package ingest tracks the documents a user uploads or links and the
// background jobs that embed them into a vector namespace.
package ingest

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/kernel"
)

// Type selects how a document's source is loaded.
type Type string

const (
	TypeTXT       Type = "TXT"
	TypePDF       Type = "PDF"
	TypeURL       Type = "URL"
	TypeYouTube   Type = "YOUTUBE"
	TypeMarkdown  Type = "MARKDOWN"
	TypeFirestore Type = "FIRESTORE"
	TypePsychic   Type = "PSYCHIC"
)

var types = []Type{TypeTXT, TypePDF, TypeURL, TypeYouTube, TypeMarkdown, TypeFirestore, TypePsychic}

// ParseType accepts any casing.
func ParseType(s string) (Type, bool) {
	t := Type(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range types {
		if t == known {
			return t, true
		}
	}
	return "", false
}

// NeedsURL reports whether the type reads from Document.URL.
func (t Type) NeedsURL() bool {
	return t != TypeFirestore && t != TypePsychic
}

type Status string

const (
	StatusPending Status = "PENDING"
	StatusReady   Status = "READY"
	StatusFailed  Status = "FAILED"
)

// Metadata keys read by loaders.
const (
	MetaCollection  = "collection"
	MetaConnectorID = "connectorId"
)

// Metadata is free-form document metadata stored as jsonb.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("ingest: cannot scan %T into Metadata", src)
	}
	return json.Unmarshal(raw, m)
}

// Lookup returns the metadata value under key when it is a string.
func (m Metadata) Lookup(key string) string {
	s, _ := m[key].(string)
	return s
}

// SplitterSettings is the per-document splitter choice stored as jsonb.
type SplitterSettings document.SplitterConfig

func (s SplitterSettings) Value() (driver.Value, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *SplitterSettings) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = SplitterSettings{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("ingest: cannot scan %T into SplitterSettings", src)
	}
}

// Credentials is a caller-supplied service account key. It is kept with
// the document so ingestion retries can use it, and is never rendered.
type Credentials []byte

func (c Credentials) Value() (driver.Value, error) {
	if len(c) == 0 {
		return nil, nil
	}
	return string(c), nil
}

func (c *Credentials) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = nil
	case []byte:
		*c = append(Credentials(nil), v...)
	case string:
		*c = Credentials(v)
	default:
		return fmt.Errorf("ingest: cannot scan %T into Credentials", src)
	}
	return nil
}

// Document is a source registered for ingestion. Its id is also the
// vector namespace its chunks live in. Authorization holds FIRESTORE
// credentials.
type Document struct {
	ID            string           `json:"id" db:"id"`
	UserID        kernel.UserID    `json:"userId" db:"user_id"`
	Type          Type             `json:"type" db:"type"`
	Name          string           `json:"name" db:"name"`
	URL           string           `json:"url" db:"url"`
	Splitter      SplitterSettings `json:"splitter" db:"splitter"`
	FromPage      *int             `json:"from_page,omitempty" db:"from_page"`
	ToPage        *int             `json:"to_page,omitempty" db:"to_page"`
	Metadata      Metadata         `json:"metadata" db:"metadata"`
	Authorization Credentials      `json:"-" db:"credentials"`
	Status        Status           `json:"status" db:"status"`
	Error         *string          `json:"error,omitempty" db:"error"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}

// Namespace is where the document's chunks are stored.
func (d *Document) Namespace() string { return d.ID }

// PageRange returns the PDF bounds, zero meaning unbounded.
func (d *Document) PageRange() (from, to int) {
	if d.FromPage != nil {
		from = *d.FromPage
	}
	if d.ToPage != nil {
		to = *d.ToPage
	}
	return from, to
}

// CreateDocumentRequest registers a document. Authorization is the service
// account key FIRESTORE documents are read with.
type CreateDocumentRequest struct {
	Type          string                   `json:"type" form:"type"`
	Name          string                   `json:"name" form:"name"`
	URL           string                   `json:"url" form:"url"`
	FromPage      *int                     `json:"from_page" form:"from_page"`
	ToPage        *int                     `json:"to_page" form:"to_page"`
	Splitter      *document.SplitterConfig `json:"splitter" form:"-"`
	Metadata      Metadata                 `json:"metadata" form:"-"`
	Authorization json.RawMessage          `json:"authorization" form:"-"`
}

// Validate checks the request and returns the parsed type.
func (r CreateDocumentRequest) Validate() (Type, error) {
	t, ok := ParseType(r.Type)
	if !ok {
		return "", ErrUnsupportedType(r.Type)
	}
	if strings.TrimSpace(r.Name) == "" {
		return "", invalid("name is required")
	}
	if t.NeedsURL() && strings.TrimSpace(r.URL) == "" {
		return "", invalid("url is required for " + string(t))
	}
	if t == TypeFirestore {
		if r.Metadata.Lookup(MetaCollection) == "" {
			return "", invalid("metadata.collection is required for FIRESTORE")
		}
		if _, err := document.ProjectFromKey(r.Authorization); err != nil {
			return "", invalid("authorization must be a service account key with a project_id")
		}
	}
	if t == TypePsychic && r.Metadata.Lookup(MetaConnectorID) == "" {
		return "", invalid("metadata.connectorId is required for PSYCHIC")
	}
	if r.FromPage != nil && r.ToPage != nil && *r.FromPage > *r.ToPage {
		return "", invalid("from_page is after to_page")
	}
	return t, nil
}

// Jobs that embed a document run on the ingestion queue.
const (
	JobIngest   = "document.ingest"
	QueueIngest = "ingestion"
)

// JobPayload is the body of a document.ingest job.
type JobPayload struct {
	DocumentID string `json:"document_id"`
}
