package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// RecordSource lists the records of a collection.
type RecordSource interface {
	Records(ctx context.Context, collection string) ([]map[string]any, error)
}

// FirestoreSource reads collections from Cloud Firestore.
type FirestoreSource struct {
	client *firestore.Client
}

// NewFirestoreSource connects to project. credentialsJSON is a service
// account key; when empty, application default credentials are used.
func NewFirestoreSource(ctx context.Context, project string, credentialsJSON []byte) (*FirestoreSource, error) {
	var opts []option.ClientOption
	if len(credentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(credentialsJSON))
	}
	client, err := firestore.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, ErrRegistry.NewWithCause(ErrFetchFailed, err).WithDetail("project", project)
	}
	return &FirestoreSource{client: client}, nil
}

func (s *FirestoreSource) Records(ctx context.Context, collection string) ([]map[string]any, error) {
	iter := s.client.Collection(collection).Documents(ctx)
	defer iter.Stop()

	var out []map[string]any
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, ErrRegistry.NewWithCause(ErrFetchFailed, err).WithDetail("collection", collection)
		}
		out = append(out, snap.Data())
	}
}

func (s *FirestoreSource) Close() error { return s.client.Close() }

// FirestoreConnector opens a record source for project using a service
// account key.
type FirestoreConnector func(ctx context.Context, project string, key []byte) (RecordSource, error)

// ConnectFirestore is the FirestoreConnector backed by Cloud Firestore.
func ConnectFirestore(ctx context.Context, project string, key []byte) (RecordSource, error) {
	src, err := NewFirestoreSource(ctx, project, key)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// ProjectFromKey returns the project_id of a service account key.
func ProjectFromKey(key []byte) (string, error) {
	var k struct {
		ProjectID string `json:"project_id"`
	}
	if err := json.Unmarshal(key, &k); err != nil {
		return "", ErrRegistry.NewWithCause(ErrInvalidSource, err).WithDetail("reason", "authorization is not a service account key")
	}
	if k.ProjectID == "" {
		return "", ErrRegistry.New(ErrInvalidSource).WithDetail("reason", "authorization has no project_id")
	}
	return k.ProjectID, nil
}

// ServiceAccountSource reads with the caller's own service account. Each
// read opens a client on the key's project and closes it afterwards.
type ServiceAccountSource struct {
	connect FirestoreConnector
	project string
	key     []byte
}

func NewServiceAccountSource(connect FirestoreConnector, key []byte) (*ServiceAccountSource, error) {
	project, err := ProjectFromKey(key)
	if err != nil {
		return nil, err
	}
	if connect == nil {
		connect = ConnectFirestore
	}
	return &ServiceAccountSource{connect: connect, project: project, key: key}, nil
}

func (s *ServiceAccountSource) Records(ctx context.Context, collection string) ([]map[string]any, error) {
	src, err := s.connect(ctx, s.project, s.key)
	if err != nil {
		return nil, err
	}
	if c, ok := src.(io.Closer); ok {
		defer c.Close()
	}
	return src.Records(ctx, collection)
}

// FirestoreLoader turns each record into one document rendered as
// "k: v, k: v". Its output is not meant to be split.
type FirestoreLoader struct {
	source     RecordSource
	collection string
}

func NewFirestoreLoader(source RecordSource, collection string) *FirestoreLoader {
	return &FirestoreLoader{source: source, collection: collection}
}

func (l *FirestoreLoader) Load(ctx context.Context) ([]*Document, error) {
	if l.collection == "" {
		return nil, ErrRegistry.New(ErrInvalidSource).WithDetail("reason", "missing collection")
	}
	records, err := l.source.Records(ctx, l.collection)
	if err != nil {
		return nil, err
	}
	docs := make([]*Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, NewDocument(RenderRecord(r)).WithMetadata(MetadataSource, l.collection))
	}
	return docs, nil
}

// RenderRecord formats a record as "k: v" pairs sorted by key.
func RenderRecord(r map[string]any) string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %v", k, r[k]))
	}
	return strings.Join(parts, ", ")
}
