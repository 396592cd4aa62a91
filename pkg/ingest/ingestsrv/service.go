package ingestsrv

import (
	"context"
	"io"
	"path"
	"time"

	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/fsx"
	"github.com/Abraxas-365/superagent/pkg/ingest"
	"github.com/Abraxas-365/superagent/pkg/jobx"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// NamespaceDeleter drops a document's vectors.
type NamespaceDeleter interface {
	DeleteNamespace(ctx context.Context, namespace string) error
}

// DocumentService registers documents and schedules their ingestion.
type DocumentService struct {
	repo     ingest.Repository
	jobs     jobx.JobEnqueuer
	vectors  NamespaceDeleter
	files    fsx.FileWriter
	splitter document.SplitterConfig
}

// NewDocumentService uses splitter for documents that do not choose one.
// files may be nil, which disables uploads.
func NewDocumentService(
	repo ingest.Repository,
	jobs jobx.JobEnqueuer,
	vectors NamespaceDeleter,
	files fsx.FileWriter,
	splitter document.SplitterConfig,
) *DocumentService {
	return &DocumentService{
		repo:     repo,
		jobs:     jobs,
		vectors:  vectors,
		files:    files,
		splitter: splitter,
	}
}

// CreateDocument stores a PENDING document and enqueues its ingestion.
func (s *DocumentService) CreateDocument(ctx context.Context, userID kernel.UserID, req ingest.CreateDocumentRequest) (*ingest.Document, error) {
	return s.create(ctx, userID, kernel.NewID(), req)
}

// UploadDocument writes the file to storage and registers it with the
// stored path as its url.
func (s *DocumentService) UploadDocument(ctx context.Context, userID kernel.UserID, req ingest.CreateDocumentRequest, filename string, r io.Reader) (*ingest.Document, error) {
	if s.files == nil {
		return nil, ingest.ErrRegistry.New(ingest.CodeInvalidDocument).WithDetail("reason", "uploads are disabled")
	}

	id := kernel.NewID()
	key, err := fsx.Clean(fsx.Key("documents", userID.String(), id, path.Base(filename)))
	if err != nil {
		return nil, err
	}
	req.URL = key
	if _, err := req.Validate(); err != nil {
		return nil, err
	}
	if err := s.files.WriteFileStream(ctx, key, r); err != nil {
		return nil, err
	}
	return s.create(ctx, userID, id, req)
}

func (s *DocumentService) create(ctx context.Context, userID kernel.UserID, id string, req ingest.CreateDocumentRequest) (*ingest.Document, error) {
	t, err := req.Validate()
	if err != nil {
		return nil, err
	}

	splitter := s.splitter
	if req.Splitter != nil {
		splitter = *req.Splitter
	}
	if _, err := document.NewSplitter(splitter); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	d := ingest.Document{
		ID:        id,
		UserID:    userID,
		Type:      t,
		Name:      req.Name,
		URL:       req.URL,
		Splitter:  ingest.SplitterSettings(splitter),
		FromPage:  req.FromPage,
		ToPage:    req.ToPage,
		Metadata:  req.Metadata,
		Status:    ingest.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if d.Metadata == nil {
		d.Metadata = ingest.Metadata{}
	}
	if t == ingest.TypeFirestore {
		d.Authorization = ingest.Credentials(req.Authorization)
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	if err := s.enqueue(ctx, d.ID); err != nil {
		if uerr := s.repo.UpdateStatus(ctx, d.ID, ingest.StatusFailed, err.Error()); uerr != nil {
			logx.WithFields(logx.Fields{"document_id": d.ID}).WithError(uerr).Warn("Could not mark document failed")
		}
		return nil, ingest.ErrFailed(d.ID, err)
	}

	logx.WithFields(logx.Fields{"document_id": d.ID, "user_id": userID, "type": d.Type}).Info("Document queued for ingestion")
	return &d, nil
}

func (s *DocumentService) enqueue(ctx context.Context, documentID string) error {
	job, err := jobx.NewJob(ingest.JobIngest, ingest.JobPayload{DocumentID: documentID})
	if err != nil {
		return err
	}
	job.Queue = ingest.QueueIngest
	_, err = s.jobs.Enqueue(ctx, job)
	return err
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID kernel.UserID) ([]*ingest.Document, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *DocumentService) GetDocument(ctx context.Context, userID kernel.UserID, id string) (*ingest.Document, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.UserID != userID {
		return nil, ingest.ErrDocumentNotFound(id)
	}
	return d, nil
}

// DeleteDocument drops the vector namespace, then the record.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID kernel.UserID, id string) error {
	d, err := s.GetDocument(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.vectors.DeleteNamespace(ctx, d.Namespace()); err != nil {
		return ingest.ErrFailed(id, err)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logx.WithFields(logx.Fields{"document_id": id, "user_id": userID}).Info("Document deleted")
	return nil
}

// Owns reports whether id names a document of userID.
func (s *DocumentService) Owns(ctx context.Context, userID kernel.UserID, id string) (bool, error) {
	_, err := s.GetDocument(ctx, userID, id)
	if err == nil {
		return true, nil
	}
	if errx.IsCode(err, ingest.CodeDocumentNotFound) {
		return false, nil
	}
	return false, err
}
