package ingestsrv

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/ingest"
	"github.com/Abraxas-365/superagent/pkg/jobx"
	"github.com/Abraxas-365/superagent/pkg/logx"
)

// Ingester runs document.ingest jobs: load, split, embed, upsert, then
// record the outcome on the document.
type Ingester struct {
	repo    ingest.Repository
	sources Sources
	store   *document.Store
}

func NewIngester(repo ingest.Repository, sources Sources, store *document.Store) *Ingester {
	return &Ingester{repo: repo, sources: sources, store: store}
}

// Handle is the jobx handler for ingest.JobIngest.
func (i *Ingester) Handle(ctx context.Context, job *jobx.JobInfo) error {
	var p ingest.JobPayload
	if err := json.Unmarshal(job.Payload, &p); err != nil {
		return ingest.ErrRegistry.NewWithCause(ingest.CodeFailed, err).WithDetail("job_id", job.ID)
	}

	d, err := i.repo.FindByID(ctx, p.DocumentID)
	if err != nil {
		return err
	}

	log := logx.WithFields(logx.Fields{
		"document_id": d.ID,
		"type":        d.Type,
		"job_id":      job.ID,
		"attempt":     job.Attempts,
	})

	start := time.Now()
	res, err := i.Ingest(ctx, d)
	if err != nil {
		log.WithError(err).Error("Document ingestion failed")
		if uerr := i.repo.UpdateStatus(ctx, d.ID, ingest.StatusFailed, err.Error()); uerr != nil {
			log.WithError(uerr).Warn("Could not mark document failed")
		}
		return ingest.ErrFailed(d.ID, err)
	}

	if err := i.repo.UpdateStatus(ctx, d.ID, ingest.StatusReady, ""); err != nil {
		return err
	}
	log.WithFields(logx.Fields{
		"loaded":   res.Loaded,
		"chunks":   res.Chunks,
		"duration": time.Since(start).String(),
	}).Info("Document ingested")
	return nil
}

// Ingest replaces the document's namespace with freshly embedded chunks.
func (i *Ingester) Ingest(ctx context.Context, d *ingest.Document) (*document.PipelineResult, error) {
	loader, split, err := i.sources.Loader(d)
	if err != nil {
		return nil, err
	}

	var splitter document.Splitter
	if split {
		if splitter, err = document.NewSplitter(document.SplitterConfig(d.Splitter)); err != nil {
			return nil, err
		}
	}

	// a retried job must not leave the chunks of an earlier attempt behind
	if err := i.store.DeleteNamespace(ctx, d.Namespace()); err != nil {
		return nil, err
	}

	p := document.NewPipeline(loader, splitter, i.store, d.Namespace()).
		WithMetadata("document_id", d.ID)
	if d.Type == ingest.TypeURL {
		p.WithMetadata(document.MetadataLanguage, "en")
	}
	return p.Run(ctx)
}
