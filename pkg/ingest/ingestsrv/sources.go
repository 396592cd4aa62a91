package ingestsrv

import (
	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/ingest"
)

// Sources builds the loader for each document type.
type Sources struct {
	Fetcher document.Fetcher
	// ConnectFirestore opens FIRESTORE sources with each document's own
	// service account key. Nil means document.ConnectFirestore.
	ConnectFirestore document.FirestoreConnector
	PsychicSecretKey string
}

// Loader returns the loader for d and whether its output is split.
func (s Sources) Loader(d *ingest.Document) (document.Loader, bool, error) {
	switch d.Type {
	case ingest.TypeTXT:
		return document.NewTextLoader(s.Fetcher, d.URL), true, nil
	case ingest.TypePDF:
		from, to := d.PageRange()
		return document.NewPDFLoader(s.Fetcher, d.URL, from, to), true, nil
	case ingest.TypeURL:
		return document.NewURLLoader(s.Fetcher, d.URL), true, nil
	case ingest.TypeYouTube:
		return document.NewYouTubeLoader(s.Fetcher, d.URL), true, nil
	case ingest.TypeMarkdown:
		return document.NewMarkdownLoader(s.Fetcher, d.URL), true, nil
	case ingest.TypePsychic:
		return document.NewPsychicLoader(s.Fetcher, s.PsychicSecretKey, d.Metadata.Lookup(ingest.MetaConnectorID), d.UserID.String()), true, nil
	case ingest.TypeFirestore:
		src, err := document.NewServiceAccountSource(s.ConnectFirestore, d.Authorization)
		if err != nil {
			return nil, false, err
		}
		return document.NewFirestoreLoader(src, d.Metadata.Lookup(ingest.MetaCollection)), false, nil
	default:
		return nil, false, ingest.ErrUnsupportedType(string(d.Type))
	}
}
