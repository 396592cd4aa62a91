package document

import (
	"context"
	"encoding/json"
)

// PsychicURL is the Psychic document sync endpoint.
var PsychicURL = "https://api.psychic.dev/get-documents"

// PsychicLoader pulls the documents a user synced through a Psychic
// connector.
type PsychicLoader struct {
	fetcher     Fetcher
	secretKey   string
	connectorID string
	accountID   string
}

func NewPsychicLoader(fetcher Fetcher, secretKey, connectorID, accountID string) *PsychicLoader {
	return &PsychicLoader{fetcher: fetcher, secretKey: secretKey, connectorID: connectorID, accountID: accountID}
}

type psychicResponse struct {
	Documents []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
		URI     string `json:"uri"`
	} `json:"documents"`
}

func (l *PsychicLoader) Load(ctx context.Context) ([]*Document, error) {
	if l.connectorID == "" {
		return nil, ErrRegistry.New(ErrInvalidSource).WithDetail("reason", "missing connectorId")
	}

	body, err := l.fetcher.PostJSON(ctx, PsychicURL,
		map[string]string{"Authorization": "Bearer " + l.secretKey},
		map[string]string{"connector_id": l.connectorID, "account_id": l.accountID},
	)
	if err != nil {
		return nil, err
	}

	var resp psychicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, ErrRegistry.NewWithCause(ErrParseFailed, err).WithDetail("connector_id", l.connectorID)
	}

	docs := make([]*Document, 0, len(resp.Documents))
	for _, d := range resp.Documents {
		docs = append(docs, NewDocument(d.Content).
			WithMetadata(MetadataTitle, d.Title).
			WithMetadata(MetadataSource, d.URI))
	}
	return docs, nil
}
