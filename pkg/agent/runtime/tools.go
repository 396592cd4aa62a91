package runtime

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/ai/llm/toolx"
)

const DocumentSearchTool = "document_search"

const noDocuments = "No relevant documents found."

func documentSearch(r *document.Retriever) toolx.Tool {
	return toolx.Func{
		ToolName: DocumentSearchTool,
		Desc:     "Searches the documents attached to this agent. Use it for questions about their content.",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to look for",
				},
			},
			"required": []string{"query"},
		},
		Fn: func(ctx context.Context, arguments string) (string, error) {
			var args struct {
				Query string `json:"query"`
			}
			if err := json.Unmarshal([]byte(arguments), &args); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if strings.TrimSpace(args.Query) == "" {
				return "", fmt.Errorf("query is required")
			}
			return search(ctx, r, args.Query)
		},
	}
}

func search(ctx context.Context, r *document.Retriever, query string) (string, error) {
	docs, err := r.Retrieve(ctx, query)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return noDocuments, nil
	}
	return document.NewContextBuilder().Build(docs), nil
}
