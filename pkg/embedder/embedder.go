// Package embedder provides functionalities for creating vector embeddings of text.
package embedder

import (
	"context"
)

// Embedder is the interface any service that turns text into vector
// embeddings implements.
type Embedder interface {
	// EmbedDocuments embeds a batch of texts, returning one vector per
	// input text in the same order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a single query text; some models tune this path
	// slightly differently from EmbedDocuments.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension reports the width of the vectors this Embedder produces.
	// Vector index creation takes its dimension from the caller, not from
	// this method.
	Dimension() int
}
