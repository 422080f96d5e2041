package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
)

// OllamaEmbedder implements Embedder over a local Ollama server.
// NewEmbedderFromConfig picks it over OpenAI whenever an Ollama URL is
// configured; db.vector.upsert reaches it through Manager.EmbedText when
// an index's embedding function names the embedder it is registered as.
type OllamaEmbedder struct {
	client    *ollama.LLM
	model     string
	dimension int
}

// NewOllamaEmbedder builds an OllamaEmbedder against an Ollama server.
// url is the server address (e.g. "http://localhost:11434"); model is
// an embedding model name (e.g. "nomic-embed-text", "mxbai-embed-large").
func NewOllamaEmbedder(url, model string) (*OllamaEmbedder, error) {
	if url == "" {
		return nil, fmt.Errorf("ollama URL is required")
	}
	if model == "" {
		return nil, fmt.Errorf("ollama model name is required")
	}

	client, err := ollama.New(
		ollama.WithServerURL(url),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	// Output dimension isn't reported by the Ollama API itself, so it's
	// looked up from the known dimensions of common embedding models.
	dimension := getDimensionForModel(model)

	return &OllamaEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
	}, nil
}

// EmbedDocuments embeds a batch of texts, returning one vector per text
// in input order. No grafito code path calls it; db.vector.createIndex
// does not embed existing nodes.
func (o *OllamaEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	emb, err := embeddings.NewEmbedder(o.client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	vectors, err := emb.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}

	// langchaingo returns float64; the vector index backends store
	// float32, so narrow here once rather than at every call site.
	result := make([][]float32, len(vectors))
	for i, v := range vectors {
		result[i] = make([]float32, len(v))
		for j, val := range v {
			result[i][j] = float32(val)
		}
	}

	return result, nil
}

// EmbedQuery embeds a single text, the path db.vector.upsert's text
// form and EmbedText both use to turn a single document into a vector.
func (o *OllamaEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	emb, err := embeddings.NewEmbedder(o.client)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	vector, err := emb.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	result := make([]float32, len(vector))
	for i, val := range vector {
		result[i] = float32(val)
	}

	return result, nil
}

// Dimension reports the output vector width expected for the model.
// vectorindex does not consult it: Upsert checks each vector's actual
// length against the index's configured Dimension.
func (o *OllamaEmbedder) Dimension() int {
	return o.dimension
}

// getDimensionForModel looks up the known output width for common
// embedding models; unrecognized models fall back to 768, the most
// common width among them.
func getDimensionForModel(model string) int {
	switch model {
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "all-minilm":
		return 384
	case "sentence-transformers/all-MiniLM-L6-v2":
		return 384
	case "sentence-transformers/all-mpnet-base-v2":
		return 768
	default:
		return 768
	}
}
