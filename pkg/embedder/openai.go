package embedder

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIEmbedder implements Embedder over the OpenAI embeddings API, or
// any OpenAI-compatible endpoint reachable via a custom base URL.
type OpenAIEmbedder struct {
	client    *openai.LLM
	model     string
	dimension int
}

// NewOpenAIEmbedder builds an OpenAIEmbedder. apiKey authenticates
// against OpenAI or a compatible service; baseURL overrides the
// endpoint for compatible services (empty uses OpenAI directly); model
// names an embedding model (e.g. "text-embedding-3-large",
// "text-embedding-ada-002").
func NewOpenAIEmbedder(apiKey, baseURL, model string) (*OpenAIEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}

	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	dimension := getDimensionForOpenAIModel(model)

	return &OpenAIEmbedder{
		client:    client,
		model:     model,
		dimension: dimension,
	}, nil
}

// EmbedDocuments embeds a batch of texts, returning one vector per text
// in input order. No grafito code path calls it; db.vector.createIndex
// does not embed existing nodes.
func (o *OpenAIEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
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
func (o *OpenAIEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
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
func (o *OpenAIEmbedder) Dimension() int {
	return o.dimension
}

// getDimensionForOpenAIModel looks up the known output width for
// OpenAI's published embedding models; unrecognized models fall back to
// 1536, OpenAI's most common width.
func getDimensionForOpenAIModel(model string) int {
	switch model {
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small":
		return 1536
	case "text-embedding-ada-002":
		return 1536
	case "text-davinci-002":
		return 12288
	case "text-curie-001":
		return 4096
	default:
		return 1536
	}
}
