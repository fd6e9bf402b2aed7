package rag

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"google.golang.org/genai"
)

const (
	TaskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	TaskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// GeminiEmbedder implements embedding.Embedder over the Gemini embed endpoint.
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int32
	taskType   string
}

var _ embedding.Embedder = (*GeminiEmbedder)(nil)

func NewGeminiEmbedder(client *genai.Client, model string, dimensions int) *GeminiEmbedder {
	return &GeminiEmbedder{
		client:     client,
		model:      model,
		dimensions: int32(dimensions),
		taskType:   TaskRetrievalDocument,
	}
}

// ForTask returns a copy bound to the given Gemini task type.
func (e *GeminiEmbedder) ForTask(task string) *GeminiEmbedder {
	cp := *e
	cp.taskType = task
	return &cp
}

func (e *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	cfg := &genai.EmbedContentConfig{TaskType: e.taskType}
	if e.dimensions > 0 {
		cfg.OutputDimensionality = genai.Ptr(e.dimensions)
	}
	resp, err := e.client.Models.EmbedContent(ctx, e.model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed content: got %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}
