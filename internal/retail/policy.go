package retail

import (
	"context"
	"strings"

	"github.com/retail-assistant/server/internal/agent/graph/prompts"
	errx "github.com/retail-assistant/server/internal/core/error"
	logx "github.com/retail-assistant/server/pkg/logger"
)

// ReturnPolicy answers a policy question strictly from the top retrieved chunks.
// Found is false only when the index or model could not be consulted.
func (s *Service) ReturnPolicy(ctx context.Context, question string) PolicyAnswer {
	q := strings.TrimSpace(question)
	if s.policy == nil || s.llm == nil {
		return PolicyAnswer{Found: false, Question: q, Error: "policy index is not configured"}
	}

	hits, err := s.policy.Search(ctx, q, PolicyTopK)
	if err != nil {
		logx.Warn().Err(err).Msg("Policy search failed")
		return PolicyAnswer{Found: false, Question: q, Error: errx.IndexErrorMessage}
	}

	chunks := make([]prompts.PolicyChunk, 0, len(hits))
	for _, h := range hits {
		chunks = append(chunks, prompts.PolicyChunk{Index: h.Chunk, Text: h.Text})
	}
	msgs, err := prompts.RenderPolicy(ctx, q, chunks)
	if err != nil {
		logx.Error().Err(err).Msg("Policy prompt render failed")
		return PolicyAnswer{Found: false, Question: q, Error: errx.SystemErrorMessage}
	}

	resp, err := s.llm.Generate(ctx, msgs)
	if err != nil {
		logx.Warn().Err(err).Msg("Policy answer generation failed")
		return PolicyAnswer{Found: false, Question: q, Chunks: len(hits), Error: errx.LLMErrorMessage}
	}

	return PolicyAnswer{
		Found:    true,
		Question: q,
		Answer:   strings.TrimSpace(resp.Content),
		Chunks:   len(hits),
	}
}
