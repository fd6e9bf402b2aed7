package rag

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/qdrant/go-client/qdrant"

	errx "github.com/retail-assistant/server/internal/core/error"
	logx "github.com/retail-assistant/server/pkg/logger"
)

// Hit is one retrieved policy chunk.
type Hit struct {
	Chunk  int
	Text   string
	Source string
	Score  float32
}

// PointStore is the subset of *qdrant.Client the index uses.
type PointStore interface {
	CollectionExists(ctx context.Context, collectionName string) (bool, error)
	DeleteCollection(ctx context.Context, collectionName string) error
	CreateCollection(ctx context.Context, request *qdrant.CreateCollection) error
	Upsert(ctx context.Context, request *qdrant.UpsertPoints) (*qdrant.UpdateResult, error)
	Query(ctx context.Context, request *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error)
}

// Index is a single flat qdrant collection of policy chunks.
type Index struct {
	points     PointStore
	collection string
	query      embedding.Embedder
	documents  embedding.Embedder
}

func NewIndex(points PointStore, collection string, queryEmbedder, documentEmbedder embedding.Embedder) *Index {
	return &Index{
		points:     points,
		collection: collection,
		query:      queryEmbedder,
		documents:  documentEmbedder,
	}
}

// Exists reports whether the collection has been built.
func (ix *Index) Exists(ctx context.Context) (bool, error) {
	return ix.points.CollectionExists(ctx, ix.collection)
}

// Search returns the top k chunks for the query, best first.
func (ix *Index) Search(ctx context.Context, text string, k int) ([]Hit, error) {
	vecs, err := ix.query.EmbedStrings(ctx, []string{text})
	if err != nil {
		return nil, errx.WrapIndex(fmt.Errorf("embed query: %w", err))
	}
	if len(vecs) == 0 {
		return nil, errx.WrapIndex(fmt.Errorf("embed query: empty result"))
	}

	points, err := ix.points.Query(ctx, &qdrant.QueryPoints{
		CollectionName: ix.collection,
		Query:          qdrant.NewQuery(toFloat32(vecs[0])...),
		Limit:          qdrant.PtrOf(uint64(k)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, errx.WrapIndex(fmt.Errorf("qdrant query %s: %w", ix.collection, err))
	}

	hits := make([]Hit, 0, len(points))
	for i, p := range points {
		hits = append(hits, hitFromPoint(p, i))
	}
	return hits, nil
}

func hitFromPoint(p *qdrant.ScoredPoint, rank int) Hit {
	h := Hit{Chunk: rank, Score: p.GetScore()}
	payload := p.GetPayload()
	if v, ok := payload["text"]; ok {
		h.Text = v.GetStringValue()
	}
	if v, ok := payload["chunk"]; ok {
		h.Chunk = int(v.GetIntegerValue())
	}
	if v, ok := payload["source"]; ok {
		h.Source = v.GetStringValue()
	}
	return h
}

// Rebuild deletes and recreates the collection, then stores every chunk of the
// document at path.
func (ix *Index) Rebuild(ctx context.Context, path, text string, chunkSize, overlap int) (int, error) {
	chunks := Split(text, chunkSize, overlap)
	if len(chunks) == 0 {
		return 0, fmt.Errorf("no content to index in %s", path)
	}

	vecs, err := ix.documents.EmbedStrings(ctx, chunks)
	if err != nil {
		return 0, err
	}

	exists, err := ix.points.CollectionExists(ctx, ix.collection)
	if err != nil {
		return 0, fmt.Errorf("check collection %s: %w", ix.collection, err)
	}
	if exists {
		if err := ix.points.DeleteCollection(ctx, ix.collection); err != nil {
			return 0, fmt.Errorf("delete collection %s: %w", ix.collection, err)
		}
	}
	err = ix.points.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: ix.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(len(vecs[0])),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return 0, fmt.Errorf("create collection %s: %w", ix.collection, err)
	}

	source := filepath.Base(path)
	abs, _ := filepath.Abs(path)
	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, c := range chunks {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(uint64(i)),
			Vectors: qdrant.NewVectors(toFloat32(vecs[i])...),
			Payload: qdrant.NewValueMap(map[string]any{
				"text":   c,
				"chunk":  i,
				"source": source,
				"path":   abs,
			}),
		})
	}

	_, err = ix.points.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: ix.collection,
		Points:         points,
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, fmt.Errorf("qdrant upsert failed: %w", err)
	}

	logx.Info().
		Str("collection", ix.collection).
		Str("source", source).
		Int("chunks", len(points)).
		Msg("Policy index rebuilt")
	return len(points), nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, f := range v {
		out[i] = float32(f)
	}
	return out
}
