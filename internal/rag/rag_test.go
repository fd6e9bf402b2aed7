package rag

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMergesParagraphsWithOverlap(t *testing.T) {
	a := strings.Repeat("a", 200)
	b := strings.Repeat("b", 200)
	c := strings.Repeat("c", 40)
	d := strings.Repeat("d", 300)
	text := strings.Join([]string{a, b, c, d}, "\n\n")

	chunks := Split(text, 500, 50)
	require.Len(t, chunks, 2)
	assert.Equal(t, a+"\n\n"+b+"\n\n"+c, chunks[0])
	assert.Equal(t, c+"\n\n"+d, chunks[1])
}

func TestSplitOversizedParagraphStandsAlone(t *testing.T) {
	big := strings.Repeat("x", 800)
	chunks := Split("intro\n\n"+big+"\n\noutro", 500, 50)
	require.Len(t, chunks, 3)
	assert.Equal(t, "intro", chunks[0])
	assert.Equal(t, big, chunks[1])
	assert.Equal(t, "outro", chunks[2])
}

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, Split("  \n\n  ", 500, 50))
}

type fakeEmbedder struct{ calls [][]string }

func (f *fakeEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	f.calls = append(f.calls, texts)
	out := make([][]float64, len(texts))
	for i := range texts {
		out[i] = []float64{float64(i), 1, 0}
	}
	return out, nil
}

type fakePoints struct {
	exists   bool
	deleted  bool
	created  *qdrant.CreateCollection
	upserted *qdrant.UpsertPoints
	queried  *qdrant.QueryPoints
	results  []*qdrant.ScoredPoint
}

func (f *fakePoints) CollectionExists(context.Context, string) (bool, error) { return f.exists, nil }
func (f *fakePoints) DeleteCollection(context.Context, string) error {
	f.deleted = true
	return nil
}
func (f *fakePoints) CreateCollection(_ context.Context, r *qdrant.CreateCollection) error {
	f.created = r
	return nil
}
func (f *fakePoints) Upsert(_ context.Context, r *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.upserted = r
	return &qdrant.UpdateResult{}, nil
}
func (f *fakePoints) Query(_ context.Context, r *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.queried = r
	return f.results, nil
}

func TestRebuildRecreatesCollection(t *testing.T) {
	points := &fakePoints{exists: true}
	docs := &fakeEmbedder{}
	ix := NewIndex(points, "return_policy", &fakeEmbedder{}, docs)

	n, err := ix.Rebuild(context.Background(), "data/return_policy.txt", "Returns within 7 days.\n\nRefunds in 5 days.", 500, 50)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, points.deleted)
	require.NotNil(t, points.created)
	assert.Equal(t, "return_policy", points.created.GetCollectionName())
	require.NotNil(t, points.upserted)
	require.Len(t, points.upserted.GetPoints(), 1)

	payload := points.upserted.GetPoints()[0].GetPayload()
	assert.Equal(t, "return_policy.txt", payload["source"].GetStringValue())
	assert.Equal(t, int64(0), payload["chunk"].GetIntegerValue())
	assert.Contains(t, payload["text"].GetStringValue(), "Refunds")
}

func TestSearchMapsPayload(t *testing.T) {
	points := &fakePoints{results: []*qdrant.ScoredPoint{
		{Score: 0.9, Payload: qdrant.NewValueMap(map[string]any{"text": "30 day window", "chunk": 3, "source": "return_policy.txt"})},
		{Score: 0.5, Payload: qdrant.NewValueMap(map[string]any{"text": "no chunk key"})},
	}}
	ix := NewIndex(points, "return_policy", &fakeEmbedder{}, &fakeEmbedder{})

	hits, err := ix.Search(context.Background(), "how long to return", 6)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, 3, hits[0].Chunk)
	assert.Equal(t, "30 day window", hits[0].Text)
	assert.Equal(t, 1, hits[1].Chunk)
	assert.Equal(t, uint64(6), points.queried.GetLimit())
}

func TestExistsReportsCollection(t *testing.T) {
	ok, err := NewIndex(&fakePoints{exists: true}, "return_policy", nil, nil).Exists(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}
