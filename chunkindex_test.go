package questiongenerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var aiCorpus = []string{
	"Machine learning is a subset of artificial intelligence.",
	"Neural networks are inspired by the structure of the human brain.",
	"Deep learning uses neural networks with many hidden layers.",
	"Supervised learning requires labeled training data.",
	"Unsupervised learning finds patterns without labeled examples.",
	"Reinforcement learning optimizes actions through rewards.",
	"Natural language processing helps computers understand text.",
	"Computer vision enables machines to interpret images.",
	"Gradient descent minimizes the loss function during training.",
	"Overfitting happens when a model memorizes training data.",
}

func TestChunkIndexFitAndSearch(t *testing.T) {
	index := NewChunkIndex(0)
	require.NoError(t, index.Fit(aiCorpus))
	assert.True(t, index.Fitted())
	assert.Equal(t, len(aiCorpus), index.NumChunks())

	chunks, scores, err := index.Search("neural networks", 3)
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	require.Len(t, scores, 3)

	// Scores are cosine similarities, sorted descending.
	for i, s := range scores {
		assert.GreaterOrEqual(t, s, -1e-9)
		assert.LessOrEqual(t, s, 1+1e-9)
		if i > 0 {
			assert.LessOrEqual(t, s, scores[i-1])
		}
	}

	// The two sentences mentioning neural networks outrank the rest.
	assert.ElementsMatch(t, []string{aiCorpus[1], aiCorpus[2]}, chunks[:2])
	assert.Greater(t, scores[1], scores[2])
}

func TestChunkIndexSearchClampsK(t *testing.T) {
	index := NewChunkIndex(0)
	require.NoError(t, index.Fit(aiCorpus[:3]))

	chunks, _, err := index.Search("learning", 10)
	require.NoError(t, err)
	assert.Len(t, chunks, 3)
}

func TestChunkIndexUnknownQueryTerms(t *testing.T) {
	index := NewChunkIndex(0)
	require.NoError(t, index.Fit(aiCorpus))

	// Out-of-vocabulary queries still return k results, all scored zero.
	chunks, scores, err := index.Search("zzzzxq wvvkj", 2)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Zero(t, scores[0])
	assert.Zero(t, scores[1])
	// Ties keep original chunk order.
	assert.Equal(t, aiCorpus[0], chunks[0])
	assert.Equal(t, aiCorpus[1], chunks[1])
}

func TestChunkIndexErrors(t *testing.T) {
	index := NewChunkIndex(0)

	_, _, err := index.Search("anything", 3)
	assert.ErrorIs(t, err, ErrNotFitted)

	assert.ErrorIs(t, index.Fit(nil), ErrEmptyCorpus)
	assert.ErrorIs(t, index.Save(t.TempDir()), ErrNotFitted)
}

func TestChunkIndexMaxFeaturesCap(t *testing.T) {
	index := NewChunkIndex(5)
	require.NoError(t, index.Fit(aiCorpus))

	// With a tiny vocabulary the index still ranks what it kept.
	chunks, _, err := index.Search("learning", 1)
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestChunkIndexSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	index := NewChunkIndex(0)
	require.NoError(t, index.Fit(aiCorpus))
	require.NoError(t, index.Save(dir))

	loaded, err := LoadChunkIndex(dir)
	require.NoError(t, err)
	assert.True(t, loaded.Fitted())
	assert.Equal(t, index.NumChunks(), loaded.NumChunks())

	wantChunks, wantScores, err := index.Search("deep learning layers", 4)
	require.NoError(t, err)
	gotChunks, gotScores, err := loaded.Search("deep learning layers", 4)
	require.NoError(t, err)

	assert.Equal(t, wantChunks, gotChunks)
	require.Len(t, gotScores, len(wantScores))
	for i := range wantScores {
		assert.InDelta(t, wantScores[i], gotScores[i], 1e-12)
	}
}

func TestLoadChunkIndexMissing(t *testing.T) {
	_, err := LoadChunkIndex("/nonexistent/index/dir")
	assert.ErrorIs(t, err, ErrIndexNotFound)

	// Directory exists but artifacts are missing.
	_, err = LoadChunkIndex(t.TempDir())
	assert.ErrorIs(t, err, ErrIndexNotFound)
}

func TestCombineChunks(t *testing.T) {
	chunks := []string{"first chunk", "second chunk", "third chunk"}

	combined := CombineChunks(chunks, 1000)
	assert.Equal(t, "first chunk\n\nsecond chunk\n\nthird chunk", combined)

	// Chunks that would exceed the bound are dropped.
	combined = CombineChunks(chunks, 25)
	assert.Equal(t, "first chunk\n\nsecond chunk", combined)

	// The first chunk is always kept, even oversized.
	combined = CombineChunks(chunks, 3)
	assert.Equal(t, "first chunk", combined)

	assert.Empty(t, CombineChunks(nil, 100))
}

func TestRetrieveForTopic(t *testing.T) {
	index := NewChunkIndex(0)
	require.NoError(t, index.Fit(aiCorpus))

	content, err := index.RetrieveForTopic("neural networks", 3, 4000)
	require.NoError(t, err)
	assert.Contains(t, content, "Neural networks")
	assert.LessOrEqual(t, len(content), 4000)
}
