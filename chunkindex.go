package questiongenerator

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxFeatures caps the vocabulary of a chunk index.
const DefaultMaxFeatures = 5000

// Artifact names for a persisted index. All three are required by Load.
const (
	vectorizerFile = "vectorizer.json"
	chunksFile     = "chunks.json"
	indexFile      = "index.json"
)

var tokenPattern = regexp.MustCompile(`[a-z0-9]{2,}`)

// englishStopWords are excluded from the vocabulary.
var englishStopWords = map[string]bool{
	"a": true, "about": true, "above": true, "after": true, "again": true,
	"all": true, "also": true, "am": true, "an": true, "and": true,
	"any": true, "are": true, "as": true, "at": true, "be": true,
	"because": true, "been": true, "before": true, "being": true,
	"below": true, "between": true, "both": true, "but": true, "by": true,
	"can": true, "could": true, "did": true, "do": true, "does": true,
	"doing": true, "down": true, "during": true, "each": true, "few": true,
	"for": true, "from": true, "further": true, "had": true, "has": true,
	"have": true, "having": true, "he": true, "her": true, "here": true,
	"hers": true, "him": true, "his": true, "how": true, "i": true,
	"if": true, "in": true, "into": true, "is": true, "it": true,
	"its": true, "just": true, "me": true, "more": true, "most": true,
	"my": true, "no": true, "nor": true, "not": true, "now": true,
	"of": true, "off": true, "on": true, "once": true, "only": true,
	"or": true, "other": true, "our": true, "out": true, "over": true,
	"own": true, "same": true, "she": true, "should": true, "so": true,
	"some": true, "such": true, "than": true, "that": true, "the": true,
	"their": true, "theirs": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true,
	"those": true, "through": true, "to": true, "too": true, "under": true,
	"until": true, "up": true, "very": true, "was": true, "we": true,
	"were": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "who": true, "whom": true, "why": true, "will": true,
	"with": true, "would": true, "you": true, "your": true, "yours": true,
}

// sparseVector is an L2-normalized term-weight vector.
type sparseVector struct {
	Terms   []int     `json:"terms"`
	Weights []float64 `json:"weights"`
}

// ChunkIndex is a TF-IDF vector space over text chunks supporting
// cosine-similarity search. Fit, Save and Load require exclusive
// access; a fitted index is immutable and safe for concurrent Search.
type ChunkIndex struct {
	maxFeatures int
	vocabulary  map[string]int
	idf         []float64
	vectors     []sparseVector
	chunks      []string
	fitted      bool
}

// NewChunkIndex creates an unfitted index. maxFeatures <= 0 selects
// the default vocabulary cap.
func NewChunkIndex(maxFeatures int) *ChunkIndex {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &ChunkIndex{maxFeatures: maxFeatures}
}

// Fitted reports whether the index has been built.
func (ci *ChunkIndex) Fitted() bool { return ci.fitted }

// NumChunks returns the size of the indexed corpus.
func (ci *ChunkIndex) NumChunks() int { return len(ci.chunks) }

// tokenize lowercases text and emits unigrams plus bigrams over the
// non-stop-word token stream.
func tokenize(text string) []string {
	words := tokenPattern.FindAllString(strings.ToLower(text), -1)
	kept := words[:0]
	for _, w := range words {
		if !englishStopWords[w] {
			kept = append(kept, w)
		}
	}
	terms := make([]string, 0, 2*len(kept))
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// Fit builds the vector space over the chunks. Re-fitting replaces the
// whole space and invalidates previously issued ranks.
func (ci *ChunkIndex) Fit(chunks []string) error {
	if len(chunks) == 0 {
		return ErrEmptyCorpus
	}

	tokenized := make([][]string, len(chunks))
	corpusCount := make(map[string]int)
	docCount := make(map[string]int)
	for i, chunk := range chunks {
		terms := tokenize(chunk)
		tokenized[i] = terms
		seen := make(map[string]bool, len(terms))
		for _, t := range terms {
			corpusCount[t]++
			if !seen[t] {
				seen[t] = true
				docCount[t]++
			}
		}
	}

	// Keep the maxFeatures most frequent terms, ties by term order.
	terms := make([]string, 0, len(corpusCount))
	for t := range corpusCount {
		terms = append(terms, t)
	}
	sort.Slice(terms, func(i, j int) bool {
		if corpusCount[terms[i]] != corpusCount[terms[j]] {
			return corpusCount[terms[i]] > corpusCount[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > ci.maxFeatures {
		terms = terms[:ci.maxFeatures]
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	n := float64(len(chunks))
	for col, t := range terms {
		vocabulary[t] = col
		idf[col] = math.Log((1+n)/(1+float64(docCount[t]))) + 1
	}

	ci.vocabulary = vocabulary
	ci.idf = idf
	ci.chunks = append([]string(nil), chunks...)
	ci.vectors = make([]sparseVector, len(chunks))
	for i, terms := range tokenized {
		ci.vectors[i] = ci.vectorize(terms)
	}
	ci.fitted = true
	return nil
}

// vectorize builds the normalized TF-IDF vector for a token stream.
// Out-of-vocabulary terms contribute nothing.
func (ci *ChunkIndex) vectorize(terms []string) sparseVector {
	counts := make(map[int]float64)
	for _, t := range terms {
		if col, ok := ci.vocabulary[t]; ok {
			counts[col]++
		}
	}

	cols := make([]int, 0, len(counts))
	for col := range counts {
		cols = append(cols, col)
	}
	sort.Ints(cols)

	vec := sparseVector{
		Terms:   cols,
		Weights: make([]float64, len(cols)),
	}
	var norm float64
	for i, col := range cols {
		w := counts[col] * ci.idf[col]
		vec.Weights[i] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec.Weights {
			vec.Weights[i] /= norm
		}
	}
	return vec
}

func dot(a, b sparseVector) float64 {
	var sum float64
	i, j := 0, 0
	for i < len(a.Terms) && j < len(b.Terms) {
		switch {
		case a.Terms[i] == b.Terms[j]:
			sum += a.Weights[i] * b.Weights[j]
			i++
			j++
		case a.Terms[i] < b.Terms[j]:
			i++
		default:
			j++
		}
	}
	return sum
}

// Search returns up to k chunks ranked by descending cosine similarity
// to the query, ties broken by original chunk order. k is clamped to
// the corpus size.
func (ci *ChunkIndex) Search(query string, k int) ([]string, []float64, error) {
	if !ci.fitted {
		return nil, nil, ErrNotFitted
	}
	if k > len(ci.chunks) {
		k = len(ci.chunks)
	}
	if k <= 0 {
		return nil, nil, nil
	}

	queryVec := ci.vectorize(tokenize(query))

	scores := make([]float64, len(ci.vectors))
	order := make([]int, len(ci.vectors))
	for i, vec := range ci.vectors {
		scores[i] = dot(queryVec, vec)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	retrieved := make([]string, k)
	topScores := make([]float64, k)
	for i := 0; i < k; i++ {
		retrieved[i] = ci.chunks[order[i]]
		topScores[i] = scores[order[i]]
	}
	return retrieved, topScores, nil
}

// CombineChunks joins chunks with a blank line up to maxLength. Later
// chunks are dropped once the bound would be exceeded.
func CombineChunks(chunks []string, maxLength int) string {
	if len(chunks) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(chunks[0])
	for _, chunk := range chunks[1:] {
		if sb.Len()+len(chunk) > maxLength {
			break
		}
		sb.WriteString("\n\n")
		sb.WriteString(chunk)
	}
	return sb.String()
}

// RetrieveForTopic searches for the topic and combines the results
// into one bounded text block.
func (ci *ChunkIndex) RetrieveForTopic(topic string, k, maxLength int) (string, error) {
	chunks, _, err := ci.Search(topic, k)
	if err != nil {
		return "", err
	}
	return CombineChunks(chunks, maxLength), nil
}

// vectorizerState is the persisted vocabulary+weights artifact.
type vectorizerState struct {
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// Save writes the fitted index to dir as three artifacts: the
// vectorizer state, the verbatim chunk list, and the weight vectors.
func (ci *ChunkIndex) Save(dir string) error {
	if !ci.fitted {
		return ErrNotFitted
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	state := vectorizerState{
		MaxFeatures: ci.maxFeatures,
		Vocabulary:  ci.vocabulary,
		IDF:         ci.idf,
	}
	if err := writeJSON(filepath.Join(dir, vectorizerFile), state); err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(dir, chunksFile), ci.chunks); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, indexFile), ci.vectors)
}

// LoadChunkIndex restores a persisted index from dir. A missing
// directory or artifact fails with ErrIndexNotFound.
func LoadChunkIndex(dir string) (*ChunkIndex, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, dir)
	}
	var state vectorizerState
	if err := readJSON(filepath.Join(dir, vectorizerFile), &state); err != nil {
		return nil, err
	}
	ci := NewChunkIndex(state.MaxFeatures)
	ci.vocabulary = state.Vocabulary
	ci.idf = state.IDF
	if err := readJSON(filepath.Join(dir, chunksFile), &ci.chunks); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(dir, indexFile), &ci.vectors); err != nil {
		return nil, err
	}
	ci.fitted = true
	return ci, nil
}

func writeJSON(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: missing %s", ErrIndexNotFound, filepath.Base(path))
		}
		return fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
