package questiongenerator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrNoDocument is returned when generation is requested before any
// document has been processed.
var ErrNoDocument = errors.New("no document has been processed")

// Generator orchestrates the full pipeline: extract, chunk, index,
// plan sections, synthesize, filter, score, log.
type Generator struct {
	chunker   *Chunker
	extractor DocumentExtractor
	index     *ChunkIndex
	maker     *QuestionMaker
	checker   *QuestionChecker
	monitor   *QuestionMonitor

	fullText string
	docMeta  DocumentMetadata
}

// NewGenerator creates a generator backed by the OpenAI API.
func NewGenerator(apiKey string) *Generator {
	chunker := NewChunker(DefaultChunkSize, DefaultChunkOverlap)
	maker := NewQuestionMaker(apiKey)
	maker.SetTokenCounter(chunker.TokenCount)
	return &Generator{
		chunker: chunker,
		index:   NewChunkIndex(DefaultMaxFeatures),
		maker:   maker,
		checker: NewQuestionChecker(),
	}
}

// SetMonitor installs a metrics/logging monitor. Optional; without one
// runs are not logged.
func (g *Generator) SetMonitor(m *QuestionMonitor) { g.monitor = m }

// SetExtractor overrides extension-based extractor selection.
func (g *Generator) SetExtractor(e DocumentExtractor) { g.extractor = e }

// Maker exposes the synthesizer for configuration (model, pacing).
func (g *Generator) Maker() *QuestionMaker { return g.maker }

// Checker exposes the filter for configuration (threshold, fallback).
func (g *Generator) Checker() *QuestionChecker { return g.checker }

// Index exposes the chunk index (for persistence and ad-hoc search).
func (g *Generator) Index() *ChunkIndex { return g.index }

// ProcessDocument extracts, cleans, chunks, and indexes a document,
// preparing the generator for question synthesis.
func (g *Generator) ProcessDocument(path string) (DocumentMetadata, error) {
	extractor := g.extractor
	if extractor == nil {
		extractor = ExtractorFor(path)
	}
	text, meta, err := extractor.Extract(path)
	if err != nil {
		return DocumentMetadata{}, err
	}

	cleaned, chunks := g.chunker.Process(text)
	if err := g.index.Fit(chunks); err != nil {
		return DocumentMetadata{}, fmt.Errorf("failed to index %s: %w", meta.FileName, err)
	}

	g.fullText = cleaned
	g.docMeta = meta
	VerboseLog("Processed %s: %d chars, %d chunks, ~%d tokens",
		meta.FileName, len(cleaned), len(chunks), g.chunker.TokenCount(cleaned))
	return meta, nil
}

// ProcessText indexes already-extracted text, for callers that do not
// start from a file.
func (g *Generator) ProcessText(name, text string) error {
	cleaned, chunks := g.chunker.Process(text)
	if err := g.index.Fit(chunks); err != nil {
		return err
	}
	g.fullText = cleaned
	g.docMeta = DocumentMetadata{FileName: name, SizeBytes: int64(len(text))}
	return nil
}

// Generate runs question synthesis against the processed document. A
// request for N questions may legitimately yield fewer than N; the
// metadata reports requested vs. generated vs. filtered counts.
func (g *Generator) Generate(ctx context.Context, req GenerationRequest) (*GenerationResult, error) {
	if g.fullText == "" {
		return nil, ErrNoDocument
	}
	req = req.withDefaults()

	planner := NewSectionPlanner(g.index)
	sections := planner.Plan(g.fullText, req.Topic, req.NumQuestions)
	VerboseLog("Planned %d section(s) for %d %s questions", len(sections), req.NumQuestions, req.Type)

	generated, err := g.maker.Generate(ctx, sections, req)
	if err != nil {
		return nil, err
	}

	sourceContent := strings.Join(sections, " ")
	filtered := g.checker.Filter(generated, sourceContent)

	meta := Metadata{
		SourceFile:     g.docMeta.FileName,
		QuestionType:   req.Type,
		Topic:          req.Topic,
		Difficulty:     req.Difficulty,
		Language:       req.Language,
		RequestedCount: req.NumQuestions,
		GeneratedCount: len(generated),
		FilteredCount:  len(filtered),
		Timestamp:      time.Now(),
	}

	result := &GenerationResult{Questions: filtered, Metadata: meta}
	if len(filtered) > 0 {
		quality := AnalyzeQuality(filtered)
		result.Quality = &quality
	}

	if g.monitor != nil {
		if _, err := g.monitor.LogGeneration(filtered, meta); err != nil {
			// Logging failure never fails the run.
			log.Printf("Failed to write quality log: %v", err)
		}
	}
	return result, nil
}

// GenerateFromDocument processes a document and generates questions in
// one step.
func (g *Generator) GenerateFromDocument(ctx context.Context, path string, req GenerationRequest) (*GenerationResult, error) {
	if _, err := g.ProcessDocument(path); err != nil {
		return nil, err
	}
	return g.Generate(ctx, req)
}

// SaveIndex persists the fitted chunk index for later reuse.
func (g *Generator) SaveIndex(dir string) error {
	return g.index.Save(dir)
}

// LoadIndex replaces the generator's index with a persisted one.
func (g *Generator) LoadIndex(dir string) error {
	index, err := LoadChunkIndex(dir)
	if err != nil {
		return err
	}
	g.index = index
	return nil
}
