package main

import (
	"flag"
	"fmt"
	"log"

	"questiongenerator"
)

func main() {
	var (
		document    = flag.String("document", "", "Document to build an index from")
		indexDir    = flag.String("index", "", "Index directory (required)")
		query       = flag.String("query", "", "Query an existing index instead of building one")
		topK        = flag.Int("k", 5, "Number of chunks to retrieve for a query")
		chunkSize   = flag.Int("chunk-size", questiongenerator.DefaultChunkSize, "Target chunk size in characters")
		overlap     = flag.Int("overlap", questiongenerator.DefaultChunkOverlap, "Chunk overlap in characters")
		maxFeatures = flag.Int("max-features", questiongenerator.DefaultMaxFeatures, "Vocabulary size cap")
		verbose     = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	flag.Parse()

	questiongenerator.SetVerbose(*verbose)

	if *indexDir == "" {
		log.Fatal("Index directory is required. Use -index flag.")
	}

	if *query != "" {
		runQuery(*indexDir, *query, *topK)
		return
	}

	if *document == "" {
		log.Fatal("Either -document (build) or -query (search) is required.")
	}

	extractor := questiongenerator.ExtractorFor(*document)
	text, meta, err := extractor.Extract(*document)
	if err != nil {
		log.Fatalf("Failed to extract %s: %v", *document, err)
	}

	chunker := questiongenerator.NewChunker(*chunkSize, *overlap)
	_, chunks := chunker.Process(text)

	index := questiongenerator.NewChunkIndex(*maxFeatures)
	if err := index.Fit(chunks); err != nil {
		log.Fatalf("Failed to build index: %v", err)
	}
	if err := index.Save(*indexDir); err != nil {
		log.Fatalf("Failed to save index: %v", err)
	}

	log.Printf("Indexed %s: %d pages, %d chunks -> %s",
		meta.FileName, meta.PageCount, len(chunks), *indexDir)
}

func runQuery(indexDir, query string, k int) {
	index, err := questiongenerator.LoadChunkIndex(indexDir)
	if err != nil {
		log.Fatalf("Failed to load index: %v", err)
	}

	chunks, scores, err := index.Search(query, k)
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}

	fmt.Printf("Top %d chunks for %q:\n\n", len(chunks), query)
	for i, chunk := range chunks {
		if len(chunk) > 200 {
			chunk = chunk[:200] + "..."
		}
		fmt.Printf("%d. [score %.4f]\n%s\n\n", i+1, scores[i], chunk)
	}
}
