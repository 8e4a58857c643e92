package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"questiongenerator"

	"github.com/joho/godotenv"
)

func main() {
	var (
		document     = flag.String("document", "", "Path to the source document (required)")
		questionType = flag.String("type", "multiple_choice", "Question type (multiple_choice, multiple_selection, true_false, short_answer)")
		numQuestions = flag.Int("questions", 10, "Number of questions to generate")
		topic        = flag.String("topic", "", "Topic to focus retrieval on")
		difficulty   = flag.String("difficulty", "medium", "Difficulty level (low, medium, high)")
		language     = flag.String("language", "English", "Language to generate questions in")
		temperature  = flag.Float64("temperature", 0.7, "Sampling temperature")
		outputFile   = flag.String("output", "", "Output file for result JSON (default: stdout)")
		dbPath       = flag.String("db", "", "SQLite database to store the question set in")
		logDir       = flag.String("log-dir", "", "Directory for quality log records")
		model        = flag.String("model", "", "Override the generation model")
		apiKey       = flag.String("api-key", "", "OpenAI API key (or set OPENAI_API_KEY env var)")
		verbose      = flag.Bool("verbose", false, "Enable verbose debugging output")
	)

	// A .env file is optional; real environments set variables directly.
	godotenv.Load()
	flag.Parse()

	questiongenerator.SetVerbose(*verbose)

	if *document == "" {
		log.Fatal("Document is required. Use -document flag.")
	}
	if *apiKey == "" {
		*apiKey = os.Getenv("OPENAI_API_KEY")
		if *apiKey == "" {
			log.Fatal("OpenAI API key is required. Use -api-key flag or set OPENAI_API_KEY environment variable.")
		}
	}

	generator := questiongenerator.NewGenerator(*apiKey)
	if *model != "" {
		generator.Maker().SetModel(*model)
	}
	if *logDir != "" {
		monitor, err := questiongenerator.NewQuestionMonitor(*logDir)
		if err != nil {
			log.Fatalf("Failed to create monitor: %v", err)
		}
		generator.SetMonitor(monitor)
	}

	req := questiongenerator.GenerationRequest{
		Type:         questiongenerator.QuestionType(*questionType),
		NumQuestions: *numQuestions,
		Topic:        *topic,
		Difficulty:   *difficulty,
		Language:     *language,
		Temperature:  float32(*temperature),
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	result, err := generator.GenerateFromDocument(ctx, *document, req)
	if err != nil {
		log.Fatalf("Failed to generate questions: %v", err)
	}

	if *dbPath != "" {
		db, err := questiongenerator.OpenDB(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()
		if err := db.CreateTables(); err != nil {
			log.Fatalf("Failed to create tables: %v", err)
		}
		setID, err := db.SaveResult(result)
		if err != nil {
			log.Fatalf("Failed to store question set: %v", err)
		}
		log.Printf("Question set stored as %s", setID)
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}
	if *outputFile != "" {
		if err := os.WriteFile(*outputFile, output, 0644); err != nil {
			log.Fatalf("Failed to write output file: %v", err)
		}
		log.Printf("Result saved to: %s", *outputFile)
	} else {
		fmt.Println(string(output))
	}

	meta := result.Metadata
	log.Printf("Generated %d/%d questions (%d before filtering)",
		meta.FilteredCount, meta.RequestedCount, meta.GeneratedCount)
}
