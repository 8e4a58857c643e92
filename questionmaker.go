package questiongenerator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Batch caps per question type: one request never asks for more than
// this many questions, keeping responses inside the completion budget.
var batchSizes = map[QuestionType]int{
	TypeMultipleChoice:    10,
	TypeMultipleSelection: 8,
	TypeTrueFalse:         15,
	TypeShortAnswer:       12,
}

const (
	defaultBatchSize    = 10
	maxCompletionTokens = 4096

	// defaultPacing spaces successive batches to stay inside external
	// rate limits.
	defaultPacing = time.Second
)

// chatClient is the one generation-service call the maker needs.
// *openai.Client satisfies it; tests substitute canned responses.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// QuestionMaker drives the generation service in batches and
// accumulates unique questions across sections.
type QuestionMaker struct {
	client      chatClient
	model       string
	pacing      time.Duration
	countTokens func(string) int
}

// NewQuestionMaker creates a question maker backed by the OpenAI API.
func NewQuestionMaker(apiKey string) *QuestionMaker {
	return &QuestionMaker{
		client: openai.NewClient(apiKey),
		model:  openai.GPT4o,
		pacing: defaultPacing,
	}
}

// SetModel overrides the model identifier sent with every request.
func (qm *QuestionMaker) SetModel(model string) { qm.model = model }

// SetPacing overrides the inter-batch delay. Zero disables pacing;
// tests use that to run synchronously.
func (qm *QuestionMaker) SetPacing(d time.Duration) { qm.pacing = d }

// SetTokenCounter installs an estimator used for diagnostics only.
func (qm *QuestionMaker) SetTokenCounter(fn func(string) int) { qm.countTokens = fn }

// Generate synthesizes up to req.NumQuestions questions from the given
// content sections. Questions are globally unique by exact text and
// the result is truncated to the requested count. Service failures
// degrade: a failure on the very first batch falls back to mock
// questions, later failures return whatever has accumulated. The
// returned error is only for structural problems (unknown type).
func (qm *QuestionMaker) Generate(ctx context.Context, sections []string, req GenerationRequest) ([]Question, error) {
	if _, ok := systemPrompts[req.Type]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, req.Type)
	}
	req = req.withDefaults()

	total := req.NumQuestions
	if total <= 0 || len(sections) == 0 {
		return nil, nil
	}

	perSection := (total + len(sections) - 1) / len(sections)
	batchCap := batchSizes[req.Type]
	if batchCap == 0 {
		batchCap = defaultBatchSize
	}

	seen := make(map[string]bool)
	var all []Question
	firstBatch := true

sections:
	for _, section := range sections {
		numBatches := (perSection + batchCap - 1) / batchCap
		remaining := perSection

		for batchNum := 0; batchNum < numBatches; batchNum++ {
			if ctx.Err() != nil {
				break sections
			}

			batchCount := remaining
			if batchCount > batchCap {
				batchCount = batchCap
			}

			VerboseLog("Generating batch %d: %d %s questions", batchNum, batchCount, req.Type)
			batch, err := qm.generateBatch(ctx, section, req, batchCount, batchNum)
			if err != nil {
				if firstBatch {
					// Service unavailable before anything was
					// produced: deterministic mock fallback.
					log.Printf("Generation service unavailable, using mock questions: %v", err)
					mocks := total
					if mocks > 10 {
						mocks = 10
					}
					all = mockQuestions(req.Type, mocks, req.Topic)
					break sections
				}
				log.Printf("Batch %d failed, keeping %d questions generated so far: %v", batchNum, len(all), err)
				break sections
			}
			firstBatch = false

			// Global exact-text dedup; duplicates do not count toward
			// the remaining quota.
			for _, q := range batch {
				if seen[q.Text()] {
					continue
				}
				seen[q.Text()] = true
				all = append(all, q)
				remaining--
			}

			if len(all) >= total {
				break sections
			}
			if remaining <= 0 {
				break
			}
			if batchNum < numBatches-1 && qm.pacing > 0 {
				select {
				case <-ctx.Done():
					break sections
				case <-time.After(qm.pacing):
				}
			}
		}
	}

	if len(all) > total {
		all = all[:total]
	}
	return all, nil
}

// generateBatch issues a single request and parses its raw text.
func (qm *QuestionMaker) generateBatch(ctx context.Context, section string, req GenerationRequest, count, batchNum int) ([]Question, error) {
	systemPrompt, err := SystemPrompt(req.Type, promptParams{
		NumQuestions: count,
		Difficulty:   req.Difficulty,
		Language:     req.Language,
		Topic:        req.Topic,
	})
	if err != nil {
		return nil, err
	}
	user := userPrompt(count, req.Type, section)

	if qm.countTokens != nil {
		VerboseLog("Batch %d prompt: ~%d tokens", batchNum, qm.countTokens(systemPrompt)+qm.countTokens(user))
	}

	resp, err := qm.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: qm.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: req.Temperature,
		MaxTokens:   maxCompletionTokens,
	})
	if err != nil {
		return nil, &GenerationServiceError{Batch: batchNum, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &GenerationServiceError{Batch: batchNum, Err: errors.New("no choices in response")}
	}

	return ParseQuestions(resp.Choices[0].Message.Content, req.Type)
}

// mockQuestions produces deterministic placeholder records of the
// requested type, used when the service is unreachable from the start.
func mockQuestions(questionType QuestionType, count int, topic string) []Question {
	if topic == "" {
		topic = "general"
	}
	letters := []string{"A", "B", "C", "D", "E"}
	questions := make([]Question, 0, count)

	for i := 1; i <= count; i++ {
		switch questionType {
		case TypeMultipleChoice:
			q := &MultipleChoice{
				Prompt: fmt.Sprintf("Sample multiple choice question %d about %s", i, topic),
				Answer: "A",
			}
			for _, l := range letters[:4] {
				q.Options = append(q.Options, Option{Letter: l, Text: fmt.Sprintf("Option %s for question %d", l, i)})
			}
			questions = append(questions, q)
		case TypeMultipleSelection:
			q := &MultipleSelection{
				Prompt:  fmt.Sprintf("Sample multiple selection question %d about %s", i, topic),
				Answers: []string{"A", "C"},
			}
			for _, l := range letters {
				q.Options = append(q.Options, Option{Letter: l, Text: fmt.Sprintf("Option %s for question %d", l, i)})
			}
			questions = append(questions, q)
		case TypeTrueFalse:
			questions = append(questions, &TrueFalse{
				Prompt: fmt.Sprintf("Sample true/false statement %d about %s", i, topic),
				Answer: "True",
			})
		case TypeShortAnswer:
			questions = append(questions, &ShortAnswer{
				Prompt:      fmt.Sprintf("Sample short answer question %d about %s", i, topic),
				ModelAnswer: fmt.Sprintf("This is a sample answer for question %d about %s.", i, topic),
			})
		}
	}
	return questions
}
