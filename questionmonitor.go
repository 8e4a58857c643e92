package questiongenerator

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// OptionQuality summarizes option text lengths across choice-type
// questions.
type OptionQuality struct {
	AverageLength  float64 `json:"average_length"`
	MinLength      int     `json:"min_length"`
	MaxLength      int     `json:"max_length"`
	LengthVariance float64 `json:"length_variance"`
}

// QualityBreakdown holds the four capped sub-scores behind an overall
// quality score.
type QualityBreakdown struct {
	LengthScore    float64 `json:"question_length_score"`
	OptionScore    float64 `json:"option_quality_score"`
	DiversityScore float64 `json:"diversity_score"`
	StructureScore float64 `json:"structure_score"`
}

// Quality is the result of analyzing a batch of questions: an overall
// 0-100 score, its breakdown, and improvement suggestions for any
// sub-score below its half-credit line.
type Quality struct {
	Overall               int                      `json:"overall_quality"`
	Breakdown             QualityBreakdown         `json:"quality_breakdown"`
	AverageQuestionLength float64                  `json:"average_question_length"`
	TypeDistribution      map[QuestionType]float64 `json:"question_type_distribution"`
	OptionQuality         *OptionQuality           `json:"option_quality,omitempty"`
	Suggestions           []string                 `json:"improvement_suggestions,omitempty"`
}

// questionOptions returns the options of choice-type questions.
func questionOptions(q Question) ([]Option, bool) {
	switch t := q.(type) {
	case *MultipleChoice:
		return t.Options, true
	case *MultipleSelection:
		return t.Options, true
	default:
		return nil, false
	}
}

// AnalyzeQuality computes the quality score for a batch of questions.
// The score is the sum of four sub-scores, each capped at 25 points:
// question length, option quality, type diversity, and structural
// validity.
func AnalyzeQuality(questions []Question) Quality {
	if len(questions) == 0 {
		return Quality{}
	}

	q := Quality{TypeDistribution: make(map[QuestionType]float64)}
	total := float64(len(questions))

	var lengthSum int
	for _, question := range questions {
		lengthSum += len(question.Text())
		q.TypeDistribution[question.Type()] += 1 / total
	}
	q.AverageQuestionLength = float64(lengthSum) / total

	// Length score: full credit for an average in [20, 200] chars,
	// tapering outside.
	avg := q.AverageQuestionLength
	switch {
	case avg < 20:
		q.Breakdown.LengthScore = avg / 20 * 25
	case avg > 200:
		q.Breakdown.LengthScore = math.Max(0, 25-(avg-200)/100*10)
	default:
		q.Breakdown.LengthScore = 25
	}

	// Option score: 15 for healthy option length plus up to 10 for
	// healthy length variance; non-choice batches get flat mid-range
	// credit.
	var optionLengths []int
	for _, question := range questions {
		if opts, ok := questionOptions(question); ok {
			for _, opt := range opts {
				optionLengths = append(optionLengths, len(opt.Text))
			}
		}
	}
	if len(optionLengths) > 0 {
		oq := optionStats(optionLengths)
		q.OptionQuality = &oq

		var lengthScore float64
		switch {
		case oq.AverageLength < 5:
			lengthScore = oq.AverageLength / 5 * 15
		case oq.AverageLength > 100:
			lengthScore = math.Max(0, 15-(oq.AverageLength-100)/50*5)
		default:
			lengthScore = 15
		}

		var varianceScore float64
		switch {
		case oq.LengthVariance < 5:
			varianceScore = oq.LengthVariance / 5 * 10
		case oq.LengthVariance > 500:
			varianceScore = math.Max(0, 10-(oq.LengthVariance-500)/500*5)
		default:
			varianceScore = 10
		}
		q.Breakdown.OptionScore = lengthScore + varianceScore

		short := 0
		for _, l := range optionLengths {
			if l < 5 {
				short++
			}
		}
		if short > 0 {
			q.Suggestions = append(q.Suggestions, fmt.Sprintf(
				"Found %d very short options (less than 5 characters). Consider making options more descriptive.", short))
		}
	} else {
		q.Breakdown.OptionScore = 15
	}

	// Diversity score: proportional to distinct question types.
	q.Breakdown.DiversityScore = math.Min(25, float64(len(q.TypeDistribution))*6.25)

	// Structure score: fraction of structurally valid questions.
	valid := 0
	for _, question := range questions {
		if question.Valid() {
			valid++
		}
	}
	q.Breakdown.StructureScore = float64(valid) / total * 25

	score := q.Breakdown.LengthScore + q.Breakdown.OptionScore +
		q.Breakdown.DiversityScore + q.Breakdown.StructureScore
	q.Overall = int(math.Round(score))

	q.Suggestions = append(q.Suggestions, qualitySuggestions(q)...)
	return q
}

func optionStats(lengths []int) OptionQuality {
	oq := OptionQuality{MinLength: lengths[0], MaxLength: lengths[0]}
	var sum float64
	for _, l := range lengths {
		sum += float64(l)
		if l < oq.MinLength {
			oq.MinLength = l
		}
		if l > oq.MaxLength {
			oq.MaxLength = l
		}
	}
	oq.AverageLength = sum / float64(len(lengths))
	if len(lengths) > 1 {
		var sq float64
		for _, l := range lengths {
			d := float64(l) - oq.AverageLength
			sq += d * d
		}
		oq.LengthVariance = sq / float64(len(lengths))
	}
	return oq
}

// qualitySuggestions emits advice for every sub-score under its
// half-credit line.
func qualitySuggestions(q Quality) []string {
	var suggestions []string
	if q.Overall < 60 {
		suggestions = append(suggestions,
			"Overall quality is low. Consider reviewing the question generation parameters and prompts.")
	}
	if q.Breakdown.LengthScore < 12.5 {
		if q.AverageQuestionLength < 20 {
			suggestions = append(suggestions,
				"Questions are too short. Consider adjusting prompts to generate more detailed questions.")
		} else {
			suggestions = append(suggestions,
				"Questions are too long. Consider adjusting prompts to generate more concise questions.")
		}
	}
	if q.Breakdown.OptionScore < 12.5 {
		suggestions = append(suggestions,
			"Option quality could be improved. Ensure options are descriptive and have appropriate length.")
	}
	if q.Breakdown.DiversityScore < 12.5 {
		suggestions = append(suggestions,
			"Question type diversity is low. Consider generating a mix of different question types.")
	}
	if q.Breakdown.StructureScore < 12.5 {
		suggestions = append(suggestions,
			"Some questions have structural issues. Check for missing options or answers.")
	}
	return suggestions
}

// BatchMetrics are the per-generation numbers logged with each run.
type BatchMetrics struct {
	QuestionCount             int          `json:"question_count"`
	QuestionType              QuestionType `json:"question_type"`
	Difficulty                string       `json:"difficulty"`
	Language                  string       `json:"language"`
	GenerationSuccessRate     float64      `json:"generation_success_rate"`
	FilterPassRate            float64      `json:"filter_pass_rate"`
	AverageQuestionLength     float64      `json:"average_question_length"`
	MinQuestionLength         int          `json:"min_question_length"`
	MaxQuestionLength         int          `json:"max_question_length"`
	AverageOptionsPerQuestion float64      `json:"average_options_per_question"`
}

// Metrics is the process-wide accumulator: cumulative counts plus
// moving averages weighted by batch size. Created once at monitor
// start and never reset except by process restart.
type Metrics struct {
	TotalQuestionsGenerated   int                  `json:"total_questions_generated"`
	QuestionsByType           map[QuestionType]int `json:"questions_by_type"`
	QuestionsByDifficulty     map[string]int       `json:"questions_by_difficulty"`
	QuestionsByLanguage       map[string]int       `json:"questions_by_language"`
	AverageQuestionLength     float64              `json:"average_question_length"`
	AverageOptionsPerQuestion float64              `json:"average_options_per_question"`
	GenerationSuccessRate     float64              `json:"generation_success_rate"`
	FilterPassRate            float64              `json:"filter_pass_rate"`
}

// LogRecord is one persisted quality log entry.
type LogRecord struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  Metadata        `json:"metadata"`
	Questions json.RawMessage `json:"questions"`
	Metrics   BatchMetrics    `json:"metrics"`
}

// QuestionMonitor accumulates corpus-wide metrics and writes one JSON
// log record per generation run. All mutation goes through the mutex:
// concurrent pipelines may share one monitor.
type QuestionMonitor struct {
	mu      sync.Mutex
	logDir  string
	metrics Metrics
}

// NewQuestionMonitor creates a monitor writing log records to logDir.
func NewQuestionMonitor(logDir string) (*QuestionMonitor, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return &QuestionMonitor{
		logDir: logDir,
		metrics: Metrics{
			QuestionsByType:       make(map[QuestionType]int),
			QuestionsByDifficulty: make(map[string]int),
			QuestionsByLanguage:   make(map[string]int),
		},
	}, nil
}

// computeBatchMetrics derives the per-run numbers from the final
// questions and the run metadata.
func computeBatchMetrics(questions []Question, meta Metadata) BatchMetrics {
	bm := BatchMetrics{
		QuestionCount: len(questions),
		QuestionType:  meta.QuestionType,
		Difficulty:    meta.Difficulty,
		Language:      meta.Language,
	}
	if meta.RequestedCount > 0 {
		bm.GenerationSuccessRate = float64(len(questions)) / float64(meta.RequestedCount)
	}
	if meta.GeneratedCount > 0 {
		bm.FilterPassRate = float64(len(questions)) / float64(meta.GeneratedCount)
	}
	if len(questions) == 0 {
		return bm
	}

	bm.MinQuestionLength = len(questions[0].Text())
	var lengthSum, optionSum int
	for _, q := range questions {
		l := len(q.Text())
		lengthSum += l
		if l < bm.MinQuestionLength {
			bm.MinQuestionLength = l
		}
		if l > bm.MaxQuestionLength {
			bm.MaxQuestionLength = l
		}
		if opts, ok := questionOptions(q); ok {
			optionSum += len(opts)
		}
	}
	bm.AverageQuestionLength = float64(lengthSum) / float64(len(questions))
	bm.AverageOptionsPerQuestion = float64(optionSum) / float64(len(questions))
	return bm
}

// LogGeneration writes one JSON log record for a generation run and
// folds its metrics into the running accumulator. Returns the log file
// path.
func (qmon *QuestionMonitor) LogGeneration(questions []Question, meta Metadata) (string, error) {
	batch := computeBatchMetrics(questions, meta)

	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return "", fmt.Errorf("failed to marshal questions: %w", err)
	}
	record := LogRecord{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Metadata:  meta,
		Questions: questionsJSON,
		Metrics:   batch,
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal log record: %w", err)
	}

	filename := fmt.Sprintf("questions_%s_%s.json",
		record.Timestamp.Format("20060102_150405"), record.ID[:8])
	path := filepath.Join(qmon.logDir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write log record: %w", err)
	}

	qmon.record(batch)
	return path, nil
}

// record folds one batch into the running metrics. The moving averages
// are weighted by batch size, so the update must be serialized.
func (qmon *QuestionMonitor) record(batch BatchMetrics) {
	qmon.mu.Lock()
	defer qmon.mu.Unlock()

	count := batch.QuestionCount
	qmon.metrics.TotalQuestionsGenerated += count
	qmon.metrics.QuestionsByType[batch.QuestionType] += count
	qmon.metrics.QuestionsByDifficulty[batch.Difficulty] += count
	qmon.metrics.QuestionsByLanguage[batch.Language] += count

	if count == 0 {
		return
	}
	total := qmon.metrics.TotalQuestionsGenerated
	prevTotal := total - count
	update := func(prev, value float64) float64 {
		if prevTotal == 0 {
			return value
		}
		return (prev*float64(prevTotal) + value*float64(count)) / float64(total)
	}
	qmon.metrics.AverageQuestionLength = update(qmon.metrics.AverageQuestionLength, batch.AverageQuestionLength)
	qmon.metrics.AverageOptionsPerQuestion = update(qmon.metrics.AverageOptionsPerQuestion, batch.AverageOptionsPerQuestion)
	qmon.metrics.GenerationSuccessRate = update(qmon.metrics.GenerationSuccessRate, batch.GenerationSuccessRate)
	qmon.metrics.FilterPassRate = update(qmon.metrics.FilterPassRate, batch.FilterPassRate)
}

// Snapshot returns a copy of the current metrics.
func (qmon *QuestionMonitor) Snapshot() Metrics {
	qmon.mu.Lock()
	defer qmon.mu.Unlock()

	m := qmon.metrics
	m.QuestionsByType = make(map[QuestionType]int, len(qmon.metrics.QuestionsByType))
	for k, v := range qmon.metrics.QuestionsByType {
		m.QuestionsByType[k] = v
	}
	m.QuestionsByDifficulty = make(map[string]int, len(qmon.metrics.QuestionsByDifficulty))
	for k, v := range qmon.metrics.QuestionsByDifficulty {
		m.QuestionsByDifficulty[k] = v
	}
	m.QuestionsByLanguage = make(map[string]int, len(qmon.metrics.QuestionsByLanguage))
	for k, v := range qmon.metrics.QuestionsByLanguage {
		m.QuestionsByLanguage[k] = v
	}
	return m
}

// RecentLogs loads up to limit of the newest log records.
func (qmon *QuestionMonitor) RecentLogs(limit int) ([]LogRecord, error) {
	entries, err := os.ReadDir(qmon.logDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read log directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "questions_") && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if limit > 0 && len(names) > limit {
		names = names[:limit]
	}

	var records []LogRecord
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(qmon.logDir, name))
		if err != nil {
			VerboseLog("Skipping unreadable log file %s: %v", name, err)
			continue
		}
		var record LogRecord
		if err := json.Unmarshal(data, &record); err != nil {
			VerboseLog("Skipping malformed log file %s: %v", name, err)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}
