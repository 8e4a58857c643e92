package questiongenerator

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// DB stores generated question sets.
type DB struct {
	db *sql.DB
}

// StoredSet is one persisted generation run.
type StoredSet struct {
	ID             string       `json:"id"`
	SourceFile     string       `json:"source_file"`
	Topic          string       `json:"topic"`
	QuestionType   QuestionType `json:"question_type"`
	Difficulty     string       `json:"difficulty"`
	Language       string       `json:"language"`
	RequestedCount int          `json:"requested_count"`
	GeneratedCount int          `json:"generated_count"`
	FilteredCount  int          `json:"filtered_count"`
	QualityScore   int          `json:"quality_score"`
	CreatedAt      time.Time    `json:"created_at"`
}

// OpenDB opens a question set database.
func OpenDB(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// CreateTables creates the schema if it does not exist.
func (d *DB) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS question_sets (
			id TEXT PRIMARY KEY,
			source_file TEXT,
			topic TEXT,
			question_type TEXT NOT NULL,
			difficulty TEXT NOT NULL,
			language TEXT NOT NULL,
			requested_count INTEGER NOT NULL,
			generated_count INTEGER NOT NULL,
			filtered_count INTEGER NOT NULL,
			quality_score INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			set_id TEXT NOT NULL,
			question_num INTEGER NOT NULL,
			question_type TEXT NOT NULL,
			body TEXT NOT NULL,
			FOREIGN KEY (set_id) REFERENCES question_sets(id)
		)`,
	}
	for _, query := range queries {
		if _, err := d.db.Exec(query); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	return nil
}

// SaveResult persists a generation result as one question set and
// returns the new set's ID.
func (d *DB) SaveResult(result *GenerationResult) (string, error) {
	setID := uuid.NewString()
	qualityScore := 0
	if result.Quality != nil {
		qualityScore = result.Quality.Overall
	}

	tx, err := d.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	meta := result.Metadata
	_, err = tx.Exec(
		`INSERT INTO question_sets
		 (id, source_file, topic, question_type, difficulty, language,
		  requested_count, generated_count, filtered_count, quality_score, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		setID, meta.SourceFile, meta.Topic, meta.QuestionType, meta.Difficulty, meta.Language,
		meta.RequestedCount, meta.GeneratedCount, meta.FilteredCount, qualityScore, meta.Timestamp,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert question set: %w", err)
	}

	for i, q := range result.Questions {
		body, err := json.Marshal(q)
		if err != nil {
			return "", fmt.Errorf("failed to marshal question %d: %w", i+1, err)
		}
		_, err = tx.Exec(
			"INSERT INTO questions (id, set_id, question_num, question_type, body) VALUES (?, ?, ?, ?, ?)",
			uuid.NewString(), setID, i+1, q.Type(), string(body),
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert question %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit question set: %w", err)
	}
	return setID, nil
}

const setColumns = `id, source_file, topic, question_type, difficulty, language,
	requested_count, generated_count, filtered_count, quality_score, created_at`

func scanSet(row interface{ Scan(...interface{}) error }) (*StoredSet, error) {
	var s StoredSet
	err := row.Scan(&s.ID, &s.SourceFile, &s.Topic, &s.QuestionType, &s.Difficulty, &s.Language,
		&s.RequestedCount, &s.GeneratedCount, &s.FilteredCount, &s.QualityScore, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetSet retrieves a question set by ID.
func (d *DB) GetSet(id string) (*StoredSet, error) {
	row := d.db.QueryRow("SELECT "+setColumns+" FROM question_sets WHERE id = ?", id)
	s, err := scanSet(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("question set not found: %s", id)
		}
		return nil, fmt.Errorf("failed to get question set: %w", err)
	}
	return s, nil
}

// ListSets retrieves stored sets, newest first, optionally limited.
func (d *DB) ListSets(limit int) ([]StoredSet, error) {
	query := "SELECT " + setColumns + " FROM question_sets ORDER BY created_at DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list question sets: %w", err)
	}
	defer rows.Close()

	var sets []StoredSet
	for rows.Next() {
		s, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question set: %w", err)
		}
		sets = append(sets, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating question sets: %w", err)
	}
	return sets, nil
}

// GetQuestions restores a set's questions into their concrete types.
func (d *DB) GetQuestions(setID string) ([]Question, error) {
	rows, err := d.db.Query(
		"SELECT question_type, body FROM questions WHERE set_id = ? ORDER BY question_num",
		setID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	var questions []Question
	for rows.Next() {
		var kind QuestionType
		var body string
		if err := rows.Scan(&kind, &body); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		q, err := UnmarshalQuestion(kind, []byte(body))
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}
