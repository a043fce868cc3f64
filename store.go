package tipotest

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store persists questions, scores and reports in sqlite.
type Store struct {
	db *sql.DB
}

// OpenStore opens the database at dbPath and verifies the connection.
func OpenStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateTables creates the necessary tables if they don't exist.
func (s *Store) CreateTables() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS questions (
			id TEXT PRIMARY KEY,
			module_name TEXT NOT NULL,
			question TEXT NOT NULL,
			options TEXT NOT NULL,
			correct INTEGER NOT NULL,
			explanation TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_module ON questions(module_name)`,
		`CREATE TABLE IF NOT EXISTS scores (
			id TEXT PRIMARY KEY,
			module_name TEXT NOT NULL,
			user_name TEXT NOT NULL,
			date DATETIME NOT NULL,
			correct_count INTEGER NOT NULL,
			incorrect_count INTEGER NOT NULL,
			total_questions INTEGER NOT NULL,
			percentage REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id TEXT PRIMARY KEY,
			question_id TEXT NOT NULL,
			module_name TEXT NOT NULL,
			reason TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			report_count INTEGER NOT NULL DEFAULT 1,
			date DATETIME NOT NULL,
			FOREIGN KEY (question_id) REFERENCES questions(id)
		)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute %s: %w", query, err)
		}
	}
	return nil
}

// ListModules returns the distinct module names present among questions.
func (s *Store) ListModules(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT module_name FROM questions")
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	defer rows.Close()

	modules := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan module name: %w", err)
		}
		modules = append(modules, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modules: %w", err)
	}
	return modules, nil
}

// ReplaceModule deletes every existing question for moduleName and inserts
// the supplied ones, inside a single transaction so a crash cannot leave the
// module half replaced. Returns the inserted count.
func (s *Store) ReplaceModule(ctx context.Context, moduleName string, questions []Question) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM questions WHERE module_name = ?", moduleName); err != nil {
		return 0, fmt.Errorf("failed to delete existing questions: %w", err)
	}

	for i := range questions {
		q := &questions[i]
		optionsJSON, err := OptionsToJSON(q.Options)
		if err != nil {
			return 0, err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO questions (id, module_name, question, options, correct, explanation) VALUES (?, ?, ?, ?, ?, ?)",
			q.ID, q.ModuleName, q.Question, optionsJSON, q.Correct, q.Explanation,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit module replace: %w", err)
	}
	return len(questions), nil
}

// DeleteModule removes all questions, scores and reports for moduleName.
// Deleting a module that does not exist is a no-op.
func (s *Store) DeleteModule(ctx context.Context, moduleName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"questions", "scores", "reports"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE module_name = ?", moduleName); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit module delete: %w", err)
	}
	return nil
}

// QuestionsForModule retrieves all questions for a module, in storage order.
func (s *Store) QuestionsForModule(ctx context.Context, moduleName string) ([]Question, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, module_name, question, options, correct, explanation FROM questions WHERE module_name = ?",
		moduleName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	defer rows.Close()

	return scanQuestions(rows)
}

// QuestionsByID retrieves the given questions, returned in the order of ids.
// IDs that no longer exist are skipped.
func (s *Store) QuestionsByID(ctx context.Context, ids []string) ([]Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, module_name, question, options, correct, explanation FROM questions WHERE id IN ("+placeholders+")",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions by id: %w", err)
	}
	defer rows.Close()

	found, err := scanQuestions(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]Question, len(found))
	for _, q := range found {
		byID[q.ID] = q
	}

	ordered := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// InsertScore persists a new score record.
func (s *Store) InsertScore(ctx context.Context, score *Score) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO scores (id, module_name, user_name, date, correct_count, incorrect_count, total_questions, percentage) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		score.ID, score.ModuleName, score.UserName, score.Date.Format(time.RFC3339), score.CorrectCount, score.IncorrectCount, score.TotalQuestions, score.Percentage,
	)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// ListScores retrieves all score records. No order is guaranteed.
func (s *Store) ListScores(ctx context.Context) ([]Score, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, module_name, user_name, date, correct_count, incorrect_count, total_questions, percentage FROM scores",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	defer rows.Close()

	scores := []Score{}
	for rows.Next() {
		var sc Score
		var date string
		err := rows.Scan(&sc.ID, &sc.ModuleName, &sc.UserName, &date, &sc.CorrectCount, &sc.IncorrectCount, &sc.TotalQuestions, &sc.Percentage)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		if sc.Date, err = time.Parse(time.RFC3339, date); err != nil {
			return nil, fmt.Errorf("failed to parse score date: %w", err)
		}
		scores = append(scores, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}
	return scores, nil
}

func scanQuestions(rows *sql.Rows) ([]Question, error) {
	var questions []Question
	for rows.Next() {
		var q Question
		var optionsJSON string
		err := rows.Scan(&q.ID, &q.ModuleName, &q.Question, &optionsJSON, &q.Correct, &q.Explanation)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		if q.Options, err = JSONToOptions(optionsJSON); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}

// OptionsToJSON converts an options slice to its stored JSON form.
func OptionsToJSON(options []string) (string, error) {
	data, err := json.Marshal(options)
	if err != nil {
		return "", fmt.Errorf("failed to marshal options: %w", err)
	}
	return string(data), nil
}

// JSONToOptions converts the stored JSON form back to an options slice.
func JSONToOptions(optionsJSON string) ([]string, error) {
	var options []string
	if err := json.Unmarshal([]byte(optionsJSON), &options); err != nil {
		return nil, fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return options, nil
}
