package tipotest

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// DefaultExplanation is stored when an uploaded question carries none.
const DefaultExplanation = "No explanation available."

// Question is a single multiple choice question belonging to a module.
type Question struct {
	ID          string   `json:"id"`
	ModuleName  string   `json:"moduleName"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Correct     int      `json:"correct"` // 0-based index into Options
	Explanation string   `json:"explanation"`
}

// Validate checks the presence rules for an uploaded question.
func (q *Question) Validate() error {
	if q.ModuleName == "" {
		return Validationf("question is missing moduleName")
	}
	if q.Question == "" {
		return Validationf("question text is required")
	}
	if len(q.Options) < 2 {
		return Validationf("question %q needs at least 2 options", q.Question)
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return Validationf("question %q has correct index %d outside its %d options", q.Question, q.Correct, len(q.Options))
	}
	return nil
}

// Normalize assigns a fresh ID and fills defaulted fields before storage.
func (q *Question) Normalize() {
	q.ID = uuid.NewString()
	if q.Explanation == "" {
		q.Explanation = DefaultExplanation
	}
}

// Score records one submitted quiz attempt. Immutable after creation.
type Score struct {
	ID             string    `json:"id"`
	ModuleName     string    `json:"moduleName"`
	UserName       string    `json:"userName"`
	Date           time.Time `json:"date"`
	CorrectCount   int       `json:"correctCount"`
	IncorrectCount int       `json:"incorrectCount"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     float64   `json:"percentage"`
}

// NewScore builds a Score from the raw counts a client reports. Totals and
// percentage are always recomputed here, never trusted from the client.
func NewScore(moduleName, userName string, correctCount, incorrectCount int) (*Score, error) {
	if correctCount < 0 || incorrectCount < 0 {
		return nil, Validationf("counts must be non-negative")
	}
	total := correctCount + incorrectCount
	if total == 0 {
		return nil, Validationf("at least one question must be answered")
	}
	if userName == "" {
		userName = "Anonymous"
	}
	return &Score{
		ID:             uuid.NewString(),
		ModuleName:     moduleName,
		UserName:       userName,
		Date:           time.Now().UTC(),
		CorrectCount:   correctCount,
		IncorrectCount: incorrectCount,
		TotalQuestions: total,
		Percentage:     RoundPercentage(100 * float64(correctCount) / float64(total)),
	}, nil
}

// RoundPercentage rounds to 2 decimal places.
func RoundPercentage(p float64) float64 {
	return math.Round(p*100) / 100
}

// ReportStatus is the moderation state of a question report.
type ReportStatus string

const (
	ReportPending  ReportStatus = "pending"
	ReportReviewed ReportStatus = "reviewed"
	ReportDeleted  ReportStatus = "deleted"
)

// Report flags a question for moderation. The schema is stored and cleaned
// up on module deletion, but no endpoint creates or resolves reports yet.
type Report struct {
	ID          string       `json:"id"`
	QuestionID  string       `json:"questionId"`
	ModuleName  string       `json:"moduleName"`
	Reason      string       `json:"reason"`
	Status      ReportStatus `json:"status"`
	ReportCount int          `json:"reportCount"`
	Date        time.Time    `json:"date"`
}
