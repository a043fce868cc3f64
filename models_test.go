package tipotest

import "testing"

func TestNewScore(t *testing.T) {
	score, err := NewScore("Algebra", "Ana", 2, 1)
	if err != nil {
		t.Fatalf("NewScore: %v", err)
	}

	if score.TotalQuestions != 3 {
		t.Errorf("TotalQuestions = %d, want 3", score.TotalQuestions)
	}
	if score.Percentage != 66.67 {
		t.Errorf("Percentage = %v, want 66.67", score.Percentage)
	}
	if score.ID == "" {
		t.Error("score did not get an ID")
	}
	if score.Date.IsZero() {
		t.Error("score did not get a server-assigned date")
	}
}

func TestNewScoreDefaultsUserName(t *testing.T) {
	score, err := NewScore("Algebra", "", 1, 0)
	if err != nil {
		t.Fatalf("NewScore: %v", err)
	}
	if score.UserName != "Anonymous" {
		t.Errorf("UserName = %q, want Anonymous", score.UserName)
	}
}

func TestNewScoreRejections(t *testing.T) {
	tests := []struct {
		name               string
		correct, incorrect int
	}{
		{"both zero", 0, 0},
		{"negative correct", -1, 3},
		{"negative incorrect", 3, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScore("Algebra", "Ana", tt.correct, tt.incorrect); err == nil {
				t.Fatal("expected a validation error")
			} else if !IsValidation(err) {
				t.Errorf("error %v is not a ValidationError", err)
			}
		})
	}
}

func TestNewScoreAllWrong(t *testing.T) {
	score, err := NewScore("Algebra", "Ana", 0, 5)
	if err != nil {
		t.Fatalf("NewScore: %v", err)
	}
	if score.Percentage != 0 {
		t.Errorf("Percentage = %v, want 0", score.Percentage)
	}
}

func TestQuestionValidate(t *testing.T) {
	valid := Question{
		ModuleName: "Algebra",
		Question:   "2+2?",
		Options:    []string{"3", "4"},
		Correct:    1,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid question rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(q *Question)
	}{
		{"missing module", func(q *Question) { q.ModuleName = "" }},
		{"missing text", func(q *Question) { q.Question = "" }},
		{"one option", func(q *Question) { q.Options = []string{"4"} }},
		{"correct too big", func(q *Question) { q.Correct = 2 }},
		{"correct negative", func(q *Question) { q.Correct = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := valid
			q.Options = append([]string(nil), valid.Options...)
			tt.mutate(&q)
			err := q.Validate()
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !IsValidation(err) {
				t.Errorf("error %v is not a ValidationError", err)
			}
		})
	}
}

func TestQuestionNormalize(t *testing.T) {
	q := Question{ModuleName: "Algebra", Question: "2+2?", Options: []string{"3", "4"}, Correct: 1}
	q.Normalize()

	if q.ID == "" {
		t.Error("Normalize did not assign an ID")
	}
	if q.Explanation != DefaultExplanation {
		t.Errorf("Explanation = %q, want the placeholder", q.Explanation)
	}

	withExplanation := Question{ModuleName: "Algebra", Question: "2+2?", Options: []string{"3", "4"}, Correct: 1, Explanation: "Basic sum."}
	withExplanation.Normalize()
	if withExplanation.Explanation != "Basic sum." {
		t.Error("Normalize overwrote a provided explanation")
	}
}

func TestRoundPercentage(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{100 * 2.0 / 3.0, 66.67},
		{100 * 1.0 / 3.0, 33.33},
		{50, 50},
		{0, 0},
	}
	for _, tt := range tests {
		if got := RoundPercentage(tt.in); got != tt.want {
			t.Errorf("RoundPercentage(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
