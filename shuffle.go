package tipotest

import (
	"math/rand"
	"time"
)

// ShuffleQuestions returns a fresh Fisher-Yates permutation of questions.
// The input slice is not modified. Every fetch of a module produces a new
// permutation; callers must not assume a stable order across calls.
func ShuffleQuestions(questions []Question) []Question {
	shuffled := make([]Question, len(questions))
	copy(shuffled, questions)

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
