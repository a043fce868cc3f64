package tipotest

// NoAnswer marks a question slot that has not been answered yet.
const NoAnswer = -1

// QuizSession is the state of one quiz attempt. All mutations happen through
// its methods in response to discrete user events; there is no DOM and no
// I/O here, which keeps every transition unit testable.
type QuizSession struct {
	ModuleName string
	Questions  []Question
	Answers    []int  // selected option per question, NoAnswer when unset
	Correct    []bool // defined exactly for the answered slots
	Current    int
	ReviewMode bool
	Original   []Question // order of the first full attempt
	ScoreSaved bool
}

// NewQuizSession starts an attempt over the fetched questions. The sequence
// is shuffled again locally even though the server already shuffled it, and
// that shuffle is snapshotted as the original order for later review rounds.
func NewQuizSession(moduleName string, questions []Question) (*QuizSession, error) {
	if len(questions) == 0 {
		return nil, Validationf("cannot start a quiz with no questions")
	}

	s := &QuizSession{ModuleName: moduleName}
	s.reset(ShuffleQuestions(questions))
	s.Original = append([]Question(nil), s.Questions...)
	return s, nil
}

func (s *QuizSession) reset(questions []Question) {
	s.Questions = questions
	s.Answers = make([]int, len(questions))
	for i := range s.Answers {
		s.Answers[i] = NoAnswer
	}
	s.Correct = make([]bool, len(questions))
	s.Current = 0
	s.ScoreSaved = false
}

// Select records an answer for the current question. Only the first
// selection is scored; selecting again replays the recorded outcome without
// changing it. Returns whether the recorded answer is correct.
func (s *QuizSession) Select(option int) (bool, error) {
	q := s.Questions[s.Current]
	if option < 0 || option >= len(q.Options) {
		return false, Validationf("option %d is not one of the %d choices", option, len(q.Options))
	}
	if s.Answers[s.Current] == NoAnswer {
		s.Answers[s.Current] = option
		s.Correct[s.Current] = option == q.Correct
	}
	return s.Correct[s.Current], nil
}

// Answered reports whether question i has a recorded answer.
func (s *QuizSession) Answered(i int) bool {
	return s.Answers[i] != NoAnswer
}

// Advance moves to the next question, clamped at the last one.
func (s *QuizSession) Advance() {
	if s.Current < len(s.Questions)-1 {
		s.Current++
	}
}

// Retreat moves to the previous question, clamped at the first one.
func (s *QuizSession) Retreat() {
	if s.Current > 0 {
		s.Current--
	}
}

// Jump moves directly to question i, enabling out-of-order navigation.
// Indices outside the question range are clamped.
func (s *QuizSession) Jump(i int) {
	if i < 0 {
		i = 0
	}
	if i > len(s.Questions)-1 {
		i = len(s.Questions) - 1
	}
	s.Current = i
}

// OnLastQuestion reports whether the current question is the final one;
// submitting is only offered from there.
func (s *QuizSession) OnLastQuestion() bool {
	return s.Current == len(s.Questions)-1
}

// CorrectCount is the number of questions answered correctly so far.
func (s *QuizSession) CorrectCount() int {
	n := 0
	for _, ok := range s.Correct {
		if ok {
			n++
		}
	}
	return n
}

// Tier is the qualitative outcome bucket shown on the summary screen.
type Tier string

const (
	TierMastered    Tier = "mastered"
	TierProficient  Tier = "proficient"
	TierNeedsReview Tier = "needs review"
)

// TierFor buckets a percentage into its display tier.
func TierFor(percentage float64) Tier {
	switch {
	case percentage >= 90:
		return TierMastered
	case percentage >= 70:
		return TierProficient
	default:
		return TierNeedsReview
	}
}

// Summary is the outcome of a finished attempt.
type Summary struct {
	ModuleName     string
	CorrectCount   int
	IncorrectCount int
	TotalQuestions int
	Percentage     float64
	Tier           Tier
	FailedIndexes  []int // positions never answered correctly this attempt
}

// RetryOffered reports whether a review round should be offered.
func (sum Summary) RetryOffered() bool {
	return len(sum.FailedIndexes) > 0
}

// Summarize computes the final outcome from the recorded correct flags.
// Unanswered questions count as failed.
func (s *QuizSession) Summarize() Summary {
	correct := s.CorrectCount()
	total := len(s.Questions)

	failed := []int{}
	for i, ok := range s.Correct {
		if !ok {
			failed = append(failed, i)
		}
	}

	percentage := RoundPercentage(100 * float64(correct) / float64(total))
	return Summary{
		ModuleName:     s.ModuleName,
		CorrectCount:   correct,
		IncorrectCount: total - correct,
		TotalQuestions: total,
		Percentage:     percentage,
		Tier:           TierFor(percentage),
		FailedIndexes:  failed,
	}
}

// StartReview re-enters the quiz over the failed subset. Indices are
// resolved against the original-order snapshot, which stays untouched so
// repeated review rounds keep resolving against the first full attempt.
func (s *QuizSession) StartReview(failed []int) error {
	if len(failed) == 0 {
		return Validationf("no failed questions to review")
	}

	subset := make([]Question, 0, len(failed))
	for _, i := range failed {
		if i < 0 || i >= len(s.Original) {
			return Validationf("failed question index %d out of range", i)
		}
		subset = append(subset, s.Original[i])
	}

	s.reset(ShuffleQuestions(subset))
	s.ReviewMode = true
	return nil
}

// MarkScoreSaved records that this attempt's score has been persisted;
// the save action is one-shot per summary.
func (s *QuizSession) MarkScoreSaved() {
	s.ScoreSaved = true
}
