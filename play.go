package tipotest

import (
	"encoding/gob"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
)

const playSessionName = "tipotest-play"

// playState is the compact attempt snapshot kept in the cookie session.
// Only question IDs travel in the cookie; the questions themselves are
// rehydrated from storage on every request. The encoded state still has
// to fit securecookie's 4096-byte cookie limit, which caps an attempt
// at roughly 40 questions.
type playState struct {
	ModuleName string
	Order      []string
	Original   []string
	Answers    []int
	Correct    []bool
	Current    int
	ReviewMode bool
	ScoreSaved bool
}

func init() {
	gob.Register(playState{})
}

func questionIDs(questions []Question) []string {
	ids := make([]string, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func (s *Server) loadPlaySession(r *http.Request) (*QuizSession, bool) {
	session, _ := s.sessions.Get(r, playSessionName)
	stateInterface := session.Values["play"]
	if stateInterface == nil {
		return nil, false
	}
	state, ok := stateInterface.(playState)
	if !ok {
		return nil, false
	}

	questions, err := s.storage.QuestionsByID(r.Context(), state.Order)
	if err != nil || len(questions) != len(state.Order) {
		// Module changed under the attempt; the session is stale.
		return nil, false
	}
	original, err := s.storage.QuestionsByID(r.Context(), state.Original)
	if err != nil || len(original) != len(state.Original) {
		return nil, false
	}

	return &QuizSession{
		ModuleName: state.ModuleName,
		Questions:  questions,
		Answers:    state.Answers,
		Correct:    state.Correct,
		Current:    state.Current,
		ReviewMode: state.ReviewMode,
		Original:   original,
		ScoreSaved: state.ScoreSaved,
	}, true
}

func (s *Server) savePlaySession(w http.ResponseWriter, r *http.Request, quiz *QuizSession) error {
	session, _ := s.sessions.Get(r, playSessionName)
	session.Values["play"] = playState{
		ModuleName: quiz.ModuleName,
		Order:      questionIDs(quiz.Questions),
		Original:   questionIDs(quiz.Original),
		Answers:    quiz.Answers,
		Correct:    quiz.Correct,
		Current:    quiz.Current,
		ReviewMode: quiz.ReviewMode,
		ScoreSaved: quiz.ScoreSaved,
	}
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save play session: %w", err)
	}
	return nil
}

func playPath(moduleName string, parts ...string) string {
	path := "/play/" + url.PathEscape(moduleName)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

// handleModuleSelection renders the list of modules to pick from.
func (s *Server) handleModuleSelection(w http.ResponseWriter, r *http.Request) {
	modules, err := s.storage.ListModules(r.Context())
	if err != nil {
		s.internalError(w, "list modules", err)
		return
	}

	s.render(w, "modules", map[string]interface{}{
		"Modules": modules,
	})
}

// handlePlayStart begins a fresh attempt for a module.
func (s *Server) handlePlayStart(w http.ResponseWriter, r *http.Request) {
	moduleName := r.PathValue("moduleName")

	questions, err := s.storage.QuestionsForModule(r.Context(), moduleName)
	if err != nil {
		s.internalError(w, "load quiz", err)
		return
	}
	if len(questions) == 0 {
		http.Redirect(w, r, "/play", http.StatusSeeOther)
		return
	}

	quiz, err := NewQuizSession(moduleName, questions)
	if err != nil {
		s.internalError(w, "start quiz", err)
		return
	}

	if err := s.savePlaySession(w, r, quiz); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	http.Redirect(w, r, playPath(moduleName, "0"), http.StatusSeeOther)
}

type navDot struct {
	Index    int
	Current  bool
	Answered bool
	Correct  bool
}

func (s *Server) handlePlayQuestion(w http.ResponseWriter, r *http.Request) {
	moduleName := r.PathValue("moduleName")
	num, err := strconv.Atoi(r.PathValue("num"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	quiz, ok := s.loadPlaySession(r)
	if !ok || quiz.ModuleName != moduleName {
		http.Redirect(w, r, playPath(moduleName), http.StatusSeeOther)
		return
	}

	quiz.Jump(num)
	if err := s.savePlaySession(w, r, quiz); err != nil {
		s.internalError(w, "save session", err)
		return
	}

	q := quiz.Questions[quiz.Current]
	dots := make([]navDot, len(quiz.Questions))
	for i := range quiz.Questions {
		dots[i] = navDot{
			Index:    i,
			Current:  i == quiz.Current,
			Answered: quiz.Answered(i),
			Correct:  quiz.Correct[i],
		}
	}

	title := quiz.ModuleName
	if quiz.ReviewMode {
		title = "REVIEW: " + quiz.ModuleName
	}

	s.render(w, "play", map[string]interface{}{
		"Title":         title,
		"ModuleName":    quiz.ModuleName,
		"ModulePath":    playPath(quiz.ModuleName),
		"Question":      q,
		"Num":           quiz.Current,
		"Total":         len(quiz.Questions),
		"CorrectSoFar":  quiz.CorrectCount(),
		"Answered":      quiz.Answered(quiz.Current),
		"Selected":      quiz.Answers[quiz.Current],
		"WasCorrect":    quiz.Correct[quiz.Current],
		"IsFirst":       quiz.Current == 0,
		"IsLast":        quiz.OnLastQuestion(),
		"Nav":           dots,
		"ProgressWidth": (quiz.Current + 1) * 100 / len(quiz.Questions),
	})
}

func (s *Server) handlePlayAnswer(w http.ResponseWriter, r *http.Request) {
	moduleName := r.PathValue("moduleName")
	num, err := strconv.Atoi(r.PathValue("num"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	quiz, ok := s.loadPlaySession(r)
	if !ok || quiz.ModuleName != moduleName {
		http.Redirect(w, r, playPath(moduleName), http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	option, err := strconv.Atoi(r.FormValue("answer"))
	if err != nil {
		http.Error(w, "Invalid answer", http.StatusBadRequest)
		return
	}

	quiz.Jump(num)
	if _, err := quiz.Select(option); err != nil {
		http.Error(w, "Invalid answer", http.StatusBadRequest)
		return
	}

	if err := s.savePlaySession(w, r, quiz); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	http.Redirect(w, r, playPath(moduleName, strconv.Itoa(quiz.Current)), http.StatusSeeOther)
}

func (s *Server) handlePlaySubmit(w http.ResponseWriter, r *http.Request) {
	moduleName := r.PathValue("moduleName")

	quiz, ok := s.loadPlaySession(r)
	if !ok || quiz.ModuleName != moduleName {
		http.Redirect(w, r, playPath(moduleName), http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, playPath(moduleName, "summary"), http.StatusSeeOther)
}

func (s *Server) handlePlaySummary(w http.ResponseWriter, r *http.Request) {
	s.renderSummary(w, r, "")
}

func (s *Server) renderSummary(w http.ResponseWriter, r *http.Request, errorMsg string) {
	moduleName := r.PathValue("moduleName")

	quiz, ok := s.loadPlaySession(r)
	if !ok || quiz.ModuleName != moduleName {
		http.Redirect(w, r, playPath(moduleName), http.StatusSeeOther)
		return
	}

	sum := quiz.Summarize()
	s.render(w, "summary", map[string]interface{}{
		"ModuleName":   quiz.ModuleName,
		"ModulePath":   playPath(quiz.ModuleName),
		"Summary":      sum,
		"TierMessage":  tierMessage(sum.Tier),
		"RetryOffered": sum.RetryOffered(),
		"FailedCount":  len(sum.FailedIndexes),
		"ScoreSaved":   quiz.ScoreSaved,
		"Error":        errorMsg,
	})
}

func tierMessage(tier Tier) string {
	switch tier {
	case TierMastered:
		return "Excellent! You have completely mastered this module."
	case TierProficient:
		return "Good work, you have solid knowledge."
	default:
		return "You need to study this module more."
	}
}

func (s *Server) handlePlayRetry(w http.ResponseWriter, r *http.Request) {
	moduleName := r.PathValue("moduleName")

	quiz, ok := s.loadPlaySession(r)
	if !ok || quiz.ModuleName != moduleName {
		http.Redirect(w, r, playPath(moduleName), http.StatusSeeOther)
		return
	}

	sum := quiz.Summarize()
	if err := quiz.StartReview(sum.FailedIndexes); err != nil {
		// Nothing failed, nothing to review.
		http.Redirect(w, r, playPath(moduleName, "summary"), http.StatusSeeOther)
		return
	}

	if err := s.savePlaySession(w, r, quiz); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	http.Redirect(w, r, playPath(moduleName, "0"), http.StatusSeeOther)
}

func (s *Server) handlePlaySave(w http.ResponseWriter, r *http.Request) {
	moduleName := r.PathValue("moduleName")

	quiz, ok := s.loadPlaySession(r)
	if !ok || quiz.ModuleName != moduleName {
		http.Redirect(w, r, playPath(moduleName), http.StatusSeeOther)
		return
	}

	// One-shot: a summary's score can only be persisted once.
	if quiz.ScoreSaved {
		http.Redirect(w, r, playPath(moduleName, "summary"), http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	sum := quiz.Summarize()
	score, err := NewScore(quiz.ModuleName, r.FormValue("userName"), sum.CorrectCount, sum.IncorrectCount)
	if err != nil {
		s.renderSummary(w, r, err.Error())
		return
	}

	if err := s.storage.InsertScore(r.Context(), score); err != nil {
		log.Printf("Failed to save score: %v", err)
		s.renderSummary(w, r, "Could not save the score. Try again.")
		return
	}

	quiz.MarkScoreSaved()
	if err := s.savePlaySession(w, r, quiz); err != nil {
		s.internalError(w, "save session", err)
		return
	}
	http.Redirect(w, r, playPath(moduleName, "summary"), http.StatusSeeOther)
}

func (s *Server) handleScoreBoard(w http.ResponseWriter, r *http.Request) {
	scores, err := s.storage.ListScores(r.Context())
	if err != nil {
		s.internalError(w, "list scores", err)
		return
	}

	s.render(w, "scores", map[string]interface{}{
		"Scores": scores,
	})
}

func (s *Server) render(w http.ResponseWriter, name string, data interface{}) {
	tmpl, ok := s.templates[name]
	if !ok {
		s.internalError(w, "render "+name, fmt.Errorf("template %s not loaded", name))
		return
	}
	if err := tmpl.ExecuteTemplate(w, "base.html", data); err != nil {
		log.Printf("Template error in %s: %v", name, err)
		http.Error(w, "Template error", http.StatusInternalServerError)
	}
}
