package tipotest

import (
	"context"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/sessions"
)

// Storage is the persistence surface the server needs. *Store implements it;
// tests swap in an in-memory version.
type Storage interface {
	ListModules(ctx context.Context) ([]string, error)
	ReplaceModule(ctx context.Context, moduleName string, questions []Question) (int, error)
	DeleteModule(ctx context.Context, moduleName string) error
	QuestionsForModule(ctx context.Context, moduleName string) ([]Question, error)
	QuestionsByID(ctx context.Context, ids []string) ([]Question, error)
	InsertScore(ctx context.Context, score *Score) error
	ListScores(ctx context.Context) ([]Score, error)
}

// Server carries the handler dependencies: storage, the cookie session
// store for the play surface, templates and the static asset directory.
type Server struct {
	storage   Storage
	sessions  *sessions.CookieStore
	templates map[string]*template.Template
	staticDir string
}

// NewServer builds a Server, loading the play templates from templates/.
func NewServer(storage Storage, sessionSecret, staticDir string) (*Server, error) {
	funcMap := template.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"playpath": playPath,
	}

	templateFiles := []struct {
		name string
		file string
	}{
		{"modules", "templates/modules.html"},
		{"play", "templates/play.html"},
		{"summary", "templates/summary.html"},
		{"scores", "templates/scores.html"},
	}

	templates := make(map[string]*template.Template)
	for _, tmpl := range templateFiles {
		t, err := template.New(tmpl.name).Funcs(funcMap).ParseFiles("templates/base.html", tmpl.file)
		if err != nil {
			return nil, err
		}
		templates[tmpl.name] = t
	}

	cookies := sessions.NewCookieStore([]byte(sessionSecret))
	// gorilla/sessions v1.4 defaults to Secure + SameSite=None, which
	// browsers drop on plain HTTP. Lax works on both HTTP and TLS.
	cookies.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &Server{
		storage:   storage,
		sessions:  cookies,
		templates: templates,
		staticDir: staticDir,
	}, nil
}

// SecureCookies marks the session cookie Secure. Enable behind TLS.
func (s *Server) SecureCookies(secure bool) {
	s.sessions.Options.Secure = secure
}

// Handler returns the full route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/admin/create-module", s.handleCreateModule)
	mux.HandleFunc("DELETE /api/admin/module/{moduleName}", s.handleDeleteModule)
	mux.HandleFunc("GET /api/modules", s.handleListModules)
	mux.HandleFunc("GET /api/quiz/{moduleName}", s.handleGetQuiz)
	mux.HandleFunc("POST /api/scores", s.handleSubmitScore)
	mux.HandleFunc("GET /api/scores", s.handleListScores)

	mux.HandleFunc("GET /play", s.handleModuleSelection)
	mux.HandleFunc("GET /play/{moduleName}", s.handlePlayStart)
	mux.HandleFunc("GET /play/{moduleName}/summary", s.handlePlaySummary)
	mux.HandleFunc("GET /play/{moduleName}/{num}", s.handlePlayQuestion)
	mux.HandleFunc("POST /play/{moduleName}/{num}", s.handlePlayAnswer)
	mux.HandleFunc("POST /play/{moduleName}/submit", s.handlePlaySubmit)
	mux.HandleFunc("POST /play/{moduleName}/retry", s.handlePlayRetry)
	mux.HandleFunc("POST /play/{moduleName}/save", s.handlePlaySave)
	mux.HandleFunc("GET /scores", s.handleScoreBoard)

	mux.HandleFunc("/", s.handleStatic)

	return Chain(mux, Recover(), Logger(), CORS())
}

func (s *Server) handleCreateModule(w http.ResponseWriter, r *http.Request) {
	var questions []Question
	if err := json.NewDecoder(r.Body).Decode(&questions); err != nil {
		errorResponse(w, http.StatusBadRequest, "Request body must be a JSON array of questions.")
		return
	}
	if len(questions) == 0 {
		errorResponse(w, http.StatusBadRequest, "Request body must be a non-empty array of questions.")
		return
	}

	moduleName := questions[0].ModuleName
	for i := range questions {
		if questions[i].ModuleName != moduleName {
			errorResponse(w, http.StatusBadRequest, "All questions must share one moduleName.")
			return
		}
		if err := questions[i].Validate(); err != nil {
			errorResponse(w, http.StatusBadRequest, err.Error())
			return
		}
		questions[i].Normalize()
	}

	count, err := s.storage.ReplaceModule(r.Context(), moduleName, questions)
	if err != nil {
		s.internalError(w, "create module", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Module '" + moduleName + "' saved successfully.",
		"count":   count,
	})
}

func (s *Server) handleDeleteModule(w http.ResponseWriter, r *http.Request) {
	moduleName := r.PathValue("moduleName")

	if err := s.storage.DeleteModule(r.Context(), moduleName); err != nil {
		s.internalError(w, "delete module", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Module '" + moduleName + "' and its associated data deleted.",
	})
}

func (s *Server) handleListModules(w http.ResponseWriter, r *http.Request) {
	modules, err := s.storage.ListModules(r.Context())
	if err != nil {
		s.internalError(w, "list modules", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"modules": modules})
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	moduleName := r.PathValue("moduleName")

	questions, err := s.storage.QuestionsForModule(r.Context(), moduleName)
	if err != nil {
		s.internalError(w, "load quiz", err)
		return
	}
	if len(questions) == 0 {
		errorResponse(w, http.StatusNotFound, "Module not found or has no questions.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"moduleName": moduleName,
		"questions":  ShuffleQuestions(questions),
	})
}

func (s *Server) handleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ModuleName     string `json:"moduleName"`
		UserName       string `json:"userName"`
		CorrectCount   int    `json:"correctCount"`
		IncorrectCount int    `json:"incorrectCount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	score, err := NewScore(req.ModuleName, req.UserName, req.CorrectCount, req.IncorrectCount)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.storage.InsertScore(r.Context(), score); err != nil {
		s.internalError(w, "save score", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Score saved successfully.",
		"score":   score,
	})
}

func (s *Server) handleListScores(w http.ResponseWriter, r *http.Request) {
	scores, err := s.storage.ListScores(r.Context())
	if err != nil {
		s.internalError(w, "list scores", err)
		return
	}

	writeJSON(w, http.StatusOK, scores)
}

// handleStatic serves frontend assets, falling back to index.html so
// non-API paths load the single page app.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if s.staticDir == "" {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.staticDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(s.staticDir, "index.html"))
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("Failed to %s: %v", op, err)
	errorResponse(w, http.StatusInternalServerError, "Internal server error.")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{"message": message})
}
