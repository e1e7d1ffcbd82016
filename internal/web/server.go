// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package web serves the HTML frontend: login and registration, the
// search page, the chat page, preferences, and the dashboard.
package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/pdiddy/pubmed-assistant/internal/router"
	"github.com/pdiddy/pubmed-assistant/internal/session"
	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// sessionCookie is the cookie carrying the session ID.
const sessionCookie = "pubmed_session"

// Authenticator is the account-store surface the handlers need.
type Authenticator interface {
	Register(ctx context.Context, username, password, email string) (bool, error)
	Verify(ctx context.Context, username, password string) (bool, error)
}

// OTPMailer delivers registration codes.
type OTPMailer interface {
	SendOTP(ctx context.Context, to, code string) error
}

// PrefStore loads and saves per-user preferences.
type PrefStore interface {
	Load(username string) types.UserPreferences
	Save(username string, prefs types.UserPreferences) error
}

// TermDetector finds specialized terms in an abstract, backing the
// "Explain These Terms" button.
type TermDetector interface {
	DetectTerms(ctx context.Context, text string) ([]string, error)
}

// Deps bundles the server's collaborators.
type Deps struct {
	Sessions *session.Registry
	Accounts Authenticator
	Mailer   OTPMailer
	Prefs    PrefStore
	Search   router.Searcher
	Detector TermDetector
	Router   *router.Router
	PageSize int
}

// Server is the HTTP frontend.
type Server struct {
	log  zerolog.Logger
	deps Deps
	mux  *mux.Router
	tmpl *template.Template
}

// NewServer builds the frontend with all routes registered.
func NewServer(log zerolog.Logger, deps Deps) (*Server, error) {
	funcs := template.FuncMap{
		"prev": func(page int) int { return page - 1 },
		"next": func(page int) int { return page + 1 },
		"list": func(items ...string) []string { return items },
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{log: log, deps: deps, tmpl: tmpl}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/login", s.handleLoginForm).Methods("GET")
	r.HandleFunc("/login", s.handleLogin).Methods("POST")
	r.HandleFunc("/logout", s.handleLogout).Methods("GET")
	r.HandleFunc("/register", s.handleRegisterForm).Methods("GET")
	r.HandleFunc("/register", s.handleRegister).Methods("POST")

	r.HandleFunc("/search", s.requireLogin(s.handleSearchPage)).Methods("GET")
	r.HandleFunc("/search", s.requireLogin(s.handleSearch)).Methods("POST")
	r.HandleFunc("/search/page", s.requireLogin(s.handlePage)).Methods("GET")
	r.HandleFunc("/search/export", s.requireLogin(s.handleExport)).Methods("GET")
	r.HandleFunc("/search/action", s.requireLogin(s.handleAction)).Methods("POST")

	r.HandleFunc("/chat", s.requireLogin(s.handleChatPage)).Methods("GET")
	r.HandleFunc("/chat", s.requireLogin(s.handleChat)).Methods("POST")

	r.HandleFunc("/tutorial", s.requireLogin(s.handleTutorial)).Methods("GET")
	r.HandleFunc("/tutorial", s.requireLogin(s.handleTutorialDone)).Methods("POST")
	r.HandleFunc("/preferences", s.requireLogin(s.handlePreferencesPage)).Methods("GET")
	r.HandleFunc("/preferences", s.requireLogin(s.handlePreferences)).Methods("POST")
	r.HandleFunc("/dashboard", s.requireLogin(s.handleDashboard)).Methods("GET")

	s.mux = r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// sessionFor returns the context for the request's cookie, creating an
// anonymous one (and setting the cookie) when absent or stale.
func (s *Server) sessionFor(w http.ResponseWriter, r *http.Request) *session.Context {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.deps.Sessions.Get(cookie.Value); sess != nil {
			return sess
		}
	}

	sess := s.deps.Sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess
}

func (s *Server) requireLogin(next func(http.ResponseWriter, *http.Request, *session.Context)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess := s.sessionFor(w, r)
		if sess.Username() == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, sess)
	}
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error().Err(err).Str("template", name).Msg("render failed")
	}
}
