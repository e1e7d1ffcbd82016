// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package web

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pubmed-assistant/internal/accounts"
	"github.com/pdiddy/pubmed-assistant/internal/pubmed"
	"github.com/pdiddy/pubmed-assistant/internal/router"
	"github.com/pdiddy/pubmed-assistant/internal/session"
	"github.com/pdiddy/pubmed-assistant/internal/tagdoc"
	"github.com/pdiddy/pubmed-assistant/internal/viz"
	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if sess.Username() == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/search", http.StatusSeeOther)
}

// --- login / logout ---

type authPage struct {
	Message    string
	Error      string
	OTPPending bool
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.sessionFor(w, r)
	s.render(w, "login.html", authPage{Message: r.URL.Query().Get("msg")})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	ok, err := s.deps.Accounts.Verify(r.Context(), username, password)
	if err != nil {
		s.log.Error().Err(err).Msg("login verification failed")
		s.render(w, "login.html", authPage{Error: "Something went wrong. Please try again."})
		return
	}
	if !ok {
		s.render(w, "login.html", authPage{Error: "Invalid username or password"})
		return
	}

	sess.Login(username, s.deps.Prefs.Load(username))
	s.log.Info().Str("username", username).Msg("login")
	http.Redirect(w, r, "/search", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		s.deps.Sessions.Drop(cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// --- registration ---

func (s *Server) handleRegisterForm(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	s.render(w, "register.html", authPage{
		Message:    r.URL.Query().Get("msg"),
		OTPPending: sess.OTPPending(),
	})
}

// handleRegister covers both stages: requesting a code for an email
// address, and submitting the account form with the code. A code is good
// for one attempt; any failed attempt requires requesting a new one.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess := s.sessionFor(w, r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	switch r.PostFormValue("stage") {
	case "email":
		s.registerSendOTP(w, r, sess)
	case "confirm":
		s.registerConfirm(w, r, sess)
	default:
		http.Error(w, "unknown stage", http.StatusBadRequest)
	}
}

func (s *Server) registerSendOTP(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	email := strings.TrimSpace(r.PostFormValue("email"))
	if email == "" {
		s.render(w, "register.html", authPage{Error: "Please enter an email address"})
		return
	}

	code, err := accounts.GenerateOTP()
	if err != nil {
		s.log.Error().Err(err).Msg("OTP generation failed")
		s.render(w, "register.html", authPage{Error: "Something went wrong. Please try again."})
		return
	}
	if err := s.deps.Mailer.SendOTP(r.Context(), email, code); err != nil {
		s.log.Error().Err(err).Msg("OTP send failed")
		s.render(w, "register.html", authPage{Error: fmt.Sprintf("Failed to send OTP: %v", err)})
		return
	}

	sess.SetOTP(code, email)
	s.render(w, "register.html", authPage{Message: "OTP sent to your email.", OTPPending: true})
}

func (s *Server) registerConfirm(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	confirm := r.PostFormValue("confirm_password")
	submitted := strings.TrimSpace(r.PostFormValue("otp"))

	if username == "" || password == "" || submitted == "" {
		s.render(w, "register.html", authPage{Error: "Please fill in all fields", OTPPending: sess.OTPPending()})
		return
	}
	if password != confirm {
		s.render(w, "register.html", authPage{Error: "Passwords do not match", OTPPending: sess.OTPPending()})
		return
	}

	// The code is good for exactly one comparison.
	issued, email := sess.TakeOTP()
	if issued == "" || !accounts.OTPMatches(issued, submitted) {
		s.render(w, "register.html", authPage{Error: "Invalid OTP"})
		return
	}

	created, err := s.deps.Accounts.Register(r.Context(), username, password, email)
	if err != nil {
		s.log.Error().Err(err).Msg("registration failed")
		s.render(w, "register.html", authPage{Error: "Something went wrong. Please try again."})
		return
	}
	if !created {
		s.render(w, "register.html", authPage{Error: "Username already exists"})
		return
	}

	s.log.Info().Str("username", username).Msg("account created")
	http.Redirect(w, r, "/login?msg="+url.QueryEscape("Registration successful! Please login."), http.StatusSeeOther)
}

// --- search ---

type resultView struct {
	Number   int // position within the fetched page, 1-based
	Record   types.CitationRecord
	Citation string
}

type searchPage struct {
	Username  string
	Message   string
	Query     string
	Sort      string
	PubTypes  []string
	Results   []resultView
	Total     int
	Page      int // 1-based for display
	Pages     int
	HasPrev   bool
	HasNext   bool
	HasSearch bool
}

func (s *Server) searchPageData(sess *session.Context, message string) searchPage {
	data := searchPage{
		Username: sess.Username(),
		Message:  message,
		PubTypes: pubmed.PublicationTypeNames(),
	}

	searchSess, page := sess.Search()
	if searchSess == nil {
		return data
	}

	// Numbering restarts on every page so the displayed numbers line up
	// with the analysis actions and "abstract #N" chat references, which
	// resolve against the fetched page.
	style := sess.Prefs().CitationStyle
	results := make([]resultView, len(page))
	for i, rec := range page {
		results[i] = resultView{
			Number:   i + 1,
			Record:   rec,
			Citation: pubmed.FormatCitation(rec, style),
		}
	}

	data.Query = searchSess.Query
	data.Sort = string(searchSess.Sort)
	data.Results = results
	data.Total = searchSess.TotalCount
	data.Page = searchSess.CurrentPage + 1
	data.Pages = searchSess.TotalPages()
	data.HasPrev = searchSess.CurrentPage > 0
	data.HasNext = searchSess.CurrentPage+1 < searchSess.TotalPages()
	data.HasSearch = true
	return data
}

func (s *Server) handleSearchPage(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	s.render(w, "search.html", s.searchPageData(sess, r.URL.Query().Get("msg")))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	base := strings.TrimSpace(r.PostFormValue("q"))
	if base == "" {
		s.render(w, "search.html", s.searchPageData(sess, "Please enter search terms."))
		return
	}

	filters := pubmed.Filters{PublicationTypes: r.PostForm["ptype"]}
	filters.StartYear, _ = strconv.Atoi(r.PostFormValue("start_year"))
	filters.EndYear, _ = strconv.Atoi(r.PostFormValue("end_year"))

	sort := types.SortOrder(r.PostFormValue("sort"))
	switch sort {
	case types.SortRelevance, types.SortDate, types.SortAuthor:
	default:
		sort = types.SortRelevance
	}

	query := pubmed.BuildQuery(base, filters)
	searchSess, warnings := s.deps.Search.Initiate(r.Context(), query, s.deps.PageSize, sort)
	if len(warnings) > 0 {
		s.render(w, "search.html", s.searchPageData(sess, strings.Join(warnings, "; ")))
		return
	}
	if searchSess.TotalCount == 0 {
		sess.SetSearch(nil, nil)
		s.render(w, "search.html", s.searchPageData(sess, fmt.Sprintf("No results found for '%s'.", base)))
		return
	}

	page, warnings := s.deps.Search.FetchPage(r.Context(), searchSess, 0)
	sess.SetSearch(searchSess, page)

	msg := ""
	if len(warnings) > 0 {
		msg = strings.Join(warnings, "; ")
	}
	s.render(w, "search.html", s.searchPageData(sess, msg))
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	searchSess, _ := sess.Search()
	if searchSess == nil {
		http.Redirect(w, r, "/search", http.StatusSeeOther)
		return
	}

	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 || page > searchSess.TotalPages() {
		http.Redirect(w, r, "/search", http.StatusSeeOther)
		return
	}

	records, warnings := s.deps.Search.FetchPage(r.Context(), searchSess, page-1)
	if len(warnings) > 0 {
		s.render(w, "search.html", s.searchPageData(sess, strings.Join(warnings, "; ")))
		return
	}

	searchSess.CurrentPage = page - 1
	sess.SetSearch(searchSess, records)
	http.Redirect(w, r, "/search", http.StatusSeeOther)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	searchSess, page := sess.Search()
	if searchSess == nil || len(page) == 0 {
		http.Redirect(w, r, "/search?msg="+url.QueryEscape("Nothing to export yet."), http.StatusSeeOther)
		return
	}

	filename := pubmed.ExportFilename(searchSess.Query, searchSess.CurrentPage+1)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := pubmed.WriteCSV(w, page); err != nil {
		s.log.Error().Err(err).Msg("CSV export failed")
	}
}

// handleAction enqueues a pending analysis for the chat page. The
// "terms" action runs term detection now so the queued action carries
// the detected terms.
func (s *Server) handleAction(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	article, _ := strconv.Atoi(r.PostFormValue("article"))
	_, page := sess.Search()

	switch r.PostFormValue("kind") {
	case "terms":
		if article < 1 || article > len(page) {
			http.Redirect(w, r, "/search", http.StatusSeeOther)
			return
		}
		terms, err := s.deps.Detector.DetectTerms(r.Context(), page[article-1].Abstract)
		if err != nil || len(terms) == 0 {
			msg := "No complex terms found in this abstract."
			if err != nil {
				msg = fmt.Sprintf("Error detecting medical terms: %v", err)
			}
			http.Redirect(w, r, "/search?msg="+url.QueryEscape(msg), http.StatusSeeOther)
			return
		}
		sess.Enqueue(types.PendingAction{Kind: types.PendingExplainTerms, Terms: terms})
	case "methodology":
		sess.Enqueue(types.PendingAction{Kind: types.PendingMethodology, Article: article})
	case "gaps":
		sess.Enqueue(types.PendingAction{Kind: types.PendingGapAnalysis})
	case "questions":
		sess.Enqueue(types.PendingAction{Kind: types.PendingResearchQuestions})
	default:
		http.Redirect(w, r, "/search", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// --- chat ---

type turnView struct {
	Role     types.Role
	Content  string
	Tagged   bool
	Sections []tagdoc.Section
}

type chatPage struct {
	Username string
	Turns    []turnView
}

func (s *Server) handleChatPage(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	// Run actions queued from the search page before rendering.
	s.deps.Router.RunPending(r.Context(), sess)

	turns := sess.Turns()
	views := make([]turnView, len(turns))
	for i, turn := range turns {
		view := turnView{Role: turn.Role, Content: turn.Content}
		if turn.Kind == types.TurnTagged && turn.Doc != nil {
			view.Tagged = true
			view.Sections = tagdoc.Render(*turn.Doc)
		}
		views[i] = view
	}
	s.render(w, "chat.html", chatPage{Username: sess.Username(), Turns: views})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	if text := strings.TrimSpace(r.PostFormValue("message")); text != "" {
		s.deps.Router.Route(r.Context(), sess, text)
	}
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

// --- tutorial and preferences ---

type tutorialPage struct {
	Username string
	Steps    []router.TutorialStep
}

func (s *Server) handleTutorial(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	s.render(w, "tutorial.html", tutorialPage{Username: sess.Username(), Steps: router.TutorialSteps()})
}

func (s *Server) handleTutorialDone(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	prefs := sess.Prefs()
	prefs.TutorialCompleted = true
	sess.SetPrefs(prefs)
	if err := s.deps.Prefs.Save(sess.Username(), prefs); err != nil {
		s.log.Error().Err(err).Msg("saving preferences failed")
	}
	http.Redirect(w, r, "/search", http.StatusSeeOther)
}

type prefsPage struct {
	Username string
	Message  string
	Prefs    types.UserPreferences
}

func (s *Server) handlePreferencesPage(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	s.render(w, "prefs.html", prefsPage{
		Username: sess.Username(),
		Message:  r.URL.Query().Get("msg"),
		Prefs:    sess.Prefs(),
	})
}

func (s *Server) handlePreferences(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	prefs := sess.Prefs()
	if v := types.Complexity(r.PostFormValue("complexity")); types.ValidComplexity(v) {
		prefs.Complexity = v
	}
	if v := types.DetailLevel(r.PostFormValue("detail_level")); types.ValidDetailLevel(v) {
		prefs.DetailLevel = v
	}
	if v := types.CitationStyle(r.PostFormValue("citation_style")); types.ValidCitationStyle(v) {
		prefs.CitationStyle = v
	}

	sess.SetPrefs(prefs)
	if err := s.deps.Prefs.Save(sess.Username(), prefs); err != nil {
		s.log.Error().Err(err).Msg("saving preferences failed")
		http.Redirect(w, r, "/preferences?msg="+url.QueryEscape("Could not save preferences."), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/preferences?msg="+url.QueryEscape("Preferences updated!"), http.StatusSeeOther)
}

// --- dashboard ---

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, sess *session.Context) {
	_, page := sess.Search()
	if len(page) == 0 {
		http.Redirect(w, r, "/search?msg="+url.QueryEscape("Perform a search first to see the dashboard."), http.StatusSeeOther)
		return
	}
	if err := viz.RenderDashboard(w, page); err != nil {
		s.log.Error().Err(err).Msg("dashboard render failed")
	}
}
