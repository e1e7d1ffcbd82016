// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package session holds per-visitor conversational state: the login
// identity, the append-only conversation history, the active search, and
// the pending-action queue. Nothing here is persisted; a restart logs
// everyone out.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

// Context is the state behind one session cookie. An anonymous context
// exists before login so the registration OTP flow has somewhere to keep
// its code; login fills in the identity and logout drops the whole
// context.
type Context struct {
	ID string

	mu       sync.Mutex
	username string
	prefs    types.UserPreferences

	turns   []types.Turn
	search  *types.SearchSession
	page    []types.CitationRecord
	pending []types.PendingAction

	// Registration OTP state, cleared after any registration attempt.
	otpCode  string
	otpEmail string

	lastSeen time.Time
}

// Login binds an authenticated identity and its preferences to the
// context.
func (c *Context) Login(username string, prefs types.UserPreferences) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.username = username
	c.prefs = prefs
}

// Username returns the logged-in username, or "" for an anonymous
// context.
func (c *Context) Username() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.username
}

// Prefs returns the preferences snapshot bound at login or by SetPrefs.
func (c *Context) Prefs() types.UserPreferences {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.username == "" {
		return types.DefaultPreferences()
	}
	return c.prefs
}

// SetPrefs replaces the in-session preferences snapshot.
func (c *Context) SetPrefs(prefs types.UserPreferences) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefs = prefs
}

// Append adds turns to the conversation history.
func (c *Context) Append(turns ...types.Turn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turns = append(c.turns, turns...)
}

// Turns returns a copy of the conversation history.
func (c *Context) Turns() []types.Turn {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]types.Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// SetSearch replaces the active search and its fetched page.
func (c *Context) SetSearch(sess *types.SearchSession, page []types.CitationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = sess
	c.page = page
}

// Search returns the active search session and the records of the
// currently fetched page. The session pointer is shared; callers mutate
// CurrentPage through it when paging.
func (c *Context) Search() (*types.SearchSession, []types.CitationRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search, c.page
}

// Enqueue adds a deferred action for the next router invocation.
func (c *Context) Enqueue(action types.PendingAction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, action)
}

// TakePending returns the queued actions and empties the queue. Each
// enqueued action is returned exactly once.
func (c *Context) TakePending() []types.PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	actions := c.pending
	c.pending = nil
	return actions
}

// SetOTP stores an issued registration code and the address it went to.
func (c *Context) SetOTP(code, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.otpCode = code
	c.otpEmail = email
}

// OTPPending reports whether a registration code has been issued and not
// yet used.
func (c *Context) OTPPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.otpCode != ""
}

// TakeOTP returns the issued code and address and clears them. A code is
// good for exactly one registration attempt.
func (c *Context) TakeOTP() (code, email string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	code, email = c.otpCode, c.otpEmail
	c.otpCode, c.otpEmail = "", ""
	return code, email
}

// Registry maps session cookie values to contexts.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Context
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: map[string]*Context{}}
}

// Create allocates a new anonymous context under a fresh ID.
func (r *Registry) Create() *Context {
	c := &Context{ID: uuid.NewString(), lastSeen: time.Now()}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[c.ID] = c
	return c
}

// Get returns the context for id, or nil when the session is unknown.
func (r *Registry) Get(id string) *Context {
	r.mu.RLock()
	c := r.sessions[id]
	r.mu.RUnlock()
	if c != nil {
		c.mu.Lock()
		c.lastSeen = time.Now()
		c.mu.Unlock()
	}
	return c
}

// Drop removes the context for id. Used at logout.
func (r *Registry) Drop(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

// Sweep removes contexts idle longer than maxIdle and reports how many
// were dropped.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	r.mu.Lock()
	defer r.mu.Unlock()
	dropped := 0
	for id, c := range r.sessions {
		c.mu.Lock()
		idle := c.lastSeen.Before(cutoff)
		c.mu.Unlock()
		if idle {
			delete(r.sessions, id)
			dropped++
		}
	}
	return dropped
}
