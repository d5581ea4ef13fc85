package pipeline

import (
	"sync"
	"time"

	"github.com/mcqscan/mcqscan/internal/question"
)

// SessionStatus represents the state of one document session.
type SessionStatus string

const (
	StatusQueued     SessionStatus = "queued"
	StatusRendering  SessionStatus = "rendering"
	StatusExtracting SessionStatus = "extracting"
	StatusCompleted  SessionStatus = "completed"
	StatusFailed     SessionStatus = "failed"
)

// Session tracks one uploaded document from queuing to its final question
// list. All state is in-memory; deleting the session discards everything.
type Session struct {
	mu sync.Mutex

	ID       string        `json:"session_id"`
	Filename string        `json:"filename"`
	Status   SessionStatus `json:"status"`
	Error    string        `json:"error,omitempty"`

	Progress Progress `json:"progress"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	pdfData   []byte
	questions []question.Question
}

// Progress is the user-visible processing state. Percent only ever grows.
type Progress struct {
	PagesTotal    int `json:"pages_total"`
	PagesDone     int `json:"pages_done"`
	Percent       int `json:"percent"`
	QuestionCount int `json:"question_count"`
}

// NewSession creates a queued session holding the uploaded PDF bytes.
func NewSession(filename string, pdfData []byte) *Session {
	now := time.Now()
	return &Session{
		ID:        newULID(),
		Filename:  filename,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		pdfData:   pdfData,
	}
}

// SetStatus updates the session status.
func (s *Session) SetStatus(status SessionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = status
	s.UpdatedAt = time.Now()
}

// Fail moves the session to its terminal error state with a human-readable
// reason. Partial results are withheld after a document-level failure.
func (s *Session) Fail(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = StatusFailed
	s.Error = reason
	s.questions = nil
	s.UpdatedAt = time.Now()
}

// SetPagesTotal records the page count once rendering succeeds.
func (s *Session) SetPagesTotal(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Progress.PagesTotal = n
	s.UpdatedAt = time.Now()
}

// PageDone bumps the completed-page counter and recomputes percent. Both
// counters only increment, so percent is monotonically non-decreasing.
func (s *Session) PageDone() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Progress.PagesDone++
	if s.Progress.PagesTotal > 0 {
		s.Progress.Percent = s.Progress.PagesDone * 100 / s.Progress.PagesTotal
	}
	s.UpdatedAt = time.Now()
}

// Complete stores the final sorted question list and marks the session done.
func (s *Session) Complete(qs []question.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = qs
	s.Status = StatusCompleted
	s.Progress.Percent = 100
	s.Progress.QuestionCount = len(qs)
	s.UpdatedAt = time.Now()
}

// Questions returns the final list. Nil until the session completes.
func (s *Session) Questions() []question.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.questions
}

// SetPDFData replaces the raw upload bytes. The orchestrator clears them
// once pages are rendered so a large upload doesn't outlive its usefulness.
func (s *Session) SetPDFData(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pdfData = data
}

// PDFData returns the raw upload bytes.
func (s *Session) PDFData() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pdfData
}

// SessionSnapshot is a read-only, JSON-safe copy of session state.
type SessionSnapshot struct {
	ID       string        `json:"session_id"`
	Filename string        `json:"filename"`
	Status   SessionStatus `json:"status"`
	Error    string        `json:"error,omitempty"`
	Progress Progress      `json:"progress"`
}

// Snapshot returns a copy safe to serialize while processing continues.
func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionSnapshot{
		ID:       s.ID,
		Filename: s.Filename,
		Status:   s.Status,
		Error:    s.Error,
		Progress: s.Progress,
	}
}

// SessionStore is a thread-safe in-memory session registry with TTL
// eviction.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
	}
}

func (st *SessionStore) Put(s *Session) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.sessions[s.ID] = s
}

func (st *SessionStore) Get(id string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.sessions[id]
}

// Delete discards a session and everything it holds.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}

// Cleanup removes sessions idle past the TTL.
func (st *SessionStore) Cleanup() {
	st.mu.Lock()
	defer st.mu.Unlock()
	now := time.Now()
	for id, s := range st.sessions {
		if now.Sub(s.UpdatedAt) > st.ttl {
			delete(st.sessions, id)
		}
	}
}
