// Package live tracks the current live TV program, its comment feed and the
// viewer's participation.
package live

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrijs2005/flockapp/internal/client/api"
	"github.com/dmitrijs2005/flockapp/internal/client/models"
	"github.com/dmitrijs2005/flockapp/internal/logging"
	"github.com/dmitrijs2005/flockapp/internal/watch"
)

var (
	ErrNoToken         = api.Precondition("Unauthorized: No authentication token found.")
	ErrNotSignedIn     = api.Precondition("Unauthorized: Please sign in first.")
	ErrNoProgram       = api.Precondition("No live program to comment on")
	ErrNoProgramToJoin = api.Precondition("No live program to join")
	ErrEmptyComment    = api.Precondition("Comment cannot be empty")
)

type API interface {
	LiveProgram(ctx context.Context) (*models.Program, error)
	LiveComments(ctx context.Context, programID string) ([]models.Comment, error)
	PostComment(ctx context.Context, programID, userID, content string) error
	Participate(ctx context.Context, programID, userID string) error
}

// TokenChecker reports whether an auth token is stored. It is satisfied by
// *session.Store.
type TokenChecker interface {
	HasToken(ctx context.Context) bool
}

type Manager struct {
	api    API
	tokens TokenChecker
	log    logging.Logger

	state *watch.Value[State]

	mu     sync.Mutex
	userID string
	gen    uint64

	// commentsSeq numbers comment requests in issue order; commentsShown is
	// the newest one whose result reached the state.
	commentsSeq   uint64
	commentsShown uint64

	focused bool
	// joined is the program participation was recorded for during the
	// current focus session.
	joined string
}

func NewManager(liveAPI API, tokens TokenChecker, log logging.Logger) *Manager {
	return &Manager{
		api:    liveAPI,
		tokens: tokens,
		log:    log.With("component", "live"),
		state:  watch.NewValue(idleState()),
	}
}

func (m *Manager) State() State {
	return m.state.Get()
}

// Subscribe registers fn for state changes. fn must not call back into the
// manager.
func (m *Manager) Subscribe(fn func(State)) (cancel func()) {
	return m.state.Subscribe(fn)
}

type owner struct {
	userID string
	gen    uint64
}

func (m *Manager) current() owner {
	m.mu.Lock()
	defer m.mu.Unlock()
	return owner{userID: m.userID, gen: m.gen}
}

// SetIdentity resets the session for id. With an identity the current
// program is loaded; without one the manager stays Idle.
func (m *Manager) SetIdentity(ctx context.Context, id models.Identity) error {
	m.mu.Lock()
	if id.UserID == m.userID {
		m.mu.Unlock()
		return nil
	}
	m.userID = id.UserID
	m.gen++
	m.joined = ""
	m.state.Set(idleState())
	m.mu.Unlock()

	if !id.Authenticated() {
		return nil
	}
	return m.FetchLiveProgram(ctx)
}

// FetchLiveProgram loads the current program and then its comments.
func (m *Manager) FetchLiveProgram(ctx context.Context) error {
	o := m.current()

	if !m.tokens.HasToken(ctx) {
		m.apply(o, func(s State) State {
			s = idleState()
			s.ProgramStatus = ProgramError
			s.Error = ErrNoToken.Error()
			return s
		})
		return ErrNoToken
	}

	m.apply(o, func(s State) State {
		s.ProgramStatus = ProgramLoading
		return s
	})

	p, err := m.api.LiveProgram(ctx)
	if err != nil {
		m.log.Error(ctx, "fetch live program failed", "err", err)
		m.apply(o, func(s State) State {
			s = idleState()
			s.ProgramStatus = ProgramError
			s.Error = api.Message(err)
			return s
		})
		return err
	}

	m.apply(o, func(s State) State {
		if s.ProgramID() != programID(p) {
			s.Comments = []models.Comment{}
			s.CommentsStatus = CommentsIdle
		}
		s.Program = p
		s.ProgramStatus = ProgramLoaded
		s.Error = ""
		return s
	})

	err = m.FetchLiveComments(ctx)
	m.participateIfFocused(ctx)
	return err
}

// FetchLiveComments replaces the comment list with the server's copy for the
// current program. Without a program the list is cleared.
func (m *Manager) FetchLiveComments(ctx context.Context) error {
	o := m.current()
	pid := m.state.Get().ProgramID()
	seq := m.nextCommentsSeq()

	if pid == "" {
		m.apply(o, func(s State) State {
			s.Comments = []models.Comment{}
			s.CommentsStatus = CommentsIdle
			return s
		})
		return nil
	}

	m.applyComments(o, pid, seq, func(s State) State {
		s.CommentsStatus = CommentsLoading
		return s
	})

	comments, err := m.api.LiveComments(ctx, pid)
	if err != nil {
		m.log.Warn(ctx, "fetch comments failed", "program_id", pid, "err", err)
		m.applyComments(o, pid, seq, func(s State) State {
			s.CommentsStatus = CommentsError
			s.Error = api.Message(err)
			return s
		})
		return err
	}

	if !m.applyComments(o, pid, seq, func(s State) State {
		s.Comments = comments
		s.CommentsStatus = CommentsLoaded
		return s
	}) {
		m.log.Debug(ctx, "discarded stale comments", "program_id", pid, "seq", seq)
	}
	return nil
}

// PostComment sends content for the current program and refetches the feed.
// Guard failures set State.Error and make no request.
func (m *Manager) PostComment(ctx context.Context, content string) error {
	o, pid, err := m.preconditions(ctx, ErrNoProgram)
	if err == nil && strings.TrimSpace(content) == "" {
		err = ErrEmptyComment
	}
	if err != nil {
		m.setError(o, err)
		return err
	}

	if err := m.api.PostComment(ctx, pid, o.userID, content); err != nil {
		m.log.Error(ctx, "post comment failed", "program_id", pid, "err", err)
		m.setError(o, err)
		return err
	}
	return m.FetchLiveComments(ctx)
}

// RecordParticipation tells the server the user is watching the current
// program. Failures are logged and recorded but are not fatal to the caller.
func (m *Manager) RecordParticipation(ctx context.Context) error {
	o, pid, err := m.preconditions(ctx, ErrNoProgramToJoin)
	if err != nil {
		m.setError(o, err)
		return err
	}

	if err := m.api.Participate(ctx, pid, o.userID); err != nil {
		m.log.Warn(ctx, "record participation failed", "program_id", pid, "err", err)
		m.setError(o, err)
		return err
	}
	m.log.Debug(ctx, "participation recorded", "program_id", pid)
	return nil
}

// Focus starts a viewing session. Participation is recorded once per program
// for the session, now if a program is loaded or as soon as one is.
func (m *Manager) Focus(ctx context.Context) {
	m.mu.Lock()
	m.focused = true
	m.mu.Unlock()
	m.participateIfFocused(ctx)
}

// Blur ends the viewing session.
func (m *Manager) Blur() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focused = false
	m.joined = ""
}

func (m *Manager) participateIfFocused(ctx context.Context) {
	pid := m.state.Get().ProgramID()

	m.mu.Lock()
	if !m.focused || pid == "" || m.joined == pid {
		m.mu.Unlock()
		return
	}
	m.joined = pid
	m.mu.Unlock()

	_ = m.RecordParticipation(ctx)
}

func (m *Manager) preconditions(ctx context.Context, noProgram error) (owner, string, error) {
	o := m.current()
	if o.userID == "" {
		return o, "", ErrNotSignedIn
	}
	pid := m.state.Get().ProgramID()
	if pid == "" {
		return o, "", noProgram
	}
	if !m.tokens.HasToken(ctx) {
		return o, "", ErrNoToken
	}
	return o, pid, nil
}

func (m *Manager) setError(o owner, err error) {
	m.apply(o, func(s State) State {
		s.Error = api.Message(err)
		return s
	})
}

// apply updates the state unless the identity changed since o was taken.
func (m *Manager) apply(o owner, fn func(State) State) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != o.gen {
		return
	}
	m.state.Update(fn)
}

func (m *Manager) nextCommentsSeq() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.commentsSeq++
	return m.commentsSeq
}

// applyComments is apply for the result of comment request seq on pid. It is
// dropped when pid is no longer current or a later request already landed, so
// an old poll cannot hide a comment the user just posted.
func (m *Manager) applyComments(o owner, pid string, seq uint64, fn func(State) State) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gen != o.gen || seq < m.commentsShown || m.state.Get().ProgramID() != pid {
		return false
	}
	m.commentsShown = seq
	m.state.Update(fn)
	return true
}

func programID(p *models.Program) string {
	if p == nil {
		return ""
	}
	return p.ID
}
