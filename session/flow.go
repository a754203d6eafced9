package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/s0up4200/filmpire/tmdb"
)

// ErrInvalidState is returned when an operation is not allowed from the
// flow's current state
var ErrInvalidState = errors.New("invalid session state")

// State is a step of the request-token handshake
type State int

const (
	StateAnonymous State = iota
	StateTokenRequested
	StateAwaitingApproval
	StateSessionEstablished
)

func (s State) String() string {
	switch s {
	case StateTokenRequested:
		return "token_requested"
	case StateAwaitingApproval:
		return "awaiting_approval"
	case StateSessionEstablished:
		return "session_established"
	default:
		return "anonymous"
	}
}

// Session is an established, authenticated TMDB session
type Session struct {
	ID        string
	AccountID int64
	Account   *tmdb.Account
}

// Resetter drops cached data that belongs to a session
type Resetter interface {
	Reset()
}

// Flow drives the TMDB login handshake and owns the resulting session.
type Flow struct {
	auth        tmdb.Authenticator
	store       Store
	cache       Resetter
	redirectURL string
	logger      zerolog.Logger

	// op serializes transitions; mu guards the fields below for readers
	op           sync.Mutex
	mu           sync.RWMutex
	state        State
	requestToken string
	session      Session
}

// FlowOption configures a Flow
type FlowOption func(*Flow)

// WithCache resets c on logout
func WithCache(c Resetter) FlowOption {
	return func(f *Flow) { f.cache = c }
}

// WithRedirectURL is where TMDB sends the user after approval
func WithRedirectURL(u string) FlowOption {
	return func(f *Flow) { f.redirectURL = u }
}

// WithLogger sets the flow logger
func WithLogger(logger zerolog.Logger) FlowOption {
	return func(f *Flow) {
		f.logger = logger.With().Str("component", "session").Logger()
	}
}

// NewFlow creates a flow in the Anonymous state. Call Start to resume
// persisted state.
func NewFlow(auth tmdb.Authenticator, store Store, opts ...FlowOption) *Flow {
	f := &Flow{
		auth:   auth,
		store:  store,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// State returns the current handshake state
func (f *Flow) State() State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.state
}

// Session returns the established session, if any
func (f *Flow) Session() (Session, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.state != StateSessionEstablished {
		return Session{}, false
	}
	return f.session, true
}

// Start resumes from persisted state. A stored session id goes straight to
// the profile fetch; a stored request token means the user is returning
// from approval and the token is exchanged.
func (f *Flow) Start(ctx context.Context) (State, error) {
	f.op.Lock()
	defer f.op.Unlock()

	sessionID, ok, err := f.store.Get(KeySessionID)
	if err != nil {
		return f.State(), err
	}
	if ok && sessionID != "" {
		account, err := f.auth.GetAccount(ctx, sessionID)
		if err != nil {
			if errors.Is(err, tmdb.ErrAuth) {
				f.logger.Warn().Err(err).Msg("Stored session rejected, clearing it")
				if derr := f.store.Delete(KeySessionID); derr != nil {
					f.logger.Error().Err(derr).Msg("Failed to clear rejected session")
				}
			}
			return f.State(), fmt.Errorf("failed to restore session: %w", err)
		}
		f.establish(sessionID, account)
		f.logger.Debug().Int64("account_id", account.ID).Msg("Session restored")
		return StateSessionEstablished, nil
	}

	token, ok, err := f.store.Get(KeyRequestToken)
	if err != nil {
		return f.State(), err
	}
	if !ok || token == "" {
		return StateAnonymous, nil
	}

	f.setState(StateAwaitingApproval, token)
	if err := f.complete(ctx); err != nil {
		return StateAwaitingApproval, err
	}
	return StateSessionEstablished, nil
}

// Begin requests a fresh token, persists it and returns the URL where the
// user approves it.
func (f *Flow) Begin(ctx context.Context) (string, error) {
	f.op.Lock()
	defer f.op.Unlock()

	origin := f.State()
	if origin == StateSessionEstablished {
		return "", fmt.Errorf("%w: already signed in", ErrInvalidState)
	}
	f.mu.RLock()
	prevToken := f.requestToken
	f.mu.RUnlock()

	f.setState(StateTokenRequested, prevToken)

	token, err := f.auth.NewRequestToken(ctx)
	if err != nil {
		f.setState(origin, prevToken)
		return "", err
	}
	if err := f.store.Set(KeyRequestToken, token.Token); err != nil {
		f.setState(origin, prevToken)
		return "", err
	}

	f.setState(StateAwaitingApproval, token.Token)
	f.logger.Debug().Msg("Request token issued, awaiting approval")

	return f.auth.ApprovalURL(token.Token, f.redirectURL), nil
}

// Complete exchanges the approved request token for a session
func (f *Flow) Complete(ctx context.Context) (Session, error) {
	f.op.Lock()
	defer f.op.Unlock()

	if err := f.complete(ctx); err != nil {
		return Session{}, err
	}
	s, _ := f.Session()
	return s, nil
}

func (f *Flow) complete(ctx context.Context) error {
	f.mu.RLock()
	state, token := f.state, f.requestToken
	f.mu.RUnlock()

	if state != StateAwaitingApproval {
		return fmt.Errorf("%w: no request token awaiting approval (state %s)", ErrInvalidState, state)
	}

	sessionID, err := f.auth.NewSession(ctx, token)
	if err != nil {
		return err
	}
	account, err := f.auth.GetAccount(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load account: %w", err)
	}
	if err := f.store.Set(KeySessionID, sessionID); err != nil {
		return err
	}
	if err := f.store.Delete(KeyRequestToken); err != nil {
		f.logger.Warn().Err(err).Msg("Failed to clear used request token")
	}

	f.establish(sessionID, account)
	f.logger.Info().Str("user", account.GetDisplayName()).Msg("Signed in to TMDB")
	return nil
}

// Logout forgets the session locally, drops session-scoped cache data and
// asks TMDB to revoke the session. Revocation failures are only logged.
func (f *Flow) Logout(ctx context.Context) error {
	f.op.Lock()
	defer f.op.Unlock()

	f.mu.RLock()
	sessionID := f.session.ID
	f.mu.RUnlock()
	if sessionID == "" {
		if stored, ok, err := f.store.Get(KeySessionID); err == nil && ok {
			sessionID = stored
		}
	}

	if sessionID != "" {
		if err := f.auth.DeleteSession(ctx, sessionID); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to revoke session upstream")
		}
	}

	err := f.store.Delete(KeyRequestToken, KeySessionID)

	f.mu.Lock()
	f.state = StateAnonymous
	f.requestToken = ""
	f.session = Session{}
	f.mu.Unlock()

	if f.cache != nil {
		f.cache.Reset()
	}
	f.logger.Info().Msg("Signed out")
	return err
}

func (f *Flow) establish(sessionID string, account *tmdb.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateSessionEstablished
	f.requestToken = ""
	f.session = Session{ID: sessionID, AccountID: account.ID, Account: account}
}

func (f *Flow) setState(state State, token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	f.requestToken = token
}
