// Package session tracks whether the user unlocked the application and
// restores that across runs through a Storage.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finsheets/internal/core"
	"finsheets/internal/log"
)

type State int

const (
	StateLoggedOut State = iota
	StateLoggingIn
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateLoggedOut:
		return "logged_out"
	case StateLoggingIn:
		return "logging_in"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// LoggedIn covers both loading and ready.
func (s State) LoggedIn() bool {
	return s == StateLoading || s == StateReady
}

var ErrBusy = errors.New("session: login already in progress")

// Loader fills the sheet store once a credential is accepted.
type Loader interface {
	LoadAll(ctx context.Context, cred core.Credential) error
	Reset()
}

type Options struct {
	// Password is the only credential that unlocks the application.
	Password   core.Credential
	LoginDelay time.Duration
	Logger     *log.Logger
}

type Session struct {
	storage Storage
	loader  Loader
	opts    Options
	logger  *log.Logger

	mu      sync.Mutex
	state   State
	cred    core.Credential
	loadErr error
}

func New(storage Storage, loader Loader, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	return &Session{
		storage: storage,
		loader:  loader,
		opts:    opts,
		logger:  opts.Logger.WithComponent(log.ComponentSession),
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Credential is empty unless logged in.
func (s *Session) Credential() core.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cred
}

// LoadError is the error of the last load; loading ends either way.
func (s *Session) LoadError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadErr
}

// Login checks input after the login delay. A mismatch returns
// core.ErrInvalidPassword and leaves the session logged out. A match is
// persisted, then sheets are loaded; the returned error is the load error.
func (s *Session) Login(ctx context.Context, input string) error {
	s.mu.Lock()
	if s.state == StateLoggingIn || s.state == StateLoading {
		s.mu.Unlock()
		return ErrBusy
	}
	s.state = StateLoggingIn
	s.mu.Unlock()

	if err := s.pause(ctx); err != nil {
		s.setState(StateLoggedOut)
		return err
	}

	cred := core.Credential(input)
	if !cred.Matches(s.opts.Password) {
		s.setState(StateLoggedOut)
		s.logger.WarnContext(ctx, "Login rejected", log.FieldOperation, log.OpLogin)
		return core.ErrInvalidPassword
	}

	if err := s.storage.Set(KeyAuth, "true"); err != nil {
		s.setState(StateLoggedOut)
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.storage.Set(KeyPassword, input); err != nil {
		s.setState(StateLoggedOut)
		return fmt.Errorf("persist session: %w", err)
	}

	s.logger.InfoContext(ctx, "Login accepted",
		log.NewFields().WithOperation(log.OpLogin).WithTenant(cred.Tenant()).ToSlice()...)
	return s.load(ctx, cred)
}

// Restore logs in from storage without prompting when both the flag and
// the password are present. It reports whether a session was restored.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	flag, _ := s.storage.Get(KeyAuth)
	password, ok := s.storage.Get(KeyPassword)
	if flag != "true" || !ok || password == "" {
		return false, nil
	}
	return true, s.load(ctx, core.Credential(password))
}

// Logout forgets the stored credential and the loaded sheets.
func (s *Session) Logout() error {
	s.mu.Lock()
	s.state = StateLoggedOut
	s.cred = ""
	s.loadErr = nil
	s.mu.Unlock()

	s.loader.Reset()
	return s.storage.Delete(KeyAuth, KeyPassword, KeyCurrentSheet)
}

// CurrentSheet is the sheet selected in an earlier run, if any.
func (s *Session) CurrentSheet() string {
	id, _ := s.storage.Get(KeyCurrentSheet)
	return id
}

func (s *Session) SetCurrentSheet(id string) error {
	if !s.State().LoggedIn() {
		return errors.New("session: not logged in")
	}
	return s.storage.Set(KeyCurrentSheet, id)
}

func (s *Session) load(ctx context.Context, cred core.Credential) error {
	s.mu.Lock()
	s.state = StateLoading
	s.cred = cred
	s.loadErr = nil
	s.mu.Unlock()

	err := s.loader.LoadAll(ctx, cred)
	if err != nil {
		s.logger.ErrorContext(ctx, "Loading sheets failed",
			log.NewFields().WithOperation(log.OpLoad).WithError(err).ToSlice()...)
	}

	s.mu.Lock()
	s.state = StateReady
	s.loadErr = err
	s.mu.Unlock()
	return err
}

func (s *Session) pause(ctx context.Context) error {
	if s.opts.LoginDelay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.opts.LoginDelay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
