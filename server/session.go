package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

const maxSessions = 100

var ErrTooManySessions = errors.New("session limit reached")

// Session represents a game session that players can join
type Session struct {
	ID   string
	Name string
	Game *Game

	cancel context.CancelFunc
}

// SessionManager handles creation and lookup of sessions. Every session
// runs its own Game loop under the manager's context.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ctx      context.Context
	cfg      *Config
	recorder Recorder
	logger   *slog.Logger
}

func NewSessionManager(ctx context.Context, cfg *Config, recorder Recorder, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		sessions: make(map[string]*Session),
		ctx:      ctx,
		cfg:      cfg,
		recorder: recorder,
		logger:   logger,
	}
}

// CreateSession starts a new game session
func (sm *SessionManager) CreateSession(name string) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= maxSessions {
		return nil, ErrTooManySessions
	}

	id := GenerateUUID()
	game, err := NewGame(id, sm.cfg, sm.recorder, sm.logger)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(sm.ctx)
	sess := &Session{ID: id, Name: name, Game: game, cancel: cancel}
	sm.sessions[id] = sess
	go game.Run(ctx)

	sm.logger.Info("session created", "session", id, "name", name)
	return sess, nil
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemovePlayer removes a player and closes the session once it is empty
func (sm *SessionManager) RemovePlayer(sessionID, playerID string) {
	sm.mu.RLock()
	sess, ok := sm.sessions[sessionID]
	sm.mu.RUnlock()
	if !ok {
		return
	}
	sess.Game.RemovePlayer(playerID)

	if sess.Game.PlayerCount() == 0 {
		sess.cancel()
		sm.mu.Lock()
		delete(sm.sessions, sessionID)
		sm.mu.Unlock()
		sm.logger.Info("session closed", "session", sessionID)
	}
}

// ListSessions returns info about all active sessions
func (sm *SessionManager) ListSessions() []SessionInfo {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	list := make([]SessionInfo, 0, len(sm.sessions))
	for _, sess := range sm.sessions {
		list = append(list, SessionInfo{
			ID:      sess.ID,
			Name:    sess.Name,
			Players: sess.Game.PlayerCount(),
		})
	}
	return list
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StopAll stops every running game
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for id, sess := range sm.sessions {
		sess.cancel()
		delete(sm.sessions, id)
	}
}
