package main

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	maxSessions  = 100
	worldTimeout = 5 * time.Second
)

// Session is one player's game plus the identity that owns it
type Session struct {
	ID     string
	PeerID string
	Name   string
	Game   *Game
}

// SessionManager handles creation and lookup of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	tuning   Tuning
	provider *WorldProvider
	presence PresenceService // may be nil
	events   EventSink       // may be nil
}

// NewSessionManager creates a new SessionManager
func NewSessionManager(t Tuning, provider *WorldProvider, presence PresenceService, events EventSink) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		tuning:   t,
		provider: provider,
		presence: presence,
		events:   events,
	}
}

// CreateSession starts a game for a peer and loads its world in the
// background. Returns nil if the limit is reached.
func (sm *SessionManager) CreateSession(peerID, name string) *Session {
	sm.mu.Lock()
	if len(sm.sessions) >= maxSessions {
		sm.mu.Unlock()
		return nil
	}
	id := uuid.NewString()
	game := NewGame(peerID, name, id, sm.tuning, sm.presence, sm.events)
	sess := &Session{
		ID:     id,
		PeerID: peerID,
		Name:   name,
		Game:   game,
	}
	sm.sessions[id] = sess
	sm.mu.Unlock()

	go game.Run()
	go sm.loadWorld(sess)
	if sm.events != nil {
		sm.events.Track(EvtSessionStart, peerID, id, nil)
	}
	return sess
}

// loadWorld fetches the layout outside the tick and hands it to the game
func (sm *SessionManager) loadWorld(sess *Session) {
	ctx, cancel := context.WithTimeout(context.Background(), worldTimeout)
	defer cancel()
	var (
		l      *Layout
		status string
	)
	if sm.provider != nil {
		l, status = sm.provider.Fetch(ctx, sm.tuning.GoalZ)
	} else {
		l = GenerateLayout(sm.tuning.GoalZ, 1)
	}
	sess.Game.SetLayout(l, status)
}

// GetSession returns a session by ID
func (sm *SessionManager) GetSession(id string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.sessions[id]
}

// RemoveSession stops a session and clears its presence
func (sm *SessionManager) RemoveSession(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	delete(sm.sessions, id)
	sm.mu.Unlock()
	if !ok {
		return
	}
	sess.Game.Stop()
	if sm.presence != nil {
		sm.presence.Leave(sess.PeerID)
	}
	if sm.events != nil {
		sm.events.Track(EvtSessionEnd, sess.PeerID, sess.ID, nil)
	}
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// StopAll stops every session
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	sessions := sm.sessions
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()
	for _, sess := range sessions {
		sess.Game.Stop()
	}
}
