package observer

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corewar-arena/corewar/loader"
	"github.com/corewar-arena/corewar/vm"
)

// ErrSessionNotFound is returned when a session is not found.
var ErrSessionNotFound = errors.New("session not found")

// ErrSessionAlreadyExists is returned when trying to create a session with
// an existing ID.
var ErrSessionAlreadyExists = errors.New("session already exists")

// Session is one running (or finished) match: a VirtualMachine plus the
// goroutine driving its Tick loop and the plumbing that broadcasts its
// progress to WebSocket subscribers.
type Session struct {
	ID        string
	Machine   *vm.VirtualMachine
	AffWriter *AffWriter
	CreatedAt time.Time

	maxCycles uint64
	running   atomic.Bool
	stop      chan struct{}
	done      chan struct{}
}

// Status builds the current MatchStatus snapshot for this session.
func (s *Session) Status() MatchStatus {
	m := s.Machine
	status := MatchStatus{
		ID:           s.ID,
		Cycle:        m.Cycles,
		ProcessCount: m.ProcessCount(),
		Running:      s.running.Load(),
	}
	for i := 0; i < m.PlayerCount(); i++ {
		id := m.PlayerID(i)
		status.Players = append(status.Players, PlayerStatus{
			ID:        int32(id),
			Name:      m.PlayerName(id),
			Comment:   "",
			Size:      m.PlayerSize(id),
			Processes: m.PlayerProcesses(id),
			LastLive:  m.PlayerLastLive(id),
		})
	}
	if winner, ok := m.Winner(); ok {
		w := PlayerStatus{
			ID:       int32(winner.ID),
			Name:     winner.Name,
			Comment:  winner.Comment,
			Size:     winner.Size,
			LastLive: m.PlayerLastLive(winner.ID),
		}
		status.Winner = &w
	}
	return status
}

// MatchManager owns the set of live match sessions, mirroring the
// teacher's session registry but keyed to VirtualMachine matches instead
// of single-program debug sessions.
type MatchManager struct {
	sessions    map[string]*Session
	broadcaster *Broadcaster
	broadcastN  uint32
	mu          sync.RWMutex
}

// NewMatchManager returns an empty manager broadcasting a snapshot every
// broadcastEvery cycles (minimum 1).
func NewMatchManager(broadcaster *Broadcaster, broadcastEvery int) *MatchManager {
	if broadcastEvery < 1 {
		broadcastEvery = 1
	}
	return &MatchManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
		broadcastN:  uint32(broadcastEvery),
	}
}

// CreateSession assembles/loads every champion path, builds a fresh
// VirtualMachine, and starts its Tick loop in a background goroutine.
func (sm *MatchManager) CreateSession(req MatchCreateRequest) (*Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	entries, err := loader.BuildMatch(req.ChampionPaths)
	if err != nil {
		return nil, err
	}

	machine := vm.New()
	affWriter := NewAffWriter(sm.broadcaster, sessionID)
	machine.SetAffHandler(affWriter.Handler())

	if err := machine.LoadPlayers(entries); err != nil {
		return nil, err
	}

	maxCycles := req.MaxCycles
	if maxCycles == 0 {
		maxCycles = 100_000_000
	}

	session := &Session{
		ID:        sessionID,
		Machine:   machine,
		AffWriter: affWriter,
		CreatedAt: time.Now(),
		maxCycles: maxCycles,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if _, exists := sm.sessions[sessionID]; exists {
		return nil, ErrSessionAlreadyExists
	}
	sm.sessions[sessionID] = session

	session.running.Store(true)
	go sm.runLoop(session)

	return session, nil
}

// runLoop ticks session's VM until it empties, hits maxCycles, or Stop is
// called, broadcasting a snapshot every broadcastN cycles.
func (sm *MatchManager) runLoop(session *Session) {
	defer close(session.done)
	defer session.running.Store(false)

	for {
		select {
		case <-session.stop:
			return
		default:
		}

		empty := session.Machine.Tick()

		if session.Machine.Cycles%sm.broadcastN == 0 {
			sm.broadcastSnapshot(session)
		}

		if empty || uint64(session.Machine.Cycles) >= session.maxCycles {
			sm.broadcastSnapshot(session)
			if sm.broadcaster != nil {
				sm.broadcaster.BroadcastMatchEvent(session.ID, "finished", nil)
			}
			return
		}
	}
}

func (sm *MatchManager) broadcastSnapshot(session *Session) {
	if sm.broadcaster == nil {
		return
	}
	status := session.Status()
	sm.broadcaster.BroadcastSnapshot(session.ID, map[string]interface{}{
		"cycle":        status.Cycle,
		"processCount": status.ProcessCount,
		"players":      status.Players,
	})
}

// GetSession retrieves a session by ID.
func (sm *MatchManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// StopSession signals the session's Tick loop to stop and waits for it.
func (sm *MatchManager) StopSession(sessionID string) error {
	session, err := sm.GetSession(sessionID)
	if err != nil {
		return err
	}
	close(session.stop)
	<-session.done
	return nil
}

// DestroySession stops (if needed) and removes a session.
func (sm *MatchManager) DestroySession(sessionID string) error {
	sm.mu.Lock()
	session, exists := sm.sessions[sessionID]
	if !exists {
		sm.mu.Unlock()
		return ErrSessionNotFound
	}
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if session.running.Load() {
		close(session.stop)
		<-session.done
	}
	return nil
}

// ListSessions returns every active session ID.
func (sm *MatchManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of tracked sessions.
func (sm *MatchManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
