package game

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quipset/quipset/internal/models"
	"github.com/quipset/quipset/internal/prompts"
)

// roomCodeAlphabet omits easily confused letters.
const roomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ"

const roomCodeLength = 4

// binding records which room and participant a connection handle belongs
// to, for reverse lookup on inbound traffic and disconnects.
type binding struct {
	Code          string
	ParticipantID uuid.UUID
}

// Registry owns every live GameSession, keyed by room code, and the
// connection-handle reverse map. Sessions are never destroyed during
// normal play; cleanup is a process-level concern.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*GameSession
	conns    map[string]binding

	source prompts.Source
	log    *logrus.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(source prompts.Source, logger *logrus.Logger) *Registry {
	return &Registry{
		sessions: make(map[string]*GameSession),
		conns:    make(map[string]binding),
		source:   source,
		log:      logger,
	}
}

// CreateSession allocates a fresh session in phase Waiting with the given
// creator as its first participant, under a room code guaranteed unique
// among live sessions.
func (r *Registry) CreateSession(creatorName, creatorHandle string, settings models.Settings) (*GameSession, models.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code := randomRoomCode()
	for r.sessions[code] != nil {
		code = randomRoomCode()
	}
	s := NewGameSession(code, creatorName, creatorHandle, settings, r.source, r.log)
	r.sessions[code] = s
	creator := s.Participants()[0]
	if creatorHandle != "" {
		r.conns[creatorHandle] = binding{Code: code, ParticipantID: creator.ID}
	}
	r.log.WithFields(logrus.Fields{"room": code, "creator": creatorName}).Info("session created")
	return s, creator
}

// Get returns the session for a room code.
func (r *Registry) Get(code string) (*GameSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.sessions[code]
	if s == nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// BindConnection joins (or rejoins) a participant by name and records the
// connection handle for reverse lookup.
func (r *Registry) BindConnection(code, name, handle string) (*GameSession, models.Participant, error) {
	s, err := r.Get(code)
	if err != nil {
		return nil, models.Participant{}, err
	}
	p, err := s.Join(name, handle)
	if err != nil {
		return nil, models.Participant{}, err
	}
	r.mu.Lock()
	r.conns[handle] = binding{Code: code, ParticipantID: p.ID}
	r.mu.Unlock()
	return s, p, nil
}

// RebindConnection reattaches a handle to a known participant id, for the
// token-verified creator-reconnect path.
func (r *Registry) RebindConnection(code string, participantID uuid.UUID, handle string) (*GameSession, models.Participant, error) {
	s, err := r.Get(code)
	if err != nil {
		return nil, models.Participant{}, err
	}
	p, err := s.Rebind(participantID, handle)
	if err != nil {
		return nil, models.Participant{}, err
	}
	r.mu.Lock()
	r.conns[handle] = binding{Code: code, ParticipantID: p.ID}
	r.mu.Unlock()
	return s, p, nil
}

// UnbindConnection marks the handle's participant disconnected and drops
// the reverse mapping. The participant and the session always survive.
func (r *Registry) UnbindConnection(handle string) {
	r.mu.Lock()
	b, ok := r.conns[handle]
	if ok {
		delete(r.conns, handle)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	if s, err := r.Get(b.Code); err == nil {
		s.Disconnect(b.ParticipantID)
	}
}

// Resolve looks up the (room, participant) pair for a connection handle.
func (r *Registry) Resolve(handle string) (code string, participantID uuid.UUID, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.conns[handle]
	return b.Code, b.ParticipantID, ok
}

func randomRoomCode() string {
	b := make([]byte, roomCodeLength)
	for i := range b {
		b[i] = roomCodeAlphabet[rand.Intn(len(roomCodeAlphabet))]
	}
	return string(b)
}
