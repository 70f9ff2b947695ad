// Package handlers binds the transport layer (HTTP + WebSocket) to the
// session registry. The state machine itself never sees a connection; this
// package drains each session's outbox and fans events out to the room.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/quipset/quipset/internal/auth"
	"github.com/quipset/quipset/internal/game"
	"github.com/quipset/quipset/internal/journal"
	"github.com/quipset/quipset/internal/models"
)

// GameServer holds the shared state of the transport gateway.
type GameServer struct {
	Registry *game.Registry
	Journal  *journal.Journal
	Logger   *logrus.Logger

	// Permissive allows single-participant session starts (testing mode).
	Permissive bool

	// DefaultDifficulty applies when the create payload leaves the prompt
	// difficulty tag empty.
	DefaultDifficulty string

	mu   sync.Mutex
	hubs map[string]*sessionHub
}

// sessionHub tracks the live connections of one room for event fan-out.
type sessionHub struct {
	mu    sync.Mutex
	conns map[uuid.UUID]*wsConn
}

// wsConn is a single participant's outbound queue.
type wsConn struct {
	participantID uuid.UUID
	handle        string
	out           chan map[string]interface{}
}

// write pushes a message non-blockingly; a full queue drops the message.
func (c *wsConn) write(logger *logrus.Logger, msg map[string]interface{}) {
	select {
	case c.out <- msg:
	default:
		logger.Warnf("outbound queue full for participant %s, dropped %v message", c.participantID, msg["type"])
	}
}

func (c *wsConn) writeError(logger *logrus.Logger, reason string) {
	c.write(logger, map[string]interface{}{
		"type":    string(game.EventError),
		"payload": map[string]interface{}{"reason": reason},
	})
}

// NewGameServer builds the gateway.
func NewGameServer(registry *game.Registry, j *journal.Journal, logger *logrus.Logger) *GameServer {
	return &GameServer{
		Registry: registry,
		Journal:  j,
		Logger:   logger,
		hubs:     make(map[string]*sessionHub),
	}
}

// hubFor returns the room's hub, starting the outbox fan-out loop the
// first time a room is seen.
func (gs *GameServer) hubFor(code string, s *game.GameSession) *sessionHub {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	hub, ok := gs.hubs[code]
	if !ok {
		hub = &sessionHub{conns: make(map[uuid.UUID]*wsConn)}
		gs.hubs[code] = hub
		go gs.fanOut(code, s, hub)
	}
	return hub
}

// fanOut drains the session outbox on every notify signal and delivers
// events to the room's connections. Runs for the session's lifetime.
func (gs *GameServer) fanOut(code string, s *game.GameSession, hub *sessionHub) {
	for range s.Notify() {
		for _, ev := range s.DrainOutbox() {
			gs.deliver(code, hub, ev)
		}
	}
}

func (gs *GameServer) deliver(code string, hub *sessionHub, ev game.Event) {
	if gs.Journal != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := gs.Journal.Publish(ctx, code, ev); err != nil {
			gs.Logger.Warnf("journal publish failed: %v", err)
		}
		cancel()
	}

	msg := map[string]interface{}{
		"type":    string(ev.Type),
		"payload": ev.Payload,
	}
	hub.mu.Lock()
	defer hub.mu.Unlock()
	if ev.To != nil {
		if c, ok := hub.conns[*ev.To]; ok {
			c.write(gs.Logger, msg)
		}
		return
	}
	for _, c := range hub.conns {
		c.write(gs.Logger, msg)
	}
}

// createSessionRequest is the POST /session/create payload.
type createSessionRequest struct {
	Name     string          `json:"name"`
	Settings models.Settings `json:"settings"`
}

// CreateSessionHandler allocates a session and returns the room code plus
// a signed creator token for creator-only commands and reconnection.
func (gs *GameServer) CreateSessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var req createSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad create request payload", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			http.Error(w, "missing creator name", http.StatusBadRequest)
			return
		}
		settings := req.Settings
		settings.Permissive = settings.Permissive || gs.Permissive
		if settings.PromptDifficultyTag == "" {
			settings.PromptDifficultyTag = gs.DefaultDifficulty
		}

		s, creator := gs.Registry.CreateSession(req.Name, "", settings)
		token, err := auth.CreateCreatorToken(s.Code(), creator.ID)
		if err != nil {
			gs.Logger.Errorf("failed to sign creator token: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"code":          s.Code(),
			"participantId": creator.ID.String(),
			"creatorToken":  token,
		})
	}
}

// QRHandler serves a QR code PNG encoding the room's join URL.
func (gs *GameServer) QRHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimPrefix(r.URL.Path, "/session/qr/")
		if _, err := gs.Registry.Get(code); err != nil {
			http.Error(w, "unknown room code", http.StatusNotFound)
			return
		}
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		joinURL := fmt.Sprintf("%s://%s/session/ws/%s", scheme, r.Host, code)
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			gs.Logger.Errorf("failed to encode join QR: %v", err)
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(png)
	}
}
