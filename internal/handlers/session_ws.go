package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/quipset/quipset/internal/auth"
	"github.com/quipset/quipset/internal/game"
	"github.com/quipset/quipset/internal/middleware"
	"github.com/quipset/quipset/internal/models"
)

// inboundPacket is the envelope for every client -> server WS message.
type inboundPacket struct {
	Type        string `json:"type"`
	PromptID    string `json:"promptId,omitempty"`
	Text        string `json:"text,omitempty"`
	CandidateID string `json:"candidateId,omitempty"`
}

// SessionWSHandler upgrades GET /session/ws/{code}?name=X (or ?token=T for
// the creator-reconnect path) and pumps packets between the client and the
// room's state machine.
func (gs *GameServer) SessionWSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.TrimPrefix(r.URL.Path, "/session/ws/")

		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:       []string{"quipset"},
			InsecureSkipVerify: true,
		})
		if err != nil {
			gs.Logger.Warnf("failed to accept websocket: %v", err)
			return
		}
		if c.Subprotocol() != "quipset" {
			c.Close(websocket.StatusCode(BadSubprotocolError), "client must speak the quipset subprotocol")
			return
		}

		handle := uuid.NewString()
		var (
			s *game.GameSession
			p models.Participant
		)
		if token := r.URL.Query().Get("token"); token != "" {
			room, pid, verr := auth.VerifyCreatorToken(token)
			if verr != nil || room != code {
				c.Close(websocket.StatusCode(BadJoinRequestError), "invalid creator token")
				return
			}
			s, p, err = gs.Registry.RebindConnection(code, pid, handle)
		} else if name := strings.TrimSpace(r.URL.Query().Get("name")); name != "" {
			s, p, err = gs.Registry.BindConnection(code, name, handle)
		} else {
			c.Close(websocket.StatusCode(BadJoinRequestError), "missing name or token")
			return
		}
		if err != nil {
			switch {
			case errors.Is(err, game.ErrSessionNotFound):
				c.Close(websocket.StatusCode(InvalidRoomError), "no such room")
			case errors.Is(err, game.ErrSessionFull):
				c.Close(websocket.StatusCode(SessionFullError), "room is full")
			default:
				c.Close(websocket.StatusCode(BadJoinRequestError), err.Error())
			}
			return
		}

		hub := gs.hubFor(code, s)
		conn := &wsConn{
			participantID: p.ID,
			handle:        handle,
			out:           make(chan map[string]interface{}, 32),
		}
		hub.mu.Lock()
		hub.conns[p.ID] = conn
		hub.mu.Unlock()

		// Direct ack so the client learns its participant id before any
		// broadcast arrives.
		conn.write(gs.Logger, map[string]interface{}{
			"type": "joined",
			"payload": map[string]interface{}{
				"code":          code,
				"participantId": p.ID.String(),
				"name":          p.Name,
			},
		})

		ctx := r.Context()
		go gs.writePump(ctx, c, conn)
		readErr := gs.readPump(ctx, c, s, conn)

		hub.mu.Lock()
		if hub.conns[p.ID] == conn {
			delete(hub.conns, p.ID)
		}
		hub.mu.Unlock()
		gs.Registry.UnbindConnection(handle)
		middleware.LogWebSocketDisconnect(gs.Logger, r.RemoteAddr, code, readErr)
		c.Close(websocket.StatusNormalClosure, "")
	}
}

// writePump serializes the connection's outbound queue onto the socket.
func (gs *GameServer) writePump(ctx context.Context, c *websocket.Conn, conn *wsConn) {
	for {
		select {
		case msg := <-conn.out:
			data, err := json.Marshal(msg)
			if err != nil {
				gs.Logger.Errorf("failed to marshal outbound message: %v", err)
				continue
			}
			wctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			err = c.Write(wctx, websocket.MessageText, data)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readPump decodes inbound packets and routes them to the session. Command
// errors go back to the sender only; they never close the socket.
func (gs *GameServer) readPump(ctx context.Context, c *websocket.Conn, s *game.GameSession, conn *wsConn) error {
	for {
		_, data, err := c.Read(ctx)
		if err != nil {
			return err
		}
		var pkt inboundPacket
		if err := json.Unmarshal(data, &pkt); err != nil {
			conn.writeError(gs.Logger, "malformed packet")
			continue
		}
		if err := gs.dispatch(s, conn.participantID, pkt); err != nil {
			conn.writeError(gs.Logger, err.Error())
		}
	}
}

func (gs *GameServer) dispatch(s *game.GameSession, participantID uuid.UUID, pkt inboundPacket) error {
	switch pkt.Type {
	case "start":
		return s.Start(participantID)
	case "answer":
		promptID, err := uuid.Parse(pkt.PromptID)
		if err != nil {
			return errors.New("bad promptId")
		}
		return s.SubmitAnswer(participantID, promptID, pkt.Text)
	case "vote":
		candidateID, err := uuid.Parse(pkt.CandidateID)
		if err != nil {
			return errors.New("bad candidateId")
		}
		return s.SubmitVote(participantID, candidateID)
	case "add_bot":
		_, err := s.AddSyntheticParticipant(participantID)
		return err
	case "remove_bot":
		return s.RemoveSyntheticParticipant(participantID)
	default:
		return errors.New("unknown packet type: " + pkt.Type)
	}
}
