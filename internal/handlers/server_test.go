// internal/handlers/server_test.go
package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipset/quipset/internal/auth"
	"github.com/quipset/quipset/internal/game"
)

type stubSource struct{}

func (stubSource) FetchPrompts(ctx context.Context, difficulty string) ([]string, error) {
	return []string{
		"stub one: ____", "stub two: ____", "stub three: ____",
		"stub four: ____", "stub five: ____",
	}, nil
}

func (stubSource) GenerateAnswer(ctx context.Context, prompt string) (string, error) {
	return "stub answer", nil
}

func newTestServer(t *testing.T) *GameServer {
	t.Helper()
	require.NoError(t, auth.Init())
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	registry := game.NewRegistry(stubSource{}, logger)
	return NewGameServer(registry, nil, logger)
}

func TestCreateSessionHandler(t *testing.T) {
	gs := newTestServer(t)

	body := strings.NewReader(`{"name":"alice","settings":{"maxRounds":2}}`)
	req := httptest.NewRequest(http.MethodPost, "/session/create", body)
	w := httptest.NewRecorder()
	gs.CreateSessionHandler()(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Code          string `json:"code"`
		ParticipantID string `json:"participantId"`
		CreatorToken  string `json:"creatorToken"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Code, 4)

	pid, err := uuid.Parse(resp.ParticipantID)
	require.NoError(t, err)

	room, tokenPID, err := auth.VerifyCreatorToken(resp.CreatorToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Code, room)
	assert.Equal(t, pid, tokenPID)

	s, err := gs.Registry.Get(resp.Code)
	require.NoError(t, err)
	assert.Equal(t, pid, s.CreatorID())
	defer s.Close()
}

func TestCreateSessionHandlerRejectsBadRequests(t *testing.T) {
	gs := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/session/create", nil)
	w := httptest.NewRecorder()
	gs.CreateSessionHandler()(w, req)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/session/create", strings.NewReader(`{"name":"  "}`))
	w = httptest.NewRecorder()
	gs.CreateSessionHandler()(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/session/create", strings.NewReader(`{not json`))
	w = httptest.NewRecorder()
	gs.CreateSessionHandler()(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQRHandler(t *testing.T) {
	gs := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/session/qr/ZZZZ", nil)
	w := httptest.NewRecorder()
	gs.QRHandler()(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	create := httptest.NewRequest(http.MethodPost, "/session/create", strings.NewReader(`{"name":"alice"}`))
	cw := httptest.NewRecorder()
	gs.CreateSessionHandler()(cw, create)
	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(cw.Body).Decode(&resp))
	s, err := gs.Registry.Get(resp.Code)
	require.NoError(t, err)
	defer s.Close()

	req = httptest.NewRequest(http.MethodGet, "/session/qr/"+resp.Code, nil)
	w = httptest.NewRecorder()
	gs.QRHandler()(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Body.Bytes())
}
