// Package auth issues and verifies the signed creator token that guards
// creator-only session commands and the creator-reconnect path.
package auth

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
)

// tokenLifetime bounds how long a creator token stays valid; comfortably
// longer than any session.
const tokenLifetime = 24 * time.Hour

// Init generates a fresh ed25519 key pair at startup. Tokens do not
// survive a restart, which matches the in-memory session model.
func Init() error {
	var err error
	publicKey, privateKey, err = ed25519.GenerateKey(nil)
	if err != nil {
		return fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return nil
}

// CreateCreatorToken signs a token binding the creator's participant id to
// a room code.
func CreateCreatorToken(roomCode string, participantID uuid.UUID) (string, error) {
	claims := jwt.MapClaims{
		"sub":  participantID.String(),
		"room": roomCode,
		"exp":  time.Now().Add(tokenLifetime).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(privateKey)
}

// VerifyCreatorToken validates a token and returns the room code and
// creator participant id it was issued for.
func VerifyCreatorToken(tokenString string) (roomCode string, participantID uuid.UUID, err error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return publicKey, nil
	})
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", uuid.Nil, fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", uuid.Nil, fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return "", uuid.Nil, fmt.Errorf("missing sub in jwt")
	}
	room, ok := claims["room"].(string)
	if !ok {
		return "", uuid.Nil, fmt.Errorf("missing room in jwt")
	}
	pid, err := uuid.Parse(sub)
	if err != nil {
		return "", uuid.Nil, fmt.Errorf("invalid participant id in jwt: %w", err)
	}
	return room, pid, nil
}
