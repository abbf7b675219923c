// internal/auth/session.go

// Package auth issues and verifies reconnect tokens. A token binds a
// player id to a room code so a device can resume its seat after a
// restart without any account system behind it.
package auth

import (
	"crypto/ed25519"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenLifetime bounds how long a reconnect token stays usable.
// Rooms are short-lived; a day is generous.
const DefaultTokenLifetime = 24 * time.Hour

// Minter signs and verifies reconnect tokens with an ed25519 key pair.
type Minter struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	lifetime   time.Duration
}

// NewMinter generates a fresh key pair at runtime. Tokens only need to
// verify against the process that minted them, so ephemeral keys are
// fine; a restart invalidates outstanding tokens and players rejoin.
func NewMinter() (*Minter, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &Minter{privateKey: priv, publicKey: pub, lifetime: DefaultTokenLifetime}, nil
}

// NewMinterFromPath reads an ed25519 key pair from file, for
// deployments that want tokens to survive restarts.
func NewMinterFromPath(privatePath, publicPath string) (*Minter, error) {
	priv, err := os.ReadFile(privatePath)
	if err != nil {
		return nil, fmt.Errorf("read private key file: %w", err)
	}
	pub, err := os.ReadFile(publicPath)
	if err != nil {
		return nil, fmt.Errorf("read public key file: %w", err)
	}
	return &Minter{
		privateKey: ed25519.PrivateKey(priv),
		publicKey:  ed25519.PublicKey(pub),
		lifetime:   DefaultTokenLifetime,
	}, nil
}

// WithLifetime overrides the token lifetime. Zero means tokens never
// expire.
func (m *Minter) WithLifetime(d time.Duration) *Minter {
	m.lifetime = d
	return m
}

// Mint creates a signed token with "sub" = playerID and "room" = the
// room code.
func (m *Minter) Mint(playerID, roomCode string) (string, error) {
	claims := jwt.MapClaims{
		"sub":  playerID,
		"room": roomCode,
		"iat":  time.Now().Unix(),
	}
	if m.lifetime != 0 {
		claims["exp"] = time.Now().Add(m.lifetime).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(m.privateKey)
}

// Verify checks a token and returns the player id and room code it was
// minted for.
func (m *Minter) Verify(tokenString string) (playerID, roomCode string, err error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.publicKey, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", "", fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", fmt.Errorf("invalid jwt claims")
	}
	playerID, ok = claims["sub"].(string)
	if !ok {
		return "", "", fmt.Errorf("missing sub in jwt")
	}
	roomCode, ok = claims["room"].(string)
	if !ok {
		return "", "", fmt.Errorf("missing room in jwt")
	}
	return playerID, roomCode, nil
}
