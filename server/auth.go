package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	jwtExpiry    = 30 * 24 * time.Hour
	jwtSecretKey = "jwt_secret"
	minSecretLen = 16
	maxNameLen   = 16
	defaultName  = "Player"
)

// ErrInvalidToken is returned for tokens that fail verification
var ErrInvalidToken = errors.New("invalid token")

// Auth issues anonymous peer identities. A token only carries the peer id
// and display name so a reconnecting browser keeps its presence slot.
type Auth struct {
	secret []byte
}

// NewAuth creates an Auth. A configured secret wins; otherwise one is loaded
// from (or generated into) the settings table.
func NewAuth(db *DB, configured string) *Auth {
	if len(configured) >= minSecretLen {
		return &Auth{secret: []byte(configured)}
	}
	if configured != "" {
		log.Printf("auth: configured secret too short, ignoring")
	}
	return &Auth{secret: loadOrCreateSecret(db)}
}

// loadOrCreateSecret loads the JWT secret from the database, or generates
// and persists a new one if none exists.
func loadOrCreateSecret(db *DB) []byte {
	if db != nil {
		if h := db.GetSetting(jwtSecretKey); h != "" {
			if b, err := hex.DecodeString(h); err == nil && len(b) == 32 {
				return b
			}
		}
	}
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic("failed to generate JWT secret: " + err.Error())
	}
	if db != nil {
		if err := db.SetSetting(jwtSecretKey, hex.EncodeToString(secret)); err != nil {
			log.Printf("warning: could not persist JWT secret: %v", err)
		}
	}
	return secret
}

// Identify resolves a hello: a valid token keeps its peer id, anything else
// gets a fresh one. Always returns a usable identity and a token for it.
func (a *Auth) Identify(token, name string) (peerID, displayName, newToken string) {
	displayName = SanitizeName(name)
	if token != "" {
		id, _, err := a.ValidateToken(token)
		if err == nil {
			peerID = id
		}
	}
	if peerID == "" {
		peerID = uuid.NewString()
	}
	newToken, err := a.IssueToken(peerID, displayName)
	if err != nil {
		log.Printf("auth: issue token: %v", err)
	}
	return peerID, displayName, newToken
}

// IssueToken signs a token for peerID
func (a *Auth) IssueToken(peerID, name string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": peerID,
		"usr": name,
		"exp": now.Add(jwtExpiry).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// ValidateToken validates a JWT and returns (peerID, name, error)
func (a *Auth) ValidateToken(tokenStr string) (string, string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	if _, err := uuid.Parse(sub); err != nil {
		return "", "", fmt.Errorf("%w: subject is not a peer id", ErrInvalidToken)
	}
	name, _ := claims["usr"].(string)
	return sub, name, nil
}

// SanitizeName trims a display name to something printable and short
func SanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return defaultName
	}
	if r := []rune(name); len(r) > maxNameLen {
		name = string(r[:maxNameLen])
	}
	return name
}
