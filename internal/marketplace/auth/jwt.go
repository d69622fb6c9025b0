package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the session token claims the marketplace understands. The
// subject carries the opaque user id.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// JWTManager validates Ed25519-signed session tokens.
type JWTManager struct {
	privateKey    ed25519.PrivateKey
	publicKey     ed25519.PublicKey
	tokenDuration time.Duration
}

// NewJWTManager builds a manager from a hex-encoded Ed25519 seed.
func NewJWTManager(hexSeed string) (*JWTManager, error) {
	seed, err := hex.DecodeString(hexSeed)
	if err != nil {
		return nil, fmt.Errorf("JWT private key must be a valid hex-encoded string: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("JWT private key seed must be exactly %d bytes for Ed25519, got %d bytes", ed25519.SeedSize, len(seed))
	}

	privateKey := ed25519.NewKeyFromSeed(seed)
	return &JWTManager{
		privateKey:    privateKey,
		publicKey:     privateKey.Public().(ed25519.PublicKey),
		tokenDuration: 24 * time.Hour,
	}, nil
}

// IssueToken signs a session token for the given user. Used by tests and
// by deployments that terminate OAuth elsewhere and mint marketplace
// sessions here.
func (m *JWTManager) IssueToken(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenDuration)),
		},
		Username: username,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(m.privateKey)
}

// Authenticate implements AuthnProvider over a bearer Authorization header.
func (m *JWTManager) Authenticate(_ context.Context, authorization string) (*Principal, error) {
	tokenString := ExtractBearer(authorization)
	if tokenString == "" {
		return nil, ErrUnauthenticated
	}

	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}
	if claims.Subject == "" {
		return nil, ErrUnauthenticated
	}
	return &Principal{UserID: claims.Subject, Username: claims.Username}, nil
}
