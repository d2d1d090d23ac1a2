package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenCodec converts between a session id and the bearer token handed to
// clients. The default RawTokenCodec preserves the upstream behavior of
// using the session id itself as the token; SignedTokenCodec is the
// stronger scheme that can be swapped in without touching callers.
type TokenCodec interface {
	Encode(sessionID uuid.UUID) (string, error)
	Decode(token string) (uuid.UUID, error)
}

// RawTokenCodec uses the session id verbatim as the bearer token. Anyone
// who learns the id can present it; acceptable only because sessions are
// short-lived and carry no credentials.
type RawTokenCodec struct{}

func (RawTokenCodec) Encode(sessionID uuid.UUID) (string, error) {
	return sessionID.String(), nil
}

func (RawTokenCodec) Decode(token string) (uuid.UUID, error) {
	id, err := uuid.Parse(token)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

type sessionClaims struct {
	SessionID uuid.UUID `json:"session_id"`
	jwt.RegisteredClaims
}

// SignedTokenCodec wraps the session id in an HS256-signed JWT with an
// expiry, so a leaked database dump no longer doubles as a token list.
type SignedTokenCodec struct {
	secret []byte
	expiry time.Duration
}

func NewSignedTokenCodec(secret string, expiry time.Duration) *SignedTokenCodec {
	return &SignedTokenCodec{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (c *SignedTokenCodec) Encode(sessionID uuid.UUID) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "retroboard",
			Subject:   sessionID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secret)
}

func (c *SignedTokenCodec) Decode(tokenString string) (uuid.UUID, error) {
	token, err := jwt.ParseWithClaims(tokenString, &sessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return c.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrExpiredToken
		}
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	return claims.SessionID, nil
}

// NewTokenCodec selects a codec by configured scheme name. Unknown schemes
// fall back to the raw codec.
func NewTokenCodec(scheme, secret string, expiry time.Duration) TokenCodec {
	if scheme == "signed" {
		return NewSignedTokenCodec(secret, expiry)
	}
	return RawTokenCodec{}
}

// Compile-time interface satisfaction checks
var (
	_ TokenCodec = RawTokenCodec{}
	_ TokenCodec = (*SignedTokenCodec)(nil)
)
