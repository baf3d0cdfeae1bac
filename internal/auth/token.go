// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenTypePasswordReset marks single-purpose reset tokens. Access tokens
// carry no type.
const TokenTypePasswordReset = "password-reset"

// Claims are the JWT claims issued by the portal: {email, sub} plus an
// optional type and password stamp for reset tokens.
type Claims struct {
	Email string `json:"email"`
	Type  string `json:"type,omitempty"`
	Stamp string `json:"stamp,omitempty"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim.
func (c *Claims) UserID() (int64, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid subject %q", c.Subject)
	}
	return id, nil
}

// TokenIssuer signs and verifies HS256 tokens.
type TokenIssuer struct {
	secret   []byte
	ttl      time.Duration
	resetTTL time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates a TokenIssuer.
func NewTokenIssuer(secret string, ttl, resetTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		secret:   []byte(secret),
		ttl:      ttl,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// Issue creates an access token for the user.
func (t *TokenIssuer) Issue(userID int64, email string) (string, error) {
	return t.sign(userID, email, "", "", t.ttl)
}

// IssueReset creates a short-lived password-reset token stamped with the
// user's current password hash. Once the password changes the stamp no
// longer matches, so the token works at most once.
func (t *TokenIssuer) IssueReset(userID int64, email, passwordHash string) (string, error) {
	return t.sign(userID, email, TokenTypePasswordReset, t.passwordStamp(passwordHash), t.resetTTL)
}

// StampMatches reports whether a reset token was issued against passwordHash.
func (t *TokenIssuer) StampMatches(c *Claims, passwordHash string) bool {
	return hmac.Equal([]byte(c.Stamp), []byte(t.passwordStamp(passwordHash)))
}

func (t *TokenIssuer) passwordStamp(passwordHash string) string {
	mac := hmac.New(sha256.New, t.secret)
	mac.Write([]byte(passwordHash))
	return hex.EncodeToString(mac.Sum(nil)[:12])
}

func (t *TokenIssuer) sign(userID int64, email, typ, stamp string, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		Email: email,
		Type:  typ,
		Stamp: stamp,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// ErrWrongTokenType is returned when a reset token is used for access or
// the other way round.
var ErrWrongTokenType = errors.New("wrong token type")

// Verify parses an access token.
func (t *TokenIssuer) Verify(token string) (*Claims, error) {
	return t.verify(token, "")
}

// VerifyReset parses a password-reset token.
func (t *TokenIssuer) VerifyReset(token string) (*Claims, error) {
	return t.verify(token, TokenTypePasswordReset)
}

func (t *TokenIssuer) verify(token, wantType string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing token: %w", err)
	}
	if claims.Type != wantType {
		return nil, ErrWrongTokenType
	}
	if _, err := claims.UserID(); err != nil {
		return nil, err
	}
	return claims, nil
}
