// Package auth issues and verifies the signed, time-limited bearer
// tokens that identify simple-feed users. Tokens are stateless: there
// is no server-side session table, validity is signature plus expiry.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the validity window for issued tokens.
const DefaultTokenTTL = time.Hour

// ErrInvalidToken is returned for any token that fails verification:
// malformed, badly signed, or expired. Callers must not distinguish
// these cases for authorization purposes.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity a verified token carries.
type Claims struct {
	UserID uuid.UUID
	Email  string
}

// TokenService signs and verifies identity tokens with a shared
// HS256 secret.
type TokenService struct {
	ja  *jwtauth.JWTAuth
	ttl time.Duration
}

// NewTokenService creates a token service. A non-positive ttl falls
// back to DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{
		ja:  jwtauth.New("HS256", secret, nil),
		ttl: ttl,
	}
}

// Issue produces a signed token embedding the user id and email,
// valid for the service's TTL from now.
func (s *TokenService) Issue(userID uuid.UUID, email string) (string, error) {
	claims := map[string]interface{}{
		"userId": userID.String(),
		"email":  email,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, s.ttl)

	_, tokenString, err := s.ja.Encode(claims)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Verify validates signature and expiry and returns the embedded
// claims. Every failure mode collapses into ErrInvalidToken.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	token, err := jwtauth.VerifyToken(s.ja, tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	rawID, ok := token.Get("userId")
	if !ok {
		return nil, ErrInvalidToken
	}
	idStr, ok := rawID.(string)
	if !ok {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(idStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims := &Claims{UserID: userID}
	if rawEmail, ok := token.Get("email"); ok {
		claims.Email, _ = rawEmail.(string)
	}
	return claims, nil
}
