package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"todo_webapp/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation failures. All of them wrap domain.ErrUnauthenticated.
var (
	ErrTokenMalformed = fmt.Errorf("token malformed: %w", domain.ErrUnauthenticated)
	ErrTokenSignature = fmt.Errorf("token signature invalid: %w", domain.ErrUnauthenticated)
	ErrTokenExpired   = fmt.Errorf("token expired: %w", domain.ErrUnauthenticated)
)

type Claims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

// TokenService issues and validates HS256 bearer tokens with a fixed lifetime.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// DefaultTokenTTL applies when NewTokenService is given a zero ttl.
const DefaultTokenTTL = 24 * time.Hour

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	s.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	return s
}

func (s *TokenService) Issue(userID int64) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Validate checks the signature first and the expiry second, and returns the user id.
func (s *TokenService) Validate(tokenString string) (int64, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})

	switch {
	case err == nil:
	case errors.Is(err, jwt.ErrTokenMalformed):
		return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return 0, fmt.Errorf("%w: %v", ErrTokenSignature, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return 0, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return 0, fmt.Errorf("%w: %v", ErrTokenSignature, err)
	}

	if claims.UserID <= 0 {
		return 0, fmt.Errorf("%w: user_id claim missing", ErrTokenMalformed)
	}
	return claims.UserID, nil
}
