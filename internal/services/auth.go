// Package services holds the API access service: a single owner passphrase,
// checked against a bcrypt hash, is exchanged for a short-lived JWT.
package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const TokenIssuer = "study-planner"

var (
	ErrInvalidCredentials = errors.New("invalid passphrase")
	ErrInvalidToken       = errors.New("invalid token")
)

type AuthService interface {
	Login(passphrase string) (token string, expiresIn int64, err error)
	ValidateToken(token string) (*Claims, error)
}

type Claims struct {
	jwt.RegisteredClaims
}

type AuthServiceImpl struct {
	secret         []byte
	passphraseHash string
	ttl            time.Duration
	now            func() time.Time
}

func NewAuthService(secret, passphraseHash string, ttl time.Duration) *AuthServiceImpl {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &AuthServiceImpl{
		secret:         []byte(secret),
		passphraseHash: passphraseHash,
		ttl:            ttl,
		now:            time.Now,
	}
}

func HashPassphrase(passphrase string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(passphrase), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash passphrase: %w", err)
	}
	return string(hashed), nil
}

func VerifyPassword(hashedPassword, plainPassword string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(plainPassword))
	return err == nil
}

func (s *AuthServiceImpl) Login(passphrase string) (string, int64, error) {
	if s.passphraseHash == "" || !VerifyPassword(s.passphraseHash, passphrase) {
		return "", 0, ErrInvalidCredentials
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", 0, err
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id.String(),
			Issuer:    TokenIssuer,
			Subject:   "owner",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, int64(s.ttl.Seconds()), nil
}

func (s *AuthServiceImpl) ValidateToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	},
		jwt.WithIssuer(TokenIssuer),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
