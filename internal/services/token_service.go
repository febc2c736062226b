package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenService issues and validates signed, time-bounded tokens that bind to a
// single account id. Tokens are scoped by a salt so they cannot be replayed
// against another token-consuming feature.
type TokenService struct {
	key    []byte
	salt   string
	maxAge time.Duration
	now    func() time.Time
}

// NewTokenService creates a TokenService. The signing key is derived from both
// the server secret and the salt.
func NewTokenService(secret, salt string, maxAge time.Duration) *TokenService {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(salt))
	return &TokenService{
		key:    mac.Sum(nil),
		salt:   salt,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// MaxAge returns how long an issued token stays valid.
func (s *TokenService) MaxAge() time.Duration {
	return s.maxAge
}

// Issue mints a token for the given account id.
func (s *TokenService) Issue(accountID uint) (string, error) {
	issuedAt := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   strconv.FormatUint(uint64(accountID), 10),
		Audience:  s.salt,
		IssuedAt:  issuedAt.Unix(),
		ExpiresAt: issuedAt.Add(s.maxAge).Unix(),
	})

	tokenString, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// Parse validates a token and returns the account id it carries. Every
// failure, whether tampering, expiry or a malformed token, is reported as
// ErrInvalidOrExpiredToken.
func (s *TokenService) Parse(tokenString string) (uint, error) {
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.key, nil
	})
	if err != nil || !token.Valid {
		log.Printf("Verification token rejected: %v", err)
		return 0, ErrInvalidOrExpiredToken
	}

	if !claims.VerifyAudience(s.salt, true) {
		log.Printf("Verification token rejected: audience %q", claims.Audience)
		return 0, ErrInvalidOrExpiredToken
	}
	if claims.IssuedAt == 0 || s.now().Sub(time.Unix(claims.IssuedAt, 0)) > s.maxAge {
		log.Printf("Verification token rejected: issued at %d is older than %s", claims.IssuedAt, s.maxAge)
		return 0, ErrInvalidOrExpiredToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		log.Printf("Verification token rejected: subject %q", claims.Subject)
		return 0, ErrInvalidOrExpiredToken
	}
	return uint(id), nil
}
