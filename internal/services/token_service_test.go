package services_test

import (
	"strings"
	"testing"
	"time"

	"todolist/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "test_secret"
	testSalt   = "verification-salt"
	testMaxAge = 1800 * time.Second
)

func issuedAgo(t *testing.T, ts *services.TokenService, age time.Duration, accountID uint) string {
	t.Helper()
	ts.SetClock(func() time.Time { return time.Now().Add(-age) })
	defer ts.SetClock(time.Now)
	token, err := ts.Issue(accountID)
	require.NoError(t, err)
	return token
}

func TestTokenService_RoundTrip(t *testing.T) {
	ts := services.NewTokenService(testSecret, testSalt, testMaxAge)

	token, err := ts.Issue(42)
	require.NoError(t, err)
	assert.NotContains(t, token, "/", "token must be safe inside a URL path")
	assert.NotContains(t, token, "+")

	id, err := ts.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
	assert.Equal(t, testMaxAge, ts.MaxAge())
}

func TestTokenService_Expiry(t *testing.T) {
	ts := services.NewTokenService(testSecret, testSalt, testMaxAge)

	fresh := issuedAgo(t, ts, testMaxAge-30*time.Second, 7)
	id, err := ts.Parse(fresh)
	require.NoError(t, err)
	assert.Equal(t, uint(7), id)

	stale := issuedAgo(t, ts, testMaxAge+time.Second, 7)
	_, err = ts.Parse(stale)
	assert.ErrorIs(t, err, services.ErrInvalidOrExpiredToken)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	ts := services.NewTokenService(testSecret, testSalt, testMaxAge)

	otherSecret, err := services.NewTokenService("another_secret", testSalt, testMaxAge).Issue(1)
	require.NoError(t, err)
	otherSalt, err := services.NewTokenService(testSecret, "password-reset", testMaxAge).Issue(1)
	require.NoError(t, err)

	valid, err := ts.Issue(1)
	require.NoError(t, err)
	tampered := valid[:len(valid)-2] + flip(valid[len(valid)-2:])

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.StandardClaims{
		Subject:   "1",
		Audience:  testSalt,
		IssuedAt:  time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Minute).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"different secret": otherSecret,
		"different salt":   otherSalt,
		"tampered":         tampered,
		"unsigned":         unsigned,
		"malformed":        "not.a.token",
		"empty":            "",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ts.Parse(token)
			assert.ErrorIs(t, err, services.ErrInvalidOrExpiredToken)
		})
	}
}

func flip(s string) string {
	if strings.HasPrefix(s, "A") {
		return "B" + s[1:]
	}
	return "A" + s[1:]
}
