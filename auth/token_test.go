package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/user/starter-go/logging"
)

var issuedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// newTestTokens returns a TokenService whose clock reads *clock.
func newTestTokens(t *testing.T, clock *time.Time) *TokenService {
	t.Helper()
	s, err := NewTokenService("test-secret")
	require.NoError(t, err)
	s.now = func() time.Time { return *clock }
	return s
}

func TestNewTokenService_RejectsEmptySecret(t *testing.T) {
	_, err := NewTokenService("")
	assert.Error(t, err)
}

func TestTokenService_RoundTrip(t *testing.T) {
	clock := issuedAt
	s := newTestTokens(t, &clock)

	token, err := s.Issue(42)
	require.NoError(t, err)

	id, err := s.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, Identity{Subject: 42}, id)
}

func TestTokenService_ClaimsShape(t *testing.T) {
	clock := issuedAt
	s := newTestTokens(t, &clock)

	a, err := s.Issue(7)
	require.NoError(t, err)
	b, err := s.Issue(7)
	require.NoError(t, err)
	assert.NotEqual(t, a, b, "jti must make tokens unique")

	claims := &jwt.RegisteredClaims{}
	_, _, err = jwt.NewParser().ParseUnverified(a, claims)
	require.NoError(t, err)

	assert.Equal(t, "7", claims.Subject)
	assert.Equal(t, issuedAt, claims.IssuedAt.Time.UTC())
	assert.Equal(t, issuedAt.Add(time.Hour), claims.ExpiresAt.Time.UTC())
	assert.NotEmpty(t, claims.ID)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := issuedAt
	s := newTestTokens(t, &clock)
	token, err := s.Issue(1)
	require.NoError(t, err)

	clock = issuedAt.Add(TokenLifetime - time.Second)
	_, err = s.Verify(context.Background(), token)
	assert.NoError(t, err, "still valid one second before expiry")

	clock = issuedAt.Add(TokenLifetime)
	_, err = s.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken, "invalid at exactly exp")

	clock = issuedAt.Add(24 * time.Hour)
	_, err = s.Verify(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	clock := issuedAt
	s := newTestTokens(t, &clock)
	claims := jwt.RegisteredClaims{
		Subject:   "1",
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}

	otherKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	badSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	valid, err := s.Issue(1)
	require.NoError(t, err)
	tampered := valid[:len(valid)-2] + "xx"

	tests := map[string]string{
		"empty":           "",
		"garbage":         "not-a-jwt",
		"other secret":    otherKey,
		"alg none":        none,
		"other HMAC alg":  hs512,
		"no exp":          noExp,
		"non-numeric sub": badSub,
		"tampered":        tampered,
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := s.Verify(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestTokenService_LogsRejectReason(t *testing.T) {
	clock := issuedAt
	s := newTestTokens(t, &clock)
	token, err := s.Issue(1)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	ctx := logging.WithLogger(context.Background(), zap.New(core))

	clock = issuedAt.Add(2 * time.Hour)
	_, err = s.Verify(ctx, token)
	require.ErrorIs(t, err, ErrInvalidToken)

	entries := logs.FilterMessage("Session token rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "expired", entries[0].ContextMap()["reason"])
}
