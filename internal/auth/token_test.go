package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airtrack/airtrack/internal/shared"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func TestIssueAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tokens := NewTokenManager("secret", time.Hour).WithClock(clock.Now)
	userID := uuid.New()

	token, expiresAt, err := tokens.Issue(userID)
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(time.Hour), expiresAt)

	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.True(t, identity.ExpiresAt.Equal(expiresAt))
}

func TestVerifyExpiredToken(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	tokens := NewTokenManager("secret", time.Second).WithClock(clock.Now)

	token, _, err := tokens.Issue(uuid.New())
	require.NoError(t, err)

	clock.Advance(2 * time.Second)
	_, err = tokens.Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	assert.Contains(t, err.Error(), "expired")
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	issuer := NewTokenManager("one-secret", time.Hour)
	verifier := NewTokenManager("another-secret", time.Hour)

	token, _, err := issuer.Issue(uuid.New())
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestVerifyRejectsUnsignedAndGarbage(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: uuid.NewString()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, token := range []string{unsigned, "not-a-token", ""} {
		_, err := tokens.Verify(token)
		assert.ErrorIs(t, err, shared.ErrUnauthorized, token)
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: uuid.NewString()})
	token, err := raw.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = tokens.Verify(token)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
}

func TestDefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultTokenTTL, NewTokenManager("s", 0).TTL())
}
