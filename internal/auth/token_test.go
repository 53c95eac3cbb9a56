package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30)

	token, expiresAt, err := tm.GenerateToken("k1", domain.SubjectTypeCollaborator)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.CollaboratorActor("k1"), claims.Actor())
}

func TestTokenManager_Rejects(t *testing.T) {
	tm := NewTokenManager("secret", 30)

	t.Run("wrong secret", func(t *testing.T) {
		token, _, err := NewTokenManager("other", 30).GenerateToken("p1", domain.SubjectTypeProfile)
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		stale := NewTokenManager("secret", 1)
		stale.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _, err := stale.GenerateToken("p1", domain.SubjectTypeProfile)
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unknown subject", func(t *testing.T) {
		token, _, err := tm.GenerateToken("x", domain.SubjectType("ROBOT"))
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("foreign issuer", func(t *testing.T) {
		now := time.Now()
		foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			SubjectID: "p1",
			Subject:   domain.SubjectTypeProfile,
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "someone-else",
				Subject:   "p1",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
		})
		token, err := foreign.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.ErrorIs(t, err, jwt.ErrTokenInvalidIssuer)
	})

	t.Run("missing expiry", func(t *testing.T) {
		eternal := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
			SubjectID:        "p1",
			Subject:          domain.SubjectTypeProfile,
			RegisteredClaims: jwt.RegisteredClaims{Issuer: tokenIssuer, Subject: "p1"},
		})
		token, err := eternal.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})

	t.Run("none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{SubjectID: "p1", Subject: domain.SubjectTypeProfile})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = tm.ParseToken(token)
		assert.Error(t, err)
	})
}

func TestPasswordHelpers(t *testing.T) {
	hash, err := HashPassword("s3cret!", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret!"))
	assert.Error(t, ComparePassword(hash, "wrong"))

	assert.True(t, PasswordLongEnough("áéíóú1", 6))
	assert.False(t, PasswordLongEnough("12345", 6))
}
