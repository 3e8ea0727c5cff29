package token_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/token"
)

func TestParseUnverifiedIgnoresSignature(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signer, err := token.NewHMACSigner("server-only-secret")
	require.NoError(t, err)

	raw, err := signer.Sign(jwt.MapClaims{"sub": "user-7", "email": "a@b.c", "exp": exp.Unix()})
	require.NoError(t, err)

	claims, err := token.ParseUnverified(raw)
	require.NoError(t, err)
	require.Equal(t, "user-7", claims.UserID)
	require.Equal(t, "a@b.c", claims.Email)
	require.True(t, exp.Equal(claims.ExpiresAt))
	require.False(t, claims.Expired(time.Now()))
	require.True(t, claims.Expired(exp))
}

func TestParseUnverifiedRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "not-a-jwt"} {
		_, err := token.ParseUnverified(raw)
		require.ErrorIs(t, err, marketerrors.ErrInvalidToken, raw)
	}

	signer, err := token.NewHMACSigner("s")
	require.NoError(t, err)
	noSubject, err := signer.Sign(jwt.MapClaims{"email": "a@b.c"})
	require.NoError(t, err)

	_, err = token.ParseUnverified(noSubject)
	require.ErrorIs(t, err, marketerrors.ErrInvalidToken)
}
