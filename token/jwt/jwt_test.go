package jwt_test

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-market-client/internal/config"
	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/token"
	"github.com/jrsteele09/go-market-client/token/jwt"
	"github.com/jrsteele09/go-market-client/users"
)

const secretStr = "1234"

type testFixture struct {
	creator  *jwt.Creator
	verifier *jwt.Verifier
	user     *users.User
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	v := viper.New()
	v.Set("access_token_expiry", time.Minute)
	cfg := config.NewFromViper(v)

	signer, err := token.NewHMACSigner(secretStr)
	require.NoError(t, err)

	creator, err := jwt.NewCreator(cfg, signer)
	require.NoError(t, err)
	verifier, err := jwt.NewVerifier(signer)
	require.NoError(t, err)

	return &testFixture{
		creator:  creator,
		verifier: verifier,
		user:     &users.User{ID: "user-1", Email: "john.doe@example.com"},
	}
}

func freezeTime(t *testing.T, now time.Time) {
	t.Helper()
	jwt.NowTimeFunc = func() time.Time { return now }
	t.Cleanup(func() { jwt.NowTimeFunc = time.Now })
}

func TestCreateAndVerify(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.creator.CreateAccessToken(f.user)
	require.NoError(t, err)

	claims, err := f.verifier.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, "john.doe@example.com", claims.Email)
	require.WithinDuration(t, time.Now().Add(time.Minute), claims.ExpiresAt, 5*time.Second)

	unverified, err := token.ParseUnverified(raw)
	require.NoError(t, err)
	require.Equal(t, claims.UserID, unverified.UserID)
}

func TestTokensAreUnique(t *testing.T) {
	f := setupTestFixture(t)
	freezeTime(t, time.Now())

	a, err := f.creator.CreateAccessToken(f.user)
	require.NoError(t, err)
	b, err := f.creator.CreateAccessToken(f.user)
	require.NoError(t, err)
	require.NotEqual(t, a, b)
}

func TestExpiredToken(t *testing.T) {
	f := setupTestFixture(t)

	freezeTime(t, time.Now().Add(-2*time.Minute))
	raw, err := f.creator.CreateAccessToken(f.user)
	require.NoError(t, err)

	jwt.NowTimeFunc = time.Now
	_, err = f.verifier.Verify(raw)
	require.ErrorIs(t, err, marketerrors.ErrTokenExpired)
}

func TestWrongSecretIsInvalid(t *testing.T) {
	f := setupTestFixture(t)

	raw, err := f.creator.CreateAccessToken(f.user)
	require.NoError(t, err)

	other, err := token.NewHMACSigner("another-secret")
	require.NoError(t, err)
	verifier, err := jwt.NewVerifier(other)
	require.NoError(t, err)

	_, err = verifier.Verify(raw)
	require.ErrorIs(t, err, marketerrors.ErrInvalidToken)

	_, err = f.verifier.Verify("")
	require.ErrorIs(t, err, marketerrors.ErrInvalidToken)
}

func TestConstructorsRequireDependencies(t *testing.T) {
	_, err := token.NewHMACSigner("")
	require.Error(t, err)

	_, err = jwt.NewCreator(nil, nil)
	require.Error(t, err)

	_, err = jwt.NewVerifier(nil)
	require.Error(t, err)
}
