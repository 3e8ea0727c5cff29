package auth_test

import (
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/go-market-client/auth"
	"github.com/jrsteele09/go-market-client/internal/config"
	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	refreshrepofake "github.com/jrsteele09/go-market-client/token/refresh/repofake"
	"github.com/jrsteele09/go-market-client/users"
	fakeuserrepo "github.com/jrsteele09/go-market-client/users/repofake"
)

const (
	secretStr        = "1234"
	testUserEmail    = "john.doe@example.com"
	testUserPassword = "password123"
)

type sentCode struct {
	kind  auth.NotificationKind
	email string
	code  string
}

// testFixture holds all test dependencies
type testFixture struct {
	userRepo users.UserRepo
	service  *auth.Service

	lock  sync.Mutex
	codes []sentCode
}

func (f *testFixture) lastCode(t *testing.T) sentCode {
	t.Helper()
	f.lock.Lock()
	defer f.lock.Unlock()
	require.NotEmpty(t, f.codes)
	return f.codes[len(f.codes)-1]
}

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	v := viper.New()
	v.Set("signing_secret", secretStr)
	v.Set("access_token_expiry", time.Minute)

	f := &testFixture{userRepo: fakeuserrepo.NewFakeUserRepo()}
	service, err := auth.NewService(auth.Repos{
		Users:         f.userRepo,
		RefreshTokens: refreshrepofake.NewFakeRefreshTokenRepo(),
	}, config.NewFromViper(v), auth.WithNotifier(func(kind auth.NotificationKind, email, code string) {
		f.lock.Lock()
		defer f.lock.Unlock()
		f.codes = append(f.codes, sentCode{kind: kind, email: email, code: code})
	}))
	require.NoError(t, err)
	f.service = service
	return f
}

// createVerifiedUser stores a user that can log in straight away
func (f *testFixture) createVerifiedUser(t *testing.T) *users.User {
	t.Helper()

	hash, err := users.HashPassword(testUserPassword)
	require.NoError(t, err)
	u := &users.User{Email: testUserEmail, FirstName: "John", LastName: "Doe", PasswordHash: hash, Verified: true}
	require.NoError(t, f.userRepo.Upsert(u))
	return u
}

func TestNewServiceRequiresRepos(t *testing.T) {
	_, err := auth.NewService(auth.Repos{}, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	f := setupTestFixture(t)
	u := f.createVerifiedUser(t)

	pair, err := f.service.Login(auth.LoginParameters{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := f.service.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)

	_, err = f.service.Login(auth.LoginParameters{Email: testUserEmail, Password: "wrong-password"})
	require.ErrorIs(t, err, marketerrors.ErrInvalidCredentials)

	_, err = f.service.Login(auth.LoginParameters{Email: "nobody@example.com", Password: testUserPassword})
	require.ErrorIs(t, err, marketerrors.ErrInvalidCredentials)

	_, err = f.service.Login(auth.LoginParameters{Email: "not-an-email", Password: testUserPassword})
	require.ErrorIs(t, err, marketerrors.ErrInvalidRequest)
}

func TestSignupVerifyLogin(t *testing.T) {
	f := setupTestFixture(t)

	params := auth.SignupParameters{FirstName: "Jane", LastName: "Roe", Email: "jane@example.com", Password: "longenough"}
	u, err := f.service.Signup(params, nil)
	require.NoError(t, err)
	require.False(t, u.Verified)

	_, err = f.service.Signup(params, nil)
	require.ErrorIs(t, err, marketerrors.ErrUserExists)

	_, err = f.service.Login(auth.LoginParameters{Email: params.Email, Password: params.Password})
	require.ErrorIs(t, err, marketerrors.ErrUserNotVerified)

	sent := f.lastCode(t)
	require.Equal(t, auth.NotifyVerification, sent.kind)
	require.Equal(t, params.Email, sent.email)

	wrong := "000000"
	if sent.code == wrong {
		wrong = "111111"
	}
	require.ErrorIs(t, f.service.VerifyOTP(auth.VerifyOTPParameters{Email: params.Email, OTP: wrong}), marketerrors.ErrInvalidOTP)
	require.NoError(t, f.service.VerifyOTP(auth.VerifyOTPParameters{Email: params.Email, OTP: sent.code}))

	_, err = f.service.Login(auth.LoginParameters{Email: params.Email, Password: params.Password})
	require.NoError(t, err)
}

func TestSignupValidation(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Signup(auth.SignupParameters{Email: "bad", Password: "short"}, nil)
	require.ErrorIs(t, err, marketerrors.ErrInvalidRequest)

	var verr *auth.ValidationError
	require.ErrorAs(t, err, &verr)
	require.ElementsMatch(t, []string{"firstName", "lastName", "email", "password"}, verr.Fields)
}

func TestResendOTPReplacesCode(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Signup(auth.SignupParameters{FirstName: "A", LastName: "B", Email: "ab@example.com", Password: "longenough"}, nil)
	require.NoError(t, err)
	first := f.lastCode(t)

	require.NoError(t, f.service.ResendOTP(auth.EmailParameters{Email: "ab@example.com"}))
	second := f.lastCode(t)

	if first.code != second.code {
		require.ErrorIs(t, f.service.VerifyOTP(auth.VerifyOTPParameters{Email: "ab@example.com", OTP: first.code}), marketerrors.ErrInvalidOTP)
	}
	require.NoError(t, f.service.VerifyOTP(auth.VerifyOTPParameters{Email: "ab@example.com", OTP: second.code}))

	require.ErrorIs(t, f.service.ResendOTP(auth.EmailParameters{Email: "ab@example.com"}), marketerrors.ErrInvalidRequest)
	require.ErrorIs(t, f.service.ResendOTP(auth.EmailParameters{Email: "missing@example.com"}), marketerrors.ErrUserNotFound)
}

func TestForgotPassword(t *testing.T) {
	f := setupTestFixture(t)
	f.createVerifiedUser(t)

	require.NoError(t, f.service.ForgotPassword(auth.EmailParameters{Email: testUserEmail}))
	require.Equal(t, auth.NotifyPasswordReset, f.lastCode(t).kind)

	require.ErrorIs(t, f.service.ForgotPassword(auth.EmailParameters{Email: "missing@example.com"}), marketerrors.ErrUserNotFound)
}

func TestRefreshRotates(t *testing.T) {
	f := setupTestFixture(t)
	f.createVerifiedUser(t)

	pair, err := f.service.Login(auth.LoginParameters{Email: testUserEmail, Password: testUserPassword})
	require.NoError(t, err)

	next, err := f.service.Refresh(auth.RefreshParameters{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, pair.RefreshToken, next.RefreshToken)
	require.NotEqual(t, pair.AccessToken, next.AccessToken)

	_, err = f.service.Refresh(auth.RefreshParameters{RefreshToken: pair.RefreshToken})
	require.ErrorIs(t, err, marketerrors.ErrInvalidRefreshToken)

	f.service.Logout(next.RefreshToken)
	_, err = f.service.Refresh(auth.RefreshParameters{RefreshToken: next.RefreshToken})
	require.ErrorIs(t, err, marketerrors.ErrInvalidRefreshToken)
}

func TestAuthenticateRejectsGarbage(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Authenticate("nope")
	require.ErrorIs(t, err, marketerrors.ErrInvalidToken)
}
