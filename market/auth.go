package market

import (
	"context"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-market-client/apiclient"
	"github.com/jrsteele09/go-market-client/credentials"
)

// Auth endpoints
const (
	PathSignup         = "/auth/signup"
	PathVerifyOTP      = "/auth/verify-otp"
	PathResendOTP      = "/auth/resend-verification-otp"
	PathForgotPassword = "/auth/forgot-password"
	PathLogout         = "/auth/logout"
)

// SessionAPI is an API that also owns the stored session
type SessionAPI interface {
	API
	Login(ctx context.Context, email, password string) error
	Logout(ctx context.Context) error
}

type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupForm struct {
	FirstName    string     `json:"firstName" validate:"required"`
	LastName     string     `json:"lastName" validate:"required"`
	Email        string     `json:"email" validate:"required,email"`
	Password     string     `json:"password" validate:"required,min=8"`
	ProfileImage *ImageFile `json:"-"`
}

type otpForm struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
}

type emailForm struct {
	Email string `json:"email" validate:"required,email"`
}

// AuthService covers sign up, verification and the login session
type AuthService struct {
	api   SessionAPI
	store credentials.Store
}

func NewAuthService(api SessionAPI, store credentials.Store) (*AuthService, error) {
	if api == nil {
		return nil, errors.New("[NewAuthService] api is required")
	}
	if store == nil {
		return nil, errors.New("[NewAuthService] store is required")
	}
	return &AuthService{api: api, store: store}, nil
}

// Login validates the form and stores the returned token pair
func (s *AuthService) Login(ctx context.Context, form LoginForm) error {
	form.Email = strings.TrimSpace(form.Email)
	if err := validateForm(form); err != nil {
		return err
	}
	return s.api.Login(ctx, form.Email, form.Password)
}

// Signup registers an account; a verification code is emailed to the user
func (s *AuthService) Signup(ctx context.Context, form SignupForm) (string, error) {
	form.Email = strings.TrimSpace(form.Email)
	if err := validateForm(form); err != nil {
		return "", err
	}

	fb := newFormBuilder().
		field("firstName", form.FirstName).
		field("lastName", form.LastName).
		field("email", form.Email).
		field("password", form.Password)
	if form.ProfileImage != nil {
		if err := validateImages([]ImageFile{*form.ProfileImage}); err != nil {
			return "", err
		}
		fb.file("profileImage", *form.ProfileImage, "profile.jpg")
	}

	req, err := fb.request(http.MethodPost, PathSignup)
	if err != nil {
		return "", err
	}
	req.NoAuthRetry = true
	return callMessage(ctx, s.api, req)
}

func (s *AuthService) VerifyOTP(ctx context.Context, email, otp string) error {
	form := otpForm{Email: strings.TrimSpace(email), OTP: strings.TrimSpace(otp)}
	if err := validateForm(form); err != nil {
		return err
	}
	return s.anonymousJSON(ctx, PathVerifyOTP, form)
}

func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	form := emailForm{Email: strings.TrimSpace(email)}
	if err := validateForm(form); err != nil {
		return err
	}
	return s.anonymousJSON(ctx, PathResendOTP, form)
}

func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	form := emailForm{Email: strings.TrimSpace(email)}
	if err := validateForm(form); err != nil {
		return err
	}
	return s.anonymousJSON(ctx, PathForgotPassword, form)
}

// Logout revokes the refresh token when the server can be reached and
// always erases the local session.
func (s *AuthService) Logout(ctx context.Context) error {
	if refreshToken, ok, err := s.store.Get(ctx, credentials.KeyRefreshToken); err == nil && ok {
		req, err := apiclient.NewJSONRequest(http.MethodPost, PathLogout, map[string]string{"refreshToken": refreshToken})
		if err == nil {
			req.NoAuthRetry = true
			if _, err := s.api.Do(ctx, req); err != nil {
				log.Debug().Err(err).Msg("server logout failed, clearing local session anyway")
			}
		}
	}
	return s.api.Logout(ctx)
}

// IsLoggedIn reports whether an access token is stored
func (s *AuthService) IsLoggedIn(ctx context.Context) (bool, error) {
	_, ok, err := s.store.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		return false, errors.Wrap(err, "[IsLoggedIn] read access token")
	}
	return ok, nil
}

func (s *AuthService) anonymousJSON(ctx context.Context, path string, payload any) error {
	req, err := apiclient.NewJSONRequest(http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	req.NoAuthRetry = true
	_, err = callMessage(ctx, s.api, req)
	return err
}
