package auth

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-market-client/internal/config"
	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/token"
	"github.com/jrsteele09/go-market-client/token/jwt"
	"github.com/jrsteele09/go-market-client/token/refresh"
	"github.com/jrsteele09/go-market-client/users"
)

// NotificationKind says why a code is being sent to a user
type NotificationKind string

const (
	NotifyVerification  NotificationKind = "verification"
	NotifyPasswordReset NotificationKind = "password_reset"
)

// Notifier delivers a one time code to a user. The development backend has
// no mail transport, so the default notifier logs the code.
type Notifier func(kind NotificationKind, email, code string)

// TokenPair is returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Repos holds all repository dependencies for the Service
type Repos struct {
	Users         users.UserRepo
	RefreshTokens refresh.Repo
}

// Service implements account and session operations for the development backend
type Service struct {
	repos     Repos
	creator   *jwt.Creator
	verifier  *jwt.Verifier
	refresh   *refresh.Manager
	validator *Validator
	notify    Notifier
	nowTime   func() time.Time
}

// ServiceOption defines a function type to modify the Service instance.
type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithNotifier replaces the logging notifier
func WithNotifier(n Notifier) ServiceOption {
	return func(s *Service) {
		s.notify = n
	}
}

// NewService initializes a new Service with required dependencies.
func NewService(repos Repos, cfg config.TokenConfig, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[NewService] Users repo is required")
	}
	if repos.RefreshTokens == nil {
		return nil, errors.New("[NewService] RefreshTokens repo is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewService] token config is required")
	}

	signer, err := token.NewHMACSigner(cfg.GetSigningSecret())
	if err != nil {
		return nil, errors.Wrap(err, "[NewService] signer")
	}
	creator, err := jwt.NewCreator(cfg, signer)
	if err != nil {
		return nil, errors.Wrap(err, "[NewService] creator")
	}
	verifier, err := jwt.NewVerifier(signer)
	if err != nil {
		return nil, errors.Wrap(err, "[NewService] verifier")
	}
	refreshManager, err := refresh.NewManager(repos.RefreshTokens, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[NewService] refresh manager")
	}

	s := &Service{
		repos:     repos,
		creator:   creator,
		verifier:  verifier,
		refresh:   refreshManager,
		validator: NewValidator(),
		notify:    logNotifier(log.Logger),
		nowTime:   time.Now,
	}

	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func logNotifier(logger zerolog.Logger) Notifier {
	return func(kind NotificationKind, email, code string) {
		logger.Info().Str("kind", string(kind)).Str("email", email).Str("code", code).Msg("one time code issued")
	}
}

// Validator exposes the request validator used by the service
func (s *Service) Validator() *Validator {
	return s.validator
}

// Login checks the credentials of a verified user and issues a token pair
func (s *Service) Login(params LoginParameters) (*TokenPair, error) {
	if err := s.validator.Validate(params); err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByEmail(params.Email)
	if err != nil {
		return nil, marketerrors.ErrInvalidCredentials
	}
	if !user.CheckPassword(params.Password) {
		return nil, marketerrors.ErrInvalidCredentials
	}
	if !user.Verified {
		return nil, marketerrors.ErrUserNotVerified
	}
	return s.issue(user)
}

// Signup registers an unverified user and sends a verification code
func (s *Service) Signup(params SignupParameters, profileImage *users.Image) (*users.User, error) {
	params.Email = strings.TrimSpace(params.Email)
	if err := s.validator.Validate(params); err != nil {
		return nil, err
	}

	if _, err := s.repos.Users.GetByEmail(params.Email); err == nil {
		return nil, marketerrors.ErrUserExists
	}

	hash, err := users.HashPassword(params.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Signup] HashPassword")
	}
	otp, err := users.GenerateOTP()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Signup] GenerateOTP")
	}

	user := &users.User{
		Email:        params.Email,
		FirstName:    strings.TrimSpace(params.FirstName),
		LastName:     strings.TrimSpace(params.LastName),
		PasswordHash: hash,
		ProfileImage: profileImage,
		OTP:          otp,
		CreatedAt:    s.nowTime(),
	}
	if err := s.repos.Users.Upsert(user); err != nil {
		return nil, errors.Wrap(err, "[Service.Signup] Users.Upsert")
	}

	s.notify(NotifyVerification, user.Email, otp)
	return user, nil
}

// VerifyOTP marks the user verified when the code matches
func (s *Service) VerifyOTP(params VerifyOTPParameters) error {
	if err := s.validator.Validate(params); err != nil {
		return err
	}

	user, err := s.repos.Users.GetByEmail(params.Email)
	if err != nil {
		return marketerrors.ErrUserNotFound
	}
	if user.Verified {
		return nil
	}
	if user.OTP == "" || user.OTP != params.OTP {
		return marketerrors.ErrInvalidOTP
	}
	return s.repos.Users.SetVerified(user.Email, true)
}

// ResendOTP issues a fresh verification code, invalidating the previous one
func (s *Service) ResendOTP(params EmailParameters) error {
	if err := s.validator.Validate(params); err != nil {
		return err
	}

	user, err := s.repos.Users.GetByEmail(params.Email)
	if err != nil {
		return marketerrors.ErrUserNotFound
	}
	if user.Verified {
		return errors.Wrap(marketerrors.ErrInvalidRequest, "user is already verified")
	}

	otp, err := users.GenerateOTP()
	if err != nil {
		return errors.Wrap(err, "[Service.ResendOTP] GenerateOTP")
	}
	user.OTP = otp
	if err := s.repos.Users.Upsert(user); err != nil {
		return errors.Wrap(err, "[Service.ResendOTP] Users.Upsert")
	}

	s.notify(NotifyVerification, user.Email, otp)
	return nil
}

// ForgotPassword sends a password reset code to a registered user
func (s *Service) ForgotPassword(params EmailParameters) error {
	if err := s.validator.Validate(params); err != nil {
		return err
	}

	user, err := s.repos.Users.GetByEmail(params.Email)
	if err != nil {
		return marketerrors.ErrUserNotFound
	}

	code, err := users.GenerateOTP()
	if err != nil {
		return errors.Wrap(err, "[Service.ForgotPassword] GenerateOTP")
	}
	s.notify(NotifyPasswordReset, user.Email, code)
	return nil
}

// Refresh rotates the refresh token and issues a new access token
func (s *Service) Refresh(params RefreshParameters) (*TokenPair, error) {
	if err := s.validator.Validate(params); err != nil {
		return nil, err
	}

	newRefresh, userID, err := s.refresh.Rotate(params.RefreshToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repos.Users.GetByID(userID)
	if err != nil {
		_ = s.refresh.Delete(newRefresh)
		return nil, marketerrors.ErrInvalidRefreshToken
	}

	access, err := s.creator.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Refresh] CreateAccessToken")
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *Service) Logout(refreshToken string) {
	if refreshToken == "" {
		return
	}
	_ = s.refresh.Delete(refreshToken)
}

// Authenticate verifies a bearer access token
func (s *Service) Authenticate(rawToken string) (*token.Claims, error) {
	return s.verifier.Verify(rawToken)
}

func (s *Service) issue(user *users.User) (*TokenPair, error) {
	access, err := s.creator.CreateAccessToken(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issue] CreateAccessToken")
	}
	refreshToken, err := s.refresh.Create(user.ID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issue] refresh.Create")
	}
	return &TokenPair{AccessToken: access, RefreshToken: refreshToken}, nil
}
