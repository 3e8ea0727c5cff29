package market

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/apiclient"
	"github.com/jrsteele09/go-market-client/credentials"
	"github.com/jrsteele09/go-market-client/token"
	"github.com/jrsteele09/go-market-client/users"
)

const PathProfile = "/user/profile"

// ErrNotLoggedIn is returned when an operation needs a stored session
var ErrNotLoggedIn = errors.New("not logged in")

type profileData struct {
	User users.User `json:"user"`
}

// ProfileUpdate changes the display name and, optionally, the picture
type ProfileUpdate struct {
	FirstName    string     `json:"firstName" validate:"required"`
	LastName     string     `json:"lastName"`
	ProfileImage *ImageFile `json:"-"`
}

type ProfileService struct {
	api   API
	store credentials.Store
}

func NewProfileService(api API, store credentials.Store) (*ProfileService, error) {
	if api == nil {
		return nil, errors.New("[NewProfileService] api is required")
	}
	if store == nil {
		return nil, errors.New("[NewProfileService] store is required")
	}
	return &ProfileService{api: api, store: store}, nil
}

// Get returns the public profile of any user
func (s *ProfileService) Get(ctx context.Context, userID string) (*users.User, error) {
	if userID == "" {
		return nil, &FormError{Field: "user", Message: "user is required"}
	}
	req := apiclient.NewRequest(http.MethodGet, PathProfile+"/"+url.PathEscape(userID))
	data, err := call[profileData](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &data.User, nil
}

// UserID reads the signed in user's id from the stored access token
func (s *ProfileService) UserID(ctx context.Context) (string, error) {
	raw, ok, err := s.store.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		return "", errors.Wrap(err, "[UserID] read access token")
	}
	if !ok {
		return "", ErrNotLoggedIn
	}
	claims, err := token.ParseUnverified(raw)
	if err != nil {
		return "", errors.Wrap(err, "[UserID] parse access token")
	}
	return claims.UserID, nil
}

// Me returns the signed in user's profile
func (s *ProfileService) Me(ctx context.Context) (*users.User, error) {
	id, err := s.UserID(ctx)
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// Update sends the new name and picture as multipart form data
func (s *ProfileService) Update(ctx context.Context, update ProfileUpdate) (*users.User, error) {
	update.FirstName = strings.TrimSpace(update.FirstName)
	update.LastName = strings.TrimSpace(update.LastName)
	if err := validateForm(update); err != nil {
		return nil, err
	}

	fb := newFormBuilder().
		field("firstName", update.FirstName).
		field("lastName", update.LastName)
	if update.ProfileImage != nil {
		if err := validateImages([]ImageFile{*update.ProfileImage}); err != nil {
			return nil, err
		}
		fb.file("profileImage", *update.ProfileImage, "profile.jpg")
	}

	req, err := fb.request(http.MethodPut, PathProfile)
	if err != nil {
		return nil, err
	}
	data, err := call[profileData](ctx, s.api, req)
	if err != nil {
		return nil, err
	}
	return &data.User, nil
}
