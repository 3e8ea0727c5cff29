package server

import (
	"net/http"
	"strings"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/users"
)

// profileResponse wraps a user the way the profile endpoints return it
func profileResponse(u *users.User) map[string]any {
	return map[string]any{"user": u}
}

func (s *Server) MyProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.repos.Users.GetByID(userIDFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, profileResponse(u))
	}
}

func (s *Server) ProfileByIDHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.repos.Users.GetByID(r.PathValue("id"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, profileResponse(u))
	}
}

// UpdateProfileHandler takes firstName, lastName and an optional profileImage
func (s *Server) UpdateProfileHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.repos.Users.GetByID(userIDFromContext(r.Context()))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := parseForm(r); err != nil {
			writeError(w, err)
			return
		}

		if v, ok := formValue(r, "firstName"); ok {
			u.FirstName = strings.TrimSpace(v)
		}
		if v, ok := formValue(r, "lastName"); ok {
			u.LastName = strings.TrimSpace(v)
		}
		if u.FirstName == "" {
			writeError(w, marketerrors.Wrapf(marketerrors.ErrInvalidRequest, "firstName is required"))
			return
		}

		previous := u.ProfileImage
		if files := formFiles(r, "profileImage"); len(files) > 0 {
			images, err := s.storeImages(files[:1])
			if err != nil {
				writeError(w, err)
				return
			}
			u.ProfileImage = &images[0]
		}

		if err := s.repos.Users.Upsert(u); err != nil {
			writeError(w, err)
			return
		}
		if previous != nil && u.ProfileImage != previous {
			s.releaseImages([]users.Image{*previous})
		}
		writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Profile updated", Data: profileResponse(u)})
	}
}
