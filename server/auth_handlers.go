package server

import (
	"net/http"

	"github.com/jrsteele09/go-market-client/auth"
	"github.com/jrsteele09/go-market-client/users"
)

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.LoginParameters
		if err := decodeJSON(w, r, &params); err != nil {
			writeError(w, err)
			return
		}

		pair, err := s.auth.Login(params)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, pair)
	}
}

// SignupHandler takes a multipart form with an optional profileImage
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := parseForm(r); err != nil {
			writeError(w, err)
			return
		}

		params := auth.SignupParameters{
			FirstName: r.FormValue("firstName"),
			LastName:  r.FormValue("lastName"),
			Email:     r.FormValue("email"),
			Password:  r.FormValue("password"),
		}
		if err := s.auth.Validator().Validate(params); err != nil {
			writeError(w, err)
			return
		}

		var profileImage *users.Image
		if files := formFiles(r, "profileImage"); len(files) > 0 {
			images, err := s.storeImages(files[:1])
			if err != nil {
				writeError(w, err)
				return
			}
			profileImage = &images[0]
		}

		user, err := s.auth.Signup(params, profileImage)
		if err != nil {
			if profileImage != nil {
				s.releaseImages([]users.Image{*profileImage})
			}
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, envelope{
			Success: true,
			Message: "Account created. Check your email for the verification code",
			Data:    map[string]any{"user": user},
		})
	}
}

func (s *Server) VerifyOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.VerifyOTPParameters
		if err := decodeJSON(w, r, &params); err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.VerifyOTP(params); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, "Email verified")
	}
}

func (s *Server) ResendOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.EmailParameters
		if err := decodeJSON(w, r, &params); err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.ResendOTP(params); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, "Verification code sent")
	}
}

func (s *Server) ForgotPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.EmailParameters
		if err := decodeJSON(w, r, &params); err != nil {
			writeError(w, err)
			return
		}
		if err := s.auth.ForgotPassword(params); err != nil {
			writeError(w, err)
			return
		}
		writeOK(w, "Password reset code sent")
	}
}

func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.RefreshParameters
		if err := decodeJSON(w, r, &params); err != nil {
			writeError(w, err)
			return
		}

		pair, err := s.auth.Refresh(params)
		if err != nil {
			// Every refresh failure ends the session on the client
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeData(w, http.StatusOK, pair)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params auth.RefreshParameters
		_ = decodeJSON(w, r, &params)
		s.auth.Logout(params.RefreshToken)
		writeOK(w, "Logged out")
	}
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, "ok")
	}
}

func (s *Server) UploadHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		img, err := s.repos.Uploads.Get(r.PathValue("id"))
		if err != nil {
			http.Error(w, "404 - Page Not Found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", img.ContentType)
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
		_, _ = w.Write(img.Data)
	}
}
