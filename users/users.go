package users

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Image is an uploaded picture served by the backend
type Image struct {
	URL string `json:"url"`
	ID  string `json:"_id,omitempty"`
}

type User struct {
	ID           string    `json:"_id"`                    // Unique identifier for the user
	Email        string    `json:"email"`                  // User's email address, also the login name
	FirstName    string    `json:"firstName"`              // First name of the user
	LastName     string    `json:"lastName"`               // Last name of the user
	PasswordHash string    `json:"-"`                      // Hashed version of the user's password - never serialize
	ProfileImage *Image    `json:"profileImage,omitempty"` // Profile picture
	Verified     bool      `json:"isEmailVerified"`        // Verified, has the user confirmed their email with the OTP
	OTP          string    `json:"-"`                      // Pending verification code
	CreatedAt    time.Time `json:"createdAt"`
}

// FullName joins first and last name
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// ValidatePasswordStrength checks the password is at least 8 characters long
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CheckPassword checks a password against the user's hash
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.PasswordHash)
}

// GenerateOTP returns a random six digit verification code
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
