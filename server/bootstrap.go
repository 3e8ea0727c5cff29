package server

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"time"

	"github.com/pkg/errors"

	"github.com/jrsteele09/go-market-client/products"
	"github.com/jrsteele09/go-market-client/users"
)

const (
	DefaultSeedFirstName = "Demo"
	DefaultSeedLastName  = "Seller"
)

// sampleProducts are listed by the demo account on first start
var sampleProducts = []struct {
	title       string
	description string
	price       float64
	location    products.Location
	colour      color.RGBA
}{
	{"Road bike", "Aluminium frame, 21 gears, recently serviced", 320, products.Location{Name: "Beirut", Latitude: 33.8938, Longitude: 35.5018}, color.RGBA{200, 40, 40, 255}},
	{"Desk lamp", "Warm LED desk lamp with adjustable arm", 25, products.Location{Name: "Jounieh", Latitude: 33.9808, Longitude: 35.6178}, color.RGBA{240, 200, 60, 255}},
	{"Office chair", "Ergonomic mesh chair, lumbar support", 120, products.Location{Name: "Byblos", Latitude: 34.1230, Longitude: 35.6519}, color.RGBA{40, 40, 40, 255}},
	{"Bookshelf", "Solid oak, five shelves", 80, products.Location{Name: "Tripoli", Latitude: 34.4367, Longitude: 35.8497}, color.RGBA{140, 90, 40, 255}},
	{"Monitor", "27 inch IPS, 1440p", 200, products.Location{Name: "Sidon", Latitude: 33.5571, Longitude: 35.3729}, color.RGBA{30, 60, 160, 255}},
	{"Coffee grinder", "Burr grinder with 15 settings", 45, products.Location{Name: "Beirut", Latitude: 33.8886, Longitude: 35.4955}, color.RGBA{90, 60, 30, 255}},
	{"Camping tent", "Two person, waterproof", 70, products.Location{Name: "Zahle", Latitude: 33.8463, Longitude: 35.9020}, color.RGBA{40, 140, 60, 255}},
	{"Electric kettle", "1.7L stainless steel", 18, products.Location{Name: "Batroun", Latitude: 34.2553, Longitude: 35.6581}, color.RGBA{180, 180, 180, 255}},
	{"Guitar", "Acoustic dreadnought with case", 150, products.Location{Name: "Tyre", Latitude: 33.2705, Longitude: 35.2038}, color.RGBA{160, 100, 50, 255}},
	{"Backpack", "30L hiking backpack", 35, products.Location{Name: "Baalbek", Latitude: 34.0047, Longitude: 36.2110}, color.RGBA{60, 120, 200, 255}},
	{"Blender", "High speed, glass jug", 55, products.Location{Name: "Aley", Latitude: 33.8053, Longitude: 35.6000}, color.RGBA{220, 220, 240, 255}},
	{"Running shoes", "Size 43, worn twice", 40, products.Location{Name: "Broummana", Latitude: 33.8833, Longitude: 35.6333}, color.RGBA{250, 120, 40, 255}},
}

// InitialiseSystem creates the demo account and, when configured, its sample products.
// Returns the generated password on first creation (empty string if configured or already present)
func (s *Server) InitialiseSystem(ctx context.Context) (generatedPassword string, err error) {
	email := s.config.GetSeedEmail()
	if email == "" {
		return "", nil
	}

	if existing, err := s.repos.Users.GetByEmail(email); err == nil && existing != nil {
		s.logger.Info().Str("email", email).Msg("bootstrap: demo account already exists")
		return "", nil
	}

	password := s.config.GetSeedPassword()
	if password == "" {
		passwordBytes := make([]byte, 12)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", errors.Wrap(err, "failed to generate password")
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	}

	hash, err := users.HashPassword(password)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	demo := &users.User{
		Email:        email,
		FirstName:    DefaultSeedFirstName,
		LastName:     DefaultSeedLastName,
		PasswordHash: hash,
		Verified:     true,
		CreatedAt:    time.Now(),
	}
	if err := s.repos.Users.Upsert(demo); err != nil {
		return "", errors.Wrap(err, "failed to create demo account")
	}

	if s.config.GetSeedProducts() {
		if err := s.seedProducts(ctx, demo); err != nil {
			return "", err
		}
	}

	event := s.logger.Info().Str("email", email).Str("public_url", s.config.GetPublicURL())
	if generatedPassword != "" {
		// Only shown once; the hash is all that is kept
		event = event.Str("password", generatedPassword)
	}
	event.Msg("bootstrap: demo account created")
	return generatedPassword, nil
}

func (s *Server) seedProducts(ctx context.Context, owner *users.User) error {
	for i, sample := range sampleProducts {
		if err := ctx.Err(); err != nil {
			return err
		}

		data, err := solidPNG(sample.colour)
		if err != nil {
			return errors.Wrap(err, "failed to render sample image")
		}
		img, err := s.repos.Uploads.Put("image/png", data)
		if err != nil {
			return errors.Wrap(err, "failed to store sample image")
		}

		p := &products.Product{
			Title:       sample.title,
			Description: sample.description,
			Price:       sample.price,
			Images:      []users.Image{{URL: uploadURL(img.ID), ID: img.ID}},
			Location:    sample.location,
			User:        products.Owner{ID: owner.ID, Email: owner.Email},
			CreatedAt:   time.Now().Add(time.Duration(i) * time.Second),
		}
		if err := s.repos.Products.Upsert(p); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to seed product %q", sample.title))
		}
	}
	return nil
}

// solidPNG renders a small single colour placeholder image
func solidPNG(c color.RGBA) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
