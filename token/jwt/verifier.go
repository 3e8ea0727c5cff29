package jwt

import (
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	marketerrors "github.com/jrsteele09/go-market-client/internal/errors"
	"github.com/jrsteele09/go-market-client/token"
)

// Verifier validates access tokens issued by a Creator
type Verifier struct {
	signer token.Signer
}

// NewVerifier creates a verifier for tokens signed by signer
func NewVerifier(signer token.Signer) (*Verifier, error) {
	if signer == nil {
		return nil, errors.New("[NewVerifier] signer is required")
	}
	return &Verifier{signer: signer}, nil
}

// Verify checks signature and expiry and returns the token claims.
// Expired tokens yield ErrTokenExpired, anything else ErrInvalidToken.
func (v *Verifier) Verify(raw string) (*token.Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, marketerrors.ErrInvalidToken
	}

	parsed, err := jwtlib.ParseWithClaims(raw, jwtlib.MapClaims{}, v.signer.GetVerificationKey,
		jwtlib.WithValidMethods([]string{v.signer.GetSigningMethod().Alg()}),
		jwtlib.WithTimeFunc(NowTimeFunc),
		jwtlib.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, marketerrors.ErrTokenExpired
		}
		return nil, errors.Wrap(marketerrors.ErrInvalidToken, err.Error())
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok || !parsed.Valid {
		return nil, marketerrors.ErrInvalidToken
	}
	return token.FromMapClaims(mapClaims)
}
