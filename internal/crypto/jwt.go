package crypto

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dreamware/csync/internal/types"
)

// Issuer is the fixed "iss" claim value stamped on every token this server
// mints, and the only issuer its validator accepts.
const Issuer = "fioncat.io/csync/jwt-tokenizer"

const (
	audienceAdmin  = "admin"
	audienceNormal = "normal"
)

// TokenResult is the minted token plus its absolute expiry timestamp.
type TokenResult struct {
	Token       string
	ExpireAfter uint64
}

// JWTGenerator signs tokens with an RSA private key using RS256.
type JWTGenerator struct {
	key    *rsa.PrivateKey
	expiry time.Duration
}

// NewJWTGenerator builds a generator from a PEM-encoded RSA private key.
func NewJWTGenerator(privateKeyPEM []byte, expiry time.Duration) (*JWTGenerator, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa private key: %w", err)
	}
	return &JWTGenerator{key: key, expiry: expiry}, nil
}

// Generate mints a token for user, valid from now until now+expiry.
func (g *JWTGenerator) Generate(user types.User, now time.Time) (TokenResult, error) {
	aud := audienceNormal
	if user.Admin {
		aud = audienceAdmin
	}

	iat := now.Unix()
	exp := now.Add(g.expiry).Unix()

	claims := jwt.MapClaims{
		"aud": aud,
		"exp": exp,
		"iat": iat,
		"iss": Issuer,
		"nbf": iat,
		"sub": user.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	signed, err := token.SignedString(g.key)
	if err != nil {
		return TokenResult{}, fmt.Errorf("sign jwt token: %w", err)
	}

	return TokenResult{Token: signed, ExpireAfter: uint64(exp)}, nil
}

// JWTValidator verifies tokens with an RSA public key.
type JWTValidator struct {
	key *rsa.PublicKey
}

// NewJWTValidator builds a validator from a PEM-encoded RSA public key.
func NewJWTValidator(publicKeyPEM []byte) (*JWTValidator, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse rsa public key: %w", err)
	}
	return &JWTValidator{key: key}, nil
}

// Validate checks the token's signature, issuer, audience, and time window,
// returning the user it authenticates.
func (v *JWTValidator) Validate(tokenString string, now time.Time) (types.User, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	})
	if err != nil {
		return types.User{}, fmt.Errorf("validate jwt token: %w", err)
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return types.User{}, fmt.Errorf("validate jwt token: empty subject")
	}

	aud, _ := claims["aud"].(string)
	if aud != audienceAdmin && aud != audienceNormal {
		return types.User{}, fmt.Errorf("validate jwt token: unrecognized audience %q", aud)
	}

	return types.User{Name: sub, Admin: aud == audienceAdmin}, nil
}
