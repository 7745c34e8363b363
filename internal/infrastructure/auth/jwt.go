package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/amirhosseinghanipour/timesheets/internal/application/ports"
	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

// TokenIssuer implements ports.TokenIssuer. It signs with HS256 when built
// from a shared secret and RS256 when built from an RSA key.
type TokenIssuer struct {
	method    jwt.SigningMethod
	signKey   any
	verifyKey any
	issuer    string
	audience  string
	clock     clock.Clock
}

type tokenClaims struct {
	jwt.RegisteredClaims
	Type string `json:"type"`
}

// NewHMACTokenIssuer returns an HS256 issuer.
func NewHMACTokenIssuer(secret []byte, issuer, audience string, clk clock.Clock) *TokenIssuer {
	return &TokenIssuer{
		method:    jwt.SigningMethodHS256,
		signKey:   secret,
		verifyKey: secret,
		issuer:    issuer,
		audience:  audience,
		clock:     clk,
	}
}

// NewRSATokenIssuer returns an RS256 issuer.
func NewRSATokenIssuer(privateKey *rsa.PrivateKey, issuer, audience string, clk clock.Clock) *TokenIssuer {
	return &TokenIssuer{
		method:    jwt.SigningMethodRS256,
		signKey:   privateKey,
		verifyKey: &privateKey.PublicKey,
		issuer:    issuer,
		audience:  audience,
		clock:     clk,
	}
}

// NewRSATokenIssuerFromPEM decodes a PKCS#1 or PKCS#8 RSA private key.
func NewRSATokenIssuerFromPEM(pemBytes []byte, issuer, audience string, clk clock.Clock) (*TokenIssuer, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		parsed, err8 := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err8 != nil {
			return nil, fmt.Errorf("parse RSA private key: %w", err)
		}
		var ok bool
		if key, ok = parsed.(*rsa.PrivateKey); !ok {
			return nil, errors.New("PEM is not an RSA private key")
		}
	}
	return NewRSATokenIssuer(key, issuer, audience, clk), nil
}

func (t *TokenIssuer) IssueAccessToken(subject string, expiresIn time.Duration) (string, error) {
	return t.issue(subject, "", domain.TokenTypeAccess, expiresIn)
}

func (t *TokenIssuer) IssueRefreshToken(subject, jti string, expiresIn time.Duration) (string, error) {
	if jti == "" {
		return "", errors.New("refresh token requires a jti")
	}
	return t.issue(subject, jti, domain.TokenTypeRefresh, expiresIn)
}

func (t *TokenIssuer) issue(subject, jti string, typ domain.TokenType, expiresIn time.Duration) (string, error) {
	now := t.clock.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		},
		Type: string(typ),
	}
	if t.audience != "" {
		claims.Audience = jwt.ClaimStrings{t.audience}
	}
	return jwt.NewWithClaims(t.method, claims).SignedString(t.signKey)
}

func (t *TokenIssuer) Decode(tokenString string, expected domain.TokenType) (*domain.TokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{t.method.Alg()}),
		jwt.WithTimeFunc(t.clock.Now),
		jwt.WithExpirationRequired(),
	}
	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}
	if t.audience != "" {
		opts = append(opts, jwt.WithAudience(t.audience))
	}
	claims := &tokenClaims{}
	token, err := jwt.NewParser(opts...).ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return t.verifyKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domerrors.ErrTokenExpired
		}
		return nil, domerrors.ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, domerrors.ErrInvalidToken
	}
	if expected != "" && claims.Type != string(expected) {
		return nil, domerrors.ErrWrongTokenType
	}
	out := &domain.TokenClaims{
		Subject: claims.Subject,
		Type:    domain.TokenType(claims.Type),
		JTI:     claims.ID,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

var _ ports.TokenIssuer = (*TokenIssuer)(nil)
