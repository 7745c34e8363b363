package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/amirhosseinghanipour/timesheets/internal/clock"
	"github.com/amirhosseinghanipour/timesheets/internal/domain"
	domerrors "github.com/amirhosseinghanipour/timesheets/internal/domain/errors"
)

func newTestIssuer() (*TokenIssuer, *clock.FakeClock) {
	clk := clock.Fake(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	return NewHMACTokenIssuer([]byte("test-secret"), "timesheets", "timesheets-api", clk), clk
}

func TestAccessTokenRoundTrip(t *testing.T) {
	iss, _ := newTestIssuer()
	tok, err := iss.IssueAccessToken("user-1", 30*time.Minute)
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	if strings.Count(tok, ".") != 2 {
		t.Fatalf("expected compact JWT, got %q", tok)
	}
	claims, err := iss.Decode(tok, domain.TokenTypeAccess)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.Subject != "user-1" || claims.Type != domain.TokenTypeAccess {
		t.Errorf("unexpected claims %+v", claims)
	}
}

func TestRefreshTokenCarriesJTI(t *testing.T) {
	iss, _ := newTestIssuer()
	tok, err := iss.IssueRefreshToken("user-1", "abc123", 7*24*time.Hour)
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}
	claims, err := iss.Decode(tok, domain.TokenTypeRefresh)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if claims.JTI != "abc123" {
		t.Errorf("JTI = %q, want abc123", claims.JTI)
	}
	if _, err := iss.IssueRefreshToken("user-1", "", time.Hour); err == nil {
		t.Error("refresh token without jti should fail")
	}
}

func TestDecodeRejectsWrongType(t *testing.T) {
	iss, _ := newTestIssuer()
	tok, _ := iss.IssueRefreshToken("user-1", "jti", time.Hour)
	if _, err := iss.Decode(tok, domain.TokenTypeAccess); !errors.Is(err, domerrors.ErrWrongTokenType) {
		t.Fatalf("expected ErrWrongTokenType, got %v", err)
	}
	if _, err := iss.Decode(tok, ""); err != nil {
		t.Fatalf("untyped decode should accept any type: %v", err)
	}
}

func TestDecodeRejectsExpired(t *testing.T) {
	iss, clk := newTestIssuer()
	tok, _ := iss.IssueAccessToken("user-1", time.Minute)
	clk.Advance(2 * time.Minute)
	_, err := iss.Decode(tok, domain.TokenTypeAccess)
	if !errors.Is(err, domerrors.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if domerrors.KindOf(err) != domerrors.KindUnauthenticated {
		t.Fatalf("expired token should be an authentication failure")
	}
}

func TestDecodeRejectsTamperedAndForeign(t *testing.T) {
	iss, clk := newTestIssuer()
	tok, _ := iss.IssueAccessToken("user-1", time.Hour)
	parts := strings.Split(tok, ".")
	tampered := parts[0] + "." + parts[1] + "." + strings.Repeat("A", len(parts[2]))
	if _, err := iss.Decode(tampered, domain.TokenTypeAccess); !errors.Is(err, domerrors.ErrInvalidToken) {
		t.Errorf("tampered signature: expected ErrInvalidToken, got %v", err)
	}
	other := NewHMACTokenIssuer([]byte("other-secret"), "timesheets", "timesheets-api", clk)
	foreign, _ := other.IssueAccessToken("user-1", time.Hour)
	if _, err := iss.Decode(foreign, domain.TokenTypeAccess); !errors.Is(err, domerrors.ErrInvalidToken) {
		t.Errorf("foreign key: expected ErrInvalidToken, got %v", err)
	}
	for _, junk := range []string{"", "abc", "a.b.c"} {
		if _, err := iss.Decode(junk, ""); !errors.Is(err, domerrors.ErrInvalidToken) {
			t.Errorf("Decode(%q): expected ErrInvalidToken, got %v", junk, err)
		}
	}
}

func TestRSAIssuerFromPEM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatal(err)
	}
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	clk := clock.Fake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	iss, err := NewRSATokenIssuerFromPEM(pemBytes, "timesheets", "", clk)
	if err != nil {
		t.Fatalf("NewRSATokenIssuerFromPEM: %v", err)
	}
	tok, err := iss.IssueAccessToken("user-2", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.Decode(tok, domain.TokenTypeAccess); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	hmacIss := NewHMACTokenIssuer([]byte("secret"), "timesheets", "", clk)
	if _, err := hmacIss.Decode(tok, ""); err == nil {
		t.Fatal("HS256 issuer must not accept an RS256 token")
	}
	if _, err := NewRSATokenIssuerFromPEM([]byte("not pem"), "", "", clk); err == nil {
		t.Fatal("expected error for invalid PEM")
	}
}
