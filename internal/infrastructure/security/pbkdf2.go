package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2Params configurable for hashing. Iterations is part of the stored
// format's contract: changing it invalidates existing hashes.
type PBKDF2Params struct {
	Iterations int
	SaltLength int
	KeyLength  int
}

// DefaultPBKDF2Params returns PBKDF2-HMAC-SHA256 with 100k iterations.
func DefaultPBKDF2Params() PBKDF2Params {
	return PBKDF2Params{
		Iterations: 100_000,
		SaltLength: 16,
		KeyLength:  32,
	}
}

// PBKDF2Hasher implements ports.PasswordHasher. Hashes are stored as
// "<hex salt>$<base64url key>"; the hex salt text itself is the KDF salt.
type PBKDF2Hasher struct {
	params PBKDF2Params
}

func NewPBKDF2Hasher(params PBKDF2Params) *PBKDF2Hasher {
	def := DefaultPBKDF2Params()
	if params.Iterations <= 0 {
		params.Iterations = def.Iterations
	}
	if params.SaltLength <= 0 {
		params.SaltLength = def.SaltLength
	}
	if params.KeyLength <= 0 {
		params.KeyLength = def.KeyLength
	}
	return &PBKDF2Hasher{params: params}
}

func (h *PBKDF2Hasher) Hash(password string) (string, error) {
	raw := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	salt := hex.EncodeToString(raw)
	return salt + "$" + h.derive(password, salt), nil
}

func (h *PBKDF2Hasher) Verify(password, encoded string) bool {
	salt, stored, ok := strings.Cut(encoded, "$")
	if !ok || salt == "" || stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(h.derive(password, salt)), []byte(stored)) == 1
}

func (h *PBKDF2Hasher) derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), h.params.Iterations, h.params.KeyLength, sha256.New)
	return base64.RawURLEncoding.EncodeToString(key)
}
