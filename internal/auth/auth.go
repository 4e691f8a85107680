// Package auth covers bearer tokens, password hashing and the
// short-lived Telegram linking codes.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/bcrypt"

	"cosmodiet-go/internal/models"
)

// GenerateToken creates a cryptographically secure bearer token.
// Format: cd_<base64url of 32 random bytes>.
func GenerateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "cd_" + base64.URLEncoding.EncodeToString(b), nil
}

// HashToken returns the SHA256 hex of a token. Records store the hash,
// never the plaintext bearer.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// IssueToken mints a fresh token for the user, prunes any expired ones
// from the record and returns the plaintext to hand to the caller.
func IssueToken(u *models.User, ttl time.Duration, now time.Time) (string, error) {
	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	kept := u.Tokens[:0]
	for _, t := range u.Tokens {
		if t.ExpiresAt > now.Unix() {
			kept = append(kept, t)
		}
	}
	u.Tokens = append(kept, models.Token{
		Hash:      HashToken(token),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	})
	return token, nil
}

// Authenticate resolves a plaintext bearer token to its owning user.
// Unknown and expired tokens both come back nil.
func Authenticate(doc *models.Document, token string, now time.Time) *models.User {
	if token == "" {
		return nil
	}
	hash := HashToken(token)
	u := doc.UserByTokenHash(hash)
	if u == nil {
		return nil
	}
	for _, t := range u.Tokens {
		if t.Hash == hash && t.ExpiresAt > now.Unix() {
			return u
		}
	}
	return nil
}

// Revoke removes the presented token from its record. Reports whether
// a token was actually removed.
func Revoke(doc *models.Document, token string) bool {
	hash := HashToken(token)
	u := doc.UserByTokenHash(hash)
	if u == nil {
		return false
	}
	kept := u.Tokens[:0]
	removed := false
	for _, t := range u.Tokens {
		if t.Hash == hash {
			removed = true
			continue
		}
		kept = append(kept, t)
	}
	u.Tokens = kept
	return removed
}

// HashPassword bcrypt-hashes a plaintext password.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
