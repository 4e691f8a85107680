package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosmodiet-go/internal/models"
)

func TestGenerateToken(t *testing.T) {
	token, err := GenerateToken()
	require.NoError(t, err)

	if !strings.HasPrefix(token, "cd_") {
		t.Errorf("token should start with 'cd_', got %s", token)
	}
	if len(token) < 40 {
		t.Errorf("token too short: %d chars", len(token))
	}
}

func TestGenerateToken_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := GenerateToken()
		require.NoError(t, err)
		if seen[token] {
			t.Fatalf("duplicate token generated: %s", token)
		}
		seen[token] = true
	}
}

func TestHashToken(t *testing.T) {
	h1 := HashToken("cd_test")
	h2 := HashToken("cd_test")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashToken("cd_other"))
}

func TestIssueToken_PrunesExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	u := &models.User{Tokens: []models.Token{
		{Hash: "old", ExpiresAt: now.Add(-time.Hour).Unix()},
		{Hash: "live", ExpiresAt: now.Add(time.Hour).Unix()},
	}}

	token, err := IssueToken(u, 24*time.Hour, now)
	require.NoError(t, err)

	require.Len(t, u.Tokens, 2)
	assert.Equal(t, "live", u.Tokens[0].Hash)
	assert.Equal(t, HashToken(token), u.Tokens[1].Hash)
	assert.Equal(t, now.Add(24*time.Hour).Unix(), u.Tokens[1].ExpiresAt)
}

func TestAuthenticate(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	doc := &models.Document{Users: []models.User{
		{ID: "u1"},
		{ID: "u2"},
	}}

	token, err := IssueToken(&doc.Users[1], time.Hour, now)
	require.NoError(t, err)

	// The token resolves exactly the user that issued it.
	got := Authenticate(doc, token, now)
	require.NotNil(t, got)
	assert.Equal(t, "u2", got.ID)

	assert.Nil(t, Authenticate(doc, "cd_unknown", now))
	assert.Nil(t, Authenticate(doc, "", now))

	// Past its expiry the same token stops working.
	assert.Nil(t, Authenticate(doc, token, now.Add(2*time.Hour)))
}

func TestRevoke(t *testing.T) {
	now := time.Now()
	doc := &models.Document{Users: []models.User{{ID: "u1"}}}
	token, err := IssueToken(&doc.Users[0], time.Hour, now)
	require.NoError(t, err)

	assert.True(t, Revoke(doc, token))
	assert.Nil(t, Authenticate(doc, token, now))
	assert.False(t, Revoke(doc, token))
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)
	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
}
