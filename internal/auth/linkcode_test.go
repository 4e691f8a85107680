package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeIssuer_RedeemOnce(t *testing.T) {
	c := NewCodeIssuer(10 * time.Minute)

	code, expires, err := c.Issue("u1")
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.True(t, expires.After(time.Now()))

	userID, ok := c.Redeem(code)
	require.True(t, ok)
	assert.Equal(t, "u1", userID)

	// Single use.
	_, ok = c.Redeem(code)
	assert.False(t, ok)
}

func TestCodeIssuer_UnknownCode(t *testing.T) {
	c := NewCodeIssuer(10 * time.Minute)
	_, ok := c.Redeem("AAAAAA")
	assert.False(t, ok)
}

func TestCodeIssuer_Expired(t *testing.T) {
	c := NewCodeIssuer(10 * time.Minute)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	code, _, err := c.Issue("u1")
	require.NoError(t, err)

	c.now = func() time.Time { return base.Add(11 * time.Minute) }
	_, ok := c.Redeem(code)
	assert.False(t, ok)
}

func TestCodeIssuer_ReissueInvalidatesPrevious(t *testing.T) {
	c := NewCodeIssuer(10 * time.Minute)

	first, _, err := c.Issue("u1")
	require.NoError(t, err)
	second, _, err := c.Issue("u1")
	require.NoError(t, err)

	_, ok := c.Redeem(first)
	assert.False(t, ok)
	userID, ok := c.Redeem(second)
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
}
