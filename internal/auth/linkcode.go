package auth

import (
	"crypto/rand"
	"sync"
	"time"
)

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// randomCode builds an n-char code from an alphabet without the
// easily confused characters (0/O, 1/I).
func randomCode(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return string(b), nil
}

type pendingLink struct {
	userID    string
	expiresAt time.Time
}

// CodeIssuer hands out short-lived single-use codes that link a web
// account to a Telegram chat. Codes live only in memory; losing them
// on restart just means the user requests a new one.
type CodeIssuer struct {
	mu    sync.Mutex
	ttl   time.Duration
	codes map[string]pendingLink
	now   func() time.Time
}

func NewCodeIssuer(ttl time.Duration) *CodeIssuer {
	return &CodeIssuer{
		ttl:   ttl,
		codes: make(map[string]pendingLink),
		now:   time.Now,
	}
}

// Issue mints a code bound to userID. Any previous code for the same
// user is invalidated.
func (c *CodeIssuer) Issue(userID string) (string, time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for code, p := range c.codes {
		if p.userID == userID || !p.expiresAt.After(now) {
			delete(c.codes, code)
		}
	}

	code, err := randomCode(6)
	if err != nil {
		return "", time.Time{}, err
	}
	expires := now.Add(c.ttl)
	c.codes[code] = pendingLink{userID: userID, expiresAt: expires}
	return code, expires, nil
}

// Redeem consumes a code and returns the bound user id. A code can be
// redeemed exactly once and only before it expires.
func (c *CodeIssuer) Redeem(code string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.codes[code]
	if !ok {
		return "", false
	}
	delete(c.codes, code)
	if !p.expiresAt.After(c.now()) {
		return "", false
	}
	return p.userID, true
}
