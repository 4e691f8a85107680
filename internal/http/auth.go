package http

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"cosmodiet-go/internal/auth"
	"cosmodiet-go/internal/models"
)

type authResponse struct {
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

func newUserID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Server) tokenTTL() time.Duration {
	return time.Duration(s.cfg.TokenTTLHours) * time.Hour
}

// POST /api/register
func (s *Server) register(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}

	// bcrypt is deliberately slow; hash before taking the store lock.
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		fail(c, err)
		return
	}

	var resp authResponse
	err = s.store.Apply(func(doc *models.Document) error {
		if doc.UserByEmail(req.Email) != nil {
			return errEmailExists
		}
		u := models.User{
			ID:           newUserID(),
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: hash,
			RegDate:      s.now().Format("02.01.2006, 15:04:05"),
			Tokens:       []models.Token{},
			BioHistory:   []map[string]any{},
			DietHistory:  []models.DietEntry{},
		}
		token, err := auth.IssueToken(&u, s.tokenTTL(), s.now())
		if err != nil {
			return err
		}
		doc.Users = append(doc.Users, u)
		resp = authResponse{User: u.Public(), Token: token}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, resp)
}

// POST /api/login
func (s *Server) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}

	var resp authResponse
	err := s.store.Apply(func(doc *models.Document) error {
		u := doc.UserByEmail(strings.TrimSpace(req.Email))
		// Absent email and wrong password are indistinguishable to the
		// caller so the endpoint cannot be used to enumerate accounts.
		if u == nil || !auth.CheckPassword(u.PasswordHash, req.Password) {
			return errInvalidCredentials
		}
		token, err := auth.IssueToken(u, s.tokenTTL(), s.now())
		if err != nil {
			return err
		}
		resp = authResponse{User: u.Public(), Token: token}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, resp)
}

// POST /api/logout
func (s *Server) logout(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&req)
	token := bearerToken(c, req.Token)

	err := s.store.Apply(func(doc *models.Document) error {
		if !auth.Revoke(doc, token) {
			return errUnauthorized
		}
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"ok": true})
}

// POST /api/me
func (s *Server) me(c *gin.Context) {
	u, err := s.authedUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"user": u.Public()})
}

// authedUser resolves the caller for read-only handlers.
func (s *Server) authedUser(c *gin.Context) (*models.User, error) {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindBodyWithJSON(&req)
	token := bearerToken(c, req.Token)

	doc, err := s.store.Read()
	if err != nil {
		return nil, err
	}
	u := auth.Authenticate(doc, token, s.now())
	if u == nil {
		return nil, errUnauthorized
	}
	return u, nil
}
