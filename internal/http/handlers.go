package http

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"

	"cosmodiet-go/internal/ai"
	"cosmodiet-go/internal/auth"
	"cosmodiet-go/internal/detect"
	"cosmodiet-go/internal/diet"
	"cosmodiet-go/internal/models"
)

func (s *Server) reqTimeout() time.Duration {
	return time.Duration(s.cfg.ReqTimeoutSec) * time.Second
}

// POST /api/save_bio
func (s *Server) saveBio(c *gin.Context) {
	var req struct {
		Token string         `json:"token"`
		Bio   map[string]any `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}
	token := bearerToken(c, req.Token)

	res, err := s.bioSchema.Validate(gojsonschema.NewGoLoader(req.Bio))
	if err != nil {
		fail(c, err)
		return
	}
	if !res.Valid() {
		details := []string{}
		for _, e := range res.Errors() {
			details = append(details, e.String())
		}
		c.JSON(400, gin.H{"error": "Invalid bio", "details": details})
		return
	}

	err = s.store.Apply(func(doc *models.Document) error {
		u := auth.Authenticate(doc, token, s.now())
		if u == nil {
			return errUnauthorized
		}
		u.BioHistory = append(u.BioHistory, req.Bio)
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"ok": true})
}

// POST /api/get_bio
func (s *Server) getBio(c *gin.Context) {
	u, err := s.authedUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	bio := u.BioHistory
	if bio == nil {
		bio = []map[string]any{}
	}
	c.JSON(200, gin.H{"bio": bio})
}

// POST /api/save_diet
func (s *Server) saveDiet(c *gin.Context) {
	var req struct {
		Token string           `json:"token"`
		Diet  models.DietEntry `json:"diet"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}
	token := bearerToken(c, req.Token)

	err := s.store.Apply(func(doc *models.Document) error {
		u := auth.Authenticate(doc, token, s.now())
		if u == nil {
			return errUnauthorized
		}
		u.DietHistory = append(u.DietHistory, req.Diet)
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"ok": true})
}

// POST /api/get_diets
func (s *Server) getDiets(c *gin.Context) {
	u, err := s.authedUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	diets := u.DietHistory
	if diets == nil {
		diets = []models.DietEntry{}
	}
	c.JSON(200, gin.H{"diets": diets})
}

// POST /api/calculate_diet
// The Diet Builder's server-side computation. Token is optional; with
// a valid one the plan is also appended to the user's history.
func (s *Server) calculateDiet(c *gin.Context) {
	var req struct {
		Token    string  `json:"token"`
		Height   float64 `json:"height"`
		Weight   float64 `json:"weight"`
		Age      int     `json:"age"`
		Activity string  `json:"activity"`
		Gravity  string  `json:"gravity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}
	if !diet.ValidHeight(req.Height) || !diet.ValidWeight(req.Weight) || !diet.ValidAge(req.Age) {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}
	activity, ok := diet.ActivityByLabel(req.Activity)
	if !ok {
		c.JSON(400, gin.H{"error": "Unknown activity level"})
		return
	}
	gravity, ok := diet.GravityByLabel(req.Gravity)
	if !ok {
		c.JSON(400, gin.H{"error": "Unknown gravity level"})
		return
	}

	entry := diet.BuildEntry(req.Height, req.Weight, req.Age, activity, gravity, s.now())

	if token := bearerToken(c, req.Token); token != "" {
		err := s.store.Apply(func(doc *models.Document) error {
			if u := auth.Authenticate(doc, token, s.now()); u != nil {
				u.DietHistory = append(u.DietHistory, entry)
			}
			return nil
		})
		if err != nil {
			fail(c, err)
			return
		}
	}
	c.JSON(200, gin.H{"plan": entry})
}

// POST /api/telegram/status
func (s *Server) telegramStatus(c *gin.Context) {
	u, err := s.authedUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"linked": u.TelegramID != 0})
}

// POST /api/telegram/link_code
func (s *Server) telegramLinkCode(c *gin.Context) {
	u, err := s.authedUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	code, expires, err := s.codes.Issue(u.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"code": code, "expiresAt": expires.UTC().Format(time.RFC3339)})
}

// POST /api/telegram/test
func (s *Server) telegramTest(c *gin.Context) {
	u, err := s.authedUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	if u.TelegramID == 0 {
		fail(c, errNotLinked)
		return
	}
	if s.notifier == nil {
		c.JSON(502, gin.H{"error": "Telegram bot is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.reqTimeout())
	defer cancel()
	if err := s.notifier.SendMessage(ctx, u.TelegramID, "Тестовое уведомление от CosmoDiet ✅", nil); err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"ok": true})
}

// POST /api/chat
func (s *Server) chat(c *gin.Context) {
	var req struct {
		Messages []ai.Message `json:"messages"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.reqTimeout())
	defer cancel()
	reply, err := s.ai.Chat(ctx, req.Messages)
	if err != nil {
		c.JSON(502, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"reply": reply})
}

// POST /api/detect
// Token is optional so the Diet Builder page can run detection without
// an account; an invalid one is tolerated, not rejected.
func (s *Server) detect(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
		Image string `json:"image"`
		Model string `json:"model"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}
	if req.Model == "" {
		req.Model = "can_defect"
	}
	if _, ok := detect.Models[req.Model]; !ok {
		c.JSON(400, gin.H{"error": "Unknown model", "available": detect.ModelKeys()})
		return
	}

	image, err := detect.NormalizeImage(req.Image)
	if err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	if token := bearerToken(c, req.Token); token != "" {
		doc, err := s.store.Read()
		if err != nil {
			fail(c, err)
			return
		}
		if auth.Authenticate(doc, token, s.now()) == nil {
			log.Printf("detect: invalid token ignored")
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), s.reqTimeout())
	defer cancel()
	res, err := s.detector.Detect(ctx, req.Model, image)
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, res)
}

// POST /api/save_detection_session
func (s *Server) saveDetectionSession(c *gin.Context) {
	var req struct {
		Token   string         `json:"token"`
		Session map[string]any `json:"session"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": "Invalid data"})
		return
	}
	token := bearerToken(c, req.Token)

	err := s.store.Apply(func(doc *models.Document) error {
		u := auth.Authenticate(doc, token, s.now())
		if u == nil {
			return errUnauthorized
		}
		u.Detections = append(u.Detections, req.Session)
		return nil
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, gin.H{"ok": true})
}

// POST /api/get_detection_sessions
func (s *Server) getDetectionSessions(c *gin.Context) {
	u, err := s.authedUser(c)
	if err != nil {
		fail(c, err)
		return
	}
	sessions := u.Detections
	if sessions == nil {
		sessions = []map[string]any{}
	}
	c.JSON(200, gin.H{"sessions": sessions})
}
