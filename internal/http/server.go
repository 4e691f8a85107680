package http

import (
	_ "embed"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"

	"cosmodiet-go/internal/ai"
	"cosmodiet-go/internal/auth"
	"cosmodiet-go/internal/config"
	"cosmodiet-go/internal/detect"
	"cosmodiet-go/internal/store"
	"cosmodiet-go/internal/telegram"
)

//go:embed bio_schema.json
var bioSchemaJSON string

// Sentinel errors returned from store mutators; mapped to the status
// taxonomy by fail().
var (
	errUnauthorized       = errors.New("Unauthorized")
	errInvalidCredentials = errors.New("Invalid credentials")
	errEmailExists        = errors.New("Email already exists")
	errNotLinked          = errors.New("Not linked")
)

type Server struct {
	cfg       *config.Config
	store     *store.Store
	codes     *auth.CodeIssuer
	ai        *ai.OpenRouterClient
	detector  *detect.Client
	notifier  telegram.Sender
	bioSchema *gojsonschema.Schema
	now       func() time.Time
}

// NewServer wires the router. notifier may be nil when no bot token is
// configured; /api/telegram/test then reports an upstream failure.
func NewServer(cfg *config.Config, st *store.Store, codes *auth.CodeIssuer, notifier telegram.Sender) *gin.Engine {
	s := &Server{
		cfg:      cfg,
		store:    st,
		codes:    codes,
		ai:       ai.NewOpenRouterClient(cfg),
		detector: detect.NewClient(cfg.DetectorBaseURL),
		notifier: notifier,
		now:      time.Now,
	}
	return s.router()
}

func (s *Server) router() *gin.Engine {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(bioSchemaJSON))
	if err != nil {
		panic(err)
	}
	s.bioSchema = schema

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors(s.cfg))
	r.Use(logging())

	r.POST("/api/register", s.register)
	r.POST("/api/login", s.login)
	r.POST("/api/logout", s.logout)
	r.POST("/api/me", s.me)
	r.POST("/api/save_bio", s.saveBio)
	r.POST("/api/get_bio", s.getBio)
	r.POST("/api/save_diet", s.saveDiet)
	r.POST("/api/get_diets", s.getDiets)
	r.POST("/api/calculate_diet", s.calculateDiet)
	r.POST("/api/telegram/status", s.telegramStatus)
	r.POST("/api/telegram/link_code", s.telegramLinkCode)
	r.POST("/api/telegram/test", s.telegramTest)
	r.POST("/api/chat", s.chat)
	r.POST("/api/detect", s.detect)
	r.POST("/api/save_detection_session", s.saveDetectionSession)
	r.POST("/api/get_detection_sessions", s.getDetectionSessions)

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
	r.NoRoute(func(c *gin.Context) { c.JSON(404, gin.H{"error": "Not found"}) })
	return r
}

// bearerToken extracts a token from an Authorization header; the body
// token wins when both are present.
func bearerToken(c *gin.Context, bodyToken string) string {
	if bodyToken != "" {
		return bodyToken
	}
	h := c.GetHeader("Authorization")
	if parts := strings.SplitN(h, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// fail converts an error from a handler or store mutator into the JSON
// error envelope with the right status code.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errUnauthorized), errors.Is(err, errInvalidCredentials):
		c.JSON(401, gin.H{"error": err.Error()})
	case errors.Is(err, errEmailExists), errors.Is(err, errNotLinked):
		c.JSON(400, gin.H{"error": err.Error()})
	default:
		log.Printf("store error: %v", err)
		c.JSON(500, gin.H{"error": "Internal error"})
	}
}

func cors(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", cfg.AllowOrigins)
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

func logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
