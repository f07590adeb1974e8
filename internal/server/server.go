// Package server wires the HTTP and WebSocket surface: pool presence,
// matchmaking, the two game socket endpoints and the admin API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/neo/turring_backend/internal/auth"
	"github.com/neo/turring_backend/internal/bot"
	"github.com/neo/turring_backend/internal/config"
	"github.com/neo/turring_backend/internal/game"
	"github.com/neo/turring_backend/internal/llm"
	"github.com/neo/turring_backend/internal/logging"
	"github.com/neo/turring_backend/internal/logstore"
	"github.com/neo/turring_backend/internal/match"
	"github.com/neo/turring_backend/internal/pool"
	"github.com/neo/turring_backend/internal/types"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is handled by the CORS layer
	},
	EnableCompression: true,
}

// Server owns the router and the long-lived game services.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	pool    *pool.Registry
	match   *match.Matchmaker
	pipe    *bot.Pipeline
	store   *logstore.Store
	admin   *auth.Admin
	gameCfg game.Config

	// pairConns holds sockets that arrived at /ws/pair before their peer,
	// keyed pair_id -> ticket. The second arrival takes both and runs the
	// session.
	pairMu    sync.Mutex
	pairConns map[string]map[string]*wsConn
}

// NewServer builds the full service graph from configuration. gen may be nil,
// in which case the bot pipeline answers with its built-in replies; store may
// be nil to disable transcript logging.
func NewServer(cfg *config.Config, gen llm.Generator, store *logstore.Store) *Server {
	registry := pool.NewRegistry()

	s := &Server{
		cfg:    cfg,
		router: gin.Default(),
		pool:   registry,
		match: match.New(match.Options{
			Window:  cfg.MatchWindow(),
			H2HProb: cfg.H2HProb,
			Pool:    registry,
		}),
		pipe: bot.NewPipeline(gen, bot.Config{
			MaxWords:     cfg.LLMMaxWords,
			Temperature:  cfg.LLMTemperature,
			BaseTypoRate: cfg.HumanizeTypoRate,
			MaxTypos:     cfg.HumanizeMaxTypos,
		}),
		store: store,
		admin: auth.New(auth.Config{
			Username:     cfg.AdminUsername,
			PasswordHash: cfg.AdminPasswordHash,
			JWTSecret:    cfg.JWTSecret,
		}),
		gameCfg: game.Config{
			RoundSeconds:    cfg.RoundLimitSecs,
			TurnSeconds:     cfg.TurnLimitSecs,
			ScoreCorrect:    cfg.ScoreCorrect,
			ScoreWrong:      cfg.ScoreWrong,
			ScoreTimeoutWin: cfg.ScoreTimeoutWin,
			MinDelaySecs:    cfg.HumanizeMinDelay,
			MaxDelaySecs:    cfg.HumanizeMaxDelay,
			AppVersion:      cfg.AppVersion,
		},
		pairConns: make(map[string]map[string]*wsConn),
	}

	s.router.Use(corsMiddleware(cfg.CORSOriginsList()))

	s.router.GET("/health", s.handleHealth)

	s.router.GET("/pool/count", s.handlePoolCount)
	s.router.POST("/pool/join", s.handlePoolJoin)
	s.router.POST("/pool/leave", s.handlePoolLeave)

	s.router.POST("/match/request", s.handleMatchRequest)
	s.router.GET("/match/status", s.handleMatchStatus)
	s.router.POST("/match/cancel", s.handleMatchCancel)

	s.router.GET("/ws/match", s.handleWSMatch)
	s.router.GET("/ws/pair", s.handleWSPair)
	s.router.GET("/ws/wait", s.handleWSWait)

	s.router.POST("/admin/login", s.handleAdminLogin)
	adminAPI := s.router.Group("/admin", s.adminAuth())
	adminAPI.GET("/verify", s.handleAdminVerify)
	adminAPI.GET("/conversations", s.handleAdminConversations)
	adminAPI.GET("/conversations/:id", s.handleAdminConversation)
	adminAPI.GET("/analytics", s.handleAdminAnalytics)

	return s
}

// corsMiddleware echoes the origin for configured frontends and short-circuits
// preflight requests.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, HEAD")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"env":     s.cfg.AppEnv,
		"version": s.cfg.AppVersion,
	})
}

func (s *Server) handlePoolCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": s.pool.Count()})
}

func (s *Server) handlePoolJoin(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	c.ShouldBindJSON(&body) // token is optional, so a missing body is fine

	created := body.Token == ""
	token := s.pool.Join(body.Token)
	c.JSON(http.StatusOK, gin.H{
		"ok":      true,
		"token":   token,
		"created": created,
		"count":   s.pool.Count(),
	})
}

func (s *Server) handlePoolLeave(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
	}
	c.ShouldBindJSON(&body)

	if body.Token != "" {
		s.pool.Leave(body.Token)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleMatchRequest(c *gin.Context) {
	var body struct {
		Token string `json:"token"`
		Lang  string `json:"lang"`
	}
	c.ShouldBindJSON(&body)

	lang, err := types.ParseLangPref(body.Lang)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lang"})
		return
	}

	t := s.match.Request(body.Token, lang)
	c.JSON(http.StatusOK, gin.H{
		"ticket":     t.ID,
		"expires_at": float64(t.ExpiresAt.UnixMilli()) / 1000.0,
	})
}

func (s *Server) handleMatchStatus(c *gin.Context) {
	ticket := c.Query("ticket")
	if ticket == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket is required"})
		return
	}
	c.JSON(http.StatusOK, s.match.Status(ticket))
}

func (s *Server) handleMatchCancel(c *gin.Context) {
	var body struct {
		Ticket string `json:"ticket"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Ticket == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ticket is required"})
		return
	}
	s.match.Cancel(body.Ticket)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleAdminLogin(c *gin.Context) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, err := s.admin.Login(body.Username, body.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": time.Now().Add(s.admin.TokenTTL()).Unix(),
	})
}

// adminAuth verifies the bearer token on the protected admin routes.
func (s *Server) adminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := s.admin.Verify(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		c.Set("admin", claims.Subject)
		c.Next()
	}
}

func (s *Server) handleAdminVerify(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

func (s *Server) handleAdminConversations(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "conversation logging disabled"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	sessions, err := s.store.List(limit, offset)
	if err != nil {
		logging.Error("failed to list sessions", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) handleAdminConversation(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "conversation logging disabled"})
		return
	}
	rec, err := s.store.Get(c.Param("id"))
	if err != nil {
		logging.Error("failed to load session", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}
	if rec == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleAdminAnalytics(c *gin.Context) {
	if s.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "conversation logging disabled"})
		return
	}
	analytics, err := s.store.Analyze()
	if err != nil {
		logging.Error("failed to analyze sessions", map[string]interface{}{"error": err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to analyze sessions"})
		return
	}
	c.JSON(http.StatusOK, analytics)
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.cfg.Port)
	srv := &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logging.Info("server listening", map[string]interface{}{"addr": addr})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
