// Package api exposes running games over HTTP and WebSocket.
// The player id comes from the X-Player-ID header, which the upstream auth
// layer sets; this package does no authentication of its own.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/talgya/hexempire/internal/engine"
	"github.com/talgya/hexempire/internal/game"
	"github.com/talgya/hexempire/internal/persistence"
	"github.com/talgya/hexempire/internal/session"
)

// PlayerHeader carries the authenticated player id.
const PlayerHeader = "X-Player-ID"

// Archive is the read side of the store. *persistence.Store satisfies it.
type Archive interface {
	ListGames() ([]persistence.GameSummary, error)
	RecentEvents(gameID string, limit int) ([]engine.Event, error)
}

// Server routes requests to a session.Manager.
type Server struct {
	mgr      *session.Manager
	archive  Archive
	log      *zap.Logger
	limiter  *RateLimiter
	settings func() game.Settings
	maxSeats int
	origins  map[string]bool
	upgrader websocket.Upgrader
	router   *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithArchive enables stored-game listing and the event log endpoint.
func WithArchive(a Archive) Option {
	return func(s *Server) { s.archive = a }
}

// WithRateLimiter limits action submissions.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithSettings supplies the defaults for new games. It is called per
// request, so a reloaded config reaches games created after the reload.
func WithSettings(fn func() game.Settings) Option {
	return func(s *Server) { s.settings = fn }
}

// WithMaxPlayers caps the seats of a new game; 0 means no cap beyond the
// request schema's.
func WithMaxPlayers(n int) Option {
	return func(s *Server) { s.maxSeats = n }
}

// WithAllowedOrigins adds CORS origins. Localhost dev servers are always
// allowed.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				s.origins[o] = true
			}
		}
	}
}

// New builds the router.
func New(mgr *session.Manager, opts ...Option) *Server {
	s := &Server{
		mgr: mgr,
		log: zap.NewNop(),
		settings: func() game.Settings {
			return game.DefaultSettings(40, 30)
		},
		origins: map[string]bool{
			"http://localhost:5173": true,
			"http://localhost:4173": true,
			"http://localhost:3000": true,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.origins[origin]
		},
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog(), s.cors())
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "games": len(s.mgr.List())})
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/games", s.createGame)
		v1.GET("/games", s.listGames)

		g := v1.Group("/games/:id")
		g.GET("", s.getGame)
		g.DELETE("", s.closeGame)
		g.POST("/restore", s.restoreGame)
		g.GET("/events", s.gameEvents)
		g.GET("/stream", s.streamGame)

		actions := g.Group("/actions")
		if s.limiter != nil {
			actions.Use(s.limiter.Middleware())
		}
		actions.POST("", s.submitAction)
	}
	s.router = r
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("player", c.GetHeader(PlayerHeader)),
		)
	}
}

// cors adds CORS headers for allowed frontend origins.
func (s *Server) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if s.origins[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, "+PlayerHeader)
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
