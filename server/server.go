// Package server exposes the conversational agent over HTTP: session
// creation, message posting, the SSE event stream and a context
// inspection endpoint.
package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	orchestratorx "github.com/shopstream/discovery-agent/agent/orchestrator"
	statex "github.com/shopstream/discovery-agent/agent/state"
)

// Config is read from the environment with the SERVER prefix.
type Config struct {
	Addr  string `envconfig:"ADDR" split_words:"true" default:":8080"`
	Debug bool   `envconfig:"DEBUG" split_words:"true" default:"false"`
}

type Server struct {
	engine *gin.Engine
	orch   *orchestratorx.Orchestrator
	addr   string
}

func New(orch *orchestratorx.Orchestrator, cfg Config) (*Server, error) {
	if orch == nil {
		return nil, errors.New("orchestrator is required")
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())

	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{engine: engine, orch: orch, addr: addr}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)

	api := s.engine.Group("/api")
	api.POST("/sessions", s.createSession)
	api.GET("/sessions/:session_id/context", s.sessionContext)
	api.POST("/chat/:session_id/message", s.postMessage)
	api.GET("/stream/:session_id", s.stream)
}

func (s *Server) Run() error {
	log.Info().Str("addr", s.addr).Msg("http server listening")
	return s.engine.Run(s.addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) createSession(c *gin.Context) {
	sessionID, err := s.orch.OpenSession(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session_id": sessionID})
}

func (s *Server) sessionContext(c *gin.Context) {
	sessionID := c.Param("session_id")
	data, err := s.orch.SessionContext(c.Request.Context(), sessionID)
	if errors.Is(err, statex.ErrSessionNotFound) || errors.Is(err, statex.ErrInvalidSession) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": sessionID, "context": data})
}

func (s *Server) postMessage(c *gin.Context) {
	sessionID := c.Param("session_id")

	exists, err := s.orch.SessionExists(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check session"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var msg orchestratorx.Inbound
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid message payload"})
		return
	}
	if strings.TrimSpace(msg.Text) == "" && msg.Function == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message or function is required"})
		return
	}

	switch err := s.orch.Push(sessionID, msg); {
	case errors.Is(err, orchestratorx.ErrStreamNotFound):
		c.JSON(http.StatusConflict, gin.H{"error": "no open stream for session"})
	case errors.Is(err, orchestratorx.ErrQueueFull):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "session queue is full"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not queue message"})
	default:
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
	}
}

func (s *Server) stream(c *gin.Context) {
	sessionID := c.Param("session_id")

	exists, err := s.orch.SessionExists(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not check session"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	emitter, err := newSSEEmitter(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	err = s.orch.Run(c.Request.Context(), sessionID, emitter)
	if errors.Is(err, orchestratorx.ErrStreamActive) {
		c.JSON(http.StatusConflict, gin.H{"error": "stream already open for session"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("stream ended with error")
	}
}
