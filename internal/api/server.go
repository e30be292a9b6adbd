// Package api exposes the health state, the rewards store, both assistants
// and the language setting over HTTP, plus a websocket feed of live updates.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tribe-fitness/internal/chat"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/locale"
	"tribe-fitness/internal/rewards"
	"tribe-fitness/internal/services"
)

const shutdownTimeout = 5 * time.Second

type Deps struct {
	State     *health.State
	Feed      *health.Feed
	Store     *rewards.Store
	Sessions  map[string]*chat.Session
	Locales   *locale.Registry
	Analytics *services.AnalyticsService
	JWTSecret string
	Logger    *zap.Logger
}

type Server struct {
	deps        Deps
	engine      *gin.Engine
	hub         *Hub
	logger      *zap.Logger
	unsubscribe []func()
}

func NewServer(deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		deps:   deps,
		hub:    NewHub(logger.Named("ws")),
		logger: logger,
	}
	s.engine = s.setupRouter()
	s.subscribe()
	return s
}

func (s *Server) setupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", s.handleHealthz)

	v1 := r.Group("/v1")
	v1.Use(AuthMiddleware(s.deps.JWTSecret))
	{
		v1.GET("/health", s.handleGetHealth)
		v1.POST("/sensors/steps", s.handlePushSteps)
		v1.POST("/sensors/location", s.handlePushLocation)

		v1.GET("/workouts", s.handleListWorkouts)
		v1.POST("/workouts", s.handleLogWorkout)

		v1.GET("/store", s.handleListStore)
		v1.POST("/store/:id/redeem", s.handleRedeem)

		v1.GET("/chat/:bot/messages", s.handleListMessages)
		v1.POST("/chat/:bot/messages", s.handleSendMessage)
		v1.POST("/chat/:bot/messages/:id/reactions", s.handleToggleReaction)

		v1.PUT("/locale", s.handleSetLocale)
		v1.GET("/analytics/week", s.handleWeeklyActivity)

		v1.GET("/ws", s.handleWS)
	}

	return r
}

// subscribe forwards state events and chat messages to websocket clients.
func (s *Server) subscribe() {
	if s.deps.State != nil {
		s.unsubscribe = append(s.unsubscribe, s.deps.State.Subscribe(func(ev health.Event) {
			s.hub.Broadcast(gin.H{"type": "health", "event": ev})
		}))
	}
	for name, session := range s.deps.Sessions {
		bot := name
		s.unsubscribe = append(s.unsubscribe, session.Subscribe(func(m chat.Message) {
			s.hub.Broadcast(gin.H{"type": "chat", "bot": bot, "message": m})
		}))
	}
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Hub() *Hub { return s.hub }

// Run serves on addr until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close detaches the server from the state and sessions and drops all
// websocket clients.
func (s *Server) Close() {
	for _, fn := range s.unsubscribe {
		fn()
	}
	s.unsubscribe = nil
	s.hub.Close()
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
