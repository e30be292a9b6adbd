package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tribe-fitness/internal/chat"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/locale"
	"tribe-fitness/internal/rewards"
)

const pingPeriod = 25 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleGetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.State.Snapshot())
}

func (s *Server) handlePushSteps(c *gin.Context) {
	var req struct {
		Steps *int `json:"steps" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Steps < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "steps must not be negative"})
		return
	}

	delivered, err := s.deps.Feed.PushSteps(*req.Steps)
	if err != nil {
		s.sensorError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"delivered": delivered})
}

func (s *Server) handlePushLocation(c *gin.Context) {
	var fix health.LocationFix
	if err := c.ShouldBindJSON(&fix); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if fix.SpeedMetersPerSecond < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "speed must not be negative"})
		return
	}

	delivered, err := s.deps.Feed.PushLocation(fix)
	if err != nil {
		s.sensorError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"delivered": delivered})
}

func (s *Server) sensorError(c *gin.Context, err error) {
	if errors.Is(err, health.ErrPermissionDenied) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) handleListWorkouts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"workouts": s.deps.State.Workouts()})
}

func (s *Server) handleLogWorkout(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry := s.deps.State.LogWorkout(fields)
	c.JSON(http.StatusCreated, gin.H{"workout": entry, "tokens": s.deps.State.Tokens()})
}

func (s *Server) handleListStore(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"items":  s.deps.Store.Catalog().Items(),
		"tokens": s.deps.State.Tokens(),
	})
}

func (s *Server) handleRedeem(c *gin.Context) {
	r, err := s.deps.Store.Redeem(c.Param("id"))
	switch {
	case errors.Is(err, rewards.ErrUnknownItem):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, rewards.ErrInsufficientTokens):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "tokens": s.deps.State.Tokens()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, gin.H{"redemption": r})
	}
}

func (s *Server) session(c *gin.Context) (*chat.Session, bool) {
	profile, ok := chat.ProfileByName(c.Param("bot"))
	if ok {
		if session, found := s.deps.Sessions[profile.Name]; found {
			return session, true
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "unknown assistant"})
	return nil, false
}

func (s *Server) handleListMessages(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}
	if c.Query("mark_read") == "true" {
		session.MarkRead()
	}
	c.JSON(http.StatusOK, gin.H{
		"messages": session.Messages(),
		"typing":   session.IsTyping(),
	})
}

// handleSendMessage blocks until the reply is available. A superseded or
// image-only message yields 202 with no reply.
func (s *Server) handleSendMessage(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req struct {
		Text  string `json:"text"`
		Image string `json:"image"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var replies <-chan chat.Message
	if req.Image != "" {
		replies = session.SendImage(req.Image, req.Text)
	} else {
		replies = session.Send(req.Text)
	}

	select {
	case reply, ok := <-replies:
		if !ok {
			c.JSON(http.StatusAccepted, gin.H{"reply": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"reply": reply})
	case <-c.Request.Context().Done():
		s.logger.Debug("client left before reply", zap.String("bot", session.Profile().Name))
	}
}

func (s *Server) handleToggleReaction(c *gin.Context) {
	session, ok := s.session(c)
	if !ok {
		return
	}

	var req struct {
		Reaction string `json:"reaction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := session.ToggleReaction(c.Param("id"), req.Reaction)
	if errors.Is(err, chat.ErrMessageNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

func (s *Server) handleSetLocale(c *gin.Context) {
	var req struct {
		Locale string `json:"locale" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	l, err := s.deps.Locales.Set(req.Locale)
	if errors.Is(err, locale.ErrUnsupportedLocale) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "supported": locale.Supported()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"locale": l, "language": l.Name()})
}

func (s *Server) handleWeeklyActivity(c *gin.Context) {
	if s.deps.Analytics == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal disabled"})
		return
	}
	activity, err := s.deps.Analytics.GetWeeklyActivity()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	cl := &wsClient{subject: c.GetString(subjectKey), conn: conn}

	s.hub.register(cl)
	cl.mu.Lock()
	err = conn.WriteJSON(gin.H{"type": "snapshot", "snapshot": s.deps.State.Snapshot()})
	cl.mu.Unlock()
	if err != nil {
		s.hub.unregister(cl)
		return
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		t := time.NewTicker(pingPeriod)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				if err := cl.write(websocket.PingMessage, nil); err != nil {
					s.hub.unregister(cl)
					return
				}
			}
		}
	}()

	// read loop ends on client close/error
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.unregister(cl)
			return
		}
	}
}
