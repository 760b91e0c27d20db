// Package web exposes the chat pipeline over HTTP: message submission,
// history, the live transcript stream, and the resources listing.
package web

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hmawbi/uniguide/internal/auth"
	"github.com/hmawbi/uniguide/internal/chat"
	"github.com/hmawbi/uniguide/internal/config"
	"github.com/hmawbi/uniguide/internal/models"
	"github.com/hmawbi/uniguide/internal/transcript"
)

const sessionCookieName = "uniguide_session"

// ResourceLister lists priority admission resources.
type ResourceLister interface {
	PriorityResources(ctx context.Context) ([]models.Resource, error)
}

type session struct {
	id         string
	controller *chat.Controller
	surface    *broadcastSurface
}

type Handler struct {
	cfg      *config.Config
	auth     *auth.Service
	guidance chat.GuidanceService
	store    ResourceLister
	history  chat.HistoryStore
	logger   *zap.SugaredLogger
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
}

// NewHandler wires the web layer. store and historyStore may be nil when the
// corresponding backend is not configured.
func NewHandler(cfg *config.Config, authService *auth.Service, guidance chat.GuidanceService, store ResourceLister, historyStore chat.HistoryStore, logger *zap.SugaredLogger) *Handler {
	return &Handler{
		cfg:      cfg,
		auth:     authService,
		guidance: guidance,
		store:    store,
		history:  historyStore,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	apiGroup := router.Group("/api")
	apiGroup.POST("/session", h.handleNewSession)
	apiGroup.GET("/resources", h.handleResources)

	chatGroup := router.Group("/chatbot/api")
	chatGroup.POST("/message", h.handleMessage)
	chatGroup.GET("/history", h.handleHistory)
	chatGroup.GET("/config", h.handleUIConfig)
	chatGroup.GET("/stream", h.handleStream)
	chatGroup.POST("/clear", h.handleClear)
}

type messageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleNewSession(c *gin.Context) {
	sess, err := h.issueSession(c)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to create session", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session_id": sess.id})
}

func (h *Handler) handleMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "invalid payload", err)
		return
	}

	sess, err := h.sessionFor(c)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to resolve session", err)
		return
	}

	mark := sess.surface.mark()
	sess.controller.Submit(c.Request.Context(), req.Message)
	entries, crisis := sess.surface.since(mark)

	c.JSON(http.StatusOK, gin.H{
		"entries":          entries,
		"crisis_resources": crisis,
	})
}

func (h *Handler) handleHistory(c *gin.Context) {
	sess, err := h.sessionFor(c)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to resolve session", err)
		return
	}

	history := sess.controller.History()
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.id,
		"messages":   history,
	})
}

func (h *Handler) handleUIConfig(c *gin.Context) {
	chatCfg := h.cfg.Chat
	c.JSON(http.StatusOK, gin.H{
		"max_message_length":        chatCfg.MaxMessageLength,
		"typing_indicator_delay_ms": chatCfg.TypingIndicatorDelay.Milliseconds(),
		"auto_scroll_defer_ms":      chatCfg.AutoScrollDefer.Milliseconds(),
		"retry_attempts":            chatCfg.RetryAttempts,
	})
}

// handleClear ends the current session. The next message starts a fresh
// conversation; history inside any one session stays append-only.
func (h *Handler) handleClear(c *gin.Context) {
	if token, err := c.Cookie(sessionCookieName); err == nil {
		if id, err := h.auth.VerifySession(token); err == nil {
			h.mu.Lock()
			delete(h.sessions, id)
			h.mu.Unlock()
		}
	}

	c.SetCookie(sessionCookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (h *Handler) handleResources(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "resource store not configured"})
		return
	}

	list, err := h.store.PriorityResources(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to load resources", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"resources": list})
}

func (h *Handler) handleStream(c *gin.Context) {
	sess, err := h.sessionFor(c)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "failed to resolve session", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		return
	}

	go h.streamEvents(sess, conn)
}

func (h *Handler) streamEvents(sess *session, conn *websocket.Conn) {
	defer conn.Close()

	ch, snapshot := sess.surface.subscribe()
	defer sess.surface.unsubscribe(ch)

	for i := range snapshot {
		if err := conn.WriteJSON(event{Type: eventEntry, Entry: &snapshot[i]}); err != nil {
			return
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev := <-ch:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

// sessionFor resolves the caller's session from its cookie, issuing a new
// one when the cookie is missing or invalid.
func (h *Handler) sessionFor(c *gin.Context) (*session, error) {
	if token, err := c.Cookie(sessionCookieName); err == nil {
		if id, err := h.auth.VerifySession(token); err == nil {
			return h.getOrCreate(id), nil
		}
	}

	return h.issueSession(c)
}

func (h *Handler) issueSession(c *gin.Context) (*session, error) {
	issued, err := h.auth.IssueSession()
	if err != nil {
		return nil, err
	}

	maxAge := int(time.Until(issued.ExpiresAt).Seconds())
	c.SetCookie(sessionCookieName, issued.Token, maxAge, "/", "", false, true)

	return h.getOrCreate(issued.ID), nil
}

func (h *Handler) getOrCreate(id string) *session {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sess, ok := h.sessions[id]; ok {
		return sess
	}

	sess := h.buildSession(id)
	h.sessions[id] = sess
	return sess
}

func (h *Handler) buildSession(id string) *session {
	surface := newBroadcastSurface()
	renderer := transcript.NewRenderer(surface, h.cfg.Chat.AutoScrollDefer)

	controller := chat.NewController(h.guidance, renderer, chat.Options{
		MaxMessageLength: h.cfg.Chat.MaxMessageLength,
		SessionID:        id,
		Store:            h.history,
		Crisis:           surface,
		Logger:           h.logger,
	})

	return &session{id: id, controller: controller, surface: surface}
}

func writeError(c *gin.Context, status int, message string, err error) {
	c.JSON(status, gin.H{
		"error":   message,
		"details": err.Error(),
	})
}
