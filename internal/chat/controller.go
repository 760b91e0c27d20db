// Package chat owns the conversational message pipeline: input validation,
// the single-outstanding-request lock, the append-only history, and the
// dispatch of post-response behaviour.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hmawbi/uniguide/internal/models"
	"github.com/hmawbi/uniguide/internal/transcript"
)

var (
	ErrEmptyMessage   = errors.New("chat: message is empty")
	ErrMessageTooLong = errors.New("chat: message exceeds maximum length")
)

const (
	defaultMaxMessageLength = 500

	apologyText = "Sorry, I ran into a problem answering that. Please try again in a moment."
)

// GuidanceService answers a user message with a response payload.
type GuidanceService interface {
	Send(ctx context.Context, message string) (*models.ServiceResponse, error)
}

// CrisisPresenter is the overlay collaborator. It is invoked exactly when a
// response is urgent and carries resources, never otherwise.
type CrisisPresenter interface {
	Present(resources []transcript.ResourceView)
}

// HistoryStore persists messages outside the session. Append failures are
// logged and never interrupt the pipeline.
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, msg models.Message) error
}

// detailedError is implemented by failures that deliver a user-presentable
// detail, e.g. *guidance.APIError.
type detailedError interface {
	UserDetail() string
}

// Options configure a Controller beyond its two required collaborators.
type Options struct {
	MaxMessageLength int
	SessionID        string
	Store            HistoryStore
	Crisis           CrisisPresenter
	// FocusFunc signals input-focus readiness; fired on every exit path of
	// Submit.
	FocusFunc func()
	Logger    *zap.SugaredLogger
	Clock     func() time.Time
}

// Controller sequences a single outstanding request to the guidance service
// and owns all conversation state. Construct one per active session; state
// is mutated only through its methods.
type Controller struct {
	service  GuidanceService
	renderer *transcript.Renderer

	maxLen    int
	sessionID string
	store     HistoryStore
	crisis    CrisisPresenter
	focus     func()
	logger    *zap.SugaredLogger
	now       func() time.Time

	mu         sync.Mutex
	processing bool
	history    []models.Message
	draft      string
}

func NewController(service GuidanceService, renderer *transcript.Renderer, opts Options) *Controller {
	maxLen := opts.MaxMessageLength
	if maxLen <= 0 {
		maxLen = defaultMaxMessageLength
	}

	now := opts.Clock
	if now == nil {
		now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	return &Controller{
		service:   service,
		renderer:  renderer,
		maxLen:    maxLen,
		sessionID: opts.SessionID,
		store:     opts.Store,
		crisis:    opts.Crisis,
		focus:     opts.FocusFunc,
		logger:    logger,
		now:       now,
	}
}

// Validate trims raw input and checks it against the configured maximum
// length. Side-effect free.
func (c *Controller) Validate(raw string) (string, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > c.maxLen {
		return "", ErrMessageTooLong
	}
	return text, nil
}

// Submit runs one full submission: validate, lock, render the user message,
// call the guidance service once, render the outcome, unlock. It yields
// nothing; every observable effect goes through the renderer and the
// collaborators. A call while a request is in flight is a silent no-op, as
// is empty input; an over-long message renders a single error entry instead.
//
// There is no cancellation or timeout here: if the service call hangs the
// controller stays locked until it returns.
func (c *Controller) Submit(ctx context.Context, raw string) {
	c.mu.Lock()
	if c.processing {
		c.mu.Unlock()
		return
	}

	text, err := c.Validate(raw)
	if err != nil {
		c.mu.Unlock()
		if errors.Is(err, ErrMessageTooLong) {
			c.append(ctx, models.Message{
				Role:      models.RoleAssistant,
				Text:      fmt.Sprintf("Please keep your message under %d characters.", c.maxLen),
				Timestamp: c.now(),
				Flags:     models.MessageFlags{IsError: true},
			})
		}
		c.signalFocus()
		return
	}

	c.processing = true
	c.draft = ""
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.processing = false
		c.mu.Unlock()
		c.signalFocus()
	}()

	c.append(ctx, models.Message{
		Role:      models.RoleUser,
		Text:      text,
		Timestamp: c.now(),
	})
	c.renderer.SetComposing(true)

	response, err := c.service.Send(ctx, text)
	c.renderer.SetComposing(false)

	if err != nil {
		c.logger.Warnw("guidance request failed", "session", c.sessionID, "error", err)
		c.append(ctx, models.Message{
			Role:      models.RoleAssistant,
			Text:      apologyWithDetail(err),
			Timestamp: c.now(),
			Flags:     models.MessageFlags{IsError: true},
		})
		return
	}

	// A response flagged is_error already carries user-facing text, so it is
	// rendered verbatim rather than replaced with the apology.
	c.append(ctx, models.Message{
		Role:      models.RoleAssistant,
		Text:      response.BotText,
		Timestamp: c.now(),
		Flags: models.MessageFlags{
			IsError:  response.IsError,
			IsUrgent: response.IsUrgent,
		},
	})

	if response.IsUrgent && len(response.RelevantResources) > 0 && c.crisis != nil {
		c.crisis.Present(c.renderer.RenderCrisisResources(response.RelevantResources))
	}
}

// SubmitQuick populates the draft with text and submits it.
func (c *Controller) SubmitQuick(ctx context.Context, text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()
	c.Submit(ctx, text)
}

// Processing reports whether a request is currently in flight.
func (c *Controller) Processing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.processing
}

// History returns a copy of the session history in insertion order.
func (c *Controller) History() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Message, len(c.history))
	copy(out, c.history)
	return out
}

func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// SessionID identifies this conversation for the history store.
func (c *Controller) SessionID() string {
	return c.sessionID
}

func (c *Controller) append(ctx context.Context, msg models.Message) {
	c.mu.Lock()
	c.history = append(c.history, msg)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.Append(ctx, c.sessionID, msg); err != nil {
			c.logger.Warnw("persist message", "session", c.sessionID, "error", err)
		}
	}

	c.renderer.RenderMessage(msg)
}

func (c *Controller) signalFocus() {
	if c.focus != nil {
		c.focus()
	}
}

func apologyWithDetail(err error) string {
	var detailed detailedError
	if errors.As(err, &detailed) {
		if detail := strings.TrimSpace(detailed.UserDetail()); detail != "" {
			return apologyText + " (" + detail + ")"
		}
	}
	return apologyText
}
