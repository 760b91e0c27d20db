// Package transcript renders conversation messages into sanitized HTML
// entries for an append-only rendering surface.
package transcript

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hmawbi/uniguide/internal/models"
)

// Surface is the rendering surface the transcript appends to. It keeps an
// ordered list of entries and owns the composing indicator.
type Surface interface {
	AppendEntry(Entry)
	SetComposing(bool)
	ScrollToLatest()
}

// Entry is one rendered transcript row.
type Entry struct {
	Role      models.Role `json:"role"`
	HTML      string      `json:"html"`
	Timestamp string      `json:"timestamp"`
	IsError   bool        `json:"is_error,omitempty"`
	IsUrgent  bool        `json:"is_urgent,omitempty"`
}

// ResourceView is a sanitized crisis resource ready for presentation.
type ResourceView struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	LinkHTML    string `json:"link_html,omitempty"`
}

var (
	urlPattern  = regexp.MustCompile(`https?://[^\s<]+`)
	boldPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// Renderer formats messages for a Surface. Rendering is stateless per call:
// the same Message always produces the same Entry and the Message itself is
// never mutated.
type Renderer struct {
	surface     Surface
	policy      *bluemonday.Policy
	scrollDefer time.Duration
}

// NewRenderer wires a renderer to its surface. scrollDefer delays the
// auto-scroll after each append so layout can settle; zero scrolls
// synchronously.
func NewRenderer(surface Surface, scrollDefer time.Duration) *Renderer {
	return &Renderer{
		surface:     surface,
		policy:      newTranscriptPolicy(),
		scrollDefer: scrollDefer,
	}
}

func newTranscriptPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("br", "strong")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoReferrerOnLinks(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	return p
}

// RenderMessage appends a formatted entry for msg and schedules an
// auto-scroll to keep it in view.
func (r *Renderer) RenderMessage(msg models.Message) {
	entry := Entry{
		Role:      msg.Role,
		HTML:      r.formatBody(msg.Text),
		Timestamp: msg.Timestamp.Format("3:04 PM"),
		IsError:   msg.Flags.IsError,
		IsUrgent:  msg.Flags.IsUrgent,
	}

	r.surface.AppendEntry(entry)

	if r.scrollDefer <= 0 {
		r.surface.ScrollToLatest()
		return
	}
	time.AfterFunc(r.scrollDefer, r.surface.ScrollToLatest)
}

// SetComposing toggles the surface's composing indicator.
func (r *Renderer) SetComposing(on bool) {
	r.surface.SetComposing(on)
}

// formatBody escapes untrusted text and then applies the convenience
// transforms. The escape must come first so that auto-linking and bold
// substitution can never reintroduce injected markup; the policy pass at the
// end enforces that and pins link semantics to a blank target with
// noopener/noreferrer.
func (r *Renderer) formatBody(text string) string {
	safe := html.EscapeString(text)
	safe = urlPattern.ReplaceAllString(safe, `<a href="$0">$0</a>`)
	safe = boldPattern.ReplaceAllString(safe, "<strong>$1</strong>")
	safe = strings.ReplaceAll(safe, "\r\n", "\n")
	safe = strings.ReplaceAll(safe, "\n", "<br>")
	return r.policy.Sanitize(safe)
}

// RenderCrisisResources sanitizes a resource list for the crisis overlay.
// Network-originated fields get the same escaping guarantee as message text.
func (r *Renderer) RenderCrisisResources(resources []models.Resource) []ResourceView {
	views := make([]ResourceView, 0, len(resources))
	for _, res := range resources {
		view := ResourceView{
			Title:       html.EscapeString(res.Title),
			Description: html.EscapeString(res.Description),
		}
		if url := strings.TrimSpace(res.URL); url != "" {
			anchor := fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(url), html.EscapeString(url))
			view.LinkHTML = r.policy.Sanitize(anchor)
		}
		views = append(views, view)
	}
	return views
}
