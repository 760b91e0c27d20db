package web

import (
	"sync"

	"github.com/hmawbi/uniguide/internal/transcript"
)

// event is what the transcript stream pushes to subscribed sockets.
type event struct {
	Type      string                    `json:"type"`
	Entry     *transcript.Entry         `json:"entry,omitempty"`
	Composing *bool                     `json:"composing,omitempty"`
	Resources []transcript.ResourceView `json:"resources,omitempty"`
}

const (
	eventEntry     = "entry"
	eventComposing = "composing"
	eventScroll    = "scroll"
	eventCrisis    = "crisis"
)

// broadcastSurface is the rendering surface behind a browser session. It
// retains the ordered transcript for HTTP responses and fans render events
// out to websocket subscribers. It also acts as the session's crisis
// presenter, pushing resource listings through the same stream.
type broadcastSurface struct {
	mu      sync.Mutex
	entries []transcript.Entry
	crisis  []transcript.ResourceView
	subs    map[chan event]struct{}
}

func newBroadcastSurface() *broadcastSurface {
	return &broadcastSurface{subs: make(map[chan event]struct{})}
}

func (s *broadcastSurface) AppendEntry(entry transcript.Entry) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.broadcast(event{Type: eventEntry, Entry: &entry})
}

func (s *broadcastSurface) SetComposing(on bool) {
	s.broadcast(event{Type: eventComposing, Composing: &on})
}

func (s *broadcastSurface) ScrollToLatest() {
	s.broadcast(event{Type: eventScroll})
}

// Present implements chat.CrisisPresenter.
func (s *broadcastSurface) Present(resources []transcript.ResourceView) {
	s.mu.Lock()
	s.crisis = append(s.crisis, resources...)
	s.mu.Unlock()

	s.broadcast(event{Type: eventCrisis, Resources: resources})
}

// mark returns the current transcript length for a later since call.
func (s *broadcastSurface) mark() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// since returns the entries appended after mark and drains any pending
// crisis views.
func (s *broadcastSurface) since(mark int) ([]transcript.Entry, []transcript.ResourceView) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if mark < 0 || mark > len(s.entries) {
		mark = len(s.entries)
	}
	entries := make([]transcript.Entry, len(s.entries)-mark)
	copy(entries, s.entries[mark:])

	crisis := s.crisis
	s.crisis = nil

	return entries, crisis
}

// subscribe registers a stream consumer and returns its channel plus a
// snapshot of the transcript so far.
func (s *broadcastSurface) subscribe() (chan event, []transcript.Entry) {
	ch := make(chan event, 16)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.subs[ch] = struct{}{}
	snapshot := make([]transcript.Entry, len(s.entries))
	copy(snapshot, s.entries)

	return ch, snapshot
}

func (s *broadcastSurface) unsubscribe(ch chan event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, ch)
}

// broadcast fans an event out without blocking the pipeline: a subscriber
// that cannot keep up misses events rather than stalling Submit.
func (s *broadcastSurface) broadcast(ev event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
