package web

import (
	"testing"

	"github.com/hmawbi/uniguide/internal/transcript"
)

func TestSurfaceMarkAndSince(t *testing.T) {
	surface := newBroadcastSurface()

	surface.AppendEntry(transcript.Entry{HTML: "before"})

	mark := surface.mark()
	surface.AppendEntry(transcript.Entry{HTML: "during-1"})
	surface.AppendEntry(transcript.Entry{HTML: "during-2"})
	surface.Present([]transcript.ResourceView{{Title: "Hotline"}})

	entries, crisis := surface.since(mark)
	if len(entries) != 2 || entries[0].HTML != "during-1" || entries[1].HTML != "during-2" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if len(crisis) != 1 || crisis[0].Title != "Hotline" {
		t.Fatalf("unexpected crisis views: %+v", crisis)
	}

	// Crisis views are drained once delivered.
	_, again := surface.since(surface.mark())
	if len(again) != 0 {
		t.Fatalf("crisis views must drain, got %+v", again)
	}
}

func TestSurfaceSinceWithStaleMark(t *testing.T) {
	surface := newBroadcastSurface()
	surface.AppendEntry(transcript.Entry{HTML: "only"})

	entries, _ := surface.since(99)
	if len(entries) != 0 {
		t.Fatalf("stale mark must yield no entries, got %+v", entries)
	}
}

func TestSurfaceSubscribeSnapshotAndEvents(t *testing.T) {
	surface := newBroadcastSurface()
	surface.AppendEntry(transcript.Entry{HTML: "existing"})

	ch, snapshot := surface.subscribe()
	defer surface.unsubscribe(ch)

	if len(snapshot) != 1 || snapshot[0].HTML != "existing" {
		t.Fatalf("unexpected snapshot: %+v", snapshot)
	}

	surface.AppendEntry(transcript.Entry{HTML: "new"})
	surface.SetComposing(true)
	surface.ScrollToLatest()

	ev := <-ch
	if ev.Type != eventEntry || ev.Entry == nil || ev.Entry.HTML != "new" {
		t.Fatalf("unexpected event: %+v", ev)
	}

	ev = <-ch
	if ev.Type != eventComposing || ev.Composing == nil || !*ev.Composing {
		t.Fatalf("unexpected event: %+v", ev)
	}

	ev = <-ch
	if ev.Type != eventScroll {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestSurfaceBroadcastNeverBlocks(t *testing.T) {
	surface := newBroadcastSurface()

	ch, _ := surface.subscribe()
	defer surface.unsubscribe(ch)

	// Saturate the subscriber channel and keep appending. A slow consumer
	// drops events instead of stalling the pipeline.
	for i := 0; i < 100; i++ {
		surface.AppendEntry(transcript.Entry{HTML: "burst"})
	}

	entries, _ := surface.since(0)
	if len(entries) != 100 {
		t.Fatalf("transcript must retain every entry, got %d", len(entries))
	}
	if len(ch) != cap(ch) {
		t.Fatalf("expected a full subscriber channel, got %d of %d", len(ch), cap(ch))
	}
}
