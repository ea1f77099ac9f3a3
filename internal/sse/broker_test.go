package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// drain collects every message currently buffered on ch.
func drain(ch chan []byte) []string {
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
}

func TestPublishDelivery(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: TypeLabelSet, Data: map[string]string{"ref": "bc1qa"}})

	select {
	case msg := <-ch:
		s := string(msg)
		if !strings.Contains(s, "event: label.set") {
			t.Errorf("missing event type in %q", s)
		}
		if !strings.Contains(s, `"ref":"bc1qa"`) {
			t.Errorf("missing data in %q", s)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestPublishLabelEvent_Types(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishLabelEvent("set", map[string]string{"ref": "a"})
	b.PublishLabelEvent("imported", map[string]int{"count": 2})
	b.PublishLabelEvent("saved", map[string]int{"count": 2})
	b.PublishLabelEvent("external_change", map[string]string{"kind": "modified"})
	b.PublishLabelEvent("unknown", nil)

	time.Sleep(50 * time.Millisecond)
	msgs := drain(ch)
	for _, want := range []string{TypeLabelSet, TypeLabelsImported, TypeLabelsSaved, TypeExternalChange} {
		found := false
		for _, m := range msgs {
			if strings.HasPrefix(m, "event: "+want+"\n") {
				found = true
			}
		}
		if !found {
			t.Errorf("missing %s in %q", want, msgs)
		}
	}
	// four label events plus one stats hint
	if len(msgs) != 5 {
		t.Errorf("got %d messages, want 5: %q", len(msgs), msgs)
	}
}

func TestPublishLabelEvent_StatsThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishLabelEvent("set", map[string]string{"ref": "a"})
	b.PublishLabelEvent("set", map[string]string{"ref": "b"})

	time.Sleep(50 * time.Millisecond)
	statsCount, labelCount := 0, 0
	for _, s := range drain(ch) {
		if strings.Contains(s, TypeStatsUpdated) {
			statsCount++
		} else {
			labelCount++
		}
	}

	if labelCount != 2 {
		t.Errorf("label events = %d, want 2", labelCount)
	}
	if statsCount != 1 {
		t.Errorf("stats events = %d, want 1 (throttled)", statsCount)
	}
}

func TestSSEHandler(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	req := httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req = req.WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishLabelEvent("saved", map[string]int{"count": 1})
	time.Sleep(50 * time.Millisecond)

	cancel()
	<-done

	body := w.Body.String()
	if !strings.Contains(body, "event: labels.saved") {
		t.Errorf("handler output missing event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestPublishDropsOnFullBuffer(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	// Frames beyond the subscriber buffer must be dropped without blocking.
	for range historySize + clientSlack + 10 {
		b.Publish(Event{Type: "test", Data: map[string]string{"i": "x"}})
	}
}

func TestCloseClosesSubscribersAndStopsOperations(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}

	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// Safe no-ops after close.
	b.Publish(Event{Type: TypeLabelSet, Data: nil})
	b.PublishLabelEvent("set", nil)
	b.Close()
}

func TestSubscribeSince_ReplaysMissedEvents(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	b.Publish(Event{Type: TypeLabelSet, Data: map[string]string{"ref": "a"}})
	b.Publish(Event{Type: TypeLabelSet, Data: map[string]string{"ref": "b"}})
	b.Publish(Event{Type: TypeLabelsSaved, Data: map[string]int{"count": 2}})
	time.Sleep(20 * time.Millisecond)

	fresh := b.Subscribe()
	defer b.Unsubscribe(fresh)
	resumed := b.SubscribeSince(1)
	defer b.Unsubscribe(resumed)

	time.Sleep(50 * time.Millisecond)
	if got := drain(fresh); len(got) != 0 {
		t.Errorf("fresh subscriber got replay: %q", got)
	}
	got := drain(resumed)
	if len(got) != 2 {
		t.Fatalf("replayed %d events, want 2: %q", len(got), got)
	}
	if !strings.Contains(got[0], "id: 2\n") || !strings.Contains(got[0], `"ref":"b"`) {
		t.Errorf("first replayed = %q, want id 2", got[0])
	}
	if !strings.Contains(got[1], "id: 3\n") {
		t.Errorf("second replayed = %q, want id 3", got[1])
	}
}

func TestSSEHandler_LastEventID(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	b.Publish(Event{Type: TypeLabelSet, Data: map[string]string{"ref": "missed"}})
	time.Sleep(20 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	req.Header.Set("Last-Event-ID", "0")
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if !strings.HasPrefix(body, "retry: 3000\n\n") {
		t.Errorf("missing retry hint: %q", body)
	}
	if strings.Contains(body, "missed") {
		t.Errorf("Last-Event-ID 0 should not replay: %q", body)
	}
}

func TestSubscribeSince_ReplaysFullHistory(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()

	for range historySize + 5 {
		b.Publish(Event{Type: TypeLabelSet, Data: map[string]string{"ref": "x"}})
	}
	time.Sleep(50 * time.Millisecond)

	ch := b.SubscribeSince(1)
	defer b.Unsubscribe(ch)
	time.Sleep(50 * time.Millisecond)

	got := drain(ch)
	if len(got) != historySize {
		t.Fatalf("replayed %d events, want %d", len(got), historySize)
	}
	if !strings.Contains(got[0], "id: 6\n") {
		t.Errorf("oldest replayed = %q, want id 6", got[0])
	}
}
