package sse

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeAll(t *testing.T, stream string) []Event {
	t.Helper()
	dec := NewDecoder(strings.NewReader(stream))
	var events []Event
	for {
		event, err := dec.Next()
		if err == io.EOF {
			return events
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		events = append(events, event)
	}
}

func TestDecoderSimpleEvent(t *testing.T) {
	events := decodeAll(t, "data: hello\n\n")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Type != "message" || events[0].Data != "hello" {
		t.Errorf("event = %+v, want message/hello", events[0])
	}
}

func TestDecoderNamedEvent(t *testing.T) {
	events := decodeAll(t, "event: tick\ndata: 1\n\n")
	if len(events) != 1 || events[0].Type != "tick" || events[0].Data != "1" {
		t.Errorf("events = %+v", events)
	}
}

func TestDecoderMultilineData(t *testing.T) {
	events := decodeAll(t, "data: line1\ndata: line2\n\n")
	if len(events) != 1 || events[0].Data != "line1\nline2" {
		t.Errorf("events = %+v", events)
	}
}

func TestDecoderIgnoresCommentsAndEmptyBlocks(t *testing.T) {
	events := decodeAll(t, ": keepalive\n\nevent: ghost\n\ndata: real\n\n")
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 (no data means no dispatch)", len(events))
	}
	if events[0].Type != "message" || events[0].Data != "real" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestDecoderEventNameResetsBetweenBlocks(t *testing.T) {
	events := decodeAll(t, "event: tick\ndata: 1\n\ndata: 2\n\n")
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[1].Type != "message" {
		t.Errorf("second event type = %q, want message", events[1].Type)
	}
}

func TestDecoderIDAndRetry(t *testing.T) {
	dec := NewDecoder(strings.NewReader("id: 42\nretry: 250\ndata: x\n\ndata: y\n\n"))

	first, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if first.LastEventID != "42" {
		t.Errorf("LastEventID = %q, want 42", first.LastEventID)
	}
	if dec.Retry() != 250*time.Millisecond {
		t.Errorf("Retry = %v, want 250ms", dec.Retry())
	}

	// The id persists across events until the server changes it.
	second, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if second.LastEventID != "42" {
		t.Errorf("second LastEventID = %q, want 42", second.LastEventID)
	}
}

func TestDecoderIgnoresIDWithNull(t *testing.T) {
	dec := NewDecoder(strings.NewReader("id: a\x00b\ndata: x\n\n"))
	event, err := dec.Next()
	if err != nil {
		t.Fatal(err)
	}
	if event.LastEventID != "" {
		t.Errorf("LastEventID = %q, want empty (null bytes rejected)", event.LastEventID)
	}
}

func TestDecoderCRLF(t *testing.T) {
	events := decodeAll(t, "event: tick\r\ndata: 1\r\n\r\n")
	if len(events) != 1 || events[0].Type != "tick" || events[0].Data != "1" {
		t.Errorf("events = %+v", events)
	}
}

func TestDecoderNoSpaceAfterColon(t *testing.T) {
	events := decodeAll(t, "data:tight\n\n")
	if len(events) != 1 || events[0].Data != "tight" {
		t.Errorf("events = %+v", events)
	}
}

func TestClientReceivesEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "event: tick\ndata: 1\n\n")
	}))
	defer srv.Close()

	client := Connect(t.Context(), srv.Client(), srv.URL, nil)
	defer client.Close()

	select {
	case event := <-client.Events():
		if event.Type != "tick" || event.Data != "1" {
			t.Errorf("event = %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestClientReconnectsWithLastEventID(t *testing.T) {
	var mu sync.Mutex
	var ids []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		ids = append(ids, r.Header.Get("Last-Event-ID"))
		n := len(ids)
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "retry: 10\n")
		fmt.Fprintf(w, "id: %d\ndata: payload\n\n", n)
	}))
	defer srv.Close()

	client := Connect(t.Context(), srv.Client(), srv.URL, nil)
	defer client.Close()

	// Two events means the client reconnected at least once.
	for i := 0; i < 2; i++ {
		select {
		case <-client.Events():
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for reconnect")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	if ids[0] != "" {
		t.Errorf("first request carried Last-Event-ID %q", ids[0])
	}
	if len(ids) < 2 || ids[1] != "1" {
		t.Errorf("reconnect ids = %v, want second request to resume from 1", ids)
	}
}

func TestClientReportsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := Connect(t.Context(), srv.Client(), srv.URL, nil)
	defer client.Close()

	select {
	case err := <-client.Errs():
		if err == nil {
			t.Fatal("nil error")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for error")
	}
}

func TestClientCloseEndsEventChannel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: x\n\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-r.Context().Done()
	}))
	defer srv.Close()

	client := Connect(t.Context(), srv.Client(), srv.URL, nil)
	<-client.Events()
	client.Close()

	// Close guarantees the run loop has exited and the channel drains to
	// a close; a hang here fails the test by timeout.
	for range client.Events() {
	}
}
