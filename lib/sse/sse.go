// Package sse implements a server-sent events client: a Decoder for the
// text/event-stream wire format and a reconnecting Client used by the
// hywire runtime for data-sse subscriptions.
package sse

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetry is the reconnect delay used until the server sends a
// retry: field.
const DefaultRetry = 3 * time.Second

// Event is one server-sent event.
type Event struct {
	// Type is the event name; "message" when the stream did not set one.
	Type string

	// Data is the event payload. Multi-line data fields are joined with
	// newlines per the SSE specification.
	Data string

	// LastEventID is the id in effect when the event was dispatched.
	LastEventID string
}

// Decoder reads events from a text/event-stream body.
//
// The caller drives iteration with Next, which returns io.EOF when the
// stream ends:
//
//	dec := sse.NewDecoder(resp.Body)
//	for {
//	    event, err := dec.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    // handle event
//	}
type Decoder struct {
	scanner *bufio.Scanner
	lastID  string
	retry   time.Duration
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Decoder{scanner: scanner}
}

// Retry returns the server-requested reconnect delay, or zero if the
// stream has not sent a retry field.
func (d *Decoder) Retry() time.Duration { return d.retry }

// LastEventID returns the most recent id field seen.
func (d *Decoder) LastEventID() string { return d.lastID }

// Next returns the next event, or io.EOF when the stream ends.
func (d *Decoder) Next() (Event, error) {
	var (
		eventType string
		data      []string
	)
	for d.scanner.Scan() {
		line := d.scanner.Text()
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			// Dispatch on blank line, but only if the block carried
			// a data field.
			if len(data) == 0 {
				eventType = ""
				continue
			}
			typ := eventType
			if typ == "" {
				typ = "message"
			}
			return Event{Type: typ, Data: strings.Join(data, "\n"), LastEventID: d.lastID}, nil
		}

		if strings.HasPrefix(line, ":") {
			continue // comment
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")

		switch field {
		case "event":
			eventType = value
		case "data":
			data = append(data, value)
		case "id":
			if !strings.Contains(value, "\x00") {
				d.lastID = value
			}
		case "retry":
			if ms, err := strconv.Atoi(value); err == nil && ms >= 0 {
				d.retry = time.Duration(ms) * time.Millisecond
			}
		}
	}
	if err := d.scanner.Err(); err != nil {
		return Event{}, err
	}
	return Event{}, io.EOF
}

// Client maintains an EventSource-style connection: it connects, decodes
// events onto a channel, and reconnects after errors, resuming with
// Last-Event-ID.
type Client struct {
	url    string
	http   *http.Client
	header http.Header
	events chan Event
	errs   chan error
	cancel context.CancelFunc
	done   chan struct{}
	retry  time.Duration
}

// Connect opens an event-stream connection to url and starts the read
// loop. The returned client delivers events on Events until Close is
// called or ctx is cancelled.
func Connect(ctx context.Context, httpClient *http.Client, url string, header http.Header) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	ctx, cancel := context.WithCancel(ctx)
	c := &Client{
		url:    url,
		http:   httpClient,
		header: header,
		events: make(chan Event, 16),
		errs:   make(chan error, 1),
		cancel: cancel,
		done:   make(chan struct{}),
		retry:  DefaultRetry,
	}
	go c.run(ctx)
	return c
}

// Events returns the channel of decoded events. It is closed when the
// client shuts down.
func (c *Client) Events() <-chan Event { return c.events }

// Errs returns connection errors. At most one error is buffered; the
// read loop keeps reconnecting regardless.
func (c *Client) Errs() <-chan error { return c.errs }

// URL returns the connected URL.
func (c *Client) URL() string { return c.url }

// Close tears down the connection and closes the event channel.
func (c *Client) Close() {
	c.cancel()
	<-c.done
}

func (c *Client) run(ctx context.Context) {
	defer close(c.done)
	defer close(c.events)

	lastID := ""
	for {
		retry, err := c.stream(ctx, &lastID)
		if err != nil && ctx.Err() == nil {
			select {
			case c.errs <- err:
			default:
			}
		}
		if ctx.Err() != nil {
			return
		}
		if retry > 0 {
			c.retry = retry
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.retry):
		}
	}
}

// stream runs one connection until it ends, returning any retry delay
// the server requested.
func (c *Client) stream(ctx context.Context, lastID *string) (time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if *lastID != "" {
		req.Header.Set("Last-Event-ID", *lastID)
	}
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("sse: unexpected status %d from %s", resp.StatusCode, c.url)
	}

	dec := NewDecoder(resp.Body)
	for {
		event, err := dec.Next()
		if err == io.EOF {
			*lastID = dec.LastEventID()
			return dec.Retry(), nil
		}
		if err != nil {
			*lastID = dec.LastEventID()
			return dec.Retry(), err
		}
		select {
		case c.events <- event:
		case <-ctx.Done():
			return dec.Retry(), nil
		}
	}
}
