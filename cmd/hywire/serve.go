package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hywire/hywire"
)

var serveCmd = &cobra.Command{
	Use:     "serve [dir]",
	Aliases: []string{"s"},
	Short:   "Serve a directory of hywire pages",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().String("host", "localhost", "host to bind")
	serveCmd.Flags().Bool("watch", false, "watch the served directory and emit reload events")
	viper.BindPFlag("serve.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("serve.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("serve.watch", serveCmd.Flags().Lookup("watch"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	slog.SetDefault(logger)

	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	broker := newEventBroker()

	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(dir)))
	mux.HandleFunc("/api/signals", handleSignals)
	mux.HandleFunc("/api/fragment", handleFragment)
	mux.HandleFunc("/events", broker.serveSSE)

	go tick(broker)

	if viper.GetBool("serve.watch") {
		if err := watchDir(dir, broker, logger); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	addr := fmt.Sprintf("%s:%d", viper.GetString("serve.host"), viper.GetInt("serve.port"))
	logger.Info("serving", "addr", addr, "dir", dir, "watch", viper.GetBool("serve.watch"))
	return http.ListenAndServe(addr, mux)
}

// handleSignals returns a JSON signal patch; the runtime merges JSON
// responses into its store without swapping.
func handleSignals(w http.ResponseWriter, r *http.Request) {
	hywire.WriteSignals(w, map[string]any{
		"server": map[string]any{
			"time":    time.Now().Format(time.RFC3339),
			"runtime": hywire.IsRuntimeRequest(r),
		},
	})
}

// handleFragment returns an HTML fragment. ?selector= targets a specific
// element; ?mode= overrides the swap mode.
func handleFragment(w http.ResponseWriter, r *http.Request) {
	selector := r.URL.Query().Get("selector")
	if selector != "" {
		hywire.FragmentHeaders(w, selector, hywire.SwapMode(r.URL.Query().Get("mode")))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<div class="fragment">rendered at %s</div>`, time.Now().Format(time.TimeOnly))
}

// tick broadcasts a counter on the "tick" event every second.
func tick(broker *eventBroker) {
	n := 0
	for range time.Tick(time.Second) {
		n++
		broker.broadcast("tick", fmt.Sprintf(`{"ticks": %d}`, n))
	}
}

// watchDir emits a "reload" SSE event whenever the served directory
// changes.
func watchDir(dir string, broker *eventBroker, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
					logger.Debug("change detected", "file", event.Name)
					broker.broadcast("reload", event.Name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("watcher error", "error", err)
			}
		}
	}()
	return nil
}

// eventBroker fans SSE events out to connected clients.
type eventBroker struct {
	mu   sync.Mutex
	subs map[chan string]bool
}

func newEventBroker() *eventBroker {
	return &eventBroker{subs: make(map[chan string]bool)}
}

func (b *eventBroker) broadcast(event, data string) {
	msg := fmt.Sprintf("event: %s\ndata: %s\n\n", event, data)
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- msg:
		default: // slow client, drop the event
		}
	}
}

func (b *eventBroker) serveSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan string, 16)
	b.mu.Lock()
	b.subs[ch] = true
	b.mu.Unlock()
	defer func() {
		b.mu.Lock()
		delete(b.subs, ch)
		b.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg := <-ch:
			fmt.Fprint(w, msg)
			flusher.Flush()
		}
	}
}
