package creds

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Dwtexe/cursor-stats/internal/logger"
)

// Event represents a credential watcher event.
type Event struct {
	Type  EventType
	Error error
}

// EventType defines the type of credential event.
type EventType int

const (
	// EventCredentialsChanged fires when the stored token differs from the
	// last one observed, including sign-in and sign-out transitions.
	EventCredentialsChanged EventType = iota
	EventError
)

// Watcher watches the state database for credential changes. The editor
// rewrites state.vscdb constantly, so raw file events are debounced and an
// event is emitted only when the token value actually changed.
type Watcher struct {
	store         *Store
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer

	mu        sync.Mutex
	lastToken string
}

const debounceInterval = 500 * time.Millisecond

// NewWatcher starts watching the store's database directory. The current
// token is captured as the baseline so startup does not emit a change.
func NewWatcher(store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		store:     store,
		watcher:   fsw,
		eventChan: make(chan Event, 16),
		stopChan:  make(chan struct{}),
	}

	// Watch the directory to catch deletes and atomic replacement.
	dir := filepath.Dir(store.Path())
	if err := fsw.Add(dir); err != nil {
		if closeErr := fsw.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return nil, err
	}

	w.lastToken = w.currentToken()

	go w.watchLoop()
	return w, nil
}

// Events returns the event channel for subscribing to credential changes.
func (w *Watcher) Events() <-chan Event {
	return w.eventChan
}

func (w *Watcher) watchLoop() {
	base := filepath.Base(w.store.Path())

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// The sqlite file plus its -wal/-shm siblings all signal writes.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			w.mu.Lock()
			if w.debounceTimer != nil {
				w.debounceTimer.Stop()
			}
			w.debounceTimer = time.AfterFunc(debounceInterval, w.checkForChange)
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.sendEvent(Event{Type: EventError, Error: err})

		case <-w.stopChan:
			return
		}
	}
}

// checkForChange re-reads the token and emits an event only on a real
// transition.
func (w *Watcher) checkForChange() {
	token := w.currentToken()

	w.mu.Lock()
	changed := token != w.lastToken
	w.lastToken = token
	w.mu.Unlock()

	if changed {
		logger.Info("session credential changed")
		w.sendEvent(Event{Type: EventCredentialsChanged})
	}
}

// currentToken reads the stored token, treating missing credentials as the
// empty token so sign-out registers as a change.
func (w *Watcher) currentToken() string {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	session, err := w.store.Session(ctx)
	if err != nil {
		if !errors.Is(err, ErrCredentialMissing) {
			logger.Debug("credential read failed during watch", "error", err)
		}
		return ""
	}
	return session.Token
}

// sendEvent sends an event to the event channel non-blocking.
func (w *Watcher) sendEvent(event Event) {
	select {
	case w.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-w.eventChan:
		default:
		}
		select {
		case w.eventChan <- event:
		default:
		}
	}
}

// Close stops the watcher and cleans up resources.
func (w *Watcher) Close() error {
	close(w.stopChan)

	w.mu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.mu.Unlock()

	if w.watcher != nil {
		return w.watcher.Close()
	}
	return nil
}
