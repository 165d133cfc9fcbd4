package creds

import (
	"testing"
	"time"
)

func waitForEvent(t *testing.T, w *Watcher, timeout time.Duration) (Event, bool) {
	t.Helper()
	select {
	case ev := <-w.Events():
		return ev, true
	case <-time.After(timeout):
		return Event{}, false
	}
}

func TestWatcher_EmitsOnTokenChange(t *testing.T) {
	path := makeStateDB(t)
	setItem(t, path, accessTokenKey, makeToken(t, "auth0|user_one"))

	store := NewStore(path)
	w, err := NewWatcher(store)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Close()

	setItem(t, path, accessTokenKey, makeToken(t, "auth0|user_two"))

	for {
		ev, ok := waitForEvent(t, w, 5*time.Second)
		if !ok {
			t.Fatal("expected a credentials-changed event")
		}
		if ev.Type == EventCredentialsChanged {
			return
		}
	}
}

func TestWatcher_SignOutIsAChange(t *testing.T) {
	path := makeStateDB(t)
	setItem(t, path, accessTokenKey, makeToken(t, "auth0|user_one"))

	store := NewStore(path)
	w, err := NewWatcher(store)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	defer w.Close()

	// Clearing the token looks like a sign-out.
	setItem(t, path, accessTokenKey, "")

	for {
		ev, ok := waitForEvent(t, w, 5*time.Second)
		if !ok {
			t.Fatal("expected a credentials-changed event on sign-out")
		}
		if ev.Type == EventCredentialsChanged {
			return
		}
	}
}

func TestWatcher_Close(t *testing.T) {
	path := makeStateDB(t)
	store := NewStore(path)

	w, err := NewWatcher(store)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
}
