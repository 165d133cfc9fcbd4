package creds

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// makeToken builds a JWT-shaped token with the given subject claim.
func makeToken(t *testing.T, sub string) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"HS256","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"sub":"` + sub + `","exp":4102444800}`))
	return header + "." + payload + ".signature"
}

// makeStateDB creates a state database with an ItemTable like the editor's.
func makeStateDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.vscdb")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE ItemTable (key TEXT PRIMARY KEY, value TEXT)`)
	if err != nil {
		t.Fatalf("create ItemTable: %v", err)
	}
	return path
}

func setItem(t *testing.T, path, key, value string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`INSERT OR REPLACE INTO ItemTable (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
}

func TestStore_Session(t *testing.T) {
	path := makeStateDB(t)
	token := makeToken(t, "auth0|user_01TEST")
	setItem(t, path, accessTokenKey, token)
	setItem(t, path, membershipKey, "pro")

	store := NewStore(path)
	session, err := store.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}

	if session.UserID != "user_01TEST" {
		t.Errorf("UserID = %q, want %q", session.UserID, "user_01TEST")
	}
	if session.Token != token {
		t.Errorf("Token mismatch")
	}
	if session.Membership != "pro" {
		t.Errorf("Membership = %q, want pro", session.Membership)
	}
	if !session.Valid() {
		t.Error("session should be valid")
	}
}

func TestStore_Session_MembershipFallback(t *testing.T) {
	path := makeStateDB(t)
	setItem(t, path, accessTokenKey, makeToken(t, "auth0|user_01TEST"))
	setItem(t, path, signUpTypeKey, "free_trial")

	store := NewStore(path)
	session, err := store.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if session.Membership != "free_trial" {
		t.Errorf("Membership = %q, want the sign-up type fallback", session.Membership)
	}
}

func TestStore_Session_MembershipAbsent(t *testing.T) {
	path := makeStateDB(t)
	setItem(t, path, accessTokenKey, makeToken(t, "auth0|user_01TEST"))

	store := NewStore(path)
	session, err := store.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if session.Membership != "" {
		t.Errorf("Membership = %q, want empty when nothing is cached", session.Membership)
	}
}

func TestStore_Session_Missing(t *testing.T) {
	path := makeStateDB(t)

	store := NewStore(path)
	_, err := store.Session(context.Background())
	if !errors.Is(err, ErrCredentialMissing) {
		t.Errorf("expected ErrCredentialMissing, got %v", err)
	}
}

func TestStore_Session_EmptyValue(t *testing.T) {
	path := makeStateDB(t)
	setItem(t, path, accessTokenKey, "  ")

	store := NewStore(path)
	_, err := store.Session(context.Background())
	if !errors.Is(err, ErrCredentialMissing) {
		t.Errorf("expected ErrCredentialMissing for blank token, got %v", err)
	}
}

func TestStore_Session_NoDatabase(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.vscdb"))
	_, err := store.Session(context.Background())
	if err == nil {
		t.Fatal("expected error for missing database")
	}
	if errors.Is(err, ErrCredentialMissing) {
		t.Error("missing database should not read as signed-out")
	}
}

func TestStore_Session_EnvOverride(t *testing.T) {
	// No database at all; the env token alone should carry the session.
	t.Setenv(envToken, makeToken(t, "auth0|user_01ENV"))

	store := NewStore(filepath.Join(t.TempDir(), "absent.vscdb"))
	session, err := store.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if session.UserID != "user_01ENV" {
		t.Errorf("UserID = %q, want %q", session.UserID, "user_01ENV")
	}
}

func TestStore_Session_EnvOverrideWins(t *testing.T) {
	path := makeStateDB(t)
	setItem(t, path, accessTokenKey, makeToken(t, "auth0|user_db"))
	t.Setenv(envToken, makeToken(t, "auth0|user_env"))

	store := NewStore(path)
	session, err := store.Session(context.Background())
	if err != nil {
		t.Fatalf("Session() failed: %v", err)
	}
	if session.UserID != "user_env" {
		t.Errorf("UserID = %q, want the env token to win", session.UserID)
	}
}

func TestUserIDFromToken(t *testing.T) {
	tests := []struct {
		name    string
		sub     string
		want    string
		wantErr bool
	}{
		{"Auth0Subject", "auth0|user_2abc", "user_2abc", false},
		{"BareSubject", "user_plain", "user_plain", false},
		{"MultipleSeparators", "x|y|user_z", "user_z", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := userIDFromToken(makeToken(t, tt.sub))
			if (err != nil) != tt.wantErr {
				t.Fatalf("userIDFromToken() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("userIDFromToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUserIDFromToken_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"NotAJWT", "just-a-string"},
		{"TwoParts", "a.b"},
		{"BadBase64", "a.!!!.c"},
		{"NoSubject", "a." + base64.RawURLEncoding.EncodeToString([]byte(`{"exp":1}`)) + ".c"},
		{"NotJSON", "a." + base64.RawURLEncoding.EncodeToString([]byte(`nope`)) + ".c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := userIDFromToken(tt.token); err == nil {
				t.Error("expected error")
			}
		})
	}
}
