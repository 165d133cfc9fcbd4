// Package creds reads the Cursor session credential out of the editor's
// global storage database and watches it for changes.
package creds

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	// Import modernc.org/sqlite as a blank import to register the driver
	_ "modernc.org/sqlite"

	"github.com/Dwtexe/cursor-stats/internal/logger"
	"github.com/Dwtexe/cursor-stats/internal/models"
)

// ErrCredentialMissing indicates no session token is stored, i.e. the user
// is not signed in to Cursor. Callers treat it as terminal for the current
// cycle rather than retrying.
var ErrCredentialMissing = errors.New("no session token in state database")

const (
	accessTokenKey = "cursorAuth/accessToken"

	// Plan name cache. Older editor builds only wrote the sign-up type.
	membershipKey = "cursorAuth/stripeMembershipType"
	signUpTypeKey = "cursorAuth/cachedSignUpType"

	// envToken overrides the state database, mainly for headless machines
	// with no editor install.
	envToken = "CURSOR_SESSION_TOKEN"
)

// Store reads session credentials from Cursor's state.vscdb. Every read
// opens a fresh read-only connection because the editor owns the file and
// rewrites it at will.
type Store struct {
	path string
}

// NewStore creates a credential store for the given state database path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the state database path being read.
func (s *Store) Path() string {
	return s.path
}

// Session returns the current session token and the user ID derived from
// it. CURSOR_SESSION_TOKEN takes precedence over the state database.
// Returns ErrCredentialMissing when no token is stored anywhere.
func (s *Store) Session(ctx context.Context) (models.Session, error) {
	token := strings.TrimSpace(os.Getenv(envToken))
	if token == "" {
		var err error
		token, err = s.readValue(ctx, accessTokenKey)
		if err != nil {
			return models.Session{}, err
		}
	}

	userID, err := userIDFromToken(token)
	if err != nil {
		return models.Session{}, fmt.Errorf("derive user id: %w", err)
	}

	return models.Session{
		UserID:     userID,
		Token:      token,
		Membership: s.membership(ctx),
	}, nil
}

// membership returns the cached plan name, or "" when neither key is
// readable. Absence is normal and never fails the session read.
func (s *Store) membership(ctx context.Context) string {
	for _, key := range []string{membershipKey, signUpTypeKey} {
		value, err := s.readValue(ctx, key)
		if err == nil {
			return strings.TrimSpace(value)
		}
		if !errors.Is(err, ErrCredentialMissing) {
			logger.Debug("membership lookup failed", "key", key, "error", err)
			return ""
		}
	}
	return ""
}

// readValue fetches one key from the editor's ItemTable key-value store.
func (s *Store) readValue(ctx context.Context, key string) (string, error) {
	if _, err := os.Stat(s.path); err != nil {
		return "", fmt.Errorf("state database unavailable: %w", err)
	}

	// mode=ro keeps us from ever taking a write lock on the editor's file.
	dsn := "file:" + s.path + "?" + url.Values{"mode": {"ro"}}.Encode()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return "", fmt.Errorf("open state database: %w", err)
	}
	defer func() { _ = db.Close() }()

	var value string
	err = db.QueryRowContext(ctx,
		"SELECT value FROM ItemTable WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrCredentialMissing
	}
	if err != nil {
		return "", fmt.Errorf("query state database: %w", err)
	}
	if strings.TrimSpace(value) == "" {
		return "", ErrCredentialMissing
	}

	return value, nil
}

// userIDFromToken extracts the user ID from the JWT's sub claim. Subjects
// look like "auth0|user_01ABC..."; the part after the separator is what the
// API's cookie format wants.
func userIDFromToken(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("token is not a JWT")
	}

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("decode claims: %w", err)
	}

	var claims struct {
		Sub string `json:"sub"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil {
		return "", fmt.Errorf("parse claims: %w", err)
	}
	if claims.Sub == "" {
		return "", fmt.Errorf("token has no subject")
	}

	if idx := strings.LastIndex(claims.Sub, "|"); idx >= 0 {
		return claims.Sub[idx+1:], nil
	}
	return claims.Sub, nil
}
