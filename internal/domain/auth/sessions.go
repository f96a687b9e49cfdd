package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"zenpayroll/internal/platform/kv"
)

// EmployeeDirectory resolves the employee record behind a login.
type EmployeeDirectory interface {
	EmployeeIDByEmail(ctx context.Context, email string) (string, error)
}

// Sessions owns sign-in and sign-out. The signed-in profile is mirrored in the
// session namespace under the session id; the bearer token only references it.
type Sessions struct {
	store     kv.Store
	accounts  *Accounts
	directory EmployeeDirectory
	secret    string
	ttl       time.Duration
	now       func() time.Time
}

func NewSessions(store kv.Store, accounts *Accounts, directory EmployeeDirectory, secret string, ttl time.Duration) *Sessions {
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err == nil {
			secret = hex.EncodeToString(buf)
		}
		slog.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}
	return &Sessions{store: store, accounts: accounts, directory: directory, secret: secret, ttl: ttl, now: time.Now}
}

// SignIn verifies credentials and opens a session.
func (s *Sessions) SignIn(ctx context.Context, email, password string) (Session, string, error) {
	account, err := s.accounts.Authenticate(ctx, email, password)
	if err != nil {
		return Session{}, "", err
	}

	profile := Profile{
		Name:       account.Name,
		Email:      account.Email,
		Role:       account.Role,
		Avatar:     AvatarURL(account.Email),
		IsLoggedIn: true,
		EmployeeID: account.EmployeeID,
	}
	if profile.EmployeeID == "" && s.directory != nil {
		id, err := s.directory.EmployeeIDByEmail(ctx, account.Email)
		if err != nil {
			slog.Warn("employee lookup failed", "email", account.Email, "error", err)
		}
		profile.EmployeeID = id
	}

	now := s.now().UTC()
	session := Session{ID: uuid.NewString(), Profile: profile, IssuedAt: now, ExpiresAt: now.Add(s.ttl)}
	raw, err := json.Marshal(profile)
	if err != nil {
		return Session{}, "", err
	}
	if _, err := s.store.Put(ctx, kv.NSSession, session.ID, raw, 0); err != nil {
		return Session{}, "", err
	}

	token, err := GenerateToken(s.secret, Claims{SessionID: session.ID, Email: profile.Email, Role: profile.Role}, now, s.ttl)
	if err != nil {
		return Session{}, "", fmt.Errorf("issue token: %w", err)
	}
	return session, token, nil
}

// Restore reloads the session a token refers to.
func (s *Sessions) Restore(ctx context.Context, token string) (Session, error) {
	claims, err := ParseToken(s.secret, token)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	entry, err := s.store.Get(ctx, kv.NSSession, claims.SessionID)
	if errors.Is(err, kv.ErrNotFound) {
		return Session{}, ErrSessionEnded
	}
	if err != nil {
		return Session{}, err
	}
	var profile Profile
	if err := json.Unmarshal(entry.Value, &profile); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if !profile.IsLoggedIn {
		return Session{}, ErrSessionEnded
	}

	session := Session{ID: claims.SessionID, Profile: profile}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	return session, nil
}

// SignOut removes the mirror; tokens referring to it stop working.
func (s *Sessions) SignOut(ctx context.Context, session Session) error {
	if session.ID == "" {
		return nil
	}
	return s.store.Delete(ctx, kv.NSSession, session.ID, kv.Any)
}

// Refresh rewrites the mirror after the actor's profile changed.
func (s *Sessions) Refresh(ctx context.Context, session Session) error {
	raw, err := json.Marshal(session.Profile)
	if err != nil {
		return err
	}
	_, err = s.store.Put(ctx, kv.NSSession, session.ID, raw, kv.Any)
	return err
}

// PurgeExpired deletes session mirrors not written within the token TTL and
// returns how many were removed. Their tokens have expired by then.
func (s *Sessions) PurgeExpired(ctx context.Context) (int, error) {
	entries, err := s.store.List(ctx, kv.NSSession)
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-s.ttl)
	purged := 0
	for _, entry := range entries {
		if !entry.UpdatedAt.Before(cutoff) {
			continue
		}
		err := s.store.Delete(ctx, kv.NSSession, entry.Key, entry.Version)
		switch {
		case err == nil:
			purged++
		case errors.Is(err, kv.ErrNotFound), errors.Is(err, kv.ErrVersionConflict):
		default:
			return purged, err
		}
	}
	return purged, nil
}
