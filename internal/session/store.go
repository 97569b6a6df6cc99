package session

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"tbpedia-dashboard/internal/models"
)

// CredentialTTL is the fixed lifetime of a persisted credential. It is set
// once at login and never extended.
const CredentialTTL = 7 * 24 * time.Hour

var (
	ErrNoCredential   = errors.New("no credential")
	ErrSessionExpired = errors.New("session expired")
)

// LookupFunc exchanges a credential for the identity it belongs to.
type LookupFunc func(ctx context.Context, credential string) (*models.User, error)

// SignOutFunc revokes a credential on the remote side.
type SignOutFunc func(ctx context.Context, credential string) error

// State is a point-in-time view of a Store.
type State struct {
	Loading bool
	User    *models.User
}

// Store is the single source of truth for who is signed in. The user is
// non-nil only after the credential was exchanged through the lookup.
type Store struct {
	mu         sync.RWMutex
	jar        CredentialJar
	lookup     LookupFunc
	signOut    SignOutFunc
	logger     zerolog.Logger
	now        func() time.Time
	credential string
	user       *models.User
	loading    bool
	version    uint64
}

type Option func(*Store)

func WithSignOut(fn SignOutFunc) Option {
	return func(s *Store) {
		s.signOut = fn
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(jar CredentialJar, lookup LookupFunc, logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		jar:     jar,
		lookup:  lookup,
		logger:  logger,
		now:     time.Now,
		loading: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores the session from the persisted credential. The store
// reports loading until it returns. Any lookup failure tears the session
// down locally.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	version := s.version
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	token, ok := s.jar.Load()
	if !ok || token == "" {
		return nil
	}

	if credentialExpired(token, s.now()) {
		s.logger.Info().Str("credential", Fingerprint(token)).Msg("Persisted credential expired")
		s.teardown(version)
		return ErrSessionExpired
	}

	user, err := s.lookup(ctx, token)
	if err == nil && user == nil {
		err = errors.New("empty identity")
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("credential", Fingerprint(token)).Msg("Identity lookup failed")
		s.teardown(version)
		return fmt.Errorf("identity lookup: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A login or logout that raced the lookup wins.
	if s.version != version {
		return nil
	}
	s.credential = token
	s.user = user
	return nil
}

// Login persists the credential for CredentialTTL and records user.
func (s *Store) Login(user *models.User, credential string) error {
	if user == nil {
		return errors.New("login requires a user")
	}
	if credential == "" {
		return ErrNoCredential
	}

	if err := s.jar.Save(credential, s.now().Add(CredentialTTL)); err != nil {
		return fmt.Errorf("persist credential: %w", err)
	}

	s.mu.Lock()
	s.version++
	s.credential = credential
	u := *user
	s.user = &u
	s.loading = false
	s.mu.Unlock()

	s.logger.Info().Int("user_id", user.ID).Str("role", string(user.Role)).Msg("Session started")
	return nil
}

// Logout makes a best-effort remote sign-out, then clears local state
// regardless of the remote outcome.
func (s *Store) Logout(ctx context.Context) {
	s.mu.RLock()
	token := s.credential
	s.mu.RUnlock()
	if token == "" {
		token, _ = s.jar.Load()
	}

	if token != "" && s.signOut != nil {
		if err := s.signOut(ctx, token); err != nil {
			s.logger.Warn().Err(err).Msg("Remote sign-out failed, continuing with local logout")
		}
	}

	s.clear()
	s.logger.Info().Msg("Session ended")
}

// Expire drops the session locally. It is installed as the client's
// unauthorized hook.
func (s *Store) Expire(ctx context.Context) {
	s.mu.RLock()
	token := s.credential
	s.mu.RUnlock()

	s.clear()
	s.logger.Warn().Str("credential", Fingerprint(token)).Msg("Credential rejected by API, session cleared")
}

func (s *Store) Credential() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential, s.credential != ""
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Store) Snapshot() State {
	return State{Loading: s.IsLoading(), User: s.User()}
}

func (s *Store) clear() {
	if err := s.jar.Clear(); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear persisted credential")
	}
	s.mu.Lock()
	s.version++
	s.credential = ""
	s.user = nil
	s.mu.Unlock()
}

// teardown clears the session unless a login happened since version.
func (s *Store) teardown(version uint64) {
	s.mu.RLock()
	stale := s.version != version
	s.mu.RUnlock()
	if stale {
		return
	}
	s.clear()
}

// credentialExpired peeks at JWT-shaped credentials without verifying them.
// Opaque tokens are never considered expired here; the lookup decides.
func credentialExpired(token string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !claims.ExpiresAt.After(now)
}

// Fingerprint identifies a credential in logs and audit rows without
// revealing it.
func Fingerprint(credential string) string {
	if credential == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(credential))
	return hex.EncodeToString(sum[:6])
}
