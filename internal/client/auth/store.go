package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iudanet/scholardesk/internal/client/storage"
	"github.com/iudanet/scholardesk/pkg/api"
)

// Slot names inside the KV backend
const (
	keyTokens = "tokens"
	keyUser   = "user"
)

var (
	// ErrNotAuthenticated indicates that no token pair is stored
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNoUser indicates that no current user is stored
	ErrNoUser = errors.New("no current user")

	// ErrAccessDenied indicates that the current user lacks the required role
	ErrAccessDenied = errors.New("access denied")

	// ErrNoExpiry indicates that the access token carries no exp claim
	ErrNoExpiry = errors.New("access token has no expiry")
)

// Store persists the token pair and the current user in a storage.KV.
// Tokens are stored as-is: the client keeps no secrets of its own.
type Store struct {
	kv storage.KV
}

// NewStore creates a session store over the given backend
func NewStore(kv storage.KV) *Store {
	return &Store{kv: kv}
}

// Tokens returns the stored token pair.
// Returns ErrNotAuthenticated if nothing is stored
func (s *Store) Tokens(ctx context.Context) (*api.TokenPair, error) {
	data, err := s.kv.Get(ctx, keyTokens)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotAuthenticated
		}
		return nil, fmt.Errorf("failed to read tokens: %w", err)
	}

	var pair api.TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tokens: %w", err)
	}
	return &pair, nil
}

// AccessToken returns the stored access token or "" when there is none
func (s *Store) AccessToken(ctx context.Context) string {
	pair, err := s.Tokens(ctx)
	if err != nil {
		return ""
	}
	return pair.Access
}

// RefreshToken returns the stored refresh token or "" when there is none
func (s *Store) RefreshToken(ctx context.Context) string {
	pair, err := s.Tokens(ctx)
	if err != nil {
		return ""
	}
	return pair.Refresh
}

// SaveTokens overwrites the stored token pair
func (s *Store) SaveTokens(ctx context.Context, pair api.TokenPair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("failed to marshal tokens: %w", err)
	}
	if err := s.kv.Set(ctx, keyTokens, data); err != nil {
		return fmt.Errorf("failed to save tokens: %w", err)
	}
	return nil
}

// SaveUser overwrites the stored current user
func (s *Store) SaveUser(ctx context.Context, user api.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	if err := s.kv.Set(ctx, keyUser, data); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

// CurrentUser returns the stored user as last seen on login or profile fetch.
// It is not re-validated against the server
func (s *Store) CurrentUser(ctx context.Context) (*api.User, error) {
	data, err := s.kv.Get(ctx, keyUser)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNoUser
		}
		return nil, fmt.Errorf("failed to read user: %w", err)
	}

	var user api.User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("failed to unmarshal user: %w", err)
	}
	return &user, nil
}

// Clear removes the token pair and the current user (logout)
func (s *Store) Clear(ctx context.Context) error {
	var errs []error
	for _, key := range []string{keyTokens, keyUser} {
		if err := s.kv.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

// IsAuthenticated reports whether an access token is stored.
// Expiry is not checked: an expired token is still refreshable
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	return s.AccessToken(ctx) != ""
}

// AccessExpiry reads the exp claim of the stored access token without verifying
// the signature. Only for display; the server stays the authority on validity
func (s *Store) AccessExpiry(ctx context.Context) (time.Time, error) {
	token := s.AccessToken(ctx)
	if token == "" {
		return time.Time{}, ErrNotAuthenticated
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrNoExpiry
	}
	return claims.ExpiresAt.Time, nil
}
