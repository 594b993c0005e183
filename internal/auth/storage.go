package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ifitclub/clubstats/internal/db"
)

// ErrNotConnected is returned for an athlete with no stored grant.
var ErrNotConnected = errors.New("athlete not connected")

// StoredTokens is one athlete's persisted grant.
type StoredTokens struct {
	AthleteID    int64
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
	Scope        string
}

// Storage persists per-athlete grants and hands out valid access tokens.
type Storage struct {
	queries *db.Queries
	cfg     Config
	// refreshes are serialized so two callers never spend the same refresh token
	mu  sync.Mutex
	now func() time.Time
}

// NewStorage creates a Storage that refreshes grants with cfg.
func NewStorage(queries *db.Queries, cfg Config) *Storage {
	return &Storage{
		queries: queries,
		cfg:     cfg,
		now:     time.Now,
	}
}

// SaveTokens stores a grant for athleteID. An empty Scope keeps the stored one.
func (s *Storage) SaveTokens(ctx context.Context, athleteID int64, tokens *TokenResponse) error {
	err := s.queries.UpsertToken(ctx, db.UpsertTokenParams{
		AthleteID:    athleteID,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresAt:    tokens.ExpiresAt,
		Scope:        sql.NullString{String: tokens.Scope, Valid: tokens.Scope != ""},
	})
	if err != nil {
		return fmt.Errorf("saving tokens for athlete %d: %w", athleteID, err)
	}
	return nil
}

// LoadTokens returns the stored grant for athleteID.
func (s *Storage) LoadTokens(ctx context.Context, athleteID int64) (*StoredTokens, error) {
	row, err := s.queries.GetToken(ctx, athleteID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("athlete %d: %w", athleteID, ErrNotConnected)
		}
		return nil, fmt.Errorf("loading tokens for athlete %d: %w", athleteID, err)
	}
	st := toStored(row)
	return &st, nil
}

// ListTokens returns every stored grant, soonest expiry first.
func (s *Storage) ListTokens(ctx context.Context) ([]StoredTokens, error) {
	rows, err := s.queries.ListTokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	out := make([]StoredTokens, 0, len(rows))
	for _, row := range rows {
		out = append(out, toStored(row))
	}
	return out, nil
}

// DeleteTokens removes athleteID's grant.
func (s *Storage) DeleteTokens(ctx context.Context, athleteID int64) error {
	return s.queries.DeleteToken(ctx, athleteID)
}

// GetValidAccessToken returns an access token for athleteID, refreshing it
// first when it expires within five minutes.
func (s *Storage) GetValidAccessToken(ctx context.Context, athleteID int64) (string, error) {
	tokens, err := s.LoadTokens(ctx, athleteID)
	if err != nil {
		return "", err
	}
	if !isExpiredAt(tokens.ExpiresAt, s.now()) {
		return tokens.AccessToken, nil
	}

	refreshed, err := s.refresh(ctx, athleteID, refreshMargin*time.Second)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// RefreshIfExpiring refreshes athleteID's grant when it expires within window.
// It reports whether a refresh happened.
func (s *Storage) RefreshIfExpiring(ctx context.Context, athleteID int64, window time.Duration) (bool, error) {
	tokens, err := s.LoadTokens(ctx, athleteID)
	if err != nil {
		return false, err
	}
	if !expiresWithin(tokens.ExpiresAt, s.now(), window) {
		return false, nil
	}
	if _, err := s.refresh(ctx, athleteID, window); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Storage) refresh(ctx context.Context, athleteID int64, window time.Duration) (*StoredTokens, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// another caller may have refreshed while we waited
	current, err := s.LoadTokens(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	if !expiresWithin(current.ExpiresAt, s.now(), window) {
		return current, nil
	}

	newTokens, err := RefreshAccessToken(ctx, s.cfg, current.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refreshing token for athlete %d: %w", athleteID, err)
	}
	if newTokens.RefreshToken == "" {
		newTokens.RefreshToken = current.RefreshToken
	}
	if err := s.SaveTokens(ctx, athleteID, newTokens); err != nil {
		return nil, err
	}

	return &StoredTokens{
		AthleteID:    athleteID,
		AccessToken:  newTokens.AccessToken,
		RefreshToken: newTokens.RefreshToken,
		ExpiresAt:    newTokens.ExpiresAt,
		Scope:        current.Scope,
	}, nil
}

func expiresWithin(expiresAt int64, now time.Time, window time.Duration) bool {
	return now.Add(window).Unix() > expiresAt
}

func toStored(row db.OauthToken) StoredTokens {
	return StoredTokens{
		AthleteID:    row.AthleteID,
		AccessToken:  row.AccessToken,
		RefreshToken: row.RefreshToken,
		ExpiresAt:    row.ExpiresAt,
		Scope:        row.Scope.String,
	}
}
