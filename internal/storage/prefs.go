// Package storage implements the external preference store the engine
// delegates persistence to: the education-acknowledged flag and the
// per-account dismissed-CTA keys. The engine core only sees the narrow
// interfaces in internal/conversion; nothing else is persisted.
package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	upsertEducationSeenSQL = `INSERT INTO conversion_prefs (account, education_seen)
    VALUES ($1, TRUE)
    ON CONFLICT (account) DO UPDATE SET education_seen = TRUE;`

	selectEducationSeenSQL = `SELECT education_seen FROM conversion_prefs WHERE account = $1;`

	upsertDismissedSQL = `INSERT INTO dismissed_ctas (account, cta_key)
    VALUES ($1, $2)
    ON CONFLICT (account, cta_key) DO NOTHING;`

	selectDismissedSQL = `SELECT EXISTS (
        SELECT 1 FROM dismissed_ctas WHERE account = $1 AND cta_key = $2
    );`
)

// PrefStore persists per-account UI preferences in PostgreSQL.
type PrefStore struct {
	pool *pgxpool.Pool
}

// NewPrefStore wraps an existing pool.
func NewPrefStore(pool *pgxpool.Pool) *PrefStore {
	return &PrefStore{pool: pool}
}

// Close releases the underlying pool.
func (s *PrefStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EducationSeen reports whether the account has acknowledged the education
// screen. Unknown accounts have not.
func (s *PrefStore) EducationSeen(ctx context.Context, account string) (bool, error) {
	var seen bool
	err := s.pool.QueryRow(ctx, selectEducationSeenSQL, normalise(account)).Scan(&seen)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return seen, nil
}

// MarkEducationSeen records the acknowledgement.
func (s *PrefStore) MarkEducationSeen(ctx context.Context, account string) error {
	_, err := s.pool.Exec(ctx, upsertEducationSeenSQL, normalise(account))
	return err
}

// DismissCTA records that the account dismissed the given call-to-action.
func (s *PrefStore) DismissCTA(ctx context.Context, account, key string) error {
	_, err := s.pool.Exec(ctx, upsertDismissedSQL, normalise(account), key)
	return err
}

// CTADismissed reports whether the account has dismissed the given key.
func (s *PrefStore) CTADismissed(ctx context.Context, account, key string) (bool, error) {
	var dismissed bool
	if err := s.pool.QueryRow(ctx, selectDismissedSQL, normalise(account), key).Scan(&dismissed); err != nil {
		return false, err
	}
	return dismissed, nil
}

func normalise(account string) string {
	return strings.ToLower(strings.TrimSpace(account))
}
