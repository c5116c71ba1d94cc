package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-gamification/pkg/types"
)

const defaultLeaseTTL = 30 * time.Minute

// LeaseGuardConfig wires the database backed guard.
type LeaseGuardConfig struct {
	DB *bun.DB
	// Holder identifies this instance. Defaults to a random id.
	Holder string
	// TTL bounds how long a crashed holder blocks the job.
	TTL    time.Duration
	Clock  types.Clock
	Logger types.Logger
}

// LeaseGuard gives cross process exclusion through rows in
// gamification_job_leases. Expired leases may be taken over.
type LeaseGuard struct {
	db     *bun.DB
	holder string
	ttl    time.Duration
	clock  types.Clock
	logger types.Logger
}

// NewLeaseGuard constructs the guard.
func NewLeaseGuard(cfg LeaseGuardConfig) (*LeaseGuard, error) {
	if cfg.DB == nil {
		return nil, errors.New("scheduler: lease guard db required")
	}
	holder := cfg.Holder
	if holder == "" {
		holder = uuid.NewString()
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &LeaseGuard{db: cfg.DB, holder: holder, ttl: ttl, clock: clock, logger: logger}, nil
}

var _ Guard = (*LeaseGuard)(nil)

const acquireLeaseSQL = `INSERT INTO gamification_job_leases (name, holder, expires_at) VALUES (?, ?, ?)
ON CONFLICT (name) DO UPDATE SET holder = EXCLUDED.holder, expires_at = EXCLUDED.expires_at
WHERE gamification_job_leases.expires_at < ?`

const releaseLeaseSQL = `DELETE FROM gamification_job_leases WHERE name = ? AND holder = ?`

// Acquire inserts the lease or takes over an expired one.
func (g *LeaseGuard) Acquire(ctx context.Context, name string) (func(), bool, error) {
	now := g.clock.Now().UTC()
	res, err := g.db.ExecContext(ctx, acquireLeaseSQL, name, g.holder, now.Add(g.ttl), now)
	if err != nil {
		return nil, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, err
	}
	if affected == 0 {
		return nil, false, nil
	}
	return func() {
		// released with a fresh context so a cancelled run still frees the lease
		if _, err := g.db.ExecContext(context.Background(), releaseLeaseSQL, name, g.holder); err != nil {
			g.logger.Error("lease release failed", err, "job", name, "holder", g.holder, "expires_in", g.ttl)
		}
	}, true, nil
}

// Holder returns the instance id written to acquired leases.
func (g *LeaseGuard) Holder() string {
	return g.holder
}
