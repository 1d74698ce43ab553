package seed

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Simplici0/advance/internal/pricing"
	"github.com/Simplici0/advance/internal/store"
)

// Config contains the values required by startup seed.
type Config struct {
	FeeScheduleName string
	FeeSchedule     pricing.FeeSchedule
}

// Stats contains seed operation counters. Mismatches counts stored rows whose
// values differ from the configuration; they are left untouched.
type Stats struct {
	Inserts    int
	Mismatches int
}

// Run executes the startup seed in an idempotent way.
func Run(ctx context.Context, db *sql.DB, cfg Config) (Stats, error) {
	if cfg.FeeScheduleName == "" {
		return Stats{}, eris.New("seed: fee schedule name is required")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Stats{}, eris.Wrap(err, "seed: begin transaction")
	}

	stats := Stats{}

	if err := ensureDefaultSchedule(ctx, store.New(tx), cfg, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, eris.Wrap(err, "seed: commit transaction")
	}

	return stats, nil
}

func ensureDefaultSchedule(ctx context.Context, s *store.Store, cfg Config, stats *Stats) error {
	rec, inserted, err := s.EnsureFeeSchedule(ctx, cfg.FeeScheduleName, cfg.FeeSchedule)
	if err != nil {
		return eris.Wrapf(err, "seed: ensure fee schedule %q", cfg.FeeScheduleName)
	}
	if !inserted {
		if !rec.Schedule.Equal(cfg.FeeSchedule) {
			zap.L().Warn("stored default fee schedule differs from configuration; keeping stored values",
				zap.String("name", rec.Name),
				zap.Int64("id", rec.ID),
			)
			stats.Mismatches++
		}
		return nil
	}

	zap.L().Info("seeded default fee schedule", zap.String("name", rec.Name), zap.Int64("id", rec.ID))
	stats.Inserts++
	return nil
}
