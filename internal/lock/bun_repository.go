package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRepository persists locks through bun. Acquisition runs inside a
// transaction so two racing actors cannot both observe the lock as free.
type BunRepository struct {
	db *bun.DB
}

func NewBunRepository(db *bun.DB) *BunRepository {
	return &BunRepository{db: db}
}

func (r *BunRepository) Acquire(ctx context.Context, rootID, actor uuid.UUID, at time.Time) (bool, error) {
	acquired := false
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &Lock{}
		err := tx.NewSelect().
			Model(record).
			Where("lk.unific_root_id = ?", rootID).
			For("UPDATE").
			Scan(ctx)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if err == nil && record.Held && record.LockedBy != actor {
			return nil
		}

		row := &Lock{
			UnificRootID: rootID,
			Held:         true,
			LockedBy:     actor,
			LockedAt:     at,
		}
		if _, err := tx.NewInsert().
			Model(row).
			On("CONFLICT (unific_root_id) DO UPDATE").
			Set("held = EXCLUDED.held").
			Set("locked_by = EXCLUDED.locked_by").
			Set("locked_at = EXCLUDED.locked_at").
			Exec(ctx); err != nil {
			return err
		}
		acquired = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("lock repository error: %w", err)
	}
	return acquired, nil
}

func (r *BunRepository) Release(ctx context.Context, rootID, actor uuid.UUID) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		record := &Lock{}
		err := tx.NewSelect().
			Model(record).
			Where("lk.unific_root_id = ?", rootID).
			For("UPDATE").
			Scan(ctx)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		if !record.Held {
			return nil
		}
		if record.LockedBy != actor {
			return &ConflictError{RootID: rootID, HeldBy: record.LockedBy}
		}
		_, err = tx.NewUpdate().
			Model((*Lock)(nil)).
			Set("held = ?", false).
			Set("locked_by = ?", uuid.Nil).
			Where("unific_root_id = ?", rootID).
			Exec(ctx)
		return err
	})
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict
	}
	if err != nil {
		return fmt.Errorf("lock repository error: %w", err)
	}
	return nil
}

func (r *BunRepository) Get(ctx context.Context, rootID uuid.UUID) (*Lock, error) {
	record := &Lock{}
	err := r.db.NewSelect().
		Model(record).
		Where("lk.unific_root_id = ?", rootID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lock repository error: %w", err)
	}
	return record, nil
}
