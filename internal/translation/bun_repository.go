package translation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunOrderRepository persists translation orders, their state rows, and
// tracking markers through bun.
type BunOrderRepository struct {
	db *bun.DB
}

func NewBunOrderRepository(db *bun.DB) *BunOrderRepository {
	return &BunOrderRepository{db: db}
}

func (r *BunOrderRepository) Create(ctx context.Context, record *Order) (*Order, error) {
	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return nil, fmt.Errorf("translation_order repository error: %w", err)
	}
	return record, nil
}

func (r *BunOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*Order, error) {
	record := new(Order)
	err := r.db.NewSelect().
		Model(record).
		Relation("States", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("tos.created_at ASC")
		}).
		Where("tro.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &NotFoundError{Resource: "translation_order", Key: id.String()}
		}
		return nil, fmt.Errorf("translation_order repository error: %w", err)
	}
	return record, nil
}

func (r *BunOrderRepository) GetCurrent(ctx context.Context, rootID uuid.UUID, targetLanguage string) (*Order, error) {
	record := new(Order)
	err := r.db.NewSelect().
		Model(record).
		Relation("States", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("tos.created_at ASC")
		}).
		Where("tro.unific_root_id = ?", rootID).
		Where("tro.target_language = ?", targetLanguage).
		Order("tro.order_identifier DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("translation_order repository error: %w", err)
	}
	return record, nil
}

func (r *BunOrderRepository) Update(ctx context.Context, record *Order) (*Order, error) {
	result, err := r.db.NewUpdate().
		Model(record).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("translation_order repository error: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, &NotFoundError{Resource: "translation_order", Key: record.ID.String()}
	}
	return record, nil
}

func (r *BunOrderRepository) AppendState(ctx context.Context, orderID uuid.UUID, state *OrderState) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*OrderState)(nil)).
			Set("last = ?", false).
			Where("translation_order_id = ?", orderID).
			Where("last = ?", true).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("translation_order_state repository error: %w", err)
		}
		row := *state
		row.TranslationOrderID = orderID
		row.Last = true
		if _, err := tx.NewInsert().Model(&row).Exec(ctx); err != nil {
			return fmt.Errorf("translation_order_state repository error: %w", err)
		}
		return nil
	})
}

func (r *BunOrderRepository) CheckLastState(ctx context.Context, orderID uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*OrderState)(nil)).
		Set("checked = ?", true).
		Where("translation_order_id = ?", orderID).
		Where("last = ?", true).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("translation_order_state repository error: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return &NotFoundError{Resource: "translation_order_state", Key: orderID.String()}
	}
	return nil
}

// NextOrderIdentifier allocates the next value of the shared order sequence.
func (r *BunOrderRepository) NextOrderIdentifier(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.NewSelect().
		Model((*Order)(nil)).
		ColumnExpr("COALESCE(MAX(tro.order_identifier), 0) + 1").
		Scan(ctx, &next)
	if err != nil {
		return 0, fmt.Errorf("translation_order repository error: %w", err)
	}
	return next, nil
}

func (r *BunOrderRepository) AddTracking(ctx context.Context, orderID uuid.UUID) error {
	row := &Tracking{
		ID:                 uuid.New(),
		TranslationOrderID: orderID,
		CreatedAt:          time.Now(),
	}
	if _, err := r.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("translation_order_tracking repository error: %w", err)
	}
	return nil
}

func (r *BunOrderRepository) RemoveTracking(ctx context.Context, orderID uuid.UUID) error {
	_, err := r.db.NewDelete().
		Model((*Tracking)(nil)).
		Where("translation_order_id = ?", orderID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("translation_order_tracking repository error: %w", err)
	}
	return nil
}

// ListTracked returns orders that still carry a tracking row older than the
// supplied cutoff, oldest first. Operators use it to find stuck deliveries.
func (r *BunOrderRepository) ListTracked(ctx context.Context, olderThan time.Time) ([]*Order, error) {
	records := []*Order{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("States", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("tos.created_at ASC")
		}).
		Join("JOIN translation_order_tracking AS tot ON tot.translation_order_id = tro.id").
		Where("tot.created_at < ?", olderThan).
		Order("tro.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("translation_order repository error: %w", err)
	}
	return records, nil
}
