package version

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	repositorycache "github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunRootRepository persists roots through bun.
type BunRootRepository struct {
	db   *bun.DB
	repo repository.Repository[*Root]
}

func NewBunRootRepository(db *bun.DB) *BunRootRepository {
	return NewBunRootRepositoryWithCache(db, nil, nil)
}

// NewBunRootRepositoryWithCache constructs a RootRepository with optional read caching.
func NewBunRootRepositoryWithCache(db *bun.DB, cacheService cache.CacheService, keySerializer cache.KeySerializer) *BunRootRepository {
	base := NewRootRepository(db)
	wrapped := wrapWithCache(base, cacheService, keySerializer)
	return &BunRootRepository{db: db, repo: wrapped}
}

func (r *BunRootRepository) Create(ctx context.Context, record *Root) (*Root, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunRootRepository) GetByID(ctx context.Context, id uuid.UUID) (*Root, error) {
	result, err := r.repo.GetByID(ctx, id.String())
	if err != nil {
		return nil, mapRepositoryError(err, "unific_root", id.String())
	}
	return result, nil
}

// ListByOrganization returns roots owned by the supplied organization root.
func (r *BunRootRepository) ListByOrganization(ctx context.Context, orgRootID uuid.UUID) ([]*Root, error) {
	records := []*Root{}
	err := r.db.NewSelect().
		Model(&records).
		Where("ur.organization_root_id = ?", orgRootID).
		Order("ur.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("unific_root repository error: %w", err)
	}
	return records, nil
}

// BunVersionRepository persists versions with their language availabilities and
// child rows. Relation loading happens through bun's relation joins; the due
// scans use direct queries because they filter on child rows.
type BunVersionRepository struct {
	db   *bun.DB
	repo repository.Repository[*Version]
}

func NewBunVersionRepository(db *bun.DB) *BunVersionRepository {
	return &BunVersionRepository{db: db, repo: NewVersionRepository(db)}
}

func (r *BunVersionRepository) Create(ctx context.Context, record *Version) (*Version, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(record).Exec(ctx); err != nil {
			return err
		}
		return insertVersionChildren(ctx, tx, record)
	})
	if err != nil {
		return nil, fmt.Errorf("versioned_entity repository error: %w", err)
	}
	return record, nil
}

func (r *BunVersionRepository) GetByID(ctx context.Context, id uuid.UUID) (*Version, error) {
	record := &Version{}
	err := r.db.NewSelect().
		Model(record).
		Relation("Languages").
		Relation("Texts").
		Relation("Producers").
		Where("ve.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "versioned_entity", id.String())
	}
	return record, nil
}

func (r *BunVersionRepository) ListByRoot(ctx context.Context, rootID uuid.UUID) ([]*Version, error) {
	records := []*Version{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("Languages").
		Relation("Texts").
		Relation("Producers").
		Where("ve.unific_root_id = ?", rootID).
		Order("ve.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, "versioned_entity", rootID.String())
	}
	return records, nil
}

func (r *BunVersionRepository) Update(ctx context.Context, record *Version) (*Version, error) {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewUpdate().Model(record).WherePK().Exec(ctx); err != nil {
			return err
		}
		for _, lang := range record.Languages {
			if lang == nil {
				continue
			}
			if _, err := tx.NewInsert().
				Model(lang).
				On("CONFLICT (id) DO UPDATE").
				Set("status = EXCLUDED.status").
				Set("valid_from = EXCLUDED.valid_from").
				Set("valid_to = EXCLUDED.valid_to").
				Set("reviewed_by = EXCLUDED.reviewed_by").
				Set("reviewed_at = EXCLUDED.reviewed_at").
				Set("set_for_archived_by = EXCLUDED.set_for_archived_by").
				Set("set_for_archived_at = EXCLUDED.set_for_archived_at").
				Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapRepositoryError(err, "versioned_entity", record.ID.String())
	}
	return record, nil
}

// SaveAll updates a set of version aggregates inside a single transaction so
// the published pointer and its demoted predecessor never diverge.
func (r *BunVersionRepository) SaveAll(ctx context.Context, records []*Version) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, record := range records {
			if record == nil {
				continue
			}
			if _, err := tx.NewUpdate().Model(record).WherePK().Exec(ctx); err != nil {
				return err
			}
			for _, lang := range record.Languages {
				if lang == nil {
					continue
				}
				if _, err := tx.NewUpdate().Model(lang).WherePK().Exec(ctx); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("versioned_entity repository error: %w", err)
	}
	return nil
}

func (r *BunVersionRepository) ListDuePublish(ctx context.Context, asOf time.Time, limit int) ([]*Version, error) {
	return r.listDue(ctx, limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("la.valid_from IS NOT NULL").
			Where("la.valid_from <= ?", asOf).
			Where("la.status NOT IN (?)", bun.In([]string{"published", "deleted", "removed"}))
	})
}

func (r *BunVersionRepository) ListDueArchive(ctx context.Context, asOf time.Time, limit int) ([]*Version, error) {
	return r.listDue(ctx, limit, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("la.valid_to IS NOT NULL").
			Where("la.valid_to <= ?", asOf).
			Where("la.status NOT IN (?)", bun.In([]string{"deleted", "removed"}))
	})
}

func (r *BunVersionRepository) listDue(ctx context.Context, limit int, filter func(*bun.SelectQuery) *bun.SelectQuery) ([]*Version, error) {
	ids := []uuid.UUID{}
	query := r.db.NewSelect().
		Model((*LanguageAvailability)(nil)).
		Column("la.entity_version_id").
		Distinct()
	query = filter(query)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("versioned_entity repository error: %w", err)
	}
	if len(ids) == 0 {
		return []*Version{}, nil
	}

	records := []*Version{}
	err := r.db.NewSelect().
		Model(&records).
		Relation("Languages").
		Relation("Texts").
		Relation("Producers").
		Where("ve.id IN (?)", bun.In(ids)).
		Where("ve.publishing_status NOT IN (?)", bun.In([]string{"deleted", "removed"})).
		Order("ve.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("versioned_entity repository error: %w", err)
	}
	return records, nil
}

func insertVersionChildren(ctx context.Context, tx bun.Tx, record *Version) error {
	if len(record.Languages) > 0 {
		if _, err := tx.NewInsert().Model(&record.Languages).Exec(ctx); err != nil {
			return err
		}
	}
	if len(record.Texts) > 0 {
		if _, err := tx.NewInsert().Model(&record.Texts).Exec(ctx); err != nil {
			return err
		}
	}
	if len(record.Producers) > 0 {
		if _, err := tx.NewInsert().Model(&record.Producers).Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// BunConnectionRepository persists root relations.
type BunConnectionRepository struct {
	db   *bun.DB
	repo repository.Repository[*Connection]
}

func NewBunConnectionRepository(db *bun.DB) *BunConnectionRepository {
	return &BunConnectionRepository{db: db, repo: NewConnectionRepository(db)}
}

func (r *BunConnectionRepository) Create(ctx context.Context, record *Connection) (*Connection, error) {
	created, err := r.repo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *BunConnectionRepository) ListFrom(ctx context.Context, rootID uuid.UUID) ([]*Connection, error) {
	return r.listWhere(ctx, "cn.from_root_id = ?", rootID)
}

func (r *BunConnectionRepository) ListTo(ctx context.Context, rootID uuid.UUID) ([]*Connection, error) {
	return r.listWhere(ctx, "cn.to_root_id = ?", rootID)
}

func (r *BunConnectionRepository) listWhere(ctx context.Context, clause string, rootID uuid.UUID) ([]*Connection, error) {
	records := []*Connection{}
	err := r.db.NewSelect().
		Model(&records).
		Where(clause, rootID).
		Order("cn.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("connection repository error: %w", err)
	}
	return records, nil
}

func (r *BunConnectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	record := &Connection{ID: id}
	if _, err := r.db.NewDelete().Model(record).WherePK().Exec(ctx); err != nil {
		return mapRepositoryError(err, "connection", id.String())
	}
	return nil
}

func mapRepositoryError(err error, resource, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) || errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{
			Resource: resource,
			Key:      key,
		}
	}
	return fmt.Errorf("%s repository error: %w", resource, err)
}

func wrapWithCache[T any](base repository.Repository[T], cacheService cache.CacheService, keySerializer cache.KeySerializer) repository.Repository[T] {
	if cacheService == nil || keySerializer == nil {
		return base
	}
	return repositorycache.New(base, cacheService, keySerializer)
}
