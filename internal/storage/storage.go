package storage

import (
	"context"

	"github.com/goliatone/go-lifecycle/internal/history"
	"github.com/goliatone/go-lifecycle/internal/lock"
	"github.com/goliatone/go-lifecycle/internal/translation"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/uptrace/bun"
)

// Models lists every bun model the module persists, in dependency order.
func Models() []any {
	return []any{
		(*version.Root)(nil),
		(*version.Version)(nil),
		(*version.LanguageAvailability)(nil),
		(*version.LocalizedText)(nil),
		(*version.Producer)(nil),
		(*version.Connection)(nil),
		(*lock.Lock)(nil),
		(*history.Entry)(nil),
		(*translation.Order)(nil),
		(*translation.OrderState)(nil),
		(*translation.Tracking)(nil),
	}
}

// RegisterModels makes relation metadata available on the bun instance.
func RegisterModels(db *bun.DB) {
	for _, model := range Models() {
		db.RegisterModel(model)
	}
}

// CreateTables creates the full schema if it does not exist yet. Production
// deployments run SQL migrations instead; this covers tests and local setups.
func CreateTables(ctx context.Context, db *bun.DB) error {
	for _, model := range Models() {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DropTables removes the schema in reverse dependency order.
func DropTables(ctx context.Context, db *bun.DB) error {
	models := Models()
	for i := len(models) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().
			Model(models[i]).
			IfExists().
			Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}
