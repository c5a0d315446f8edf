package version

import (
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func NewRootRepository(db *bun.DB) repository.Repository[*Root] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Root]{
		NewRecord: func() *Root { return &Root{} },
		GetID: func(r *Root) uuid.UUID {
			return r.ID
		},
		SetID: func(r *Root, id uuid.UUID) {
			r.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(r *Root) string {
			if r == nil {
				return ""
			}
			return r.ID.String()
		},
	})
}

func NewVersionRepository(db *bun.DB) repository.Repository[*Version] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Version]{
		NewRecord: func() *Version { return &Version{} },
		GetID: func(v *Version) uuid.UUID {
			return v.ID
		},
		SetID: func(v *Version, id uuid.UUID) {
			v.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(v *Version) string {
			if v == nil {
				return ""
			}
			return v.ID.String()
		},
	})
}

func NewLanguageAvailabilityRepository(db *bun.DB) repository.Repository[*LanguageAvailability] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*LanguageAvailability]{
		NewRecord: func() *LanguageAvailability { return &LanguageAvailability{} },
		GetID: func(la *LanguageAvailability) uuid.UUID {
			return la.ID
		},
		SetID: func(la *LanguageAvailability, id uuid.UUID) {
			la.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(la *LanguageAvailability) string {
			if la == nil {
				return ""
			}
			return la.ID.String()
		},
	})
}

func NewConnectionRepository(db *bun.DB) repository.Repository[*Connection] {
	return repository.MustNewRepository(db, repository.ModelHandlers[*Connection]{
		NewRecord: func() *Connection { return &Connection{} },
		GetID: func(c *Connection) uuid.UUID {
			return c.ID
		},
		SetID: func(c *Connection, id uuid.UUID) {
			c.ID = id
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(c *Connection) string {
			if c == nil {
				return ""
			}
			return c.ID.String()
		},
	})
}
