package version

import (
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Root is the stable identity for a logical content item. It survives across
// every version of the entity.
type Root struct {
	bun.BaseModel `bun:"table:unific_roots,alias:ur"`

	ID                 uuid.UUID         `bun:",pk,type:uuid"                 json:"id"`
	Kind               domain.EntityKind `bun:"kind,notnull"                  json:"kind"`
	OrganizationRootID *uuid.UUID        `bun:"organization_root_id,type:uuid" json:"organization_root_id,omitempty"`
	CreatedAt          time.Time         `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// Version is one immutable-once-published snapshot of a root.
type Version struct {
	bun.BaseModel `bun:"table:versioned_entities,alias:ve"`

	ID             uuid.UUID               `bun:",pk,type:uuid"                     json:"id"`
	UnificRootID   uuid.UUID               `bun:"unific_root_id,notnull,type:uuid"  json:"unific_root_id"`
	Kind           domain.EntityKind       `bun:"kind,notnull"                      json:"kind"`
	Status         domain.PublishingStatus `bun:"publishing_status,notnull,default:'draft'" json:"publishing_status"`
	OrganizationID *uuid.UUID              `bun:"organization_id,type:uuid"         json:"organization_id,omitempty"`
	CreatedBy      uuid.UUID               `bun:"created_by,notnull,type:uuid"      json:"created_by"`
	ModifiedBy     uuid.UUID               `bun:"modified_by,notnull,type:uuid"     json:"modified_by"`
	CreatedAt      time.Time               `bun:"created_at,nullzero,default:current_timestamp"  json:"created_at"`
	ModifiedAt     time.Time               `bun:"modified_at,nullzero,default:current_timestamp" json:"modified_at"`

	Root      *Root                   `bun:"rel:belongs-to,join:unific_root_id=id" json:"root,omitempty"`
	Languages []*LanguageAvailability `bun:"rel:has-many,join:id=entity_version_id" json:"languages,omitempty"`
	Texts     []*LocalizedText        `bun:"rel:has-many,join:id=entity_version_id" json:"texts,omitempty"`
	Producers []*Producer             `bun:"rel:has-many,join:id=entity_version_id" json:"producers,omitempty"`
}

// LanguageAvailability tracks per-language publishing status and schedule for a version.
type LanguageAvailability struct {
	bun.BaseModel `bun:"table:language_availabilities,alias:la"`

	ID               uuid.UUID               `bun:",pk,type:uuid"                          json:"id"`
	EntityVersionID  uuid.UUID               `bun:"entity_version_id,notnull,type:uuid"    json:"entity_version_id"`
	Language         string                  `bun:"language,notnull"                       json:"language"`
	Status           domain.PublishingStatus `bun:"status,notnull,default:'draft'"         json:"status"`
	ValidFrom        *time.Time              `bun:"valid_from,nullzero"                    json:"valid_from,omitempty"`
	ValidTo          *time.Time              `bun:"valid_to,nullzero"                      json:"valid_to,omitempty"`
	ReviewedBy       *uuid.UUID              `bun:"reviewed_by,type:uuid"                  json:"reviewed_by,omitempty"`
	Reviewed         *time.Time              `bun:"reviewed_at,nullzero"                   json:"reviewed_at,omitempty"`
	SetForArchivedBy *uuid.UUID              `bun:"set_for_archived_by,type:uuid"          json:"set_for_archived_by,omitempty"`
	SetForArchived   *time.Time              `bun:"set_for_archived_at,nullzero"           json:"set_for_archived_at,omitempty"`
}

// LocalizedText holds a language-scoped child content row (names, descriptions,
// summaries) belonging to exactly one version. Rows are never shared between
// versions; copies allocate fresh rows.
type LocalizedText struct {
	bun.BaseModel `bun:"table:localized_texts,alias:lt"`

	ID              uuid.UUID      `bun:",pk,type:uuid"                       json:"id"`
	EntityVersionID uuid.UUID      `bun:"entity_version_id,notnull,type:uuid" json:"entity_version_id"`
	Language        string         `bun:"language,notnull"                    json:"language"`
	Kind            string         `bun:"kind,notnull"                        json:"kind"`
	Content         map[string]any `bun:"content,type:jsonb,notnull"          json:"content"`
}

// ProducerKindSelfProduced marks service provision by the owning organization itself.
const ProducerKindSelfProduced = "self_produced"

// Producer links a service version to an organization producing it.
type Producer struct {
	bun.BaseModel `bun:"table:producers,alias:pr"`

	ID              uuid.UUID `bun:",pk,type:uuid"                       json:"id"`
	EntityVersionID uuid.UUID `bun:"entity_version_id,notnull,type:uuid" json:"entity_version_id"`
	OrganizationID  uuid.UUID `bun:"organization_id,notnull,type:uuid"   json:"organization_id"`
	Kind            string    `bun:"kind,notnull"                        json:"kind"`
}

// Connection relates two roots (service to channel, collection to service,
// organization to sub-organization). Cascade archive prunes them; copies
// re-parent them onto the fresh version's root.
type Connection struct {
	bun.BaseModel `bun:"table:connections,alias:cn"`

	ID         uuid.UUID             `bun:",pk,type:uuid"                json:"id"`
	FromRootID uuid.UUID             `bun:"from_root_id,notnull,type:uuid" json:"from_root_id"`
	ToRootID   uuid.UUID             `bun:"to_root_id,notnull,type:uuid"   json:"to_root_id"`
	Kind       domain.ConnectionKind `bun:"kind,notnull"                 json:"kind"`
	CreatedAt  time.Time             `bun:"created_at,nullzero,default:current_timestamp" json:"created_at"`
}

// LanguageStatuses projects the version's per-language statuses.
func (v *Version) LanguageStatuses() []domain.PublishingStatus {
	if v == nil {
		return nil
	}
	out := make([]domain.PublishingStatus, 0, len(v.Languages))
	for _, lang := range v.Languages {
		if lang == nil {
			continue
		}
		out = append(out, lang.Status)
	}
	return out
}

// LanguageByCode returns the availability row for a language code, if present.
func (v *Version) LanguageByCode(code string) *LanguageAvailability {
	if v == nil {
		return nil
	}
	for _, lang := range v.Languages {
		if lang != nil && lang.Language == code {
			return lang
		}
	}
	return nil
}
