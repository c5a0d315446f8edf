package domain

import "strings"

// PublishingStatus represents lifecycle states for versioned entities
type PublishingStatus string

const (
	// StatusDraft indicates a version still under preparation
	StatusDraft PublishingStatus = "draft"
	// StatusModified marks an editable side-branch of an already published version
	StatusModified PublishingStatus = "modified"
	// StatusPublished identifies the version currently visible to consumers
	StatusPublished PublishingStatus = "published"
	// StatusOldPublished marks a version demoted by a newer publication
	StatusOldPublished PublishingStatus = "old_published"
	// StatusDeleted marks a version archived by a user action
	StatusDeleted PublishingStatus = "deleted"
	// StatusRemoved is the terminal archived state
	StatusRemoved PublishingStatus = "removed"
)

// NormalizeStatus coerces arbitrary status strings into a known representation.
func NormalizeStatus(input string) PublishingStatus {
	if strings.TrimSpace(input) == "" {
		return StatusDraft
	}
	return PublishingStatus(strings.ToLower(strings.TrimSpace(input)))
}

// IsArchived reports whether the status counts as archived.
func (s PublishingStatus) IsArchived() bool {
	return s == StatusDeleted || s == StatusRemoved
}

// IsEditable reports whether a version with this status accepts content mutations.
func (s PublishingStatus) IsEditable() bool {
	return s == StatusDraft || s == StatusModified
}

// EntityKind identifies the five entity families sharing the lifecycle machinery.
type EntityKind string

const (
	KindService            EntityKind = "service"
	KindChannel            EntityKind = "channel"
	KindOrganization       EntityKind = "organization"
	KindServiceCollection  EntityKind = "service_collection"
	KindGeneralDescription EntityKind = "general_description"
)

// EntityKinds enumerates every supported kind in a stable order.
func EntityKinds() []EntityKind {
	return []EntityKind{
		KindService,
		KindChannel,
		KindOrganization,
		KindServiceCollection,
		KindGeneralDescription,
	}
}

// ActionKind labels history entries appended on lifecycle transitions.
type ActionKind string

const (
	ActionPublished            ActionKind = "published"
	ActionWithdrawn            ActionKind = "withdrawn"
	ActionRestored             ActionKind = "restored"
	ActionArchived             ActionKind = "archived"
	ActionCopied               ActionKind = "copied"
	ActionScheduledPublish     ActionKind = "scheduled_publish"
	ActionScheduledArchive     ActionKind = "scheduled_archive"
	ActionTranslationOrdered   ActionKind = "translation_ordered"
	ActionTranslationReceived  ActionKind = "translation_received"
	ActionTranslationConfirmed ActionKind = "translation_confirmed"
)

// ConnectionKind classifies relations between roots used for cascades and copies.
type ConnectionKind string

const (
	ConnectionServiceChannel    ConnectionKind = "service_channel"
	ConnectionCollectionService ConnectionKind = "collection_service"
	ConnectionSubOrganization   ConnectionKind = "sub_organization"
)
