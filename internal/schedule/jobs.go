package schedule

import "github.com/google/uuid"

const (
	JobTypePublish = "lifecycle.version.publish"
	JobTypeArchive = "lifecycle.version.archive"
)

func PublishJobKey(id uuid.UUID) string {
	return "version:" + id.String() + ":publish"
}

func ArchiveJobKey(id uuid.UUID) string {
	return "version:" + id.String() + ":archive"
}
