package domain

// TranslationState tracks an external translation order through its sub-state machine.
type TranslationState string

const (
	TranslationReadyToSend          TranslationState = "ready_to_send"
	TranslationSent                 TranslationState = "sent"
	TranslationInProgress           TranslationState = "in_progress"
	TranslationArrived              TranslationState = "arrived"
	TranslationCanceled             TranslationState = "canceled"
	TranslationSendError            TranslationState = "send_error"
	TranslationFileError            TranslationState = "file_error"
	TranslationDeliveredFileError   TranslationState = "delivered_file_error"
	TranslationFailForInvestigation TranslationState = "fail_for_investigation"
	TranslationRequestForRepetition TranslationState = "request_for_repetition"
	TranslationRequestForCancel     TranslationState = "request_for_cancel"
)

// IsTerminal reports whether no further vendor activity is expected for the state.
func (s TranslationState) IsTerminal() bool {
	switch s {
	case TranslationArrived, TranslationCanceled, TranslationFailForInvestigation:
		return true
	default:
		return false
	}
}

// IsError reports whether the state represents a vendor-side failure.
func (s TranslationState) IsError() bool {
	switch s {
	case TranslationSendError, TranslationFileError, TranslationDeliveredFileError:
		return true
	default:
		return false
	}
}

// AggregateStatus derives the entity status from its per-language statuses.
// Any published language keeps the entity published; otherwise an editable
// language wins over demoted ones, and an entity whose every language is
// archived is itself archived.
func AggregateStatus(languages []PublishingStatus) PublishingStatus {
	if len(languages) == 0 {
		return StatusDraft
	}

	allArchived := true
	hasPublished := false
	hasModified := false
	hasDraft := false
	hasOldPublished := false

	for _, status := range languages {
		if !status.IsArchived() {
			allArchived = false
		}
		switch status {
		case StatusPublished:
			hasPublished = true
		case StatusModified:
			hasModified = true
		case StatusDraft:
			hasDraft = true
		case StatusOldPublished:
			hasOldPublished = true
		}
	}

	switch {
	case allArchived:
		return StatusRemoved
	case hasPublished:
		return StatusPublished
	case hasModified:
		return StatusModified
	case hasDraft:
		return StatusDraft
	case hasOldPublished:
		return StatusOldPublished
	default:
		return StatusDraft
	}
}
