package translation

import "github.com/goliatone/go-lifecycle/internal/domain"

// defaultErrorThreshold bounds how many consecutive vendor errors an order
// tolerates before escalating to fail_for_investigation.
const defaultErrorThreshold = 3

// allowedTransitions captures the order sub-state machine. Operator states
// re-enter the in-progress branch; error states may repeat until escalation.
var allowedTransitions = map[domain.TranslationState][]domain.TranslationState{
	domain.TranslationReadyToSend: {
		domain.TranslationSent,
		domain.TranslationSendError,
		domain.TranslationCanceled,
	},
	domain.TranslationSent: {
		domain.TranslationInProgress,
		domain.TranslationArrived,
		domain.TranslationCanceled,
		domain.TranslationSendError,
		domain.TranslationFileError,
	},
	domain.TranslationInProgress: {
		domain.TranslationArrived,
		domain.TranslationCanceled,
		domain.TranslationFileError,
		domain.TranslationDeliveredFileError,
		domain.TranslationRequestForRepetition,
		domain.TranslationRequestForCancel,
	},
	domain.TranslationArrived: {
		domain.TranslationRequestForRepetition,
	},
	domain.TranslationSendError: {
		domain.TranslationSent,
		domain.TranslationSendError,
		domain.TranslationCanceled,
		domain.TranslationFailForInvestigation,
	},
	domain.TranslationFileError: {
		domain.TranslationSent,
		domain.TranslationFileError,
		domain.TranslationCanceled,
		domain.TranslationFailForInvestigation,
	},
	domain.TranslationDeliveredFileError: {
		domain.TranslationInProgress,
		domain.TranslationDeliveredFileError,
		domain.TranslationCanceled,
		domain.TranslationFailForInvestigation,
	},
	domain.TranslationRequestForRepetition: {
		domain.TranslationSent,
		domain.TranslationInProgress,
		domain.TranslationCanceled,
	},
	domain.TranslationRequestForCancel: {
		domain.TranslationInProgress,
		domain.TranslationCanceled,
	},
}

// canTransition reports whether the state machine permits from -> to.
func canTransition(from, to domain.TranslationState) bool {
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
