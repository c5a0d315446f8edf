package translation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/goliatone/go-lifecycle/internal/domain"
	"github.com/goliatone/go-lifecycle/internal/history"
	"github.com/goliatone/go-lifecycle/internal/identity"
	"github.com/goliatone/go-lifecycle/internal/logging"
	"github.com/goliatone/go-lifecycle/internal/version"
	"github.com/goliatone/go-lifecycle/pkg/interfaces"
	"github.com/google/uuid"
)

// Service tracks outbound and inbound translation jobs per language per entity.
type Service interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) ([]*Order, error)
	ReceiveTranslation(ctx context.Context, orderID uuid.UUID, targetJSON string) (*Order, error)
	ConfirmDelivered(ctx context.Context, versionID uuid.UUID, language string) (*Order, error)
	AdvanceState(ctx context.Context, orderID uuid.UUID, to domain.TranslationState, info *string) (*Order, error)
}

// PlaceOrderRequest captures an outbound translation request for one or more
// target languages.
type PlaceOrderRequest struct {
	VersionID       uuid.UUID
	SourceLanguage  string
	TargetLanguages []string
	DeliverAt       *time.Time
	OrderedBy       uuid.UUID
}

// OrderRepository abstracts storage for orders, their states, and tracking rows.
type OrderRepository interface {
	Create(ctx context.Context, record *Order) (*Order, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	// GetCurrent returns the newest order for the root and target language, or
	// nil when the language was never ordered.
	GetCurrent(ctx context.Context, rootID uuid.UUID, targetLanguage string) (*Order, error)
	Update(ctx context.Context, record *Order) (*Order, error)
	// AppendState inserts the new state row and flips the previous Last flag
	// inside the same storage operation.
	AppendState(ctx context.Context, orderID uuid.UUID, state *OrderState) error
	// CheckLastState marks the order's current state as user-confirmed.
	CheckLastState(ctx context.Context, orderID uuid.UUID) error
	NextOrderIdentifier(ctx context.Context) (int64, error)
	AddTracking(ctx context.Context, orderID uuid.UUID) error
	RemoveTracking(ctx context.Context, orderID uuid.UUID) error
}

// VersionStore is the slice of version storage the lifecycle needs: reading
// source content and re-applying delivered translations.
type VersionStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*version.Version, error)
	ListByRoot(ctx context.Context, rootID uuid.UUID) ([]*version.Version, error)
	Update(ctx context.Context, record *version.Version) (*version.Version, error)
}

// Option configures the service.
type Option func(*service)

// WithClock overrides the clock.
func WithClock(clock func() time.Time) Option {
	return func(s *service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithIDGenerator overrides the identifier generator.
func WithIDGenerator(generator func() uuid.UUID) Option {
	return func(s *service) {
		if generator != nil {
			s.id = generator
		}
	}
}

// WithErrorThreshold overrides how many consecutive vendor errors escalate
// the order to fail_for_investigation.
func WithErrorThreshold(threshold int) Option {
	return func(s *service) {
		if threshold > 0 {
			s.errorThreshold = threshold
		}
	}
}

// WithVendor installs the outbound vendor transport. Orders are submitted on
// placement and move to sent or send_error accordingly.
func WithVendor(vendor interfaces.TranslationVendor) Option {
	return func(s *service) {
		if vendor != nil {
			s.vendor = vendor
		}
	}
}

// WithHistory installs the history recorder.
func WithHistory(recorder history.Recorder) Option {
	return func(s *service) {
		if recorder != nil {
			s.history = recorder
		}
	}
}

// WithLogger attaches a module logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type service struct {
	orders         OrderRepository
	versions       VersionStore
	vendor         interfaces.TranslationVendor
	history        history.Recorder
	logger         interfaces.Logger
	now            func() time.Time
	id             func() uuid.UUID
	errorThreshold int
}

// NewService constructs the translation order lifecycle.
func NewService(orders OrderRepository, versions VersionStore, opts ...Option) Service {
	s := &service{
		orders:         orders,
		versions:       versions,
		logger:         logging.NoOp(),
		now:            time.Now,
		id:             uuid.New,
		errorThreshold: defaultErrorThreshold,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder creates one order per target language, chaining re-orders onto
// arrived predecessors and rejecting languages still in flight.
func (s *service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) ([]*Order, error) {
	if req.VersionID == uuid.Nil {
		return nil, ErrVersionIDRequired
	}
	if req.SourceLanguage == "" {
		return nil, ErrSourceRequired
	}
	if len(req.TargetLanguages) == 0 {
		return nil, ErrNoTargetLanguages
	}

	record, err := s.versions.GetByID(ctx, req.VersionID)
	if err != nil {
		return nil, err
	}

	snapshot := sourceSnapshot(record, req.SourceLanguage)
	if len(snapshot) == 0 {
		return nil, ErrNoSourceContent
	}
	serialized, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}
	fingerprint := identity.ContentFingerprint(string(serialized)).String()

	// Validate every target before creating anything: a single in-flight
	// language rejects the whole request. Language identity ignores case,
	// so "FI" and "fi" name the same language.
	sourceKey := identity.LanguageUUID(req.SourceLanguage)
	previous := make(map[string]*Order, len(req.TargetLanguages))
	for _, target := range req.TargetLanguages {
		if identity.LanguageUUID(target) == sourceKey {
			return nil, ErrSourceEqualsTarget
		}
		current, err := s.orders.GetCurrent(ctx, record.UnificRootID, target)
		if err != nil {
			return nil, err
		}
		if current != nil {
			last := current.LastState()
			if last != nil && !last.State.IsTerminal() {
				return nil, &StateError{OrderID: current.ID, State: last.State}
			}
			if last != nil && last.State == domain.TranslationArrived {
				previous[target] = current
			}
		}
	}

	now := s.now()
	created := make([]*Order, 0, len(req.TargetLanguages))
	newLanguages := make([]string, 0)

	for _, target := range req.TargetLanguages {
		identifier, err := s.orders.NextOrderIdentifier(ctx)
		if err != nil {
			return nil, err
		}

		order := &Order{
			ID:              s.id(),
			UnificRootID:    record.UnificRootID,
			EntityKind:      record.Kind,
			SourceLanguage:  req.SourceLanguage,
			TargetLanguage:  target,
			OrderIdentifier: identifier,
			SourceData:      snapshot,
			SourceDataHash:  fingerprint,
			DeliverAt:       req.DeliverAt,
			CreatedBy:       req.OrderedBy,
			CreatedAt:       now,
		}
		if prev := previous[target]; prev != nil {
			prevID := prev.ID
			order.PreviousOrderID = &prevID
		}

		stored, err := s.orders.Create(ctx, order)
		if err != nil {
			return nil, err
		}
		if err := s.orders.AppendState(ctx, stored.ID, &OrderState{
			ID:                 s.id(),
			TranslationOrderID: stored.ID,
			State:              domain.TranslationReadyToSend,
			Last:               true,
			CreatedAt:          now,
		}); err != nil {
			return nil, err
		}
		if err := s.orders.AddTracking(ctx, stored.ID); err != nil {
			return nil, err
		}

		// Missing language availabilities appear in a fresh draft sub-state;
		// existing ones keep their previous state untouched.
		if record.LanguageByCode(target) == nil {
			record.Languages = append(record.Languages, &version.LanguageAvailability{
				ID:              s.id(),
				EntityVersionID: record.ID,
				Language:        target,
				Status:          domain.StatusDraft,
			})
			newLanguages = append(newLanguages, target)
		}

		if s.vendor != nil {
			s.submit(ctx, stored, now)
		}

		refreshed, err := s.orders.GetByID(ctx, stored.ID)
		if err != nil {
			return nil, err
		}
		created = append(created, refreshed)

		s.recordHistory(ctx, record, domain.ActionTranslationOrdered, req.OrderedBy, []string{target}, map[string]any{
			"order_id":         stored.ID.String(),
			"order_identifier": identifier,
		})
	}

	if len(newLanguages) > 0 {
		record.ModifiedAt = now
		if req.OrderedBy != uuid.Nil {
			record.ModifiedBy = req.OrderedBy
		}
		if _, err := s.versions.Update(ctx, record); err != nil {
			return nil, err
		}
	}

	s.logger.Info("translation.orders.placed",
		"root_id", record.UnificRootID,
		"source", req.SourceLanguage,
		"targets", req.TargetLanguages,
	)

	return created, nil
}

func (s *service) submit(ctx context.Context, order *Order, now time.Time) {
	err := s.vendor.Submit(ctx, interfaces.TranslationSubmission{
		OrderID:         order.ID.String(),
		OrderIdentifier: order.OrderIdentifier,
		SourceLanguage:  order.SourceLanguage,
		TargetLanguage:  order.TargetLanguage,
		SourceData:      order.SourceData,
		DeliverAt:       order.DeliverAt,
	})
	state := domain.TranslationSent
	var info *string
	if err != nil {
		state = domain.TranslationSendError
		message := err.Error()
		info = &message
	}
	sendAt := now
	appendErr := s.orders.AppendState(ctx, order.ID, &OrderState{
		ID:                 s.id(),
		TranslationOrderID: order.ID,
		State:              state,
		Last:               true,
		SendAt:             &sendAt,
		InfoDetails:        info,
		CreatedAt:          now,
	})
	if appendErr != nil {
		s.logger.Error("translation.submit.state", "order_id", order.ID, "error", appendErr)
	}
}

// ReceiveTranslation stores the delivered payload and re-applies it to the
// entity's current editable version. Malformed payloads leave the order
// completely untouched.
func (s *service) ReceiveTranslation(ctx context.Context, orderID uuid.UUID, targetJSON string) (*Order, error) {
	if orderID == uuid.Nil {
		return nil, ErrOrderIDRequired
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	last := order.LastState()
	if last != nil {
		switch last.State {
		case domain.TranslationCanceled, domain.TranslationFailForInvestigation:
			return nil, &StateError{OrderID: order.ID, State: last.State}
		}
	}

	payload, err := parsePayload(targetJSON)
	if err != nil {
		return nil, &MalformedPayloadError{OrderID: order.ID, Cause: err}
	}

	// The transition is checked before anything persists so a rejected
	// delivery leaves the order exactly as it was.
	if last != nil && last.State != domain.TranslationArrived && !canTransition(last.State, domain.TranslationArrived) {
		return nil, &TransitionError{OrderID: order.ID, From: last.State, To: domain.TranslationArrived}
	}

	now := s.now()
	order.TargetData = payload
	if _, err := s.orders.Update(ctx, order); err != nil {
		return nil, err
	}
	if last == nil || last.State != domain.TranslationArrived {
		if err := s.appendState(ctx, order, domain.TranslationArrived, nil, now); err != nil {
			return nil, err
		}
	}

	target, err := s.applyDelivery(ctx, order, payload, now)
	if err != nil {
		return nil, err
	}
	if target != nil {
		s.recordHistory(ctx, target, domain.ActionTranslationReceived, order.CreatedBy, []string{order.TargetLanguage}, map[string]any{
			"order_id": order.ID.String(),
		})
	}

	if err := s.orders.RemoveTracking(ctx, order.ID); err != nil {
		return nil, err
	}

	s.logger.Info("translation.received",
		"order_id", order.ID,
		"root_id", order.UnificRootID,
		"language", order.TargetLanguage,
	)

	return s.orders.GetByID(ctx, order.ID)
}

// applyDelivery writes the delivered fields onto the latest editable version,
// falling back to the published one when no editable branch exists.
func (s *service) applyDelivery(ctx context.Context, order *Order, payload map[string]any, now time.Time) (*version.Version, error) {
	records, err := s.versions.ListByRoot(ctx, order.UnificRootID)
	if err != nil {
		return nil, err
	}

	var target *version.Version
	for _, record := range records {
		if record == nil || record.Status.IsArchived() {
			continue
		}
		switch record.Status {
		case domain.StatusModified, domain.StatusDraft:
			target = record
		case domain.StatusPublished:
			if target == nil {
				target = record
			}
		}
	}
	if target == nil {
		return nil, nil
	}

	for kind, value := range payload {
		content, ok := value.(map[string]any)
		if !ok {
			content = map[string]any{"text": value}
		}
		replaced := false
		for _, text := range target.Texts {
			if text != nil && text.Language == order.TargetLanguage && text.Kind == kind {
				text.Content = content
				replaced = true
				break
			}
		}
		if !replaced {
			target.Texts = append(target.Texts, &version.LocalizedText{
				ID:              s.id(),
				EntityVersionID: target.ID,
				Language:        order.TargetLanguage,
				Kind:            kind,
				Content:         content,
			})
		}
	}

	target.ModifiedAt = now
	if _, err := s.versions.Update(ctx, target); err != nil {
		return nil, err
	}
	return target, nil
}

// ConfirmDelivered flips the Checked flag on an arrived order so it is not
// reprocessed, and drops its tracking row.
func (s *service) ConfirmDelivered(ctx context.Context, versionID uuid.UUID, language string) (*Order, error) {
	if versionID == uuid.Nil {
		return nil, ErrVersionIDRequired
	}

	record, err := s.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, err
	}

	order, err := s.orders.GetCurrent(ctx, record.UnificRootID, language)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, &NotFoundError{Resource: "translation_order", Key: language}
	}
	last := order.LastState()
	if last == nil || last.State != domain.TranslationArrived {
		return nil, ErrOrderNotArrived
	}
	if last.Checked {
		return order, nil
	}

	if err := s.orders.CheckLastState(ctx, order.ID); err != nil {
		return nil, err
	}
	if err := s.orders.RemoveTracking(ctx, order.ID); err != nil {
		return nil, err
	}

	s.recordHistory(ctx, record, domain.ActionTranslationConfirmed, uuid.Nil, []string{language}, map[string]any{
		"order_id": order.ID.String(),
	})

	return s.orders.GetByID(ctx, order.ID)
}

// AdvanceState applies an operator- or vendor-driven transition, escalating
// repeated errors to fail_for_investigation at the configured threshold.
func (s *service) AdvanceState(ctx context.Context, orderID uuid.UUID, to domain.TranslationState, info *string) (*Order, error) {
	if orderID == uuid.Nil {
		return nil, ErrOrderIDRequired
	}
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.appendState(ctx, order, to, info, s.now()); err != nil {
		return nil, err
	}
	return s.orders.GetByID(ctx, orderID)
}

func (s *service) appendState(ctx context.Context, order *Order, to domain.TranslationState, info *string, now time.Time) error {
	last := order.LastState()
	if last != nil && !canTransition(last.State, to) {
		return &TransitionError{OrderID: order.ID, From: last.State, To: to}
	}

	if to.IsError() && order.ErrorStreak()+1 >= s.errorThreshold {
		s.logger.Warn("translation.order.escalated",
			"order_id", order.ID,
			"state", string(to),
			"streak", order.ErrorStreak()+1,
		)
		to = domain.TranslationFailForInvestigation
	}

	return s.orders.AppendState(ctx, order.ID, &OrderState{
		ID:                 s.id(),
		TranslationOrderID: order.ID,
		State:              to,
		Last:               true,
		InfoDetails:        info,
		CreatedAt:          now,
	})
}

func (s *service) recordHistory(ctx context.Context, record *version.Version, action domain.ActionKind, actor uuid.UUID, languages []string, metadata map[string]any) {
	if s.history == nil {
		return
	}
	_ = s.history.Record(ctx, history.Entry{
		ID:           s.id(),
		EntityKind:   record.Kind,
		VersionID:    record.ID,
		UnificRootID: record.UnificRootID,
		Action:       action,
		Actor:        actor,
		OccurredAt:   s.now(),
		Languages:    languages,
		Metadata:     metadata,
	})
}

func sourceSnapshot(record *version.Version, sourceLanguage string) map[string]any {
	snapshot := make(map[string]any)
	for _, text := range record.Texts {
		if text == nil || text.Language != sourceLanguage {
			continue
		}
		snapshot[text.Kind] = text.Content
	}
	return snapshot
}
