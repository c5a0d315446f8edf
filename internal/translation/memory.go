package translation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryOrderRepository is an in-memory OrderRepository for tests and local
// development.
type MemoryOrderRepository struct {
	mu       sync.RWMutex
	orders   map[uuid.UUID]*Order
	tracking map[uuid.UUID]*Tracking
	sequence int64
}

// NewMemoryOrderRepository builds an empty repository.
func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders:   make(map[uuid.UUID]*Order),
		tracking: make(map[uuid.UUID]*Tracking),
	}
}

func (r *MemoryOrderRepository) Create(_ context.Context, record *Order) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	stored := cloneOrder(record)
	r.orders[stored.ID] = stored
	return cloneOrder(stored), nil
}

func (r *MemoryOrderRepository) GetByID(_ context.Context, id uuid.UUID) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.orders[id]
	if !ok {
		return nil, &NotFoundError{Resource: "translation_order", Key: id.String()}
	}
	return cloneOrder(stored), nil
}

func (r *MemoryOrderRepository) GetCurrent(_ context.Context, rootID uuid.UUID, targetLanguage string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var newest *Order
	for _, stored := range r.orders {
		if stored.UnificRootID != rootID || stored.TargetLanguage != targetLanguage {
			continue
		}
		if newest == nil || stored.OrderIdentifier > newest.OrderIdentifier {
			newest = stored
		}
	}
	if newest == nil {
		return nil, nil
	}
	return cloneOrder(newest), nil
}

func (r *MemoryOrderRepository) Update(_ context.Context, record *Order) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[record.ID]
	if !ok {
		return nil, &NotFoundError{Resource: "translation_order", Key: record.ID.String()}
	}
	updated := cloneOrder(record)
	// States are append-only through AppendState.
	updated.States = stored.States
	r.orders[record.ID] = updated
	return cloneOrder(updated), nil
}

func (r *MemoryOrderRepository) AppendState(_ context.Context, orderID uuid.UUID, state *OrderState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[orderID]
	if !ok {
		return &NotFoundError{Resource: "translation_order", Key: orderID.String()}
	}
	for _, previous := range stored.States {
		previous.Last = false
	}
	appended := *state
	appended.TranslationOrderID = orderID
	appended.Last = true
	stored.States = append(stored.States, &appended)
	return nil
}

func (r *MemoryOrderRepository) CheckLastState(_ context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.orders[orderID]
	if !ok {
		return &NotFoundError{Resource: "translation_order", Key: orderID.String()}
	}
	for _, state := range stored.States {
		if state.Last {
			state.Checked = true
			return nil
		}
	}
	return &NotFoundError{Resource: "translation_order_state", Key: orderID.String()}
}

func (r *MemoryOrderRepository) NextOrderIdentifier(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sequence++
	return r.sequence, nil
}

func (r *MemoryOrderRepository) AddTracking(_ context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tracking[orderID] = &Tracking{
		ID:                 uuid.New(),
		TranslationOrderID: orderID,
		CreatedAt:          time.Now(),
	}
	return nil
}

func (r *MemoryOrderRepository) RemoveTracking(_ context.Context, orderID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.tracking, orderID)
	return nil
}

// TrackedOrders lists order IDs still awaiting delivery, ordered for stable
// assertions.
func (r *MemoryOrderRepository) TrackedOrders() []uuid.UUID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uuid.UUID, 0, len(r.tracking))
	for id := range r.tracking {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

func cloneOrder(record *Order) *Order {
	if record == nil {
		return nil
	}
	cloned := *record
	if record.PreviousOrderID != nil {
		id := *record.PreviousOrderID
		cloned.PreviousOrderID = &id
	}
	if record.DeliverAt != nil {
		at := *record.DeliverAt
		cloned.DeliverAt = &at
	}
	cloned.SourceData = cloneAnyMap(record.SourceData)
	cloned.TargetData = cloneAnyMap(record.TargetData)
	cloned.States = make([]*OrderState, 0, len(record.States))
	for _, state := range record.States {
		if state == nil {
			continue
		}
		clonedState := *state
		if state.SendAt != nil {
			at := *state.SendAt
			clonedState.SendAt = &at
		}
		if state.InfoDetails != nil {
			info := *state.InfoDetails
			clonedState.InfoDetails = &info
		}
		cloned.States = append(cloned.States, &clonedState)
	}
	return &cloned
}

func cloneAnyMap(source map[string]any) map[string]any {
	if source == nil {
		return nil
	}
	cloned := make(map[string]any, len(source))
	for key, value := range source {
		cloned[key] = value
	}
	return cloned
}
