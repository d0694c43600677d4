package repository

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iliyamo/restaurant-chatbot/internal/model"
)

// MemoryOrderStore keeps sessions and placed orders in process memory.  It
// implements the same contract as OrderRepo and is used when the service
// runs without a database (STORE_DRIVER=memory) and by tests.  A single
// mutex guards all state, which trivially makes every operation atomic.
type MemoryOrderStore struct {
	mu       sync.Mutex
	sessions map[string]*memorySession
	orders   []model.PlacedOrder
	nextID   uint64
	now      func() time.Time
}

type memorySession struct {
	lines     []model.OrderLine
	createdAt time.Time
}

// NewMemoryOrderStore returns an empty in-memory store.
func NewMemoryOrderStore() *MemoryOrderStore {
	return &MemoryOrderStore{
		sessions: make(map[string]*memorySession),
		nextID:   1,
		now:      time.Now,
	}
}

func (s *MemoryOrderStore) EnsureSession(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[deviceID]; !ok {
		s.sessions[deviceID] = &memorySession{lines: []model.OrderLine{}, createdAt: s.now().UTC()}
	}
	return nil
}

func (s *MemoryOrderStore) SessionExists(ctx context.Context, deviceID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[deviceID]
	return ok, nil
}

func (s *MemoryOrderStore) GetCurrentOrder(ctx context.Context, deviceID string) ([]model.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[deviceID]
	if !ok {
		return []model.OrderLine{}, nil
	}
	return cloneLines(sess.lines), nil
}

func (s *MemoryOrderStore) AddLine(ctx context.Context, deviceID string, itemID int, name string, price decimal.Decimal) ([]model.OrderLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[deviceID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.lines = model.MergeLine(sess.lines, itemID, name, price)
	return cloneLines(sess.lines), nil
}

func (s *MemoryOrderStore) ClearCurrentOrder(ctx context.Context, deviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[deviceID]; ok {
		sess.lines = []model.OrderLine{}
	}
	return nil
}

func (s *MemoryOrderStore) PlaceOrder(ctx context.Context, deviceID string) (model.PlacedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[deviceID]
	if !ok {
		return model.PlacedOrder{}, ErrSessionNotFound
	}
	if len(sess.lines) == 0 {
		return model.PlacedOrder{}, ErrEmptyOrder
	}
	o := model.PlacedOrder{
		ID:        s.nextID,
		DeviceID:  deviceID,
		Lines:     cloneLines(sess.lines),
		Status:    model.OrderStatusPlaced,
		CreatedAt: s.now().UTC(),
	}
	s.nextID++
	s.orders = append(s.orders, o)
	sess.lines = []model.OrderLine{}
	return o, nil
}

func (s *MemoryOrderStore) ListPlacedOrders(ctx context.Context, deviceID string) ([]model.PlacedOrder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.PlacedOrder, 0, HistoryLimit)
	for i := len(s.orders) - 1; i >= 0 && len(out) < HistoryLimit; i-- {
		if o := s.orders[i]; o.DeviceID == deviceID && o.Status == model.OrderStatusPlaced {
			o.Lines = cloneLines(o.Lines)
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *MemoryOrderStore) PurgeSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, sess := range s.sessions {
		if sess.createdAt.Before(cutoff) {
			delete(s.sessions, id)
			n++
		}
	}
	return n, nil
}

func cloneLines(lines []model.OrderLine) []model.OrderLine {
	out := make([]model.OrderLine, len(lines))
	copy(out, lines)
	return out
}
