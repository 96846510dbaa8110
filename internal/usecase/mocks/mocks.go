package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fleetops/fuelcore/internal/domain"
	"github.com/fleetops/fuelcore/internal/usecase"
)

// MockTransaction is a no-op transaction that records its outcome.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager hands out MockTransactions and keeps them for
// inspection.
type MockTransactionManager struct {
	mu            sync.Mutex
	Transactions  []*MockTransaction
	BeginFunc     func(ctx context.Context) (usecase.Transaction, error)
	BeginReadFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return m.track(), nil
}

func (m *MockTransactionManager) BeginRead(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginReadFunc != nil {
		return m.BeginReadFunc(ctx)
	}
	return m.track(), nil
}

func (m *MockTransactionManager) track() *MockTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	tx := &MockTransaction{}
	m.Transactions = append(m.Transactions, tx)
	return tx
}

// MockStockRepository is an in-memory ledger that mimics the SQL contract:
// identity from a monotonic sequence, reads return copies, writes persist
// copies. Set a Func field to override a single method.
type MockStockRepository struct {
	mu      sync.RWMutex
	entries map[int64]*domain.StockEntry
	nextID  int64

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, entry *domain.StockEntry) error
	GetByIDFunc           func(ctx context.Context, id int64) (*domain.StockEntry, error)
	GetByIDForUpdateFunc  func(ctx context.Context, tx usecase.Transaction, id int64) (*domain.StockEntry, error)
	GetLastForUpdateFunc  func(ctx context.Context, tx usecase.Transaction) (*domain.StockEntry, error)
	GetPreviousFunc       func(ctx context.Context, tx usecase.Transaction, id int64) (*domain.StockEntry, error)
	ListFromForUpdateFunc func(ctx context.Context, tx usecase.Transaction, id int64) ([]*domain.StockEntry, error)
	UpdateFunc            func(ctx context.Context, tx usecase.Transaction, entry *domain.StockEntry) error
	DeleteFunc            func(ctx context.Context, tx usecase.Transaction, id int64) error
}

func NewMockStockRepository() *MockStockRepository {
	return &MockStockRepository{
		entries: make(map[int64]*domain.StockEntry),
		nextID:  1,
	}
}

func (m *MockStockRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.StockEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextID
	m.nextID++
	stored := *entry
	m.entries[entry.ID] = &stored
	return nil
}

func (m *MockStockRepository) GetByID(ctx context.Context, id int64) (*domain.StockEntry, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		out := *e
		return &out, nil
	}
	return nil, domain.ErrStockEntryNotFound
}

func (m *MockStockRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id int64) (*domain.StockEntry, error) {
	if m.GetByIDForUpdateFunc != nil {
		return m.GetByIDForUpdateFunc(ctx, tx, id)
	}
	return m.GetByID(ctx, id)
}

func (m *MockStockRepository) GetLastForUpdate(ctx context.Context, tx usecase.Transaction) (*domain.StockEntry, error) {
	if m.GetLastForUpdateFunc != nil {
		return m.GetLastForUpdateFunc(ctx, tx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var last *domain.StockEntry
	for _, e := range m.entries {
		if last == nil || e.ID > last.ID {
			last = e
		}
	}
	if last == nil {
		return nil, domain.ErrStockEntryNotFound
	}
	out := *last
	return &out, nil
}

func (m *MockStockRepository) GetPrevious(ctx context.Context, tx usecase.Transaction, id int64) (*domain.StockEntry, error) {
	if m.GetPreviousFunc != nil {
		return m.GetPreviousFunc(ctx, tx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var prev *domain.StockEntry
	for _, e := range m.entries {
		if e.ID < id && (prev == nil || e.ID > prev.ID) {
			prev = e
		}
	}
	if prev == nil {
		return nil, domain.ErrStockEntryNotFound
	}
	out := *prev
	return &out, nil
}

func (m *MockStockRepository) ListFromForUpdate(ctx context.Context, tx usecase.Transaction, id int64) ([]*domain.StockEntry, error) {
	if m.ListFromForUpdateFunc != nil {
		return m.ListFromForUpdateFunc(ctx, tx, id)
	}
	return m.ListFrom(ctx, id)
}

func (m *MockStockRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.StockEntry) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return domain.ErrStockEntryNotFound
	}
	stored := *entry
	m.entries[entry.ID] = &stored
	return nil
}

func (m *MockStockRepository) Delete(ctx context.Context, tx usecase.Transaction, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return domain.ErrStockEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MockStockRepository) List(ctx context.Context) ([]*domain.StockEntry, error) {
	return m.ListFrom(ctx, 0)
}

func (m *MockStockRepository) ListFrom(ctx context.Context, id int64) ([]*domain.StockEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.StockEntry
	for _, e := range m.entries {
		if e.ID >= id {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// MockConsumptionRepository is an in-memory consumption event store.
type MockConsumptionRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.ConsumptionEvent

	CreateFunc             func(ctx context.Context, tx usecase.Transaction, event *domain.ConsumptionEvent) error
	GetByIDFunc            func(ctx context.Context, id string) (*domain.ConsumptionEvent, error)
	DeleteFunc             func(ctx context.Context, tx usecase.Transaction, id string) error
	ListByAssetBetweenFunc func(ctx context.Context, tx usecase.Transaction, assetID string, from, to time.Time) ([]*domain.ConsumptionEvent, error)
}

func NewMockConsumptionRepository() *MockConsumptionRepository {
	return &MockConsumptionRepository{
		events: make(map[string]*domain.ConsumptionEvent),
	}
}

func (m *MockConsumptionRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.ConsumptionEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *event
	m.events[event.ID] = &stored
	return nil
}

func (m *MockConsumptionRepository) GetByID(ctx context.Context, id string) (*domain.ConsumptionEvent, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.events[id]; ok {
		out := *e
		return &out, nil
	}
	return nil, domain.ErrConsumptionNotFound
}

func (m *MockConsumptionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return domain.ErrConsumptionNotFound
	}
	delete(m.events, id)
	return nil
}

func (m *MockConsumptionRepository) ListByAssetBetween(ctx context.Context, tx usecase.Transaction, assetID string, from, to time.Time) ([]*domain.ConsumptionEvent, error) {
	if m.ListByAssetBetweenFunc != nil {
		return m.ListByAssetBetweenFunc(ctx, tx, assetID, from, to)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.ConsumptionEvent
	for _, e := range m.events {
		if e.AssetID == assetID && !e.RecordedAt.Before(from) && !e.RecordedAt.After(to) {
			copied := *e
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// MockTripRepository serves trips seeded through Seed.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips []*domain.TripEvent

	ListByAssetBetweenFunc func(ctx context.Context, tx usecase.Transaction, assetID string, from, to time.Time) ([]*domain.TripEvent, error)
}

func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{}
}

func (m *MockTripRepository) Seed(trips ...*domain.TripEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips = append(m.trips, trips...)
}

func (m *MockTripRepository) ListByAssetBetween(ctx context.Context, tx usecase.Transaction, assetID string, from, to time.Time) ([]*domain.TripEvent, error) {
	if m.ListByAssetBetweenFunc != nil {
		return m.ListByAssetBetweenFunc(ctx, tx, assetID, from, to)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.TripEvent
	for _, t := range m.trips {
		if t.AssetID == assetID && !t.Date.Before(from) && !t.Date.After(to) {
			copied := *t
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// MockAssetRepository serves assets seeded through Seed, preserving seed
// order.
type MockAssetRepository struct {
	mu     sync.RWMutex
	assets []*domain.Asset

	GetByIDFunc            func(ctx context.Context, id string) (*domain.Asset, error)
	ListByTypeFunc         func(ctx context.Context, tx usecase.Transaction, assetType string) ([]*domain.Asset, error)
	ListExcludingTypesFunc func(ctx context.Context, tx usecase.Transaction, assetTypes []string) ([]*domain.Asset, error)
}

func NewMockAssetRepository() *MockAssetRepository {
	return &MockAssetRepository{}
}

func (m *MockAssetRepository) Seed(assets ...*domain.Asset) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assets = append(m.assets, assets...)
}

func (m *MockAssetRepository) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.assets {
		if a.ID == id {
			out := *a
			return &out, nil
		}
	}
	return nil, domain.ErrAssetNotFound
}

func (m *MockAssetRepository) ListByType(ctx context.Context, tx usecase.Transaction, assetType string) ([]*domain.Asset, error) {
	if m.ListByTypeFunc != nil {
		return m.ListByTypeFunc(ctx, tx, assetType)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.Asset
	for _, a := range m.assets {
		if a.Type == assetType {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *MockAssetRepository) ListExcludingTypes(ctx context.Context, tx usecase.Transaction, assetTypes []string) ([]*domain.Asset, error) {
	if m.ListExcludingTypesFunc != nil {
		return m.ListExcludingTypesFunc(ctx, tx, assetTypes)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	excluded := make(map[string]bool, len(assetTypes))
	for _, t := range assetTypes {
		excluded[t] = true
	}
	var out []*domain.Asset
	for _, a := range m.assets {
		if !excluded[a.Type] {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

// MockAssignmentRepository maps asset IDs to manager names.
type MockAssignmentRepository struct {
	mu       sync.RWMutex
	managers map[string]string

	ManagerAtFunc func(ctx context.Context, tx usecase.Transaction, assetID string, at time.Time) (string, error)
}

func NewMockAssignmentRepository() *MockAssignmentRepository {
	return &MockAssignmentRepository{managers: make(map[string]string)}
}

func (m *MockAssignmentRepository) Assign(assetID, manager string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.managers[assetID] = manager
}

func (m *MockAssignmentRepository) ManagerAt(ctx context.Context, tx usecase.Transaction, assetID string, at time.Time) (string, error) {
	if m.ManagerAtFunc != nil {
		return m.ManagerAtFunc(ctx, tx, assetID, at)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.managers[assetID], nil
}

// MockIDGenerator returns sequential IDs.
type MockIDGenerator struct {
	mu sync.Mutex
	n  int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("event-%04d", m.n)
}

// MockClock returns a fixed time.
type MockClock struct {
	Time time.Time
}

func NewMockClock(t time.Time) *MockClock {
	return &MockClock{Time: t}
}

func (m *MockClock) Now() time.Time {
	return m.Time
}
