package di

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"sync"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Bowler is the record type served by the test repository
type Bowler struct {
	ID      string `json:"id" bun:"id,pk"`
	Name    string `json:"name" bun:"name"`
	League  string `json:"league" bun:"league"`
	Average int    `json:"average" bun:"average"`
}

// mockBowlerRepository provides a fake repository implementation for testing
type mockBowlerRepository struct {
	mu        sync.RWMutex
	bowlers   map[string]Bowler
	failWith  error
	callCount map[string]int // Track method calls to verify caching behavior
}

func newMockBowlerRepository() *mockBowlerRepository {
	return &mockBowlerRepository{
		bowlers:   make(map[string]Bowler),
		callCount: make(map[string]int),
	}
}

func (m *mockBowlerRepository) trackCall(method string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount[method]++
}

func (m *mockBowlerRepository) getCallCount(method string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.callCount[method]
}

// GetByID implementation for mock repository
func (m *mockBowlerRepository) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (Bowler, error) {
	m.trackCall("GetByID")
	m.mu.RLock()
	bowler, exists := m.bowlers[id]
	failWith := m.failWith
	m.mu.RUnlock()
	if failWith != nil {
		return Bowler{}, failWith
	}
	if !exists {
		return Bowler{}, sql.ErrNoRows
	}
	return bowler, nil
}

// Get implementation for mock repository
func (m *mockBowlerRepository) Get(ctx context.Context, criteria ...repository.SelectCriteria) (Bowler, error) {
	m.trackCall("Get")
	m.mu.RLock()
	defer m.mu.RUnlock()
	bowlers := m.sorted()
	if len(bowlers) == 0 {
		return Bowler{}, sql.ErrNoRows
	}
	return bowlers[0], nil
}

// List implementation for mock repository
func (m *mockBowlerRepository) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]Bowler, int, error) {
	m.trackCall("List")
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.failWith != nil {
		return nil, 0, m.failWith
	}
	bowlers := m.sorted()
	return bowlers, len(bowlers), nil
}

// sorted returns the bowlers ordered by ID. Callers hold the lock.
func (m *mockBowlerRepository) sorted() []Bowler {
	bowlers := make([]Bowler, 0, len(m.bowlers))
	for _, bowler := range m.bowlers {
		bowlers = append(bowlers, bowler)
	}
	sort.Slice(bowlers, func(i, j int) bool { return bowlers[i].ID < bowlers[j].ID })
	return bowlers
}

// Count implementation for mock repository
func (m *mockBowlerRepository) Count(ctx context.Context, criteria ...repository.SelectCriteria) (int, error) {
	m.trackCall("Count")
	m.mu.RLock()
	count := len(m.bowlers)
	m.mu.RUnlock()
	return count, nil
}

// GetByIdentifier implementation for mock repository
func (m *mockBowlerRepository) GetByIdentifier(ctx context.Context, identifier string, criteria ...repository.SelectCriteria) (Bowler, error) {
	m.trackCall("GetByIdentifier")
	return m.GetByID(ctx, identifier, criteria...)
}

// Create implementation for mock repository
func (m *mockBowlerRepository) Create(ctx context.Context, bowler Bowler, criteria ...repository.InsertCriteria) (Bowler, error) {
	m.trackCall("Create")
	m.mu.Lock()
	m.bowlers[bowler.ID] = bowler
	m.mu.Unlock()
	return bowler, nil
}

// Update implementation for mock repository
func (m *mockBowlerRepository) Update(ctx context.Context, bowler Bowler, criteria ...repository.UpdateCriteria) (Bowler, error) {
	m.trackCall("Update")
	m.mu.Lock()
	m.bowlers[bowler.ID] = bowler
	m.mu.Unlock()
	return bowler, nil
}

// Delete implementation for mock repository
func (m *mockBowlerRepository) Delete(ctx context.Context, bowler Bowler) error {
	m.trackCall("Delete")
	m.mu.Lock()
	delete(m.bowlers, bowler.ID)
	m.mu.Unlock()
	return nil
}

// Stub implementations for other required methods
func (m *mockBowlerRepository) CreateTx(ctx context.Context, tx bun.IDB, record Bowler, criteria ...repository.InsertCriteria) (Bowler, error) {
	return m.Create(ctx, record, criteria...)
}
func (m *mockBowlerRepository) CreateMany(ctx context.Context, records []Bowler, criteria ...repository.InsertCriteria) ([]Bowler, error) {
	for _, record := range records {
		m.Create(ctx, record, criteria...)
	}
	return records, nil
}
func (m *mockBowlerRepository) CreateManyTx(ctx context.Context, tx bun.IDB, records []Bowler, criteria ...repository.InsertCriteria) ([]Bowler, error) {
	return m.CreateMany(ctx, records, criteria...)
}
func (m *mockBowlerRepository) GetOrCreate(ctx context.Context, record Bowler) (Bowler, error) {
	m.mu.RLock()
	if existing, exists := m.bowlers[record.ID]; exists {
		m.mu.RUnlock()
		return existing, nil
	}
	m.mu.RUnlock()
	return m.Create(ctx, record)
}
func (m *mockBowlerRepository) GetOrCreateTx(ctx context.Context, tx bun.IDB, record Bowler) (Bowler, error) {
	return m.GetOrCreate(ctx, record)
}
func (m *mockBowlerRepository) UpdateTx(ctx context.Context, tx bun.IDB, record Bowler, criteria ...repository.UpdateCriteria) (Bowler, error) {
	return m.Update(ctx, record, criteria...)
}
func (m *mockBowlerRepository) UpdateMany(ctx context.Context, records []Bowler, criteria ...repository.UpdateCriteria) ([]Bowler, error) {
	for _, record := range records {
		m.Update(ctx, record, criteria...)
	}
	return records, nil
}
func (m *mockBowlerRepository) UpdateManyTx(ctx context.Context, tx bun.IDB, records []Bowler, criteria ...repository.UpdateCriteria) ([]Bowler, error) {
	return m.UpdateMany(ctx, records, criteria...)
}
func (m *mockBowlerRepository) Upsert(ctx context.Context, record Bowler, criteria ...repository.UpdateCriteria) (Bowler, error) {
	return m.Update(ctx, record, criteria...)
}
func (m *mockBowlerRepository) UpsertTx(ctx context.Context, tx bun.IDB, record Bowler, criteria ...repository.UpdateCriteria) (Bowler, error) {
	return m.Upsert(ctx, record, criteria...)
}
func (m *mockBowlerRepository) UpsertMany(ctx context.Context, records []Bowler, criteria ...repository.UpdateCriteria) ([]Bowler, error) {
	return m.UpdateMany(ctx, records, criteria...)
}
func (m *mockBowlerRepository) UpsertManyTx(ctx context.Context, tx bun.IDB, records []Bowler, criteria ...repository.UpdateCriteria) ([]Bowler, error) {
	return m.UpsertMany(ctx, records, criteria...)
}
func (m *mockBowlerRepository) DeleteTx(ctx context.Context, tx bun.IDB, record Bowler) error {
	return m.Delete(ctx, record)
}
func (m *mockBowlerRepository) DeleteMany(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	m.trackCall("DeleteMany")
		m.mu.Lock()
	m.bowlers = make(map[string]Bowler)
	m.mu.Unlock()
	return nil
}
func (m *mockBowlerRepository) DeleteManyTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return m.DeleteMany(ctx, criteria...)
}
func (m *mockBowlerRepository) DeleteWhere(ctx context.Context, criteria ...repository.DeleteCriteria) error {
	return m.DeleteMany(ctx, criteria...)
}
func (m *mockBowlerRepository) DeleteWhereTx(ctx context.Context, tx bun.IDB, criteria ...repository.DeleteCriteria) error {
	return m.DeleteWhere(ctx, criteria...)
}
func (m *mockBowlerRepository) ForceDelete(ctx context.Context, record Bowler) error {
	return m.Delete(ctx, record)
}
func (m *mockBowlerRepository) ForceDeleteTx(ctx context.Context, tx bun.IDB, record Bowler) error {
	return m.ForceDelete(ctx, record)
}
func (m *mockBowlerRepository) GetTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (Bowler, error) {
	return m.Get(ctx, criteria...)
}
func (m *mockBowlerRepository) GetByIDTx(ctx context.Context, tx bun.IDB, id string, criteria ...repository.SelectCriteria) (Bowler, error) {
	return m.GetByID(ctx, id, criteria...)
}
func (m *mockBowlerRepository) ListTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) ([]Bowler, int, error) {
	return m.List(ctx, criteria...)
}
func (m *mockBowlerRepository) CountTx(ctx context.Context, tx bun.IDB, criteria ...repository.SelectCriteria) (int, error) {
	return m.Count(ctx, criteria...)
}
func (m *mockBowlerRepository) GetByIdentifierTx(ctx context.Context, tx bun.IDB, identifier string, criteria ...repository.SelectCriteria) (Bowler, error) {
	return m.GetByIdentifier(ctx, identifier, criteria...)
}
func (m *mockBowlerRepository) Raw(ctx context.Context, query string, args ...any) ([]Bowler, error) {
	m.trackCall("Raw")
	return nil, errors.New("raw queries not supported in mock")
}
func (m *mockBowlerRepository) RawTx(ctx context.Context, tx bun.IDB, query string, args ...any) ([]Bowler, error) {
	return m.Raw(ctx, sql, args...)
}
func (m *mockBowlerRepository) Handlers() repository.ModelHandlers[Bowler] {
	return repository.ModelHandlers[Bowler]{}
}

// Interface assertion to ensure mockBowlerRepository implements Repository[Bowler]
var _ repository.Repository[Bowler] = (*mockBowlerRepository)(nil)

func (m *mockBowlerRepository) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = err
}
