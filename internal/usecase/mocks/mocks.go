package mocks

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// MockRoleRepository is a mock implementation of RoleRepository.
type MockRoleRepository struct {
	mu    sync.RWMutex
	roles map[string]*domain.Role

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, role *domain.Role) error
	UpdateFunc            func(ctx context.Context, tx usecase.Transaction, role *domain.Role) error
	ReplaceScopeRulesFunc func(ctx context.Context, tx usecase.Transaction, roleID string, rules []domain.ScopeRule) (int, error)
	DeleteFunc            func(ctx context.Context, tx usecase.Transaction, id string) (int64, error)
	GetByIDFunc           func(ctx context.Context, id string) (*domain.Role, error)
	GetByNameFunc         func(ctx context.Context, name string) (*domain.Role, error)
	ListFunc              func(ctx context.Context) ([]*domain.Role, error)
}

func NewMockRoleRepository(roles ...*domain.Role) *MockRoleRepository {
	m := &MockRoleRepository{
		roles: make(map[string]*domain.Role),
	}
	for _, r := range roles {
		m.roles[r.ID] = r.Clone()
	}
	return m
}

func (m *MockRoleRepository) Create(ctx context.Context, tx usecase.Transaction, role *domain.Role) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[role.ID] = role.Clone()
	return nil
}

func (m *MockRoleRepository) Update(ctx context.Context, tx usecase.Transaction, role *domain.Role) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, tx, role)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.roles[role.ID]
	if !ok {
		return domain.ErrRoleNotFound
	}
	updated := role.Clone()
	updated.ScopeRules = existing.ScopeRules
	m.roles[role.ID] = updated
	return nil
}

func (m *MockRoleRepository) ReplaceScopeRules(ctx context.Context, tx usecase.Transaction, roleID string, rules []domain.ScopeRule) (int, error) {
	if m.ReplaceScopeRulesFunc != nil {
		return m.ReplaceScopeRulesFunc(ctx, tx, roleID, rules)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[roleID]
	if !ok {
		return 0, domain.ErrRoleNotFound
	}
	role.ScopeRules = (&domain.Role{ScopeRules: rules}).Clone().ScopeRules
	return len(rules), nil
}

func (m *MockRoleRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) (int64, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.roles[id]; !ok {
		return 0, nil
	}
	delete(m.roles, id)
	return 1, nil
}

func (m *MockRoleRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if role, ok := m.roles[id]; ok {
		return role.Clone(), nil
	}
	return nil, domain.ErrRoleNotFound
}

func (m *MockRoleRepository) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, name)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, role := range m.roles {
		if strings.EqualFold(role.Name, name) {
			return role.Clone(), nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (m *MockRoleRepository) List(ctx context.Context) ([]*domain.Role, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	roles := make([]*domain.Role, 0, len(m.roles))
	for _, role := range m.roles {
		roles = append(roles, role.Clone())
	}
	return roles, nil
}

// MockActorRepository is a mock implementation of ActorRepository.
type MockActorRepository struct {
	mu     sync.RWMutex
	actors map[string]*domain.Actor

	CreateFunc        func(ctx context.Context, actor *domain.Actor) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.Actor, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.Actor, error)
	SetLockedFunc     func(ctx context.Context, id string, locked bool, updatedAt time.Time) error
	ListFunc          func(ctx context.Context, limit, offset int) ([]*domain.Actor, error)
}

func NewMockActorRepository(actors ...*domain.Actor) *MockActorRepository {
	m := &MockActorRepository{
		actors: make(map[string]*domain.Actor),
	}
	for _, a := range actors {
		cp := *a
		m.actors[a.ID] = &cp
	}
	return m
}

func (m *MockActorRepository) Create(ctx context.Context, actor *domain.Actor) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, actor)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *actor
	m.actors[actor.ID] = &cp
	return nil
}

func (m *MockActorRepository) GetByID(ctx context.Context, id string) (*domain.Actor, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if actor, ok := m.actors[id]; ok {
		cp := *actor
		return &cp, nil
	}
	return nil, domain.ErrActorNotFound
}

func (m *MockActorRepository) GetByUsername(ctx context.Context, username string) (*domain.Actor, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, actor := range m.actors {
		if strings.EqualFold(actor.Username, username) {
			cp := *actor
			return &cp, nil
		}
	}
	return nil, domain.ErrActorNotFound
}

func (m *MockActorRepository) SetLocked(ctx context.Context, id string, locked bool, updatedAt time.Time) error {
	if m.SetLockedFunc != nil {
		return m.SetLockedFunc(ctx, id, locked, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	actor, ok := m.actors[id]
	if !ok {
		return domain.ErrActorNotFound
	}
	actor.IsLocked = locked
	actor.UpdatedAt = updatedAt
	return nil
}

func (m *MockActorRepository) List(ctx context.Context, limit, offset int) ([]*domain.Actor, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	actors := make([]*domain.Actor, 0, len(m.actors))
	for _, actor := range m.actors {
		cp := *actor
		actors = append(actors, &cp)
	}
	return actors, nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	return nil
}

// MockRetrier runs the operation once, or RetryFunc when set.
type MockRetrier struct {
	RetryFunc func(ctx context.Context, operation func() error) error
}

func (m *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	if m.RetryFunc != nil {
		return m.RetryFunc(ctx, operation)
	}
	return operation()
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	GenerateFunc func() string
	counter      int
	mu           sync.Mutex
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
	m.counter++
	return fmt.Sprintf("mock-id-%d", m.counter)
}

// MockRoleCache is a map-backed RoleCache that records invalidations.
type MockRoleCache struct {
	mu          sync.Mutex
	roles       map[string]*domain.Role
	gens        map[string]uint64
	Invalidated []string
	StaleSets   int
}

func NewMockRoleCache() *MockRoleCache {
	return &MockRoleCache{roles: make(map[string]*domain.Role), gens: make(map[string]uint64)}
}

func (m *MockRoleCache) Get(_ context.Context, roleID string) (*domain.Role, uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	role, ok := m.roles[roleID]
	return role, m.gens[roleID], ok
}

func (m *MockRoleCache) Set(_ context.Context, role *domain.Role, fill uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gens[role.ID] != fill {
		m.StaleSets++
		return
	}
	m.roles[role.ID] = role
}

func (m *MockRoleCache) Invalidate(_ context.Context, roleID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.roles, roleID)
	m.gens[roleID]++
	m.Invalidated = append(m.Invalidated, roleID)
}

// MockAuditor records audit entries in memory.
type MockAuditor struct {
	mu      sync.Mutex
	Entries []*domain.AuditLog
}

func (m *MockAuditor) Audit(ctx context.Context, operation string, opts ...usecase.AuditOption) {
	entry := usecase.NewAuditLog(ctx, operation, opts...)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
}

// Operations returns the recorded operations in order.
func (m *MockAuditor) Operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ops := make([]string, len(m.Entries))
	for i, e := range m.Entries {
		ops[i] = e.Operation
	}
	return ops
}

// MockIdempotencyStore is a mock implementation of IdempotencyStore.
type MockIdempotencyStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CheckAndSetFunc func(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	UpdateFunc      func(ctx context.Context, key string, response []byte, ttl time.Duration) error
	ReleaseFunc     func(ctx context.Context, key string) error
}

func NewMockIdempotencyStore() *MockIdempotencyStore {
	return &MockIdempotencyStore{
		data: make(map[string][]byte),
	}
}

func (m *MockIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	if m.CheckAndSetFunc != nil {
		return m.CheckAndSetFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.data[key]; ok {
		return true, existing, nil
	}
	if response != nil {
		m.data[key] = response
	} else {
		m.data[key] = []byte(usecase.IdempotencyInFlight)
	}
	return false, nil, nil
}

func (m *MockIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, key, response, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = response
	return nil
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	if m.ReleaseFunc != nil {
		return m.ReleaseFunc(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
