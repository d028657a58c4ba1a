// Package memory provides in-memory role and actor repositories for tests
// and single-process development.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/iho/dochub/internal/domain"
	"github.com/iho/dochub/internal/usecase"
)

// Compile-time interface checks.
var (
	_ usecase.TransactionManager = (*Store)(nil)
	_ usecase.RoleRepository     = (*RoleRepository)(nil)
	_ usecase.ActorRepository    = (*ActorRepository)(nil)
)

var errTxDone = errors.New("transaction already finished")

// Store holds roles and actors. Readers see an immutable snapshot of the
// role map; a transaction works on a private copy that replaces the
// snapshot on commit. Transactions are serialized.
type Store struct {
	writeMu sync.Mutex

	mu     sync.RWMutex
	roles  map[string]*domain.Role
	actors map[string]*domain.Actor
}

// New creates an empty store.
func New() *Store {
	return &Store{
		roles:  make(map[string]*domain.Role),
		actors: make(map[string]*domain.Actor),
	}
}

// Begin implements usecase.TransactionManager.
func (s *Store) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.writeMu.Lock()

	s.mu.RLock()
	roles := maps.Clone(s.roles)
	s.mu.RUnlock()

	return &tx{store: s, roles: roles}, nil
}

func (s *Store) snapshot() map[string]*domain.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.roles
}

func (s *Store) roleInUse(roleID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.actors {
		if a.RoleID == roleID {
			return true
		}
	}
	return false
}

type tx struct {
	store *Store
	roles map[string]*domain.Role
	done  bool
}

func (t *tx) Commit(_ context.Context) error {
	if t.done {
		return errTxDone
	}
	t.done = true

	t.store.mu.Lock()
	t.store.roles = t.roles
	t.store.mu.Unlock()

	t.store.writeMu.Unlock()
	return nil
}

func (t *tx) Rollback(_ context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.writeMu.Unlock()
	return nil
}

func asTx(t usecase.Transaction) (*tx, error) {
	mt, ok := t.(*tx)
	if !ok || mt.done {
		return nil, errTxDone
	}
	return mt, nil
}

// RoleRepository implements usecase.RoleRepository over a Store.
type RoleRepository struct {
	store *Store
}

// NewRoleRepository creates a role repository backed by store.
func NewRoleRepository(store *Store) *RoleRepository {
	return &RoleRepository{store: store}
}

func (r *RoleRepository) Create(_ context.Context, t usecase.Transaction, role *domain.Role) error {
	mt, err := asTx(t)
	if err != nil {
		return err
	}
	if nameTaken(mt.roles, role.Name, role.ID) {
		return fmt.Errorf("%w: role name already exists", domain.ErrValidation)
	}
	if _, ok := mt.roles[role.ID]; ok {
		return fmt.Errorf("%w: role id already exists", domain.ErrValidation)
	}
	mt.roles[role.ID] = role.Clone()
	return nil
}

func (r *RoleRepository) Update(_ context.Context, t usecase.Transaction, role *domain.Role) error {
	mt, err := asTx(t)
	if err != nil {
		return err
	}
	existing, ok := mt.roles[role.ID]
	if !ok {
		return domain.ErrRoleNotFound
	}
	if nameTaken(mt.roles, role.Name, role.ID) {
		return fmt.Errorf("%w: role name already exists", domain.ErrValidation)
	}

	updated := existing.Clone()
	updated.Name = role.Name
	updated.Description = role.Description
	updated.IsSuper = role.IsSuper
	updated.UpdatedAt = role.UpdatedAt
	mt.roles[role.ID] = updated
	return nil
}

func (r *RoleRepository) ReplaceScopeRules(_ context.Context, t usecase.Transaction, roleID string, rules []domain.ScopeRule) (int, error) {
	mt, err := asTx(t)
	if err != nil {
		return 0, err
	}
	existing, ok := mt.roles[roleID]
	if !ok {
		return 0, domain.ErrRoleNotFound
	}

	updated := existing.Clone()
	updated.ScopeRules = (&domain.Role{ScopeRules: rules}).Clone().ScopeRules
	mt.roles[roleID] = updated
	return len(rules), nil
}

func (r *RoleRepository) Delete(_ context.Context, t usecase.Transaction, id string) (int64, error) {
	mt, err := asTx(t)
	if err != nil {
		return 0, err
	}
	if _, ok := mt.roles[id]; !ok {
		return 0, nil
	}
	if r.store.roleInUse(id) {
		return 0, fmt.Errorf("%w: role is still assigned to actors", domain.ErrValidation)
	}
	delete(mt.roles, id)
	return 1, nil
}

func (r *RoleRepository) GetByID(_ context.Context, id string) (*domain.Role, error) {
	role, ok := r.store.snapshot()[id]
	if !ok {
		return nil, domain.ErrRoleNotFound
	}
	return role.Clone(), nil
}

func (r *RoleRepository) GetByName(_ context.Context, name string) (*domain.Role, error) {
	for _, role := range r.store.snapshot() {
		if strings.EqualFold(role.Name, name) {
			return role.Clone(), nil
		}
	}
	return nil, domain.ErrRoleNotFound
}

func (r *RoleRepository) List(_ context.Context) ([]*domain.Role, error) {
	roles := r.store.snapshot()
	out := make([]*domain.Role, 0, len(roles))
	for _, role := range roles {
		out = append(out, role.Clone())
	}
	slices.SortFunc(out, func(a, b *domain.Role) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func nameTaken(roles map[string]*domain.Role, name, selfID string) bool {
	for id, role := range roles {
		if id != selfID && strings.EqualFold(role.Name, name) {
			return true
		}
	}
	return false
}

// ActorRepository implements usecase.ActorRepository over a Store.
type ActorRepository struct {
	store *Store
}

// NewActorRepository creates an actor repository backed by store.
func NewActorRepository(store *Store) *ActorRepository {
	return &ActorRepository{store: store}
}

// Create takes the write lock so the role check cannot interleave with a
// transaction deleting that role.
func (r *ActorRepository) Create(_ context.Context, actor *domain.Actor) error {
	r.store.writeMu.Lock()
	defer r.store.writeMu.Unlock()

	if _, ok := r.store.snapshot()[actor.RoleID]; !ok {
		return fmt.Errorf("%w: unknown role %s", domain.ErrValidation, actor.RoleID)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, a := range r.store.actors {
		if strings.EqualFold(a.Username, actor.Username) {
			return fmt.Errorf("%w: actor already exists", domain.ErrValidation)
		}
	}
	cp := *actor
	r.store.actors[actor.ID] = &cp
	return nil
}

func (r *ActorRepository) GetByID(_ context.Context, id string) (*domain.Actor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	a, ok := r.store.actors[id]
	if !ok {
		return nil, domain.ErrActorNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *ActorRepository) GetByUsername(_ context.Context, username string) (*domain.Actor, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, a := range r.store.actors {
		if strings.EqualFold(a.Username, username) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrActorNotFound
}

func (r *ActorRepository) SetLocked(_ context.Context, id string, locked bool, updatedAt time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	a, ok := r.store.actors[id]
	if !ok {
		return domain.ErrActorNotFound
	}
	cp := *a
	cp.IsLocked = locked
	cp.UpdatedAt = updatedAt
	r.store.actors[id] = &cp
	return nil
}

func (r *ActorRepository) List(_ context.Context, limit, offset int) ([]*domain.Actor, error) {
	r.store.mu.RLock()
	out := make([]*domain.Actor, 0, len(r.store.actors))
	for _, a := range r.store.actors {
		cp := *a
		out = append(out, &cp)
	}
	r.store.mu.RUnlock()

	slices.SortFunc(out, func(a, b *domain.Actor) int {
		return strings.Compare(a.Username, b.Username)
	})
	if offset >= len(out) {
		return []*domain.Actor{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}
