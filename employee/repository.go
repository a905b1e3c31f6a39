package employee

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adeilh/employee-registry/cache"
)

// ListCacheKey is the single cache key holding the serialized list
// projection. Point lookups never touch the cache.
const ListCacheKey = "employees"

// DefaultListTTL bounds staleness of the cached list projection.
const DefaultListTTL = 300 * time.Second

// Repository composes a persistence Store with a TTL cache and implements
// the cache-aside protocol: reads of the full list go through the cache,
// every mutation invalidates it, and point lookups bypass it entirely.
//
// Cache failures are fail-open: an unreachable cache degrades reads to
// direct store queries and never turns a completed write into an error.
type Repository struct {
	store Store
	cache cache.Store
	ttl   time.Duration
	log   *slog.Logger
}

// RepositoryConfig wires dependencies for Repository.
type RepositoryConfig struct {
	Store  Store
	Cache  cache.Store
	TTL    time.Duration // defaults to DefaultListTTL
	Logger *slog.Logger  // defaults to slog.Default()
}

func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if cfg.Store == nil || cfg.Cache == nil {
		return nil, errors.New("employee: repository needs both a store and a cache")
	}
	repo := &Repository{
		store: cfg.Store,
		cache: cfg.Cache,
		ttl:   cfg.TTL,
		log:   cfg.Logger,
	}
	if repo.ttl <= 0 {
		repo.ttl = DefaultListTTL
	}
	if repo.log == nil {
		repo.log = slog.Default()
	}
	return repo, nil
}

// ListAll returns the {id, name, email} projection of every employee.
// On a cache hit the store is not touched. On a miss the projection is
// queried from the store and written back with the configured TTL.
// Concurrent misses each repopulate the key; the overwrite is idempotent.
func (r *Repository) ListAll(ctx context.Context) ([]Summary, error) {
	payload, err := r.cache.Get(ctx, ListCacheKey)
	switch {
	case err == nil:
		var summaries []Summary
		if jsonErr := json.Unmarshal(payload, &summaries); jsonErr == nil {
			return summaries, nil
		}
		// Undecodable entry: treat as a miss and let the store rebuild it.
		r.log.Warn("discarding malformed list cache entry", "key", ListCacheKey)
	case errors.Is(err, cache.ErrNotFound):
	default:
		r.log.Warn("cache read failed, serving from store", "key", ListCacheKey, "error", err)
	}

	summaries, err := r.store.ListEmployees(ctx)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	if summaries == nil {
		summaries = []Summary{}
	}

	payload, err = json.Marshal(summaries)
	if err != nil {
		return nil, fmt.Errorf("encode list projection: %w", err)
	}
	if err := r.cache.Set(ctx, ListCacheKey, payload, r.ttl); err != nil {
		r.log.Warn("cache write failed", "key", ListCacheKey, "error", err)
	}
	return summaries, nil
}

// GetByID composes an employee with its contacts. Returns ErrNotFound when
// the id does not exist. The cache is never consulted.
func (r *Repository) GetByID(ctx context.Context, id int64) (Employee, error) {
	emp, err := r.store.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Employee{}, ErrNotFound
		}
		return Employee{}, fmt.Errorf("get employee %d: %w", id, err)
	}
	contacts, err := r.store.ListContacts(ctx, id)
	if err != nil {
		return Employee{}, fmt.Errorf("list contacts for employee %d: %w", id, err)
	}
	emp.Contacts = contacts
	return emp, nil
}

// Create inserts the employee row, then its contacts keyed by the assigned
// id, then invalidates the list cache. The contact inserts only run once
// the employee row is durably in place.
func (r *Repository) Create(ctx context.Context, emp Employee) (int64, error) {
	if err := emp.Validate(); err != nil {
		return 0, err
	}
	id, err := r.store.InsertEmployee(ctx, emp)
	if err != nil {
		return 0, fmt.Errorf("insert employee: %w", err)
	}
	if err := r.store.InsertContacts(ctx, id, emp.Contacts); err != nil {
		return 0, fmt.Errorf("insert contacts for employee %d: %w", id, err)
	}
	r.invalidate(ctx)
	return id, nil
}

// Update replaces the employee row's fields and the full contact set.
// A nonexistent id reports ErrNotFound; contacts and cache are left
// untouched in that case.
func (r *Repository) Update(ctx context.Context, id int64, emp Employee) error {
	if err := emp.Validate(); err != nil {
		return err
	}
	emp.ID = id
	if err := r.store.UpdateEmployee(ctx, emp); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("update employee %d: %w", id, err)
	}
	if err := r.store.DeleteContacts(ctx, id); err != nil {
		return fmt.Errorf("clear contacts for employee %d: %w", id, err)
	}
	if err := r.store.InsertContacts(ctx, id, emp.Contacts); err != nil {
		return fmt.Errorf("insert contacts for employee %d: %w", id, err)
	}
	r.invalidate(ctx)
	return nil
}

// Delete removes the contact rows, then the employee row, then invalidates
// the list cache. A nonexistent id reports ErrNotFound.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.store.DeleteContacts(ctx, id); err != nil {
		return fmt.Errorf("delete contacts for employee %d: %w", id, err)
	}
	if err := r.store.DeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete employee %d: %w", id, err)
	}
	r.invalidate(ctx)
	return nil
}

// invalidate drops the list key. Deleting an absent key is success, and a
// transport failure is logged rather than surfaced: the write already
// happened, and a stale entry expires within the TTL window anyway.
func (r *Repository) invalidate(ctx context.Context) {
	err := r.cache.Delete(ctx, ListCacheKey)
	if err != nil && !errors.Is(err, cache.ErrNotFound) {
		r.log.Warn("cache invalidation failed", "key", ListCacheKey, "error", err)
	}
}
