package employee_test

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/adeilh/employee-registry/cache"
	"github.com/adeilh/employee-registry/cache/memory"
	"github.com/adeilh/employee-registry/employee"
)

func newTestRepository(t *testing.T) (*employee.Repository, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	repo, err := employee.NewRepository(employee.RepositoryConfig{
		Store: store,
		Cache: memory.NewStore(),
	})
	if err != nil {
		t.Fatalf("NewRepository error: %v", err)
	}
	return repo, store
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	repo, _ := newTestRepository(t)
	ctx := context.Background()

	id, err := repo.Create(ctx, employee.Employee{
		Name:  "Ada",
		Email: "ada@x.com",
		Contacts: []employee.Contact{
			{Type: "phone", Value: "555-0100"},
		},
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected first assigned id 1, got %d", id)
	}

	emp, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if emp.ID != 1 || emp.Name != "Ada" || emp.Email != "ada@x.com" {
		t.Fatalf("unexpected employee: %+v", emp)
	}
	if len(emp.Contacts) != 1 || emp.Contacts[0] != (employee.Contact{Type: "phone", Value: "555-0100"}) {
		t.Fatalf("unexpected contacts: %+v", emp.Contacts)
	}
}

func TestGetByIDMissing(t *testing.T) {
	repo, _ := newTestRepository(t)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, employee.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListAllServesSecondCallFromCache(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	mustCreate(t, repo, "Ada", "ada@x.com")
	mustCreate(t, repo, "Grace", "grace@x.com")

	first, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("first ListAll error: %v", err)
	}
	second, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("second ListAll error: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("list projections differ: %v vs %v", first, second)
	}
	if calls := store.listCalls(); calls != 1 {
		t.Fatalf("expected one store list query, got %d", calls)
	}
}

func TestListAllEmptyStore(t *testing.T) {
	repo, _ := newTestRepository(t)

	summaries, err := repo.ListAll(context.Background())
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if summaries == nil || len(summaries) != 0 {
		t.Fatalf("expected empty non-nil projection, got %#v", summaries)
	}
}

func TestUpdateInvalidatesListCache(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	id := mustCreate(t, repo, "Ada", "ada@x.com")
	if _, err := repo.ListAll(ctx); err != nil {
		t.Fatalf("ListAll error: %v", err)
	}

	err := repo.Update(ctx, id, employee.Employee{
		Name:     "Ada Lovelace",
		Email:    "ada@x.com",
		Contacts: []employee.Contact{{Type: "address", Value: "12 Analytical Row"}},
	})
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}

	summaries, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll after update error: %v", err)
	}
	if len(summaries) != 1 || summaries[0].Name != "Ada Lovelace" {
		t.Fatalf("stale projection after update: %+v", summaries)
	}
	if calls := store.listCalls(); calls != 2 {
		t.Fatalf("expected cache repopulation from store, got %d list queries", calls)
	}

	emp, err := repo.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if len(emp.Contacts) != 1 || emp.Contacts[0].Type != "address" {
		t.Fatalf("contact set was not replaced: %+v", emp.Contacts)
	}
}

func TestUpdateMissingEmployee(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	mustCreate(t, repo, "Ada", "ada@x.com")
	if _, err := repo.ListAll(ctx); err != nil {
		t.Fatalf("ListAll error: %v", err)
	}

	err := repo.Update(ctx, 999, employee.Employee{Name: "Ghost", Email: "ghost@x.com"})
	if !errors.Is(err, employee.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// A failed update must not invalidate the cached projection.
	if _, err := repo.ListAll(ctx); err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if calls := store.listCalls(); calls != 1 {
		t.Fatalf("cache was invalidated by a not-found update: %d list queries", calls)
	}
}

func TestDeleteRemovesEmployeeAndInvalidates(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	id := mustCreate(t, repo, "Ada", "ada@x.com")
	keep := mustCreate(t, repo, "Grace", "grace@x.com")
	if _, err := repo.ListAll(ctx); err != nil {
		t.Fatalf("ListAll error: %v", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := repo.GetByID(ctx, id); !errors.Is(err, employee.ErrNotFound) {
		t.Fatalf("expected deleted employee to be gone, got %v", err)
	}
	if contacts := store.contactCount(id); contacts != 0 {
		t.Fatalf("expected contacts to be deleted with the employee, got %d", contacts)
	}

	summaries, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll after delete error: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != keep {
		t.Fatalf("stale projection after delete: %+v", summaries)
	}
}

func TestDeleteMissingEmployee(t *testing.T) {
	repo, _ := newTestRepository(t)

	if err := repo.Delete(context.Background(), 999); !errors.Is(err, employee.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidationRejectsBeforeStore(t *testing.T) {
	repo, store := newTestRepository(t)
	ctx := context.Background()

	cases := []employee.Employee{
		{Email: "ada@x.com"},
		{Name: "Ada"},
		{Name: "Ada", Email: "not-an-email"},
		{Name: "Ada", Email: "ada@x.com", Contacts: []employee.Contact{{Type: "phone"}}},
	}
	for _, emp := range cases {
		if _, err := repo.Create(ctx, emp); !errors.Is(err, employee.ErrInvalid) {
			t.Fatalf("expected ErrInvalid for %+v, got %v", emp, err)
		}
	}
	if n := store.insertCalls(); n != 0 {
		t.Fatalf("store was touched by invalid input: %d inserts", n)
	}
}

func TestListAllFailsOpenWhenCacheUnavailable(t *testing.T) {
	store := newFakeStore()
	repo, err := employee.NewRepository(employee.RepositoryConfig{
		Store: store,
		Cache: unavailableCache{},
	})
	if err != nil {
		t.Fatalf("NewRepository error: %v", err)
	}
	ctx := context.Background()

	id := mustCreate(t, repo, "Ada", "ada@x.com")

	for i := 0; i < 2; i++ {
		summaries, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("ListAll should degrade to the store, got %v", err)
		}
		if len(summaries) != 1 || summaries[0].ID != id {
			t.Fatalf("unexpected projection: %+v", summaries)
		}
	}
	if calls := store.listCalls(); calls != 2 {
		t.Fatalf("expected every read to hit the store, got %d", calls)
	}
}

func TestWriteSucceedsWhenInvalidationFails(t *testing.T) {
	store := newFakeStore()
	repo, err := employee.NewRepository(employee.RepositoryConfig{
		Store: store,
		Cache: unavailableCache{},
	})
	if err != nil {
		t.Fatalf("NewRepository error: %v", err)
	}

	if _, err := repo.Create(context.Background(), employee.Employee{Name: "Ada", Email: "ada@x.com"}); err != nil {
		t.Fatalf("Create must not fail on cache invalidation errors, got %v", err)
	}
}

func TestListAllDiscardsMalformedCacheEntry(t *testing.T) {
	store := newFakeStore()
	listCache := memory.NewStore()
	repo, err := employee.NewRepository(employee.RepositoryConfig{
		Store: store,
		Cache: listCache,
	})
	if err != nil {
		t.Fatalf("NewRepository error: %v", err)
	}
	ctx := context.Background()

	id := mustCreate(t, repo, "Ada", "ada@x.com")
	if err := listCache.Set(ctx, employee.ListCacheKey, []byte("{not json"), 0); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	summaries, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll error: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != id {
		t.Fatalf("unexpected projection: %+v", summaries)
	}
}

func mustCreate(t *testing.T, repo *employee.Repository, name, email string) int64 {
	t.Helper()
	id, err := repo.Create(context.Background(), employee.Employee{Name: name, Email: email})
	if err != nil {
		t.Fatalf("Create(%s) error: %v", name, err)
	}
	return id
}

// fakeStore is an in-memory employee.Store that counts queries so tests
// can assert whether reads were served from the cache.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int64
	employees map[int64]employee.Employee
	contacts  map[int64][]employee.Contact
	lists     int
	inserts   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		employees: make(map[int64]employee.Employee),
		contacts:  make(map[int64][]employee.Contact),
	}
}

func (s *fakeStore) listCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lists
}

func (s *fakeStore) insertCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}

func (s *fakeStore) contactCount(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.contacts[id])
}

func (s *fakeStore) InsertEmployee(_ context.Context, e employee.Employee) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inserts++
	s.nextID++
	e.ID = s.nextID
	e.Contacts = nil
	s.employees[e.ID] = e
	return e.ID, nil
}

func (s *fakeStore) ListEmployees(_ context.Context) ([]employee.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	var summaries []employee.Summary
	for id := int64(1); id <= s.nextID; id++ {
		if e, ok := s.employees[id]; ok {
			summaries = append(summaries, employee.Summary{ID: e.ID, Name: e.Name, Email: e.Email})
		}
	}
	return summaries, nil
}

func (s *fakeStore) GetEmployee(_ context.Context, id int64) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	return e, nil
}

func (s *fakeStore) UpdateEmployee(_ context.Context, e employee.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.employees[e.ID]
	if !ok {
		return employee.ErrNotFound
	}
	existing.Name = e.Name
	existing.Email = e.Email
	s.employees[e.ID] = existing
	return nil
}

func (s *fakeStore) DeleteEmployee(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return employee.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}

func (s *fakeStore) InsertContacts(_ context.Context, employeeID int64, contacts []employee.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[employeeID] = append(s.contacts[employeeID], contacts...)
	return nil
}

func (s *fakeStore) ListContacts(_ context.Context, employeeID int64) ([]employee.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]employee.Contact(nil), s.contacts[employeeID]...), nil
}

func (s *fakeStore) DeleteContacts(_ context.Context, employeeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contacts, employeeID)
	return nil
}

// unavailableCache simulates a cache whose transport is down.
type unavailableCache struct{}

var errCacheDown = errors.New("cache transport down")

func (unavailableCache) Get(context.Context, string) ([]byte, error) { return nil, errCacheDown }
func (unavailableCache) Set(context.Context, string, []byte, time.Duration) error {
	return errCacheDown
}
func (unavailableCache) Delete(context.Context, string) error { return errCacheDown }

var _ cache.Store = unavailableCache{}
var _ employee.Store = (*fakeStore)(nil)
