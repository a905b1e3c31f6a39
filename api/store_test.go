package api_test

import (
	"context"
	"sync"

	"github.com/adeilh/employee-registry/employee"
)

// memStore is a minimal in-memory employee.Store backing the API tests.
type memStore struct {
	mu        sync.Mutex
	nextID    int64
	employees map[int64]employee.Employee
	contacts  map[int64][]employee.Contact
}

func newMemStore() *memStore {
	return &memStore{
		employees: make(map[int64]employee.Employee),
		contacts:  make(map[int64][]employee.Contact),
	}
}

func (s *memStore) InsertEmployee(_ context.Context, e employee.Employee) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	e.ID = s.nextID
	e.Contacts = nil
	s.employees[e.ID] = e
	return e.ID, nil
}

func (s *memStore) ListEmployees(_ context.Context) ([]employee.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var summaries []employee.Summary
	for id := int64(1); id <= s.nextID; id++ {
		if e, ok := s.employees[id]; ok {
			summaries = append(summaries, employee.Summary{ID: e.ID, Name: e.Name, Email: e.Email})
		}
	}
	return summaries, nil
}

func (s *memStore) GetEmployee(_ context.Context, id int64) (employee.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.employees[id]
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	return e, nil
}

func (s *memStore) UpdateEmployee(_ context.Context, e employee.Employee) error {
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

func (s *memStore) DeleteEmployee(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return employee.ErrNotFound
	}
	delete(s.employees, id)
	return nil
}

func (s *memStore) InsertContacts(_ context.Context, employeeID int64, contacts []employee.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[employeeID] = append(s.contacts[employeeID], contacts...)
	return nil
}

func (s *memStore) ListContacts(_ context.Context, employeeID int64) ([]employee.Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]employee.Contact(nil), s.contacts[employeeID]...), nil
}

func (s *memStore) DeleteContacts(_ context.Context, employeeID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.contacts, employeeID)
	return nil
}
