package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"udyam/internal/registration/models"
	"udyam/pkg/platform/sentinel"
)

// IDGenerator supplies fresh identifiers for new records.
type IDGenerator interface {
	SubmissionID() string
	RegistrationNumber() string
}

// maxGenerateAttempts bounds regeneration when a generated identifier is
// already taken in this process.
const maxGenerateAttempts = 8

// InMemorySubmissionStore is the append-only submission collection. Records
// are kept in insertion order and indexed by id and registration number.
// Nothing is persisted; the contents live as long as the process.
type InMemorySubmissionStore struct {
	mu       sync.RWMutex
	records  []models.SubmissionRecord
	byID     map[string]int
	byRegNum map[string]int

	ids IDGenerator
	now func() time.Time
}

type Option func(*InMemorySubmissionStore)

// WithClock overrides the clock used for SubmittedAt.
func WithClock(now func() time.Time) Option {
	return func(s *InMemorySubmissionStore) {
		s.now = now
	}
}

// NewInMemorySubmissionStore creates an empty store.
func NewInMemorySubmissionStore(ids IDGenerator, opts ...Option) *InMemorySubmissionStore {
	s := &InMemorySubmissionStore{
		byID:     make(map[string]int),
		byRegNum: make(map[string]int),
		ids:      ids,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stamps form with fresh identifiers, the current time and the
// pending status, appends it and returns a copy of the stored record.
func (s *InMemorySubmissionStore) Create(_ context.Context, form models.ValidatedForm) (*models.SubmissionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.uniqueID()
	if !ok {
		return nil, fmt.Errorf("generate submission id: %w", sentinel.ErrConflict)
	}
	regNum, ok := s.uniqueRegistrationNumber()
	if !ok {
		return nil, fmt.Errorf("generate registration number: %w", sentinel.ErrConflict)
	}

	record := models.SubmissionRecord{
		ValidatedForm:      form,
		ID:                 id,
		RegistrationNumber: regNum,
		SubmittedAt:        s.now().UTC(),
		Status:             models.StatusPending,
	}

	s.records = append(s.records, record)
	idx := len(s.records) - 1
	s.byID[id] = idx
	s.byRegNum[regNum] = idx

	out := record
	return &out, nil
}

// FindByID returns a copy of the record with the given id.
func (s *InMemorySubmissionStore) FindByID(_ context.Context, id string) (*models.SubmissionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	out := s.records[idx]
	return &out, true
}

// FindByRegistrationNumber returns a copy of the record with the given code.
func (s *InMemorySubmissionStore) FindByRegistrationNumber(_ context.Context, regNum string) (*models.SubmissionRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.byRegNum[regNum]
	if !ok {
		return nil, false
	}
	out := s.records[idx]
	return &out, true
}

// ListAll returns every record in insertion order. The slice is a snapshot
// and may be modified by the caller.
func (s *InMemorySubmissionStore) ListAll(_ context.Context) []models.SubmissionRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SubmissionRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Stats counts records by status under a single read lock, so the total
// always equals the sum of the per-status counts.
func (s *InMemorySubmissionStore) Stats(_ context.Context) models.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st models.Stats
	for i := range s.records {
		switch s.records[i].Status {
		case models.StatusPending:
			st.Pending++
		case models.StatusApproved:
			st.Approved++
		case models.StatusRejected:
			st.Rejected++
		}
	}
	st.Total = st.Pending + st.Approved + st.Rejected
	return st
}

// Reset drops every record. Intended for tests.
func (s *InMemorySubmissionStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.byID = make(map[string]int)
	s.byRegNum = make(map[string]int)
}

// uniqueID must be called while holding s.mu.
func (s *InMemorySubmissionStore) uniqueID() (string, bool) {
	for range maxGenerateAttempts {
		id := s.ids.SubmissionID()
		if _, taken := s.byID[id]; !taken {
			return id, true
		}
	}
	return "", false
}

// uniqueRegistrationNumber must be called while holding s.mu.
func (s *InMemorySubmissionStore) uniqueRegistrationNumber() (string, bool) {
	for range maxGenerateAttempts {
		regNum := s.ids.RegistrationNumber()
		if _, taken := s.byRegNum[regNum]; !taken {
			return regNum, true
		}
	}
	return "", false
}
