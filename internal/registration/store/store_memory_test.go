package store

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"udyam/internal/registration/idgen"
	"udyam/internal/registration/models"
	"udyam/pkg/platform/sentinel"
)

func testForm() models.ValidatedForm {
	return models.ValidatedForm{
		Aadhaar:           "123456789012",
		Name:              "John Doe",
		Mobile:            "9876543210",
		Email:             "john.doe@example.com",
		OTP:               "123456",
		PAN:               "ABCDE1234F",
		PANName:           "John Doe",
		OrgType:           models.OrgTypeProprietorship,
		IncorporationDate: time.Date(2020, 1, 15, 0, 0, 0, 0, time.UTC),
	}
}

type InMemorySubmissionStoreSuite struct {
	suite.Suite
	store *InMemorySubmissionStore
	ctx   context.Context
	now   time.Time
}

func TestInMemorySubmissionStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemorySubmissionStoreSuite))
}

func (s *InMemorySubmissionStoreSuite) SetupTest() {
	s.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s.store = NewInMemorySubmissionStore(idgen.New(), WithClock(func() time.Time { return s.now }))
	s.ctx = context.Background()
}

func (s *InMemorySubmissionStoreSuite) TestCreate() {
	s.Run("stamps identifiers, time and pending status", func() {
		rec, err := s.store.Create(s.ctx, testForm())
		s.Require().NoError(err)
		s.Regexp(`^sub_\d+_[a-z0-9]{9}$`, rec.ID)
		s.Regexp(`^UDYAM-\d{8}-[A-Z0-9]{4}$`, rec.RegistrationNumber)
		s.Equal(s.now, rec.SubmittedAt)
		s.Equal(models.StatusPending, rec.Status)
		s.Equal(testForm(), rec.ValidatedForm)
	})

	s.Run("find by id returns an equal record", func() {
		rec, err := s.store.Create(s.ctx, testForm())
		s.Require().NoError(err)

		found, ok := s.store.FindByID(s.ctx, rec.ID)
		s.Require().True(ok)
		s.Equal(rec, found)
	})

	s.Run("find by registration number returns an equal record", func() {
		rec, err := s.store.Create(s.ctx, testForm())
		s.Require().NoError(err)

		found, ok := s.store.FindByRegistrationNumber(s.ctx, rec.RegistrationNumber)
		s.Require().True(ok)
		s.Equal(rec, found)
	})

	s.Run("returned record is a copy", func() {
		rec, err := s.store.Create(s.ctx, testForm())
		s.Require().NoError(err)
		rec.Status = models.StatusApproved
		rec.Name = "Mallory"

		found, ok := s.store.FindByID(s.ctx, rec.ID)
		s.Require().True(ok)
		s.Equal(models.StatusPending, found.Status)
		s.Equal("John Doe", found.Name)
	})
}

func (s *InMemorySubmissionStoreSuite) TestFindMissing() {
	rec, ok := s.store.FindByID(s.ctx, "non-existent-id")
	s.False(ok)
	s.Nil(rec)

	rec, ok = s.store.FindByRegistrationNumber(s.ctx, "UDYAM-00000000-0000")
	s.False(ok)
	s.Nil(rec)
}

func (s *InMemorySubmissionStoreSuite) TestDistinctIdentifiers() {
	const n = 50
	ids := make(map[string]struct{}, n)
	regs := make(map[string]struct{}, n)
	for range n {
		rec, err := s.store.Create(s.ctx, testForm())
		s.Require().NoError(err)
		ids[rec.ID] = struct{}{}
		regs[rec.RegistrationNumber] = struct{}{}
	}
	s.Len(ids, n)
	s.Len(regs, n)
}

func (s *InMemorySubmissionStoreSuite) TestListAllPreservesInsertionOrder() {
	var created []string
	for i := range 5 {
		form := testForm()
		form.Name = fmt.Sprintf("Applicant %d", i)
		rec, err := s.store.Create(s.ctx, form)
		s.Require().NoError(err)
		created = append(created, rec.ID)
	}

	all := s.store.ListAll(s.ctx)
	s.Require().Len(all, 5)
	for i, rec := range all {
		s.Equal(created[i], rec.ID)
		s.Equal(fmt.Sprintf("Applicant %d", i), rec.Name)
	}

	all[0].Name = "changed"
	s.Equal("Applicant 0", s.store.ListAll(s.ctx)[0].Name)
}

func (s *InMemorySubmissionStoreSuite) TestStats() {
	s.Equal(models.Stats{}, s.store.Stats(s.ctx))

	for range 3 {
		_, err := s.store.Create(s.ctx, testForm())
		s.Require().NoError(err)
	}
	st := s.store.Stats(s.ctx)
	s.Equal(3, st.Total)
	s.Equal(3, st.Pending)
	s.Equal(st.Total, st.Pending+st.Approved+st.Rejected)
}

func (s *InMemorySubmissionStoreSuite) TestReset() {
	rec, err := s.store.Create(s.ctx, testForm())
	s.Require().NoError(err)

	s.store.Reset()

	s.Empty(s.store.ListAll(s.ctx))
	_, ok := s.store.FindByID(s.ctx, rec.ID)
	s.False(ok)
}

func (s *InMemorySubmissionStoreSuite) TestConcurrentCreates() {
	const workers, perWorker = 8, 25
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				_, err := s.store.Create(s.ctx, testForm())
				s.NoError(err)
			}
		}()
	}

	// Readers run alongside the writers and must always see a consistent total.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range 100 {
			st := s.store.Stats(s.ctx)
			s.Equal(st.Total, st.Pending+st.Approved+st.Rejected)
			_ = s.store.ListAll(s.ctx)
		}
	}()

	wg.Wait()
	<-done

	all := s.store.ListAll(s.ctx)
	s.Len(all, workers*perWorker)
	ids := make(map[string]struct{}, len(all))
	for _, rec := range all {
		ids[rec.ID] = struct{}{}
		found, ok := s.store.FindByID(s.ctx, rec.ID)
		s.Require().True(ok)
		s.Equal(rec.RegistrationNumber, found.RegistrationNumber)
	}
	s.Len(ids, workers*perWorker)
}

type fixedIDs struct{}

func (fixedIDs) SubmissionID() string       { return "sub_1_aaaaaaaaa" }
func (fixedIDs) RegistrationNumber() string { return "UDYAM-00000001-AAAA" }

func TestCreateRejectsExhaustedIdentifiers(t *testing.T) {
	st := NewInMemorySubmissionStore(fixedIDs{})
	ctx := context.Background()

	_, err := st.Create(ctx, testForm())
	require.NoError(t, err)

	_, err = st.Create(ctx, testForm())
	require.ErrorIs(t, err, sentinel.ErrConflict)
	require.Len(t, st.ListAll(ctx), 1)
}
