package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casedesk/internal/contract/models"
	"casedesk/internal/contract/ports"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/requestcontext"
)

type InMemorySuite struct {
	suite.Suite
	store *InMemory
	tx    *InMemoryTx
	ctx   context.Context
	now   time.Time
}

func TestInMemorySuite(t *testing.T) {
	suite.Run(t, new(InMemorySuite))
}

func (s *InMemorySuite) SetupTest() {
	s.store = NewInMemory()
	s.tx = NewInMemoryTx(s.store)
	s.now = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *InMemorySuite) createCase(snils string) int64 {
	cols := map[string]any{"last_name": "Ivanov", "first_name": "Ivan"}
	if snils != "" {
		cols["snils"] = snils
	}
	id, err := s.store.CreateCase(s.ctx, cols)
	s.Require().NoError(err)
	return id
}

func (s *InMemorySuite) TestCases() {
	s.Run("create assigns ids and system columns", func() {
		first := s.createCase("")
		second := s.createCase("")
		s.Equal(first+1, second)

		row, err := s.store.LoadCase(s.ctx, first)
		s.Require().NoError(err)
		s.Equal(int64(1), row.Version())
		s.Equal(s.now, row.Get("created_at"))
		s.Equal("Ivanov", row.Get("last_name"))
	})

	s.Run("save merges columns", func() {
		id := s.createCase("")
		s.Require().NoError(s.store.SaveCase(s.ctx, id, map[string]any{"middle_name": "Petrovich", "version": int64(2)}))

		row, err := s.store.LoadCaseForUpdate(s.ctx, id)
		s.Require().NoError(err)
		s.Equal("Petrovich", row.Get("middle_name"))
		s.Equal("Ivanov", row.Get("last_name"))
		s.Equal(int64(2), row.Version())
	})

	s.Run("loaded rows are copies", func() {
		id := s.createCase("")
		row, err := s.store.LoadCase(s.ctx, id)
		s.Require().NoError(err)
		row.Columns["last_name"] = "mutated"

		again, err := s.store.LoadCase(s.ctx, id)
		s.Require().NoError(err)
		s.Equal("Ivanov", again.Get("last_name"))
	})

	s.Run("missing case", func() {
		_, err := s.store.LoadCase(s.ctx, 999)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.ErrorIs(s.store.SaveCase(s.ctx, 999, map[string]any{"phone": "1"}), sentinel.ErrNotFound)
	})

	s.Run("unknown column is rejected", func() {
		_, err := s.store.CreateCase(s.ctx, map[string]any{"shoe_size": int64(44)})
		s.Error(err)
	})
}

func (s *InMemorySuite) TestSNILSUniqueness() {
	owner := s.createCase("11223344595")

	_, err := s.store.CreateCase(s.ctx, map[string]any{"last_name": "Petrov", "first_name": "Petr", "snils": "11223344595"})
	s.ErrorIs(err, sentinel.ErrConflict)

	other := s.createCase("")
	s.ErrorIs(s.store.SaveCase(s.ctx, other, map[string]any{"snils": "11223344595"}), sentinel.ErrConflict)
	s.NoError(s.store.SaveCase(s.ctx, owner, map[string]any{"snils": "11223344595"}), "owner may rewrite its own value")

	found, err := s.store.FindCaseIDBySNILS(s.ctx, "11223344595")
	s.Require().NoError(err)
	s.Equal(owner, found)

	_, err = s.store.FindCaseIDBySNILS(s.ctx, "12345678964")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *InMemorySuite) TestClaims() {
	id := s.createCase("")

	s.Require().NoError(s.store.UpsertClaim(s.ctx, models.NewZeroClaim(id, 5)))
	s.Require().NoError(s.store.UpsertClaim(s.ctx, models.NewZeroClaim(id, 6)))

	later := requestcontext.WithTime(s.ctx, s.now.Add(time.Hour))
	updated := models.NewZeroClaim(id, 5)
	updated.Set("principal", "100.50")
	s.Require().NoError(s.store.UpsertClaim(later, updated))

	claims, err := s.store.LoadClaims(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(claims, 2)
	s.Equal(int64(5), claims[0].CreditorID, "attachment order survives updates")
	s.Equal("100.50", *claims[0].Principal)
	s.Equal(s.now, claims[0].CreatedAt)
	s.Equal(s.now.Add(time.Hour), claims[0].UpdatedAt)

	s.Require().NoError(s.store.DeleteClaim(s.ctx, id, 5))
	s.Require().NoError(s.store.DeleteClaim(s.ctx, id, 5), "deleting twice is a no-op")
	claims, err = s.store.LoadClaims(s.ctx, id)
	s.Require().NoError(err)
	s.Require().Len(claims, 1)
	s.Equal(int64(6), claims[0].CreditorID)

	s.ErrorIs(s.store.UpsertClaim(s.ctx, models.NewZeroClaim(999, 5)), sentinel.ErrNotFound)

	s.store.DeleteCreditorClaims(6)
	claims, err = s.store.LoadClaims(s.ctx, id)
	s.Require().NoError(err)
	s.Empty(claims)
}

func (s *InMemorySuite) TestTxRollsBackOnError() {
	id := s.createCase("")
	s.Require().NoError(s.store.UpsertClaim(s.ctx, models.NewZeroClaim(id, 5)))

	boom := errors.New("boom")
	err := s.tx.RunInTx(s.ctx, func(ctx context.Context, store ports.CaseStore) error {
		s.Require().NoError(store.SaveCase(ctx, id, map[string]any{"phone": "+7 900"}))
		s.Require().NoError(store.DeleteClaim(ctx, id, 5))
		_, err := store.CreateCase(ctx, map[string]any{"last_name": "Petrov", "first_name": "Petr"})
		s.Require().NoError(err)
		return boom
	})
	s.ErrorIs(err, boom)

	row, err := s.store.LoadCase(s.ctx, id)
	s.Require().NoError(err)
	s.Nil(row.Get("phone"))
	claims, err := s.store.LoadClaims(s.ctx, id)
	s.Require().NoError(err)
	s.Len(claims, 1)
	s.Equal(id+1, s.createCase(""), "id sequence was rolled back too")
}

func (s *InMemorySuite) TestTxCommits() {
	id := s.createCase("")
	err := s.tx.RunInTx(s.ctx, func(ctx context.Context, store ports.CaseStore) error {
		return store.SaveCase(ctx, id, map[string]any{"phone": "+7 900"})
	})
	s.Require().NoError(err)

	row, err := s.store.LoadCase(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("+7 900", row.Get("phone"))
}

func (s *InMemorySuite) TestTxCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	called := false
	err := s.tx.RunInTx(ctx, func(context.Context, ports.CaseStore) error {
		called = true
		return nil
	})
	s.Error(err)
	s.False(called)
}
