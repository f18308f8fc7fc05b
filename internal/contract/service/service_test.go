package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casedesk/internal/contract/metrics"
	"casedesk/internal/contract/models"
	"casedesk/internal/contract/ports"
	"casedesk/internal/contract/ports/mocks"
	"casedesk/internal/contract/store"
	registrymodels "casedesk/internal/registry/models"
	registrystore "casedesk/internal/registry/store"
	dErrors "casedesk/pkg/domain-errors"
	"casedesk/pkg/platform/sentinel"
	"casedesk/pkg/requestcontext"
)

var t0 = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newRegistry() *registrystore.InMemory {
	reg := registrystore.NewInMemory()
	reg.Put(&registrymodels.Entity{Kind: registrymodels.KindCreditor, ID: 5, Name: "Sberbank"})
	reg.Put(&registrymodels.Entity{Kind: registrymodels.KindCreditor, ID: 6, Name: "Alfa-Bank"})
	reg.Put(&registrymodels.Entity{Kind: registrymodels.KindCreditor, ID: 7, Name: "Tinkoff"})
	reg.Put(&registrymodels.Entity{Kind: registrymodels.KindUser, ID: 2, Name: "Irina Manager"})
	reg.Put(&registrymodels.Entity{Kind: registrymodels.KindCourt, ID: 1, Name: "Moscow Arbitration Court"})
	return reg
}

type ServiceSuite struct {
	suite.Suite
	store   *store.InMemory
	metrics *metrics.Metrics
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.metrics = metrics.NewWith(prometheus.NewRegistry())
	s.service = New(s.store, store.NewInMemoryTx(s.store), newRegistry(), WithMetrics(s.metrics))
	s.ctx = requestcontext.WithUserID(requestcontext.WithTime(context.Background(), t0), 2)
}

func (s *ServiceSuite) at(t time.Time) context.Context {
	return requestcontext.WithTime(s.ctx, t)
}

func (s *ServiceSuite) createCase() *models.Aggregate {
	agg, err := s.service.ApplyCaseEdit(s.ctx, 0, &models.Aggregate{
		PrimaryInfo: models.Section{
			"last_name":  "Ivanov",
			"first_name": "Ivan",
			"snils":      "112-233-445 95",
			"manager_id": 2,
		},
		PreTrial: models.Section{"creditors": []any{5, 6}, "court_id": "1"},
	})
	s.Require().NoError(err)
	return agg
}

func (s *ServiceSuite) TestCreate() {
	agg := s.createCase()

	s.Equal(int64(1), agg.ID())
	s.Equal(int64(1), agg.PrimaryInfo["version"])
	s.Equal(int64(2), agg.PrimaryInfo["author_id"])
	s.Equal("Irina Manager", agg.PrimaryInfo["manager_name"])
	s.Equal("112-233-445 95", agg.PrimaryInfo["snils"])
	s.Equal("2024-03-01T09:00:00Z", agg.PrimaryInfo["created_at"])
	s.Equal("Moscow Arbitration Court", agg.PreTrial["court_name"])
	s.Equal([]int64{5, 6}, agg.PreTrial["creditors"])

	claims := agg.Procedure["claims"].([]map[string]any)
	s.Require().Len(claims, 2)
	s.Equal("Sberbank", claims[0]["creditor_name"])
	s.Equal("0", claims[0]["principal"])
	s.Equal("0.00", claims[0]["total"])

	s.InDelta(1, testutil.ToFloat64(s.metrics.CasesCreated), 0)
	s.InDelta(2, testutil.ToFloat64(s.metrics.ClaimWrites.WithLabelValues("create")), 0)
}

func (s *ServiceSuite) TestCreateRequiresNames() {
	_, err := s.service.ApplyCaseEdit(s.ctx, 0, &models.Aggregate{
		PrimaryInfo: models.Section{"first_name": "Ivan"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Equal("basic_info.last_name", dErrors.FieldOf(err))
}

func (s *ServiceSuite) TestGetCaseAggregate() {
	created := s.createCase()

	agg, err := s.service.GetCaseAggregate(s.ctx, created.ID())
	s.Require().NoError(err)
	s.Equal(created, agg)

	_, err = s.service.GetCaseAggregate(s.ctx, 99)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestUnchangedSaveOnlyTouches() {
	created := s.createCase()

	later := t0.Add(time.Hour)
	agg, err := s.service.ApplyCaseEdit(s.at(later), created.ID(), created)
	s.Require().NoError(err)

	s.Equal(int64(1), agg.PrimaryInfo["version"])
	s.Equal("2024-03-01T10:00:00Z", agg.PrimaryInfo["updated_at"])
	s.Equal("2024-03-01T09:00:00Z", agg.PrimaryInfo["created_at"])
	s.InDelta(1, testutil.ToFloat64(s.metrics.CaseEdits.WithLabelValues(outcomeTouched)), 0)
}

func (s *ServiceSuite) TestChangedSaveBumpsVersion() {
	created := s.createCase()

	agg, err := s.service.ApplyCaseEdit(s.ctx, created.ID(), &models.Aggregate{
		PrimaryInfo: models.Section{"middle_name": "Petrovich", "version": 1},
		PreTrial:    models.Section{"creditors": []any{6, map[string]any{"id": 7}}},
	})
	s.Require().NoError(err)

	s.Equal(int64(2), agg.PrimaryInfo["version"])
	s.Equal("Petrovich", agg.PrimaryInfo["middle_name"])
	s.Equal("Ivanov", agg.PrimaryInfo["last_name"], "absent keys are untouched")
	s.Equal([]int64{6, 7}, agg.PreTrial["creditors"])

	_, err = s.service.ApplyCaseEdit(s.ctx, created.ID(), &models.Aggregate{
		PrimaryInfo: models.Section{"middle_name": nil},
	})
	s.Require().NoError(err)
	agg, err = s.service.GetCaseAggregate(s.ctx, created.ID())
	s.Require().NoError(err)
	s.Nil(agg.PrimaryInfo["middle_name"], "explicit null clears")
	s.Equal(int64(3), agg.PrimaryInfo["version"])
}

func (s *ServiceSuite) TestClaimEdits() {
	created := s.createCase()

	agg, err := s.service.ApplyCaseEdit(s.ctx, created.ID(), &models.Aggregate{
		Procedure: models.Section{"claims": []any{
			map[string]any{"creditor_id": 5, "principal": "1 000,50", "interest": "20", "included": true},
		}},
	})
	s.Require().NoError(err)

	claims := agg.Procedure["claims"].([]map[string]any)
	s.Require().Len(claims, 2)
	s.Equal("1000.50", claims[0]["principal"])
	s.Equal("1020.50", claims[0]["total"])
	s.Equal(true, claims[0]["included"])
	s.Equal("0", claims[1]["principal"], "claims absent from the patch keep their values")
}

func (s *ServiceSuite) TestStaleVersionConflicts() {
	created := s.createCase()
	_, err := s.service.ApplyCaseEdit(s.ctx, created.ID(), &models.Aggregate{
		PrimaryInfo: models.Section{"phone": "+7 900 000-00-00"},
	})
	s.Require().NoError(err)

	_, err = s.service.ApplyCaseEdit(s.ctx, created.ID(), created)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("basic_info.version", dErrors.FieldOf(err))
	s.InDelta(1, testutil.ToFloat64(s.metrics.CaseEdits.WithLabelValues(outcomeConflict)), 0)
}

func (s *ServiceSuite) TestDuplicateSNILSConflicts() {
	s.createCase()

	_, err := s.service.ApplyCaseEdit(s.ctx, 0, &models.Aggregate{
		PrimaryInfo: models.Section{"last_name": "Petrov", "first_name": "Petr", "snils": "11223344595"},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.Equal("basic_info.snils", dErrors.FieldOf(err))
}

func (s *ServiceSuite) TestCasesWithoutSNILSDoNotConflict() {
	s.createCase()

	ids := map[int64]struct{}{}
	for _, primary := range []models.Section{
		{"last_name": "Petrov", "first_name": "Petr"},
		{"last_name": "Sidorov", "first_name": "Sidor", "snils": nil},
		{"last_name": "Smirnov", "first_name": "Oleg", "snils": ""},
		{"last_name": "Kuznetsov", "first_name": "Ilya", "snils": "   "},
	} {
		agg, err := s.service.ApplyCaseEdit(s.ctx, 0, &models.Aggregate{PrimaryInfo: primary})
		s.Require().NoError(err, "creating %v", primary["last_name"])
		s.Nil(agg.PrimaryInfo["snils"])
		ids[agg.ID()] = struct{}{}
	}
	s.Len(ids, 4)
}

func (s *ServiceSuite) TestCreditorOrderIsKept() {
	agg, err := s.service.ApplyCaseEdit(s.ctx, 0, &models.Aggregate{
		PrimaryInfo: models.Section{"last_name": "Ivanov", "first_name": "Ivan"},
		PreTrial:    models.Section{"creditors": []any{7, 5}},
	})
	s.Require().NoError(err)

	read, err := s.service.GetCaseAggregate(s.ctx, agg.ID())
	s.Require().NoError(err)
	s.Equal([]int64{7, 5}, read.PreTrial["creditors"])
	claims := read.Procedure["claims"].([]map[string]any)
	s.Require().Len(claims, 2)
	s.Equal("Tinkoff", claims[0]["creditor_name"])
	s.Equal("Sberbank", claims[1]["creditor_name"])
}

func (s *ServiceSuite) TestSubSecondHearingTimeSurvivesUnchangedSave() {
	agg, err := s.service.ApplyCaseEdit(s.ctx, 0, &models.Aggregate{
		PrimaryInfo: models.Section{"last_name": "Ivanov", "first_name": "Ivan"},
		PreTrial:    models.Section{"hearing_at": "2024-05-01T10:00:00.123456Z"},
	})
	s.Require().NoError(err)
	s.Equal("2024-05-01T10:00:00.123456Z", agg.PreTrial["hearing_at"])

	saved, err := s.service.ApplyCaseEdit(s.at(t0.Add(time.Hour)), agg.ID(), agg)
	s.Require().NoError(err)
	s.Equal(int64(1), saved.PrimaryInfo["version"])
	s.Equal("2024-05-01T10:00:00.123456Z", saved.PreTrial["hearing_at"])
}

func (s *ServiceSuite) TestRejectedEditWritesNothing() {
	created := s.createCase()

	_, err := s.service.ApplyCaseEdit(s.ctx, created.ID(), &models.Aggregate{
		PrimaryInfo: models.Section{"middle_name": "Petrovich"},
		PreTrial:    models.Section{"creditors": []any{5, 6, 404}},
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	agg, err := s.service.GetCaseAggregate(s.ctx, created.ID())
	s.Require().NoError(err)
	s.Equal(created, agg)
	s.InDelta(1, testutil.ToFloat64(s.metrics.CaseEdits.WithLabelValues(outcomeRejected)), 0)
}

func (s *ServiceSuite) TestEditMissingCase() {
	_, err := s.service.ApplyCaseEdit(s.ctx, 99, &models.Aggregate{
		PrimaryInfo: models.Section{"phone": "1"},
	})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestDanglingClaimIsHiddenAndDropped() {
	created := s.createCase()
	s.store.DeleteCreditorClaims(6)
	s.Require().NoError(s.store.UpsertClaim(s.ctx, models.NewZeroClaim(created.ID(), 404)))

	agg, err := s.service.GetCaseAggregate(s.ctx, created.ID())
	s.Require().NoError(err)
	s.Equal([]int64{5}, agg.PreTrial["creditors"])

	_, err = s.service.ApplyCaseEdit(s.ctx, created.ID(), agg)
	s.Require().NoError(err)
	claims, err := s.store.LoadClaims(s.ctx, created.ID())
	s.Require().NoError(err)
	s.Require().Len(claims, 1)
	s.Equal(int64(5), claims[0].CreditorID)
}

// stubTx runs fn directly against a store, the way a transaction would.
func stubTx(ctrl *gomock.Controller, st ports.CaseStore) *mocks.MockCaseStoreTx {
	tx := mocks.NewMockCaseStoreTx(ctrl)
	tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, ports.CaseStore) error) error {
			return fn(ctx, st)
		}).
		AnyTimes()
	return tx
}

func TestUnchangedSaveWritesOnlyUpdatedAt(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockCaseStore(ctrl)
	ctx := requestcontext.WithTime(context.Background(), t0.Add(time.Hour))

	row := &models.CaseRow{ID: 10, Columns: map[string]any{
		"version": int64(4), "last_name": "Ivanov", "first_name": "Ivan", "updated_at": t0,
	}}
	claims := []*models.ClaimRow{models.NewZeroClaim(10, 5)}

	st.EXPECT().LoadCase(gomock.Any(), int64(10)).Return(row.Clone(), nil).Times(2)
	st.EXPECT().LoadClaims(gomock.Any(), int64(10)).Return(claims, nil).Times(3)
	st.EXPECT().LoadCaseForUpdate(gomock.Any(), int64(10)).Return(row.Clone(), nil)
	st.EXPECT().SaveCase(gomock.Any(), int64(10), map[string]any{"updated_at": t0.Add(time.Hour)}).Return(nil)

	svc := New(st, stubTx(ctrl, st), newRegistry())
	agg, err := svc.GetCaseAggregate(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ApplyCaseEdit(ctx, 10, agg); err != nil {
		t.Fatal(err)
	}
}

// Rows written before today's validation rules, or at a finer precision than
// a form shows, must survive a save of the unchanged form.
func TestResubmittedStoredValuesOnlyTouchUpdatedAt(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"version": int64(4), "last_name": "Ivanov", "first_name": "Ivan", "updated_at": t0,
		}
	}
	principal := "approx 100k"

	tests := []struct {
		name    string
		columns map[string]any
		claim   *models.ClaimRow
	}{
		{
			name:    "sub-second hearing time",
			columns: map[string]any{"hearing_at": time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)},
		},
		{
			name:    "snils with a bad checksum",
			columns: map[string]any{"snils": "12345678900"},
		},
		{
			name:    "free text total debt",
			columns: map[string]any{"total_debt": "approx 100k"},
		},
		{
			name:    "missing required last name",
			columns: map[string]any{"last_name": nil},
		},
		{
			name:  "duplicate legal basis",
			claim: &models.ClaimRow{CaseID: 10, CreditorID: 5, LegalBasis: []string{"loan", "loan", " "}},
		},
		{
			name:  "free text claim amount",
			claim: &models.ClaimRow{CaseID: 10, CreditorID: 5, Principal: &principal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			st := mocks.NewMockCaseStore(ctrl)
			ctx := requestcontext.WithTime(context.Background(), t0.Add(time.Hour))

			columns := base()
			for k, v := range tt.columns {
				columns[k] = v
			}
			row := &models.CaseRow{ID: 10, Columns: columns}
			claim := tt.claim
			if claim == nil {
				claim = models.NewZeroClaim(10, 5)
			}
			claims := []*models.ClaimRow{claim}

			st.EXPECT().LoadCase(gomock.Any(), int64(10)).Return(row.Clone(), nil).Times(2)
			st.EXPECT().LoadClaims(gomock.Any(), int64(10)).Return(claims, nil).Times(3)
			st.EXPECT().LoadCaseForUpdate(gomock.Any(), int64(10)).Return(row.Clone(), nil)
			st.EXPECT().SaveCase(gomock.Any(), int64(10), map[string]any{"updated_at": t0.Add(time.Hour)}).Return(nil)
			st.EXPECT().UpsertClaim(gomock.Any(), gomock.Any()).Times(0)
			st.EXPECT().DeleteClaim(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

			svc := New(st, stubTx(ctrl, st), newRegistry())
			agg, err := svc.GetCaseAggregate(ctx, 10)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := svc.ApplyCaseEdit(ctx, 10, agg); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestClaimWriteFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockCaseStore(ctrl)
	ctx := requestcontext.WithTime(context.Background(), t0)

	row := &models.CaseRow{ID: 10, Columns: map[string]any{"version": int64(1), "last_name": "Ivanov", "first_name": "Ivan"}}
	st.EXPECT().LoadCaseForUpdate(gomock.Any(), int64(10)).Return(row, nil)
	st.EXPECT().LoadClaims(gomock.Any(), int64(10)).Return(nil, nil)
	st.EXPECT().SaveCase(gomock.Any(), int64(10), gomock.Any()).Return(nil)
	st.EXPECT().UpsertClaim(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	svc := New(st, stubTx(ctrl, st), newRegistry())
	_, err := svc.ApplyCaseEdit(ctx, 10, &models.Aggregate{PreTrial: models.Section{"creditors": []any{5}}})
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestStoreConflictMapsToSNILS(t *testing.T) {
	ctrl := gomock.NewController(t)
	st := mocks.NewMockCaseStore(ctrl)

	st.EXPECT().FindCaseIDBySNILS(gomock.Any(), "11223344595").Return(int64(0), sentinel.ErrNotFound)
	st.EXPECT().CreateCase(gomock.Any(), gomock.Any()).Return(int64(0), sentinel.ErrConflict)

	svc := New(st, stubTx(ctrl, st), newRegistry())
	_, err := svc.ApplyCaseEdit(context.Background(), 0, &models.Aggregate{
		PrimaryInfo: models.Section{"last_name": "Ivanov", "first_name": "Ivan", "snils": "11223344595"},
	})
	if !dErrors.HasCode(err, dErrors.CodeConflict) || dErrors.FieldOf(err) != "basic_info.snils" {
		t.Fatalf("expected snils conflict, got %v", err)
	}
}
