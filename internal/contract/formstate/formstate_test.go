package formstate

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casedesk/internal/contract/formstate/mocks"
	"casedesk/internal/contract/models"
	"casedesk/internal/contract/normalize"
	"casedesk/internal/contract/schema"
	registrymodels "casedesk/internal/registry/models"
	registrystore "casedesk/internal/registry/store"
)

func strPtr(v string) *string { return &v }

func normalizedCase(t *testing.T) *models.Aggregate {
	t.Helper()
	reg := registrystore.NewInMemory()
	reg.Put(&registrymodels.Entity{Kind: registrymodels.KindCreditor, ID: 5, Name: "Sberbank"})
	reg.Put(&registrymodels.Entity{Kind: registrymodels.KindUser, ID: 2, Name: "Irina Manager"})

	row := &models.CaseRow{ID: 10, Columns: map[string]any{
		"version":    int64(2),
		"last_name":  "Ivanov",
		"first_name": "Ivan",
		"snils":      "11223344595",
		"birth_date": time.Date(1980, 4, 1, 0, 0, 0, 0, time.UTC),
		"hearing_at": time.Date(2024, 5, 6, 10, 30, 0, 0, time.UTC),
		"total_debt": "1500000.00",
		"manager_id": int64(2),
		"children":   `[{"full_name":"Anna","birth_date":"2012-02-03"}]`,
	}}
	claims := []*models.ClaimRow{
		{CaseID: 10, CreditorID: 5, Principal: strPtr("100.50"), LegalBasis: []string{"loan agreement"}, Included: true},
	}
	agg, err := normalize.New(reg).Normalize(context.Background(), row, claims)
	require.NoError(t, err)
	return agg
}

func TestDefaultFormStateIsTotal(t *testing.T) {
	f := DefaultFormState()
	for _, stage := range schema.Stages {
		section := f.Section(stage)
		require.NotNil(t, section, stage)
		for _, field := range schema.StageFields(stage) {
			v, ok := section[field.Name]
			require.True(t, ok, field.Path())
			if field.Type.IsCollection() {
				assert.NotNil(t, v, field.Path())
			}
		}
	}
	assert.Equal(t, []int64{}, f.PreTrial["creditors"])
	assert.Equal(t, []map[string]any{}, f.Procedure["claims"])
	assert.Nil(t, f.PrimaryInfo["last_name"])
}

func TestToFormState(t *testing.T) {
	t.Run("nil aggregate yields the defaults", func(t *testing.T) {
		var r Reconciler
		got, err := r.Serialize(ToFormState(nil, nil))
		require.NoError(t, err)
		want, err := r.Serialize(DefaultFormState())
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("present nulls win over defaults and unknown keys are dropped", func(t *testing.T) {
		defaults := DefaultFormState()
		defaults.PrimaryInfo["marital_status"] = "single"
		defaults.PrimaryInfo["employment"] = "employed"

		f := ToFormState(&models.Aggregate{
			PrimaryInfo: models.Section{"marital_status": nil, "shoe_size": 44},
		}, defaults)

		assert.Nil(t, f.PrimaryInfo["marital_status"])
		assert.Equal(t, "employed", f.PrimaryInfo["employment"])
		assert.NotContains(t, f.PrimaryInfo, "shoe_size")
		assert.NotNil(t, f.PreTrial)
		assert.NotNil(t, f.ProcedureInitiation)
	})

	t.Run("malformed record elements are fully defaulted", func(t *testing.T) {
		f := ToFormState(&models.Aggregate{
			Procedure: models.Section{"claims": []any{"junk", map[string]any{"creditor_id": json.Number("5"), "principal": "10"}}},
		}, nil)

		claims := f.Procedure["claims"].([]map[string]any)
		require.Len(t, claims, 2)
		assert.Nil(t, claims[0]["creditor_id"])
		assert.Equal(t, false, claims[0]["included"])
		assert.Equal(t, []string{}, claims[0]["legal_basis"])
		assert.Equal(t, int64(5), claims[1]["creditor_id"])
		assert.Equal(t, "10", claims[1]["principal"])
		assert.Equal(t, false, claims[1]["included"])
	})

	t.Run("default collections are not shared", func(t *testing.T) {
		defaults := DefaultFormState()
		a := ToFormState(nil, defaults)
		b := ToFormState(nil, defaults)
		a.PreTrial["creditors"] = append(a.PreTrial["creditors"].([]int64), 9)
		assert.Equal(t, []int64{}, b.PreTrial["creditors"])
		assert.Equal(t, []int64{}, defaults.PreTrial["creditors"])
	})
}

func TestRoundTrip(t *testing.T) {
	agg := normalizedCase(t)

	back := FromFormState(ToFormState(agg, DefaultFormState()))

	assert.Equal(t, agg, back)
}

func TestFromFormStateFlattensCreditors(t *testing.T) {
	f := DefaultFormState()
	f.PreTrial["creditors"] = []any{map[string]any{"id": 5, "name": "Sberbank"}, "6", map[string]any{"creditorId": 5}}

	agg := FromFormState(f)

	assert.Equal(t, []int64{5, 6}, agg.PreTrial["creditors"])
	assert.Len(t, agg.PrimaryInfo, len(schema.StageFields(schema.StagePrimaryInfo)))
}

func TestReconciler(t *testing.T) {
	var r Reconciler
	f := DefaultFormState()

	assert.True(t, r.IsDirty(f), "never saved")
	require.NoError(t, r.MarkSaved(f))
	assert.False(t, r.IsDirty(f))

	f.PrimaryInfo["last_name"] = "Ivanov"
	assert.True(t, r.IsDirty(f))
	require.NoError(t, r.MarkSaved(f))

	f.PrimaryInfo["version"] = int64(3)
	require.NoError(t, r.MarkSaved(f))
	f.PrimaryInfo["version"] = float64(3)
	assert.False(t, r.IsDirty(f), "equal numbers serialize identically")
}

type AutosaverSuite struct {
	suite.Suite
	ctrl  *gomock.Controller
	saver *mocks.MockSaver
	ctx   context.Context
}

func TestAutosaverSuite(t *testing.T) {
	suite.Run(t, new(AutosaverSuite))
}

func (s *AutosaverSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.saver = mocks.NewMockSaver(s.ctrl)
	s.ctx = context.Background()
}

func (s *AutosaverSuite) TestCleanStateIsNotSaved() {
	agg := normalizedCase(s.T())
	s.saver.EXPECT().GetCaseAggregate(gomock.Any(), int64(10)).Return(agg, nil)

	a := NewAutosaver(s.saver, 10)
	_, err := a.Load(s.ctx)
	s.Require().NoError(err)

	saved, err := a.Save(s.ctx)
	s.Require().NoError(err)
	s.False(saved)
	s.False(a.Dirty())
}

func (s *AutosaverSuite) TestDirtyStateIsSavedOnce() {
	agg := normalizedCase(s.T())
	s.saver.EXPECT().GetCaseAggregate(gomock.Any(), int64(10)).Return(agg, nil)

	stored := normalizedCase(s.T())
	stored.PrimaryInfo["middle_name"] = "Petrovich"
	stored.PrimaryInfo["version"] = int64(3)
	s.saver.EXPECT().
		ApplyCaseEdit(gomock.Any(), int64(10), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, patch *models.Aggregate) (*models.Aggregate, error) {
			s.Equal("Petrovich", patch.PrimaryInfo["middle_name"])
			s.Equal(int64(2), patch.PrimaryInfo["version"])
			return stored, nil
		}).
		Times(1)

	a := NewAutosaver(s.saver, 10)
	_, err := a.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(a.Edit(func(f *models.FormState) {
		f.PrimaryInfo["middle_name"] = "Petrovich"
	}))
	s.True(a.Dirty())

	saved, err := a.Save(s.ctx)
	s.Require().NoError(err)
	s.True(saved)

	saved, err = a.Save(s.ctx)
	s.Require().NoError(err)
	s.False(saved, "form was re-seeded from the stored case")
}

func (s *AutosaverSuite) TestFailedSaveStaysDirty() {
	s.saver.EXPECT().GetCaseAggregate(gomock.Any(), int64(10)).Return(normalizedCase(s.T()), nil)
	s.saver.EXPECT().ApplyCaseEdit(gomock.Any(), int64(10), gomock.Any()).Return(nil, errors.New("conflict"))

	a := NewAutosaver(s.saver, 10)
	_, err := a.Load(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(a.Edit(func(f *models.FormState) {
		f.PrimaryInfo["phone"] = "+7 900 000-00-00"
	}))

	saved, err := a.Save(s.ctx)
	s.Require().Error(err)
	s.False(saved)
	s.True(a.Dirty())
}

func (s *AutosaverSuite) TestNewCaseLearnsItsID() {
	created := &models.Aggregate{PrimaryInfo: models.Section{"id": int64(42), "last_name": "Ivanov", "first_name": "Ivan"}}
	s.saver.EXPECT().ApplyCaseEdit(gomock.Any(), int64(0), gomock.Any()).Return(created, nil)

	a := NewAutosaver(s.saver, 0)
	s.Require().NoError(a.Edit(func(f *models.FormState) {
		f.PrimaryInfo["last_name"] = "Ivanov"
		f.PrimaryInfo["first_name"] = "Ivan"
	}))

	saved, err := a.Save(s.ctx)
	s.Require().NoError(err)
	s.True(saved)
	s.Equal(int64(42), a.CaseID())
}

func (s *AutosaverSuite) TestEditBeforeLoad() {
	a := NewAutosaver(s.saver, 10)
	s.ErrorIs(a.Edit(func(*models.FormState) {}), ErrNotLoaded)
	_, err := a.Save(s.ctx)
	s.ErrorIs(err, ErrNotLoaded)
}
