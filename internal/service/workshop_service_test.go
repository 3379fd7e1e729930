package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taller-adm-api/internal/models"
)

type mockWorkshopRepo struct {
	workshops map[string]*models.WorkshopDetail
	types     map[string]*models.WorkshopType
}

func (m *mockWorkshopRepo) List(ctx context.Context, filter models.WorkshopFilter) ([]models.WorkshopDetail, int, error) {
	var out []models.WorkshopDetail
	for _, w := range m.workshops {
		out = append(out, *w)
	}
	return out, len(out), nil
}

func (m *mockWorkshopRepo) FindByID(ctx context.Context, id string) (*models.WorkshopDetail, error) {
	if w, ok := m.workshops[id]; ok {
		return w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockWorkshopRepo) Create(ctx context.Context, workshop *models.Workshop) error {
	workshop.ID = "w-new"
	if m.workshops == nil {
		m.workshops = make(map[string]*models.WorkshopDetail)
	}
	m.workshops[workshop.ID] = &models.WorkshopDetail{Workshop: *workshop}
	return nil
}

func (m *mockWorkshopRepo) UpdateState(ctx context.Context, id string, state models.WorkshopState) error {
	if w, ok := m.workshops[id]; ok {
		w.State = state
		return nil
	}
	return sql.ErrNoRows
}

func (m *mockWorkshopRepo) ListTypes(ctx context.Context, activeOnly bool) ([]models.WorkshopType, error) {
	var out []models.WorkshopType
	for _, wt := range m.types {
		if activeOnly && !wt.Active {
			continue
		}
		out = append(out, *wt)
	}
	return out, nil
}

func (m *mockWorkshopRepo) FindTypeByID(ctx context.Context, id string) (*models.WorkshopType, error) {
	if wt, ok := m.types[id]; ok {
		return wt, nil
	}
	return nil, sql.ErrNoRows
}

func activeWorkshop(id string) *models.WorkshopDetail {
	return &models.WorkshopDetail{Workshop: models.Workshop{ID: id, State: models.WorkshopStateActive}}
}

func TestWorkshopCreateValidatesTypeAndYear(t *testing.T) {
	repo := &mockWorkshopRepo{types: map[string]*models.WorkshopType{
		"t1": {ID: "t1", Name: "Ceramics", Active: true},
	}}
	svc := NewWorkshopService(repo, nil, nil)

	workshop, err := svc.Create(context.Background(), CreateWorkshopRequest{
		WorkshopTypeID: "t1",
		Year:           2026,
		StartDate:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Schedule:       "Tue 18:00",
		Instructor:     "M. Diaz",
	})

	require.NoError(t, err)
	assert.Equal(t, models.WorkshopStateActive, workshop.State)

	_, err = svc.Create(context.Background(), CreateWorkshopRequest{
		WorkshopTypeID: "t1",
		Year:           2026,
		StartDate:      time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		Schedule:       "Tue 18:00",
		Instructor:     "M. Diaz",
	})
	require.Error(t, err, "start date outside the workshop year")
}

func TestWorkshopCreateRejectsInactiveType(t *testing.T) {
	repo := &mockWorkshopRepo{types: map[string]*models.WorkshopType{
		"t1": {ID: "t1", Name: "Ceramics", Active: false},
	}}
	svc := NewWorkshopService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateWorkshopRequest{
		WorkshopTypeID: "t1",
		Year:           2026,
		StartDate:      time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Schedule:       "Tue 18:00",
		Instructor:     "M. Diaz",
	})

	require.Error(t, err)
}

func TestWorkshopTransitionLifecycle(t *testing.T) {
	repo := &mockWorkshopRepo{workshops: map[string]*models.WorkshopDetail{
		"w1": activeWorkshop("w1"),
	}}
	svc := NewWorkshopService(repo, nil, nil)

	workshop, err := svc.Transition(context.Background(), "w1", models.WorkshopStateInactive)
	require.NoError(t, err)
	assert.Equal(t, models.WorkshopStateInactive, workshop.State)

	workshop, err = svc.Transition(context.Background(), "w1", models.WorkshopStateFinished)
	require.NoError(t, err)
	assert.Equal(t, models.WorkshopStateFinished, workshop.State)
}

func TestWorkshopTransitionFinishedIsTerminal(t *testing.T) {
	finished := activeWorkshop("w1")
	finished.State = models.WorkshopStateFinished
	repo := &mockWorkshopRepo{workshops: map[string]*models.WorkshopDetail{"w1": finished}}
	svc := NewWorkshopService(repo, nil, nil)

	_, err := svc.Transition(context.Background(), "w1", models.WorkshopStateActive)

	require.Error(t, err)
}

func TestWorkshopTransitionRejectsSameState(t *testing.T) {
	repo := &mockWorkshopRepo{workshops: map[string]*models.WorkshopDetail{
		"w1": activeWorkshop("w1"),
	}}
	svc := NewWorkshopService(repo, nil, nil)

	_, err := svc.Transition(context.Background(), "w1", models.WorkshopStateActive)

	require.Error(t, err)
}
