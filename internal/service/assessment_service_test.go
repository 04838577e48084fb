package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexskill/institute-api/internal/models"
	appErrors "github.com/nexskill/institute-api/pkg/errors"
)

type mockAssessmentRepo struct {
	tests  map[string]*models.Test
	scores map[string]*models.Score
}

func newMockAssessmentRepo() *mockAssessmentRepo {
	return &mockAssessmentRepo{tests: map[string]*models.Test{}, scores: map[string]*models.Score{}}
}

func (m *mockAssessmentRepo) ListTests(_ context.Context, batchID string) ([]models.Test, error) {
	out := []models.Test{}
	for _, test := range m.tests {
		if test.BatchID == batchID {
			out = append(out, *test)
		}
	}
	return out, nil
}

func (m *mockAssessmentRepo) FindTest(_ context.Context, id string) (*models.Test, error) {
	test, ok := m.tests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *test
	return &cp, nil
}

func (m *mockAssessmentRepo) CreateTest(_ context.Context, test *models.Test) error {
	cp := *test
	m.tests[test.ID] = &cp
	return nil
}

func (m *mockAssessmentRepo) DeleteTest(_ context.Context, id string) error {
	if _, ok := m.tests[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.tests, id)
	return nil
}

func (m *mockAssessmentRepo) UpsertScore(_ context.Context, score *models.Score) error {
	cp := *score
	m.scores[score.TestID+"|"+score.StudentID] = &cp
	return nil
}

func (m *mockAssessmentRepo) ListScores(_ context.Context, testID string) ([]models.Score, error) {
	out := []models.Score{}
	for _, score := range m.scores {
		if score.TestID == testID {
			out = append(out, *score)
		}
	}
	return out, nil
}

func newAssessmentFixture(t *testing.T) (*mockAssessmentRepo, *AssessmentService, *models.Test) {
	t.Helper()
	repo := newMockAssessmentRepo()
	roster := &mockRoster{assigned: map[string]bool{"bt1|s1": true, "bt1|s2": true}}
	svc := NewAssessmentService(repo, roster, NewValidator(), nil)

	test, err := svc.CreateTest(context.Background(), "bt1", CreateTestRequest{
		Name:     "Week 4 Assessment",
		MaxMarks: 100,
		HeldOn:   time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return repo, svc, test
}

func TestAssessmentServiceCreateTestValidation(t *testing.T) {
	svc := NewAssessmentService(newMockAssessmentRepo(), &mockRoster{}, NewValidator(), nil)

	_, err := svc.CreateTest(context.Background(), "bt1", CreateTestRequest{Name: "No max", HeldOn: time.Now()})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceRecordScores(t *testing.T) {
	repo, svc, test := newAssessmentFixture(t)

	scores, err := svc.RecordScores(context.Background(), test.ID, RecordScoresRequest{
		Scores: []ScoreEntry{
			{StudentID: "s1", Marks: 82, Remarks: "good"},
			{StudentID: "s2", Marks: 0},
		},
	})
	require.NoError(t, err)
	require.Len(t, scores, 2)
	assert.Len(t, repo.scores, 2)
}

func TestAssessmentServiceRecordScoresUpserts(t *testing.T) {
	repo, svc, test := newAssessmentFixture(t)

	_, err := svc.RecordScores(context.Background(), test.ID, RecordScoresRequest{
		Scores: []ScoreEntry{{StudentID: "s1", Marks: 40}},
	})
	require.NoError(t, err)
	_, err = svc.RecordScores(context.Background(), test.ID, RecordScoresRequest{
		Scores: []ScoreEntry{{StudentID: "s1", Marks: 65}},
	})
	require.NoError(t, err)

	require.Len(t, repo.scores, 1)
	listed, err := svc.ListScores(context.Background(), test.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 65, listed[0].Marks)
}

func TestAssessmentServiceRecordScoresAboveMax(t *testing.T) {
	repo, svc, test := newAssessmentFixture(t)

	_, err := svc.RecordScores(context.Background(), test.ID, RecordScoresRequest{
		Scores: []ScoreEntry{{StudentID: "s1", Marks: 101}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.scores)
}

func TestAssessmentServiceRecordScoresOutsideRoster(t *testing.T) {
	repo, svc, test := newAssessmentFixture(t)

	_, err := svc.RecordScores(context.Background(), test.ID, RecordScoresRequest{
		Scores: []ScoreEntry{
			{StudentID: "s1", Marks: 50},
			{StudentID: "outsider", Marks: 50},
		},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.scores)
}

func TestAssessmentServiceRecordScoresUnknownTest(t *testing.T) {
	_, svc, _ := newAssessmentFixture(t)

	_, err := svc.RecordScores(context.Background(), "missing", RecordScoresRequest{
		Scores: []ScoreEntry{{StudentID: "s1", Marks: 10}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAssessmentServiceDeleteTest(t *testing.T) {
	repo, svc, test := newAssessmentFixture(t)

	require.NoError(t, svc.DeleteTest(context.Background(), test.ID))
	assert.Empty(t, repo.tests)

	err := svc.DeleteTest(context.Background(), test.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
