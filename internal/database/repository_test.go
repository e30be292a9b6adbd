package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "tribe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db)
}

func TestWorkoutsRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	at := time.Date(2026, time.March, 3, 18, 0, 0, 0, time.UTC)

	require.NoError(t, repo.SaveWorkout(WorkoutRecord{ID: "w1", Kind: "run", Minutes: 30, Payload: `{"kind":"run"}`, Date: "2026-03-03", CreatedAt: at}))
	require.NoError(t, repo.SaveWorkout(WorkoutRecord{ID: "w2", Kind: "yoga", Minutes: 45, Payload: `{}`, Date: "2026-03-05", CreatedAt: at.Add(48 * time.Hour)}))
	// duplicate IDs are ignored
	require.NoError(t, repo.SaveWorkout(WorkoutRecord{ID: "w1", Kind: "swim", Date: "2026-03-03", CreatedAt: at}))

	got, err := repo.GetWorkoutsBetween("2026-03-01", "2026-03-04")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "run", got[0].Kind)
	assert.Equal(t, 30, got[0].Minutes)
	assert.True(t, at.Equal(got[0].CreatedAt))
}

func TestDailyStepsUpsert(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.UpsertDailySteps(DailySteps{Date: "2026-03-03", Steps: 100, Calories: 4}))
	require.NoError(t, repo.UpsertDailySteps(DailySteps{Date: "2026-03-03", Steps: 9000, DistanceMeters: 6400, Calories: 360}))
	require.NoError(t, repo.UpsertDailySteps(DailySteps{Date: "2026-03-04", Steps: 2000, Calories: 80}))

	days, err := repo.GetDailySteps("2026-03-01", "2026-03-07")
	require.NoError(t, err)
	assert.Equal(t, []DailySteps{
		{Date: "2026-03-03", Steps: 9000, DistanceMeters: 6400, Calories: 360},
		{Date: "2026-03-04", Steps: 2000, Calories: 80},
	}, days)
}

func TestWeeklyActivity(t *testing.T) {
	repo := newTestRepository(t)
	at := time.Date(2026, time.March, 3, 8, 0, 0, 0, time.UTC)

	require.NoError(t, repo.UpsertDailySteps(DailySteps{Date: "2026-03-02", Steps: 12000, DistanceMeters: 8000, Calories: 480}))
	require.NoError(t, repo.UpsertDailySteps(DailySteps{Date: "2026-03-03", Steps: 3000, DistanceMeters: 2000, Calories: 120}))
	require.NoError(t, repo.UpsertDailySteps(DailySteps{Date: "2026-03-10", Steps: 50000}))

	require.NoError(t, repo.SaveWorkout(WorkoutRecord{ID: "a", Kind: "run", Date: "2026-03-02", CreatedAt: at}))
	require.NoError(t, repo.SaveWorkout(WorkoutRecord{ID: "b", Kind: "run", Date: "2026-03-04", CreatedAt: at}))
	require.NoError(t, repo.SaveWorkout(WorkoutRecord{ID: "c", Kind: "yoga", Date: "2026-03-05", CreatedAt: at}))

	require.NoError(t, repo.SaveRedemption(RedemptionRecord{ID: "r1", ItemID: "protein-bar", Cost: 30, BalanceAfter: 0, Date: "2026-03-05", CreatedAt: at}))

	a, err := repo.GetWeeklyActivity("2026-03-02", "2026-03-08", 10000)
	require.NoError(t, err)
	assert.Equal(t, 15000, a.TotalSteps)
	assert.Equal(t, 10000.0, a.TotalDistance)
	assert.Equal(t, 600, a.TotalCalories)
	assert.Equal(t, 1, a.ActiveDays)
	assert.Equal(t, 3, a.Workouts)
	assert.Equal(t, map[string]int{"run": 2, "yoga": 1}, a.WorkoutKinds)
	assert.Equal(t, 30, a.TokensSpent)

	reds, err := repo.GetRedemptionsBetween("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Len(t, reds, 1)
	assert.Equal(t, "protein-bar", reds[0].ItemID)
}

func TestWeeklyActivityEmpty(t *testing.T) {
	repo := newTestRepository(t)

	a, err := repo.GetWeeklyActivity("2026-03-02", "2026-03-08", 10000)
	require.NoError(t, err)
	assert.Zero(t, a.TotalSteps)
	assert.Zero(t, a.Workouts)
	assert.Zero(t, a.TokensSpent)
	assert.Empty(t, a.WorkoutKinds)
}
