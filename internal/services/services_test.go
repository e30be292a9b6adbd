package services

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tribe-fitness/internal/database"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/rewards"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newManager(t *testing.T) *ServiceManager {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "tribe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewServiceManager(db, nil, time.UTC)
}

type recordingSender struct {
	messages []string
	offers   []rewards.Item
	err      error
}

func (s *recordingSender) SendMessage(text string) error {
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, text)
	return nil
}

func (s *recordingSender) SendRewardOffer(item rewards.Item, _ int) error {
	s.offers = append(s.offers, item)
	return nil
}

func TestJournalMirrorsState(t *testing.T) {
	sm := newManager(t)
	clk := &clock{t: time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)}
	state := health.New(health.WithClock(clk.Now))
	detach := sm.Journal.Attach(state)
	defer detach()

	state.OnStepUpdate(4000)
	state.OnLocationUpdate(3)
	state.OnStepUpdate(5200)
	state.LogWorkout(map[string]any{"kind": "Run", "minutes": 25.0})

	days, err := sm.Repository().GetDailySteps("2026-03-03", "2026-03-03")
	require.NoError(t, err)
	require.Len(t, days, 1)
	assert.Equal(t, 5200, days[0].Steps)
	assert.Equal(t, 3.0, days[0].DistanceMeters)
	assert.Equal(t, 208, days[0].Calories)

	workouts, err := sm.Repository().GetWorkoutsBetween("2026-03-03", "2026-03-03")
	require.NoError(t, err)
	require.Len(t, workouts, 1)
	assert.Equal(t, "run", workouts[0].Kind)
	assert.Equal(t, 25, workouts[0].Minutes)
	assert.JSONEq(t, `{"kind":"Run","minutes":25}`, workouts[0].Payload)

	clk.Advance(24 * time.Hour)
	state.OnLocationUpdate(2)

	days, err = sm.Repository().GetDailySteps("2026-03-03", "2026-03-04")
	require.NoError(t, err)
	require.Len(t, days, 1, "rollover closes the old day, location alone does not write today")
	assert.Equal(t, 5200, days[0].Steps)
}

func TestJournalRecordsRedemptions(t *testing.T) {
	sm := newManager(t)
	state := health.New(health.WithTokens(60))
	store := rewards.NewStore(rewards.DefaultCatalog(), state)
	store.SetRecorder(sm.Journal)

	r, err := store.Redeem("water-bottle")
	require.NoError(t, err)

	today := r.At.UTC().Format("2006-01-02")
	reds, err := sm.Repository().GetRedemptionsBetween(today, today)
	require.NoError(t, err)
	require.Len(t, reds, 1)
	assert.Equal(t, r.ID, reds[0].ID)
	assert.Equal(t, 50, reds[0].Cost)
	assert.Equal(t, 10, reds[0].BalanceAfter)
}

func TestWeeklyActivityAt(t *testing.T) {
	sm := newManager(t)
	repo := sm.Repository()
	at := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)

	for i, steps := range []int{9000, 12000, 3000, 8000, 10000} {
		day := time.Date(2026, time.March, 2+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
		require.NoError(t, repo.UpsertDailySteps(database.DailySteps{Date: day, Steps: steps}))
	}
	require.NoError(t, repo.SaveWorkout(database.WorkoutRecord{ID: "1", Kind: "run", Date: "2026-03-02", CreatedAt: at}))
	require.NoError(t, repo.SaveWorkout(database.WorkoutRecord{ID: "2", Kind: "run", Date: "2026-03-03", CreatedAt: at}))
	require.NoError(t, repo.SaveWorkout(database.WorkoutRecord{ID: "3", Kind: "yoga", Date: "2026-03-08", CreatedAt: at}))
	require.NoError(t, repo.SaveRedemption(database.RedemptionRecord{ID: "r", ItemID: "water-bottle", Cost: 50, Date: "2026-03-05", CreatedAt: at}))

	a, err := sm.Analytics.GetWeeklyActivityAt(at)
	require.NoError(t, err)
	assert.Equal(t, 10, a.WeekNumber)
	assert.Equal(t, "2026-03-02", a.StartDate)
	assert.Equal(t, "2026-03-08", a.EndDate)
	assert.Equal(t, 42000, a.TotalSteps)
	assert.Equal(t, 4, a.ActiveDays)
	assert.Equal(t, 3, a.Workouts)
	assert.Equal(t, 30, a.TokensEarned)
	assert.Equal(t, 50, a.TokensSpent)
	assert.Contains(t, a.Insights, "Solid progress")
	assert.Contains(t, a.Insights, "Favourite workout: 🏃 Run (2)")
	assert.Contains(t, a.Insights, "spent more tokens than you earned")
}

func TestWeeklyActivityNoData(t *testing.T) {
	sm := newManager(t)
	sm.Analytics.now = func() time.Time { return time.Date(2026, time.January, 1, 9, 0, 0, 0, time.UTC) }

	a, err := sm.Analytics.GetWeeklyActivity()
	require.NoError(t, err)
	assert.Equal(t, 1, a.WeekNumber)
	assert.Equal(t, "2025-12-29", a.StartDate)
	assert.Contains(t, a.Insights, "Not enough data")
}

func TestDailySummaryOffersBestAffordable(t *testing.T) {
	sm := newManager(t)
	sender := &recordingSender{}
	state := health.New(health.WithTokens(120))
	state.OnStepUpdate(9100)
	sm.SetNotificationSender(sender, state, rewards.DefaultCatalog())

	require.NoError(t, sm.Notification.SendDailySummary())
	require.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "Steps: 9100")
	assert.Contains(t, sender.messages[0], "Step goal reached")
	require.Len(t, sender.offers, 1)
	assert.Equal(t, "premium-week", sender.offers[0].ID)
}

func TestDailySummaryNoOfferWhenBroke(t *testing.T) {
	sm := newManager(t)
	sender := &recordingSender{}
	state := health.New()
	sm.SetNotificationSender(sender, state, rewards.DefaultCatalog())

	require.NoError(t, sm.Notification.SendDailySummary())
	assert.Len(t, sender.messages, 1)
	assert.Contains(t, sender.messages[0], "8000 steps to go")
	assert.Empty(t, sender.offers)
}

func TestWeeklyReportSenderError(t *testing.T) {
	sm := newManager(t)
	sendErr := errors.New("telegram down")
	sm.SetNotificationSender(&recordingSender{err: sendErr}, health.New(), nil)

	err := sm.Notification.SendWeeklyReport()
	assert.ErrorIs(t, err, sendErr)
}

func TestFormatWeeklyReport(t *testing.T) {
	text := FormatWeeklyReport(&database.WeeklyActivity{
		WeekNumber: 10, StartDate: "2026-03-02", EndDate: "2026-03-08",
		TotalSteps: 42000, TotalDistance: 30500, ActiveDays: 4, Workouts: 3,
		TokensEarned: 30, TokensSpent: 50, Insights: "x",
	})
	assert.Contains(t, text, "<b>Week 10</b>")
	assert.Contains(t, text, "30.50 km")
	assert.Contains(t, text, "Active days: 4/7")
	assert.Contains(t, text, "+30 / -50")
}
