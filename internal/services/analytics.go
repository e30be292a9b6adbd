package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"tribe-fitness/internal/database"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/utils"
)

// ActiveDaySteps is the lower end of the everyday step goal.
const ActiveDaySteps = 8000

type AnalyticsService struct {
	repository *database.Repository
	loc        *time.Location
	now        func() time.Time
}

func NewAnalyticsService(repo *database.Repository, loc *time.Location) *AnalyticsService {
	if loc == nil {
		loc = time.Local
	}
	return &AnalyticsService{
		repository: repo,
		loc:        loc,
		now:        time.Now,
	}
}

// GetWeeklyActivity reports the current ISO week.
func (as *AnalyticsService) GetWeeklyActivity() (*database.WeeklyActivity, error) {
	return as.GetWeeklyActivityAt(as.now())
}

// GetWeeklyActivityAt reports the ISO week containing t.
func (as *AnalyticsService) GetWeeklyActivityAt(t time.Time) (*database.WeeklyActivity, error) {
	year, week := t.In(as.loc).ISOWeek()
	startDate := utils.FirstDayOfISOWeek(year, week, as.loc)
	endDate := startDate.AddDate(0, 0, 6)

	activity, err := as.repository.GetWeeklyActivity(
		utils.DateKey(startDate),
		utils.DateKey(endDate),
		ActiveDaySteps,
	)
	if err != nil {
		return nil, fmt.Errorf("weekly activity: %w", err)
	}

	activity.WeekNumber = week
	activity.TokensEarned = activity.Workouts * health.TokensPerWorkout
	activity.Insights = as.generateInsights(activity)

	return activity, nil
}

func (as *AnalyticsService) generateInsights(a *database.WeeklyActivity) string {
	if a.TotalSteps == 0 && a.Workouts == 0 {
		return "📊 Not enough data yet. Keep your phone on you and log your workouts!"
	}

	var insights []string

	switch {
	case a.ActiveDays >= 5:
		insights = append(insights, "🎯 Great week! You hit your step goal on most days")
	case a.ActiveDays >= 3:
		insights = append(insights, "📈 Solid progress, a couple more active days and you're there")
	default:
		insights = append(insights, fmt.Sprintf("💪 Aim for %d+ steps on more days next week", ActiveDaySteps))
	}

	if a.Workouts == 0 {
		insights = append(insights, "🏋️ No workouts logged this week. Each one earns you tokens!")
	} else {
		kinds := make([]string, 0, len(a.WorkoutKinds))
		for kind := range a.WorkoutKinds {
			kinds = append(kinds, kind)
		}
		sort.Slice(kinds, func(i, j int) bool {
			if a.WorkoutKinds[kinds[i]] != a.WorkoutKinds[kinds[j]] {
				return a.WorkoutKinds[kinds[i]] > a.WorkoutKinds[kinds[j]]
			}
			return kinds[i] < kinds[j]
		})
		top := kinds[0]
		insights = append(insights, fmt.Sprintf("%s Favourite workout: %s (%d)",
			utils.GetWorkoutEmoji(top), utils.GetWorkoutName(top), a.WorkoutKinds[top]))
		if len(kinds) == 1 && a.Workouts >= 3 {
			insights = append(insights, "🔀 Try mixing in a different kind of workout")
		}
	}

	if a.TokensSpent > a.TokensEarned {
		insights = append(insights, "🪙 You spent more tokens than you earned this week")
	}

	return strings.Join(insights, "\n")
}
