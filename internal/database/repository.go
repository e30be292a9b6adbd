package database

import (
	"database/sql"
	"fmt"
)

type Repository struct {
	Db *Database
}

func NewRepository(db *Database) *Repository {
	return &Repository{Db: db}
}

// Workout repository methods
func (r *Repository) SaveWorkout(w WorkoutRecord) error {
	_, err := r.Db.db.Exec(`
		INSERT OR IGNORE INTO workouts (id, kind, minutes, payload, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, w.ID, w.Kind, w.Minutes, w.Payload, w.Date, w.CreatedAt)
	return err
}

func (r *Repository) GetWorkoutsBetween(startDate, endDate string) ([]WorkoutRecord, error) {
	rows, err := r.Db.db.Query(`
		SELECT id, kind, minutes, payload, date, created_at
		FROM workouts
		WHERE date BETWEEN ? AND ?
		ORDER BY created_at
	`, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workouts []WorkoutRecord
	for rows.Next() {
		var w WorkoutRecord
		if err := rows.Scan(&w.ID, &w.Kind, &w.Minutes, &w.Payload, &w.Date, &w.CreatedAt); err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// Redemption repository methods
func (r *Repository) SaveRedemption(rd RedemptionRecord) error {
	_, err := r.Db.db.Exec(`
		INSERT OR IGNORE INTO redemptions (id, item_id, cost, balance_after, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rd.ID, rd.ItemID, rd.Cost, rd.BalanceAfter, rd.Date, rd.CreatedAt)
	return err
}

func (r *Repository) GetRedemptionsBetween(startDate, endDate string) ([]RedemptionRecord, error) {
	rows, err := r.Db.db.Query(`
		SELECT id, item_id, cost, balance_after, date, created_at
		FROM redemptions
		WHERE date BETWEEN ? AND ?
		ORDER BY created_at
	`, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RedemptionRecord
	for rows.Next() {
		var rd RedemptionRecord
		if err := rows.Scan(&rd.ID, &rd.ItemID, &rd.Cost, &rd.BalanceAfter, &rd.Date, &rd.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rd)
	}
	return out, rows.Err()
}

// Daily steps repository methods
func (r *Repository) UpsertDailySteps(d DailySteps) error {
	_, err := r.Db.db.Exec(`
		INSERT INTO daily_steps (date, steps, distance_m, calories, updated_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(date) DO UPDATE SET
			steps = excluded.steps,
			distance_m = excluded.distance_m,
			calories = excluded.calories,
			updated_at = CURRENT_TIMESTAMP
	`, d.Date, d.Steps, d.DistanceMeters, d.Calories)
	return err
}

func (r *Repository) GetDailySteps(startDate, endDate string) ([]DailySteps, error) {
	rows, err := r.Db.db.Query(`
		SELECT date, steps, distance_m, calories
		FROM daily_steps
		WHERE date BETWEEN ? AND ?
		ORDER BY date
	`, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []DailySteps
	for rows.Next() {
		var d DailySteps
		if err := rows.Scan(&d.Date, &d.Steps, &d.DistanceMeters, &d.Calories); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// Analytics repository methods

// GetWeeklyActivity aggregates the journal between two dates. A day counts
// as active when it reaches activeSteps.
func (r *Repository) GetWeeklyActivity(startDate, endDate string, activeSteps int) (*WeeklyActivity, error) {
	activity := &WeeklyActivity{
		StartDate:    startDate,
		EndDate:      endDate,
		WorkoutKinds: make(map[string]int),
	}

	var totalDistance sql.NullFloat64
	var totalSteps, totalCalories, activeDays sql.NullInt64
	err := r.Db.db.QueryRow(`
		SELECT
			SUM(steps),
			SUM(distance_m),
			SUM(calories),
			SUM(CASE WHEN steps >= ? THEN 1 ELSE 0 END)
		FROM daily_steps
		WHERE date BETWEEN ? AND ?
	`, activeSteps, startDate, endDate).Scan(&totalSteps, &totalDistance, &totalCalories, &activeDays)
	if err != nil {
		return nil, fmt.Errorf("sum daily steps: %w", err)
	}
	activity.TotalSteps = int(totalSteps.Int64)
	activity.TotalDistance = totalDistance.Float64
	activity.TotalCalories = int(totalCalories.Int64)
	activity.ActiveDays = int(activeDays.Int64)

	rows, err := r.Db.db.Query(`
		SELECT kind, COUNT(*)
		FROM workouts
		WHERE date BETWEEN ? AND ?
		GROUP BY kind
	`, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("count workouts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		activity.WorkoutKinds[kind] = count
		activity.Workouts += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var spent sql.NullInt64
	err = r.Db.db.QueryRow(`
		SELECT SUM(cost) FROM redemptions WHERE date BETWEEN ? AND ?
	`, startDate, endDate).Scan(&spent)
	if err != nil {
		return nil, fmt.Errorf("sum redemptions: %w", err)
	}
	activity.TokensSpent = int(spent.Int64)

	return activity, nil
}
