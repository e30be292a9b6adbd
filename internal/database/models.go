package database

import "time"

type WorkoutRecord struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Minutes   int       `json:"minutes"`
	Payload   string    `json:"payload"`
	Date      string    `json:"date"`
	CreatedAt time.Time `json:"created_at"`
}

type RedemptionRecord struct {
	ID           string    `json:"id"`
	ItemID       string    `json:"item_id"`
	Cost         int       `json:"cost"`
	BalanceAfter int       `json:"balance_after"`
	Date         string    `json:"date"`
	CreatedAt    time.Time `json:"created_at"`
}

type DailySteps struct {
	Date           string  `json:"date"`
	Steps          int     `json:"steps"`
	DistanceMeters float64 `json:"distance_meters"`
	Calories       int     `json:"calories"`
}

type WeeklyActivity struct {
	WeekNumber    int            `json:"week_number"`
	StartDate     string         `json:"start_date"`
	EndDate       string         `json:"end_date"`
	TotalSteps    int            `json:"total_steps"`
	TotalDistance float64        `json:"total_distance_meters"`
	TotalCalories int            `json:"total_calories"`
	ActiveDays    int            `json:"active_days"`
	Workouts      int            `json:"workouts"`
	WorkoutKinds  map[string]int `json:"workout_kinds"`
	TokensEarned  int            `json:"tokens_earned"`
	TokensSpent   int            `json:"tokens_spent"`
	Insights      string         `json:"insights"`
}
