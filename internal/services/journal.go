package services

import (
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"tribe-fitness/internal/database"
	"tribe-fitness/internal/health"
	"tribe-fitness/internal/rewards"
	"tribe-fitness/internal/utils"
)

// JournalService mirrors health events and store redemptions into the local
// journal. It never feeds anything back into the live state.
type JournalService struct {
	repository *database.Repository
	logger     *zap.Logger
	loc        *time.Location
}

func NewJournalService(repo *database.Repository, logger *zap.Logger, loc *time.Location) *JournalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &JournalService{repository: repo, logger: logger, loc: loc}
}

// Attach subscribes the journal to state and returns the unsubscribe func.
func (js *JournalService) Attach(state *health.State) func() {
	return state.Subscribe(js.HandleEvent)
}

func (js *JournalService) HandleEvent(ev health.Event) {
	switch ev.Kind {
	case health.EventSteps:
		js.saveToday(ev.Snapshot)
	case health.EventRollover:
		if ev.Closed == nil {
			return
		}
		err := js.repository.UpsertDailySteps(database.DailySteps{
			Date:           ev.Closed.Date,
			Steps:          ev.Closed.Steps,
			DistanceMeters: ev.Closed.DistanceMeters,
			Calories:       ev.Closed.Calories,
		})
		if err != nil {
			js.logger.Warn("journal closed day", zap.String("date", ev.Closed.Date), zap.Error(err))
		}
	case health.EventWorkout:
		if ev.Workout != nil {
			js.saveWorkout(*ev.Workout)
		}
	}
}

// RecordRedemption implements rewards.Recorder.
func (js *JournalService) RecordRedemption(r rewards.Redemption) {
	err := js.repository.SaveRedemption(database.RedemptionRecord{
		ID:           r.ID,
		ItemID:       r.ItemID,
		Cost:         r.Cost,
		BalanceAfter: r.BalanceAfter,
		Date:         utils.DateKey(r.At.In(js.loc)),
		CreatedAt:    r.At,
	})
	if err != nil {
		js.logger.Warn("journal redemption", zap.String("id", r.ID), zap.Error(err))
	}
}

func (js *JournalService) saveToday(snap health.Snapshot) {
	if len(snap.DailySteps) == 0 {
		return
	}
	today := snap.DailySteps[len(snap.DailySteps)-1].Date
	err := js.repository.UpsertDailySteps(database.DailySteps{
		Date:           today,
		Steps:          snap.Steps,
		DistanceMeters: snap.DistanceMeters,
		Calories:       snap.Calories,
	})
	if err != nil {
		js.logger.Warn("journal steps", zap.String("date", today), zap.Error(err))
	}
}

func (js *JournalService) saveWorkout(w health.WorkoutEntry) {
	payload, err := json.Marshal(w.Fields)
	if err != nil {
		payload = []byte("{}")
	}
	err = js.repository.SaveWorkout(database.WorkoutRecord{
		ID:        w.ID,
		Kind:      workoutKind(w.Fields),
		Minutes:   workoutMinutes(w.Fields),
		Payload:   string(payload),
		Date:      utils.DateKey(w.Timestamp.In(js.loc)),
		CreatedAt: w.Timestamp,
	})
	if err != nil {
		js.logger.Warn("journal workout", zap.String("id", w.ID), zap.Error(err))
	}
}

func workoutKind(fields map[string]any) string {
	for _, key := range []string{"kind", "type"} {
		if s, ok := fields[key].(string); ok && s != "" {
			return strings.ToLower(s)
		}
	}
	return "other"
}

func workoutMinutes(fields map[string]any) int {
	for _, key := range []string{"minutes", "duration"} {
		switch v := fields[key].(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return int(n)
			}
		}
	}
	return 0
}
