// Package health keeps the in-memory activity counters, the seven-day step
// history and the Tribe Token balance.
package health

import (
	"math"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"tribe-fitness/internal/utils"
)

const (
	TokensPerWorkout = 10
	CaloriesPerStep  = 0.04
	HistoryDays      = 7
)

type DayEntry struct {
	Date  string `json:"date"`
	Steps int    `json:"steps"`
}

type Snapshot struct {
	Steps          int        `json:"steps"`
	DistanceMeters float64    `json:"distance_meters"`
	Calories       int        `json:"calories"`
	DailySteps     []DayEntry `json:"daily_steps_history"`
	Tokens         int        `json:"tokens"`
}

type WorkoutEntry struct {
	ID        string         `json:"id"`
	Fields    map[string]any `json:"fields"`
	Timestamp time.Time      `json:"timestamp"`
}

// DaySummary holds the counters of a day that has just been closed by a
// rollover.
type DaySummary struct {
	Date           string  `json:"date"`
	Steps          int     `json:"steps"`
	DistanceMeters float64 `json:"distance_meters"`
	Calories       int     `json:"calories"`
}

type EventKind string

const (
	EventSteps    EventKind = "steps"
	EventLocation EventKind = "location"
	EventWorkout  EventKind = "workout"
	EventRedeem   EventKind = "redeem"
	EventRollover EventKind = "rollover"
)

// Event is delivered to listeners after every mutation.
type Event struct {
	Kind     EventKind     `json:"kind"`
	Snapshot Snapshot      `json:"snapshot"`
	Workout  *WorkoutEntry `json:"workout,omitempty"`
	Cost     int           `json:"cost,omitempty"`
	Closed   *DaySummary   `json:"closed,omitempty"`
}

type Listener func(Event)

type Option func(*State)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *State) { s.logger = logger }
}

// WithTokens seeds the starting balance.
func WithTokens(tokens int) Option {
	return func(s *State) { s.tokens = tokens }
}

// State is safe for concurrent use. Listeners run on the goroutine that
// caused the mutation, after the state lock is released.
type State struct {
	mu       sync.Mutex
	now      func() time.Time
	logger   *zap.Logger
	steps    int
	distance float64
	calories int
	history  []DayEntry
	tokens   int
	workouts []WorkoutEntry

	lmu       sync.RWMutex
	listeners map[int]Listener
	nextID    int
}

func New(opts ...Option) *State {
	s := &State{
		now:       time.Now,
		logger:    zap.NewNop(),
		listeners: make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.history = skeleton(s.now(), nil)
	return s
}

// Calories applies the app's fixed steps-to-kcal factor, rounding half up.
func Calories(steps int) int {
	return int(math.Floor(float64(steps)*CaloriesPerStep + 0.5))
}

// OnStepUpdate receives the cumulative step total reported by the pedometer.
func (s *State) OnStepUpdate(newTotal int) {
	s.mu.Lock()
	closed := s.ensureDayLocked()
	s.steps = newTotal
	s.calories = Calories(newTotal)
	today := utils.DateKey(s.now())
	for i := range s.history {
		if s.history[i].Date == today {
			s.history[i].Steps = newTotal
			break
		}
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emitRollover(closed, snap)
	s.emit(Event{Kind: EventSteps, Snapshot: snap})
}

// OnLocationUpdate adds the reported speed to the distance counter. Each
// callback is treated as a one-second sample.
func (s *State) OnLocationUpdate(speedMetersPerSecond float64) {
	s.mu.Lock()
	closed := s.ensureDayLocked()
	s.distance += speedMetersPerSecond
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emitRollover(closed, snap)
	s.emit(Event{Kind: EventLocation, Snapshot: snap})
}

// LogWorkout records the entry and credits TokensPerWorkout. The caller's
// fields are stored as given.
func (s *State) LogWorkout(fields map[string]any) WorkoutEntry {
	copied := make(map[string]any, len(fields))
	for k, v := range fields {
		copied[k] = v
	}

	s.mu.Lock()
	closed := s.ensureDayLocked()
	entry := WorkoutEntry{
		ID:        ulid.Make().String(),
		Fields:    copied,
		Timestamp: s.now(),
	}
	s.workouts = append(s.workouts, entry)
	s.tokens += TokensPerWorkout
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Debug("workout logged", zap.String("id", entry.ID), zap.Int("tokens", snap.Tokens))
	s.emitRollover(closed, snap)
	s.emit(Event{Kind: EventWorkout, Snapshot: snap, Workout: &entry})
	return entry
}

// RedeemTokens debits cost when the balance covers it.
func (s *State) RedeemTokens(cost int) bool {
	s.mu.Lock()
	if s.tokens < cost {
		s.mu.Unlock()
		return false
	}
	s.tokens -= cost
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emit(Event{Kind: EventRedeem, Snapshot: snap, Cost: cost})
	return true
}

// Rollover moves the history window to the current day if the date changed
// since the last update. It reports whether a day was closed.
func (s *State) Rollover() bool {
	s.mu.Lock()
	closed := s.ensureDayLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emitRollover(closed, snap)
	return closed != nil
}

func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	closed := s.ensureDayLocked()
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.emitRollover(closed, snap)
	return snap
}

func (s *State) Tokens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tokens
}

func (s *State) Workouts() []WorkoutEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]WorkoutEntry, len(s.workouts))
	copy(out, s.workouts)
	return out
}

// Subscribe registers l and returns a function removing it.
func (s *State) Subscribe(l Listener) func() {
	s.lmu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	s.lmu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmu.Lock()
			delete(s.listeners, id)
			s.lmu.Unlock()
		})
	}
}

func (s *State) emit(ev Event) {
	s.lmu.RLock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.lmu.RUnlock()

	for _, l := range listeners {
		l(ev)
	}
}

func (s *State) emitRollover(closed *DaySummary, snap Snapshot) {
	if closed == nil {
		return
	}
	s.logger.Info("day rolled over",
		zap.String("closed", closed.Date),
		zap.Int("steps", closed.Steps),
		zap.Float64("distance_m", closed.DistanceMeters))
	s.emit(Event{Kind: EventRollover, Snapshot: snap, Closed: closed})
}

// ensureDayLocked rebuilds the window when today is no longer its last
// entry and resets the daily counters. Caller holds s.mu.
func (s *State) ensureDayLocked() *DaySummary {
	now := s.now()
	today := utils.DateKey(now)
	last := s.history[len(s.history)-1]
	if last.Date == today {
		return nil
	}

	closed := &DaySummary{
		Date:           last.Date,
		Steps:          s.steps,
		DistanceMeters: s.distance,
		Calories:       s.calories,
	}
	s.history = skeleton(now, s.history)
	s.steps = 0
	s.distance = 0
	s.calories = 0
	return closed
}

func (s *State) snapshotLocked() Snapshot {
	history := make([]DayEntry, len(s.history))
	copy(history, s.history)
	return Snapshot{
		Steps:          s.steps,
		DistanceMeters: s.distance,
		Calories:       s.calories,
		DailySteps:     history,
		Tokens:         s.tokens,
	}
}

// skeleton builds the HistoryDays window ending on the day of now, keeping
// counts for dates present in prev.
func skeleton(now time.Time, prev []DayEntry) []DayEntry {
	known := make(map[string]int, len(prev))
	for _, e := range prev {
		known[e.Date] = e.Steps
	}
	dates := utils.TrailingDates(now, HistoryDays)
	out := make([]DayEntry, len(dates))
	for i, d := range dates {
		out[i] = DayEntry{Date: d, Steps: known[d]}
	}
	return out
}
