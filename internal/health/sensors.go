package health

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrPermissionDenied is returned by a source whose sensor is not granted.
var ErrPermissionDenied = errors.New("sensor permission denied")

type LocationFix struct {
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	SpeedMetersPerSecond float64 `json:"speed"`
}

// StepSource streams cumulative step totals until ctx is done.
type StepSource interface {
	WatchSteps(ctx context.Context) (<-chan int, error)
}

// LocationSource streams foreground location fixes until ctx is done.
type LocationSource interface {
	WatchLocation(ctx context.Context) (<-chan LocationFix, error)
}

// Track subscribes the state to both sources. A source that refuses (for
// example with ErrPermissionDenied) is skipped without further attempts.
// Either source may be nil. The returned channel is closed once every
// subscription has ended.
func (s *State) Track(ctx context.Context, steps StepSource, loc LocationSource) <-chan struct{} {
	var wg sync.WaitGroup

	if steps != nil {
		ch, err := steps.WatchSteps(ctx)
		if err != nil {
			s.logSensorRefusal("steps", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case total, ok := <-ch:
						if !ok {
							return
						}
						s.OnStepUpdate(total)
					}
				}
			}()
		}
	}

	if loc != nil {
		ch, err := loc.WatchLocation(ctx)
		if err != nil {
			s.logSensorRefusal("location", err)
		} else {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-ctx.Done():
						return
					case fix, ok := <-ch:
						if !ok {
							return
						}
						s.OnLocationUpdate(fix.SpeedMetersPerSecond)
					}
				}
			}()
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

func (s *State) logSensorRefusal(sensor string, err error) {
	if errors.Is(err, ErrPermissionDenied) {
		s.logger.Debug("sensor disabled", zap.String("sensor", sensor))
		return
	}
	s.logger.Warn("sensor subscription failed", zap.String("sensor", sensor), zap.Error(err))
}

const feedBuffer = 64

// Feed is an in-process sensor source. Readings pushed into it (by the
// ingest API) fan out to every active watcher. Readings are dropped for a
// watcher whose buffer is full.
type Feed struct {
	allowSteps    bool
	allowLocation bool

	mu    sync.Mutex
	steps map[chan int]struct{}
	fixes map[chan LocationFix]struct{}
}

func NewFeed(allowSteps, allowLocation bool) *Feed {
	return &Feed{
		allowSteps:    allowSteps,
		allowLocation: allowLocation,
		steps:         make(map[chan int]struct{}),
		fixes:         make(map[chan LocationFix]struct{}),
	}
}

func (f *Feed) WatchSteps(ctx context.Context) (<-chan int, error) {
	if !f.allowSteps {
		return nil, ErrPermissionDenied
	}
	ch := make(chan int, feedBuffer)
	f.mu.Lock()
	f.steps[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.steps, ch)
		close(ch)
		f.mu.Unlock()
	}()
	return ch, nil
}

func (f *Feed) WatchLocation(ctx context.Context) (<-chan LocationFix, error) {
	if !f.allowLocation {
		return nil, ErrPermissionDenied
	}
	ch := make(chan LocationFix, feedBuffer)
	f.mu.Lock()
	f.fixes[ch] = struct{}{}
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		f.mu.Lock()
		delete(f.fixes, ch)
		close(ch)
		f.mu.Unlock()
	}()
	return ch, nil
}

// PushSteps publishes a cumulative step total. It reports how many watchers
// received it.
func (f *Feed) PushSteps(total int) (int, error) {
	if !f.allowSteps {
		return 0, ErrPermissionDenied
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delivered := 0
	for ch := range f.steps {
		select {
		case ch <- total:
			delivered++
		default:
		}
	}
	return delivered, nil
}

func (f *Feed) PushLocation(fix LocationFix) (int, error) {
	if !f.allowLocation {
		return 0, ErrPermissionDenied
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delivered := 0
	for ch := range f.fixes {
		select {
		case ch <- fix:
			delivered++
		default:
		}
	}
	return delivered, nil
}

func (f *Feed) StepsAllowed() bool    { return f.allowSteps }
func (f *Feed) LocationAllowed() bool { return f.allowLocation }
