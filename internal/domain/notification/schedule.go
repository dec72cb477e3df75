// internal/domain/notification/schedule.go
package notification

import (
	"errors"
	"fmt"
	"math"
	"time"

	"review_reminder/internal/domain/random"
)

// ErrInvalidArgument is returned for a negative or non-finite interval.
var ErrInvalidArgument = errors.New("invalid scheduling argument")

// HourWindow is an inclusive range of hours of the day.
type HourWindow struct {
	From int
	To   int
}

// ScheduleConfig carries every tunable of the reminder schedule.
type ScheduleConfig struct {
	// JitterRatio is the share of the interval used as +/- variance, in whole days.
	JitterRatio float64
	// WeekendShiftProbability is the chance a weekend result is moved to the adjacent weekday.
	WeekendShiftProbability float64
	// TestModeDelay is used for a zero interval.
	TestModeDelay time.Duration
	SlotWindows   map[TimeSlot]HourWindow
	// FallbackWindow applies to TimeSlotAny and to unknown slots.
	FallbackWindow HourWindow
	// Location is the calendar used for day arithmetic. Nil means the zone of now.
	Location *time.Location
}

// DefaultScheduleConfig returns the production schedule.
func DefaultScheduleConfig() ScheduleConfig {
	return ScheduleConfig{
		JitterRatio:             0.33,
		WeekendShiftProbability: 0.8,
		TestModeDelay:           10 * time.Second,
		SlotWindows: map[TimeSlot]HourWindow{
			TimeSlotMorning:   {From: 8, To: 11},
			TimeSlotAfternoon: {From: 12, To: 16},
			TimeSlotEvening:   {From: 17, To: 20},
		},
		FallbackWindow: HourWindow{From: 9, To: 18},
	}
}

// Preferences are the interval and slot applied when a subscriber states none.
type Preferences struct {
	IntervalDays float64
	TimeSlot     TimeSlot
}

// Scheduler computes next-notification instants. It holds no mutable state of
// its own; concurrent use is safe when the random.Source is.
type Scheduler struct {
	cfg ScheduleConfig
	rnd random.Source
}

func NewScheduler(cfg ScheduleConfig, rnd random.Source) *Scheduler {
	if rnd == nil {
		rnd = random.Global()
	}
	return &Scheduler{cfg: cfg, rnd: rnd}
}

// NextNotificationAt returns when the next reminder should go out.
//
// A zero interval yields now+TestModeDelay and an interval below one day yields
// now plus the interval rounded to whole minutes. Intervals of a day or more are
// jittered, placed inside the slot's hour window and, most of the time, moved
// off the weekend.
func (s *Scheduler) NextNotificationAt(intervalDays float64, slot TimeSlot, now time.Time) (time.Time, error) {
	if math.IsNaN(intervalDays) || math.IsInf(intervalDays, 0) || intervalDays < 0 {
		return time.Time{}, fmt.Errorf("%w: interval days must be >= 0, got %v", ErrInvalidArgument, intervalDays)
	}

	if intervalDays == 0 {
		return now.Add(s.cfg.TestModeDelay), nil
	}
	if intervalDays < 1 {
		minutes := math.Round(intervalDays * 24 * 60)
		return now.Add(time.Duration(minutes) * time.Minute), nil
	}

	local := now
	if s.cfg.Location != nil {
		local = now.In(s.cfg.Location)
	}

	variance := int(math.Floor(intervalDays * s.cfg.JitterRatio))
	offset := s.draw(2*variance+1) - variance
	effectiveDays := math.Max(1, intervalDays+float64(offset))
	candidate := local.AddDate(0, 0, int(effectiveDays))

	window := s.window(slot)
	hour := window.From + s.draw(window.To-window.From+1)
	minute := s.draw(60)
	candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), hour, minute, 0, 0, candidate.Location())

	return s.avoidWeekend(candidate, local), nil
}

func (s *Scheduler) window(slot TimeSlot) HourWindow {
	if w, ok := s.cfg.SlotWindows[slot]; ok {
		return w
	}
	return s.cfg.FallbackWindow
}

// draw returns an integer uniformly in [0, n). It always consumes one value
// so a scripted source lines up with the draw order.
func (s *Scheduler) draw(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(math.Floor(s.rnd.Float64() * float64(n)))
	return min(max(v, 0), n-1)
}

// avoidWeekend moves Sunday forward and Saturday back with the configured
// probability. A Saturday whose Friday would not lie after now's calendar day
// goes forward to Monday so the one-day floor holds.
func (s *Scheduler) avoidWeekend(t, now time.Time) time.Time {
	wd := t.Weekday()
	if wd != time.Saturday && wd != time.Sunday {
		return t
	}
	if s.rnd.Float64() >= s.cfg.WeekendShiftProbability {
		return t
	}
	if wd == time.Sunday {
		return t.AddDate(0, 0, 1)
	}
	friday := t.AddDate(0, 0, -1)
	if !calendarDay(friday).After(calendarDay(now)) {
		return t.AddDate(0, 0, 2)
	}
	return friday
}

func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

