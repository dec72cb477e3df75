// internal/domain/notification/shared_types.go
package notification

// TimeSlot is the subscriber's preferred part of the day for reminders.
type TimeSlot string

const (
	TimeSlotMorning   TimeSlot = "morning"
	TimeSlotAfternoon TimeSlot = "afternoon"
	TimeSlotEvening   TimeSlot = "evening"
	TimeSlotAny       TimeSlot = "any"
)

// Valid reports whether s is one of the known slots.
func (s TimeSlot) Valid() bool {
	switch s {
	case TimeSlotMorning, TimeSlotAfternoon, TimeSlotEvening, TimeSlotAny:
		return true
	}
	return false
}

// EmailType tags a NotificationLogEntry with the kind of email that was attempted.
type EmailType string

const (
	EmailTypeReviewReminder EmailType = "review_reminder"
)

// SweepMode selects what happens to a subscription after a successful send.
type SweepMode string

const (
	// SweepModeRecurring reschedules the subscription with the scheduler.
	SweepModeRecurring SweepMode = "recurring"
	// SweepModeOneShot clears next_notification_at and waits for the subscription to be touched again.
	SweepModeOneShot SweepMode = "one_shot"
)

func (m SweepMode) Valid() bool {
	return m == SweepModeRecurring || m == SweepModeOneShot
}
