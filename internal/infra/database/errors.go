package database

import "errors"

var (
	ErrSubscriberNotFound    = errors.New("subscriber not found")
	ErrDuplicateEmail        = errors.New("subscriber with this email already exists")
	ErrSubscriptionNotFound  = errors.New("subscription not found")
	ErrDuplicateSubscription = errors.New("subscriber is already subscribed to this company")
	ErrCompanyNotFound       = errors.New("company not found")
	ErrDescriptorNotFound    = errors.New("descriptor not found")
)

// ErrSubscriptionNotDue means a guarded update found the row completed or no longer due.
var ErrSubscriptionNotDue = errors.New("subscription is no longer due")
