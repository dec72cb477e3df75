package app

import "errors"

// Custom application-level errors
var (
	ErrSweepInProgress           = errors.New("a reminder sweep is already running")
	ErrStoreUnavailable          = errors.New("could not query due subscriptions")
	ErrTooFewDescriptors         = errors.New("too few descriptors selected")
	ErrInvalidSubscriberInput    = errors.New("invalid subscriber input")
	ErrSubscriberAlreadyInactive = errors.New("subscriber is already inactive")
)
