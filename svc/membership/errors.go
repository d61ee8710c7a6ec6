package membership

import "errors"

var (
	// ErrUserNotFound is returned by stores when no user matches.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserExists is returned when creating a user with a taken email.
	ErrUserExists = errors.New("user already exists")

	// ErrEventAlreadyProcessed is returned by the event store when the
	// event ID was recorded before.
	ErrEventAlreadyProcessed = errors.New("event already processed")

	// ErrNoSubscription is returned by subscription operations when the
	// user has no provider subscription.
	ErrNoSubscription = errors.New("user has no active subscription")

	// ErrInvalidEvent is returned for events missing their payload.
	ErrInvalidEvent = errors.New("invalid billing event")
)
