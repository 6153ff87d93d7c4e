package domain

import "errors"

var (
	ErrInvalidTenant        = errors.New("invalid_tenant")
	ErrUnknownEventType     = errors.New("unknown_event_type")
	ErrNoMatchingCustomer   = errors.New("no_matching_customer")
	ErrBillingNotConfigured = errors.New("billing_not_configured")
	ErrAlreadySubscribed    = errors.New("already_subscribed")
	ErrNotSubscribed        = errors.New("not_subscribed")
)
