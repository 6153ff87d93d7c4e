package domain

import "errors"

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPhone    = errors.New("invalid_phone")
	ErrInvalidDate     = errors.New("invalid_reminder_date")
	ErrRecordNotFound  = errors.New("client_record_not_found")
	ErrPlanLimitReached = errors.New("plan_limit_reached")
)
