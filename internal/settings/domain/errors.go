package domain

import "errors"

var (
	ErrInvalidTenant   = errors.New("invalid_tenant")
	ErrInvalidLeadDays = errors.New("invalid_lead_days")
)
