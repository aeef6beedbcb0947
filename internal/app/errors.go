package service

import "errors"

// Sentinel errors returned by the service. Errors from the stores, the
// catalog and identity are wrapped and pass through unchanged.
var (
	ErrNotStarted     = errors.New("service not started")
	ErrBackpressure   = errors.New("too many pending profile writes")
	ErrInvalidSkill   = errors.New("invalid skill")
	ErrSkillNotFound  = errors.New("skill not found")
	ErrMissingDetails = errors.New("first and last name are required")
)
