package service

import "errors"

// Activation-path errors are returned to callers verbatim for user-facing
// translation. Decide never surfaces any of these; resolution failures
// silently degrade to an inactive decision.
var (
	ErrInvalidFormat = errors.New("invalid code format")
	ErrCodeNotFound  = errors.New("code not found")
	ErrMaxUses       = errors.New("code has no uses left")
	ErrCodeExpired   = errors.New("code expired")
	ErrCodeInactive  = errors.New("code deactivated")
	ErrCampaignEnded = errors.New("campaign ended")
	ErrUnknownPlan   = errors.New("unknown plan")
	ErrServerError   = errors.New("server error")
)
