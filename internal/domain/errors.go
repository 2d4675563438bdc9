package domain

import "errors"

var (
	ErrNotFound          = errors.New("not_found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation")
	ErrUserDeactivated   = errors.New("user_deactivated")
	ErrAlreadyFriends    = errors.New("already_friends")
	ErrRequestSent       = errors.New("request_already_sent")
	ErrAlreadyProcessed  = errors.New("already_processed")
	ErrGroupDisbanded    = errors.New("group_disbanded")
	ErrAlreadyMember     = errors.New("already_member")
	ErrNotAMember        = errors.New("not_a_member")
	ErrLeaderCannotLeave = errors.New("leader_cannot_leave")
	ErrCannotKickSelf    = errors.New("cannot_kick_self")
	ErrTargetNotMember   = errors.New("target_not_member")
	ErrDepthExceeded     = errors.New("repost_depth_exceeded")
)
