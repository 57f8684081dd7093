package ratelimit

import (
	"context"
	"time"
)

const (
	ActionFlagListing       = "flag_listing"
	ActionSendMessage       = "send_message"
	ActionStartConversation = "start_conversation"
	ActionRentalRequest     = "rental_request"
	ActionUpload            = "upload"

	// ActionAPI is the coarse per-caller budget applied to every authenticated route group.
	ActionAPI = "api"
)

// Policy is a token bucket: Capacity tokens, RefillTokens added every RefillInterval.
type Policy struct {
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
}

var defaultPolicy = Policy{Capacity: 20, RefillTokens: 1, RefillInterval: 3 * time.Second}

// DefaultPolicies are per-action limits applied to each user.
var DefaultPolicies = map[string]Policy{
	ActionFlagListing:       {Capacity: 5, RefillTokens: 1, RefillInterval: 12 * time.Minute},
	ActionSendMessage:       {Capacity: 10, RefillTokens: 1, RefillInterval: 6 * time.Second},
	ActionStartConversation: {Capacity: 5, RefillTokens: 1, RefillInterval: 12 * time.Minute},
	ActionRentalRequest:     {Capacity: 10, RefillTokens: 1, RefillInterval: 6 * time.Minute},
	ActionUpload:            {Capacity: 10, RefillTokens: 1, RefillInterval: time.Minute},
	ActionAPI:               {Capacity: 120, RefillTokens: 2, RefillInterval: time.Second},
}

func policyFor(policies map[string]Policy, action string) Policy {
	if p, ok := policies[action]; ok {
		return p
	}
	return defaultPolicy
}

// Limiter decides whether userID may perform action now. When denied it
// returns how long to wait before the next token.
type Limiter interface {
	Allow(ctx context.Context, userID, action string) (bool, time.Duration, error)
}

// Disabled allows everything.
type Disabled struct{}

func (Disabled) Allow(ctx context.Context, userID, action string) (bool, time.Duration, error) {
	return true, 0, nil
}

func bucketKey(prefix, userID, action string) string {
	return prefix + ":" + action + ":" + userID
}
