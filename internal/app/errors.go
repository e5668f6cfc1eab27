package app

import "fmt"

// Application-level errors surfaced to the conversational layer, which maps
// them to user-facing replies. Authorization failures never create a queue
// row.
var (
	ErrUserNotRegistered   = fmt.Errorf("user is not registered")
	ErrNotAllowListed      = fmt.Errorf("no allow-list row matches the user")
	ErrNotAuthorizedToPlan = fmt.Errorf("role is not authorized to register plans")
	ErrMeterUnknown        = fmt.Errorf("meter has no catalog information")
	ErrMeterNotPlanned     = fmt.Errorf("meter has no plan entry")
	ErrPlanExpired         = fmt.Errorf("plan entry is outside the recency window")
	ErrEmptyPlanInput      = fmt.Errorf("no meters found in the plan input")
)
